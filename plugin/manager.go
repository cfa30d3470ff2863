package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultInsName is the tag for the default plugin instance.
	DefaultInsName = "default"
)

var (
	ErrPluginNotFound      = errors.New("plugin not found")
	ErrDuplicatePlugin     = errors.New("duplicate plugin")
	ErrInvalidConfigFormat = errors.New("invalid config format")
	ErrConfigDecode        = errors.New("config decode error")
	ErrFactorySetup        = errors.New("factory setup error")
)

// Manager is responsible for managing all plugins of a process: the
// factories that can build them and the named instances already set up.
type Manager struct {
	factories map[Type]map[string]Factory
	plugins   map[Type]map[string]Plugin
	lock      sync.RWMutex
}

// NewManager creates and returns a new Manager instance.
func NewManager() *Manager {
	return &Manager{
		factories: make(map[Type]map[string]Factory),
		plugins:   make(map[Type]map[string]Plugin),
	}
}

// RegisterFactory registers a plugin factory with the manager.
// The last factory registered for a type and name wins.
func (m *Manager) RegisterFactory(f Factory) {
	m.lock.Lock()
	defer m.lock.Unlock()

	factories, ok := m.factories[f.Type()]
	if !ok {
		factories = make(map[string]Factory)
		m.factories[f.Type()] = factories
	}
	factories[f.Name()] = f
}

// HasFactory reports whether a factory is registered for typ and name.
func (m *Manager) HasFactory(typ Type, name string) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.factories[typ][name]
	return ok
}

// SetupPlugins sets up and initializes all plugins from the configuration.
// pluginConf maps plugin types to maps of factory name to config map.
func (m *Manager) SetupPlugins(pluginConf map[string]any) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	for typeName, plugins := range pluginConf {
		pluginType := Type(typeName)
		factories, ok := m.factories[pluginType]
		if !ok {
			continue
		}

		pluginsMap, ok := plugins.(map[string]any)
		if !ok {
			return fmt.Errorf("%w for plugin type '%s'", ErrInvalidConfigFormat, pluginType)
		}

		for name, config := range pluginsMap {
			factory, ok := factories[name]
			if !ok {
				return fmt.Errorf("%w: plugin factory not found for type '%s' and name '%s'", ErrPluginNotFound, pluginType, name)
			}

			configMap, ok := config.(map[string]any)
			if !ok {
				return fmt.Errorf("%w for plugin '%s':'%s'", ErrInvalidConfigFormat, pluginType, name)
			}

			ins, err := setup(factory, configMap)
			if err != nil {
				return err
			}

			if _, ok := m.plugins[pluginType]; !ok {
				m.plugins[pluginType] = make(map[string]Plugin)
			}

			// Prioritize using tag as the key
			key := name
			if tag, ok := configMap["tag"].(string); ok && tag != "" {
				key = tag
			}

			if _, exists := m.plugins[pluginType][key]; exists {
				factory.Destroy(ins)
				return fmt.Errorf("%w: duplicate plugin tag/name '%s' for type '%s'", ErrDuplicatePlugin, key, pluginType)
			}
			m.plugins[pluginType][key] = ins
		}
	}
	return nil
}

// Build decodes config for the factory registered under typ and name and
// returns a new instance. Unlike SetupPlugins the instance is not stored:
// the caller owns it.
func (m *Manager) Build(typ Type, name string, config map[string]any) (Plugin, error) {
	m.lock.RLock()
	factory, ok := m.factories[typ][name]
	m.lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: plugin factory not found for type '%s' and name '%s'", ErrPluginNotFound, typ, name)
	}
	if config == nil {
		config = map[string]any{}
	}
	return setup(factory, config)
}

// setup decodes the raw config map into the factory's config struct and
// passes it to the factory.
func setup(factory Factory, configMap map[string]any) (Plugin, error) {
	pluginType, name := factory.Type(), factory.Name()

	targetConfig := factory.ConfigType()
	if targetConfig == nil {
		return nil, fmt.Errorf("%w: plugin factory '%s':'%s' did not provide a configuration type", ErrInvalidConfigFormat, pluginType, name)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: false,
		Result:           targetConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create config decoder for plugin '%s':'%s': %v", ErrConfigDecode, pluginType, name, err)
	}
	if err := decoder.Decode(configMap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config for plugin '%s':'%s': %v", ErrConfigDecode, pluginType, name, err)
	}

	ins, err := factory.Setup(targetConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to setup plugin '%s':'%s': %v", ErrFactorySetup, pluginType, name, err)
	}
	return ins, nil
}

// GetPlugin gets an initialized plugin instance from the manager.
// `name` can be the name of the plugin or its tag.
func (m *Manager) GetPlugin(typ Type, name string) (any, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	plugins, ok := m.plugins[typ]
	if !ok {
		return nil, fmt.Errorf("%w: no plugins found for type '%s'", ErrPluginNotFound, typ)
	}

	plugin, ok := plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: plugin '%s' not found for type '%s'", ErrPluginNotFound, name, typ)
	}
	return plugin, nil
}

// GetDefaultPlugin gets the default plugin instance of the specified type from the manager.
func (m *Manager) GetDefaultPlugin(typ Type) (any, error) {
	return m.GetPlugin(typ, DefaultInsName)
}

// DestroyPlugins hands every stored instance back to its factory and forgets it.
func (m *Manager) DestroyPlugins() {
	m.lock.Lock()
	defer m.lock.Unlock()

	for typ, plugins := range m.plugins {
		for _, ins := range plugins {
			if factory, ok := m.factories[typ][ins.FactoryName()]; ok {
				factory.Destroy(ins)
			}
		}
	}
	m.plugins = make(map[Type]map[string]Plugin)
}
