package plugin

// Type is the type of plugin supported by the system.
type Type string

const (
	// Metrics is the type of metrics reporters.
	Metrics Type = "metrics"
	// Appender is the type of log appender kinds.
	Appender Type = "appender"
)

// Factory is the interface for plugin factories.
type Factory interface {
	// Type returns the plugin type.
	Type() Type
	// Name returns the name of the plugin implementation.
	Name() string
	// ConfigType returns an empty struct that represents the plugin's configuration.
	// This struct will be populated by the manager using mapstructure.
	// A fresh value must be returned on every call.
	ConfigType() any
	// Setup initializes a plugin instance based on the configuration.
	Setup(any) (Plugin, error)

	// Destroy releases an instance built by Setup.
	Destroy(Plugin)
}

// Plugin is an instance built by a Factory.
type Plugin interface {
	// FactoryName names the factory that built the instance.
	FactoryName() string
}
