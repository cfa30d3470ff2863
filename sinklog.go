package sinklog

import (
	"fmt"
	"os"

	"github.com/linchenxuan/sinklog/event"
	"github.com/linchenxuan/sinklog/log"
	"github.com/linchenxuan/sinklog/metrics/prometheus"
	"github.com/linchenxuan/sinklog/plugin"
	"gopkg.in/yaml.v3"
)

// Config is the application-level configuration: the log section and the
// plugin section keyed by plugin type and factory name.
//
//	log:
//	  defaultAppenders: [file, console]
//	  appenders:
//	    console: {type: console, level: debug}
//	plugin:
//	  metrics:
//	    prometheus: {httpListenAddr: ":9100"}
type Config struct {
	Log    *log.LogCfg
	Plugin map[string]any
}

// LoadConfig reads a YAML file holding "log" and "plugin" sections.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{}
	if section, ok := raw["log"]; ok {
		logRaw, ok := section.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: log section is %T", log.ErrInvalidConfig, section)
		}
		if cfg.Log, err = log.DecodeCfg(logRaw); err != nil {
			return nil, err
		}
	}
	if section, ok := raw["plugin"]; ok {
		pluginRaw, ok := section.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: plugin section is %T", plugin.ErrInvalidConfigFormat, section)
		}
		cfg.Plugin = pluginRaw
	}
	return cfg, nil
}

// Sinklog is the application struct holding the logging core, the plugin
// manager running its reporters and the publisher used for live reloads.
type Sinklog struct {
	Core          *log.Core
	PluginManager *plugin.Manager
	Events        *event.Publisher
}

// New assembles a Sinklog around core, the default core when nil, and
// applies cfg when it is not nil.
func New(core *log.Core, cfg *Config) (*Sinklog, error) {
	if core == nil {
		core = log.DefaultCore()
	}

	pluginManager := plugin.NewManager()
	prometheus.Register(pluginManager)

	events := event.NewPublisher()
	if err := core.SubscribeReload(events); err != nil {
		return nil, err
	}

	s := &Sinklog{
		Core:          core,
		PluginManager: pluginManager,
		Events:        events,
	}

	if cfg != nil {
		if cfg.Log != nil {
			if err := core.Configure(cfg.Log); err != nil {
				return nil, err
			}
		}
		if err := pluginManager.SetupPlugins(cfg.Plugin); err != nil {
			return nil, err
		}
	}

	core.Info().Msg("sinklog initialized")
	return s, nil
}

// Reload publishes a new log configuration to every subscriber, the core included.
func (s *Sinklog) Reload(cfg *log.LogCfg) error {
	return s.Events.Publish(event.ReloadConfig, cfg)
}

// Stop destroys the plugins and closes every appender.
func (s *Sinklog) Stop() {
	s.Core.Info().Msg("sinklog shutting down")
	s.PluginManager.DestroyPlugins()
	s.Core.Close()
}
