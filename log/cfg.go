package log

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/linchenxuan/sinklog/plugin"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is wrapped by every validation failure of LogCfg.
	ErrInvalidConfig = errors.New("invalid log config")
	// ErrUnsupportedRegistry is returned by Configure when the core's registry
	// does not expose the factory its appenders are built with.
	ErrUnsupportedRegistry = errors.New("registry does not expose a factory")
)

// LogCfg describes the appenders of a core and its process-wide settings.
//
//	defaultAppenders: [file, console]
//	appenders:
//	  console: {type: console, level: debug, color: auto}
//	  file:    {type: file, level: info, basePath: ./log, splitMB: 10}
//	  noisy:   {type: console, rateLimit: {perSecond: 100, burst: 20}}
type LogCfg struct {
	// DefaultAppenders are the destinations of loggers without explicit
	// appenders. Empty keeps the core's current list.
	DefaultAppenders []string `mapstructure:"defaultAppenders" yaml:"defaultAppenders"`

	// DisableConsole skips the "console" appender for every logger.
	DisableConsole bool `mapstructure:"disableConsole" yaml:"disableConsole"`

	// CallerSkip specifies the number of extra stack frames to skip for caller
	// information, for hosts that wrap the logging calls.
	CallerSkip int `mapstructure:"callerSkip" yaml:"callerSkip"`

	// LevelChange re-targets the level of log statements at given locations.
	LevelChange []LevelChangeEntry `mapstructure:"levelChange" yaml:"levelChange"`

	// Appenders maps appender names to their definition. Empty keeps the
	// appenders of the previous configuration.
	Appenders map[string]AppenderCfg `mapstructure:"appenders" yaml:"appenders"`
}

// AppenderCfg defines one named appender. Keys other than type, level and
// rateLimit are the options of the kind named by Type.
type AppenderCfg struct {
	Type      string         `mapstructure:"type" yaml:"type"`
	Level     Level          `mapstructure:"level" yaml:"level"`
	RateLimit *RateLimit     `mapstructure:"rateLimit" yaml:"rateLimit"`
	Options   map[string]any `mapstructure:",remain" yaml:",inline"`
}

// Validate checks the configuration for values that can never work.
func (cfg *LogCfg) Validate() error {
	if cfg.CallerSkip < 0 {
		return fmt.Errorf("%w: caller skip must be non-negative, got %d", ErrInvalidConfig, cfg.CallerSkip)
	}
	for i, lc := range cfg.LevelChange {
		if lc.FileName == "" {
			return fmt.Errorf("%w: levelChange[%d] has no file", ErrInvalidConfig, i)
		}
		if lc.LineNum < 0 {
			return fmt.Errorf("%w: levelChange[%d] has negative line %d", ErrInvalidConfig, i, lc.LineNum)
		}
	}
	for name, a := range cfg.Appenders {
		if name == "" {
			return fmt.Errorf("%w: appender with empty name", ErrInvalidConfig)
		}
		if a.Type == "" {
			return fmt.Errorf("%w: appender %q has no type", ErrInvalidConfig, name)
		}
		if a.Level < UnknownLevel || a.Level > FatalLevel {
			return fmt.Errorf("%w: appender %q has invalid level %d", ErrInvalidConfig, name, a.Level)
		}
		if a.RateLimit != nil && (a.RateLimit.PerSecond < 0 || a.RateLimit.Burst < 0) {
			return fmt.Errorf("%w: appender %q has negative rate limit", ErrInvalidConfig, name)
		}
	}
	return nil
}

// LoadCfg reads a YAML configuration file.
func LoadCfg(path string) (*LogCfg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log config: %w", err)
	}
	return ParseCfg(data)
}

// ParseCfg parses a YAML configuration document.
func ParseCfg(data []byte) (*LogCfg, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse log config: %w", err)
	}
	return DecodeCfg(raw)
}

// DecodeCfg decodes an already parsed configuration map, such as a section
// of a larger application config.
func DecodeCfg(raw map[string]any) (*LogCfg, error) {
	cfg := &LogCfg{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
		Result:     cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("create log config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode log config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Configure registers a constructor for every configured appender in the
// core's factory, builds the appenders and applies the settings.
//
// Every appender is first built once and closed, so a bad kind or option
// fails Configure before anything is replaced. Appenders installed by a
// previous Configure and missing from cfg are closed and unregistered; a cfg
// without appenders only changes the settings.
func (c *Core) Configure(cfg *LogCfg) error {
	c.configLock.Lock()
	defer c.configLock.Unlock()

	if err := cfg.Validate(); err != nil {
		return err
	}
	factory, err := c.factory()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(cfg.Appenders))
	builders := make(map[string]func() (Appender, error), len(cfg.Appenders))
	for name, entry := range cfg.Appenders {
		build := c.appenderBuilder(entry)
		a, err := build()
		if err != nil {
			return fmt.Errorf("appender %q: %w", name, err)
		}
		_ = a.Close()

		names = append(names, name)
		builders[name] = build
	}
	sort.Strings(names)

	for _, name := range names {
		build := builders[name]
		factory.RegisterCreateMethod(name, func() Appender {
			a, err := build()
			if err != nil {
				return nil
			}
			return a
		})
	}
	c.AddAppenders(names...)
	if len(names) > 0 {
		c.retire(factory, names)
	}

	if len(cfg.DefaultAppenders) > 0 {
		c.SetDefaultAppenders(cfg.DefaultAppenders...)
	}
	c.DisableConsole(cfg.DisableConsole)
	c.SetCallerSkip(cfg.CallerSkip)
	c.SetLevelChanges(cfg.LevelChange...)

	c.Info().Logf("log configured, appenders %v, defaults %v", names, c.DefaultAppenders()).End()
	return nil
}

// retire removes the appenders of the previous configuration that are not in
// names. Must be called with configLock held.
func (c *Core) retire(factory *Factory, names []string) {
	keep := make(map[string]struct{}, len(names))
	for _, name := range names {
		keep[name] = struct{}{}
	}
	var retired []string
	for _, name := range c.configured {
		if _, ok := keep[name]; !ok {
			retired = append(retired, name)
			factory.Reset(name)
		}
	}
	if r, ok := c.registry.(interface{ Remove(names ...string) }); ok && len(retired) > 0 {
		r.Remove(retired...)
	}
	c.configured = names
}

// appenderBuilder returns a constructor for one configured appender: the kind
// built through the plugin manager, its level applied, wrapped in a Throttle
// when rate limited.
func (c *Core) appenderBuilder(entry AppenderCfg) func() (Appender, error) {
	return func() (Appender, error) {
		p, err := c.kinds.Build(plugin.Appender, entry.Type, entry.Options)
		if err != nil {
			return nil, err
		}
		ap, ok := p.(*appenderPlugin)
		if !ok {
			return nil, fmt.Errorf("kind %s did not build an appender", entry.Type)
		}

		var a Appender = ap.Appender
		if entry.Level != UnknownLevel {
			a.SetLevel(entry.Level)
		}
		if entry.RateLimit != nil {
			a = NewThrottle(a, entry.RateLimit.PerSecond, entry.RateLimit.Burst)
		}
		return a, nil
	}
}

// factory returns the factory the core's registry builds appenders with.
func (c *Core) factory() (*Factory, error) {
	r, ok := c.registry.(interface{ Factory() *Factory })
	if !ok {
		return nil, ErrUnsupportedRegistry
	}
	return r.Factory(), nil
}
