package log

import (
	"fmt"
	"os"

	"github.com/linchenxuan/sinklog/plugin"
)

// Built-in appender kinds usable as the "type" of a configured appender.
const (
	KindConsole = "console"
	KindFile    = "file"
	KindRolling = "rolling"
	KindZap     = "zap"
)

// ConsoleOptions configures the console kind.
type ConsoleOptions struct {
	Color  string `mapstructure:"color" yaml:"color"`   // always, never or auto
	Output string `mapstructure:"output" yaml:"output"` // stdout or stderr
}

// FileOptions configures the file kind.
type FileOptions struct {
	BasePath  string `mapstructure:"basePath" yaml:"basePath"`
	SplitMB   int    `mapstructure:"splitMB" yaml:"splitMB"`
	Exclusive bool   `mapstructure:"exclusive" yaml:"exclusive"`
}

// appenderPlugin lets an Appender travel through the plugin manager.
type appenderPlugin struct {
	Appender
	kind string
}

// FactoryName implements plugin.Plugin.
func (p *appenderPlugin) FactoryName() string {
	return p.kind
}

// appenderKind is a plugin.Factory building appenders from a typed config.
type appenderKind[C any] struct {
	name  string
	build func(cfg *C) (Appender, error)
}

func (k *appenderKind[C]) Type() plugin.Type {
	return plugin.Appender
}

func (k *appenderKind[C]) Name() string {
	return k.name
}

func (k *appenderKind[C]) ConfigType() any {
	return new(C)
}

func (k *appenderKind[C]) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*C)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T for appender kind %s", cfgAny, k.name)
	}
	a, err := k.build(cfg)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("appender kind %s built nothing", k.name)
	}
	return &appenderPlugin{Appender: a, kind: k.name}, nil
}

func (k *appenderKind[C]) Destroy(p plugin.Plugin) {
	if ap, ok := p.(*appenderPlugin); ok {
		_ = ap.Close()
	}
}

// RegisterKind makes an appender kind available to configuration. The
// options of a configured appender are decoded into a fresh C, using the
// mapstructure tags of C.
func RegisterKind[C any](m *plugin.Manager, name string, build func(cfg *C) (Appender, error)) {
	m.RegisterFactory(&appenderKind[C]{name: name, build: build})
}

func registerBuiltinKinds(m *plugin.Manager) {
	RegisterKind(m, KindConsole, buildConsole)
	RegisterKind(m, KindFile, buildFile)
	RegisterKind(m, KindRolling, func(cfg *RollingOptions) (Appender, error) {
		return NewRollingAppender(*cfg), nil
	})
	RegisterKind(m, KindZap, func(cfg *ZapOptions) (Appender, error) {
		a, err := NewZapAppenderWithOptions(*cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	})
}

func buildConsole(cfg *ConsoleOptions) (Appender, error) {
	mode, err := ParseColorMode(cfg.Color)
	if err != nil {
		return nil, err
	}
	a := NewConsoleAppender()
	switch cfg.Output {
	case "", "stdout":
	case "stderr":
		a.SetOutput(os.Stderr)
	default:
		return nil, fmt.Errorf("unknown console output %q", cfg.Output)
	}
	a.SetColorMode(mode)
	return a, nil
}

func buildFile(cfg *FileOptions) (Appender, error) {
	if cfg.SplitMB < 0 {
		return nil, fmt.Errorf("negative splitMB %d", cfg.SplitMB)
	}
	a := NewFileAppender()
	if cfg.BasePath != "" {
		a.SetBasePath(cfg.BasePath)
	}
	if cfg.SplitMB > 0 {
		a.SetSplitSize(int64(cfg.SplitMB) << 20)
	}
	a.SetExclusive(cfg.Exclusive)
	return a, nil
}
