package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAppender forwards rendered lines to a *zap.Logger, for hosts that already
// ship zap output somewhere. Its threshold defaults to DebugLevel; the zap
// logger's own level still applies on top of it.
//
// Fatal events are written at zap's fatal level without terminating the process.
type ZapAppender struct {
	appenderBase
	logger *zap.Logger
	owned  bool   // built by the appender, synced on Close
	closer func() // closes the outputs opened by the appender
}

// ZapOptions describes a zap logger built by the appender itself.
type ZapOptions struct {
	Development bool     `mapstructure:"development" yaml:"development"`
	Encoding    string   `mapstructure:"encoding" yaml:"encoding"`
	OutputPaths []string `mapstructure:"outputPaths" yaml:"outputPaths"`
}

// noExitHook replaces zap's terminating fatal hook.
type noExitHook struct{}

func (noExitHook) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {}

// NewZapAppender wraps l. A nil l discards every line.
func NewZapAppender(l *zap.Logger) *ZapAppender {
	if l == nil {
		l = zap.NewNop()
	}
	a := &ZapAppender{
		logger: l.WithOptions(zap.WithFatalHook(noExitHook{})),
	}
	a.init(DebugLevel)
	return a
}

// NewZapAppenderWithOptions builds a zap logger from opts and wraps it. The
// outputs it opens are closed with the appender.
func NewZapAppenderWithOptions(opts ZapOptions) (*ZapAppender, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encoding := "json"
	if opts.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
	}
	if opts.Encoding != "" {
		encoding = opts.Encoding
	}

	var enc zapcore.Encoder
	switch encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown zap encoding %q", encoding)
	}

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}
	sink, closeSink, err := zap.Open(paths...)
	if err != nil {
		return nil, err
	}

	zopts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if opts.Development {
		zopts = append(zopts, zap.Development())
	}
	l := zap.New(zapcore.NewCore(enc, sink, zapcore.DebugLevel), zopts...)

	a := NewZapAppender(l)
	a.owned = true
	a.closer = closeSink
	return a, nil
}

// Write implements Appender.
func (a *ZapAppender) Write(e *Event) bool {
	return a.write(e, a.flush)
}

// Close implements Appender. Loggers built by the appender are synced and
// their outputs closed; sync errors of terminal outputs are ignored.
func (a *ZapAppender) Close() error {
	return a.close(func() error {
		if a.owned {
			_ = a.logger.Sync()
		}
		if a.closer != nil {
			a.closer()
		}
		return nil
	})
}

func (a *ZapAppender) flush(e *Event) bool {
	line := a.getFormatter(e).Format(e)
	if ce := a.logger.Check(zapLevel(e.Level()), line); ce != nil {
		ce.Write()
	}
	return true
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
