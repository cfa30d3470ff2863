package log

import (
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RollingAppender writes lines to a single file rotated by size, with age and
// backup-count retention delegated to lumberjack. Its threshold defaults to
// InfoLevel.
type RollingAppender struct {
	appenderBase
	out *lumberjack.Logger
}

// RollingOptions mirrors the lumberjack settings.
type RollingOptions struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB" yaml:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays" yaml:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	LocalTime  bool   `mapstructure:"localTime" yaml:"localTime"`
}

// NewRollingAppender creates a RollingAppender. An empty filename means
// "<default base path>/rolling.log".
func NewRollingAppender(opts RollingOptions) *RollingAppender {
	if opts.Filename == "" {
		opts.Filename = filepath.Join(defaultBasePath(), "rolling.log")
	}
	a := &RollingAppender{
		out: &lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
			LocalTime:  opts.LocalTime,
		},
	}
	a.init(InfoLevel)
	return a
}

// Filename returns the path of the active file.
func (a *RollingAppender) Filename() string {
	return a.out.Filename
}

// Rotate closes the active file and starts a new one.
func (a *RollingAppender) Rotate() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.closed {
		return errAppenderClosed
	}
	return a.out.Rotate()
}

// Write implements Appender.
func (a *RollingAppender) Write(e *Event) bool {
	return a.write(e, a.flush)
}

// Close implements Appender.
func (a *RollingAppender) Close() error {
	return a.close(a.out.Close)
}

func (a *RollingAppender) flush(e *Event) bool {
	line := a.getFormatter(e).Format(e)
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := a.out.Write(buf)
	return err == nil
}
