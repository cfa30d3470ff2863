package log

import (
	"sync"
	"sync/atomic"

	"github.com/linchenxuan/sinklog/metrics"
	"github.com/linchenxuan/sinklog/plugin"
)

// Well known appender names.
const (
	ConsoleAppenderName = "console"
	FileAppenderName    = "file"
)

var _defaultAppenders = []string{FileAppenderName, ConsoleAppenderName}

// Core dispatches finished events to the appenders of a registry.
//
// It owns the process-wide settings that are read at flush time: the default
// destination list used by loggers without explicit appenders, and the switch
// that disables the "console" appender. Changing them affects the next flush
// of every logger, including loggers created before the change.
//
// Example usage:
//
//	core := NewCore(NewRegistry(NewFactory()))
//	core.AddAppenders("console", "file")
//	core.Info().Append("server started on ", addr).End()
type Core struct {
	registry AppenderRegistry
	kinds    *plugin.Manager

	settingsLock     sync.RWMutex
	defaultAppenders []string
	disableConsole   bool
	backend          FormatBackend
	levelChange      *levelChange

	callerSkip atomic.Int32

	configLock sync.Mutex
	configured []string // appender names installed by the last Configure
}

// NewCore creates a Core reading appenders from reg. A nil reg means a new
// Registry over DefaultFactory().
func NewCore(reg AppenderRegistry) *Core {
	if reg == nil {
		reg = NewRegistry(nil)
	}
	c := &Core{
		registry:         reg,
		kinds:            plugin.NewManager(),
		defaultAppenders: append([]string(nil), _defaultAppenders...),
		backend:          Sprintf,
	}
	registerBuiltinKinds(c.kinds)
	return c
}

var (
	_defaultCore     *Core
	_defaultCoreOnce sync.Once
)

// DefaultCore returns the process-wide core over DefaultRegistry(), creating it on first use.
func DefaultCore() *Core {
	_defaultCoreOnce.Do(func() {
		_defaultCore = NewCore(DefaultRegistry())
	})
	return _defaultCore
}

// Registry returns the appender table the core dispatches to.
func (c *Core) Registry() AppenderRegistry {
	return c.registry
}

// Kinds returns the manager holding the appender kinds usable from configuration.
func (c *Core) Kinds() *plugin.Manager {
	return c.kinds
}

// AddAppenders constructs the named appenders in the core's registry.
func (c *Core) AddAppenders(names ...string) {
	c.registry.AddAppenders(names...)
}

// GetAppender returns the appender registered under name.
func (c *Core) GetAppender(name string) (Appender, bool) {
	return c.registry.Get(name)
}

// SetDefaultAppenders sets the destinations of loggers without explicit appenders.
func (c *Core) SetDefaultAppenders(names ...string) {
	c.settingsLock.Lock()
	defer c.settingsLock.Unlock()
	c.defaultAppenders = append([]string(nil), names...)
}

// DefaultAppenders returns a copy of the default destination list.
func (c *Core) DefaultAppenders() []string {
	c.settingsLock.RLock()
	defer c.settingsLock.RUnlock()
	return append([]string(nil), c.defaultAppenders...)
}

// DisableConsole turns the "console" appender off (or back on) for every logger.
func (c *Core) DisableConsole(disable bool) {
	c.settingsLock.Lock()
	defer c.settingsLock.Unlock()
	c.disableConsole = disable
}

// ConsoleDisabled reports whether the "console" appender is skipped.
func (c *Core) ConsoleDisabled() bool {
	c.settingsLock.RLock()
	defer c.settingsLock.RUnlock()
	return c.disableConsole
}

// SetFormatBackend replaces the template renderer used by Logf and friends.
// nil restores Sprintf.
func (c *Core) SetFormatBackend(b FormatBackend) {
	c.settingsLock.Lock()
	defer c.settingsLock.Unlock()
	if b == nil {
		b = Sprintf
	}
	c.backend = b
}

func (c *Core) formatBackend() FormatBackend {
	c.settingsLock.RLock()
	defer c.settingsLock.RUnlock()
	return c.backend
}

// SetLevelChanges installs per-location level overrides, replacing the
// previous set. No entries removes every override.
func (c *Core) SetLevelChanges(entries ...LevelChangeEntry) {
	lc := newLevelChange(entries)
	c.settingsLock.Lock()
	defer c.settingsLock.Unlock()
	c.levelChange = lc
}

func (c *Core) locationLevel(file string, line int, level Level) Level {
	c.settingsLock.RLock()
	lc := c.levelChange
	c.settingsLock.RUnlock()
	return lc.getLevel(file, line, level)
}

// SetCallerSkip adds skip frames when capturing the location of log
// statements, for hosts that wrap the logging calls.
func (c *Core) SetCallerSkip(skip int) {
	if skip < 0 {
		skip = 0
	}
	c.callerSkip.Store(int32(skip))
}

// Close closes and removes every appender of the core's registry.
func (c *Core) Close() {
	c.registry.Clear()
}

// New creates a logger at level for the given appenders; no appenders means
// the default list at flush time.
func (c *Core) New(level Level, appenders ...string) *Logger {
	return c.newLogger(1, level, appenders)
}

// Debug creates a debug-level logger for the default appenders.
func (c *Core) Debug() *Logger {
	return c.newLogger(1, DebugLevel, nil)
}

// Info creates an info-level logger for the default appenders.
func (c *Core) Info() *Logger {
	return c.newLogger(1, InfoLevel, nil)
}

// Warn creates a warn-level logger for the default appenders.
func (c *Core) Warn() *Logger {
	return c.newLogger(1, WarnLevel, nil)
}

// Error creates an error-level logger for the default appenders.
func (c *Core) Error() *Logger {
	return c.newLogger(1, ErrorLevel, nil)
}

// Fatal creates a fatal-level logger for the default appenders.
func (c *Core) Fatal() *Logger {
	return c.newLogger(1, FatalLevel, nil)
}

// newLogger captures the location skip frames above its caller.
func (c *Core) newLogger(skip int, level Level, appenders []string) *Logger {
	info := getCallerInfo(skip + 1 + int(c.callerSkip.Load()))
	level = c.locationLevel(info.file, info.line, level)
	return &Logger{
		core:      c,
		event:     newEvent(level, info.file, info.line),
		appenders: appenders,
	}
}

// dispatch writes a finished event to its destinations. Appender failures and
// panics are recorded in metrics and otherwise dropped: logging never fails
// the caller.
func (c *Core) dispatch(e *Event, appenders []string) {
	e.seal()
	if e.empty() {
		return
	}
	metrics.UpdateMaxGaugeWithGroup(metrics.NameEventSizeMaxBytes, metrics.GroupLog, metrics.Value(len(e.Content())))

	if len(appenders) == 0 {
		appenders = c.DefaultAppenders()
	}
	disableConsole := c.ConsoleDisabled()

	for _, name := range appenders {
		if name == "" {
			continue
		}
		if disableConsole && name == ConsoleAppenderName {
			continue
		}
		a, ok := c.registry.Get(name)
		if !ok || a == nil {
			continue
		}
		if e.Level() < a.Level() {
			continue
		}

		result := writeTo(a, e)
		metrics.IncrCounterWithDimGroup(metrics.NameAppenderWriteTotal, metrics.GroupLog, 1, metrics.Dimension{
			metrics.DimAppender: name,
			metrics.DimResult:   result,
		})
	}
}

// resultWriter is implemented by appenders that distinguish a dropped event
// from a failed write.
type resultWriter interface {
	writeResult(e *Event) string
}

func writeTo(a Appender, e *Event) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = metrics.ResultFail
		}
	}()
	if rw, ok := a.(resultWriter); ok {
		return rw.writeResult(e)
	}
	if a.Write(e) {
		return metrics.ResultOK
	}
	return metrics.ResultFail
}
