package log

// Initialize configures the default core with cfg. A nil cfg only validates
// that the default core exists.
// This function should be called once at application startup.
func Initialize(cfg *LogCfg) error {
	if cfg == nil {
		DefaultCore()
		return nil
	}
	return DefaultCore().Configure(cfg)
}

// New creates a logger on the default core. No appenders means the default
// destinations at flush time.
func New(level Level, appenders ...string) *Logger {
	return DefaultCore().newLogger(1, level, appenders)
}

// Console creates a logger writing to the "console" appender only.
func Console(level Level) *Logger {
	return DefaultCore().newLogger(1, level, []string{ConsoleAppenderName})
}

// File creates a logger writing to the "file" appender only.
func File(level Level) *Logger {
	return DefaultCore().newLogger(1, level, []string{FileAppenderName})
}

// Global creates a logger writing to the default destinations.
func Global(level Level) *Logger {
	return DefaultCore().newLogger(1, level, nil)
}

// Debug creates a new debug-level logger using the default core.
func Debug() *Logger {
	return DefaultCore().newLogger(1, DebugLevel, nil)
}

// Info creates a new info-level logger using the default core.
func Info() *Logger {
	return DefaultCore().newLogger(1, InfoLevel, nil)
}

// Warn creates a new warn-level logger using the default core.
func Warn() *Logger {
	return DefaultCore().newLogger(1, WarnLevel, nil)
}

// Error creates a new error-level logger using the default core.
func Error() *Logger {
	return DefaultCore().newLogger(1, ErrorLevel, nil)
}

// Fatal creates a new fatal-level logger using the default core.
// Ending it does not stop the process.
func Fatal() *Logger {
	return DefaultCore().newLogger(1, FatalLevel, nil)
}

// AddAppenders constructs the named appenders in the default registry.
func AddAppenders(names ...string) {
	DefaultCore().AddAppenders(names...)
}

// GetAppender returns the appender registered under name in the default registry.
func GetAppender(name string) (Appender, bool) {
	return DefaultCore().GetAppender(name)
}

// RegisterCreateMethod registers an appender constructor in the default factory.
func RegisterCreateMethod(name string, m CreateMethod) {
	DefaultFactory().RegisterCreateMethod(name, m)
}

// SetDefaultAppenders sets the destinations of loggers without explicit appenders.
func SetDefaultAppenders(names ...string) {
	DefaultCore().SetDefaultAppenders(names...)
}

// DisableConsole turns the "console" appender off (or back on) for every logger.
func DisableConsole(disable bool) {
	DefaultCore().DisableConsole(disable)
}

// Close closes every appender of the default core.
// It should be called at application shutdown.
func Close() {
	DefaultCore().Close()
}
