package log

import (
	"fmt"
	"strings"
)

// Level defines the severity of a log event.
// Levels are totally ordered, higher values indicate more severe events, and every
// appender compares an event's level against its own threshold before writing.
type Level int8

// Logging level constants ordered by severity.
const (
	// UnknownLevel is the zero value and sorts below every real level.
	UnknownLevel Level = iota

	// DebugLevel contains debugging information useful during development and troubleshooting.
	DebugLevel

	// InfoLevel contains general informational messages about normal application operation.
	InfoLevel

	// WarnLevel indicates potentially harmful situations that don't prevent operation.
	WarnLevel

	// ErrorLevel indicates serious problems that require attention.
	ErrorLevel

	// FatalLevel represents critical errors. Logging at this level never terminates the process.
	FatalLevel
)

// String returns the fixed five character token used in formatted lines.
// Info and Warn are right padded so that columns stay aligned.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO "
	case WarnLevel:
		return "WARN "
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKWN"
	}
}

// ParseLevel converts a level name into a Level with case-insensitive parsing.
// "warning" is accepted as an alias of "warn" and surrounding blanks are ignored.
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return DebugLevel, nil
	case "INFO":
		return InfoLevel, nil
	case "WARN", "WARNING":
		return WarnLevel, nil
	case "ERROR":
		return ErrorLevel, nil
	case "FATAL":
		return FatalLevel, nil
	case "UNKNOWN", "UNKWN":
		return UnknownLevel, nil
	}
	return UnknownLevel, fmt.Errorf("unknown log level %q", levelStr)
}

// UnmarshalText lets configuration decoders accept level names.
func (l *Level) UnmarshalText(text []byte) error {
	lv, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = lv
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(strings.TrimSpace(l.String())), nil
}
