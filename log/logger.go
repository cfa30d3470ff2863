package log

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/linchenxuan/sinklog/metrics"
)

// Logger builds one event and hands it to the core on End.
//
// A Logger is owned by a single goroutine. Every method returns the Logger so
// calls can be chained; End must be called exactly once, either directly,
// through a terminal such as Msg, or with defer:
//
//	l := log.Info()
//	defer l.End()
//	l.Append("user ", uid, " logged in")
//
// Calls made after End are ignored.
type Logger struct {
	core      *Core
	event     *Event
	appenders []string
	ended     bool
}

// Append writes the text form of every value to the event, without separators.
func (l *Logger) Append(vals ...any) *Logger {
	if l.ended {
		return l
	}
	for _, v := range vals {
		l.appendValue(v)
	}
	return l
}

func (l *Logger) appendValue(v any) {
	e := l.event
	switch x := v.(type) {
	case string:
		e.appendString(x)
	case []byte:
		e.appendBytes(x)
	case int:
		e.appendString(strconv.Itoa(x))
	case int64:
		e.appendString(strconv.FormatInt(x, 10))
	case int32:
		e.appendString(strconv.FormatInt(int64(x), 10))
	case uint:
		e.appendString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		e.appendString(strconv.FormatUint(x, 10))
	case uint32:
		e.appendString(strconv.FormatUint(uint64(x), 10))
	case bool:
		e.appendString(strconv.FormatBool(x))
	case float64:
		e.appendString(strconv.FormatFloat(x, 'g', -1, 64))
	case error:
		if x == nil {
			e.appendString("<nil>")
			return
		}
		e.appendString(x.Error())
	default:
		e.appendString(fmt.Sprint(x))
	}
}

// Write implements io.Writer so the Logger can be the target of fmt.Fprintf
// and friends. It never fails.
func (l *Logger) Write(p []byte) (int, error) {
	if !l.ended {
		l.event.appendBytes(p)
	}
	return len(p), nil
}

// Logf renders format with the core's format backend and appends the result.
func (l *Logger) Logf(format string, args ...any) *Logger {
	if l.ended {
		return l
	}
	l.event.appendString(l.core.formatBackend()(format, args...))
	return l
}

// Debugf sets the level to DebugLevel and appends the rendered text.
func (l *Logger) Debugf(format string, args ...any) *Logger {
	return l.SetLevel(DebugLevel).Logf(format, args...)
}

// Infof sets the level to InfoLevel and appends the rendered text.
func (l *Logger) Infof(format string, args ...any) *Logger {
	return l.SetLevel(InfoLevel).Logf(format, args...)
}

// Warnf sets the level to WarnLevel and appends the rendered text.
func (l *Logger) Warnf(format string, args ...any) *Logger {
	return l.SetLevel(WarnLevel).Logf(format, args...)
}

// Errorf sets the level to ErrorLevel and appends the rendered text.
func (l *Logger) Errorf(format string, args ...any) *Logger {
	return l.SetLevel(ErrorLevel).Logf(format, args...)
}

// Fatalf sets the level to FatalLevel and appends the rendered text.
// It does not stop the process.
func (l *Logger) Fatalf(format string, args ...any) *Logger {
	return l.SetLevel(FatalLevel).Logf(format, args...)
}

// SetLevel changes the level of the event.
func (l *Logger) SetLevel(level Level) *Logger {
	if !l.ended {
		l.event.level = level
	}
	return l
}

// At is shorthand for SetLevel.
func (l *Logger) At(level Level) *Logger {
	return l.SetLevel(level)
}

// SetCode attaches an error code to the event.
func (l *Logger) SetCode(code int) *Logger {
	if !l.ended {
		l.event.code = code
	}
	return l
}

// SetAppenders replaces the destinations. An empty list means the core's
// default destinations at flush time.
func (l *Logger) SetAppenders(names ...string) *Logger {
	if !l.ended {
		l.appenders = append([]string(nil), names...)
	}
	return l
}

// SetFormatter overrides the appenders' formatter for this event only.
func (l *Logger) SetFormatter(f Formatter) *Logger {
	if !l.ended {
		l.event.formatter = f
	}
	return l
}

// SetFile overrides the captured source file. Only the base name is kept.
func (l *Logger) SetFile(file string) *Logger {
	if !l.ended {
		l.event.file = filepath.Base(file)
	}
	return l
}

// SetLine overrides the captured source line.
func (l *Logger) SetLine(line int) *Logger {
	if !l.ended {
		l.event.line = line
	}
	return l
}

// SetKey sets the logical channel of the event.
func (l *Logger) SetKey(key string) *Logger {
	if !l.ended {
		l.event.key = key
	}
	return l
}

// Level returns the current level of the event.
func (l *Logger) Level() Level {
	return l.event.level
}

// Time returns a start point for TimeEnd.
func (l *Logger) Time() time.Time {
	return time.Now()
}

// TimeEnd logs "<label> <n>ms" with the elapsed milliseconds since start and
// returns the elapsed duration. The line is a separate event sharing this
// Logger's level, location and destinations; the Logger itself is untouched.
func (l *Logger) TimeEnd(start time.Time, label string) time.Duration {
	elapsed := time.Since(start)
	metrics.RecordStopwatchWithDimGroup(metrics.NameTimeEnd, metrics.GroupLog, start, metrics.Dimension{
		metrics.DimLabel: label,
	})

	src := l.event
	e := newEvent(src.level, src.file, src.line)
	e.code = src.code
	e.key = src.key
	e.formatter = src.formatter
	e.appendString(label)
	e.appendString(" ")
	e.appendString(strconv.FormatInt(elapsed.Milliseconds(), 10))
	e.appendString("ms")
	l.core.dispatch(e, l.appenders)
	return elapsed
}

// Format renders the event as it currently stands. A nil f uses the default formatter.
func (l *Logger) Format(f Formatter) string {
	if f == nil {
		f = NewDefaultFormatter()
	}
	return f.Format(l.event)
}

// Msg appends s and ends the Logger.
func (l *Logger) Msg(s string) {
	if !l.ended {
		l.event.appendString(s)
	}
	l.End()
}

// Msgf appends the rendered text and ends the Logger.
func (l *Logger) Msgf(format string, args ...any) {
	l.Logf(format, args...).End()
}

// End dispatches the event to its appenders. Only the first call has an effect.
func (l *Logger) End() {
	if l.ended {
		return
	}
	l.ended = true
	l.core.dispatch(l.event, l.appenders)
}
