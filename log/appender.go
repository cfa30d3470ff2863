package log

import (
	"errors"
	"sync"
	"sync/atomic"
)

var errAppenderClosed = errors.New("appender closed")

// Appender defines a named output destination for formatted log lines.
//
// Dispatchers compare the event level against Level() before calling Write, so
// implementations never re-check the level themselves. Write must be safe for
// concurrent use; writes to one appender are serialized by the appender's own
// lock and never block writers of other appenders.
type Appender interface {
	// Level returns the minimum event level this appender persists.
	Level() Level

	// SetLevel changes the threshold. It is safe to call concurrently with writes.
	SetLevel(level Level)

	// SetFormatter replaces the default formatter used for events without their own.
	SetFormatter(f Formatter)

	// Write persists one event and reports whether it succeeded.
	Write(e *Event) bool

	// Close releases the underlying resources. Writes after Close fail.
	Close() error
}

// appenderBase carries the state shared by every built-in appender: the
// threshold, the lazily created default formatter and the sink-private lock.
type appenderBase struct {
	level     atomic.Int32
	lock      sync.Mutex
	formatter Formatter // guarded by lock
	closed    bool      // guarded by lock
}

func (b *appenderBase) init(level Level) {
	b.level.Store(int32(level))
}

// Level implements Appender.
func (b *appenderBase) Level() Level {
	return Level(b.level.Load())
}

// SetLevel implements Appender.
func (b *appenderBase) SetLevel(level Level) {
	b.level.Store(int32(level))
}

// SetFormatter implements Appender.
func (b *appenderBase) SetFormatter(f Formatter) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.formatter = f
}

// write runs flush under the appender lock. It is the common body of every
// built-in Write method.
func (b *appenderBase) write(e *Event, flush func(e *Event) bool) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return false
	}
	return flush(e)
}

// close marks the appender closed and runs release under the appender lock.
// It is idempotent.
func (b *appenderBase) close(release func() error) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if release == nil {
		return nil
	}
	return release()
}

// getFormatter resolves the formatter for e. Must be called with lock held.
func (b *appenderBase) getFormatter(e *Event) Formatter {
	if f := e.Formatter(); f != nil {
		return f
	}
	if b.formatter == nil {
		b.formatter = NewDefaultFormatter()
	}
	return b.formatter
}
