package log

import (
	"bytes"
	"time"

	"github.com/linchenxuan/sinklog/utils/pool"
)

// DefaultKey is the logical channel every event belongs to unless a key is set.
const DefaultKey = "global"

// _bufferPool recycles the content buffers of in-flight events.
var _bufferPool = pool.NewPool("log_event_buffer", func() *bytes.Buffer {
	b := &bytes.Buffer{}
	b.Grow(256)
	return b
})

// Event represents one log occurrence.
// It is filled by its owning Logger and becomes read-only once it is handed to an
// appender's Write. Appenders, formatters and split policies only see it through
// the accessor methods.
type Event struct {
	time      int64         // milliseconds since epoch, captured at construction
	level     Level         // severity of the event
	code      int           // optional error code
	file      string        // source file of the log statement
	line      int           // source line of the log statement
	threadID  uint64        // opaque id of the producing goroutine
	buf       *bytes.Buffer // content while the event is being built
	text      string        // content once the event is sealed
	sealed    bool          // true once buf has been moved into text
	formatter Formatter     // optional per-event formatter override
	key       string        // logical channel name, not used for dispatch
}

// newEvent creates an event stamped with the current time and goroutine.
func newEvent(level Level, file string, line int) *Event {
	buf := _bufferPool.Get()
	buf.Reset()
	return &Event{
		time:     time.Now().UnixMilli(),
		level:    level,
		file:     file,
		line:     line,
		threadID: goroutineID(),
		buf:      buf,
		key:      DefaultKey,
	}
}

// NewEvent builds a detached, already sealed event. It is meant for custom
// appenders and split policies that need an event outside of a Logger.
func NewEvent(ts time.Time, level Level, content string) *Event {
	return &Event{
		time:     ts.UnixMilli(),
		level:    level,
		threadID: goroutineID(),
		text:     content,
		sealed:   true,
		key:      DefaultKey,
	}
}

// seal moves the content out of the pooled buffer. After seal the event no
// longer references pooled memory, so appenders may keep it as long as they like.
func (e *Event) seal() {
	if e.sealed {
		return
	}
	e.text = e.buf.String()
	e.sealed = true
	if e.buf.Cap() <= 4096 {
		_bufferPool.Put(e.buf)
	}
	e.buf = nil
}

func (e *Event) appendString(s string) {
	if e.sealed {
		return
	}
	e.buf.WriteString(s)
}

func (e *Event) appendBytes(p []byte) {
	if e.sealed {
		return
	}
	e.buf.Write(p)
}

func (e *Event) empty() bool {
	if e.sealed {
		return len(e.text) == 0
	}
	return e.buf.Len() == 0
}

// Timestamp returns the creation time in milliseconds since epoch.
func (e *Event) Timestamp() int64 {
	return e.time
}

// Time returns the creation time.
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.time)
}

// Level returns the severity of the event.
func (e *Event) Level() Level {
	return e.level
}

// Code returns the error code attached to the event, 0 by default.
func (e *Event) Code() int {
	return e.code
}

// File returns the source file of the log statement.
func (e *Event) File() string {
	return e.file
}

// Line returns the source line of the log statement.
func (e *Event) Line() int {
	return e.line
}

// ThreadID returns the id of the goroutine that produced the event.
func (e *Event) ThreadID() uint64 {
	return e.threadID
}

// Key returns the logical channel of the event.
func (e *Event) Key() string {
	return e.key
}

// Formatter returns the per-event formatter override, or nil.
func (e *Event) Formatter() Formatter {
	return e.formatter
}

// Content returns the accumulated message text.
func (e *Event) Content() string {
	if e.sealed {
		return e.text
	}
	return e.buf.String()
}
