package log

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Formatter renders an event into a single line without the trailing newline.
// Implementations must be pure: the same event always yields the same line.
type Formatter interface {
	Format(e *Event) string
}

// FormatterFunc adapts a plain function to the Formatter interface.
type FormatterFunc func(e *Event) string

// Format implements Formatter.
func (f FormatterFunc) Format(e *Event) string {
	return f(e)
}

// DefaultFormatter renders the standard line layout:
//
//	[LEVEL][YYYY-MM-DD HH:MM:SS][threadId][code][filename:line] <message>
type DefaultFormatter struct {
	// Location is the time zone used for the timestamp column. UTC when nil.
	Location *time.Location
}

// NewDefaultFormatter returns a DefaultFormatter printing UTC timestamps.
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// Format implements Formatter.
func (f *DefaultFormatter) Format(e *Event) string {
	loc := time.UTC
	if f != nil && f.Location != nil {
		loc = f.Location
	}

	content := e.Content()
	var sb strings.Builder
	sb.Grow(64 + len(content))

	sb.WriteByte('[')
	sb.WriteString(e.Level().String())
	sb.WriteString("][")
	appendTime(&sb, e.Time().In(loc))
	sb.WriteString("][")
	sb.WriteString(strconv.FormatUint(e.ThreadID(), 10))
	sb.WriteString("][")
	sb.WriteString(strconv.Itoa(e.Code()))
	sb.WriteString("][")
	sb.WriteString(filepath.Base(e.File()))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(e.Line()))
	sb.WriteString("] ")
	sb.WriteString(content)
	return sb.String()
}

// appendTime writes t as 'YYYY-MM-DD HH:MM:SS' without going through time.Format.
func appendTime(sb *strings.Builder, t time.Time) {
	y, mo, d := t.Date()
	h, m, s := t.Clock()

	var timeBuf [19]byte
	timeBuf[0] = byte('0' + y/1000%10)
	timeBuf[1] = byte('0' + (y/100)%10)
	timeBuf[2] = byte('0' + (y/10)%10)
	timeBuf[3] = byte('0' + y%10)
	timeBuf[4] = '-'
	timeBuf[5] = byte('0' + int(mo)/10)
	timeBuf[6] = byte('0' + int(mo)%10)
	timeBuf[7] = '-'
	timeBuf[8] = byte('0' + d/10)
	timeBuf[9] = byte('0' + d%10)
	timeBuf[10] = ' '
	timeBuf[11] = byte('0' + h/10)
	timeBuf[12] = byte('0' + h%10)
	timeBuf[13] = ':'
	timeBuf[14] = byte('0' + m/10)
	timeBuf[15] = byte('0' + m%10)
	timeBuf[16] = ':'
	timeBuf[17] = byte('0' + s/10)
	timeBuf[18] = byte('0' + s%10)
	sb.Write(timeBuf[:])
}

// FormatBackend renders a template and its arguments into a string.
// Backends must not panic; malformed input yields an empty or best-effort string.
type FormatBackend func(format string, args ...any) string

// Sprintf is the default printf-style backend. A panic raised while rendering
// an argument (for example by a broken Stringer) yields an empty string.
func Sprintf(format string, args ...any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = ""
		}
	}()
	return fmt.Sprintf(format, args...)
}
