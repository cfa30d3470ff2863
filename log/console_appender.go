package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ANSI colour codes used by the console appender.
const (
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorWhite   = "\033[37m"
	colorReset   = "\033[0m"
)

// ColorMode controls whether the console appender emits ANSI colour codes.
type ColorMode int8

const (
	// ColorAlways colours every line.
	ColorAlways ColorMode = iota
	// ColorNever writes plain lines.
	ColorNever
	// ColorAuto colours only when the output is a terminal.
	ColorAuto
)

// ParseColorMode converts "always", "never" or "auto" into a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	case "auto":
		return ColorAuto, nil
	}
	return ColorAlways, fmt.Errorf("unknown color mode %q", s)
}

// levelColor maps a level to its fixed console colour.
func levelColor(l Level) string {
	switch l {
	case DebugLevel:
		return colorBlue
	case InfoLevel:
		return colorGreen
	case WarnLevel:
		return colorYellow
	case ErrorLevel:
		return colorRed
	case FatalLevel:
		return colorMagenta
	default:
		return colorWhite
	}
}

// ConsoleAppender writes coloured lines to standard output.
// Its threshold defaults to DebugLevel, the most permissive level.
type ConsoleAppender struct {
	appenderBase
	out      io.Writer // guarded by lock
	colorize bool      // guarded by lock
}

// NewConsoleAppender creates a ConsoleAppender writing to os.Stdout with colours on.
func NewConsoleAppender() *ConsoleAppender {
	a := &ConsoleAppender{
		out:      os.Stdout,
		colorize: true,
	}
	a.init(DebugLevel)
	return a
}

// SetOutput redirects the appender. Colour detection in ColorAuto mode is not
// re-evaluated; call SetColorMode again after switching outputs.
func (a *ConsoleAppender) SetOutput(w io.Writer) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.out = w
}

// SetColorMode enables or disables colours.
func (a *ConsoleAppender) SetColorMode(mode ColorMode) {
	a.lock.Lock()
	defer a.lock.Unlock()

	switch mode {
	case ColorNever:
		a.colorize = false
	case ColorAuto:
		a.colorize = isTerminal(a.out)
	default:
		a.colorize = true
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write implements Appender.
func (a *ConsoleAppender) Write(e *Event) bool {
	return a.write(e, a.flush)
}

// Close implements Appender. Standard output is never closed.
func (a *ConsoleAppender) Close() error {
	return a.close(nil)
}

func (a *ConsoleAppender) flush(e *Event) bool {
	line := a.getFormatter(e).Format(e)

	var sb strings.Builder
	sb.Grow(len(line) + 16)
	if a.colorize {
		sb.WriteString(levelColor(e.Level()))
		sb.WriteString(line)
		sb.WriteString(colorReset)
	} else {
		sb.WriteString(line)
	}
	sb.WriteByte('\n')

	// Console output failures are not reported; the console never rejects a line.
	_, _ = io.WriteString(a.out, sb.String())
	return true
}
