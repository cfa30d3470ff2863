package log

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linchenxuan/sinklog/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicAppender struct {
	appenderBase
}

func (a *panicAppender) Write(*Event) bool {
	panic("appender exploded")
}

func (a *panicAppender) Close() error {
	return a.close(nil)
}

type point struct{ X, Y int }

func wrappedInfo(c *Core) *Logger {
	return c.Info()
}

func TestLoggerDispatch(t *testing.T) {
	t.Run("Threshold", func(t *testing.T) {
		low, high := newRecordAppender(DebugLevel), newRecordAppender(ErrorLevel)
		core, _ := newTestCore(map[string]Appender{"low": low, "high": high})

		core.New(InfoLevel, "low", "high").Msg("info line")
		core.New(ErrorLevel, "low", "high").Msg("error line")
		core.New(FatalLevel, "high").Msg("fatal line")

		assert.Equal(t, 2, low.Calls())
		require.Equal(t, 2, high.Calls())
		assert.Equal(t, "error line", high.Events()[0].Content())
		assert.Equal(t, FatalLevel, high.Events()[1].Level())
	})

	t.Run("EmptyEventIsDropped", func(t *testing.T) {
		a := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a})

		core.Info().SetAppenders("a").End()
		core.Info().SetAppenders("a").Append("").End()
		core.Info().SetAppenders("a").Msg("")

		assert.Zero(t, a.Calls())
	})

	t.Run("EndIsIdempotent", func(t *testing.T) {
		a := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a})

		l := core.Info().SetAppenders("a")
		l.Append("once")
		l.End()
		l.End()
		l.Append(" more").SetLevel(ErrorLevel).SetCode(9)
		l.Msg("ignored")

		require.Equal(t, 1, a.Calls())
		e := a.Events()[0]
		assert.Equal(t, "once", e.Content())
		assert.Equal(t, InfoLevel, e.Level())
		assert.Zero(t, e.Code())
	})

	t.Run("DeferredEnd", func(t *testing.T) {
		a := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a})

		func() {
			l := core.Warn().SetAppenders("a")
			defer l.End()
			l.Append("step ", 1)
			l.Append(", step ", 2)
		}()

		require.Equal(t, 1, a.Calls())
		assert.Equal(t, "step 1, step 2", a.Events()[0].Content())
	})

	t.Run("DefaultAppenders", func(t *testing.T) {
		a, b := newRecordAppender(DebugLevel), newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a, "b": b})
		assert.Equal(t, []string{FileAppenderName, ConsoleAppenderName}, core.DefaultAppenders())

		core.SetDefaultAppenders("a")
		core.Info().Msg("to defaults")
		core.Info().SetAppenders().Msg("empty list means defaults")

		assert.Equal(t, 2, a.Calls())
		assert.Zero(t, b.Calls())
	})

	t.Run("DefaultsReadAtFlush", func(t *testing.T) {
		a, b := newRecordAppender(DebugLevel), newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a, "b": b})
		core.SetDefaultAppenders("a")

		l := core.Info().Append("late binding")
		core.SetDefaultAppenders("b")
		l.End()

		assert.Zero(t, a.Calls())
		assert.Equal(t, 1, b.Calls())
	})

	t.Run("DisableConsole", func(t *testing.T) {
		console := newRecordAppender(DebugLevel)
		other := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{ConsoleAppenderName: console, "other": other})

		l := core.Info().SetAppenders(ConsoleAppenderName, "other").Append("x")
		core.DisableConsole(true)
		assert.True(t, core.ConsoleDisabled())
		l.End()

		assert.Zero(t, console.Calls())
		assert.Equal(t, 1, other.Calls())

		core.DisableConsole(false)
		core.Info().SetAppenders(ConsoleAppenderName).Msg("y")
		assert.Equal(t, 1, console.Calls())
	})

	t.Run("UnknownAndEmptyNames", func(t *testing.T) {
		a := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a})

		assert.NotPanics(t, func() {
			core.Error().SetAppenders("", "metrics", "a").Msg("x")
			core.Error().SetAppenders("metrics").Msg("y")
		})
		assert.Equal(t, 1, a.Calls())
	})

	t.Run("DuplicateNames", func(t *testing.T) {
		a := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a})

		core.Info().SetAppenders("a", "a").Msg("twice")
		assert.Equal(t, 2, a.Calls())
	})

	t.Run("PanickingAppender", func(t *testing.T) {
		rec := recordMetrics(t)
		bad := &panicAppender{}
		bad.init(DebugLevel)
		good := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"bad": bad, "good": good})

		assert.NotPanics(t, func() {
			core.Info().SetAppenders("bad", "good").Msg("survives")
		})
		assert.Equal(t, 1, good.Calls())
		assert.Equal(t, metrics.Value(1), rec.count(metrics.NameAppenderWriteTotal, map[string]string{
			metrics.DimAppender: "bad",
			metrics.DimResult:   metrics.ResultFail,
		}))
	})

	t.Run("WriteMetrics", func(t *testing.T) {
		rec := recordMetrics(t)
		ok := newRecordAppender(DebugLevel)
		failing := newRecordAppender(DebugLevel)
		failing.fail = true
		throttled := NewThrottle(newRecordAppender(DebugLevel), 1, 1)
		core, _ := newTestCore(map[string]Appender{"ok": ok, "failing": failing, "throttled": throttled})

		for i := 0; i < 3; i++ {
			core.Info().SetAppenders("ok", "failing", "throttled").Msg("counted")
		}

		count := func(appender, result string) metrics.Value {
			return rec.count(metrics.NameAppenderWriteTotal, map[string]string{
				metrics.DimAppender: appender,
				metrics.DimResult:   result,
			})
		}
		assert.Equal(t, metrics.Value(3), count("ok", metrics.ResultOK))
		assert.Equal(t, metrics.Value(3), count("failing", metrics.ResultFail))
		assert.Equal(t, metrics.Value(1), count("throttled", metrics.ResultOK))
		assert.Equal(t, metrics.Value(2), count("throttled", metrics.ResultDropped))
		assert.Equal(t, metrics.Value(0), count("throttled", metrics.ResultFail))
	})

	t.Run("EventSizeGauge", func(t *testing.T) {
		rec := recordMetrics(t)
		a := newRecordAppender(DebugLevel)
		core, _ := newTestCore(map[string]Appender{"a": a})

		core.Info().SetAppenders("a").Msg("12345")
		assert.Equal(t, metrics.Value(5), rec.count(metrics.NameEventSizeMaxBytes, nil))
	})
}

func TestLoggerContent(t *testing.T) {
	a := newRecordAppender(DebugLevel)
	core, _ := newTestCore(map[string]Appender{"a": a})
	core.SetDefaultAppenders("a")

	last := func() *Event {
		events := a.Events()
		require.NotEmpty(t, events)
		return events[len(events)-1]
	}

	t.Run("Append", func(t *testing.T) {
		var nilErr error
		core.Info().Append("s", 1, int64(-2), int32(3), uint(4), uint64(5), uint32(6), true, 2.5,
			errors.New("e"), []byte("b"), point{1, 2}, nilErr).End()
		assert.Equal(t, "s1-23456true2.5eb{1 2}<nil>", last().Content())
	})

	t.Run("Logf", func(t *testing.T) {
		core.Info().Logf("%s=%d", "n", 7).Logf(" %v", true).End()
		assert.Equal(t, "n=7 true", last().Content())
	})

	t.Run("LevelFormatters", func(t *testing.T) {
		tests := []struct {
			call  func(l *Logger) *Logger
			level Level
		}{
			{func(l *Logger) *Logger { return l.Debugf("%d", 1) }, DebugLevel},
			{func(l *Logger) *Logger { return l.Infof("%d", 1) }, InfoLevel},
			{func(l *Logger) *Logger { return l.Warnf("%d", 1) }, WarnLevel},
			{func(l *Logger) *Logger { return l.Errorf("%d", 1) }, ErrorLevel},
			{func(l *Logger) *Logger { return l.Fatalf("%d", 1) }, FatalLevel},
		}
		for _, tt := range tests {
			tt.call(core.New(UnknownLevel)).End()
			assert.Equal(t, tt.level, last().Level())
			assert.Equal(t, "1", last().Content())
		}
	})

	t.Run("Msgf", func(t *testing.T) {
		core.Warn().Msgf("%d%%", 50)
		assert.Equal(t, "50%", last().Content())
	})

	t.Run("Writer", func(t *testing.T) {
		l := core.Info()
		fmt.Fprintf(l, "written %d", 3)
		n, err := l.Write([]byte(" bytes"))
		require.NoError(t, err)
		assert.Equal(t, 6, n)
		l.End()
		assert.Equal(t, "written 3 bytes", last().Content())
	})

	t.Run("FormatBackend", func(t *testing.T) {
		core.SetFormatBackend(func(format string, args ...any) string {
			return strings.ToUpper(fmt.Sprintf(format, args...))
		})
		core.Info().Logf("shout %s", "this").End()
		assert.Equal(t, "SHOUT THIS", last().Content())

		core.SetFormatBackend(nil)
		core.Info().Logf("quiet %s", "again").End()
		assert.Equal(t, "quiet again", last().Content())
	})

	t.Run("Setters", func(t *testing.T) {
		l := core.Info().SetCode(404).SetFile("/tmp/src/handler.go").SetLine(88).SetKey("http").At(WarnLevel)
		assert.Equal(t, WarnLevel, l.Level())
		l.Msg("not found")

		e := last()
		assert.Equal(t, 404, e.Code())
		assert.Equal(t, "handler.go", e.File())
		assert.Equal(t, 88, e.Line())
		assert.Equal(t, "http", e.Key())
		assert.Equal(t, WarnLevel, e.Level())
		assert.NotZero(t, e.ThreadID())
		assert.WithinDuration(t, time.Now(), e.Time(), time.Minute)
	})

	t.Run("DefaultKey", func(t *testing.T) {
		core.Info().Msg("keyed")
		assert.Equal(t, DefaultKey, last().Key())
	})

	t.Run("EventFormatter", func(t *testing.T) {
		core.Info().SetFormatter(FormatterFunc(func(e *Event) string {
			return "custom:" + e.Content()
		})).Msg("x")
		lines := a.Lines()
		assert.Equal(t, "custom:x", lines[len(lines)-1])
	})

	t.Run("Format", func(t *testing.T) {
		l := core.Error().SetCode(3).Append("pending")
		defer l.End()

		assert.True(t, strings.HasPrefix(l.Format(nil), "[ERROR]["))
		assert.True(t, strings.HasSuffix(l.Format(nil), "[3][logger_test.go:"+fmt.Sprint(l.event.Line())+"] pending"))
		assert.Equal(t, "pending!", l.Format(FormatterFunc(func(e *Event) string { return e.Content() + "!" })))
	})

	t.Run("FatalDoesNotExit", func(t *testing.T) {
		core.Fatal().Msg("still running")
		assert.Equal(t, FatalLevel, last().Level())
	})
}

func TestLoggerLocation(t *testing.T) {
	a := newRecordAppender(DebugLevel)
	core, _ := newTestCore(map[string]Appender{"a": a})
	core.SetDefaultAppenders("a")

	last := func() *Event {
		events := a.Events()
		require.NotEmpty(t, events)
		return events[len(events)-1]
	}

	t.Run("Captured", func(t *testing.T) {
		constructors := map[string]func() (*Logger, int){
			"New":   func() (*Logger, int) { return core.New(InfoLevel), currentLine() },
			"Debug": func() (*Logger, int) { return core.Debug(), currentLine() },
			"Info":  func() (*Logger, int) { return core.Info(), currentLine() },
			"Warn":  func() (*Logger, int) { return core.Warn(), currentLine() },
			"Error": func() (*Logger, int) { return core.Error(), currentLine() },
			"Fatal": func() (*Logger, int) { return core.Fatal(), currentLine() },
		}
		for name, create := range constructors {
			l, line := create()
			l.Msg(name)

			e := last()
			assert.Equal(t, "logger_test.go", filepath.Base(e.File()), name)
			assert.Equal(t, line, e.Line(), name)
		}
	})

	t.Run("CallerSkip", func(t *testing.T) {
		core.SetCallerSkip(1)
		defer core.SetCallerSkip(0)

		l, line := wrappedInfo(core), currentLine()
		l.Msg("wrapped")
		assert.Equal(t, line, last().Line())
	})

	t.Run("LevelChangeLine", func(t *testing.T) {
		target := currentLine() + 2
		core.SetLevelChanges(LevelChangeEntry{FileName: "logger_test.go", LineNum: target, LogLevel: ErrorLevel})
		core.Debug().Msg("promoted")
		defer core.SetLevelChanges()

		assert.Equal(t, ErrorLevel, last().Level())

		core.Debug().Msg("untouched")
		assert.Equal(t, DebugLevel, last().Level())
	})

	t.Run("LevelChangeFile", func(t *testing.T) {
		core.SetLevelChanges(LevelChangeEntry{FileName: "/any/dir/logger_test.go", LogLevel: WarnLevel})
		defer core.SetLevelChanges()

		core.Debug().Msg("whole file")
		assert.Equal(t, WarnLevel, last().Level())
	})

	t.Run("LevelChangeDecidesDestinations", func(t *testing.T) {
		quiet := newRecordAppender(ErrorLevel)
		c, _ := newTestCore(map[string]Appender{"quiet": quiet})
		c.SetDefaultAppenders("quiet")

		c.Info().Msg("dropped")
		c.SetLevelChanges(LevelChangeEntry{FileName: "logger_test.go", LogLevel: ErrorLevel})
		c.Info().Msg("kept")

		require.Equal(t, 1, quiet.Calls())
		assert.Equal(t, "kept", quiet.Events()[0].Content())
	})
}

func TestLoggerTimeEnd(t *testing.T) {
	rec := recordMetrics(t)
	a := newRecordAppender(DebugLevel)
	core, _ := newTestCore(map[string]Appender{"a": a})

	l := core.Warn().SetAppenders("a").SetCode(5).SetKey("timing")
	start := l.Time()
	time.Sleep(2 * time.Millisecond)
	elapsed := l.TimeEnd(start, "load config")

	assert.GreaterOrEqual(t, elapsed, 2*time.Millisecond)
	require.Equal(t, 1, a.Calls())
	e := a.Events()[0]
	assert.Regexp(t, `^load config \d+ms$`, e.Content())
	assert.Equal(t, WarnLevel, e.Level())
	assert.Equal(t, 5, e.Code())
	assert.Equal(t, "timing", e.Key())
	assert.Equal(t, l.event.Line(), e.Line())

	l.Msg("logger still usable")
	assert.Equal(t, 2, a.Calls())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	found := false
	for _, r := range rec.records {
		if r.name == metrics.NameTimeEnd && r.dims[metrics.DimLabel] == "load config" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLevelChangeLookup(t *testing.T) {
	var empty *levelChange
	assert.Equal(t, InfoLevel, empty.getLevel("a.go", 1, InfoLevel))

	lc := newLevelChange([]LevelChangeEntry{
		{FileName: "a.go", LineNum: 10, LogLevel: ErrorLevel},
		{FileName: "dir/b.go", LogLevel: WarnLevel},
		{FileName: "b.go", LineNum: 3, LogLevel: DebugLevel},
	})
	assert.Equal(t, ErrorLevel, lc.getLevel("/src/a.go", 10, InfoLevel))
	assert.Equal(t, InfoLevel, lc.getLevel("/src/a.go", 11, InfoLevel))
	assert.Equal(t, WarnLevel, lc.getLevel("b.go", 99, InfoLevel))
	assert.Equal(t, DebugLevel, lc.getLevel("b.go", 3, InfoLevel))
	assert.Equal(t, InfoLevel, lc.getLevel("c.go", 10, InfoLevel))
}
