package log

import (
	"runtime"
	"sync"

	"github.com/linchenxuan/sinklog/metrics"
)

// recordAppender keeps every event it receives.
type recordAppender struct {
	appenderBase
	events []*Event
	lines  []string
	fail   bool
	calls  int
}

func newRecordAppender(level Level) *recordAppender {
	a := &recordAppender{}
	a.init(level)
	return a
}

func (a *recordAppender) Write(e *Event) bool {
	return a.write(e, func(e *Event) bool {
		a.calls++
		a.events = append(a.events, e)
		a.lines = append(a.lines, a.getFormatter(e).Format(e))
		return !a.fail
	})
}

func (a *recordAppender) Close() error {
	return a.close(nil)
}

func (a *recordAppender) Lines() []string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]string(nil), a.lines...)
}

func (a *recordAppender) Events() []*Event {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]*Event(nil), a.events...)
}

func (a *recordAppender) Calls() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.calls
}

// newTestCore builds an isolated core whose registry holds appenders.
func newTestCore(appenders map[string]Appender) (*Core, *Registry) {
	reg := NewRegistry(NewFactory())
	for name, a := range appenders {
		reg.Set(name, a)
	}
	return NewCore(reg), reg
}

// currentLine returns the line it is called from.
func currentLine() int {
	_, _, line, _ := runtime.Caller(1)
	return line
}

// metricsRecorder captures reported metrics.
type metricsRecorder struct {
	mu      sync.Mutex
	records []recordedMetric
}

type recordedMetric struct {
	name  string
	value metrics.Value
	dims  map[string]string
}

func (m *metricsRecorder) Report(r metrics.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dims := map[string]string{}
	for k, v := range r.Dimensions() {
		dims[k] = v
	}
	m.records = append(m.records, recordedMetric{name: r.Metrics().Name(), value: r.Value(), dims: dims})
}

// count sums the values reported under name whose dimensions include dims.
func (m *metricsRecorder) count(name string, dims map[string]string) metrics.Value {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total metrics.Value
	for _, r := range m.records {
		if r.name != name {
			continue
		}
		match := true
		for k, v := range dims {
			if r.dims[k] != v {
				match = false
				break
			}
		}
		if match {
			total += r.value
		}
	}
	return total
}

// recordMetrics installs a recorder for the duration of a test.
func recordMetrics(t interface{ Cleanup(func()) }) *metricsRecorder {
	rec := &metricsRecorder{}
	metrics.SetMetricsReporters([]metrics.Reporter{rec})
	t.Cleanup(func() {
		metrics.SetMetricsReporters(nil)
	})
	return rec
}
