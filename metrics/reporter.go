package metrics

import "sync"

var (
	_Reporters     []Reporter
	_lockReporters sync.RWMutex
)

// Reporter defines the interface for metric reporting implementations.
// Different reporters can be used to send metrics to various backends
// such as Prometheus, StatsD, InfluxDB, etc.
// Report is called on the goroutine that updates the metric.
type Reporter interface {
	Report(r Record)
}

// SetMetricsReporters sets the global list of metric reporters.
// All metrics will be reported to these reporters when updated.
func SetMetricsReporters(reports []Reporter) {
	_lockReporters.Lock()
	defer _lockReporters.Unlock()
	_Reporters = append([]Reporter(nil), reports...)
}

// AddMetricsReporter appends r to the global list of metric reporters.
func AddMetricsReporter(r Reporter) {
	_lockReporters.Lock()
	defer _lockReporters.Unlock()
	_Reporters = append(append([]Reporter(nil), _Reporters...), r)
}

// report fans r out to every registered reporter.
func report(r Record) {
	_lockReporters.RLock()
	reporters := _Reporters
	_lockReporters.RUnlock()

	for _, reporter := range reporters {
		reporter.Report(r)
	}
}

// RemoveMetricsReporter removes r from the global list of metric reporters.
func RemoveMetricsReporter(r Reporter) {
	_lockReporters.Lock()
	defer _lockReporters.Unlock()

	reporters := make([]Reporter, 0, len(_Reporters))
	for _, cur := range _Reporters {
		if cur != r {
			reporters = append(reporters, cur)
		}
	}
	_Reporters = reporters
}
