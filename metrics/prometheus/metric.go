package prometheus

import (
	"fmt"
	"strings"

	"github.com/linchenxuan/sinklog/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// _stopwatchBuckets are the histogram buckets of stopwatch metrics, in milliseconds.
var _stopwatchBuckets = prometheus.ExponentialBuckets(1, 2, 16)

// metricOpt contains the naming options shared by every collector kind.
type metricOpt struct {
	subsystem   string
	name        string
	constLabels map[string]string
}

// newMetricOpt creates metric options from a metric record and external labels.
// Dimensions win over external labels of the same key.
func newMetricOpt(rc *metrics.Record, extLabels map[string]string) *metricOpt {
	opts := &metricOpt{
		subsystem:   sanitizeName(rc.Metrics().Group()),
		name:        sanitizeName(rc.Metrics().Name()),
		constLabels: make(map[string]string, len(rc.Dimensions())+len(extLabels)),
	}
	for k, v := range extLabels {
		opts.constLabels[sanitizeName(k)] = v
	}
	for k, v := range rc.Dimensions() {
		opts.constLabels[sanitizeName(k)] = v
	}
	return opts
}

func sanitizeName(s string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(s)
}

// metricWrapper holds the collector a metrics policy maps to:
// sums become counters, stopwatches histograms, set and max policies gauges.
type metricWrapper struct {
	policy    metrics.Policy
	counter   prometheus.Counter
	gauge     prometheus.Gauge
	histogram prometheus.Histogram
	max       float64
}

// newMetricWrapper registers a collector for rc through f and merges rc into it.
func newMetricWrapper(f promauto.Factory, rc *metrics.Record, extLabels map[string]string) (m *metricWrapper, err error) {
	defer func() {
		// promauto panics when registration fails.
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("register %s: %v", rc.Metrics().Name(), r)
		}
	}()

	o := newMetricOpt(rc, extLabels)
	m = &metricWrapper{policy: rc.Metrics().Policy()}

	switch m.policy {
	case metrics.Policy_Sum:
		m.counter = f.NewCounter(prometheus.CounterOpts{
			Subsystem:   o.subsystem,
			Name:        o.name,
			ConstLabels: o.constLabels,
		})
	case metrics.Policy_Stopwatch:
		m.histogram = f.NewHistogram(prometheus.HistogramOpts{
			Subsystem:   o.subsystem,
			Name:        o.name,
			ConstLabels: o.constLabels,
			Buckets:     _stopwatchBuckets,
		})
	case metrics.Policy_Set, metrics.Policy_Max:
		m.gauge = f.NewGauge(prometheus.GaugeOpts{
			Subsystem:   o.subsystem,
			Name:        o.name,
			ConstLabels: o.constLabels,
		})
	default:
		return nil, fmt.Errorf("metrics(%s) policy(%v) invalid", rc.Metrics().Name(), m.policy)
	}

	if err := m.merge(rc); err != nil {
		return nil, err
	}
	return m, nil
}

// merge applies rc to the collector according to its policy.
func (m *metricWrapper) merge(rc *metrics.Record) error {
	if p := rc.Metrics().Policy(); p != m.policy {
		return fmt.Errorf("metrics(%s) policy changed from %v to %v", rc.Metrics().Name(), m.policy, p)
	}

	v := float64(rc.Value())
	switch m.policy {
	case metrics.Policy_Sum:
		if v < 0 {
			return fmt.Errorf("metrics(%s) counter decreased by %v", rc.Metrics().Name(), v)
		}
		m.counter.Add(v)
	case metrics.Policy_Stopwatch:
		m.histogram.Observe(v)
	case metrics.Policy_Set:
		m.gauge.Set(v)
	case metrics.Policy_Max:
		if v > m.max {
			m.max = v
			m.gauge.Set(v)
		}
	}
	return nil
}
