package metrics

import (
	"sync"
	"time"
)

// Metrics identifies an instrument and tells reporters how its records merge.
type Metrics interface {
	Name() string
	Group() string
	Policy() Policy
}

// instrument is the identity shared by every metric kind.
type instrument struct {
	name   string
	group  string
	policy Policy
}

func (i *instrument) Name() string   { return i.name }
func (i *instrument) Group() string  { return i.group }
func (i *instrument) Policy() Policy { return i.policy }

// family keeps the instruments of one kind by name. An instrument keeps the
// group it was first requested with.
type family[T Metrics] struct {
	mu     sync.RWMutex
	byName map[string]T
	create func(inst instrument) T
	policy Policy
}

func newFamily[T Metrics](policy Policy, create func(inst instrument) T) *family[T] {
	return &family[T]{
		byName: make(map[string]T),
		create: create,
		policy: policy,
	}
}

func (f *family[T]) get(name, group string) T {
	f.mu.RLock()
	m, ok := f.byName[name]
	f.mu.RUnlock()
	if ok {
		return m
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok = f.byName[name]; ok {
		return m
	}
	m = f.create(instrument{name: name, group: group, policy: f.policy})
	f.byName[name] = m
	return m
}

var (
	_counters = newFamily(Policy_Sum, func(inst instrument) Counter {
		return &counter{instrument: inst}
	})
	_gauges = newFamily(Policy_Set, func(inst instrument) Gauge {
		return &gauge{instrument: inst}
	})
	_maxGauges = newFamily(Policy_Max, func(inst instrument) Gauge {
		return &gauge{instrument: inst}
	})
	_stopwatches = newFamily(Policy_Stopwatch, func(inst instrument) StopWatch {
		return &stopwatch{instrument: inst}
	})
)

func getCounter(name, group string) Counter     { return _counters.get(name, group) }
func getGauge(name, group string) Gauge         { return _gauges.get(name, group) }
func getMaxGauge(name, group string) Gauge      { return _maxGauges.get(name, group) }
func getStopWatch(name, group string) StopWatch { return _stopwatches.get(name, group) }

// IncrCounterWithGroup adds value to the counter key of group.
func IncrCounterWithGroup(key, group string, value Value) {
	getCounter(key, group).Incr(value)
}

// IncrCounterWithDimGroup adds value to one labelled series of the counter key.
func IncrCounterWithDimGroup(key, group string, value Value, dimensions Dimension) {
	getCounter(key, group).IncrWithDim(value, dimensions)
}

// UpdateGaugeWithGroup sets the gauge key of group to value.
func UpdateGaugeWithGroup(key, group string, value Value) {
	getGauge(key, group).Update(value)
}

// UpdateGaugeWithDimGroup sets one labelled series of the gauge key.
func UpdateGaugeWithDimGroup(key, group string, value Value, dimensions Dimension) {
	getGauge(key, group).UpdateWithDim(value, dimensions)
}

// UpdateMaxGaugeWithGroup offers value to the max gauge key; reporters keep
// the highest value of a window.
func UpdateMaxGaugeWithGroup(key, group string, value Value) {
	getMaxGauge(key, group).Update(value)
}

// UpdateMaxGaugeWithDimGroup offers value to one labelled series of the max gauge key.
func UpdateMaxGaugeWithDimGroup(key, group string, value Value, dimensions Dimension) {
	getMaxGauge(key, group).UpdateWithDim(value, dimensions)
}

// RecordStopwatch records the time elapsed since startTime under key.
func RecordStopwatch(key string, startTime time.Time) time.Duration {
	return getStopWatch(key, "").RecordWithDim(nil, startTime)
}

// RecordStopwatchWithGroup records the time elapsed since startTime under key of group.
func RecordStopwatchWithGroup(key, group string, startTime time.Time) time.Duration {
	return getStopWatch(key, group).RecordWithDim(nil, startTime)
}

// RecordStopwatchWithDimGroup records the time elapsed since startTime in one
// labelled series of key.
func RecordStopwatchWithDimGroup(key, group string, startTime time.Time, dimensions Dimension) time.Duration {
	return getStopWatch(key, group).RecordWithDim(dimensions, startTime)
}
