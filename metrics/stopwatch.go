package metrics

import (
	"time"
)

// StopWatch reports durations in milliseconds. Reporters average the samples
// merged into one record.
type StopWatch interface {
	Metrics
	// RecordWithDim reports the time elapsed since startTime and returns it.
	RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration
}

type stopwatch struct {
	instrument
}

func (s *stopwatch) RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration {
	elapsed := time.Since(startTime)
	report(Record{
		metrics:    s,
		value:      Value(float64(elapsed.Microseconds()) / 1000),
		cnt:        1,
		dimensions: dimensions,
	})
	return elapsed
}
