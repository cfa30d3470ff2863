package log

import (
	"math"

	"github.com/linchenxuan/sinklog/metrics"
	"golang.org/x/time/rate"
)

// RateLimit configures a Throttle.
type RateLimit struct {
	PerSecond float64 `mapstructure:"perSecond" yaml:"perSecond"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// Throttle caps the number of events per second an appender receives. Events
// over the budget are dropped without waiting; the wrapped appender never
// sees them. Level, SetLevel, SetFormatter and Close go to the wrapped appender.
type Throttle struct {
	Appender
	limiter *rate.Limiter
}

// NewThrottle wraps a with a token bucket refilled at perSecond tokens per
// second. A non-positive perSecond disables the limit; a non-positive burst
// defaults to one second worth of tokens.
func NewThrottle(a Appender, perSecond float64, burst int) *Throttle {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(perSecond)))
	}
	return &Throttle{
		Appender: a,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Unwrap returns the wrapped appender.
func (t *Throttle) Unwrap() Appender {
	return t.Appender
}

// Write implements Appender. It returns false for dropped events.
func (t *Throttle) Write(e *Event) bool {
	return t.writeResult(e) == metrics.ResultOK
}

func (t *Throttle) writeResult(e *Event) string {
	if !t.limiter.Allow() {
		return metrics.ResultDropped
	}
	if t.Appender.Write(e) {
		return metrics.ResultOK
	}
	return metrics.ResultFail
}
