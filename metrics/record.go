package metrics

import "fmt"

// Record is one report of an instrument: a value, the number of samples it
// holds and the labels of its series.
type Record struct {
	metrics    Metrics
	value      Value
	cnt        int // samples merged into value, used by stopwatches
	dimensions Dimension
}

// Clone returns a copy that owns its dimensions.
func (r *Record) Clone() *Record {
	cp := *r
	cp.dimensions = make(Dimension, len(r.dimensions))
	for k, v := range r.dimensions {
		cp.dimensions[k] = v
	}
	return &cp
}

func (r *Record) SetMetrics(m Metrics)     { r.metrics = m }
func (r *Record) SetValue(v Value)         { r.value = v }
func (r *Record) SetDimension(d Dimension) { r.dimensions = d }

// Metrics returns the instrument the record belongs to.
func (r *Record) Metrics() Metrics {
	return r.metrics
}

// Value returns the reported value; stopwatch records return the mean of
// their samples.
func (r *Record) Value() Value {
	if r.metrics.Policy() == Policy_Stopwatch && r.cnt != 0 {
		return r.value / Value(r.cnt)
	}
	return r.value
}

// RawData returns the accumulated value and the sample count.
func (r *Record) RawData() (Value, int) {
	return r.value, r.cnt
}

// Dimensions returns the labels of the record's series.
func (r *Record) Dimensions() map[string]string {
	return r.dimensions
}

// Merge folds other into r according to the instrument's policy. Both records
// must belong to the same series.
func (r *Record) Merge(other Record) error {
	if err := r.sameSeries(&other); err != nil {
		return err
	}

	switch r.metrics.Policy() {
	case Policy_Set:
		r.value = other.value
	case Policy_Sum:
		r.value += other.value
	case Policy_Max:
		r.value = max(r.value, other.value)
	case Policy_Stopwatch:
		r.value += other.value
		r.cnt += other.cnt
	default:
		return fmt.Errorf("policy %d of %s cannot be merged", r.metrics.Policy(), r.metrics.Name())
	}
	return nil
}

func (r *Record) sameSeries(other *Record) error {
	a, b := r.metrics, other.metrics
	switch {
	case a.Name() != b.Name():
		return fmt.Errorf("cannot merge %s into %s", b.Name(), a.Name())
	case a.Group() != b.Group():
		return fmt.Errorf("%s: group %q differs from %q", a.Name(), b.Group(), a.Group())
	case a.Policy() != b.Policy():
		return fmt.Errorf("%s: policy %d differs from %d", a.Name(), b.Policy(), a.Policy())
	case len(r.dimensions) != len(other.dimensions):
		return fmt.Errorf("%s: %d labels differ from %d", a.Name(), len(other.dimensions), len(r.dimensions))
	}
	for k, v := range r.dimensions {
		if ov, ok := other.dimensions[k]; !ok || ov != v {
			return fmt.Errorf("%s: label %s=%q differs from %q", a.Name(), k, ov, v)
		}
	}
	return nil
}
