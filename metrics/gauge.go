package metrics

// Gauge reports a point-in-time value. Depending on how it was obtained the
// reporters keep either the last value (Policy_Set) or the highest one of a
// window (Policy_Max).
type Gauge interface {
	Metrics
	Update(value Value)
	UpdateWithDim(value Value, dimensions Dimension)
}

type gauge struct {
	instrument
}

func (g *gauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

func (g *gauge) UpdateWithDim(v Value, dimensions Dimension) {
	report(Record{metrics: g, value: v, dimensions: dimensions})
}
