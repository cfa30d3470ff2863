package metrics

// Counter accumulates deltas, such as the number of writes per appender.
type Counter interface {
	Metrics
	Incr(delta Value)
	IncrWithDim(delta Value, dimensions Dimension)
}

type counter struct {
	instrument
}

func (c *counter) Incr(delta Value) {
	c.IncrWithDim(delta, nil)
}

func (c *counter) IncrWithDim(delta Value, dimensions Dimension) {
	report(Record{metrics: c, value: delta, dimensions: dimensions})
}
