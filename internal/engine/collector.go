package engine

// Sample is the metrics snapshot taken at the end of one tick.
type Sample struct {
	Tick uint64 `json:"tick"`
	Metrics
}

// Collector accumulates one Sample per tick. With Limit > 0 only the most
// recent Limit samples are kept.
type Collector struct {
	Limit   int
	samples []Sample
}

// NewCollector creates a collector keeping at most limit samples (0 keeps all).
func NewCollector(limit int) *Collector {
	return &Collector{Limit: limit}
}

// Collect appends a sample.
func (c *Collector) Collect(tick uint64, m Metrics) {
	c.samples = append(c.samples, Sample{Tick: tick, Metrics: m})
	if c.Limit > 0 && len(c.samples) > c.Limit {
		c.samples = append(c.samples[:0], c.samples[len(c.samples)-c.Limit:]...)
	}
}

// Samples returns a copy of the retained samples, oldest first.
func (c *Collector) Samples() []Sample {
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Latest returns the most recent sample.
func (c *Collector) Latest() (Sample, bool) {
	if len(c.samples) == 0 {
		return Sample{}, false
	}
	return c.samples[len(c.samples)-1], true
}

// Drain returns the retained samples and empties the collector.
func (c *Collector) Drain() []Sample {
	out := c.samples
	c.samples = nil
	return out
}

// Len returns the number of retained samples.
func (c *Collector) Len() int {
	return len(c.samples)
}
