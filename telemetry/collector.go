package telemetry

import "time"

// Collector accumulates per-generation events within a logging window and
// produces GenerationStats when the window is flushed.
type Collector struct {
	windowGenerations int

	start          time.Time
	windowStart    time.Time
	windowStartGen int

	// Event counters for current window
	mutations int
}

// NewCollector creates a new stats collector.
// windowGenerations: generations per stats window (LogEvery)
// startGen: generation the run starts at, non-zero when resuming
func NewCollector(windowGenerations, startGen int, now time.Time) *Collector {
	if windowGenerations < 1 {
		windowGenerations = 1
	}
	return &Collector{
		windowGenerations: windowGenerations,
		start:             now,
		windowStart:       now,
		windowStartGen:    startGen,
	}
}

// RecordMutations records the number of mutation trials that fired in one generation.
func (c *Collector) RecordMutations(n int) {
	c.mutations += n
}

// ShouldFlush returns true if enough generations have passed to flush the window.
func (c *Collector) ShouldFlush(generation int) bool {
	return generation-c.windowStartGen >= c.windowGenerations
}

// Flush produces GenerationStats for the window ending at generation and
// resets counters for the next window.
func (c *Collector) Flush(generation int, fitness []float64, diversity, mutationChance float64, now time.Time) GenerationStats {
	var gensPerSec float64
	if d := now.Sub(c.windowStart); d > 0 {
		gensPerSec = float64(generation-c.windowStartGen) / d.Seconds()
	}

	stats := ComputeGenerationStats(generation, fitness, diversity, mutationChance, now.Sub(c.start), gensPerSec)
	stats.Mutations = c.mutations

	c.windowStart = now
	c.windowStartGen = generation
	c.mutations = 0

	return stats
}

// Elapsed returns the wall time since the collector was created.
func (c *Collector) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.start)
}

// WindowGenerations returns the number of generations per window.
func (c *Collector) WindowGenerations() int {
	return c.windowGenerations
}
