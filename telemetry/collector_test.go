package telemetry

import (
	"testing"
	"time"
)

func TestCollectorWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCollector(10, 0, start)

	for gen := 1; gen < 10; gen++ {
		c.RecordMutations(3)
		if c.ShouldFlush(gen) {
			t.Fatalf("flush requested at generation %d", gen)
		}
	}
	c.RecordMutations(3)
	if !c.ShouldFlush(10) {
		t.Fatal("expected flush at generation 10")
	}

	stats := c.Flush(10, []float64{5, 1, 3}, 0.2, 0.01, start.Add(2*time.Second))
	if stats.Mutations != 30 {
		t.Errorf("mutations = %d, want 30", stats.Mutations)
	}
	if stats.GensPerSec != 5 {
		t.Errorf("gens/sec = %v, want 5", stats.GensPerSec)
	}
	if stats.Best != 1 || stats.ElapsedSec != 2 {
		t.Errorf("best=%v elapsed=%v", stats.Best, stats.ElapsedSec)
	}

	// Counters reset; rate covers only the new window.
	stats = c.Flush(20, []float64{1}, 0, 0.01, start.Add(3*time.Second))
	if stats.Mutations != 0 || stats.GensPerSec != 10 || stats.ElapsedSec != 3 {
		t.Errorf("second window: %+v", stats)
	}
}

func TestCollectorResume(t *testing.T) {
	c := NewCollector(0, 500, time.Now())
	if c.WindowGenerations() != 1 {
		t.Errorf("window = %d, want 1", c.WindowGenerations())
	}
	if c.ShouldFlush(500) || !c.ShouldFlush(501) {
		t.Error("resumed collector should count from its start generation")
	}
}
