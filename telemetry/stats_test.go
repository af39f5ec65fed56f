package telemetry

import (
	"math"
	"slices"
	"testing"
	"time"
)

func TestComputeGenerationStats(t *testing.T) {
	fitness := []float64{7, 3, 10, 1, 5, 9, 2, 8, 4, 6}
	before := slices.Clone(fitness)

	s := ComputeGenerationStats(12, fitness, 0.4, 0.01, 1500*time.Millisecond, 8)

	if !slices.Equal(fitness, before) {
		t.Error("input slice was modified")
	}
	if s.Generation != 12 || s.ElapsedSec != 1.5 || s.Diversity != 0.4 || s.GensPerSec != 8 {
		t.Errorf("metadata not copied: %+v", s)
	}
	if s.Best != 1 || s.Worst != 10 {
		t.Errorf("best/worst = %v/%v, want 1/10", s.Best, s.Worst)
	}
	if math.Abs(s.Mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", s.Mean)
	}
	if math.Abs(s.Std-math.Sqrt(8.25)) > 1e-9 {
		t.Errorf("std = %v, want %v", s.Std, math.Sqrt(8.25))
	}
	if !(s.Best <= s.P10 && s.P10 <= s.P50 && s.P50 <= s.P90 && s.P90 <= s.Worst) {
		t.Errorf("quantiles out of order: %v %v %v", s.P10, s.P50, s.P90)
	}
	if s.P50 != 5 {
		t.Errorf("p50 = %v, want 5", s.P50)
	}
}

func TestComputeGenerationStats_Edge(t *testing.T) {
	empty := ComputeGenerationStats(0, nil, 0, 0, 0, 0)
	if empty.Best != 0 || empty.Mean != 0 {
		t.Errorf("empty input should give zero stats: %+v", empty)
	}

	single := ComputeGenerationStats(1, []float64{42}, 0, 0, 0, 0)
	if single.Best != 42 || single.Worst != 42 || single.P90 != 42 || single.Std != 0 {
		t.Errorf("single value stats: %+v", single)
	}
}
