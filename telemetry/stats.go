package telemetry

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one generation.
type GenerationStats struct {
	Generation int     `csv:"generation"`
	ElapsedSec float64 `csv:"elapsed_sec"`

	// Fitness distribution (lower is better)
	Best  float64 `csv:"best"`
	Mean  float64 `csv:"mean"`
	Std   float64 `csv:"std"`
	P10   float64 `csv:"p10"`
	P50   float64 `csv:"p50"`
	P90   float64 `csv:"p90"`
	Worst float64 `csv:"worst"`

	// Search state
	Diversity      float64 `csv:"diversity"`
	MutationChance float64 `csv:"mutation_chance"`
	Mutations      int     `csv:"mutations"` // Mutation trials fired during the window
	GensPerSec     float64 `csv:"gens_per_sec"`
}

// ComputeGenerationStats summarises a fitness distribution.
// fitness need not be sorted; it is not modified.
func ComputeGenerationStats(generation int, fitness []float64, diversity, mutationChance float64, elapsed time.Duration, gensPerSec float64) GenerationStats {
	s := GenerationStats{
		Generation:     generation,
		ElapsedSec:     elapsed.Seconds(),
		Diversity:      diversity,
		MutationChance: mutationChance,
		GensPerSec:     gensPerSec,
	}
	if len(fitness) == 0 {
		return s
	}

	sorted := slices.Clone(fitness)
	slices.Sort(sorted)

	s.Best = sorted[0]
	s.Worst = sorted[len(sorted)-1]
	s.Mean, s.Std = stat.PopMeanStdDev(sorted, nil)
	s.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return s
}

// LogStats logs the per-generation stats line.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"gen", s.Generation,
		"best", s.Best,
		"mean", math.Round(s.Mean),
		"diversity", math.Round(s.Diversity*1000)/1000,
		"gens_per_sec", math.Round(s.GensPerSec*10)/10,
		"elapsed", time.Duration(s.ElapsedSec*float64(time.Second)).Round(time.Millisecond).String(),
	)
}
