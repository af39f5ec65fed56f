package tune

import (
	"fmt"
	"math"
	"sync"

	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/evolution"
	"github.com/pthm-cable/glyphs/genome"
)

// FitnessEvaluator runs short headless evolutions and scores a parameter
// vector by the mean best fitness they reach (lower = better).
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []uint64
	baseConfig  *config.Config
	assets      genome.Assets

	mu          sync.Mutex
	bestFitness float64
	lastSpread  float64 // max-min best fitness over seeds, most recent call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []uint64, baseCfg *config.Config, a genome.Assets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		assets:      a,
		bestFitness: math.Inf(1),
	}
}

// Seeds returns n evaluation seeds spaced like 42, 1042, 2042...
func Seeds(n int) []uint64 {
	s := make([]uint64, n)
	for i := range s {
		s[i] = uint64(i*1000 + 42)
	}
	return s
}

// LastSpread returns the seed spread of the most recent evaluation.
func (fe *FitnessEvaluator) LastSpread() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSpread
}

// BestFitness returns the lowest score seen so far.
func (fe *FitnessEvaluator) BestFitness() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness
}

// Config returns a copy of the base config with x applied.
func (fe *FitnessEvaluator) Config(x []float64) (*config.Config, error) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Evaluate computes the score for raw parameter values. Seeds run in
// parallel with one worker each. Invalid parameters score +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg, err := fe.Config(x)
	if err != nil {
		return math.Inf(1)
	}
	base, err := evolution.ParamsFromConfig(cfg)
	if err != nil {
		return math.Inf(1)
	}

	type seedResult struct {
		best float64
		err  error
	}
	results := evolution.Map(fe.seeds, len(fe.seeds), func(_ int, seed uint64) seedResult {
		p := base
		p.Seed = seed
		p.Workers = 1
		pop, err := evolution.New(fe.assets, p)
		if err != nil {
			return seedResult{err: fmt.Errorf("seed %d: %w", seed, err)}
		}
		for g := 0; g < fe.generations; g++ {
			pop.Step()
		}
		return seedResult{best: pop.Best().CachedFitness()}
	})

	var total float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range results {
		if r.err != nil {
			return math.Inf(1)
		}
		total += r.best
		lo = min(lo, r.best)
		hi = max(hi, r.best)
	}
	avg := total / float64(len(results))

	fe.mu.Lock()
	fe.lastSpread = hi - lo
	if avg < fe.bestFitness {
		fe.bestFitness = avg
	}
	fe.mu.Unlock()
	return avg
}
