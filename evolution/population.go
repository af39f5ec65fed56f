// Package evolution runs the generational search: elitist selection,
// parallel offspring production and ordered replacement.
package evolution

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/genome"
)

// Phase names reported to a PhaseTimer during Step.
const (
	PhaseSelection  = "selection"
	PhaseOffspring  = "offspring"
	PhaseEvaluation = "evaluation"
	PhaseSort       = "sort"
)

// PhaseTimer receives phase boundaries. telemetry.PerfCollector implements it.
type PhaseTimer interface {
	StartPhase(phase string)
}

// selectionStream is the PCG stream used for parent sampling; task streams
// use the task index, which never reaches it.
const selectionStream = 1<<32 - 1

// Params configures a Population.
type Params struct {
	Size           int
	Elite          int
	Workers        int // < 1 means GOMAXPROCS
	Seed           uint64
	MutationChance float64
	Mutator        genome.Mutator
	Crossover      genome.Crossover // nil means genome.Uniform
}

// ParamsFromConfig builds engine parameters from a validated config.
func ParamsFromConfig(cfg *config.Config) (Params, error) {
	cx, err := genome.ParseCrossover(cfg.Crossover.Strategy)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return Params{
		Size:           cfg.Population.Size,
		Elite:          cfg.Derived.EliteCount,
		Workers:        cfg.Population.Workers,
		Seed:           uint64(cfg.Population.Seed),
		MutationChance: cfg.Mutation.Chance,
		Mutator: genome.Mutator{
			GlyphSigma: cfg.Mutation.GlyphSigma,
			GlyphClamp: cfg.Mutation.GlyphClamp,
			ColorSigma: cfg.Mutation.ColorSigma,
			ColorClamp: cfg.Mutation.ColorClamp,
		},
		Crossover: cx,
	}, nil
}

// Population is the evolution engine. It holds exactly Size chromosomes,
// sorted by ascending fitness whenever control returns to the caller.
// It is not safe for concurrent use; Step parallelises internally.
type Population struct {
	assets      genome.Assets
	params      Params
	chromosomes []*genome.Chromosome
	generation  int
	mutations   int // trials fired in the last Step
	timer       PhaseTimer
}

// New creates a random population and evaluates it.
func New(a genome.Assets, p Params) (*Population, error) {
	p, err := normalize(a, p)
	if err != nil {
		return nil, err
	}

	pop := &Population{assets: a, params: p}
	pop.chromosomes = Map(make([]struct{}, p.Size), p.Workers, func(i int, _ struct{}) *genome.Chromosome {
		return genome.RandomChromosome(pop.rng(0, uint64(i)), a, p.MutationChance)
	})
	pop.evaluate()
	pop.sort()
	return pop, nil
}

// Restore rebuilds a population from saved genomes at the given generation.
// The genomes are copied.
func Restore(a genome.Assets, p Params, genomes []genome.Genome, generation int) (*Population, error) {
	p, err := normalize(a, p)
	if err != nil {
		return nil, err
	}
	if len(genomes) != p.Size {
		return nil, fmt.Errorf("%w: %d genomes for population size %d", ErrInvalidConfiguration, len(genomes), p.Size)
	}
	if generation < 0 {
		return nil, fmt.Errorf("%w: negative generation %d", ErrInvalidConfiguration, generation)
	}

	target := a.Target()
	tiles := genome.TileCount(target.Width, target.Height)
	pop := &Population{assets: a, params: p, generation: generation}
	pop.chromosomes = make([]*genome.Chromosome, len(genomes))
	for i, g := range genomes {
		if len(g) != tiles {
			return nil, fmt.Errorf("%w: genome %d has %d genes, canvas has %d tiles", ErrInvalidGenome, i, len(g), tiles)
		}
		if err := g.Validate(a.GlyphCount(), a.ColorCount()); err != nil {
			return nil, fmt.Errorf("%w: genome %d: %w", ErrInvalidGenome, i, err)
		}
		pop.chromosomes[i] = genome.NewChromosome(g.Clone(), p.MutationChance)
	}
	pop.evaluate()
	pop.sort()
	return pop, nil
}

func normalize(a genome.Assets, p Params) (Params, error) {
	switch {
	case p.Size < 1:
		return p, fmt.Errorf("%w: population size %d", ErrInvalidConfiguration, p.Size)
	case p.Elite < 0:
		return p, fmt.Errorf("%w: negative elite count %d", ErrInvalidConfiguration, p.Elite)
	case p.Elite >= p.Size:
		return p, fmt.Errorf("%w: elite count %d must be below population size %d", ErrInvalidConfiguration, p.Elite, p.Size)
	case p.MutationChance < 0 || p.MutationChance > 1:
		return p, fmt.Errorf("%w: mutation chance %v outside [0,1]", ErrInvalidConfiguration, p.MutationChance)
	case a.GlyphCount() == 0:
		return p, fmt.Errorf("%w: no glyphs", ErrInvalidConfiguration)
	case a.ColorCount() == 0:
		return p, fmt.Errorf("%w: empty palette", ErrInvalidConfiguration)
	}
	t := a.Target()
	if t.Width <= 0 || t.Height <= 0 || t.Width%assets.GlyphSize != 0 || t.Height%assets.GlyphSize != 0 {
		return p, fmt.Errorf("%w: canvas %dx%d is not a positive multiple of %d", ErrInvalidConfiguration, t.Width, t.Height, assets.GlyphSize)
	}
	if p.Workers < 1 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	if p.Crossover == nil {
		p.Crossover = genome.Uniform
	}
	return p, nil
}

// SetPhaseTimer installs t to receive phase boundaries from Step. nil disables timing.
func (p *Population) SetPhaseTimer(t PhaseTimer) { p.timer = t }

// Step advances one generation.
//
// The first Elite chromosomes survive unchanged. Each remaining slot is filled
// by a child of two parents drawn uniformly with replacement from the whole
// current population, produced by crossover then mutation on the worker pool.
// The new generation is evaluated and stably sorted.
func (p *Population) Step() {
	p.generation++
	gen := uint64(p.generation)
	n, elite := len(p.chromosomes), p.params.Elite

	p.startPhase(PhaseSelection)
	rng := p.rng(gen, selectionStream)
	parents := make([][2]*genome.Chromosome, n-elite)
	for i := range parents {
		parents[i] = [2]*genome.Chromosome{p.chromosomes[rng.IntN(n)], p.chromosomes[rng.IntN(n)]}
	}

	p.startPhase(PhaseOffspring)
	glyphs, colors := p.assets.GlyphCount(), p.assets.ColorCount()
	type offspring struct {
		child *genome.Chromosome
		fired int
	}
	children := Map(parents, p.params.Workers, func(i int, pair [2]*genome.Chromosome) offspring {
		rng := p.rng(gen, uint64(i))
		child := pair[0].Crossover(pair[1], p.params.Crossover, rng)
		child.SetMutationChance(p.params.MutationChance)
		fired := child.Mutate(p.params.Mutator, rng, glyphs, colors)
		return offspring{child, fired}
	})
	p.mutations = 0
	for i, o := range children {
		p.chromosomes[elite+i] = o.child
		p.mutations += o.fired
	}

	p.startPhase(PhaseEvaluation)
	p.evaluate()

	p.startPhase(PhaseSort)
	p.sort()
}

// rng returns the deterministic generator for one task of one generation.
func (p *Population) rng(generation, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(p.params.Seed, generation<<32|stream))
}

func (p *Population) evaluate() {
	Map(p.chromosomes, p.params.Workers, func(_ int, c *genome.Chromosome) float64 {
		return c.Fitness(p.assets)
	})
}

func (p *Population) sort() {
	slices.SortStableFunc(p.chromosomes, func(a, b *genome.Chromosome) int {
		return cmp.Compare(a.CachedFitness(), b.CachedFitness())
	})
}

func (p *Population) startPhase(phase string) {
	if p.timer != nil {
		p.timer.StartPhase(phase)
	}
}

// Chromosomes returns the population in fitness order. The slice is a copy;
// the chromosomes are shared and must be treated as read-only.
func (p *Population) Chromosomes() []*genome.Chromosome {
	return slices.Clone(p.chromosomes)
}

// Best returns the fittest chromosome.
func (p *Population) Best() *genome.Chromosome { return p.chromosomes[0] }

// Top returns the k fittest chromosomes, k clamped to [0, Size].
func (p *Population) Top(k int) []*genome.Chromosome {
	k = max(0, min(k, len(p.chromosomes)))
	return slices.Clone(p.chromosomes[:k])
}

// Generation returns the number of completed steps.
func (p *Population) Generation() int { return p.generation }

// Mutations returns the number of mutation trials that fired during the last Step.
func (p *Population) Mutations() int { return p.mutations }

// Size returns the population size.
func (p *Population) Size() int { return len(p.chromosomes) }

// Elite returns the number of chromosomes carried over each step.
func (p *Population) Elite() int { return p.params.Elite }

// Assets returns the asset set the population is evaluated against.
func (p *Population) Assets() genome.Assets { return p.assets }

// Params returns the normalised parameters.
func (p *Population) Params() Params { return p.params }

// Fitness returns every fitness value in ascending order.
func (p *Population) Fitness() []float64 {
	out := make([]float64, len(p.chromosomes))
	for i, c := range p.chromosomes {
		out[i] = c.CachedFitness()
	}
	return out
}

// Genomes returns copies of every genome in fitness order.
func (p *Population) Genomes() []genome.Genome {
	out := make([]genome.Genome, len(p.chromosomes))
	for i, c := range p.chromosomes {
		out[i] = c.Genome().Clone()
	}
	return out
}

// Diversity returns the mean fraction of genes in which each other
// chromosome differs from the best. 0 means a converged population.
func (p *Population) Diversity() float64 {
	if len(p.chromosomes) < 2 {
		return 0
	}
	best := p.chromosomes[0].Genome()
	if len(best) == 0 {
		return 0
	}
	var sum float64
	for _, c := range p.chromosomes[1:] {
		sum += float64(best.Distance(c.Genome())) / float64(len(best))
	}
	return sum / float64(len(p.chromosomes)-1)
}

// MutationChance returns the chance applied to new offspring.
func (p *Population) MutationChance() float64 { return p.params.MutationChance }

// SetMutationChance changes the mutation chance for subsequent steps.
func (p *Population) SetMutationChance(chance float64) error {
	if chance < 0 || chance > 1 {
		return fmt.Errorf("%w: mutation chance %v outside [0,1]", ErrInvalidConfiguration, chance)
	}
	p.params.MutationChance = chance
	for _, c := range p.chromosomes {
		c.SetMutationChance(chance)
	}
	return nil
}
