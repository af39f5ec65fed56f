package genome

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/glyphs/raster"
)

// Chromosome owns a genome together with its lazily computed render and
// fitness. Any change to the genome clears both caches.
type Chromosome struct {
	genome         Genome
	mutationChance float64

	image   *raster.Image // nil when stale
	fitness float64       // +Inf when stale
}

// NewChromosome takes ownership of g.
func NewChromosome(g Genome, mutationChance float64) *Chromosome {
	return &Chromosome{
		genome:         g,
		mutationChance: mutationChance,
		fitness:        math.Inf(1),
	}
}

// RandomChromosome returns a chromosome with a uniformly random genome sized for a.
func RandomChromosome(rng *rand.Rand, a Assets, mutationChance float64) *Chromosome {
	t := a.Target()
	g := Random(rng, TileCount(t.Width, t.Height), a.GlyphCount(), a.ColorCount())
	return NewChromosome(g, mutationChance)
}

// Genome returns the gene sequence. Callers must not modify it; use SetGene.
func (c *Chromosome) Genome() Genome { return c.genome }

// Len returns the number of genes.
func (c *Chromosome) Len() int { return len(c.genome) }

// Gene returns gene i.
func (c *Chromosome) Gene(i int) Gene { return c.genome[i] }

// SetGene replaces gene i and invalidates the caches.
func (c *Chromosome) SetGene(i int, g Gene) {
	c.genome[i] = g
	c.Invalidate()
}

// MutationChance returns the per-field mutation probability.
func (c *Chromosome) MutationChance() float64 { return c.mutationChance }

// SetMutationChance changes the per-field mutation probability.
func (c *Chromosome) SetMutationChance(p float64) { c.mutationChance = p }

// Invalidate clears the cached image and fitness.
func (c *Chromosome) Invalidate() {
	c.image = nil
	c.fitness = math.Inf(1)
}

// Evaluated reports whether the fitness cache is valid.
func (c *Chromosome) Evaluated() bool { return c.image != nil }

// CachedFitness returns the cached fitness, +Inf if not yet evaluated.
func (c *Chromosome) CachedFitness() float64 { return c.fitness }

// Image returns the rendered genome, rendering it on first use.
func (c *Chromosome) Image(a Assets) raster.Image {
	if c.image == nil {
		img := Render(c.genome, a)
		c.image = &img
		c.fitness = float64(Fitness(img, a.Target()))
	}
	return *c.image
}

// Fitness returns the cached fitness, evaluating it first if stale.
func (c *Chromosome) Fitness(a Assets) float64 {
	if c.image == nil {
		c.Image(a)
	}
	return c.fitness
}

// Mutate perturbs the genome with the chromosome's own mutation chance and
// invalidates the caches if anything changed.
func (c *Chromosome) Mutate(m Mutator, rng *rand.Rand, glyphs, colors int) int {
	n := m.Mutate(c.genome, c.mutationChance, rng, glyphs, colors)
	if n > 0 {
		c.Invalidate()
	}
	return n
}

// Crossover returns a new unevaluated child of c and other.
// The child inherits c's mutation chance.
func (c *Chromosome) Crossover(other *Chromosome, cx Crossover, rng *rand.Rand) *Chromosome {
	return NewChromosome(cx(c.genome, other.genome, rng), c.mutationChance)
}

// Clone returns a copy with its own genome. The cached render is shared
// because images are never written after rendering.
func (c *Chromosome) Clone() *Chromosome {
	out := *c
	out.genome = c.genome.Clone()
	return &out
}
