package genome

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Mutator perturbs gene indices by rounded Gaussian deltas.
type Mutator struct {
	GlyphSigma float64
	GlyphClamp int
	ColorSigma float64
	ColorClamp int
}

// DefaultMutator returns sigma 4 / clamp 64 for glyphs and sigma 3 / clamp 10 for colors.
func DefaultMutator() Mutator {
	return Mutator{GlyphSigma: 4, GlyphClamp: 64, ColorSigma: 3, ColorClamp: 10}
}

// Mutate perturbs g in place. Every tile runs three independent Bernoulli(p)
// trials, one each for the glyph, foreground and background index. It returns
// the number of trials that fired.
func (m Mutator) Mutate(g Genome, p float64, rng *rand.Rand, glyphs, colors int) int {
	if p <= 0 {
		return 0
	}
	glyphDelta := distuv.Normal{Mu: 0, Sigma: m.GlyphSigma, Src: rng}
	colorDelta := distuv.Normal{Mu: 0, Sigma: m.ColorSigma, Src: rng}

	fired := 0
	for i := range g {
		if rng.Float64() < p {
			g[i].Glyph = Wrap(g[i].Glyph+delta(glyphDelta, m.GlyphClamp), glyphs)
			fired++
		}
		if rng.Float64() < p {
			g[i].FG = Wrap(g[i].FG+delta(colorDelta, m.ColorClamp), colors)
			fired++
		}
		if rng.Float64() < p {
			g[i].BG = Wrap(g[i].BG+delta(colorDelta, m.ColorClamp), colors)
			fired++
		}
	}
	return fired
}

func delta(d distuv.Normal, limit int) int {
	v := int(math.Round(d.Rand()))
	return max(-limit, min(limit, v))
}
