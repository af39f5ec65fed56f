// Package genome implements the tile encoding of a candidate image: genes,
// the deterministic renderer, the fitness function and the genetic operators.
package genome

import (
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/raster"
)

// Assets is the read-only asset set a genome is decoded against.
// Implementations must be safe for concurrent reads.
type Assets interface {
	Target() raster.Image
	Glyph(i int) assets.Glyph
	GlyphCount() int
	Color(i int) assets.Color
	ColorCount() int
}

// Gene encodes one 8×8 tile.
type Gene struct {
	Glyph int `json:"glyph"`
	FG    int `json:"fg"`
	BG    int `json:"bg"`
}

// Genome is an ordered tile sequence, row-major over the canvas grid.
type Genome []Gene

// Random returns a genome with every field uniform over its range.
func Random(rng *rand.Rand, tiles, glyphs, colors int) Genome {
	g := make(Genome, tiles)
	for i := range g {
		g[i] = Gene{
			Glyph: rng.IntN(glyphs),
			FG:    rng.IntN(colors),
			BG:    rng.IntN(colors),
		}
	}
	return g
}

// Clone returns an independent copy.
func (g Genome) Clone() Genome {
	c := make(Genome, len(g))
	copy(c, g)
	return c
}

// Equal reports value equality of two gene sequences.
func (g Genome) Equal(o Genome) bool {
	if len(g) != len(o) {
		return false
	}
	for i := range g {
		if g[i] != o[i] {
			return false
		}
	}
	return true
}

// Distance returns the number of positions whose genes differ.
// Genomes of different length compare over the shorter one plus the excess.
func (g Genome) Distance(o Genome) int {
	n, d := len(g), 0
	if len(o) < n {
		n = len(o)
	}
	for i := 0; i < n; i++ {
		if g[i] != o[i] {
			d++
		}
	}
	return d + abs(len(g)-len(o))
}

// Validate checks every field against its modular range.
func (g Genome) Validate(glyphs, colors int) error {
	for t, gene := range g {
		if err := checkGene(t, gene, glyphs, colors); err != nil {
			return err
		}
	}
	return nil
}

// GeneIndexError reports a gene field outside its range. Operators never
// produce one, so the renderer treats it as a broken invariant and panics.
type GeneIndexError struct {
	Tile  int
	Field string
	Value int
	Limit int
}

func (e *GeneIndexError) Error() string {
	return fmt.Sprintf("genome: tile %d %s index %d outside [0,%d)", e.Tile, e.Field, e.Value, e.Limit)
}

func checkGene(t int, gene Gene, glyphs, colors int) error {
	switch {
	case gene.Glyph < 0 || gene.Glyph >= glyphs:
		return &GeneIndexError{Tile: t, Field: "glyph", Value: gene.Glyph, Limit: glyphs}
	case gene.FG < 0 || gene.FG >= colors:
		return &GeneIndexError{Tile: t, Field: "fg", Value: gene.FG, Limit: colors}
	case gene.BG < 0 || gene.BG >= colors:
		return &GeneIndexError{Tile: t, Field: "bg", Value: gene.BG, Limit: colors}
	}
	return nil
}

// Wrap maps v into [0, n) for any sign of v.
func Wrap(v, n int) int {
	r := v % n
	if r < 0 {
		r += n
	}
	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
