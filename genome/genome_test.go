package genome

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/raster"
)

var (
	fullGlyph  = assets.Glyph(^uint64(0))
	emptyGlyph = assets.Glyph(0)
	leftGlyph  = assets.GlyphFromRows([assets.GlyphSize]byte{0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0})
)

// testBundle returns a width×height bundle with three glyphs (full, left half,
// empty after sorting) and the palette white, red, black.
func testBundle(width, height int) *assets.Bundle {
	return assets.NewBundle(
		raster.New(width, height),
		[]assets.Glyph{emptyGlyph, leftGlyph, fullGlyph},
		[]assets.Color{{0, 0, 0}, {255, 255, 255}, {200, 0, 0}},
	)
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		v, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 0},
		{-1, 5, 4},
		{-5, 5, 0},
		{-64, 16, 0},
		{-65, 16, 15},
		{64 + 127, 128, 63},
		{-10, 3, 2},
	}
	for _, tt := range tests {
		if got := Wrap(tt.v, tt.n); got != tt.want {
			t.Errorf("Wrap(%d, %d) = %d, want %d", tt.v, tt.n, got, tt.want)
		}
	}
}

func TestGenomeEqualIgnoresCaches(t *testing.T) {
	b := testBundle(16, 16)
	g := Random(newRNG(1), 4, b.GlyphCount(), b.ColorCount())

	evaluated := NewChromosome(g.Clone(), 0.01)
	evaluated.Fitness(b)
	fresh := NewChromosome(g.Clone(), 0.5)

	if !evaluated.Genome().Equal(fresh.Genome()) {
		t.Error("genomes with identical genes should be equal regardless of cache state")
	}

	other := g.Clone()
	other[3].BG = Wrap(other[3].BG+1, b.ColorCount())
	if g.Equal(other) {
		t.Error("genomes differing in one field should not be equal")
	}
	if g.Distance(other) != 1 {
		t.Errorf("Distance = %d, want 1", g.Distance(other))
	}
	if g.Equal(g[:3]) {
		t.Error("genomes of different length should not be equal")
	}
}

func TestRandomWithinRange(t *testing.T) {
	g := Random(newRNG(2), 1000, 7, 3)
	if err := g.Validate(7, 3); err != nil {
		t.Fatalf("random genome out of range: %v", err)
	}

	bad := Genome{{Glyph: 0, FG: 3, BG: 0}}
	var gerr *GeneIndexError
	if err := bad.Validate(7, 3); !errors.As(err, &gerr) || gerr.Field != "fg" {
		t.Errorf("Validate() = %v, want fg GeneIndexError", err)
	}
}

func TestRenderPlacesTilesRowMajor(t *testing.T) {
	b := testBundle(16, 16) // 2x2 grid
	// Sorted glyphs: 0=full, 1=left half, 2=empty. Sorted palette: 0=white, 1=red, 2=black.
	g := Genome{
		{Glyph: 0, FG: 1, BG: 2}, // top-left: solid red
		{Glyph: 2, FG: 1, BG: 0}, // top-right: solid white
		{Glyph: 1, FG: 0, BG: 2}, // bottom-left: white left half, black right half
		{Glyph: 0, FG: 2, BG: 0}, // bottom-right: solid black
	}

	img := Render(g, b)
	if img.Width != 16 || img.Height != 16 {
		t.Fatalf("size = %dx%d, want 16x16", img.Width, img.Height)
	}

	check := func(x, y int, want assets.Color) {
		t.Helper()
		r, gg, bb := img.At(x, y)
		if (assets.Color{R: r, G: gg, B: bb}) != want {
			t.Errorf("pixel (%d,%d) = (%d,%d,%d), want %v", x, y, r, gg, bb, want)
		}
	}
	check(0, 0, assets.Color{R: 200})
	check(7, 7, assets.Color{R: 200})
	check(8, 0, assets.Color{R: 255, G: 255, B: 255})
	check(15, 7, assets.Color{R: 255, G: 255, B: 255})
	check(0, 8, assets.Color{R: 255, G: 255, B: 255})
	check(3, 15, assets.Color{R: 255, G: 255, B: 255})
	check(4, 8, assets.Color{})
	check(7, 15, assets.Color{})
	check(8, 8, assets.Color{})
	check(15, 15, assets.Color{})
}

func TestRenderDeterministic(t *testing.T) {
	b := testBundle(128, 128)
	rng := newRNG(3)
	for i := 0; i < 20; i++ {
		g := Random(rng, 256, b.GlyphCount(), b.ColorCount())
		first := Render(g, b)
		second := Render(g.Clone(), b)

		if first.Width != 128 || first.Height != 128 || len(first.Pix) != 128*128*raster.Channels {
			t.Fatalf("render size = %dx%d (%d bytes)", first.Width, first.Height, len(first.Pix))
		}
		if !first.Equal(second) {
			t.Fatal("identical genomes rendered different images")
		}
	}
}

func TestRenderPanicsOnBadIndex(t *testing.T) {
	b := testBundle(8, 8)

	defer func() {
		r := recover()
		gerr, ok := r.(*GeneIndexError)
		if !ok {
			t.Fatalf("recovered %v, want *GeneIndexError", r)
		}
		if gerr.Field != "glyph" || gerr.Value != 3 || gerr.Limit != 3 {
			t.Errorf("unexpected error: %v", gerr)
		}
	}()
	Render(Genome{{Glyph: 3}}, b)
}

func TestFitness(t *testing.T) {
	a := raster.New(2, 1)
	b := raster.New(2, 1)

	if Fitness(a, b) != 0 {
		t.Error("identical images should have zero fitness")
	}

	a.Set(1, 0, 3, 0, 255)
	b.Set(1, 0, 0, 4, 0)
	want := uint64(3*3 + 4*4 + 255*255)
	if got := Fitness(a, b); got != want {
		t.Errorf("Fitness = %d, want %d", got, want)
	}
	if Fitness(b, a) != want {
		t.Error("fitness should be symmetric")
	}
}

func TestFitnessWorstCase(t *testing.T) {
	white := raster.New(128, 128)
	white.Fill(255, 255, 255)
	black := raster.New(128, 128)

	want := uint64(128 * 128 * 3 * 255 * 255)
	if got := Fitness(white, black); got != want {
		t.Errorf("Fitness = %d, want %d", got, want)
	}
}

func TestBlackTargetScenario(t *testing.T) {
	cfg := config.Default()
	palette, err := assets.ParsePalette(cfg.Assets.Palette)
	if err != nil {
		t.Fatal(err)
	}
	b := assets.NewBundle(raster.New(128, 128), assets.BuiltinGlyphs(), palette)

	black, blank := -1, -1
	for i := 0; i < b.ColorCount(); i++ {
		if b.Color(i) == (assets.Color{}) {
			black = i
		}
	}
	for i := 0; i < b.GlyphCount(); i++ {
		if b.Glyph(i) == 0 {
			blank = i
		}
	}
	if black < 0 || blank < 0 {
		t.Fatalf("fixture missing black (%d) or blank glyph (%d)", black, blank)
	}
	if b.ColorCount() != 16 {
		t.Fatalf("palette size = %d, want 16", b.ColorCount())
	}

	g := make(Genome, 256)
	for i := range g {
		g[i] = Gene{Glyph: blank, FG: i % 16, BG: black}
	}

	c := NewChromosome(g, 0.01)
	if f := c.Fitness(b); f != 0 {
		t.Errorf("fitness = %v, want 0", f)
	}

	// Any visible foreground pixel breaks the match.
	c.SetGene(0, Gene{Glyph: 0, FG: 0, BG: black})
	if f := c.Fitness(b); f <= 0 {
		t.Errorf("fitness = %v, want > 0 after lighting a tile", f)
	}
}

func TestMutateStaysInRange(t *testing.T) {
	rng := newRNG(4)
	m := Mutator{GlyphSigma: 200, GlyphClamp: 64, ColorSigma: 50, ColorClamp: 10}

	for _, counts := range [][2]int{{1, 1}, {3, 2}, {65, 16}, {128, 16}, {500, 7}} {
		glyphs, colors := counts[0], counts[1]
		g := Random(rng, 256, glyphs, colors)
		for round := 0; round < 50; round++ {
			m.Mutate(g, 1, rng, glyphs, colors)
			if err := g.Validate(glyphs, colors); err != nil {
				t.Fatalf("glyphs=%d colors=%d round %d: %v", glyphs, colors, round, err)
			}
		}
	}
}

func TestMutateClampsDelta(t *testing.T) {
	rng := newRNG(5)
	m := Mutator{GlyphSigma: 1e6, GlyphClamp: 64, ColorSigma: 1e6, ColorClamp: 10}

	hitBoundary := false
	for i := 0; i < 200; i++ {
		g := Genome{{Glyph: 500, FG: 50, BG: 50}}
		m.Mutate(g, 1, rng, 1000, 100)

		dg, dfg, dbg := g[0].Glyph-500, g[0].FG-50, g[0].BG-50
		if abs(dg) > 64 || abs(dfg) > 10 || abs(dbg) > 10 {
			t.Fatalf("delta (%d,%d,%d) exceeds clamp", dg, dfg, dbg)
		}
		if abs(dg) == 64 {
			hitBoundary = true
		}
	}
	if !hitBoundary {
		t.Error("huge sigma should saturate at the clamp")
	}
}

func TestMutateZeroChance(t *testing.T) {
	rng := newRNG(6)
	g := Random(rng, 256, 128, 16)
	before := g.Clone()

	if n := DefaultMutator().Mutate(g, 0, rng, 128, 16); n != 0 {
		t.Errorf("fired %d trials with p=0", n)
	}
	if !g.Equal(before) {
		t.Error("p=0 must leave the genome unchanged")
	}
}

func TestMutateRate(t *testing.T) {
	rng := newRNG(7)
	const tiles, p = 1000, 0.1
	g := Random(rng, tiles, 128, 16)

	fired := DefaultMutator().Mutate(g, p, rng, 128, 16)
	expected := 3 * tiles * p
	if math.Abs(float64(fired)-expected) > 100 {
		t.Errorf("fired %d trials, expected about %.0f", fired, expected)
	}
}

func TestCrossoverIdenticalParents(t *testing.T) {
	rng := newRNG(8)
	a := Random(rng, 256, 128, 16)

	for _, cx := range []Crossover{Uniform, SinglePoint} {
		for i := 0; i < 50; i++ {
			if child := cx(a, a.Clone(), rng); !child.Equal(a) {
				t.Fatal("crossover of identical parents must reproduce the parent")
			}
		}
	}
}

func TestCrossoverThenMutateWithZeroChance(t *testing.T) {
	rng := newRNG(9)
	const tiles = 256
	a := make(Genome, tiles)
	b := make(Genome, tiles)
	for i := range a {
		a[i] = Gene{Glyph: 2 * (i % 50), FG: 0, BG: 2}
		b[i] = Gene{Glyph: 2*(i%50) + 1, FG: 1, BG: 3}
	}

	fromA, fromB := 0, 0
	for round := 0; round < 200; round++ {
		child := NewChromosome(Uniform(a, b, rng), 0)
		child.Mutate(DefaultMutator(), rng, 100, 4)
		for i, gene := range child.Genome() {
			switch gene {
			case a[i]:
				fromA++
			case b[i]:
				fromB++
			default:
				t.Fatalf("round %d tile %d: gene %+v matches neither parent", round, i, gene)
			}
		}
	}

	total := float64(fromA + fromB)
	if share := float64(fromA) / total; share < 0.45 || share > 0.55 {
		t.Errorf("parent A share = %.3f, want about 0.5", share)
	}
}

func TestSinglePointIsContiguous(t *testing.T) {
	rng := newRNG(10)
	a := make(Genome, 64)
	b := make(Genome, 64)
	for i := range b {
		b[i] = Gene{Glyph: 1, FG: 1, BG: 1}
	}

	for round := 0; round < 100; round++ {
		child := SinglePoint(a, b, rng)
		switched := false
		for i, gene := range child {
			if gene == b[i] {
				switched = true
			} else if switched {
				t.Fatalf("round %d: gene %d returns to parent A after the cut", round, i)
			}
		}
	}
}

func TestParseCrossover(t *testing.T) {
	if _, err := ParseCrossover("uniform"); err != nil {
		t.Errorf("uniform: %v", err)
	}
	if _, err := ParseCrossover("single_point"); err != nil {
		t.Errorf("single_point: %v", err)
	}
	if _, err := ParseCrossover("two_point"); !errors.Is(err, ErrUnknownCrossover) {
		t.Errorf("two_point: got %v, want ErrUnknownCrossover", err)
	}
}

func TestChromosomeCache(t *testing.T) {
	b := testBundle(16, 16)
	c := NewChromosome(Genome{
		{Glyph: 0, FG: 0, BG: 0},
		{Glyph: 0, FG: 0, BG: 0},
		{Glyph: 0, FG: 0, BG: 0},
		{Glyph: 0, FG: 0, BG: 0},
	}, 0.01)

	if c.Evaluated() || !math.IsInf(c.CachedFitness(), 1) {
		t.Fatal("new chromosome should be unevaluated with +Inf fitness")
	}

	// All-white image against a black target.
	want := float64(16 * 16 * 3 * 255 * 255)
	if f := c.Fitness(b); f != want {
		t.Errorf("fitness = %v, want %v", f, want)
	}
	if !c.Evaluated() {
		t.Error("Fitness should populate the cache")
	}

	c.SetGene(0, Gene{Glyph: 2, FG: 0, BG: 2})
	if c.Evaluated() {
		t.Fatal("SetGene must invalidate the cache")
	}
	if f := c.Fitness(b); f != want*3/4 {
		t.Errorf("fitness after SetGene = %v, want %v", f, want*3/4)
	}
	if r, _, _ := c.Image(b).At(0, 0); r != 0 {
		t.Error("stale image returned after SetGene")
	}
}

func TestChromosomeMutateInvalidates(t *testing.T) {
	b := testBundle(128, 128)
	rng := newRNG(11)
	c := RandomChromosome(rng, b, 1)
	c.Fitness(b)

	if n := c.Mutate(DefaultMutator(), rng, b.GlyphCount(), b.ColorCount()); n != 3*c.Len() {
		t.Errorf("fired %d trials with p=1, want %d", n, 3*c.Len())
	}
	if c.Evaluated() {
		t.Error("Mutate must invalidate the cache")
	}
	if want := float64(Fitness(Render(c.Genome(), b), b.Target())); c.Fitness(b) != want {
		t.Errorf("fitness = %v, want %v", c.Fitness(b), want)
	}
}

func TestChromosomeCloneAndCrossover(t *testing.T) {
	b := testBundle(16, 16)
	rng := newRNG(12)
	parent := RandomChromosome(rng, b, 0.25)
	parent.Fitness(b)

	clone := parent.Clone()
	if !clone.Evaluated() || clone.CachedFitness() != parent.CachedFitness() {
		t.Error("clone should keep the valid cache of an identical genome")
	}
	clone.SetGene(0, Gene{Glyph: Wrap(parent.Gene(0).Glyph+1, 3)})
	if parent.Gene(0) == clone.Gene(0) {
		t.Error("clone shares genes with its parent")
	}
	if !parent.Evaluated() {
		t.Error("changing the clone must not invalidate the parent")
	}

	child := parent.Crossover(clone, Uniform, rng)
	if child.Evaluated() || !math.IsInf(child.CachedFitness(), 1) {
		t.Error("crossover child must start without cached state")
	}
	if child.MutationChance() != 0.25 {
		t.Errorf("child mutation chance = %v, want 0.25", child.MutationChance())
	}
}

func TestTileAt(t *testing.T) {
	tests := []struct {
		x, y   int
		want   int
		inside bool
	}{
		{0, 0, 0, true},
		{7, 7, 0, true},
		{8, 0, 1, true},
		{31, 0, 3, true},
		{0, 8, 4, true},
		{31, 15, 7, true},
		{32, 0, 0, false},
		{0, 16, 0, false},
		{-1, 3, 0, false},
	}
	for _, tt := range tests {
		got, ok := TileAt(tt.x, tt.y, 32, 16)
		if ok != tt.inside || got != tt.want {
			t.Errorf("TileAt(%d, %d) = %d, %v, want %d, %v", tt.x, tt.y, got, ok, tt.want, tt.inside)
		}
	}
}
