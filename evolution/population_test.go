package evolution

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/genome"
	"github.com/pthm-cable/glyphs/raster"
)

// testBundle returns a 32x32 target, white on the left half and black on the right.
func testBundle() *assets.Bundle {
	target := raster.New(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			target.Set(x, y, 255, 255, 255)
		}
	}
	glyphs := []assets.Glyph{
		0,
		assets.Glyph(^uint64(0)),
		assets.GlyphFromRows([assets.GlyphSize]byte{0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0, 0xf0}),
		assets.GlyphFromRows([assets.GlyphSize]byte{0xaa, 0x55, 0xaa, 0x55, 0xaa, 0x55, 0xaa, 0x55}),
	}
	palette := []assets.Color{{0, 0, 0}, {255, 255, 255}, {200, 40, 40}, {40, 40, 200}}
	return assets.NewBundle(target, glyphs, palette)
}

func testParams() Params {
	return Params{
		Size:           30,
		Elite:          6,
		Workers:        4,
		Seed:           42,
		MutationChance: 0.05,
		Mutator:        genome.DefaultMutator(),
	}
}

func assertSorted(t *testing.T, pop *Population) {
	t.Helper()
	f := pop.Fitness()
	if !slices.IsSorted(f) {
		t.Fatalf("population not sorted: %v", f)
	}
	for i, c := range pop.Chromosomes() {
		if !c.Evaluated() || math.IsInf(c.CachedFitness(), 1) {
			t.Fatalf("chromosome %d not evaluated", i)
		}
	}
}

func TestNewValidates(t *testing.T) {
	b := testBundle()
	tests := []struct {
		name   string
		assets genome.Assets
		mutate func(p *Params)
	}{
		{"zero size", b, func(p *Params) { p.Size, p.Elite = 0, 0 }},
		{"elite equals size", b, func(p *Params) { p.Elite = p.Size }},
		{"elite above size", b, func(p *Params) { p.Elite = p.Size + 1 }},
		{"negative elite", b, func(p *Params) { p.Elite = -1 }},
		{"chance above one", b, func(p *Params) { p.MutationChance = 1.5 }},
		{"no glyphs", assets.NewBundle(raster.New(16, 16), nil, []assets.Color{{}}), func(*Params) {}},
		{"no colors", assets.NewBundle(raster.New(16, 16), []assets.Glyph{0}, nil), func(*Params) {}},
		{"canvas not tiled", assets.NewBundle(raster.New(12, 16), []assets.Glyph{0}, []assets.Color{{}}), func(*Params) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			if _, err := New(tt.assets, p); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("New() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestNewPopulation(t *testing.T) {
	b := testBundle()
	p := testParams()
	p.Workers = 0
	p.Crossover = nil

	pop, err := New(b, p)
	if err != nil {
		t.Fatal(err)
	}
	if pop.Size() != 30 || pop.Elite() != 6 || pop.Generation() != 0 {
		t.Errorf("size=%d elite=%d generation=%d", pop.Size(), pop.Elite(), pop.Generation())
	}
	if pop.Params().Workers < 1 || pop.Params().Crossover == nil {
		t.Error("workers and crossover should be normalised")
	}
	for i, c := range pop.Chromosomes() {
		if c.Len() != 16 {
			t.Fatalf("chromosome %d has %d genes, want 16", i, c.Len())
		}
		if err := c.Genome().Validate(b.GlyphCount(), b.ColorCount()); err != nil {
			t.Fatalf("chromosome %d: %v", i, err)
		}
	}
	assertSorted(t, pop)
}

func TestSingleChromosomeWithoutElites(t *testing.T) {
	p := testParams()
	p.Size, p.Elite = 1, 0

	pop, err := New(testBundle(), p)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		pop.Step()
	}
	if pop.Size() != 1 || pop.Diversity() != 0 {
		t.Errorf("size=%d diversity=%v", pop.Size(), pop.Diversity())
	}
}

func TestStepInvariants(t *testing.T) {
	pop, err := New(testBundle(), testParams())
	if err != nil {
		t.Fatal(err)
	}

	prevBest := pop.Best().CachedFitness()
	for gen := 1; gen <= 40; gen++ {
		elites := pop.Top(pop.Elite())
		eliteFitness := make([]float64, len(elites))
		eliteGenomes := make([]genome.Genome, len(elites))
		for i, e := range elites {
			eliteFitness[i] = e.CachedFitness()
			eliteGenomes[i] = e.Genome().Clone()
		}
		pop.Step()

		if pop.Generation() != gen {
			t.Fatalf("generation = %d, want %d", pop.Generation(), gen)
		}
		if pop.Size() != 30 {
			t.Fatalf("size = %d, want 30", pop.Size())
		}
		assertSorted(t, pop)

		current := pop.Chromosomes()
		last := -1
		for i, e := range elites {
			idx := slices.Index(current, e)
			if idx < 0 {
				t.Fatalf("generation %d: elite chromosome was dropped", gen)
			}
			if idx <= last {
				t.Fatalf("generation %d: elite %d moved ahead of its predecessor", gen, i)
			}
			last = idx
			if e.CachedFitness() != eliteFitness[i] {
				t.Fatalf("generation %d: elite %d fitness %v, was %v", gen, i, e.CachedFitness(), eliteFitness[i])
			}
			if !e.Genome().Equal(eliteGenomes[i]) {
				t.Fatalf("generation %d: elite %d genome changed", gen, i)
			}
		}

		best := pop.Best().CachedFitness()
		if best > prevBest {
			t.Fatalf("generation %d: best fitness rose from %v to %v", gen, prevBest, best)
		}
		prevBest = best
	}
}

func TestStepImprovesFitness(t *testing.T) {
	p := testParams()
	p.MutationChance = 0.1
	pop, err := New(testBundle(), p)
	if err != nil {
		t.Fatal(err)
	}

	initial := pop.Best().CachedFitness()
	for i := 0; i < 150; i++ {
		pop.Step()
	}
	final := pop.Best().CachedFitness()
	t.Logf("best fitness %v -> %v", initial, final)
	if final >= initial {
		t.Errorf("best fitness did not improve: %v -> %v", initial, final)
	}
}

func TestStepDeterministic(t *testing.T) {
	run := func(workers int) []genome.Genome {
		p := testParams()
		p.Workers = workers
		pop, err := New(testBundle(), p)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 10; i++ {
			pop.Step()
		}
		return pop.Genomes()
	}

	a, b := run(4), run(4)
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("chromosome %d differs between identical runs", i)
		}
	}
}

func TestZeroMutationKeepsGeneValues(t *testing.T) {
	p := testParams()
	p.MutationChance = 0
	pop, err := New(testBundle(), p)
	if err != nil {
		t.Fatal(err)
	}

	pool := make(map[genome.Gene]bool)
	for _, g := range pop.Genomes() {
		for _, gene := range g {
			pool[gene] = true
		}
	}
	for i := 0; i < 10; i++ {
		pop.Step()
	}
	for _, g := range pop.Genomes() {
		for tile, gene := range g {
			if !pool[gene] {
				t.Fatalf("tile %d gene %+v did not come from the initial population", tile, gene)
			}
		}
	}
}

func TestRestore(t *testing.T) {
	b := testBundle()
	pop, err := New(b, testParams())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		pop.Step()
	}

	restored, err := Restore(b, testParams(), pop.Genomes(), pop.Generation())
	if err != nil {
		t.Fatal(err)
	}
	if restored.Generation() != 5 {
		t.Errorf("generation = %d, want 5", restored.Generation())
	}
	if !slices.Equal(restored.Fitness(), pop.Fitness()) {
		t.Error("restored fitness differs from original")
	}

	pop.Step()
	restored.Step()
	if !slices.Equal(restored.Fitness(), pop.Fitness()) {
		t.Error("restored population diverged on the next step")
	}
}

func TestRestoreRejects(t *testing.T) {
	b := testBundle()
	pop, err := New(b, testParams())
	if err != nil {
		t.Fatal(err)
	}

	genomes := pop.Genomes()
	if _, err := Restore(b, testParams(), genomes[:10], 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("short snapshot: got %v, want ErrInvalidConfiguration", err)
	}

	bad := pop.Genomes()
	bad[3][0].Glyph = b.GlyphCount()
	if _, err := Restore(b, testParams(), bad, 0); !errors.Is(err, ErrInvalidGenome) {
		t.Errorf("out-of-range gene: got %v, want ErrInvalidGenome", err)
	}

	short := pop.Genomes()
	short[0] = short[0][:5]
	if _, err := Restore(b, testParams(), short, 0); !errors.Is(err, ErrInvalidGenome) {
		t.Errorf("short genome: got %v, want ErrInvalidGenome", err)
	}
}

func TestTopClamps(t *testing.T) {
	pop, err := New(testBundle(), testParams())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(pop.Top(-1)); got != 0 {
		t.Errorf("Top(-1) returned %d", got)
	}
	if got := len(pop.Top(100)); got != 30 {
		t.Errorf("Top(100) returned %d, want 30", got)
	}
	if pop.Top(3)[0] != pop.Best() {
		t.Error("Top(3)[0] should be the best chromosome")
	}
}

func TestSetMutationChance(t *testing.T) {
	pop, err := New(testBundle(), testParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := pop.SetMutationChance(1.1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("SetMutationChance(1.1) = %v", err)
	}
	if err := pop.SetMutationChance(0.3); err != nil {
		t.Fatal(err)
	}
	pop.Step()
	for _, c := range pop.Chromosomes() {
		if c.MutationChance() != 0.3 {
			t.Fatalf("chromosome mutation chance = %v, want 0.3", c.MutationChance())
		}
	}
}

func TestDiversity(t *testing.T) {
	b := testBundle()
	g := make(genome.Genome, 16)
	p := testParams()
	p.Size, p.Elite = 4, 1

	same := []genome.Genome{g.Clone(), g.Clone(), g.Clone(), g.Clone()}
	pop, err := Restore(b, p, same, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d := pop.Diversity(); d != 0 {
		t.Errorf("identical population diversity = %v, want 0", d)
	}

	fresh, err := New(b, testParams())
	if err != nil {
		t.Fatal(err)
	}
	if d := fresh.Diversity(); d <= 0.5 || d > 1 {
		t.Errorf("random population diversity = %v, want in (0.5, 1]", d)
	}
}

type recordingTimer struct{ phases []string }

func (r *recordingTimer) StartPhase(phase string) { r.phases = append(r.phases, phase) }

func TestPhaseTimer(t *testing.T) {
	pop, err := New(testBundle(), testParams())
	if err != nil {
		t.Fatal(err)
	}
	timer := &recordingTimer{}
	pop.SetPhaseTimer(timer)
	pop.Step()

	want := []string{PhaseSelection, PhaseOffspring, PhaseEvaluation, PhaseSort}
	if !slices.Equal(timer.phases, want) {
		t.Errorf("phases = %v, want %v", timer.phases, want)
	}
}

func TestParamsFromConfig(t *testing.T) {
	cfg := config.Default()
	p, err := ParamsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.Size != 100 || p.Elite != 20 || p.MutationChance != 0.01 {
		t.Errorf("unexpected params: %+v", p)
	}
	if p.Mutator != genome.DefaultMutator() {
		t.Errorf("mutator = %+v, want defaults", p.Mutator)
	}

	cfg.Crossover.Strategy = "bogus"
	if _, err := ParamsFromConfig(cfg); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("bogus strategy: got %v", err)
	}
}

func TestMutationsCounted(t *testing.T) {
	p := testParams()
	p.MutationChance = 1
	pop, err := New(testBundle(), p)
	if err != nil {
		t.Fatal(err)
	}
	pop.Step()

	// p=1 fires all three trials on every gene of every child.
	want := (p.Size - p.Elite) * 16 * 3
	if pop.Mutations() != want {
		t.Errorf("mutations = %d, want %d", pop.Mutations(), want)
	}

	if err := pop.SetMutationChance(0); err != nil {
		t.Fatal(err)
	}
	pop.Step()
	if pop.Mutations() != 0 {
		t.Errorf("mutations = %d with p=0", pop.Mutations())
	}
}
