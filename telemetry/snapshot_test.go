package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/evolution"
	"github.com/pthm-cable/glyphs/genome"
	"github.com/pthm-cable/glyphs/raster"
)

func snapshotBundle() *assets.Bundle {
	return assets.NewBundle(raster.New(16, 8), []assets.Glyph{0, 0xff, 1}, []assets.Color{{}, {R: 255, G: 255, B: 255}})
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:        SnapshotVersion,
		Seed:           42,
		CanvasWidth:    16,
		CanvasHeight:   8,
		GlyphCount:     3,
		ColorCount:     2,
		Generation:     1000,
		MutationChance: 0.02,
		BestFitness:    1234,
		Genomes: []genome.Genome{
			{{Glyph: 0, FG: 1, BG: 0}, {Glyph: 2, FG: 0, BG: 1}},
			{{Glyph: 1, FG: 1, BG: 1}, {Glyph: 0, FG: 0, BG: 0}},
		},
		Milestone: &Milestone{Type: MilestoneStagnation, Generation: 1000, Description: "Test milestone"},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_1000_stagnation.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Seed != 42 || loaded.Generation != 1000 || loaded.MutationChance != 0.02 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Genomes) != 2 || !loaded.Genomes[1].Equal(snapshot.Genomes[1]) {
		t.Errorf("genomes mismatch: %+v", loaded.Genomes)
	}
	if loaded.Milestone == nil || loaded.Milestone.Type != MilestoneStagnation {
		t.Error("milestone not preserved")
	}
	if err := loaded.CheckAssets(snapshotBundle()); err != nil {
		t.Errorf("CheckAssets: %v", err)
	}
}

func TestSnapshotRejects(t *testing.T) {
	tmpDir := t.TempDir()

	s := &Snapshot{Version: SnapshotVersion, CanvasWidth: 8, CanvasHeight: 8, GlyphCount: 3, ColorCount: 2}
	if err := s.CheckAssets(snapshotBundle()); !errors.Is(err, ErrSnapshotMismatch) {
		t.Errorf("canvas mismatch: got %v", err)
	}

	s = &Snapshot{Version: SnapshotVersion, CanvasWidth: 16, CanvasHeight: 8, GlyphCount: 4, ColorCount: 2}
	if err := s.CheckAssets(snapshotBundle()); !errors.Is(err, ErrSnapshotMismatch) {
		t.Errorf("glyph count mismatch: got %v", err)
	}

	old := filepath.Join(tmpDir, "old.json")
	if err := os.WriteFile(old, []byte(`{"version": 0}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(old); err == nil {
		t.Error("expected version error")
	}

	if _, err := LoadSnapshot(filepath.Join(tmpDir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestSnapshotResumesPopulation(t *testing.T) {
	bundle := snapshotBundle()
	params := evolution.Params{Size: 6, Elite: 1, Workers: 2, Seed: 9, MutationChance: 0.2, Mutator: genome.DefaultMutator()}

	pop, err := evolution.New(bundle, params)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		pop.Step()
	}

	path, err := SaveSnapshot(&Snapshot{
		Version:      SnapshotVersion,
		Seed:         params.Seed,
		CanvasWidth:  16,
		CanvasHeight: 8,
		GlyphCount:   bundle.GlyphCount(),
		ColorCount:   bundle.ColorCount(),
		Generation:   pop.Generation(),
		Genomes:      pop.Genomes(),
	}, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := evolution.Restore(bundle, params, loaded.Genomes, loaded.Generation)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Generation() != 4 || restored.Best().CachedFitness() != pop.Best().CachedFitness() {
		t.Errorf("restored gen=%d best=%v, want gen=4 best=%v",
			restored.Generation(), restored.Best().CachedFitness(), pop.Best().CachedFitness())
	}
}
