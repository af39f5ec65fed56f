package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/glyphs/genome"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotMismatch is returned when a snapshot was taken against different assets.
var ErrSnapshotMismatch = errors.New("telemetry: snapshot does not match current assets")

// Snapshot holds a population's complete state for resuming a run.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`

	CanvasWidth  int `json:"canvas_width"`
	CanvasHeight int `json:"canvas_height"`
	GlyphCount   int `json:"glyph_count"`
	ColorCount   int `json:"color_count"`

	Generation     int     `json:"generation"`
	MutationChance float64 `json:"mutation_chance"`
	BestFitness    float64 `json:"best_fitness"`

	// Genomes in fitness order, best first.
	Genomes []genome.Genome `json:"genomes"`

	Milestone *Milestone `json:"milestone,omitempty"`
}

// CheckAssets verifies the snapshot was taken against assets of the same shape.
func (s *Snapshot) CheckAssets(a genome.Assets) error {
	t := a.Target()
	if s.CanvasWidth != t.Width || s.CanvasHeight != t.Height {
		return fmt.Errorf("%w: canvas %dx%d, snapshot %dx%d", ErrSnapshotMismatch, t.Width, t.Height, s.CanvasWidth, s.CanvasHeight)
	}
	if s.GlyphCount != a.GlyphCount() || s.ColorCount != a.ColorCount() {
		return fmt.Errorf("%w: %d glyphs/%d colors, snapshot %d/%d", ErrSnapshotMismatch,
			a.GlyphCount(), a.ColorCount(), s.GlyphCount, s.ColorCount)
	}
	return nil
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Generation)
	if snapshot.Milestone != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Milestone.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Generation, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
