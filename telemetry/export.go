package telemetry

import (
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/raster"
)

// Exporter writes rendered chromosomes as PNG files.
type Exporter struct {
	dir      string
	frameDir string
}

// NewExporter creates an exporter for the configured directories.
// Directories are created lazily on first write.
func NewExporter(cfg config.ExportConfig) *Exporter {
	return &Exporter{dir: cfg.Dir, frameDir: cfg.FrameDir}
}

// BestFileName names a manually saved image, e.g. g120d20260101t093000f51234.png.
func BestFileName(generation int, at time.Time, fitness float64) string {
	return fmt.Sprintf("g%dd%sf%.0f.png", generation, at.Format("20060102t150405"), math.Round(fitness))
}

// FrameFileName names a periodic frame.
func FrameFileName(generation int) string {
	return fmt.Sprintf("frame_%d.png", generation)
}

// SaveBest writes img into the export directory. Returns the written path.
func (e *Exporter) SaveBest(img raster.Image, generation int, fitness float64, at time.Time) (string, error) {
	path := filepath.Join(e.dir, BestFileName(generation, at, fitness))
	if err := WritePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// SaveFrame writes img into the frame directory. Returns the written path.
func (e *Exporter) SaveFrame(img raster.Image, generation int) (string, error) {
	path := filepath.Join(e.frameDir, FrameFileName(generation))
	if err := WritePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// WritePNG encodes img to path, creating the parent directory.
func WritePNG(path string, img raster.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img.RGBA()); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
