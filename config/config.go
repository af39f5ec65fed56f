// Package config provides configuration loading and validation for a run.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// TileSize is the edge length of one glyph tile in pixels.
const TileSize = 8

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds all run configuration parameters.
type Config struct {
	Canvas     CanvasConfig     `yaml:"canvas"`
	Assets     AssetsConfig     `yaml:"assets"`
	Population PopulationConfig `yaml:"population"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Crossover  CrossoverConfig  `yaml:"crossover"`
	Export     ExportConfig     `yaml:"export"`
	Preview    PreviewConfig    `yaml:"preview"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Milestones MilestonesConfig `yaml:"milestones"`
	Tune       TuneConfig       `yaml:"tune"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// CanvasConfig holds the rendered image dimensions. Both must be multiples of TileSize.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AssetsConfig locates the target image, glyph atlas and palette.
type AssetsConfig struct {
	TargetPath     string   `yaml:"target_path"`
	AtlasPath      string   `yaml:"atlas_path"`      // Grayscale atlas sliced into 8x8 tiles (empty = built-in)
	GlyphThreshold uint8    `yaml:"glyph_threshold"` // Bit set when atlas intensity > this
	Palette        []string `yaml:"palette"`         // Hex colors, e.g. "#6c6c6c"
}

// PopulationConfig holds engine sizing parameters.
type PopulationConfig struct {
	Size          int     `yaml:"size"`
	Elite         int     `yaml:"elite"`          // Elite count (0 = use EliteFraction)
	EliteFraction float64 `yaml:"elite_fraction"` // Elite count as a fraction of Size
	Workers       int     `yaml:"workers"`        // Offspring pool size (0 = GOMAXPROCS)
	Seed          int64   `yaml:"seed"`           // Base RNG seed (0 = time-based)
}

// MutationConfig holds per-gene mutation parameters.
type MutationConfig struct {
	Chance     float64 `yaml:"chance"`      // Bernoulli probability per gene field
	GlyphSigma float64 `yaml:"glyph_sigma"` // Std dev of glyph index delta
	GlyphClamp int     `yaml:"glyph_clamp"` // Max |delta| for glyph index
	ColorSigma float64 `yaml:"color_sigma"` // Std dev of color index delta
	ColorClamp int     `yaml:"color_clamp"` // Max |delta| for color index
}

// CrossoverConfig selects the crossover operator.
type CrossoverConfig struct {
	Strategy string `yaml:"strategy"` // uniform | single_point
}

// ExportConfig controls saved images.
type ExportConfig struct {
	Dir         string  `yaml:"dir"`          // Manual "save best" images
	FrameDir    string  `yaml:"frame_dir"`    // Periodic frames
	InitialGoal int     `yaml:"initial_goal"` // Generations before the first frame
	Growth      float64 `yaml:"growth"`       // Goal multiplier after each frame
}

// PreviewConfig controls the interactive presenters.
type PreviewConfig struct {
	TargetFPS            int `yaml:"target_fps"`
	GenerationsPerUpdate int `yaml:"generations_per_update"`
	TopK                 int `yaml:"top_k"`
	PreviewSize          int `yaml:"preview_size"`
}

// TelemetryConfig controls logging and CSV output.
type TelemetryConfig struct {
	OutputDir  string `yaml:"output_dir"`  // CSV/JSON output (empty = disabled)
	LogEvery   int    `yaml:"log_every"`   // Generations between stats log lines
	PerfWindow int    `yaml:"perf_window"` // Generations averaged in perf stats
}

// MilestonesConfig controls breakthrough/stagnation detection.
type MilestonesConfig struct {
	History               int     `yaml:"history"`
	BreakthroughRatio     float64 `yaml:"breakthrough_ratio"`
	StagnationGenerations int     `yaml:"stagnation_generations"`
}

// TuneConfig controls the parameter tuner.
type TuneConfig struct {
	Generations    int `yaml:"generations"`
	Seeds          int `yaml:"seeds"`
	MaxEvals       int `yaml:"max_evals"`
	PopulationSize int `yaml:"population_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridWidth  int // Canvas.Width / TileSize
	GridHeight int // Canvas.Height / TileSize
	Tiles      int // GridWidth * GridHeight
	EliteCount int // Population.Elite, or Size*EliteFraction when Elite is 0
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Refresh validates the config and recomputes derived values.
// Call it after changing fields programmatically.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate checks ranges that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("%w: canvas %dx%d must be positive", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	case c.Canvas.Width%TileSize != 0 || c.Canvas.Height%TileSize != 0:
		return fmt.Errorf("%w: canvas %dx%d must be a multiple of %d", ErrInvalid, c.Canvas.Width, c.Canvas.Height, TileSize)
	case len(c.Assets.Palette) == 0:
		return fmt.Errorf("%w: palette is empty", ErrInvalid)
	case c.Population.Size < 1:
		return fmt.Errorf("%w: population size %d", ErrInvalid, c.Population.Size)
	case c.Population.Elite < 0:
		return fmt.Errorf("%w: elite %d is negative", ErrInvalid, c.Population.Elite)
	case c.Population.EliteFraction < 0 || c.Population.EliteFraction >= 1:
		return fmt.Errorf("%w: elite_fraction %v outside [0,1)", ErrInvalid, c.Population.EliteFraction)
	case c.Population.Workers < 0:
		return fmt.Errorf("%w: workers %d is negative", ErrInvalid, c.Population.Workers)
	case c.Mutation.Chance < 0 || c.Mutation.Chance > 1 || math.IsNaN(c.Mutation.Chance):
		return fmt.Errorf("%w: mutation chance %v outside [0,1]", ErrInvalid, c.Mutation.Chance)
	case c.Mutation.GlyphSigma < 0 || c.Mutation.ColorSigma < 0:
		return fmt.Errorf("%w: mutation sigma must be non-negative", ErrInvalid)
	case c.Mutation.GlyphClamp < 0 || c.Mutation.ColorClamp < 0:
		return fmt.Errorf("%w: mutation clamp must be non-negative", ErrInvalid)
	case c.Crossover.Strategy != "uniform" && c.Crossover.Strategy != "single_point":
		return fmt.Errorf("%w: unknown crossover strategy %q", ErrInvalid, c.Crossover.Strategy)
	case c.Export.InitialGoal < 1 || c.Export.Growth < 1:
		return fmt.Errorf("%w: export goal %d / growth %v", ErrInvalid, c.Export.InitialGoal, c.Export.Growth)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.GridWidth = c.Canvas.Width / TileSize
	c.Derived.GridHeight = c.Canvas.Height / TileSize
	c.Derived.Tiles = c.Derived.GridWidth * c.Derived.GridHeight

	c.Derived.EliteCount = c.Population.Elite
	if c.Derived.EliteCount == 0 {
		// Epsilon keeps exact products such as 100*0.29 from truncating down.
		c.Derived.EliteCount = int(math.Floor(float64(c.Population.Size)*c.Population.EliteFraction + 1e-9))
	}

	if c.Preview.GenerationsPerUpdate < 1 {
		c.Preview.GenerationsPerUpdate = 1
	}
	if c.Preview.TopK < 1 {
		c.Preview.TopK = 1
	}
	if c.Telemetry.LogEvery < 1 {
		c.Telemetry.LogEvery = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Assets.Palette = append([]string(nil), c.Assets.Palette...)
	return &out
}
