// Package session drives a run: it owns the population, its telemetry and
// the export schedule, and advances one generation per Step.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/evolution"
	"github.com/pthm-cable/glyphs/telemetry"
)

// maxHistory bounds the best-fitness series kept for presenters.
const maxHistory = 512

// Options holds run settings that are not part of the config file.
type Options struct {
	Resume   string           // Snapshot to resume from (empty = fresh population)
	LogStats bool             // Emit the per-window stats line via slog
	Clock    func() time.Time // Defaults to time.Now
}

// Session holds the complete run state.
type Session struct {
	cfg    *config.Config
	bundle *assets.Bundle
	pop    *evolution.Population
	seed   uint64
	clock  func() time.Time

	// Telemetry
	perf       *telemetry.PerfCollector
	collector  *telemetry.Collector
	milestones *telemetry.MilestoneDetector
	output     *telemetry.OutputManager
	exporter   *telemetry.Exporter
	schedule   ExportSchedule
	logStats   bool

	startGen  int
	lastStats telemetry.GenerationStats
	history   []float64
	closed    bool
}

// New builds a session from a validated config and loaded assets.
// A zero seed in cfg is replaced by a time-based one. The seed and mutation
// chance actually used (including those taken from a resumed snapshot) are
// written back so the persisted config records them.
func New(cfg *config.Config, bundle *assets.Bundle, opts Options) (*Session, error) {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if cfg.Population.Seed == 0 {
		cfg.Population.Seed = clock().UnixNano()
	}

	params, err := evolution.ParamsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var pop *evolution.Population
	if opts.Resume != "" {
		pop, err = restore(bundle, params, opts.Resume)
	} else {
		pop, err = evolution.New(bundle, params)
	}
	if err != nil {
		return nil, err
	}
	cfg.Population.Seed = int64(pop.Params().Seed)
	cfg.Mutation.Chance = pop.MutationChance()

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	s := &Session{
		cfg:        cfg,
		bundle:     bundle,
		pop:        pop,
		seed:       pop.Params().Seed,
		clock:      clock,
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:  telemetry.NewCollector(cfg.Telemetry.LogEvery, pop.Generation(), clock()),
		milestones: telemetry.NewMilestoneDetector(cfg.Milestones),
		output:     output,
		exporter:   telemetry.NewExporter(cfg.Export),
		schedule:   NewExportSchedule(cfg.Export.InitialGoal, cfg.Export.Growth),
		logStats:   opts.LogStats,
		startGen:   pop.Generation(),
	}
	if cfg.Export.FrameDir == "" {
		s.schedule = NewExportSchedule(0, 1)
	}
	pop.SetPhaseTimer(s.perf)

	slog.Info("session started",
		"seed", s.seed,
		"population", pop.Size(),
		"elite", pop.Elite(),
		"tiles", cfg.Derived.Tiles,
		"glyphs", bundle.GlyphCount(),
		"colors", bundle.ColorCount(),
		"generation", pop.Generation(),
		"best", pop.Best().CachedFitness(),
	)
	return s, nil
}

// restore rebuilds the population from a snapshot, keeping its seed and
// mutation chance so the run continues where it stopped.
func restore(bundle *assets.Bundle, params evolution.Params, path string) (*evolution.Population, error) {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if err := snap.CheckAssets(bundle); err != nil {
		return nil, err
	}
	params.Seed = snap.Seed
	params.MutationChance = snap.MutationChance
	pop, err := evolution.Restore(bundle, params, snap.Genomes, snap.Generation)
	if err != nil {
		return nil, fmt.Errorf("restoring %s: %w", path, err)
	}
	slog.Info("resumed from snapshot", "path", path, "generation", snap.Generation)
	return pop, nil
}

// Step advances the population one generation and handles telemetry and
// periodic frame export.
func (s *Session) Step() {
	s.perf.StartGeneration()
	s.pop.Step()

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.collector.RecordMutations(s.pop.Mutations())
	if s.collector.ShouldFlush(s.pop.Generation()) {
		s.flushTelemetry()
	}

	s.perf.StartPhase(telemetry.PhaseExport)
	if s.schedule.Tick() {
		s.saveFrame()
	}
	s.perf.EndGeneration()
}

// StepN runs n generations.
func (s *Session) StepN(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

func (s *Session) flushTelemetry() {
	stats := s.collector.Flush(s.pop.Generation(), s.pop.Fitness(), s.pop.Diversity(), s.pop.MutationChance(), s.clock())
	s.lastStats = stats
	s.history = append(s.history, stats.Best)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}

	if s.logStats {
		stats.LogStats()
	}

	if err := s.output.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation stats", "error", err)
	}
	if err := s.output.WritePerf(s.perf.Stats(), stats.Generation); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, m := range s.milestones.Check(stats) {
		if s.logStats {
			m.LogMilestone()
		}
		if err := s.output.WriteMilestone(m); err != nil {
			slog.Error("failed to write milestone", "error", err)
		}
		s.saveSnapshot(&m)
	}
}

func (s *Session) saveFrame() {
	best := s.pop.Best()
	path, err := s.exporter.SaveFrame(best.Image(s.bundle), s.pop.Generation())
	if err != nil {
		slog.Error("failed to save frame", "error", err)
		return
	}
	slog.Info("saved frame", "path", path, "next_in", s.schedule.Goal())
}

// SaveBest writes the best chromosome to the export directory.
func (s *Session) SaveBest() (string, error) {
	best := s.pop.Best()
	path, err := s.exporter.SaveBest(best.Image(s.bundle), s.pop.Generation(), best.CachedFitness(), s.clock())
	if err != nil {
		return "", err
	}
	slog.Info("saved best chromosome", "path", path)
	return path, nil
}

// Snapshot captures the population for later resumption.
func (s *Session) Snapshot() *telemetry.Snapshot {
	t := s.bundle.Target()
	return &telemetry.Snapshot{
		Version:        telemetry.SnapshotVersion,
		Seed:           s.seed,
		CanvasWidth:    t.Width,
		CanvasHeight:   t.Height,
		GlyphCount:     s.bundle.GlyphCount(),
		ColorCount:     s.bundle.ColorCount(),
		Generation:     s.pop.Generation(),
		MutationChance: s.pop.MutationChance(),
		BestFitness:    s.pop.Best().CachedFitness(),
		Genomes:        s.pop.Genomes(),
	}
}

// saveSnapshot is a no-op when the session has no output directory.
func (s *Session) saveSnapshot(m *telemetry.Milestone) {
	if s.output == nil {
		return
	}
	snap := s.Snapshot()
	snap.Milestone = m
	path, err := s.output.WriteSnapshot(snap)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("saved snapshot", "path", path)
}

// SetMutationChance changes the mutation chance for subsequent generations.
func (s *Session) SetMutationChance(p float64) error {
	if err := s.pop.SetMutationChance(p); err != nil {
		return err
	}
	slog.Info("mutation chance changed", "chance", p, "generation", s.pop.Generation())
	return nil
}

// Summary holds the end-of-run totals.
type Summary struct {
	Elapsed     time.Duration
	Generations int
	GensPerSec  float64
	BestFitness float64
}

// Summary returns totals for the generations run in this session.
func (s *Session) Summary() Summary {
	elapsed := s.collector.Elapsed(s.clock())
	gens := s.pop.Generation() - s.startGen
	var rate float64
	if elapsed > 0 {
		rate = float64(gens) / elapsed.Seconds()
	}
	return Summary{
		Elapsed:     elapsed,
		Generations: gens,
		GensPerSec:  rate,
		BestFitness: s.pop.Best().CachedFitness(),
	}
}

// Close writes a final snapshot, logs the run summary and closes output files.
// It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.saveSnapshot(nil)

	sum := s.Summary()
	slog.Info("run finished",
		"total_time", sum.Elapsed.Round(time.Millisecond).String(),
		"generations", sum.Generations,
		"avg_gens_per_sec", sum.GensPerSec,
		"best", sum.BestFitness,
	)
	return s.output.Close()
}

// Population returns the engine.
func (s *Session) Population() *evolution.Population { return s.pop }

// Bundle returns the loaded assets.
func (s *Session) Bundle() *assets.Bundle { return s.bundle }

// Config returns the run configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Generation returns the current generation.
func (s *Session) Generation() int { return s.pop.Generation() }

// Seed returns the base seed of the run.
func (s *Session) Seed() uint64 { return s.seed }

// LastStats returns the most recently flushed generation stats.
func (s *Session) LastStats() telemetry.GenerationStats { return s.lastStats }

// BestHistory returns the best fitness of recent stats windows, oldest first.
func (s *Session) BestHistory() []float64 { return s.history }

// Perf returns the current performance stats.
func (s *Session) Perf() telemetry.PerfStats { return s.perf.Stats() }

// RecordFrame records presenter frame timing.
func (s *Session) RecordFrame() { s.perf.RecordFrame() }
