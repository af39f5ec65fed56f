package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/glyphs/evolution"
)

// Phase names for one generation. The engine phases come from evolution;
// the presenter phases are recorded by the session.
const (
	PhaseSelection  = evolution.PhaseSelection
	PhaseOffspring  = evolution.PhaseOffspring
	PhaseEvaluation = evolution.PhaseEvaluation
	PhaseSort       = evolution.PhaseSort
	PhaseTelemetry  = "telemetry"
	PhaseExport     = "export"
)

var phaseOrder = []string{
	PhaseSelection, PhaseOffspring, PhaseEvaluation,
	PhaseSort, PhaseTelemetry, PhaseExport,
}

// PerfSample holds timing data for a single generation.
type PerfSample struct {
	Duration time.Duration
	Phases   map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of generations.
// It implements evolution.PhaseTimer.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	genStart      time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of generations to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartGeneration begins timing a new generation.
func (p *PerfCollector) StartGeneration() {
	p.genStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndGeneration finishes timing the current generation and records the sample.
func (p *PerfCollector) EndGeneration() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		Duration: now.Sub(p.genStart),
		Phases:   p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Generation timing
	AvgGeneration time.Duration
	MinGeneration time.Duration
	MaxGeneration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total generation time
	PhasePct map[string]float64

	// Throughput
	GensPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	// Frame timing is always available (independent of generation samples)
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var totalGen time.Duration
	var minGen, maxGen time.Duration
	phaseSum := make(map[string]time.Duration)

	// Iterate over valid samples
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalGen += s.Duration

		if i == 0 || s.Duration < minGen {
			minGen = s.Duration
		}
		if s.Duration > maxGen {
			maxGen = s.Duration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgGen := totalGen / time.Duration(p.sampleCount)

	// Calculate phase averages and percentages
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgGen > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgGen) * 100
		}
	}

	// Calculate throughput
	var gensPerSec float64
	if avgGen > 0 {
		gensPerSec = float64(time.Second) / float64(avgGen)
	}

	return PerfStats{
		AvgGeneration: avgGen,
		MinGeneration: minGen,
		MaxGeneration: maxGen,
		PhaseAvg:      phaseAvg,
		PhasePct:      phasePct,
		GensPerSecond: gensPerSec,
		FrameDuration: p.frameDuration,
		FPS:           fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_gen_us", s.AvgGeneration.Microseconds(),
		"min_gen_us", s.MinGeneration.Microseconds(),
		"max_gen_us", s.MaxGeneration.Microseconds(),
		"gens_per_sec", int(s.GensPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_gen_us", s.AvgGeneration.Microseconds()),
		slog.Int64("min_gen_us", s.MinGeneration.Microseconds()),
		slog.Int64("max_gen_us", s.MaxGeneration.Microseconds()),
		slog.Float64("gens_per_sec", s.GensPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Generation    int     `csv:"generation"`
	AvgGenUS      int64   `csv:"avg_gen_us"`
	MinGenUS      int64   `csv:"min_gen_us"`
	MaxGenUS      int64   `csv:"max_gen_us"`
	GensPerSec    float64 `csv:"gens_per_sec"`
	FPS           float64 `csv:"fps"`
	SelectionPct  float64 `csv:"selection_pct"`
	OffspringPct  float64 `csv:"offspring_pct"`
	EvaluationPct float64 `csv:"evaluation_pct"`
	SortPct       float64 `csv:"sort_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
	ExportPct     float64 `csv:"export_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(generation int) PerfStatsCSV {
	return PerfStatsCSV{
		Generation:    generation,
		AvgGenUS:      s.AvgGeneration.Microseconds(),
		MinGenUS:      s.MinGeneration.Microseconds(),
		MaxGenUS:      s.MaxGeneration.Microseconds(),
		GensPerSec:    s.GensPerSecond,
		FPS:           s.FPS,
		SelectionPct:  s.PhasePct[PhaseSelection],
		OffspringPct:  s.PhasePct[PhaseOffspring],
		EvaluationPct: s.PhasePct[PhaseEvaluation],
		SortPct:       s.PhasePct[PhaseSort],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
		ExportPct:     s.PhasePct[PhaseExport],
	}
}
