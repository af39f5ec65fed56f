package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/glyphs/config"
)

// MilestoneType identifies the kind of milestone.
type MilestoneType string

const (
	MilestoneBreakthrough MilestoneType = "breakthrough"
	MilestoneStagnation   MilestoneType = "stagnation"
	MilestoneConverged    MilestoneType = "converged"
	MilestonePerfect      MilestoneType = "perfect"
)

// convergedDiversity is the diversity below which the population counts as converged.
const convergedDiversity = 0.01

// Milestone is an automatically detected event in a run.
type Milestone struct {
	Type        MilestoneType `csv:"type" json:"type"`
	Generation  int           `csv:"generation" json:"generation"`
	Best        float64       `csv:"best" json:"best"`
	Description string        `csv:"description" json:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"gen", m.Generation,
		"best", m.Best,
		"description", m.Description,
	)
}

// MilestoneDetector watches generation stats for breakthroughs and plateaus.
type MilestoneDetector struct {
	// Rolling history of relative improvements (circular buffer)
	history     []float64
	historySize int
	historyIdx  int
	historyFull bool

	breakthroughRatio     float64
	stagnationGenerations int

	prevBest        float64
	bestSeen        float64
	lastImprovement int
	started         bool
	stagnant        bool // reported for the current plateau
	converged       bool
	perfect         bool
}

// NewMilestoneDetector creates a detector from the milestones config.
func NewMilestoneDetector(cfg config.MilestonesConfig) *MilestoneDetector {
	size := cfg.History
	if size < 5 {
		size = 5
	}
	return &MilestoneDetector{
		history:               make([]float64, size),
		historySize:           size,
		breakthroughRatio:     cfg.BreakthroughRatio,
		stagnationGenerations: cfg.StagnationGenerations,
		bestSeen:              math.Inf(1),
	}
}

// Check analyzes the latest stats and returns any triggered milestones.
func (md *MilestoneDetector) Check(stats GenerationStats) []Milestone {
	if !md.started {
		md.started = true
		md.prevBest = stats.Best
		md.bestSeen = stats.Best
		md.lastImprovement = stats.Generation
		return md.checkTerminal(stats, nil)
	}

	var milestones []Milestone

	var improvement float64
	if md.prevBest > 0 {
		improvement = (md.prevBest - stats.Best) / md.prevBest
	}

	if m := md.checkBreakthrough(stats, improvement); m != nil {
		milestones = append(milestones, *m)
	}
	if m := md.checkStagnation(stats); m != nil {
		milestones = append(milestones, *m)
	}
	milestones = md.checkTerminal(stats, milestones)

	md.addToHistory(improvement)
	md.prevBest = stats.Best
	return milestones
}

func (md *MilestoneDetector) addToHistory(improvement float64) {
	md.history[md.historyIdx] = improvement
	md.historyIdx = (md.historyIdx + 1) % md.historySize
	if md.historyIdx == 0 {
		md.historyFull = true
	}
}

func (md *MilestoneDetector) getHistory() []float64 {
	if md.historyFull {
		return md.history
	}
	return md.history[:md.historyIdx]
}

// checkBreakthrough fires when one generation improves the best fitness by more
// than the configured ratio and by more than twice the rolling average.
func (md *MilestoneDetector) checkBreakthrough(stats GenerationStats, improvement float64) *Milestone {
	history := md.getHistory()
	if len(history) < 3 || md.breakthroughRatio <= 0 {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += h
	}
	avg := sum / float64(len(history))

	if improvement > md.breakthroughRatio && improvement > 2*avg {
		return &Milestone{
			Type:        MilestoneBreakthrough,
			Generation:  stats.Generation,
			Best:        stats.Best,
			Description: fmt.Sprintf("Best fitness improved %.1f%% in one generation (average %.2f%%)", improvement*100, avg*100),
		}
	}
	return nil
}

func (md *MilestoneDetector) checkStagnation(stats GenerationStats) *Milestone {
	if stats.Best < md.bestSeen {
		md.bestSeen = stats.Best
		md.lastImprovement = stats.Generation
		md.stagnant = false
		return nil
	}
	if md.stagnant || md.stagnationGenerations <= 0 {
		return nil
	}

	if flat := stats.Generation - md.lastImprovement; flat >= md.stagnationGenerations {
		md.stagnant = true
		return &Milestone{
			Type:        MilestoneStagnation,
			Generation:  stats.Generation,
			Best:        stats.Best,
			Description: fmt.Sprintf("No improvement for %d generations", flat),
		}
	}
	return nil
}

// checkTerminal reports convergence and a perfect match, each at most once.
func (md *MilestoneDetector) checkTerminal(stats GenerationStats, milestones []Milestone) []Milestone {
	if !md.converged && stats.Diversity < convergedDiversity {
		md.converged = true
		milestones = append(milestones, Milestone{
			Type:        MilestoneConverged,
			Generation:  stats.Generation,
			Best:        stats.Best,
			Description: fmt.Sprintf("Population diversity fell to %.4f", stats.Diversity),
		})
	}
	if !md.perfect && stats.Best == 0 {
		md.perfect = true
		milestones = append(milestones, Milestone{
			Type:        MilestonePerfect,
			Generation:  stats.Generation,
			Description: "Best chromosome matches the target exactly",
		})
	}
	return milestones
}
