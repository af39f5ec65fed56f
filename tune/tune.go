package tune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/genome"
)

// Output file names written by Run.
const (
	LogFile        = "tune_log.csv"
	BestConfigFile = "best_config.yaml"
)

// ErrNoOutput is returned when Run is called without an output directory.
var ErrNoOutput = errors.New("tune: output directory is required")

// Record is one row of the tuning log.
type Record struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	MutationChance float64 `csv:"mutation_chance"`
	EliteFraction  float64 `csv:"elite_fraction"`
	Spread         float64 `csv:"spread"`
	ElapsedSec     float64 `csv:"elapsed_sec"`
}

// Result summarises a finished search.
type Result struct {
	Evaluations int
	BestFitness float64
	Best        []float64 // Raw values in ParamVector order
	ConfigPath  string
	Elapsed     time.Duration
}

// Run searches mutation chance and elite fraction for base on the given
// assets, sized by base.Tune. It writes the log and best config into outDir.
func Run(ctx context.Context, base *config.Config, a genome.Assets, outDir string) (Result, error) {
	if outDir == "" {
		return Result{}, ErrNoOutput
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(outDir, LogFile))
	if err != nil {
		return Result{}, fmt.Errorf("creating tune log: %w", err)
	}
	defer logFile.Close()

	params := NewParamVector()
	tc := base.Tune
	evaluator := NewFitnessEvaluator(params, max(1, tc.Generations), Seeds(max(1, tc.Seeds)), base, a)
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(base)))

	evalCount := 0
	var bestParams []float64
	var logErr error
	startTime := time.Now()
	headerWritten := false

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evalCount++

			if fitness <= evaluator.BestFitness() {
				bestParams = raw
			}

			rec := []Record{{
				Eval:           evalCount,
				Fitness:        fitness,
				MutationChance: raw[0],
				EliteFraction:  raw[1],
				Spread:         evaluator.LastSpread(),
				ElapsedSec:     time.Since(startTime).Seconds(),
			}}
			var werr error
			if headerWritten {
				werr = gocsv.MarshalWithoutHeaders(rec, logFile)
			} else {
				werr = gocsv.Marshal(rec, logFile)
				headerWritten = true
			}
			if werr != nil && logErr == nil {
				logErr = werr
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(tc.MaxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("tune eval",
				"eval", evalCount,
				"max_evals", tc.MaxEvals,
				"fitness", fitness,
				"mutation_chance", raw[0],
				"elite_fraction", raw[1],
				"best", evaluator.BestFitness(),
				"elapsed", elapsed.Round(time.Second).String(),
				"eta", remaining.Round(time.Second).String(),
			)
			return fitness
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: max(1, tc.MaxEvals),
		Concurrent:      0,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Src:          rand.New(rand.NewPCG(uint64(base.Population.Seed), 0x7475)),
	}

	slog.Info("starting tune",
		"params", params.Dim(),
		"max_evals", tc.MaxEvals,
		"seeds", tc.Seeds,
		"generations", tc.Generations,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil && ctx.Err() == nil {
		slog.Warn("optimization ended", "error", err)
	}
	if logErr != nil {
		return Result{}, fmt.Errorf("writing tune log: %w", logErr)
	}
	if bestParams == nil {
		if result == nil {
			return Result{}, fmt.Errorf("tune: no evaluations completed: %w", err)
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	bestCfg := base.Clone()
	params.ApplyToConfig(bestCfg, bestParams)
	if err := bestCfg.Refresh(); err != nil {
		return Result{}, err
	}
	cfgPath := filepath.Join(outDir, BestConfigFile)
	if err := bestCfg.WriteYAML(cfgPath); err != nil {
		return Result{}, err
	}

	res := Result{
		Evaluations: evalCount,
		BestFitness: evaluator.BestFitness(),
		Best:        bestParams,
		ConfigPath:  cfgPath,
		Elapsed:     time.Since(startTime),
	}
	slog.Info("tune complete",
		"evaluations", res.Evaluations,
		"best", res.BestFitness,
		"mutation_chance", bestParams[0],
		"elite_fraction", bestParams[1],
		"config", cfgPath,
	)
	return res, ctx.Err()
}
