package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/glyphs/assets"
	"github.com/pthm-cable/glyphs/config"
	"github.com/pthm-cable/glyphs/session"
	"github.com/pthm-cable/glyphs/telemetry"
	"github.com/pthm-cable/glyphs/tui"
	"github.com/pthm-cable/glyphs/tune"
	"github.com/pthm-cable/glyphs/ui"
)

var (
	configPath     string
	targetPath     string
	atlasPath      string
	headless       bool
	terminal       bool
	logStats       bool
	seed           int64
	workers        int
	maxGenerations int
	outputDir      string
	resumePath     string

	tuneOutput string
	maxEvals   int
	tuneSeeds  int
	tuneGens   int
	plotOut    string
	plotASCII  bool
	plotTitle  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "glyphs",
		Short:         "evolve glyph tile mosaics toward a target image",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (empty = use defaults)")
	rootCmd.PersistentFlags().StringVar(&targetPath, "target", "", "target image (overrides assets.target_path)")
	rootCmd.PersistentFlags().StringVar(&atlasPath, "atlas", "", "glyph atlas (overrides assets.atlas_path)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the evolution with a preview window, terminal view or headless",
		RunE:  runEvolution,
	}
	runCmd.Flags().BoolVar(&headless, "headless", false, "run without graphics")
	runCmd.Flags().BoolVar(&terminal, "tui", false, "show the terminal preview instead of a window")
	runCmd.Flags().BoolVar(&logStats, "log-stats", false, "output stats via slog")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 = config, then time-based)")
	runCmd.Flags().IntVar(&workers, "workers", -1, "offspring workers (-1 = config, 0 = GOMAXPROCS)")
	runCmd.Flags().IntVar(&maxGenerations, "max-generations", 0, "stop after N generations (0 = unlimited)")
	runCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for CSV logs, config and snapshots")
	runCmd.Flags().StringVar(&resumePath, "resume", "", "snapshot JSON to resume from")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search mutation chance and elite fraction with CMA-ES",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&tuneOutput, "output", "", "output directory for tune_log.csv and best_config.yaml")
	tuneCmd.Flags().IntVar(&maxEvals, "max-evals", 0, "maximum evaluations (0 = config)")
	tuneCmd.Flags().IntVar(&tuneSeeds, "seeds", 0, "seeds per evaluation (0 = config)")
	tuneCmd.Flags().IntVar(&tuneGens, "generations", 0, "generations per seed (0 = config)")
	tuneCmd.MarkFlagRequired("output")

	plotCmd := &cobra.Command{
		Use:   "plot [generations.csv]",
		Short: "plot best and mean fitness from a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlot,
	}
	plotCmd.Flags().StringVar(&plotOut, "out", "", "output PNG (default fitness.png next to the CSV)")
	plotCmd.Flags().BoolVar(&plotASCII, "ascii", false, "print an ASCII chart instead of writing a PNG")
	plotCmd.Flags().StringVar(&plotTitle, "title", "Fitness", "plot title")

	rootCmd.AddCommand(runCmd, tuneCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig applies the shared flag overrides on top of the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if targetPath != "" {
		cfg.Assets.TargetPath = targetPath
	}
	if atlasPath != "" {
		cfg.Assets.AtlasPath = atlasPath
	}
	if cfg.Assets.TargetPath == "" {
		return nil, fmt.Errorf("%w: no target image (set --target or assets.target_path)", config.ErrInvalid)
	}
	return cfg, nil
}

func runEvolution(cmd *cobra.Command, args []string) error {
	// The terminal view owns the screen, so logs go to a file in the output
	// directory or nowhere.
	var logOut io.Writer = os.Stdout
	if terminal && !headless {
		logOut = io.Discard
		if outputDir != "" {
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return err
			}
			f, err := os.Create(filepath.Join(outputDir, "glyphs.log"))
			if err != nil {
				return err
			}
			defer f.Close()
			logOut = f
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Population.Seed = seed
	}
	if workers >= 0 {
		cfg.Population.Workers = workers
	}
	if outputDir != "" {
		cfg.Telemetry.OutputDir = outputDir
	}
	if err := cfg.Refresh(); err != nil {
		return err
	}

	bundle, err := assets.Load(cfg)
	if err != nil {
		return err
	}

	s, err := session.New(cfg, bundle, session.Options{
		Resume:   resumePath,
		LogStats: logStats || headless,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("failed to close session", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case headless:
		return s.RunHeadless(ctx, maxGenerations)
	case terminal:
		return tui.Run(ctx, s)
	default:
		return ui.NewWindow(s).Run(ctx)
	}
}

func runTune(cmd *cobra.Command, args []string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxEvals > 0 {
		cfg.Tune.MaxEvals = maxEvals
	}
	if tuneSeeds > 0 {
		cfg.Tune.Seeds = tuneSeeds
	}
	if tuneGens > 0 {
		cfg.Tune.Generations = tuneGens
	}
	if err := cfg.Refresh(); err != nil {
		return err
	}

	bundle, err := assets.Load(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := tune.Run(ctx, cfg, bundle, tuneOutput)
	if err != nil && (!errors.Is(err, context.Canceled) || res.Best == nil) {
		return err
	}
	fmt.Printf("best fitness %.0f after %d evaluations: mutation_chance=%.5f elite_fraction=%.3f\n",
		res.BestFitness, res.Evaluations, res.Best[0], res.Best[1])
	fmt.Printf("best config saved to %s\n", res.ConfigPath)
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	records, err := telemetry.ReadGenerations(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%s has no records", args[0])
	}

	if plotASCII {
		graph := asciigraph.Plot(telemetry.BestSeries(records),
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(plotTitle+" (best)"),
		)
		fmt.Println(graph)
		return nil
	}

	out := plotOut
	if out == "" {
		out = filepath.Join(filepath.Dir(args[0]), "fitness.png")
	}
	if err := telemetry.PlotGenerations(records, plotTitle, out); err != nil {
		return err
	}
	fmt.Printf("plot saved to %s\n", out)
	return nil
}
