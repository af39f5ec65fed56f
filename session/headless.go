package session

import (
	"context"
	"log/slog"
)

// RunHeadless steps the session until ctx is cancelled or maxGenerations
// generations have run in this session (0 = unlimited). Cancellation is
// observed between generations.
func (s *Session) RunHeadless(ctx context.Context, maxGenerations int) error {
	slog.Info("starting headless run",
		"seed", s.seed,
		"max_generations", maxGenerations,
		"log_every", s.cfg.Telemetry.LogEvery,
	)

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("run interrupted", "generation", s.pop.Generation())
			return nil
		}
		if maxGenerations > 0 && s.pop.Generation()-s.startGen >= maxGenerations {
			slog.Info("max generations reached", "generation", s.pop.Generation())
			return nil
		}
		s.Step()
	}
}
