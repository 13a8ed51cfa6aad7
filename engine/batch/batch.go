// Package batch simulates many battles of one lineup in parallel. Every run
// gets its own engine; only the immutable definitions are shared.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/report"
	"github.com/nathoo/battlecore/engine/state"
)

// Config controls a batch.
type Config struct {
	Runs    int
	Workers int // 0 means GOMAXPROCS
}

// Run plays cfg.Runs battles. Run i is seeded with opts.Seed+i, so results
// are reproducible regardless of worker count. Reports come back in run
// order.
func Run(ctx context.Context, defs *state.Defs, opts engine.Options, cfg Config) ([]*report.Battle, error) {
	if cfg.Runs <= 0 {
		return nil, fmt.Errorf("batch needs at least one run, got %d", cfg.Runs)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	out := make([]*report.Battle, cfg.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	log.Info("starting batch", "runs", cfg.Runs, "workers", workers, "seed", opts.Seed)
	for i := 0; i < cfg.Runs; i++ {
		g.Go(func() error {
			o := opts
			o.Seed = opts.Seed + int64(i)
			o.Logger = log.With("run", i)

			e, err := engine.New(defs, o)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			if _, err := e.RunBattle(gctx); err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			out[i] = report.FromEngine(e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("batch finished", "runs", cfg.Runs)
	return out, nil
}
