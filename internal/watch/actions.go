package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dtnitsch/text-analyzer/internal/analyze"
	"github.com/dtnitsch/text-analyzer/pkg/fetcher"
	"github.com/dtnitsch/text-analyzer/pkg/watcher"
	"github.com/urfave/cli/v2"
)

// WatchAction analyzes PATH once and again after every debounced change,
// until interrupted.
func WatchAction(c *cli.Context) error {
	logger := analyze.NewLogger(c)

	cfg, err := analyze.LoadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Source == "" {
		return fmt.Errorf("no file provided to watch")
	}
	if fetcher.IsURL(cfg.Source) {
		return fmt.Errorf("cannot watch a URL: %s", cfg.Source)
	}

	ctx, stop := analyze.Context(c)
	defer stop()

	runner := analyze.NewRunner(cfg, logger, os.Stdout)
	runner.Progress = os.Stderr

	if cache := analyze.OpenCache(cfg, logger); cache != nil {
		defer cache.Close()
		runner.Cache = cache
	}

	if cfg.Save {
		database, err := analyze.OpenDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		runner.DB = database
	}

	return Loop(ctx, runner, logger)
}

// Loop runs the analysis once the watch is in place, then after each change
// to the source file. A failed run is logged and watching continues; only a
// failure to watch ends the loop.
func Loop(ctx context.Context, runner *analyze.Runner, logger *slog.Logger) error {
	run := func() {
		if _, err := runner.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Analysis failed", "source", runner.Config.Source, "error", err)
		}
	}

	logger.Info("Watching for changes", "source", runner.Config.Source, "debounce", runner.Config.Debounce)

	return watcher.WatchAndRun(ctx, runner.Config.Source, runner.Config.Debounce, run)
}
