package analyze

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// AnalyzeAction runs a single analysis of the PATH or URL argument.
func AnalyzeAction(c *cli.Context) error {
	logger := NewLogger(c)

	cfg, err := LoadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := Context(c)
	defer stop()

	runner := NewRunner(cfg, logger, os.Stdout)
	runner.Progress = os.Stderr

	if cache := OpenCache(cfg, logger); cache != nil {
		defer cache.Close()
		runner.Cache = cache
	}

	if cfg.Save {
		database, err := OpenDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		runner.DB = database
	}

	_, err = runner.Run(ctx)
	return err
}

// Context returns the cancellable context a long-running command should use.
func Context(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}
