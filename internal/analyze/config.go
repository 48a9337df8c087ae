package analyze

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/text-analyzer/models"
	"github.com/dtnitsch/text-analyzer/pkg/caching"
	"github.com/dtnitsch/text-analyzer/pkg/db"
	"github.com/urfave/cli/v2"
)

// NewLogger builds the JSON logger on stderr. --quiet keeps only errors,
// --verbose adds debug output.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig layers --config, the environment and any flags that were set.
// Flags a command does not define are simply never set.
func LoadConfig(c *cli.Context) (*models.AnalyzeConfig, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.Source = c.Args().First()

	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("block-size") {
		cfg.BlockSize = c.Int("block-size")
	}
	if c.IsSet("top") {
		cfg.Top = c.Int("top")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("html") {
		cfg.HTML = c.Bool("html")
	}
	if c.IsSet("detect-language") {
		cfg.DetectLanguage = c.Bool("detect-language")
	}
	if c.IsSet("no-progress") {
		cfg.NoProgress = c.Bool("no-progress")
	}
	if c.Bool("quiet") {
		cfg.NoProgress = true
	}
	if c.IsSet("save") {
		cfg.Save = c.Bool("save")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("cache") {
		cfg.CachePath = c.String("cache")
	}
	if c.IsSet("max-age") {
		if cfg.MaxAge, err = time.ParseDuration(c.String("max-age")); err != nil {
			return nil, fmt.Errorf("invalid max-age duration: %w", err)
		}
	}
	if c.IsSet("debounce") {
		if cfg.Debounce, err = time.ParseDuration(c.String("debounce")); err != nil {
			return nil, fmt.Errorf("invalid debounce duration: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenDB opens the scan history at cfg.DBPath, or next to the binary when
// no path is configured.
func OpenDB(cfg *models.AnalyzeConfig) (*db.DB, error) {
	var (
		database *db.DB
		err      error
	)
	if cfg.DBPath != "" {
		database, err = db.OpenPath(cfg.DBPath)
	} else {
		database, err = db.Open()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// OpenCache opens the result cache. It returns nil when caching is disabled
// or the cache cannot be opened; analysis never fails because of the cache.
func OpenCache(cfg *models.AnalyzeConfig, logger *slog.Logger) *caching.Cache {
	if cfg.MaxAge == 0 || cfg.CachePath == "" {
		return nil
	}

	cache, err := caching.NewCache(cfg.CachePath, cfg.MaxAge)
	if err != nil {
		logger.Warn("Result cache unavailable", "path", cfg.CachePath, "error", err)
		return nil
	}
	if removed, err := cache.Prune(); err != nil {
		logger.Warn("Failed to prune result cache", "error", err)
	} else if removed > 0 {
		logger.Debug("Pruned result cache", "removed", removed)
	}
	return cache
}
