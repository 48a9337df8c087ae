// Package models defines the configuration shared by the CLI actions.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/analyzer"
	"github.com/dtnitsch/text-analyzer/pkg/report"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultTop      = 10
	DefaultMaxAge   = 24 * time.Hour
	DefaultDebounce = 250 * time.Millisecond
)

// AnalyzeConfig holds runtime configuration for analyze and watch.
// Values are layered: defaults, then the YAML file, then the environment,
// then CLI flags.
type AnalyzeConfig struct {
	Source string `yaml:"-"`

	Workers   int    `yaml:"workers"`
	BlockSize int    `yaml:"block_size"`
	Top       int    `yaml:"top"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`

	HTML           bool `yaml:"html"`
	DetectLanguage bool `yaml:"detect_language"`
	NoProgress     bool `yaml:"no_progress"`

	Save      bool          `yaml:"save"`
	DBPath    string        `yaml:"db"`
	CachePath string        `yaml:"cache"`
	MaxAge    time.Duration `yaml:"max_age"`

	Debounce time.Duration `yaml:"debounce"`
}

func DefaultConfig() *AnalyzeConfig {
	return &AnalyzeConfig{
		Workers:   analyzer.DefaultWorkerCount(),
		BlockSize: analyzer.DefaultBlockSize,
		Top:       DefaultTop,
		Format:    report.FormatText,
		CachePath: defaultCachePath(),
		MaxAge:    DefaultMaxAge,
		Debounce:  DefaultDebounce,
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "text-analyzer", "results.db")
}

// LoadConfig returns the defaults overlaid with the YAML file at path.
// An empty path skips the file.
func LoadConfig(path string) (*AnalyzeConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv loads .env from the working directory, if present, and applies
// the TEXT_ANALYZER_* variables that are set.
func (c *AnalyzeConfig) ApplyEnv() error {
	_ = godotenv.Load()

	var err error
	if c.Workers, err = getEnvInt("TEXT_ANALYZER_WORKERS", c.Workers); err != nil {
		return err
	}
	if c.BlockSize, err = getEnvInt("TEXT_ANALYZER_BLOCK_SIZE", c.BlockSize); err != nil {
		return err
	}
	if c.Top, err = getEnvInt("TEXT_ANALYZER_TOP", c.Top); err != nil {
		return err
	}
	c.Format = getEnv("TEXT_ANALYZER_FORMAT", c.Format)
	c.DBPath = getEnv("TEXT_ANALYZER_DB", c.DBPath)
	c.CachePath = getEnv("TEXT_ANALYZER_CACHE", c.CachePath)
	return nil
}

func (c *AnalyzeConfig) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	case c.BlockSize < 1:
		return fmt.Errorf("%w: block size must be at least 1, got %d", ErrInvalidConfig, c.BlockSize)
	case c.Top < 1:
		return fmt.Errorf("%w: top must be at least 1, got %d", ErrInvalidConfig, c.Top)
	case !report.ValidFormat(c.Format):
		return fmt.Errorf("%w: unknown format %q (want one of %v)", ErrInvalidConfig, c.Format, report.Formats)
	case c.MaxAge < 0:
		return fmt.Errorf("%w: max age must not be negative", ErrInvalidConfig)
	case c.Debounce < 0:
		return fmt.Errorf("%w: debounce must not be negative", ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, value)
	}
	return n, nil
}
