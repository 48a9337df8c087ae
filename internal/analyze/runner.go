package analyze

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dtnitsch/text-analyzer/models"
	"github.com/dtnitsch/text-analyzer/pkg/analytics"
	"github.com/dtnitsch/text-analyzer/pkg/analyzer"
	"github.com/dtnitsch/text-analyzer/pkg/caching"
	"github.com/dtnitsch/text-analyzer/pkg/db"
	"github.com/dtnitsch/text-analyzer/pkg/detector"
	"github.com/dtnitsch/text-analyzer/pkg/fetcher"
	"github.com/dtnitsch/text-analyzer/pkg/mapreduce"
	"github.com/dtnitsch/text-analyzer/pkg/parser"
	"github.com/dtnitsch/text-analyzer/pkg/report"
	"github.com/dtnitsch/text-analyzer/pkg/stream"
	"github.com/dtnitsch/text-analyzer/pkg/storage"
)

// languageSample is how many of the top words are handed to the detector.
const languageSample = 50

// Runner performs one analysis per Run call: it opens the source, consults
// the cache, runs the workers and writes the report.
type Runner struct {
	Config *models.AnalyzeConfig
	Logger *slog.Logger

	// Out receives the report when Config.Output is empty.
	Out io.Writer
	// Progress receives the progress line; nil disables it.
	Progress io.Writer

	// Cache and DB are optional.
	Cache *caching.Cache
	DB    *db.DB

	fetcher *fetcher.Fetcher
	storage *storage.Storage
	parser  *parser.Parser
}

func NewRunner(cfg *models.AnalyzeConfig, logger *slog.Logger, out io.Writer) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		Config:  cfg,
		Logger:  logger,
		Out:     out,
		fetcher: fetcher.NewFetcher(),
		storage: &storage.Storage{},
		parser:  &parser.Parser{},
	}
}

// source is the text to analyze after fetching and HTML extraction.
type source struct {
	name     string
	reader   io.Reader
	cacheKey string // empty when the source cannot be cached
	close    func() error
}

// Run analyzes Config.Source and writes the report. The returned report is
// the one that was written.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Source == "" {
		return nil, fmt.Errorf("no source provided")
	}

	startTime := time.Now()

	src, err := r.open(cfg.Source)
	if err != nil {
		return nil, err
	}
	defer src.close()

	var (
		res    analytics.Result
		cached bool
	)
	if r.Cache != nil && src.cacheKey != "" {
		res, cached = r.Cache.Get(src.cacheKey)
		if cached {
			r.Logger.Info("Using cached result", "source", src.name)
		}
	}

	if !cached {
		res, err = r.analyze(ctx, src)
		if err != nil {
			return nil, err
		}
		if r.Cache != nil && src.cacheKey != "" {
			if err := r.Cache.Set(src.cacheKey, res); err != nil {
				r.Logger.Warn("Failed to cache result", "source", src.name, "error", err)
			}
		}
	}

	rep := report.Build(res, cfg.Top)
	rep.Run = &report.RunInfo{
		BytesRead: res.BytesRead,
		Duration:  time.Since(startTime),
		Cached:    cached,
	}
	// a cached result was produced by an earlier run's workers
	if !cached {
		rep.Run.Workers = cfg.Workers
		rep.Run.BlockSize = cfg.BlockSize
	}

	if cfg.DetectLanguage {
		if lang, ok := detector.DetectLanguage(mapreduce.TopWords(res.WordFrequency, languageSample)); ok {
			rep.Language = lang
		} else {
			r.Logger.Debug("Language not detected", "source", src.name)
		}
	}

	if cfg.Save && r.DB != nil {
		scanID, err := r.DB.InsertScan(scanRecord(res, rep))
		if err != nil {
			return nil, fmt.Errorf("failed to save scan: %w", err)
		}
		rep.Run.ScanID = scanID
		r.Logger.Info("Saved scan", "scan_id", scanID, "source", src.name)
	}

	if err := r.write(rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *Runner) open(name string) (*source, error) {
	if fetcher.IsURL(name) {
		body, contentType, err := r.fetcher.GetBytes(name)
		if err != nil {
			return nil, err
		}
		if r.Config.HTML || parser.IsHTML(name, contentType) {
			if body, err = r.parser.ExtractText(body, name); err != nil {
				return nil, err
			}
		}
		return &source{name: name, reader: bytes.NewReader(body), close: func() error { return nil }}, nil
	}

	f, err := r.storage.Open(name)
	if err != nil {
		return nil, err
	}

	html := r.Config.HTML || parser.IsHTML(name, "")
	mode := "text"
	if html {
		mode = "html"
	}

	src := &source{
		name:     f.Stats.Path,
		reader:   f.File,
		cacheKey: caching.Key(f.Stats.Path, f.Stats.SizeBytes, f.Stats.ModTime, mode),
		close:    f.Close,
	}

	if html {
		raw, err := io.ReadAll(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("error reading file: %w", err)
		}
		text, err := r.parser.ExtractText(raw, "file://"+f.Stats.Path)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		src.reader = bytes.NewReader(text)
	}

	return src, nil
}

func (r *Runner) analyze(ctx context.Context, src *source) (analytics.Result, error) {
	cfg := r.Config
	opts := []analyzer.Option{
		analyzer.WithLogger(r.Logger),
		analyzer.WithSourceName(src.name),
	}

	showProgress := r.Progress != nil && !cfg.NoProgress
	if showProgress {
		opts = append(opts, analyzer.WithProgress(analyzer.DefaultProgressInterval, func(p stream.Progress) {
			fmt.Fprintf(r.Progress, "\r%s", p)
		}))
	}

	m, err := analyzer.NewManager(cfg.Workers, cfg.BlockSize, src.reader, opts...)
	if err != nil {
		return analytics.Result{}, err
	}

	res, err := m.Analyze(ctx)
	if showProgress {
		fmt.Fprintln(r.Progress)
	}
	return res, err
}

func (r *Runner) write(rep report.Report) error {
	if r.Config.Output == "" {
		return report.Write(r.Out, rep, r.Config.Format)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, rep, r.Config.Format); err != nil {
		return err
	}
	if err := r.storage.SaveFile(r.Config.Output, buf.Bytes()); err != nil {
		return err
	}
	r.Logger.Info("Wrote report", "path", r.Config.Output, "format", r.Config.Format)
	return nil
}

func scanRecord(res analytics.Result, rep report.Report) db.ScanRecord {
	return db.ScanRecord{
		SourceName:     res.SourceName,
		ScannedAt:      res.ScanTime,
		TotalWords:     res.TotalWords,
		TotalLetters:   res.TotalLetters,
		UniqueWords:    len(res.WordFrequency),
		LongestWord:    res.LongestWord,
		SkippedWords:   res.SkippedWords,
		MalformedWords: res.MalformedWords,
		BytesRead:      res.BytesRead,
		Workers:        rep.Run.Workers,
		BlockSize:      rep.Run.BlockSize,
		Duration:       rep.Run.Duration,
		Language:       rep.Language,
		TopKeywords:    mapreduce.TopKeywords(res.WordFrequency, 25),
		Words:          res.WordFrequency,
		Letters:        res.LetterFrequency,
	}
}
