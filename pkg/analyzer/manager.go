// Package analyzer runs a pool of tokenizer workers over one shared stream
// and reduces their partial Results into the final one.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/analytics"
	"github.com/dtnitsch/text-analyzer/pkg/mapreduce"
	"github.com/dtnitsch/text-analyzer/pkg/stream"
	"github.com/dtnitsch/text-analyzer/pkg/tokenizer"
)

const (
	DefaultBlockSize        = 1024
	DefaultProgressInterval = 100 * time.Millisecond
)

var (
	ErrInvalidWorkerCount = errors.New("worker count must be at least 1")
	ErrInvalidBlockSize   = errors.New("block size must be at least 1 byte")
	ErrConsumed           = errors.New("analyzer: manager already used")
)

// DefaultWorkerCount is the number of CPUs available to the process.
func DefaultWorkerCount() int {
	return runtime.NumCPU()
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger used by the manager and its workers.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSourceName records where the text came from.
func WithSourceName(name string) Option {
	return func(m *Manager) { m.sourceName = name }
}

// WithProgress polls the stream every interval while workers run and passes
// each snapshot to fn. fn runs on its own goroutine and must not block for
// long; it never affects the result.
func WithProgress(interval time.Duration, fn func(stream.Progress)) Option {
	return func(m *Manager) {
		if interval <= 0 {
			interval = DefaultProgressInterval
		}
		m.progressInterval = interval
		m.onProgress = fn
	}
}

// Manager owns one analysis run.
type Manager struct {
	workers   int
	blockSize int
	src       io.Reader

	sourceName       string
	logger           *slog.Logger
	progressInterval time.Duration
	onProgress       func(stream.Progress)

	used atomic.Bool
}

// NewManager validates the configuration. The stream is not touched until
// Analyze is called.
func NewManager(workers, blockSize int, src io.Reader, opts ...Option) (*Manager, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkerCount, workers)
	}
	if blockSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBlockSize, blockSize)
	}
	if src == nil {
		return nil, errors.New("analyzer: nil stream")
	}

	m := &Manager{
		workers:   workers,
		blockSize: blockSize,
		src:       src,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if f, ok := src.(*os.File); ok {
		m.sourceName = f.Name()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type outcome struct {
	id     int
	result analytics.Result
	err    error
}

// Analyze runs the workers to completion and returns the merged Result. The
// first worker failure cancels the others and is returned; no partial Result
// is produced. A Manager can only be analyzed once.
func (m *Manager) Analyze(ctx context.Context) (analytics.Result, error) {
	if !m.used.CompareAndSwap(false, true) {
		return analytics.Result{}, ErrConsumed
	}

	coord, err := stream.NewCoordinator(m.src, max(m.blockSize, 4096))
	if err != nil {
		return analytics.Result{}, err
	}

	startTime := time.Now()
	m.logger.Info("Starting analysis", "source", m.sourceName, "workers", m.workers, "block_size", m.blockSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	outcomes := make(chan outcome, m.workers)

	for w := 1; w <= m.workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			res, err := tokenizer.New(id, coord, m.blockSize, m.logger).Run(ctx)
			if err != nil {
				cancel()
			}
			outcomes <- outcome{id: id, result: res, err: err}
		}(w)
	}

	done := make(chan struct{})
	var progressWG sync.WaitGroup
	if m.onProgress != nil {
		progressWG.Add(1)
		go func() {
			defer progressWG.Done()
			m.reportProgress(coord, done)
		}()
	}

	wg.Wait()
	close(outcomes)
	close(done)
	progressWG.Wait()

	partials := make([]analytics.Result, m.workers)
	var firstErr error
	for o := range outcomes {
		if o.err != nil {
			// a worker cancelled by a sibling's failure is not the cause
			if firstErr == nil || errors.Is(firstErr, context.Canceled) {
				firstErr = fmt.Errorf("worker %d: %w", o.id, o.err)
			}
			continue
		}
		partials[o.id-1] = o.result
	}
	if firstErr != nil {
		m.logger.Error("Analysis failed", "source", m.sourceName, "error", firstErr)
		return analytics.Result{}, firstErr
	}

	final := mapreduce.Reduce(partials)
	final.SourceName = m.sourceName
	if final.ScanTime.IsZero() {
		final.ScanTime = time.Now()
	}

	m.logger.Info("Analysis finished",
		"source", m.sourceName,
		"words", final.TotalWords,
		"bytes", final.BytesRead,
		"duration", time.Since(startTime),
	)
	return final, nil
}

// reportProgress emits a snapshot every interval until done is closed, then
// one last snapshot.
func (m *Manager) reportProgress(coord *stream.Coordinator, done <-chan struct{}) {
	ticker := time.NewTicker(m.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			m.onProgress(coord.Progress())
			return
		case <-ticker.C:
			m.onProgress(coord.Progress())
		}
	}
}
