// Package watcher re-runs work when a single file changes on disk.
// The parent directory is watched rather than the file itself so that
// editors which save by writing a temp file and renaming it over the
// original keep triggering events.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Watch is given a non-positive debounce.
const DefaultDebounce = 250 * time.Millisecond

// Watch blocks until ctx is done, calling onChange once per burst of changes
// to path. A burst ends when no event for path arrives for debounce.
// onChange runs on the watching goroutine, so calls never overlap.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	return watch(ctx, path, debounce, onChange, false)
}

// WatchAndRun is Watch with one extra call to onChange as soon as the watch
// is registered. Changes made during that first call are queued and trigger
// another call once it returns.
func WatchAndRun(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	return watch(ctx, path, debounce, onChange, true)
}

func watch(ctx context.Context, path string, debounce time.Duration, onChange func(), initial bool) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("error resolving path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(absPath)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time // nil until a change is pending
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
		} else {
			timer.Reset(debounce)
		}
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	if initial && ctx.Err() == nil {
		onChange()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath || !relevant(event) {
				continue
			}
			schedule()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			// Dropped events may have touched the file
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				schedule()
				continue
			}
			return fmt.Errorf("watch error: %w", err)

		case <-fire:
			fire = nil
			onChange()
		}
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
