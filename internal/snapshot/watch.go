package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events an editor or a rename produces.
const debounceDelay = 200 * time.Millisecond

// Watch reloads the document whenever another process rewrites the file and
// then calls onChange. It blocks until ctx is cancelled. The directory is
// watched rather than the file, because saving through a rename replaces the
// file's inode.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("snapshot: creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("snapshot: watching %s: %w", dir, err)
	}

	// mu is held by a running callback, so the cleanup below waits for it and
	// no onChange starts after Watch returns.
	var (
		debounce *time.Timer
		mu       sync.Mutex
		stopped  bool
	)
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				mu.Lock()
				defer mu.Unlock()
				if !stopped {
					s.reloadAndNotify(ctx, onChange)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("snapshot watcher error", slog.String("error", err.Error()))
		}
	}
}

// reloadAndNotify runs when the debounce timer fires. A timer that fires
// after the watch was cancelled does nothing.
func (s *Store) reloadAndNotify(ctx context.Context, onChange func()) {
	if ctx.Err() != nil {
		return
	}
	changed, err := s.Reload()
	if err != nil {
		s.logger.Error("snapshot reload failed", slog.String("error", err.Error()))
		return
	}
	if changed {
		s.logger.Info("snapshot reloaded", slog.String("path", s.path))
		if onChange != nil {
			onChange()
		}
	}
}
