// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes to a single file. It watches the parent
// directory so saves that replace the file by rename are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	log      zerolog.Logger
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending time.Time
}

// NewWatcher starts watching path. Close releases it.
func NewWatcher(path string, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		log:      logger.With().Str("component", "watcher").Str("path", abs).Logger(),
		fsw:      fsw,
	}, nil
}

// Run calls onChange once per settled burst of writes to the file until
// ctx is done. onChange runs on Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	ticker := time.NewTicker(w.debounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")

		case now := <-ticker.C:
			w.mu.Lock()
			fire := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if fire {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if fire {
				w.log.Debug().Msg("file changed")
				onChange()
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
