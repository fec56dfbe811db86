// Package watch triggers lint runs from filesystem events.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nielsdekker/detekt-ls/internal/config"
	"github.com/nielsdekker/detekt-ls/internal/invoke"
)

// defaultDebounce coalesces the event bursts editors produce for a
// single save (write + chmod, or temp-file rename dances).
const defaultDebounce = 300 * time.Millisecond

// Linter starts asynchronous lint runs. Implemented by
// lint.Orchestrator.
type Linter interface {
	Trigger(ctx context.Context, id invoke.Identity)
}

// Watcher watches a directory tree and triggers a run for every
// settled change to a file matching the trigger patterns.
type Watcher struct {
	linter   Linter
	cfg      *config.Config
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher triggering runs on the given linter.
func New(linter Linter, cfg *config.Config, logger *slog.Logger) *Watcher {
	return &Watcher{
		linter:   linter,
		cfg:      cfg,
		logger:   logger,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches root recursively until ctx is done. Directories created
// while watching are added to the watch set.
func (w *Watcher) Run(ctx context.Context, root string) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() { _ = fsWatcher.Close() }()

	addErr := addRecursive(fsWatcher, root)
	if addErr != nil {
		return addErr
	}

	w.logger.Info("watching", "root", root, "patterns", w.cfg.Lint.TriggerFilePatterns)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}

			w.handle(ctx, fsWatcher, event)

		case watchErr, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("watch error", "error", watchErr)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fsWatcher *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			watchErr := addRecursive(fsWatcher, event.Name)
			if watchErr != nil {
				w.logger.Warn("watch new directory", "dir", event.Name, "error", watchErr)
			}

			return
		}
	}

	if !w.cfg.TriggerMatch(event.Name) {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule arms (or re-arms) the debounce timer for path; the run
// fires only after the path has been quiet for the debounce window.
func (w *Watcher) schedule(ctx context.Context, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[abs]; ok {
		timer.Reset(w.debounce)

		return
	}

	w.timers[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, abs)
		w.mu.Unlock()

		w.linter.Trigger(ctx, invoke.Identity{URI: "file://" + abs, Path: abs})
	})
}

func addRecursive(fsWatcher *fsnotify.Watcher, root string) error {
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() {
			return nil
		}

		return fsWatcher.Add(path)
	})
	if walkErr != nil {
		return fmt.Errorf("watch %s: %w", root, walkErr)
	}

	return nil
}
