// Package watch re-runs a hunt when source files change.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it counts as changed.
const DefaultDebounce = 500 * time.Millisecond

// Filter decides which paths the watcher cares about. *scanner.Scanner
// satisfies it.
type Filter interface {
	// Accepts reports whether a file is a recognised source file.
	Accepts(path string) bool
	// Prunes reports whether a directory, relative to the root, is never read.
	Prunes(rel string) bool
}

// Watcher monitors a source tree and reports batches of changed files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	filter    Filter
	debounce  time.Duration
	root      string
	callback  func(changed []string)
	out       io.Writer
	mu        sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher creates a new file watcher.
func NewWatcher(root string, filter Filter, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		filter:    filter,
		debounce:  debounce,
		root:      root,
		out:       os.Stderr,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function called with each settled batch of changed
// files. Batches are delivered one at a time.
func (w *Watcher) SetCallback(cb func(changed []string)) {
	w.callback = cb
}

// SetOutput redirects status messages.
func (w *Watcher) SetOutput(out io.Writer) {
	w.out = out
}

// Start watches until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	color.New(color.FgCyan).Fprintf(w.out, "Watching for changes in %s...\n", w.root)
	color.New(color.FgCyan).Fprintln(w.out, "Press Ctrl+C to stop")

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
		}
	}
}

// addTree watches dir and every directory below it that is not pruned.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || w.pruned(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// pruned reports whether dir or any directory between it and the root is
// pruned by the filter.
func (w *Watcher) pruned(dir string) bool {
	rel, err := filepath.Rel(w.root, dir)
	if err != nil || rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := range parts {
		if w.filter.Prunes(strings.Join(parts[:i+1], "/")) {
			return true
		}
	}
	return false
}

// handleEvent records a relevant filesystem event as pending.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := event.Name

	// New directories must be watched before files appear in them.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
			}
			return
		}
	}

	if !w.filter.Accepts(path) || w.pruned(filepath.Dir(path)) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced flushes settled changes until ctx is done.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.processPending())
		}
	}
}

// processPending removes and returns, sorted, the files that have been
// quiet for the debounce period.
func (w *Watcher) processPending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	slices.Sort(ready)
	return ready
}

// flush reports a batch and runs the callback.
func (w *Watcher) flush(changed []string) {
	if len(changed) == 0 || w.callback == nil {
		return
	}

	names := make([]string, len(changed))
	for i, path := range changed {
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}
		names[i] = rel
	}

	color.New(color.FgYellow).Fprintf(w.out, "\nChanged: %s\n", strings.Join(names, ", "))
	fmt.Fprintln(w.out, strings.Repeat("-", 40))

	w.callback(changed)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
