// Package watch re-runs an action after files under a directory tree
// change. Events are debounced so editors that fire several writes per
// save trigger a single re-run.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required after the last event
// before the action runs.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a directory tree and invokes a callback once file
// changes settle. It uses fsnotify for change detection.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	mu       sync.Mutex
	closed   bool
}

// New creates a Watcher with the given debounce interval. A zero or
// negative interval falls back to DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{watcher: watcher, debounce: debounce}, nil
}

// Add registers root and every directory below it. fsnotify watches a
// single directory level, so the tree is walked here and directories
// created later are picked up from events during Run. A missing root
// is not an error; its creation is seen by the parent watch if one
// exists, otherwise Run simply never fires.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is cancelled or the watcher fails, invoking fn
// after each burst of events settles. fn runs on the watch goroutine,
// so invocations never overlap.
func (w *Watcher) Run(ctx context.Context, fn func()) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if !relevant(event) {
				continue
			}
			w.trackCreatedDir(event)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			fn()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// relevant filters out events that cannot change file content, such
// as bare permission changes.
func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// trackCreatedDir extends the watch to directories created under the
// tree. A failed add only means events from that directory are missed.
func (w *Watcher) trackCreatedDir(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	_ = w.watcher.Add(event.Name)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	return w.watcher.Close()
}
