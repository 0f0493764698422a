package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher re-indexes files under a root when they are written or created.
// Bursts of events for the same path collapse into one refresh.
type Watcher struct {
	loader    *Loader
	root      string
	debounce  time.Duration
	fsWatcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}

	// OnRefresh, when set, is called after each debounced batch with the
	// paths that were re-indexed.
	OnRefresh func(paths []string)
}

// NewWatcher creates a watcher for root. Directories are registered
// recursively, skipping the ones the loader excludes.
func NewWatcher(loader *Loader, root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w := &Watcher{
		loader:    loader,
		root:      root,
		debounce:  debounce,
		fsWatcher: fsw,
		pending:   make(map[string]struct{}),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && w.loader.skipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Run processes events until ctx is cancelled, then releases the fsnotify
// handle. It always returns nil after a cancel.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsWatcher.Close()

	var timer *time.Timer
	timerC := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC():
			w.flush()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.loader.logger.Warnf("watch error: %v", err)
		}
	}
}

// handle records a relevant event and reports whether a refresh is due.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	rel, ok := w.rel(event.Name)
	if !ok {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !w.loader.skipDir(rel) {
			if err := w.addTree(event.Name); err != nil {
				w.loader.logger.Warnf("failed to watch new directory %s: %v", event.Name, err)
			}
		}
		return false
	}
	if !w.loader.Match(rel) {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.mu.Unlock()
	return true
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	refreshed := paths[:0]
	for _, path := range paths {
		if err := w.loader.LoadFile(path); err != nil {
			log.Debugf("skipping %s: %v", path, err)
			continue
		}
		refreshed = append(refreshed, path)
	}
	if len(refreshed) > 0 && w.OnRefresh != nil {
		w.OnRefresh(refreshed)
	}
}
