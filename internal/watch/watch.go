// Package watch re-runs the batch report pipeline whenever a client
// session directory changes. Events are debounced; every burst ends in
// one full rescan, there is no incremental ingest.
package watch

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tokscale/tokscale/internal/clients"
	"github.com/tokscale/tokscale/internal/scan"
)

// DefaultDebounce is how long the watcher waits after the last event
// before re-running the pipeline.
const DefaultDebounce = 2 * time.Second

// Watcher holds recursive watches over every existing client root.
// fsnotify watches single directories, so each subdirectory is added
// individually and new ones are picked up from create events.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	roots    []string
}

// New sets up watches for the given clients' roots. Roots that do not
// exist are skipped; they are picked up on the next start, not live.
func New(home string, ids []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{fs: fsw, debounce: debounce}

	for _, id := range ids {
		def, ok := clients.ByID(id)
		if !ok {
			continue
		}
		roots := append([]string{def.ResolvePath(home)}, def.ExtraPaths(home)...)
		roots = append(roots, def.LegacyPaths(home)...)
		if def.Headless {
			for _, hr := range scan.HeadlessRoots(home) {
				roots = append(roots, filepath.Join(hr, def.ID))
			}
		}
		for _, root := range roots {
			w.addTree(root)
		}
	}
	return w, nil
}

// Roots returns the top-level directories being watched.
func (w *Watcher) Roots() []string {
	return w.roots
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run blocks until ctx is done, calling fn after each debounced burst
// of filesystem changes.
func (w *Watcher) Run(ctx context.Context, fn func()) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.maybeWatchDir(ev.Name)
			}
			dirty = true
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] %v", err)

		case <-timer.C:
			if dirty {
				dirty = false
				fn()
			}
		}
	}
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(root string) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return
	}
	w.roots = append(w.roots, root)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if addErr := w.fs.Add(path); addErr != nil {
			log.Printf("[watch] %s: %v", path, addErr)
		}
		return nil
	})
}

// maybeWatchDir extends the watch into directories created while
// running, so files appearing inside them keep triggering.
func (w *Watcher) maybeWatchDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if addErr := w.fs.Add(p); addErr != nil {
			log.Printf("[watch] %s: %v", p, addErr)
		}
		return nil
	})
}
