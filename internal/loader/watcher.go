package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports files under a root directory that were created, written
// or renamed into place. Bursts of events for the same file collapse into
// one report after the debounce interval.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	changes  chan string
	log      *zap.Logger
}

// NewWatcher watches root and all of its subdirectories.
func NewWatcher(root string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		debounce: debounce,
		fsw:      fsw,
		changes:  make(chan string, 64),
		log:      log,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Changes delivers slash-separated paths relative to the root. It is
// closed when Run returns.
func (w *Watcher) Changes() <-chan string { return w.changes }

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run forwards changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.changes)
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			info, err := os.Stat(ev.Name)
			if err != nil {
				continue // renamed away or already removed
			}
			if info.IsDir() {
				if ev.Has(fsnotify.Create) {
					if err := w.addTree(ev.Name); err != nil {
						w.log.Warn("watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
				continue
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Warn("watch events dropped", zap.Error(err))
				continue
			}
			w.log.Error("watch error", zap.Error(err))

		case <-timer.C:
			for path := range pending {
				select {
				case w.changes <- path:
				case <-ctx.Done():
					return nil
				}
				delete(pending, path)
			}
		}
	}
}
