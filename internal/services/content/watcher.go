package content

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher serves the latest successfully parsed program file and reloads it
// when the file changes on disk.
type Watcher struct {
	path    string
	current atomic.Pointer[Catalog]
	logf    func(format string, args ...any)
	// reloaded receives a value after every reload attempt. Tests use it to
	// observe the watch loop.
	reloaded chan struct{}
}

// NewWatcher loads path once and returns a watcher serving it.
func NewWatcher(path string) (*Watcher, error) {
	catalog, err := Load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: filepath.Clean(path), logf: log.Printf}
	w.current.Store(catalog)
	return w, nil
}

// Catalog returns the current snapshot.
func (w *Watcher) Catalog() *Catalog {
	if w == nil {
		return nil
	}
	return w.current.Load()
}

// Reload re-reads the file. A parse failure keeps the previous snapshot.
func (w *Watcher) Reload() error {
	catalog, err := Load(w.path)
	if err != nil {
		return err
	}
	w.current.Store(catalog)
	return nil
}

// Run watches the program file's directory until ctx is done. The directory
// is watched instead of the file so editors that replace the file by rename
// keep triggering reloads.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create program watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch program dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.logf("program reload failed path=%s err=%v", w.path, err)
			} else {
				w.logf("program reloaded path=%s items=%d", w.path, len(w.Catalog().items))
			}
			w.notifyReloaded()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logf("program watcher error path=%s err=%v", w.path, err)
		}
	}
}

func (w *Watcher) notifyReloaded() {
	if w.reloaded == nil {
		return
	}
	select {
	case w.reloaded <- struct{}{}:
	default:
	}
}
