package panorama

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Change reports that a project file was created, written, removed or renamed.
type Change struct {
	ID      string
	Removed bool
}

// Watch reports changes to project files in dir until ctx is done.
// The returned channel is closed when watching stops.
func Watch(ctx context.Context, dir string, log *slog.Logger) (<-chan Change, error) {
	if log == nil {
		log = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("panorama: watch: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("panorama: watch %s: %w", dir, err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				ch, relevant := changeFor(ev)
				if !relevant {
					continue
				}
				select {
				case out <- ch:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("panorama watcher error", "dir", dir, "err", err)
			}
		}
	}()
	return out, nil
}

func changeFor(ev fsnotify.Event) (Change, bool) {
	name := filepath.Base(ev.Name)
	if !IsProject(name) || ValidateID(name) != nil {
		return Change{}, false
	}
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return Change{ID: name, Removed: true}, true
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		return Change{ID: name}, true
	}
	return Change{}, false
}
