// Package watch reports changes to the item document made by anyone,
// including other processes sharing the same file.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docker/itemd/pkg/item"
	"github.com/docker/itemd/pkg/store"
)

const DefaultDebounce = 100 * time.Millisecond

// Event is emitted once a burst of file system notifications settles.
// Items holds the reloaded collection, or Err the reason it could not be
// loaded (for example a corrupt document).
type Event struct {
	Path  string
	Items []item.Item
	Err   error
}

// Watcher watches a JSON item document. It watches the parent directory
// rather than the file itself, because saves replace the file through a
// rename.
type Watcher struct {
	path     string
	store    store.Store
	debounce time.Duration
}

type Opt func(*Watcher)

func WithDebounce(d time.Duration) Opt {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func New(path string, opts ...Opt) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		store:    store.NewJSONStore(path),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch starts watching and returns a channel of events. The watch is
// registered before Watch returns. The channel is closed when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	events := make(chan Event)
	go w.loop(ctx, fw, events)

	slog.Debug("Watching item store", "path", w.path)
	return events, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, events chan<- Event) {
	defer close(events)
	defer fw.Close()

	name := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			slog.Debug("Item store event", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("Item store watcher error", "path", w.path, "error", err)
		case <-timer.C:
			items, err := w.store.Load(ctx)
			select {
			case events <- Event{Path: w.path, Items: items, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Summary renders a one line description of an event.
func Summary(ev Event) string {
	if ev.Err != nil {
		return fmt.Sprintf("%s: %v", ev.Path, ev.Err)
	}
	done, pending := item.Stats(ev.Items)
	return fmt.Sprintf("%s: %d items (%d done, %d pending)", ev.Path, len(ev.Items), done, pending)
}
