package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Event struct {
	Path string
	Time time.Time
}

type Options struct {
	Path     string        // absolute path of the file to watch
	Debounce time.Duration // collapse bursts within this window (0 = emit every change)
}

// Watcher reports changes to a single file. It watches the parent directory
// so atomic replace-by-rename is seen as a change, not a lost watch.
type Watcher struct {
	opts Options

	mu      sync.Mutex
	w       *fsnotify.Watcher
	cancel  context.CancelFunc
	started bool
	closed  bool
}

func New(opts Options) (*Watcher, error) {
	if !filepath.IsAbs(opts.Path) {
		return nil, errors.New("watch path must be absolute")
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	opts.Path = filepath.Clean(opts.Path)
	return &Watcher{opts: opts}, nil
}

// Start begins watching and returns a channel of change events. The channel
// is closed once ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil, errors.New("watcher already started")
	}
	if w.closed {
		return nil, errors.New("watcher closed")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.opts.Path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch: %w", err)
	}

	w.w = fsw
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.started = true

	out := make(chan Event, 16)
	go w.run(ctx, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, out chan<- Event) {
	defer func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		_ = w.w.Close()
		close(out)
		w.closed = true
	}()

	emit := func() {
		select {
		case out <- Event{Path: w.opts.Path, Time: time.Now()}:
		case <-ctx.Done():
		}
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.opts.Path {
				continue
			}
			if !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)) {
				continue
			}
			if w.opts.Debounce == 0 {
				emit()
				continue
			}
			pending = true
			debounce.Reset(w.opts.Debounce)

		case <-debounce.C:
			if pending {
				pending = false
				emit()
			}

		case _, ok := <-w.w.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher if running.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}
