// Package watch re-runs a callback when a file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a file must stay quiet before the callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches one file. Editors often replace files instead of writing
// them in place, so the parent directory is watched.
type Watcher struct {
	file     string
	callback func(context.Context) error
	debounce time.Duration
	logger   zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	stop    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger callback errors are reported to.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// New creates a watcher for file.
func New(file string, callback func(context.Context) error, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		file:     abs,
		callback: callback,
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
		watcher:  fw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run invokes the callback once, then again after every change to the file,
// until ctx is done or Stop is called. Callback errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	w.invoke(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return ctx.Err()
		case <-w.done:
			stopTimer(timer)
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			stopTimer(timer)
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.invoke(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Str("file", w.file).Msg("watch error")
		}
	}
}

func (w *Watcher) invoke(ctx context.Context) {
	if err := w.callback(ctx); err != nil {
		w.logger.Error().Err(err).Str("file", w.file).Msg("callback failed")
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

// Stop ends Run and releases the watcher.
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
