// Package watch reloads a store when its catalog file is changed by another program.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader is the part of the store the watcher drives.
type Reloader interface {
	Path() string
	ReloadIfChanged() (bool, error)
}

// Stats counts watcher activity.
type Stats struct {
	Events  int
	Reloads int
	Errors  int
}

// Watcher watches the catalog's directory, since atomic saves replace the file itself.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	target   Reloader
	file     string
	dir      string
	debounce time.Duration
	logger   *zap.Logger
	stats    Stats

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a watcher for target's catalog file.
func New(target Reloader, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(target.Path())
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return &Watcher{
		fsw:      fsw,
		target:   target,
		file:     filepath.Base(abs),
		dir:      filepath.Dir(abs),
		debounce: debounce,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Run watches until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.doneCh)
	defer w.fsw.Close()

	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watch: watching catalog", zap.String("dir", w.dir), zap.String("file", w.file))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != w.file || !relevant(event.Op) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.mu.Unlock()
			w.logger.Debug("watch: catalog event", zap.String("op", event.Op.String()))

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
			timerCh = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.logger.Warn("watch: watcher error", zap.Error(err))

		case <-timerCh:
			timerCh = nil
			w.reload()
		}
	}
}

// Stop ends Run and waits for it to return. It must only be called once Run has started.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) reload() {
	changed, err := w.target.ReloadIfChanged()

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.stats.Errors++
		w.logger.Warn("watch: reload failed", zap.Error(err))
		return
	}
	if changed {
		w.stats.Reloads++
		w.logger.Info("watch: catalog reloaded after external change")
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
