package data

import (
	"context"
	"sync"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
)

// DefaultReloadInterval is how often the watcher polls the source fingerprint
const DefaultReloadInterval = 30 * time.Second

// Reloader is the part of CachedLoader the watcher depends on
type Reloader interface {
	Fingerprint(ctx context.Context) (string, error)
	Reload(ctx context.Context) (*models.Tables, error)
}

// ChangeListener is notified with the freshly loaded tables after a change
type ChangeListener func(tables *models.Tables)

// Watcher polls a source fingerprint and reloads when it changes
type Watcher struct {
	reloader Reloader
	interval time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool

	lastFingerprint string
	listeners       []ChangeListener
}

// NewWatcher creates a watcher. initialFingerprint is the fingerprint of the
// tables already loaded, so the first poll does not trigger a reload.
func NewWatcher(reloader Reloader, interval time.Duration, initialFingerprint string) *Watcher {
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		reloader:        reloader,
		interval:        interval,
		ctx:             ctx,
		cancel:          cancel,
		lastFingerprint: initialFingerprint,
	}
}

// OnChange registers a listener called after every successful reload
func (w *Watcher) OnChange(listener ChangeListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, listener)
}

// Start starts polling in the background
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	logger.Info("Starting data watcher", logger.Duration("interval", w.interval))

	w.wg.Add(1)
	go w.poll()

	return nil
}

// Stop stops polling and waits for an in-flight check to finish
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	logger.Info("Data watcher stopped")
}

// Check compares the source fingerprint with the last one seen and reloads
// on a difference. It reports whether a reload happened.
func (w *Watcher) Check(ctx context.Context) (bool, error) {
	fingerprint, err := w.reloader.Fingerprint(ctx)
	if err != nil {
		return false, err
	}

	w.mu.RLock()
	unchanged := fingerprint == w.lastFingerprint
	w.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	tables, err := w.reloader.Reload(ctx)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	w.lastFingerprint = tables.Fingerprint
	listeners := make([]ChangeListener, len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	logger.Info("Source data changed, tables reloaded",
		logger.String("fingerprint", tables.Fingerprint),
	)

	for _, listener := range listeners {
		listener(tables)
	}
	return true, nil
}

func (w *Watcher) poll() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Check(w.ctx); err != nil {
				logger.Warn("Data watcher check failed", logger.ErrorField(err))
				logger.CountError("watcher", "check_failed")
			}
		}
	}
}
