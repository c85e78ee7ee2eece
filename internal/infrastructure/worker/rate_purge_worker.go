package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RatePurger deletes expired cached exchange rates
type RatePurger interface {
	Purge(ctx context.Context) (int64, error)
}

// RatePurgeWorker periodically deletes expired rates from the shared cache
type RatePurgeWorker struct {
	interval time.Duration
	purger   RatePurger
	logger   *zap.Logger

	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	isRunning   bool
	purgedCount int64
	lastError   error
}

// NewRatePurgeWorker creates a new rate purge worker
func NewRatePurgeWorker(interval time.Duration, purger RatePurger, logger *zap.Logger) *RatePurgeWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RatePurgeWorker{
		interval: interval,
		purger:   purger,
		logger:   logger,
	}
}

// Start begins the purge loop
func (w *RatePurgeWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("rate purge worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("RatePurgeWorker started", zap.Duration("interval", w.interval))

	go w.pollLoop()
	return nil
}

// Stop terminates the loop and waits for it to exit
func (w *RatePurgeWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("RatePurgeWorker stopped", zap.Int64("purged_count", w.PurgedCount()))
	return nil
}

// Name returns the worker name for identification
func (w *RatePurgeWorker) Name() string {
	return "RatePurgeWorker"
}

// PurgedCount returns the number of rates deleted since start
func (w *RatePurgeWorker) PurgedCount() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.purgedCount
}

// LastError returns the error of the latest failed purge
func (w *RatePurgeWorker) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

func (w *RatePurgeWorker) pollLoop() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.purgeOnce()
		}
	}
}

func (w *RatePurgeWorker) purgeOnce() {
	n, err := w.purger.Purge(w.ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.lastError = err
		w.logger.Error("Failed to purge exchange rates", zap.Error(err))
		return
	}
	w.purgedCount += n
	if n > 0 {
		w.logger.Info("Expired exchange rates purged", zap.Int64("count", n))
	}
}
