package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/event"
	"go.uber.org/zap"
)

// AutosaveWorkerConfig holds configuration for the autosave worker
type AutosaveWorkerConfig struct {
	Debounce    time.Duration
	SaveTimeout time.Duration
}

// DefaultAutosaveWorkerConfig returns default configuration
func DefaultAutosaveWorkerConfig() AutosaveWorkerConfig {
	return AutosaveWorkerConfig{
		Debounce:    1500 * time.Millisecond,
		SaveTimeout: 5 * time.Second,
	}
}

// AutosaveEvents are the events the worker subscribes to
var AutosaveEvents = []event.Type{
	event.TypeDraftChanged,
	event.TypeDraftReset,
	event.TypeExpenseSubmitted,
}

// pendingSave is the latest unsaved draft of one storage key
type pendingSave struct {
	draft entity.ExpenseDraft
	seq   uint64
	timer *time.Timer
}

// AutosaveWorker persists drafts after a quiet period and clears them on
// reset or submission. Failures are logged and never reach the form.
type AutosaveWorker struct {
	config AutosaveWorkerConfig
	store  port.DraftStore
	logger *zap.Logger

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	stopped   bool
	pending   map[string]*pendingSave
	// clearedSeq fences out changes raised before the draft was cleared
	clearedSeq map[string]uint64
	wg         sync.WaitGroup
	// ioMu orders store writes so a save never lands after a later clear
	ioMu sync.Mutex

	savedCount  int
	failedCount int
}

// NewAutosaveWorker creates a new autosave worker
func NewAutosaveWorker(config AutosaveWorkerConfig, store port.DraftStore, logger *zap.Logger) *AutosaveWorker {
	if config.Debounce <= 0 {
		config.Debounce = DefaultAutosaveWorkerConfig().Debounce
	}
	if config.SaveTimeout <= 0 {
		config.SaveTimeout = DefaultAutosaveWorkerConfig().SaveTimeout
	}
	return &AutosaveWorker{
		config:     config,
		store:      store,
		logger:     logger,
		ctx:        context.Background(),
		pending:    make(map[string]*pendingSave),
		clearedSeq: make(map[string]uint64),
	}
}

// Start marks the worker running
func (w *AutosaveWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("autosave worker already running")
	}
	if w.stopped {
		return fmt.Errorf("autosave worker stopped")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true

	w.logger.Info("AutosaveWorker started", zap.Duration("debounce", w.config.Debounce))
	return nil
}

// Stop flushes pending saves and waits for in-flight writes
func (w *AutosaveWorker) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.isRunning = false

	flush := make(map[string]*pendingSave, len(w.pending))
	for key, p := range w.pending {
		p.timer.Stop()
		flush[key] = p
	}
	w.pending = make(map[string]*pendingSave)
	w.mu.Unlock()

	for key, p := range flush {
		w.save(context.Background(), key, p)
	}
	w.wg.Wait()

	if w.cancel != nil {
		w.cancel()
	}

	w.mu.Lock()
	saved, failed := w.savedCount, w.failedCount
	w.mu.Unlock()

	w.logger.Info("AutosaveWorker stopped",
		zap.Int("saved_count", saved),
		zap.Int("failed_count", failed),
		zap.Int("flushed", len(flush)))
	return nil
}

// Name returns the worker name for identification
func (w *AutosaveWorker) Name() string {
	return "AutosaveWorker"
}

// Handle is the dispatcher handler for AutosaveEvents
func (w *AutosaveWorker) Handle(ctx context.Context, evt *event.Event) error {
	key := evt.GetPayloadString(event.KeyDraftKey)
	if key == "" {
		return nil
	}

	switch evt.Type {
	case event.TypeDraftChanged:
		raw, ok := evt.GetPayload(event.KeyDraft)
		if !ok {
			return nil
		}
		draft, ok := raw.(entity.ExpenseDraft)
		if !ok {
			w.logger.Warn("Ignoring draft of unexpected type", zap.String("type", fmt.Sprintf("%T", raw)))
			return nil
		}
		w.schedule(key, draft, evt.Sequence)

	case event.TypeDraftReset, event.TypeExpenseSubmitted:
		w.clear(key, evt.Sequence)
	}
	return nil
}

// schedule replaces the pending draft of key and restarts its quiet period
func (w *AutosaveWorker) schedule(key string, draft entity.ExpenseDraft, seq uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if seq <= w.clearedSeq[key] {
		return
	}

	if p, ok := w.pending[key]; ok {
		if seq < p.seq {
			return
		}
		p.timer.Stop()
	}

	p := &pendingSave{draft: draft, seq: seq}
	p.timer = time.AfterFunc(w.config.Debounce, func() { w.fire(key, p) })
	w.pending[key] = p
}

// fire saves the pending draft once its quiet period elapsed
func (w *AutosaveWorker) fire(key string, p *pendingSave) {
	w.mu.Lock()
	if w.pending[key] != p {
		w.mu.Unlock()
		return
	}
	delete(w.pending, key)
	ctx := w.ctx
	w.wg.Add(1)
	w.mu.Unlock()

	defer w.wg.Done()
	w.save(ctx, key, p)
}

func (w *AutosaveWorker) save(ctx context.Context, key string, p *pendingSave) {
	w.ioMu.Lock()
	defer w.ioMu.Unlock()

	w.mu.Lock()
	cleared := w.clearedSeq[key]
	w.mu.Unlock()
	if p.seq <= cleared {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.SaveTimeout)
	defer cancel()

	err := w.store.SaveDraft(ctx, key, p.draft)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.failedCount++
		w.logger.Warn("Autosave failed", zap.String("storage_key", key), zap.Error(err))
		return
	}
	w.savedCount++
	w.logger.Debug("Draft autosaved", zap.String("storage_key", key))
}

// clear drops the pending save of key and removes the stored draft
func (w *AutosaveWorker) clear(key string, seq uint64) {
	w.mu.Lock()
	if p, ok := w.pending[key]; ok {
		p.timer.Stop()
		delete(w.pending, key)
	}
	if seq > w.clearedSeq[key] {
		w.clearedSeq[key] = seq
	}
	ctx := w.ctx
	w.wg.Add(1)
	w.mu.Unlock()

	defer w.wg.Done()

	w.ioMu.Lock()
	defer w.ioMu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.SaveTimeout)
	defer cancel()

	if err := w.store.ClearDraft(ctx, key); err != nil {
		w.logger.Warn("Failed to clear saved draft", zap.String("storage_key", key), zap.Error(err))
		return
	}
	w.logger.Debug("Saved draft cleared", zap.String("storage_key", key))
}

// PendingCount returns the number of drafts waiting for their quiet period
func (w *AutosaveWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
