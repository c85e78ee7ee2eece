package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/garyjia/expense-intake/internal/application/expenseform"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/validation"
)

// ErrSessionNotFound is returned for unknown or discarded session ids
var ErrSessionNotFound = errors.New("form session not found")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// OpenRequest describes the form to open
type OpenRequest struct {
	ExpenseType entity.ExpenseType
	// Currency overrides the default collective currency of a fresh draft
	Currency string
	// StorageKey restores a locally persisted draft saved under this key
	StorageKey string
	// Draft seeds the form with an existing expense or a draft to complete
	Draft *entity.ExpenseDraft
}

// SessionService opens, looks up and discards form sessions
type SessionService interface {
	Open(ctx context.Context, req OpenRequest) (*expenseform.Form, error)
	Get(id string) (*expenseform.Form, error)
	Discard(ctx context.Context, id string) error
	Count() int
	CloseAll()
}

type sessionServiceImpl struct {
	mu       sync.RWMutex
	sessions map[string]*expenseform.Form

	drafts          port.DraftStore
	deps            expenseform.Dependencies
	defaultCurrency string
	policy          validation.Policy
	logger          Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	drafts port.DraftStore,
	deps expenseform.Dependencies,
	defaultCurrency string,
	policy validation.Policy,
	logger Logger,
) SessionService {
	return &sessionServiceImpl{
		sessions:        make(map[string]*expenseform.Form),
		drafts:          drafts,
		deps:            deps,
		defaultCurrency: defaultCurrency,
		policy:          policy,
		logger:          logger,
	}
}

// Open creates a form session. A draft persisted under the storage key wins
// over a fresh one; restoring is best-effort.
func (s *sessionServiceImpl) Open(ctx context.Context, req OpenRequest) (*expenseform.Form, error) {
	defaultCurrency := s.defaultCurrency
	if req.Currency != "" {
		defaultCurrency = req.Currency
	}

	cfg := expenseform.Config{
		StorageKey:      req.StorageKey,
		ExpenseType:     req.ExpenseType,
		DefaultCurrency: defaultCurrency,
		Draft:           req.Draft,
		Policy:          s.policy,
	}

	if req.StorageKey != "" && req.Draft == nil && s.drafts != nil {
		saved, err := s.drafts.LoadDraft(ctx, req.StorageKey)
		switch {
		case err != nil:
			s.logger.Error("Failed to restore draft, starting fresh", "storage_key", req.StorageKey, "error", err)
		case saved != nil:
			cfg.Draft = saved
			s.logger.Info("Draft restored", "storage_key", req.StorageKey)
		}
	}

	form, err := expenseform.New(cfg, s.deps)
	if err != nil {
		return nil, fmt.Errorf("open form: %w", err)
	}

	s.mu.Lock()
	s.sessions[form.SessionID()] = form
	s.mu.Unlock()

	s.logger.Info("Form session opened",
		"session_id", form.SessionID(),
		"storage_key", form.StorageKey(),
		"state", form.State(),
	)
	return form, nil
}

// Get returns an open session
func (s *sessionServiceImpl) Get(id string) (*expenseform.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return form, nil
}

// Discard closes a session and forgets it. The persisted draft is kept so
// the submitter can come back to it.
func (s *sessionServiceImpl) Discard(ctx context.Context, id string) error {
	s.mu.Lock()
	form, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	form.Close()

	s.logger.Info("Form session discarded", "session_id", id)
	return nil
}

// Count returns the number of open sessions
func (s *sessionServiceImpl) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll closes every session, waiting for their background tasks
func (s *sessionServiceImpl) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*expenseform.Form)
	s.mu.Unlock()

	for _, form := range sessions {
		form.Close()
	}
}
