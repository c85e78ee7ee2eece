package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/payee"
)

// SuggestRequest is one keystroke of the payee picker
type SuggestRequest struct {
	SessionID   string
	ExpenseType entity.ExpenseType
	Profiles    []entity.Payee
	Term        string
	Preselected *entity.Payee
}

// PayeeService lists payee candidates for the payee step
type PayeeService interface {
	// Suggest returns payee.ErrStaleSearch when a newer term superseded this one
	Suggest(ctx context.Context, req SuggestRequest) (*payee.Resolution, error)
	Forget(sessionID string)
}

type payeeServiceImpl struct {
	directory port.AccountDirectory
	filter    port.AccountFilter
	logger    Logger

	mu        sync.Mutex
	searchers map[string]*payee.Searcher
}

// NewPayeeService creates a new PayeeService
func NewPayeeService(directory port.AccountDirectory, filter port.AccountFilter, logger Logger) PayeeService {
	return &payeeServiceImpl{
		directory: directory,
		filter:    filter,
		logger:    logger,
		searchers: make(map[string]*payee.Searcher),
	}
}

// Suggest searches the directory for the term, one in-flight search per session
func (s *payeeServiceImpl) Suggest(ctx context.Context, req SuggestRequest) (*payee.Resolution, error) {
	in := payee.ResolveInput{
		ExpenseType: req.ExpenseType,
		Profiles:    req.Profiles,
		SearchTerm:  req.Term,
		Preselected: req.Preselected,
	}

	if strings.TrimSpace(req.Term) != "" {
		results, err := s.searcher(req.SessionID).Search(ctx, req.Term)
		switch {
		case errors.Is(err, payee.ErrStaleSearch):
			return nil, err
		case err != nil:
			// directory failures narrow the list to known profiles
			s.logger.Error("Payee search failed", "session_id", req.SessionID, "term", req.Term, "error", err)
		default:
			in.SearchResults = results
		}
	}

	res := payee.Resolve(in)
	return &res, nil
}

// Forget drops the searcher of a closed session
func (s *payeeServiceImpl) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.searchers, sessionID)
}

func (s *payeeServiceImpl) searcher(sessionID string) *payee.Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	searcher, ok := s.searchers[sessionID]
	if !ok {
		searcher = payee.NewSearcher(s.directory, s.filter)
		s.searchers[sessionID] = searcher
	}
	return searcher
}
