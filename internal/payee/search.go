package payee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// ErrStaleSearch is returned when a newer request superseded this one
var ErrStaleSearch = errors.New("superseded by a newer request")

// latest tracks the most recent request of a keyed task. Starting a new
// request cancels the previous one.
type latest struct {
	mu     sync.Mutex
	seq    uint64
	key    string
	cancel context.CancelFunc
}

func (l *latest) begin(ctx context.Context, key string) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.seq++
	l.key = key
	return ctx, l.seq
}

func (l *latest) isCurrent(seq uint64, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq == seq && l.key == key
}

// Searcher runs search-as-you-type queries; only the response for the
// latest term is returned, earlier ones fail with ErrStaleSearch
type Searcher struct {
	directory port.AccountDirectory
	filter    port.AccountFilter
	latest    latest
}

// NewSearcher creates a searcher over the account directory
func NewSearcher(directory port.AccountDirectory, filter port.AccountFilter) *Searcher {
	return &Searcher{directory: directory, filter: filter}
}

// Search queries the directory for term
func (s *Searcher) Search(ctx context.Context, term string) ([]entity.Payee, error) {
	term = strings.TrimSpace(term)
	ctx, seq := s.latest.begin(ctx, term)

	results, err := s.directory.SearchAccounts(ctx, term, s.filter)
	if !s.latest.isCurrent(seq, term) {
		return nil, ErrStaleSearch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	return results, nil
}

// SlugChecker checks organization slug availability, keyed by slug
type SlugChecker struct {
	directory port.AccountDirectory
	latest    latest
}

// NewSlugChecker creates a slug checker over the account directory
func NewSlugChecker(directory port.AccountDirectory) *SlugChecker {
	return &SlugChecker{directory: directory}
}

// Check reports whether slug is available
func (c *SlugChecker) Check(ctx context.Context, slug string) (bool, error) {
	ctx, seq := c.latest.begin(ctx, slug)

	available, err := c.directory.ValidateSlugAvailability(ctx, slug)
	if !c.latest.isCurrent(seq, slug) {
		return false, ErrStaleSearch
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slug %q: %w", slug, err)
	}
	return available, nil
}
