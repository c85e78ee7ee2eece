package currency

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// Resolver fetches exchange rates. Rate service failures never surface:
// when the service errors or has no rate, it returns a USER rate without
// value so the submitter enters one manually.
type Resolver struct {
	service port.ExchangeRateService
	cache   port.RateCache
	logger  *zap.Logger
	timeout time.Duration
	group   singleflight.Group
	now     func() time.Time
}

// Option configures the resolver
type Option func(*Resolver)

// WithCache shares resolved rates through cache
func WithCache(cache port.RateCache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithTimeout bounds each request to the rate service
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

// WithClock overrides the clock used for undated items
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a resolver backed by the given rate service
func NewResolver(service port.ExchangeRateService, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Today returns the resolver clock's current time
func (r *Resolver) Today() time.Time {
	return r.now()
}

// Plan plans the item against the resolver clock
func (r *Resolver) Plan(item entity.ExpenseItem, expenseCurrency string) Plan {
	return PlanItem(item, expenseCurrency, r.now())
}

// Resolve returns the rate for req. Concurrent calls for the same request
// share one call to the rate service, which is not cancelled when one of
// the callers goes away. The only error is ctx's own, returned when the
// caller is cancelled before the rate arrives.
func (r *Resolver) Resolve(ctx context.Context, req Request) (entity.ExchangeRate, error) {
	if err := ctx.Err(); err != nil {
		return entity.ExchangeRate{}, err
	}
	if cached := r.fromCache(ctx, req); cached != nil {
		return *cached, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(req.Key(), func() (interface{}, error) {
		return r.fetch(shared, req), nil
	})

	select {
	case res := <-ch:
		if err := ctx.Err(); err != nil {
			return entity.ExchangeRate{}, err
		}
		return res.Val.(entity.ExchangeRate), nil
	case <-ctx.Done():
		return entity.ExchangeRate{}, ctx.Err()
	}
}

func (r *Resolver) fetch(ctx context.Context, req Request) entity.ExchangeRate {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	rate, err := r.service.GetExchangeRate(ctx, req.Query())
	if err != nil || !rate.HasValue() {
		if err == nil {
			err = port.ErrRateNotFound
		}
		if errors.Is(err, port.ErrRateNotFound) {
			r.logger.Info("No exchange rate available, falling back to manual entry",
				zap.String("key", req.Key()))
		} else {
			r.logger.Warn("Exchange rate lookup failed, falling back to manual entry",
				zap.String("key", req.Key()),
				zap.Error(err))
		}
		return ManualRate(req)
	}

	out := *rate
	out.FromCurrency = req.From
	out.ToCurrency = req.To
	if out.Source == "" {
		out.Source = entity.RateSourceOpenCollective
	}
	if out.Date.IsZero() {
		out.Date = req.Date
	}
	out.RequestedFor = req.Date

	if r.cache != nil && out.Source == entity.RateSourceOpenCollective {
		if err := r.cache.PutRate(ctx, out); err != nil {
			r.logger.Warn("Failed to cache exchange rate", zap.String("key", req.Key()), zap.Error(err))
		}
	}
	return out
}

func (r *Resolver) fromCache(ctx context.Context, req Request) *entity.ExchangeRate {
	if r.cache == nil {
		return nil
	}
	rate, err := r.cache.GetRate(ctx, req.Query())
	if err != nil {
		r.logger.Warn("Rate cache lookup failed", zap.String("key", req.Key()), zap.Error(err))
		return nil
	}
	if !rate.HasValue() {
		return nil
	}
	rate.RequestedFor = req.Date
	return rate
}

// ManualRate is the fallback requiring the submitter to enter a value
func ManualRate(req Request) entity.ExchangeRate {
	return entity.ExchangeRate{
		Source:       entity.RateSourceUser,
		FromCurrency: req.From,
		ToCurrency:   req.To,
		Date:         req.Date,
		RequestedFor: req.Date,
	}
}
