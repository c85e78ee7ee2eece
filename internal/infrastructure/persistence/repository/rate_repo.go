package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateRepository implements port.RateCache. Rates are keyed by currency
// pair and the calendar day they were requested for, and expire after ttl.
type RateRepository struct {
	db     *sql.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewRateRepository creates a new rate repository. A zero ttl never expires rates.
func NewRateRepository(db *sql.DB, ttl time.Duration, logger *zap.Logger) *RateRepository {
	return &RateRepository{
		db:     db,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// GetRate returns the cached rate, or nil when missing or expired
func (r *RateRepository) GetRate(ctx context.Context, query port.RateQuery) (*entity.ExchangeRate, error) {
	stmt := `
		SELECT value, source, is_approximate, rate_date, fetched_at
		FROM exchange_rates
		WHERE from_currency = ? AND to_currency = ? AND rate_day = ?
	`

	var (
		value       string
		source      string
		approximate bool
		rateDate    string
		fetchedAt   time.Time
	)
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, stmt,
		query.FromCurrency, query.ToCurrency, query.Date.Format(dayLayout),
	).Scan(&value, &source, &approximate, &rateDate, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get exchange rate",
			zap.String("from", query.FromCurrency),
			zap.String("to", query.ToCurrency),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	if r.ttl > 0 && r.now().Sub(fetchedAt) > r.ttl {
		return nil, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached rate %q: %w", value, err)
	}

	date := query.Date
	if rateDate != "" {
		if parsed, err := time.Parse(dayLayout, rateDate); err == nil {
			date = parsed
		}
	}

	return &entity.ExchangeRate{
		Value:         decimal.NewNullDecimal(d),
		Source:        entity.RateSource(source),
		FromCurrency:  query.FromCurrency,
		ToCurrency:    query.ToCurrency,
		Date:          date,
		IsApproximate: approximate,
		RequestedFor:  query.Date,
	}, nil
}

// PutRate caches a rate for its pair and lookup day, replacing any earlier value
func (r *RateRepository) PutRate(ctx context.Context, rate entity.ExchangeRate) error {
	if !rate.HasValue() {
		return fmt.Errorf("refusing to cache %s->%s rate without a value", rate.FromCurrency, rate.ToCurrency)
	}

	stmt := `
		INSERT INTO exchange_rates (
			from_currency, to_currency, rate_day, value, source, is_approximate, rate_date, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_currency, to_currency, rate_day) DO UPDATE SET
			value = excluded.value,
			rate_date = excluded.rate_date,
			source = excluded.source,
			is_approximate = excluded.is_approximate,
			fetched_at = excluded.fetched_at
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, stmt,
		rate.FromCurrency,
		rate.ToCurrency,
		rate.LookupDay().Format(dayLayout),
		rate.Value.Decimal.String(),
		string(rate.Source),
		rate.IsApproximate,
		formatDay(rate.Date),
		r.now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to cache exchange rate",
			zap.String("from", rate.FromCurrency),
			zap.String("to", rate.ToCurrency),
			zap.Error(err))
		return fmt.Errorf("failed to cache exchange rate: %w", err)
	}
	return nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}

// Purge deletes rates fetched before the ttl window
func (r *RateRepository) Purge(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM exchange_rates WHERE fetched_at < ?`, r.now().UTC().Add(-r.ttl))
	if err != nil {
		r.logger.Error("Failed to purge exchange rates", zap.Error(err))
		return 0, fmt.Errorf("failed to purge exchange rates: %w", err)
	}
	return result.RowsAffected()
}

// Verify interface compliance
var _ port.RateCache = (*RateRepository)(nil)
