package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-intake/internal/submission"
	"github.com/garyjia/expense-intake/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(database.Config{Path: database.MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run(context.Background(), database.Migrations()))
	return db.DB
}

func sampleDraft() entity.ExpenseDraft {
	incurred := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return entity.ExpenseDraft{
		Type:        entity.ExpenseTypeReceipt,
		Currency:    "USD",
		Description: "Conference travel",
		Payee:       &entity.Payee{Kind: entity.PayeeKindExistingProfile, ID: "acc-1", Slug: "alice"},
		Items: []entity.ExpenseItem{{
			ID:          "item-1",
			Description: "Train",
			IncurredAt:  &incurred,
			Amount:      entity.Amount{ValueInCents: 4200, Currency: "EUR"},
			ExchangeRate: &entity.ExchangeRate{
				Value:        decimal.NewNullDecimal(decimal.RequireFromString("1.1")),
				Source:       entity.RateSourceOpenCollective,
				FromCurrency: "EUR",
				ToCurrency:   "USD",
				Date:         incurred,
			},
		}},
	}
}

func TestDraftRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository(setupTestDB(t), zap.NewNop())

	t.Run("missing key loads nil", func(t *testing.T) {
		draft, err := repo.LoadDraft(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, draft)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, repo.SaveDraft(ctx, "key-1", sampleDraft()))

		loaded, err := repo.LoadDraft(ctx, "key-1")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "Conference travel", loaded.Description)
		require.Len(t, loaded.Items, 1)
		assert.Equal(t, int64(4200), loaded.Items[0].Amount.ValueInCents)
		assert.True(t, loaded.Items[0].ExchangeRate.Value.Decimal.Equal(decimal.RequireFromString("1.1")))
	})

	t.Run("save overwrites", func(t *testing.T) {
		draft := sampleDraft()
		draft.Description = "Updated"
		require.NoError(t, repo.SaveDraft(ctx, "key-1", draft))

		loaded, err := repo.LoadDraft(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, "Updated", loaded.Description)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, repo.ClearDraft(ctx, "key-1"))
		require.NoError(t, repo.ClearDraft(ctx, "key-1"))

		loaded, err := repo.LoadDraft(ctx, "key-1")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, repo.SaveDraft(ctx, "", sampleDraft()))
	})
}

func TestRateRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	repo := NewRateRepository(setupTestDB(t), time.Hour, zap.NewNop())
	repo.now = func() time.Time { return now }

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	query := port.RateQuery{FromCurrency: "EUR", ToCurrency: "USD", Date: day}
	rate := entity.ExchangeRate{
		Value:        decimal.NewNullDecimal(decimal.RequireFromString("1.0842")),
		Source:       entity.RateSourceOpenCollective,
		FromCurrency: "EUR",
		ToCurrency:   "USD",
		Date:         day,
	}

	t.Run("miss", func(t *testing.T) {
		got, err := repo.GetRate(ctx, query)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("hit", func(t *testing.T) {
		require.NoError(t, repo.PutRate(ctx, rate))

		got, err := repo.GetRate(ctx, query)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Value.Decimal.Equal(rate.Value.Decimal))
		assert.Equal(t, entity.RateSourceOpenCollective, got.Source)
		assert.Equal(t, "EUR", got.FromCurrency)
	})

	t.Run("other day misses", func(t *testing.T) {
		other := query
		other.Date = day.AddDate(0, 0, 1)
		got, err := repo.GetRate(ctx, other)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired", func(t *testing.T) {
		repo.now = func() time.Time { return now.Add(2 * time.Hour) }
		defer func() { repo.now = func() time.Time { return now } }()

		got, err := repo.GetRate(ctx, query)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("purge", func(t *testing.T) {
		repo.now = func() time.Time { return now.Add(48 * time.Hour) }
		defer func() { repo.now = func() time.Time { return now } }()

		n, err := repo.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("rate without value rejected", func(t *testing.T) {
		empty := rate
		empty.Value = decimal.NullDecimal{}
		assert.Error(t, repo.PutRate(ctx, empty))
	})

	t.Run("keyed by the requested day", func(t *testing.T) {
		sunday := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
		friday := sunday.AddDate(0, 0, -2)
		weekend := rate
		weekend.Date = friday
		weekend.RequestedFor = sunday
		require.NoError(t, repo.PutRate(ctx, weekend))

		got, err := repo.GetRate(ctx, port.RateQuery{FromCurrency: "EUR", ToCurrency: "USD", Date: sunday})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, friday, got.Date)
		assert.Equal(t, sunday, got.RequestedFor)

		got, err = repo.GetRate(ctx, port.RateQuery{FromCurrency: "EUR", ToCurrency: "USD", Date: friday})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSubmissionRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db, zap.NewNop())
	created := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	record := func(expenseID string, at time.Time) *port.SubmissionRecord {
		return &port.SubmissionRecord{
			SessionID:   "session-1",
			ExpenseID:   expenseID,
			LegacyID:    42,
			Type:        entity.ExpenseTypeReceipt,
			Currency:    "USD",
			TotalAmount: 4620,
			Payload: submission.Payload{
				Type:        entity.ExpenseTypeReceipt,
				Description: "Conference travel",
				Currency:    "USD",
				Payee:       submission.PayeeInput{Kind: entity.PayeeKindExistingProfile},
				Items:       []submission.ItemInput{{Description: "Train", Amount: entity.Amount{ValueInCents: 4200, Currency: "EUR"}}},
				TotalAmount: 4620,
			},
			CreatedAt: at,
		}
	}

	first := record("exp-1", created)
	require.NoError(t, repo.Record(ctx, first))
	assert.NotZero(t, first.ID)

	second := record("exp-2", created.Add(time.Minute))
	require.NoError(t, repo.Record(ctx, second))

	t.Run("get by expense id", func(t *testing.T) {
		got, err := repo.GetByExpenseID(ctx, "exp-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, int64(42), got.LegacyID)
		assert.Equal(t, "Conference travel", got.Payload.Description)
		require.Len(t, got.Payload.Items, 1)
		assert.Equal(t, int64(4200), got.Payload.Items[0].Amount.ValueInCents)
	})

	t.Run("unknown expense", func(t *testing.T) {
		got, err := repo.GetByExpenseID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list newest first", func(t *testing.T) {
		records, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "exp-2", records[0].ExpenseID)
		assert.Equal(t, "exp-1", records[1].ExpenseID)

		page, err := repo.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "exp-1", page[0].ExpenseID)
	})

	t.Run("rolled back with the transaction", func(t *testing.T) {
		tm := sqlite.NewDB(db, zap.NewNop())
		err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := repo.Record(txCtx, record("exp-3", created)); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		got, err := repo.GetByExpenseID(ctx, "exp-3")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
