package port

import (
	"context"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/submission"
)

// DraftStore keeps in-progress drafts so they survive accidental navigation.
// It is not a system of record.
type DraftStore interface {
	LoadDraft(ctx context.Context, key string) (*entity.ExpenseDraft, error)
	SaveDraft(ctx context.Context, key string, draft entity.ExpenseDraft) error
	ClearDraft(ctx context.Context, key string) error
}

// RateCache shares resolved exchange rates across items and sessions
type RateCache interface {
	GetRate(ctx context.Context, query RateQuery) (*entity.ExchangeRate, error)
	PutRate(ctx context.Context, rate entity.ExchangeRate) error
}

// SubmissionRecord is a payload handed off to the submission service
type SubmissionRecord struct {
	ID          int64
	SessionID   string
	ExpenseID   string
	LegacyID    int64
	Type        entity.ExpenseType
	Currency    string
	TotalAmount int64
	Payload     submission.Payload
	CreatedAt   time.Time
}

// SubmissionRecorder records payloads once the submission service accepted them
type SubmissionRecorder interface {
	Record(ctx context.Context, record *SubmissionRecord) error
	GetByExpenseID(ctx context.Context, expenseID string) (*SubmissionRecord, error)
	List(ctx context.Context, limit, offset int) ([]*SubmissionRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
