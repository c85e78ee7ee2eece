package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/submission"
)

// ErrRateNotFound is returned when the rate service has no rate for a currency pair
var ErrRateNotFound = errors.New("exchange rate not found")

// SubmissionError is a rejection returned by the submission service with a
// message that can be shown to the user
type SubmissionError struct {
	Message string
	Code    string
}

func (e *SubmissionError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// SubmissionService creates, invites and edits expenses on the platform
type SubmissionService interface {
	CreateExpense(ctx context.Context, payload submission.Payload) (*submission.Result, error)
	DraftExpenseAndInviteUser(ctx context.Context, payload submission.Payload) (*submission.Result, error)
	EditExpense(ctx context.Context, payload submission.Payload) (*submission.Result, error)
}

// RateQuery identifies the rate to fetch
type RateQuery struct {
	FromCurrency string
	ToCurrency   string
	Date         time.Time
}

// ExchangeRateService looks up exchange rates
type ExchangeRateService interface {
	GetExchangeRate(ctx context.Context, query RateQuery) (*entity.ExchangeRate, error)
}

// AccountFilter narrows account searches
type AccountFilter struct {
	Kinds []entity.PayeeKind
	Limit int
}

// AccountDirectory searches accounts and checks slug availability
type AccountDirectory interface {
	SearchAccounts(ctx context.Context, term string, filter AccountFilter) ([]entity.Payee, error)
	ValidateSlugAvailability(ctx context.Context, slug string) (bool, error)
}

// ReceiptExtractor extracts item fields from an uploaded receipt file
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, content []byte, mimeType string) (*entity.ParsingResult, error)
}

// ReceiptStore keeps uploaded receipt files and returns the URL they are served from
type ReceiptStore interface {
	Save(ctx context.Context, sessionID, itemID string, content []byte, mimeType string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
