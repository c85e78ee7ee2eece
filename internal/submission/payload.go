package submission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// Payload is the canonical request handed to the submission service
type Payload struct {
	ID       *string `json:"id,omitempty"`
	LegacyID *int64  `json:"legacyId,omitempty"`
	DraftKey string  `json:"draftKey,omitempty"`

	Type           entity.ExpenseType `json:"type"`
	Description    string             `json:"description"`
	InvoiceInfo    string             `json:"invoiceInfo,omitempty"`
	Reference      string             `json:"reference,omitempty"`
	PrivateMessage string             `json:"privateMessage,omitempty"`
	Tags           []string           `json:"tags,omitempty"`
	Currency       string             `json:"currency"`

	Payee              PayeeInput             `json:"payee"`
	PayoutMethod       *PayoutMethodInput     `json:"payoutMethod,omitempty"`
	PayeeLocation      *LocationInput         `json:"payeeLocation,omitempty"`
	AccountingCategory *AccountingCategoryRef `json:"accountingCategory,omitempty"`

	Items         []ItemInput         `json:"items"`
	Taxes         []TaxInput          `json:"taxes,omitempty"`
	AttachedFiles []AttachedFileInput `json:"attachedFiles,omitempty"`

	TotalAmount        int64 `json:"totalAmount"`
	TaxAmount          int64 `json:"taxAmount,omitempty"`
	TotalIsApproximate bool  `json:"totalIsApproximate,omitempty"`
}

// IsInvite returns true when the payload invites a new payee
func (p Payload) IsInvite() bool {
	return p.Payee.Kind.IsInvite()
}

// IsEdit returns true when the payload updates an existing expense
func (p Payload) IsEdit() bool {
	return (p.ID != nil || p.LegacyID != nil) && p.DraftKey == ""
}

// PayeeInput is an account reference for existing payees and the invite
// details for invited ones
type PayeeInput struct {
	Kind         entity.PayeeKind   `json:"kind"`
	ID           *string            `json:"id,omitempty"`
	LegacyID     *int64             `json:"legacyId,omitempty"`
	Name         string             `json:"name,omitempty"`
	Email        string             `json:"email,omitempty"`
	LegalName    string             `json:"legalName,omitempty"`
	Organization *OrganizationInput `json:"organization,omitempty"`
}

// OrganizationInput describes an organization created by the invite
type OrganizationInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// PayoutMethodInput references a saved payout method or carries a new one.
// ID is nil for new methods so the backend persists them.
type PayoutMethodInput struct {
	ID       *string                 `json:"id"`
	Type     entity.PayoutMethodType `json:"type"`
	Name     string                  `json:"name,omitempty"`
	Currency string                  `json:"currency,omitempty"`
	Data     map[string]string       `json:"data,omitempty"`
}

// LocationInput is the payee legal address
type LocationInput struct {
	Address    string            `json:"address"`
	Country    string            `json:"country"`
	Structured map[string]string `json:"structured,omitempty"`
}

// AccountingCategoryRef references a host category. A nil ID explicitly
// marks the expense as uncategorized.
type AccountingCategoryRef struct {
	ID *string `json:"id"`
}

// ItemInput is one expense line without client-side bookkeeping
type ItemInput struct {
	ID           *string            `json:"id,omitempty"`
	Description  string             `json:"description"`
	IncurredAt   *time.Time         `json:"incurredAt,omitempty"`
	Amount       entity.Amount      `json:"amount"`
	ExchangeRate *ExchangeRateInput `json:"exchangeRate,omitempty"`
	URL          string             `json:"url,omitempty"`
}

// ExchangeRateInput is the rate used to convert an item into the expense currency
type ExchangeRateInput struct {
	Value         decimal.Decimal   `json:"value"`
	Source        entity.RateSource `json:"source"`
	FromCurrency  string            `json:"fromCurrency"`
	ToCurrency    string            `json:"toCurrency"`
	Date          time.Time         `json:"date"`
	IsApproximate bool              `json:"isApproximate,omitempty"`
}

// TaxInput is an active tax line
type TaxInput struct {
	Type     entity.TaxType `json:"type"`
	Rate     float64        `json:"rate"`
	IDNumber string         `json:"idNumber,omitempty"`
}

// AttachedFileInput is an uploaded supporting document
type AttachedFileInput struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// Result is returned by the submission service
type Result struct {
	ID       string `json:"id"`
	LegacyID int64  `json:"legacyId"`
	Status   string `json:"status,omitempty"`
	DraftKey string `json:"draftKey,omitempty"`
}
