package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a value in the smallest currency unit
type Amount struct {
	ValueInCents int64  `json:"valueInCents"`
	Currency     string `json:"currency"`
}

// ExchangeRate converts an item amount into the expense currency
type ExchangeRate struct {
	Value         decimal.NullDecimal `json:"value"`
	Source        RateSource          `json:"source"`
	FromCurrency  string              `json:"fromCurrency"`
	ToCurrency    string              `json:"toCurrency"`
	Date          time.Time           `json:"date"`
	IsApproximate bool                `json:"isApproximate"`

	// RequestedFor is the day the rate was looked up for. The service may
	// answer with a rate dated on another day, e.g. the last business day.
	RequestedFor time.Time `json:"requestedFor,omitempty"`
}

// LookupDay returns the day the rate answers for
func (r *ExchangeRate) LookupDay() time.Time {
	if r == nil {
		return time.Time{}
	}
	if !r.RequestedFor.IsZero() {
		return r.RequestedFor
	}
	return r.Date
}

// HasValue returns true when the rate carries a usable positive value
func (r *ExchangeRate) HasValue() bool {
	return r != nil && r.Value.Valid && r.Value.Decimal.IsPositive()
}

// Matches returns true if the rate converts from -> to
func (r *ExchangeRate) Matches(from, to string) bool {
	return r != nil && r.FromCurrency == from && r.ToCurrency == to
}

// ParsingResult holds values extracted by OCR from an uploaded receipt
type ParsingResult struct {
	Description string     `json:"description,omitempty"`
	Amount      *Amount    `json:"amount,omitempty"`
	IncurredAt  *time.Time `json:"incurredAt,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"`
}

// ExpenseItem is a single line of an expense
type ExpenseItem struct {
	ID               string         `json:"id"`
	Description      string         `json:"description"`
	IncurredAt       *time.Time     `json:"incurredAt,omitempty"`
	Amount           Amount         `json:"amount"`
	ExchangeRate     *ExchangeRate  `json:"exchangeRate,omitempty"`
	URL              string         `json:"url,omitempty"`
	UploadInProgress bool           `json:"uploadInProgress,omitempty"`
	ParsingResult    *ParsingResult `json:"parsingResult,omitempty"`
}

// HasAmount returns true if the user entered a non-zero amount
func (i ExpenseItem) HasAmount() bool {
	return i.Amount.ValueInCents > 0
}

// CurrencyOr returns the item currency, defaulting to the expense currency
func (i ExpenseItem) CurrencyOr(expenseCurrency string) string {
	if i.Amount.Currency != "" {
		return i.Amount.Currency
	}
	return expenseCurrency
}

// Clone returns a deep copy of the item
func (i ExpenseItem) Clone() ExpenseItem {
	out := i
	if i.IncurredAt != nil {
		t := *i.IncurredAt
		out.IncurredAt = &t
	}
	if i.ExchangeRate != nil {
		r := *i.ExchangeRate
		out.ExchangeRate = &r
	}
	if i.ParsingResult != nil {
		p := *i.ParsingResult
		if p.Amount != nil {
			a := *p.Amount
			p.Amount = &a
		}
		if p.IncurredAt != nil {
			t := *p.IncurredAt
			p.IncurredAt = &t
		}
		out.ParsingResult = &p
	}
	return out
}
