// Package ocr reconciles values extracted from receipts with the values
// the submitter entered. Results are advisory and never block submission.
package ocr

import (
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// Field names a compared item field
type Field string

const (
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldIncurredAt  Field = "incurredAt"
)

// FieldComparison is the result for one field
type FieldComparison struct {
	HasMismatch bool        `json:"hasMismatch"`
	OCRValue    interface{} `json:"ocrValue"`
	UserValue   interface{} `json:"userValue"`
}

// Comparison holds one entry per field the OCR service extracted a value for
type Comparison map[Field]FieldComparison

// HasMismatch returns true if any field mismatches
func (c Comparison) HasMismatch() bool {
	for _, f := range c {
		if f.HasMismatch {
			return true
		}
	}
	return false
}

// Compare diffs the parsing result of item against its current values.
// Fields without an extracted value are left out.
func Compare(item entity.ExpenseItem) Comparison {
	out := Comparison{}
	parsed := item.ParsingResult
	if parsed == nil {
		return out
	}

	if ocrDescription := strings.TrimSpace(parsed.Description); ocrDescription != "" {
		out[FieldDescription] = FieldComparison{
			HasMismatch: !sameText(ocrDescription, item.Description),
			OCRValue:    ocrDescription,
			UserValue:   item.Description,
		}
	}

	if parsed.Amount != nil && parsed.Amount.ValueInCents != 0 {
		out[FieldAmount] = FieldComparison{
			HasMismatch: !sameAmount(*parsed.Amount, item.Amount),
			OCRValue:    *parsed.Amount,
			UserValue:   item.Amount,
		}
	}

	if parsed.IncurredAt != nil && !parsed.IncurredAt.IsZero() {
		var user interface{}
		if item.IncurredAt != nil {
			user = *item.IncurredAt
		}
		out[FieldIncurredAt] = FieldComparison{
			HasMismatch: item.IncurredAt == nil || !sameDay(*parsed.IncurredAt, *item.IncurredAt),
			OCRValue:    *parsed.IncurredAt,
			UserValue:   user,
		}
	}

	return out
}

// CompareAll compares every item; results are indexed by item position
func CompareAll(items []entity.ExpenseItem) []Comparison {
	out := make([]Comparison, len(items))
	for i, item := range items {
		out[i] = Compare(item)
	}
	return out
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// sameAmount compares value and currency; an unset currency on either side
// does not count as a difference
func sameAmount(ocrAmount, userAmount entity.Amount) bool {
	if ocrAmount.ValueInCents != userAmount.ValueInCents {
		return false
	}
	if ocrAmount.Currency == "" || userAmount.Currency == "" {
		return true
	}
	return strings.EqualFold(ocrAmount.Currency, userAmount.Currency)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
