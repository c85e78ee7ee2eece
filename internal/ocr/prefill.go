package ocr

import (
	"strings"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// Prefill copies extracted values into the empty fields of item. Fields the
// submitter already filled are never overwritten. It reports whether
// anything changed.
func Prefill(item entity.ExpenseItem) (entity.ExpenseItem, bool) {
	parsed := item.ParsingResult
	if parsed == nil {
		return item, false
	}

	out := item.Clone()
	changed := false

	if strings.TrimSpace(out.Description) == "" && strings.TrimSpace(parsed.Description) != "" {
		out.Description = strings.TrimSpace(parsed.Description)
		changed = true
	}

	if out.Amount.ValueInCents == 0 && parsed.Amount != nil && parsed.Amount.ValueInCents > 0 {
		out.Amount.ValueInCents = parsed.Amount.ValueInCents
		if out.Amount.Currency == "" {
			out.Amount.Currency = strings.ToUpper(parsed.Amount.Currency)
		}
		changed = true
	}

	if out.IncurredAt == nil && parsed.IncurredAt != nil && !parsed.IncurredAt.IsZero() {
		at := *parsed.IncurredAt
		out.IncurredAt = &at
		changed = true
	}

	if !changed {
		return item, false
	}
	return out, true
}
