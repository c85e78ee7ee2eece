package validation

import (
	"strings"

	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/rules"
)

// ItemContext is the slice of the draft an item is validated against
type ItemContext struct {
	Requirements    rules.Requirements
	ExpenseCurrency string
}

// ItemContextFor builds the item context of a draft
func ItemContextFor(d entity.ExpenseDraft) ItemContext {
	return ItemContext{Requirements: rules.ForDraft(d), ExpenseCurrency: d.Currency}
}

// ValidateItem validates one expense item independently of the others
func ValidateItem(item entity.ExpenseItem, ctx ItemContext) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(item.Description) == "" {
		errs.add(FieldDescription, CodeRequired)
	}

	if ctx.Requirements.ItemIncurredAt && (item.IncurredAt == nil || item.IncurredAt.IsZero()) {
		errs.add(FieldIncurredAt, CodeRequired)
	}

	switch {
	case item.Amount.ValueInCents == 0:
		errs.add(FieldAmount, CodeRequired)
	case item.Amount.ValueInCents < 0:
		errs.add(FieldAmount, CodeMinValue)
	}

	if ctx.Requirements.ItemReceipt {
		switch {
		case item.UploadInProgress:
			errs.add(FieldURL, CodeUploadInProgress)
		case strings.TrimSpace(item.URL) == "":
			errs.add(FieldURL, CodeRequired)
		}
	}

	itemCurrency := item.CurrencyOr(ctx.ExpenseCurrency)
	if item.Amount.Currency != "" && !currency.IsValidCode(item.Amount.Currency) {
		errs.add(FieldCurrency, CodeInvalidCurrency)
	} else if ctx.ExpenseCurrency != "" && itemCurrency != ctx.ExpenseCurrency {
		if !item.ExchangeRate.HasValue() || !item.ExchangeRate.Matches(itemCurrency, ctx.ExpenseCurrency) {
			errs.add(FieldExchangeRate, CodeExchangeRateMissing)
		}
	}

	return errs
}
