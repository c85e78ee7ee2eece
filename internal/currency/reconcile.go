package currency

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// InvalidateStaleRates clears every item rate that no longer converts into
// the expense currency. Afterwards no item carries a rate whose ToCurrency
// differs from the draft currency.
func InvalidateStaleRates(d entity.ExpenseDraft) entity.ExpenseDraft {
	out := d.Clone()
	for i := range out.Items {
		item := &out.Items[i]
		if item.ExchangeRate == nil {
			continue
		}
		itemCurrency := item.CurrencyOr(out.Currency)
		if out.Currency == "" || itemCurrency == out.Currency || !item.ExchangeRate.Matches(itemCurrency, out.Currency) {
			item.ExchangeRate = nil
		}
	}
	return out
}

// ReconcileExpenseCurrency keeps the expense currency payable by the
// selected payout method. With no amounts entered yet the currency silently
// follows the payout method; otherwise it is cleared so the submitter picks
// one explicitly. Amounts are never reinterpreted.
func ReconcileExpenseCurrency(d entity.ExpenseDraft) entity.ExpenseDraft {
	out := d.Clone()
	pm := out.PayoutMethod

	switch {
	case pm == nil:
	case out.Currency == "" && pm.Currency != "" && !out.HasItemAmounts():
		out.Currency = pm.Currency
	case out.Currency != "" && !pm.SupportsCurrency(out.Currency):
		if out.HasItemAmounts() {
			out.Currency = ""
		} else {
			out.Currency = pm.Currency
		}
	}

	return InvalidateStaleRates(out)
}

// ApplyRate stores rate on the item with itemID when it still needs the
// request the rate answers. It reports whether the draft changed.
func ApplyRate(d entity.ExpenseDraft, itemID string, req Request, rate entity.ExchangeRate, today Clock) (entity.ExpenseDraft, bool) {
	idx := d.ItemIndex(itemID)
	if idx < 0 {
		return d, false
	}
	plan := PlanItem(d.Items[idx], d.Currency, today())
	if plan.Action != ActionFetch || plan.Request != req {
		return d, false
	}
	out := d.Clone()
	r := rate
	out.Items[idx].ExchangeRate = &r
	return out, true
}

// SetManualRate records a rate entered by the submitter for an item
func SetManualRate(d entity.ExpenseDraft, itemID string, value decimal.Decimal) (entity.ExpenseDraft, bool) {
	idx := d.ItemIndex(itemID)
	if idx < 0 || d.Currency == "" {
		return d, false
	}
	out := d.Clone()
	item := &out.Items[idx]
	itemCurrency := item.CurrencyOr(out.Currency)
	if itemCurrency == out.Currency {
		return d, false
	}

	rate := entity.ExchangeRate{
		Source:       entity.RateSourceUser,
		FromCurrency: itemCurrency,
		ToCurrency:   out.Currency,
	}
	if item.IncurredAt != nil {
		rate.Date = Day(*item.IncurredAt)
	}
	if value.IsPositive() {
		rate.Value = decimal.NewNullDecimal(value)
	}
	item.ExchangeRate = &rate
	return out, true
}

// Convert returns round(valueInCents * rate)
func Convert(valueInCents int64, rate decimal.Decimal) int64 {
	return entity.ConvertCents(valueInCents, rate)
}
