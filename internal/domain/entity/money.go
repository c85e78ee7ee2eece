package entity

import "github.com/shopspring/decimal"

// ConvertCents converts an amount with rate, rounding half away from zero
func ConvertCents(valueInCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(valueInCents).Mul(rate).Round(0).IntPart()
}

// ValueIn returns the item amount expressed in expenseCurrency. The second
// result is false when a conversion is needed and no usable rate is present.
func (i ExpenseItem) ValueIn(expenseCurrency string) (int64, bool) {
	itemCurrency := i.CurrencyOr(expenseCurrency)
	if itemCurrency == expenseCurrency {
		return i.Amount.ValueInCents, true
	}
	if !i.ExchangeRate.HasValue() || !i.ExchangeRate.Matches(itemCurrency, expenseCurrency) {
		return 0, false
	}
	return ConvertCents(i.Amount.ValueInCents, i.ExchangeRate.Value.Decimal), true
}

// Totals is the amount summary of a draft in its own currency
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	TaxAmount   int64 `json:"taxAmount"`
	Total       int64 `json:"total"`
	Approximate bool  `json:"approximate"`
}

// ComputeTotals sums the items in the draft currency and applies the active taxes.
// Items that cannot be converted are left out and mark the result approximate.
func (d ExpenseDraft) ComputeTotals(withTaxes bool) Totals {
	var t Totals
	for _, item := range d.Items {
		v, ok := item.ValueIn(d.Currency)
		if !ok {
			t.Approximate = true
			continue
		}
		if item.ExchangeRate != nil && item.ExchangeRate.IsApproximate {
			t.Approximate = true
		}
		t.Subtotal += v
	}
	if withTaxes {
		for _, tax := range d.Taxes {
			if tax.IsActive() {
				t.TaxAmount += ConvertCents(t.Subtotal, decimal.NewFromFloat(tax.Rate))
			}
		}
	}
	t.Total = t.Subtotal + t.TaxAmount
	return t
}
