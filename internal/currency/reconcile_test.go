package currency

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

func draftWithPayout(currency string, pmCurrency string, amounts ...int64) entity.ExpenseDraft {
	d := entity.ExpenseDraft{
		Type:         entity.ExpenseTypeInvoice,
		Currency:     currency,
		PayoutMethod: &entity.PayoutMethod{ID: "pm", Type: entity.PayoutMethodBankAccount, Currency: pmCurrency, IsSaved: true},
	}
	for i, v := range amounts {
		d.Items = append(d.Items, entity.ExpenseItem{ID: string(rune('a' + i)), Amount: entity.Amount{ValueInCents: v}})
	}
	return d
}

func TestReconcileExpenseCurrency(t *testing.T) {
	tests := []struct {
		name  string
		draft entity.ExpenseDraft
		want  string
	}{
		{"supported currency is kept", draftWithPayout("EUR", "EUR", 100), "EUR"},
		{"unsupported without amounts follows payout method", draftWithPayout("USD", "EUR", 0), "EUR"},
		{"unsupported with amounts is cleared", draftWithPayout("USD", "EUR", 100), ""},
		{"empty currency defaults from payout method", draftWithPayout("", "GBP"), "GBP"},
		{"empty currency stays empty under amounts", draftWithPayout("", "GBP", 100), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileExpenseCurrency(tt.draft)
			assert.Equal(t, tt.want, got.Currency)
			for i := range got.Items {
				assert.Equal(t, tt.draft.Items[i].Amount, got.Items[i].Amount, "amounts are never reinterpreted")
			}
		})
	}
}

func TestApplyRate_DiscardsStaleResponses(t *testing.T) {
	incurred := march1
	d := entity.ExpenseDraft{
		Currency: "USD",
		Items:    []entity.ExpenseItem{{ID: "i1", IncurredAt: &incurred, Amount: entity.Amount{ValueInCents: 1000, Currency: "EUR"}}},
	}
	clock := func() time.Time { return march1 }
	req := NewRequest("EUR", "USD", incurred)
	r := entity.ExchangeRate{Value: decimal.NewNullDecimal(decimal.RequireFromString("1.1")), Source: entity.RateSourceOpenCollective, FromCurrency: "EUR", ToCurrency: "USD", Date: req.Date}

	out, changed := ApplyRate(d, "i1", req, r, clock)
	require.True(t, changed)
	assert.Nil(t, d.Items[0].ExchangeRate, "input draft is untouched")
	assert.True(t, out.Items[0].ExchangeRate.HasValue())

	d.Currency = "GBP"
	_, changed = ApplyRate(d, "i1", req, r, clock)
	assert.False(t, changed, "response for the old currency pair is dropped")

	_, changed = ApplyRate(d, "missing", req, r, clock)
	assert.False(t, changed)
}

func TestSetManualRate(t *testing.T) {
	d := entity.ExpenseDraft{
		Currency: "USD",
		Items:    []entity.ExpenseItem{{ID: "i1", Amount: entity.Amount{ValueInCents: 1000, Currency: "EUR"}}},
	}

	out, ok := SetManualRate(d, "i1", decimal.RequireFromString("1.25"))
	require.True(t, ok)
	assert.Equal(t, entity.RateSourceUser, out.Items[0].ExchangeRate.Source)
	v, ok := out.Items[0].ValueIn("USD")
	require.True(t, ok)
	assert.Equal(t, int64(1250), v)
}

// After any sequence of currency edits no item keeps a rate into another currency.
func TestInvalidateStaleRates_CurrencyInvariant(t *testing.T) {
	currencies := []string{"", "USD", "EUR", "GBP"}
	rng := rand.New(rand.NewSource(7))

	d := entity.ExpenseDraft{Currency: "USD"}
	for i := 0; i < 4; i++ {
		d.Items = append(d.Items, entity.ExpenseItem{ID: string(rune('a' + i)), Amount: entity.Amount{ValueInCents: 100}})
	}

	for step := 0; step < 200; step++ {
		switch rng.Intn(3) {
		case 0:
			d.Currency = currencies[rng.Intn(len(currencies))]
		case 1:
			i := rng.Intn(len(d.Items))
			d.Items[i].Amount.Currency = currencies[1+rng.Intn(len(currencies)-1)]
		case 2:
			i := rng.Intn(len(d.Items))
			d.Items[i].ExchangeRate = rate(d.Items[i].CurrencyOr(d.Currency), d.Currency, "1.5", entity.RateSourceOpenCollective, march1)
		}
		d = InvalidateStaleRates(d)

		for _, item := range d.Items {
			if item.ExchangeRate != nil {
				require.Equal(t, d.Currency, item.ExchangeRate.ToCurrency, "step %d", step)
			}
		}
	}
}
