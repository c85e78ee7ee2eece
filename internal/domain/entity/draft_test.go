package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExpenseDraft_Status(t *testing.T) {
	tests := []struct {
		name  string
		draft ExpenseDraft
		want  DraftStatus
	}{
		{"new draft", ExpenseDraft{}, DraftStatusNew},
		{"draft key wins", ExpenseDraft{ID: "exp-1", DraftKey: "k"}, DraftStatusDraft},
		{"existing by id", ExpenseDraft{ID: "exp-1"}, DraftStatusExisting},
		{"existing by legacy id", ExpenseDraft{LegacyID: 42}, DraftStatusExisting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.draft.Status())
		})
	}
}

func TestExpenseDraft_CloneDoesNotAlias(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d := ExpenseDraft{
		Type:     ExpenseTypeInvoice,
		Currency: "USD",
		Payee: &Payee{
			Kind:          PayeeKindExistingProfile,
			ID:            "acc-1",
			PayoutMethods: []PayoutMethod{{ID: "pm-1", Data: map[string]string{"email": "a@b.co"}}},
		},
		Items: []ExpenseItem{{
			ID:         "i1",
			IncurredAt: &at,
			Amount:     Amount{ValueInCents: 100, Currency: "EUR"},
			ExchangeRate: &ExchangeRate{
				Value:        decimal.NewNullDecimal(decimal.RequireFromString("1.1")),
				FromCurrency: "EUR",
				ToCurrency:   "USD",
			},
		}},
		PayeeLocation: &Location{Structured: map[string]string{"city": "Paris"}},
	}

	c := d.Clone()
	c.Items[0].ExchangeRate.ToCurrency = "GBP"
	*c.Items[0].IncurredAt = at.Add(time.Hour)
	c.Payee.PayoutMethods[0].Data["email"] = "x@y.co"
	c.PayeeLocation.Structured["city"] = "Lyon"

	assert.Equal(t, "USD", d.Items[0].ExchangeRate.ToCurrency)
	assert.Equal(t, at, *d.Items[0].IncurredAt)
	assert.Equal(t, "a@b.co", d.Payee.PayoutMethods[0].Data["email"])
	assert.Equal(t, "Paris", d.PayeeLocation.Structured["city"])
}

func TestLocation_NormalizedIsIdempotent(t *testing.T) {
	l := &Location{
		Country:    "FR",
		Structured: map[string]string{"address1": "1 rue de Rivoli", "city": "Paris", "postalCode": "75001"},
	}

	once := l.Normalized()
	twice := once.Normalized()

	assert.Equal(t, "1 rue de Rivoli\nParis\n75001", once.Address)
	assert.True(t, once.Equal(twice))
}

func TestPayoutMethod_SupportsCurrency(t *testing.T) {
	bank := &PayoutMethod{Type: PayoutMethodBankAccount, Currency: "EUR"}
	other := &PayoutMethod{Type: PayoutMethodOther, Currency: "EUR"}

	assert.True(t, bank.SupportsCurrency("EUR"))
	assert.False(t, bank.SupportsCurrency("USD"))
	assert.True(t, other.SupportsCurrency("USD"))
}

func TestPayee_VendorPayoutMethod(t *testing.T) {
	vendor := &Payee{Kind: PayeeKindVendor, PayoutMethods: []PayoutMethod{{ID: "pm-v", Type: PayoutMethodBankAccount}}}
	profile := &Payee{Kind: PayeeKindExistingProfile, PayoutMethods: []PayoutMethod{{ID: "pm-p"}}}

	assert.Equal(t, "pm-v", vendor.VendorPayoutMethod().ID)
	assert.Nil(t, profile.VendorPayoutMethod())
}

func TestConvertCents(t *testing.T) {
	assert.Equal(t, int64(1100), ConvertCents(1000, decimal.RequireFromString("1.1")))
	assert.Equal(t, int64(2), ConvertCents(3, decimal.RequireFromString("0.5")))
	assert.Equal(t, int64(1235), ConvertCents(1234, decimal.RequireFromString("1.0005")))
}

func TestExpenseDraft_ComputeTotals(t *testing.T) {
	d := ExpenseDraft{
		Currency: "USD",
		Items: []ExpenseItem{
			{Amount: Amount{ValueInCents: 1000, Currency: "USD"}},
			{
				Amount: Amount{ValueInCents: 1000, Currency: "EUR"},
				ExchangeRate: &ExchangeRate{
					Value:        decimal.NewNullDecimal(decimal.RequireFromString("1.1")),
					FromCurrency: "EUR",
					ToCurrency:   "USD",
				},
			},
		},
		Taxes: []Tax{{Type: TaxTypeVAT, Rate: 0.2}, {Type: TaxTypeVAT, Rate: 0.5, Disabled: true}},
	}

	totals := d.ComputeTotals(true)
	assert.Equal(t, int64(2100), totals.Subtotal)
	assert.Equal(t, int64(420), totals.TaxAmount)
	assert.Equal(t, int64(2520), totals.Total)
	assert.False(t, totals.Approximate)

	d.Items[1].ExchangeRate = nil
	totals = d.ComputeTotals(false)
	assert.Equal(t, int64(1000), totals.Total)
	assert.True(t, totals.Approximate)
}
