package submission_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/submission"
	"github.com/garyjia/expense-intake/internal/validation"
)

func at(y int, m time.Month, d, h int) *time.Time {
	t := time.Date(y, m, d, h, 30, 0, 0, time.UTC)
	return &t
}

func invoiceDraft() entity.ExpenseDraft {
	return entity.ExpenseDraft{
		Type:        entity.ExpenseTypeInvoice,
		Description: "  Website redesign \n",
		Currency:    "USD",
		Tags:        []string{" Design", "design", ""},
		Payee: &entity.Payee{
			Kind:     entity.PayeeKindExistingProfile,
			ID:       "acc-1",
			LegacyID: 11,
			Name:     "Jane",
			Location: &entity.Location{Country: "US", Address: "1 Main St"},
		},
		PayoutMethod: &entity.PayoutMethod{
			ID:       "tmp-pm",
			Type:     entity.PayoutMethodPayPal,
			Data:     map[string]string{"email": " jane@example.org "},
			IsSaved:  false,
			Currency: "USD",
		},
		PayeeLocation: &entity.Location{
			Country:    "us",
			Structured: map[string]string{"address1": "1 Main St", "city": "Springfield"},
		},
		AccountingCategory: &entity.AccountingCategory{ID: entity.UncategorizedAccountingCategoryID},
		Items: []entity.ExpenseItem{
			{
				ID:               "tmp-1",
				Description:      " Design work ",
				IncurredAt:       at(2024, 3, 1, 17),
				Amount:           entity.Amount{ValueInCents: 1000, Currency: "USD"},
				URL:              "https://files.example.org/a.pdf",
				UploadInProgress: true,
				ParsingResult:    &entity.ParsingResult{Description: "Design"},
			},
			{
				ID:          "tmp-2",
				Description: "Hosting",
				IncurredAt:  at(2024, 3, 2, 9),
				Amount:      entity.Amount{ValueInCents: 1000, Currency: "EUR"},
				ExchangeRate: &entity.ExchangeRate{
					Value:        decimal.NewNullDecimal(decimal.RequireFromString("1.1")),
					Source:       entity.RateSourceOpenCollective,
					FromCurrency: "EUR",
					ToCurrency:   "USD",
					Date:         *at(2024, 3, 2, 0),
				},
			},
		},
		Taxes: []entity.Tax{
			{Type: entity.TaxTypeVAT, Rate: 0.2, IDNumber: "fr 12345678901"},
			{Type: entity.TaxTypeVAT, Rate: 0},
			{Type: entity.TaxTypeGST, Rate: 0.1, Disabled: true},
		},
		AttachedFiles: []entity.AttachedFile{
			{URL: "https://files.example.org/contract.pdf", Name: "contract"},
			{URL: "https://files.example.org/partial.pdf", UploadInProgress: true},
		},
	}
}

func TestPrepare_Invoice(t *testing.T) {
	p := submission.Prepare(invoiceDraft())

	assert.Equal(t, "Website redesign", p.Description)
	assert.Equal(t, []string{"design"}, p.Tags)
	assert.Nil(t, p.ID)

	require.NotNil(t, p.Payee.ID)
	assert.Equal(t, "acc-1", *p.Payee.ID)
	assert.Nil(t, p.Payee.LegacyID, "stable id wins over legacy id")
	assert.Empty(t, p.Payee.Name)

	require.NotNil(t, p.PayoutMethod)
	assert.Nil(t, p.PayoutMethod.ID, "unsaved payout method must not carry an id")
	assert.Equal(t, "jane@example.org", p.PayoutMethod.Data["email"])

	require.NotNil(t, p.PayeeLocation)
	assert.Equal(t, "US", p.PayeeLocation.Country)
	assert.Equal(t, "1 Main St\nSpringfield", p.PayeeLocation.Address)

	require.NotNil(t, p.AccountingCategory)
	assert.Nil(t, p.AccountingCategory.ID)

	require.Len(t, p.Items, 2)
	assert.Nil(t, p.Items[0].ID)
	assert.Equal(t, "Design work", p.Items[0].Description)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *p.Items[0].IncurredAt)
	assert.Empty(t, p.Items[0].URL, "invoices do not carry receipts")
	require.NotNil(t, p.Items[1].ExchangeRate)
	assert.True(t, decimal.RequireFromString("1.1").Equal(p.Items[1].ExchangeRate.Value))

	require.Len(t, p.Taxes, 1)
	assert.Equal(t, "FR12345678901", p.Taxes[0].IDNumber)

	require.Len(t, p.AttachedFiles, 1)
	assert.Equal(t, "contract", p.AttachedFiles[0].Name)

	assert.Equal(t, int64(2520), p.TotalAmount)
	assert.Equal(t, int64(420), p.TaxAmount)
	assert.False(t, p.TotalIsApproximate)
}

func TestPrepare_OmitsLocationAndPayoutForInvites(t *testing.T) {
	d := invoiceDraft()
	d.Payee = &entity.Payee{
		Kind:  entity.PayeeKindInvitedOrganization,
		Name:  " Sam ",
		Email: "sam@example.org",
		Organization: &entity.InvitedOrganization{
			Name: "Acme", Slug: "acme", SlugStatus: entity.SlugStatusAvailable,
		},
	}

	p := submission.Prepare(d)

	assert.Nil(t, p.PayeeLocation)
	assert.Nil(t, p.PayoutMethod)
	assert.Equal(t, "Sam", p.Payee.Name)
	require.NotNil(t, p.Payee.Organization)
	assert.Equal(t, "acme", p.Payee.Organization.Slug)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "payeeLocation", "location is omitted, never sent empty")
}

func TestPrepare_TypeSpecificStripping(t *testing.T) {
	d := invoiceDraft()
	d.Type = entity.ExpenseTypeGrant

	p := submission.Prepare(d)
	assert.Empty(t, p.AttachedFiles, "grants do not support attachments")
	assert.Empty(t, p.Taxes, "grants do not support taxes")

	d.Type = entity.ExpenseTypeReceipt
	p = submission.Prepare(d)
	assert.Equal(t, "https://files.example.org/a.pdf", p.Items[0].URL)
	assert.Nil(t, p.PayeeLocation)
}

func TestPrepare_LegacyFallbackAndSavedMethod(t *testing.T) {
	d := invoiceDraft()
	d.Payee.ID = ""
	d.PayoutMethod = &entity.PayoutMethod{ID: "pm-9", Type: entity.PayoutMethodBankAccount, IsSaved: true, Data: map[string]string{"iban": "x"}}

	p := submission.Prepare(d)
	require.NotNil(t, p.Payee.LegacyID)
	assert.Equal(t, int64(11), *p.Payee.LegacyID)
	require.NotNil(t, p.PayoutMethod.ID)
	assert.Equal(t, "pm-9", *p.PayoutMethod.ID)
	assert.Nil(t, p.PayoutMethod.Data)
}

func TestPrepare_ExistingExpenseKeepsIDs(t *testing.T) {
	d := invoiceDraft()
	d.ID = "exp-1"

	p := submission.Prepare(d)
	require.NotNil(t, p.ID)
	assert.True(t, p.IsEdit())
	require.NotNil(t, p.Items[0].ID)
	assert.Equal(t, "tmp-1", *p.Items[0].ID)

	d.DraftKey = "draft-key"
	p = submission.Prepare(d)
	assert.False(t, p.IsEdit())
	assert.Equal(t, "draft-key", p.DraftKey)
}

func TestPrepare_IsIdempotentAndPure(t *testing.T) {
	d := invoiceDraft()
	before := d.Clone()

	first := submission.Prepare(d)
	second := submission.Prepare(d)

	assert.Equal(t, first, second)
	assert.Equal(t, before, d, "Prepare must not mutate the draft")
}

func TestPrepare_ValidDraftHasRequiredFields(t *testing.T) {
	d := invoiceDraft()
	d.Description = "Website redesign"
	d.Items[0].UploadInProgress = false
	require.Nil(t, validation.Validate(d, validation.ContextFor(d, validation.Policy{})))

	p := submission.Prepare(d)
	assert.NotEmpty(t, p.Currency)
	assert.NotEmpty(t, p.Description)
	assert.NotNil(t, p.Payee.ID)
	assert.NotNil(t, p.PayoutMethod)
	assert.NotNil(t, p.PayeeLocation)
	for _, item := range p.Items {
		assert.NotNil(t, item.IncurredAt)
		assert.NotEmpty(t, item.Amount.Currency)
	}
}

func TestDraftFromPayload_RoundTripValidates(t *testing.T) {
	policy := validation.Policy{RequireAccountingCategory: true}

	drafts := map[string]entity.ExpenseDraft{
		"invoice": invoiceDraft(),
		"invite": func() entity.ExpenseDraft {
			d := invoiceDraft()
			d.Payee = &entity.Payee{
				Kind: entity.PayeeKindInvitedOrganization, Name: "Sam", Email: "sam@example.org",
				Organization: &entity.InvitedOrganization{Name: "Acme", Slug: "acme", SlugStatus: entity.SlugStatusAvailable},
			}
			d.PayoutMethod = nil
			return d
		}(),
		"grant": func() entity.ExpenseDraft {
			d := invoiceDraft()
			d.Type = entity.ExpenseTypeGrant
			d.Items[0].IncurredAt = nil
			return d
		}(),
	}

	for name, d := range drafts {
		t.Run(name, func(t *testing.T) {
			d.Items[0].UploadInProgress = false
			require.Nil(t, validation.Validate(d, validation.ContextFor(d, policy)))

			p := submission.Prepare(d)
			reopened := submission.DraftFromPayload(p)
			errs := validation.Validate(reopened, validation.ContextFor(reopened, policy))
			assert.Nil(t, errs, "round-trip errors: %v", errs.Paths())

			assert.Equal(t, p, submission.Prepare(reopened), "prepare(draftFromPayload(p)) == p")
		})
	}
}
