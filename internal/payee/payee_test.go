package payee

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/rules"
	"github.com/garyjia/expense-intake/internal/validation"
)

func profile(id string, methods ...entity.PayoutMethodType) entity.Payee {
	p := entity.Payee{Kind: entity.PayeeKindExistingProfile, ID: id, Slug: id, Name: "Profile " + id}
	for i, t := range methods {
		p.PayoutMethods = append(p.PayoutMethods, entity.PayoutMethod{ID: id + "-pm" + string(rune('0'+i)), Type: t, IsSaved: true})
	}
	return p
}

func TestStepOneCompleted(t *testing.T) {
	tests := []struct {
		name  string
		draft entity.ExpenseDraft
		want  bool
	}{
		{
			name:  "no payee selected",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice},
			want:  false,
		},
		{
			name:  "existing profile",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice, Payee: &entity.Payee{Kind: entity.PayeeKindExistingProfile, ID: "a"}},
			want:  true,
		},
		{
			name:  "profile without account reference",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice, Payee: &entity.Payee{Kind: entity.PayeeKindExistingProfile}},
			want:  false,
		},
		{
			name:  "two factor gate outstanding",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice, Payee: &entity.Payee{Kind: entity.PayeeKindExistingProfile, ID: "a", Requires2FA: true}},
			want:  false,
		},
		{
			name:  "incomplete invite",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice, Payee: &entity.Payee{Kind: entity.PayeeKindInvitedIndividual, Name: "Sam"}},
			want:  false,
		},
		{
			name:  "complete invite",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice, Payee: &entity.Payee{Kind: entity.PayeeKindInvitedIndividual, Name: "Sam", Email: "sam@example.org"}},
			want:  true,
		},
		{
			name: "organization invite with taken slug",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice, Payee: &entity.Payee{
				Kind: entity.PayeeKindInvitedOrganization, Name: "Sam", Email: "sam@example.org",
				Organization: &entity.InvitedOrganization{Name: "Acme", Slug: "acme", SlugStatus: entity.SlugStatusTaken},
			}},
			want: false,
		},
		{
			name:  "vendor not allowed on receipts",
			draft: entity.ExpenseDraft{Type: entity.ExpenseTypeReceipt, Payee: &entity.Payee{Kind: entity.PayeeKindVendor, ID: "v"}},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StepOneCompleted(tt.draft))
		})
	}
}

func TestIsCompatible(t *testing.T) {
	balanceOnly := profile("a", entity.PayoutMethodAccountBalance)
	assert.True(t, IsCompatible(&balanceOnly, entity.ExpenseTypeReceipt))
	assert.False(t, IsCompatible(&balanceOnly, entity.ExpenseTypeGrant))

	noMethods := profile("b")
	assert.True(t, IsCompatible(&noMethods, entity.ExpenseTypeGrant))

	vendor := entity.Payee{Kind: entity.PayeeKindVendor, ID: "v"}
	assert.False(t, IsCompatible(&vendor, entity.ExpenseTypeReceipt))
	assert.True(t, IsCompatible(nil, entity.ExpenseTypeInvoice))
}

func TestResolve(t *testing.T) {
	only := profile("jane", entity.PayoutMethodPayPal)
	balance := profile("acme", entity.PayoutMethodAccountBalance)

	t.Run("no payee selected leaves step one incomplete", func(t *testing.T) {
		res := Resolve(ResolveInput{ExpenseType: entity.ExpenseTypeInvoice})
		assert.Nil(t, res.Payee)
		assert.False(t, res.StepOneCompleted)
	})

	t.Run("sole compatible profile is selected", func(t *testing.T) {
		res := Resolve(ResolveInput{ExpenseType: entity.ExpenseTypeGrant, Profiles: []entity.Payee{only, balance}})
		require.NotNil(t, res.Payee)
		assert.Equal(t, "jane", res.Payee.ID)
		assert.True(t, res.StepOneCompleted)
		assert.Len(t, res.Candidates, 1)
	})

	t.Run("preselected payee wins", func(t *testing.T) {
		pre := profile("acme", entity.PayoutMethodBankAccount)
		res := Resolve(ResolveInput{ExpenseType: entity.ExpenseTypeInvoice, Profiles: []entity.Payee{only}, Preselected: &pre})
		require.NotNil(t, res.Payee)
		assert.Equal(t, "acme", res.Payee.ID)
	})

	t.Run("incompatible preselected payee is dropped", func(t *testing.T) {
		res := Resolve(ResolveInput{ExpenseType: entity.ExpenseTypeGrant, Profiles: []entity.Payee{only}, Preselected: &balance})
		assert.Nil(t, res.Payee)
		assert.False(t, res.StepOneCompleted)
	})

	t.Run("search term filters profiles and merges directory results", func(t *testing.T) {
		other := profile("bob", entity.PayoutMethodPayPal)
		res := Resolve(ResolveInput{
			ExpenseType:   entity.ExpenseTypeInvoice,
			Profiles:      []entity.Payee{only, other},
			SearchTerm:    "JAN",
			SearchResults: []entity.Payee{only, profile("janet", entity.PayoutMethodOther)},
		})
		require.Len(t, res.Candidates, 2)
		assert.Equal(t, "jane", res.Candidates[0].ID)
		assert.Equal(t, "janet", res.Candidates[1].ID)
	})
}

func TestSelect_VendorForcesPayoutMethod(t *testing.T) {
	incurred := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	vendor := &entity.Payee{
		Kind: entity.PayeeKindVendor,
		ID:   "vendor-1",
		PayoutMethods: []entity.PayoutMethod{{
			ID: "pm-vendor", Type: entity.PayoutMethodBankAccount, Currency: "USD", IsSaved: true,
		}},
	}
	d := entity.ExpenseDraft{
		Type:          entity.ExpenseTypeInvoice,
		Currency:      "USD",
		Description:   "Catering",
		PayoutMethod:  &entity.PayoutMethod{ID: "pm-mine", Type: entity.PayoutMethodPayPal, IsSaved: true},
		PayeeLocation: &entity.Location{Country: "US", Address: "1 Main St"},
		Items:         []entity.ExpenseItem{{ID: "i", Description: "Food", IncurredAt: &incurred, Amount: entity.Amount{ValueInCents: 100}}},
	}

	out := Select(d, vendor)

	require.NotNil(t, out.PayoutMethod)
	assert.Equal(t, "pm-vendor", out.PayoutMethod.ID)
	assert.False(t, rules.ForDraft(out).PayoutMethodEditable)
	assert.Equal(t, "pm-mine", d.PayoutMethod.ID, "input draft is untouched")

	// a user-chosen payout method is no longer required
	out.PayoutMethod = nil
	errs := validation.Validate(out, validation.ContextFor(out, validation.Policy{}))
	assert.Nil(t, errs, "errors: %v", errs.Paths())
}

func TestSelect_ProfileKeepsOwnPayoutMethodOnly(t *testing.T) {
	jane := profile("jane", entity.PayoutMethodPayPal, entity.PayoutMethodBankAccount)
	d := entity.ExpenseDraft{Type: entity.ExpenseTypeInvoice, PayoutMethod: &jane.PayoutMethods[1]}

	out := Select(d, &jane)
	require.NotNil(t, out.PayoutMethod)
	assert.Equal(t, jane.PayoutMethods[1].ID, out.PayoutMethod.ID)

	bob := profile("bob", entity.PayoutMethodPayPal)
	out = Select(out, &bob)
	require.NotNil(t, out.PayoutMethod, "sole usable method becomes the default")
	assert.Equal(t, bob.PayoutMethods[0].ID, out.PayoutMethod.ID)

	invite := &entity.Payee{Kind: entity.PayeeKindInvitedIndividual, Name: "Sam", Email: "sam@example.org"}
	out = Select(out, invite)
	assert.Nil(t, out.PayoutMethod)
}

func TestSeedLocation(t *testing.T) {
	onFile := &entity.Location{Country: "FR", Address: "1 rue de Rivoli"}
	payee := &entity.Payee{Kind: entity.PayeeKindExistingProfile, ID: "a", Location: onFile}

	seeded := SeedLocation(entity.ExpenseDraft{Payee: payee})
	require.NotNil(t, seeded.PayeeLocation)
	assert.Equal(t, "FR", seeded.PayeeLocation.Country)

	typed := entity.ExpenseDraft{Payee: payee, PayeeLocation: &entity.Location{Address: "typed by user"}}
	assert.Equal(t, "typed by user", SeedLocation(typed).PayeeLocation.Address)
}

func TestApplySlugCheck(t *testing.T) {
	d := entity.ExpenseDraft{Payee: &entity.Payee{
		Kind:         entity.PayeeKindInvitedOrganization,
		Organization: &entity.InvitedOrganization{Name: "Acme", Slug: "acme"},
	}}

	out, changed := ApplySlugCheck(d, "acme", false)
	require.True(t, changed)
	assert.Equal(t, entity.SlugStatusTaken, out.Payee.Organization.SlugStatus)
	assert.Equal(t, entity.SlugStatusUnknown, d.Payee.Organization.SlugStatus)

	_, changed = ApplySlugCheck(d, "acme-old", true)
	assert.False(t, changed, "result for an outdated slug is ignored")
}

type fakeDirectory struct {
	search func(ctx context.Context, term string) ([]entity.Payee, error)
	slug   func(ctx context.Context, slug string) (bool, error)
}

func (f *fakeDirectory) SearchAccounts(ctx context.Context, term string, _ port.AccountFilter) ([]entity.Payee, error) {
	return f.search(ctx, term)
}

func (f *fakeDirectory) ValidateSlugAvailability(ctx context.Context, slug string) (bool, error) {
	return f.slug(ctx, slug)
}

func TestSearcher_OnlyLatestTermWins(t *testing.T) {
	slowStarted := make(chan struct{})
	dir := &fakeDirectory{search: func(ctx context.Context, term string) ([]entity.Payee, error) {
		if term == "ja" {
			close(slowStarted)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []entity.Payee{profile("jane")}, nil
	}}
	s := NewSearcher(dir, port.AccountFilter{Limit: 10})

	var wg sync.WaitGroup
	var staleErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = s.Search(context.Background(), "ja")
	}()

	<-slowStarted
	results, err := s.Search(context.Background(), "jane")
	wg.Wait()

	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.True(t, errors.Is(staleErr, ErrStaleSearch))
}

func TestSlugChecker(t *testing.T) {
	dir := &fakeDirectory{slug: func(_ context.Context, slug string) (bool, error) {
		if slug == "broken" {
			return false, errors.New("directory down")
		}
		return slug != "taken", nil
	}}
	c := NewSlugChecker(dir)

	ok, err := c.Check(context.Background(), "free")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Check(context.Background(), "taken")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Check(context.Background(), "broken")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrStaleSearch))
}
