package rules

import (
	"testing"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name        string
		expenseType entity.ExpenseType
		kind        entity.PayeeKind
		check       func(t *testing.T, r Requirements)
	}{
		{
			name:        "invoice for profile needs payout, location and allows taxes",
			expenseType: entity.ExpenseTypeInvoice,
			kind:        entity.PayeeKindExistingProfile,
			check: func(t *testing.T, r Requirements) {
				assert.True(t, r.PayoutMethod)
				assert.True(t, r.PayeeLocation)
				assert.True(t, r.Taxes)
				assert.True(t, r.ItemIncurredAt)
				assert.False(t, r.ItemReceipt)
			},
		},
		{
			name:        "vendor payout method is fixed",
			expenseType: entity.ExpenseTypeInvoice,
			kind:        entity.PayeeKindVendor,
			check: func(t *testing.T, r Requirements) {
				assert.False(t, r.PayoutMethod)
				assert.False(t, r.PayoutMethodEditable)
				assert.True(t, r.PayeeLocation)
			},
		},
		{
			name:        "invited payee skips payout, location and receipts",
			expenseType: entity.ExpenseTypeReceipt,
			kind:        entity.PayeeKindInvitedIndividual,
			check: func(t *testing.T, r Requirements) {
				assert.False(t, r.PayoutMethod)
				assert.False(t, r.PayeeLocation)
				assert.False(t, r.ItemReceipt)
				assert.True(t, r.InviteDetails)
			},
		},
		{
			name:        "grant items do not need dates",
			expenseType: entity.ExpenseTypeGrant,
			kind:        entity.PayeeKindExistingProfile,
			check: func(t *testing.T, r Requirements) {
				assert.False(t, r.ItemIncurredAt)
				assert.False(t, r.AttachedFiles)
			},
		},
		{
			name:        "charge needs no payout method",
			expenseType: entity.ExpenseTypeCharge,
			kind:        entity.PayeeKindExistingProfile,
			check: func(t *testing.T, r Requirements) {
				assert.False(t, r.PayoutMethod)
				assert.True(t, r.ItemReceipt)
				assert.False(t, r.AttachedFiles)
			},
		},
		{
			name:        "empty kind behaves like none",
			expenseType: entity.ExpenseTypeReceipt,
			kind:        "",
			check: func(t *testing.T, r Requirements) {
				assert.Equal(t, For(entity.ExpenseTypeReceipt, entity.PayeeKindNone), r)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, For(tt.expenseType, tt.kind))
		})
	}
}

func TestSupportsPayeeKind(t *testing.T) {
	assert.True(t, SupportsPayeeKind(entity.ExpenseTypeInvoice, entity.PayeeKindVendor))
	assert.False(t, SupportsPayeeKind(entity.ExpenseTypeReceipt, entity.PayeeKindVendor))
	assert.False(t, SupportsPayeeKind(entity.ExpenseTypeCharge, entity.PayeeKindInvitedIndividual))
}

func TestSupportsPayoutMethod(t *testing.T) {
	assert.True(t, SupportsPayoutMethod(entity.ExpenseTypeReceipt, entity.PayoutMethodAccountBalance))
	assert.False(t, SupportsPayoutMethod(entity.ExpenseTypeGrant, entity.PayoutMethodAccountBalance))
	assert.Empty(t, SupportedPayoutMethodTypes(entity.ExpenseTypeCharge))
}
