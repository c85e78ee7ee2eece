// Package rules holds the single table describing which fields an expense
// needs for each combination of expense type and payee kind. Validation,
// payee resolution and submission preparation all read from it.
package rules

import "github.com/garyjia/expense-intake/internal/domain/entity"

// Requirements is the field set required or supported for one
// (expense type, payee kind) pair
type Requirements struct {
	// PayoutMethod must be chosen by the submitter
	PayoutMethod bool
	// PayoutMethodEditable is false when the payout method is fixed or filled by someone else
	PayoutMethodEditable bool
	// PayeeLocation country and address are required
	PayeeLocation bool
	// ItemIncurredAt is required on every item
	ItemIncurredAt bool
	// ItemReceipt requires an uploaded file on every item
	ItemReceipt bool
	// Taxes may be applied
	Taxes bool
	// AttachedFiles may be sent
	AttachedFiles bool
	// InviteDetails requires the invite sub-form
	InviteDetails bool
}

type key struct {
	expenseType entity.ExpenseType
	payeeKind   entity.PayeeKind
}

var baseByType = map[entity.ExpenseType]Requirements{
	entity.ExpenseTypeInvoice: {
		PayoutMethod:         true,
		PayoutMethodEditable: true,
		PayeeLocation:        true,
		ItemIncurredAt:       true,
		Taxes:                true,
		AttachedFiles:        true,
	},
	entity.ExpenseTypeReceipt: {
		PayoutMethod:         true,
		PayoutMethodEditable: true,
		ItemIncurredAt:       true,
		ItemReceipt:          true,
		AttachedFiles:        true,
	},
	entity.ExpenseTypeGrant: {
		PayoutMethod:         true,
		PayoutMethodEditable: true,
		PayeeLocation:        true,
	},
	entity.ExpenseTypeCharge: {
		ItemIncurredAt: true,
		ItemReceipt:    true,
	},
}

var payeeKinds = []entity.PayeeKind{
	entity.PayeeKindNone,
	entity.PayeeKindExistingProfile,
	entity.PayeeKindVendor,
	entity.PayeeKindInvitedIndividual,
	entity.PayeeKindInvitedOrganization,
}

// table is built once from the per-type base and the per-kind overrides
var table = buildTable()

func buildTable() map[key]Requirements {
	t := make(map[key]Requirements, len(baseByType)*len(payeeKinds))
	for expenseType, base := range baseByType {
		for _, kind := range payeeKinds {
			req := base
			switch kind {
			case entity.PayeeKindVendor:
				// vendors carry a single fixed payout method
				req.PayoutMethod = false
				req.PayoutMethodEditable = false
			case entity.PayeeKindInvitedIndividual, entity.PayeeKindInvitedOrganization:
				// the invitee completes payout, address and receipts
				req.PayoutMethod = false
				req.PayoutMethodEditable = false
				req.PayeeLocation = false
				req.ItemReceipt = false
				req.InviteDetails = true
			}
			t[key{expenseType, kind}] = req
		}
	}
	return t
}

// For returns the requirements for an expense type and payee kind.
// Unknown combinations require nothing beyond the always-required fields.
func For(expenseType entity.ExpenseType, payeeKind entity.PayeeKind) Requirements {
	if payeeKind == "" {
		payeeKind = entity.PayeeKindNone
	}
	return table[key{expenseType, payeeKind}]
}

// ForDraft is For applied to the draft's own type and payee
func ForDraft(d entity.ExpenseDraft) Requirements {
	return For(d.Type, d.PayeeKind())
}

var payoutTypesByExpenseType = map[entity.ExpenseType][]entity.PayoutMethodType{
	entity.ExpenseTypeInvoice: {
		entity.PayoutMethodBankAccount,
		entity.PayoutMethodPayPal,
		entity.PayoutMethodOther,
		entity.PayoutMethodAccountBalance,
	},
	entity.ExpenseTypeReceipt: {
		entity.PayoutMethodBankAccount,
		entity.PayoutMethodPayPal,
		entity.PayoutMethodOther,
		entity.PayoutMethodAccountBalance,
	},
	entity.ExpenseTypeGrant: {
		entity.PayoutMethodBankAccount,
		entity.PayoutMethodPayPal,
		entity.PayoutMethodOther,
	},
	entity.ExpenseTypeCharge: nil,
}

var payeeKindsByExpenseType = map[entity.ExpenseType][]entity.PayeeKind{
	entity.ExpenseTypeInvoice: {
		entity.PayeeKindExistingProfile,
		entity.PayeeKindVendor,
		entity.PayeeKindInvitedIndividual,
		entity.PayeeKindInvitedOrganization,
	},
	entity.ExpenseTypeReceipt: {
		entity.PayeeKindExistingProfile,
		entity.PayeeKindInvitedIndividual,
		entity.PayeeKindInvitedOrganization,
	},
	entity.ExpenseTypeGrant: {
		entity.PayeeKindExistingProfile,
		entity.PayeeKindVendor,
		entity.PayeeKindInvitedIndividual,
		entity.PayeeKindInvitedOrganization,
	},
	entity.ExpenseTypeCharge: {
		entity.PayeeKindExistingProfile,
	},
}

// SupportedPayoutMethodTypes lists the payout method types usable for an expense type
func SupportedPayoutMethodTypes(expenseType entity.ExpenseType) []entity.PayoutMethodType {
	return append([]entity.PayoutMethodType(nil), payoutTypesByExpenseType[expenseType]...)
}

// SupportsPayoutMethod reports whether a payout method type is usable for an expense type
func SupportsPayoutMethod(expenseType entity.ExpenseType, pmType entity.PayoutMethodType) bool {
	for _, t := range payoutTypesByExpenseType[expenseType] {
		if t == pmType {
			return true
		}
	}
	return false
}

// SupportsPayeeKind reports whether a payee kind may submit an expense type
func SupportsPayeeKind(expenseType entity.ExpenseType, kind entity.PayeeKind) bool {
	for _, k := range payeeKindsByExpenseType[expenseType] {
		if k == kind {
			return true
		}
	}
	return false
}
