package payee

import (
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/rules"
)

// Select sets payee on the draft and derives the payee-dependent fields.
// Vendors force their single payout method; invites clear payout method and
// location since the invitee provides them; other payees keep the current
// payout method only when it belongs to them.
func Select(d entity.ExpenseDraft, payee *entity.Payee) entity.ExpenseDraft {
	out := d.Clone()
	out.Payee = payee.Clone()

	switch {
	case payee == nil:
		out.PayoutMethod = nil
	case payee.IsVendor():
		out.PayoutMethod = payee.VendorPayoutMethod()
	case payee.IsInvite():
		out.PayoutMethod = nil
		out.PayeeLocation = nil
	default:
		if out.PayoutMethod != nil && out.PayoutMethod.IsSaved && !ownsPayoutMethod(payee, out.PayoutMethod.ID) {
			out.PayoutMethod = nil
		}
		if out.PayoutMethod == nil {
			out.PayoutMethod = DefaultPayoutMethod(payee, out.Type)
		}
	}

	return SeedLocation(out)
}

// DefaultPayoutMethod returns the payee's only usable payout method, if it has exactly one
func DefaultPayoutMethod(payee *entity.Payee, expenseType entity.ExpenseType) *entity.PayoutMethod {
	if payee == nil || !rules.For(expenseType, payee.Kind).PayoutMethod {
		return nil
	}
	var found *entity.PayoutMethod
	for _, pm := range payee.PayoutMethods {
		if !rules.SupportsPayoutMethod(expenseType, pm.Type) {
			continue
		}
		if found != nil {
			return nil
		}
		m := pm.Clone()
		found = &m
	}
	return found
}

// SeedLocation defaults the payee location from the payee's location on
// file unless the submitter already typed an address
func SeedLocation(d entity.ExpenseDraft) entity.ExpenseDraft {
	if d.Payee == nil || d.Payee.Location.IsEmpty() || d.PayeeLocation.HasUserInput() {
		return d
	}
	out := d.Clone()
	out.PayeeLocation = d.Payee.Location.Clone()
	return out
}

// ApplySlugCheck records the availability of slug on the invited
// organization. Results for a slug the submitter has since changed are
// ignored. It reports whether the draft changed.
func ApplySlugCheck(d entity.ExpenseDraft, slug string, available bool) (entity.ExpenseDraft, bool) {
	if d.Payee == nil || d.Payee.Organization == nil || d.Payee.Organization.Slug != slug {
		return d, false
	}
	status := entity.SlugStatusTaken
	if available {
		status = entity.SlugStatusAvailable
	}
	if d.Payee.Organization.SlugStatus == status {
		return d, false
	}
	out := d.Clone()
	out.Payee.Organization.SlugStatus = status
	return out, true
}

func ownsPayoutMethod(payee *entity.Payee, id string) bool {
	for _, pm := range payee.PayoutMethods {
		if pm.ID == id {
			return true
		}
	}
	return false
}
