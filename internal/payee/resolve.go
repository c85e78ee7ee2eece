// Package payee decides who gets paid and whether the payee step is complete.
package payee

import (
	"strings"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/rules"
	"github.com/garyjia/expense-intake/internal/validation"
)

// ResolveInput is what the payee step knows about the submitter
type ResolveInput struct {
	ExpenseType entity.ExpenseType
	// Profiles lists the accounts the submitter administers
	Profiles []entity.Payee
	// SearchResults holds directory matches for the latest search term
	SearchResults []entity.Payee
	SearchTerm    string
	// Preselected is the payee of a draft being edited
	Preselected *entity.Payee
}

// Resolution is the outcome of payee resolution
type Resolution struct {
	Payee            *entity.Payee  `json:"payee"`
	StepOneCompleted bool           `json:"stepOneCompleted"`
	Candidates       []entity.Payee `json:"candidates"`
}

// Resolve picks the payee and lists compatible candidates. A preselected
// payee wins when it is compatible; otherwise a sole compatible profile is
// selected by default.
func Resolve(in ResolveInput) Resolution {
	var res Resolution

	term := strings.ToLower(strings.TrimSpace(in.SearchTerm))
	seen := map[string]bool{}
	var compatibleProfiles []entity.Payee
	for _, p := range in.Profiles {
		if !IsCompatible(&p, in.ExpenseType) {
			continue
		}
		compatibleProfiles = append(compatibleProfiles, p)
		if matches(p, term) {
			res.Candidates = append(res.Candidates, p)
			seen[accountKey(p)] = true
		}
	}
	for _, p := range in.SearchResults {
		if !IsCompatible(&p, in.ExpenseType) || seen[accountKey(p)] {
			continue
		}
		res.Candidates = append(res.Candidates, p)
		seen[accountKey(p)] = true
	}

	switch {
	case in.Preselected != nil && IsCompatible(in.Preselected, in.ExpenseType):
		res.Payee = in.Preselected.Clone()
	case in.Preselected == nil && len(compatibleProfiles) == 1:
		res.Payee = compatibleProfiles[0].Clone()
	}

	draft := entity.ExpenseDraft{Type: in.ExpenseType, Payee: res.Payee}
	res.StepOneCompleted = StepOneCompleted(draft)
	return res
}

// IsCompatible reports whether payee can be paid for an expense type: its
// kind must be allowed and, when a payout method is needed, at least one of
// its listed payout methods must be usable
func IsCompatible(p *entity.Payee, expenseType entity.ExpenseType) bool {
	if p == nil {
		return true
	}
	if !rules.SupportsPayeeKind(expenseType, p.Kind) {
		return false
	}
	req := rules.For(expenseType, p.Kind)
	if !req.PayoutMethod || len(p.PayoutMethods) == 0 {
		return true
	}
	for _, pm := range p.PayoutMethods {
		if rules.SupportsPayoutMethod(expenseType, pm.Type) {
			return true
		}
	}
	return false
}

// StepOneCompleted is true iff a payee is set, its invite sub-form (if any)
// is valid, it resolves to an account (if not an invite) and no two-factor
// gate is outstanding
func StepOneCompleted(d entity.ExpenseDraft) bool {
	p := d.Payee
	if p == nil || p.Kind == entity.PayeeKindNone || p.Kind == "" {
		return false
	}
	if p.Requires2FA {
		return false
	}
	if !rules.SupportsPayeeKind(d.Type, p.Kind) {
		return false
	}
	if p.IsInvite() {
		return len(validation.ValidateInvite(p)) == 0
	}
	return p.HasAccountReference()
}

func matches(p entity.Payee, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Slug), term) ||
		strings.Contains(strings.ToLower(p.LegalName), term)
}

func accountKey(p entity.Payee) string {
	if p.ID != "" {
		return p.ID
	}
	return p.Slug
}
