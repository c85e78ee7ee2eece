// Package validation computes field-level and cross-field errors for an
// expense draft. Every function is pure and safe to call from any goroutine.
package validation

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/rules"
)

// Policy carries host-level settings that affect validation
type Policy struct {
	RequireAccountingCategory bool
}

// Context describes the axes the rules vary on
type Context struct {
	ExpenseType         entity.ExpenseType
	PayeeKind           entity.PayeeKind
	IsOnBehalf          bool
	Requires2FA         bool
	CanEditPayoutMethod bool
	Policy              Policy
}

// ContextFor derives the validation context from the draft itself
func ContextFor(d entity.ExpenseDraft, policy Policy) Context {
	req := rules.ForDraft(d)
	return Context{
		ExpenseType:         d.Type,
		PayeeKind:           d.PayeeKind(),
		IsOnBehalf:          d.Payee.IsInvite(),
		Requires2FA:         d.Payee != nil && d.Payee.Requires2FA,
		CanEditPayoutMethod: req.PayoutMethodEditable,
		Policy:              policy,
	}
}

// Validate returns the error tree of the draft, or nil when it is valid
func Validate(d entity.ExpenseDraft, ctx Context) *Errors {
	errs := newErrors()
	req := rules.For(ctx.ExpenseType, ctx.PayeeKind)

	if !ctx.ExpenseType.IsValid() {
		errs.Fields.add(FieldType, CodeRequired)
	}
	if strings.TrimSpace(d.Description) == "" {
		errs.Fields.add(FieldDescription, CodeRequired)
	}

	validatePayee(errs, d, ctx)
	validateCurrency(errs, d)

	if req.PayoutMethod && !ctx.IsOnBehalf {
		validateDraftPayoutMethod(errs, d, ctx)
	}

	if req.PayeeLocation && !ctx.IsOnBehalf {
		errs.PayeeLocation = ValidateLocation(d.PayeeLocation)
	}

	if ctx.Policy.RequireAccountingCategory && d.AccountingCategory == nil {
		errs.Fields.add(FieldAccountingCategory, CodeRequired)
	}

	if len(d.Items) == 0 {
		errs.Fields.add(FieldItems, CodeRequired)
	}
	itemCtx := ItemContext{Requirements: req, ExpenseCurrency: d.Currency}
	errs.Items = make([]FieldErrors, len(d.Items))
	for i, item := range d.Items {
		errs.Items[i] = ValidateItem(item, itemCtx)
	}

	if req.Taxes {
		errs.Taxes = make([]FieldErrors, len(d.Taxes))
		for i, tax := range d.Taxes {
			errs.Taxes[i] = ValidateTax(tax)
		}
	}

	return errs.compact()
}

func validatePayee(errs *Errors, d entity.ExpenseDraft, ctx Context) {
	p := d.Payee
	switch {
	case p == nil || p.Kind == entity.PayeeKindNone || p.Kind == "":
		errs.Fields.add(FieldPayee, CodeRequired)
		return
	case !rules.SupportsPayeeKind(ctx.ExpenseType, p.Kind):
		errs.Fields.add(FieldPayee, CodeUnsupportedPayee)
	case p.IsInvite():
		errs.Payee = ValidateInvite(p)
	case !p.HasAccountReference():
		errs.Fields.add(FieldPayee, CodeUnknownAccount)
	}
	if ctx.Requires2FA {
		errs.Fields.add(FieldPayee, CodeTwoFactorRequired)
	}
}

func validateCurrency(errs *Errors, d entity.ExpenseDraft) {
	switch {
	case d.Currency == "" && d.HasItemAmounts():
		// the currency was nulled under existing amounts and must be re-selected
		errs.Fields.add(FieldCurrency, CodeCurrencyRequired)
	case d.Currency == "":
		errs.Fields.add(FieldCurrency, CodeRequired)
	case !currency.IsValidCode(d.Currency):
		errs.Fields.add(FieldCurrency, CodeInvalidCurrency)
	case d.PayoutMethod != nil && !d.PayoutMethod.SupportsCurrency(d.Currency):
		errs.Fields.add(FieldCurrency, CodeUnsupportedCurrency)
	}
}

func validateDraftPayoutMethod(errs *Errors, d entity.ExpenseDraft, ctx Context) {
	pm := d.PayoutMethod
	if pm == nil {
		errs.Fields.add(FieldPayoutMethod, CodeRequired)
		return
	}
	if !rules.SupportsPayoutMethod(ctx.ExpenseType, pm.Type) {
		errs.Fields.add(FieldPayoutMethod, CodeUnsupportedPayout)
		return
	}
	if ctx.CanEditPayoutMethod && !pm.IsSaved {
		errs.PayoutMethod = ValidatePayoutMethod(*pm)
	}
}

// ValidateLocation checks the legal address of the payee
func ValidateLocation(loc *entity.Location) FieldErrors {
	errs := FieldErrors{}
	if loc == nil {
		errs.add(FieldCountry, CodeRequired)
		errs.add(FieldAddress, CodeRequired)
		return errs
	}

	if loc.Country == "" {
		errs.add(FieldCountry, CodeRequired)
	} else if _, err := language.ParseRegion(strings.ToUpper(loc.Country)); err != nil || len(loc.Country) != 2 {
		errs.add(FieldCountry, CodeInvalidCountry)
	}

	if strings.TrimSpace(loc.Normalized().Address) == "" {
		errs.add(FieldAddress, CodeRequired)
	}
	return errs
}
