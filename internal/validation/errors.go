package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Code identifies why a field is invalid
type Code string

const (
	CodeRequired            Code = "required"
	CodeInvalidEmail        Code = "invalid_email"
	CodeInvalidSlug         Code = "invalid_slug"
	CodeMinValue            Code = "min_value"
	CodeRateOutOfRange      Code = "rate_out_of_range"
	CodeInvalidTaxID        Code = "invalid_tax_id"
	CodeCurrencyRequired    Code = "currency_required"
	CodeInvalidCurrency     Code = "invalid_currency"
	CodeUnsupportedCurrency Code = "unsupported_currency"
	CodeExchangeRateMissing Code = "exchange_rate_required"
	CodeSlugTaken           Code = "slug_taken"
	CodeTwoFactorRequired   Code = "2fa_required"
	CodeUnknownAccount      Code = "unknown_account"
	CodeUnsupportedPayee    Code = "unsupported_payee"
	CodeUnsupportedPayout   Code = "unsupported_payout_method"
	CodeInvalidCountry      Code = "invalid_country"
	CodeUploadInProgress    Code = "upload_in_progress"
)

// Field paths used in FieldErrors
const (
	FieldDescription        = "description"
	FieldPayee              = "payee"
	FieldCurrency           = "currency"
	FieldPayoutMethod       = "payoutMethod"
	FieldAccountingCategory = "accountingCategory"
	FieldItems              = "items"
	FieldIncurredAt         = "incurredAt"
	FieldAmount             = "amount"
	FieldExchangeRate       = "exchangeRate"
	FieldURL                = "url"
	FieldName               = "name"
	FieldEmail              = "email"
	FieldOrganizationName   = "organization.name"
	FieldOrganizationSlug   = "organization.slug"
	FieldCountry            = "country"
	FieldAddress            = "address"
	FieldRate               = "rate"
	FieldIDNumber           = "idNumber"
	FieldType               = "type"
)

// FieldErrors maps a field path to the single error shown for it
type FieldErrors map[string]Code

// add records code for field unless the field already carries an error
func (f FieldErrors) add(field string, code Code) {
	if _, exists := f[field]; !exists {
		f[field] = code
	}
}

// Errors is the error tree for a whole draft. Every error sits at the path
// of the field it concerns; per-item and per-tax errors are indexed by position.
type Errors struct {
	Fields        FieldErrors   `json:"fields,omitempty"`
	Payee         FieldErrors   `json:"payee,omitempty"`
	PayoutMethod  FieldErrors   `json:"payoutMethod,omitempty"`
	PayeeLocation FieldErrors   `json:"payeeLocation,omitempty"`
	Items         []FieldErrors `json:"items,omitempty"`
	Taxes         []FieldErrors `json:"taxes,omitempty"`
}

func newErrors() *Errors {
	return &Errors{
		Fields:        FieldErrors{},
		Payee:         FieldErrors{},
		PayoutMethod:  FieldErrors{},
		PayeeLocation: FieldErrors{},
	}
}

// IsEmpty returns true if no rule fired
func (e *Errors) IsEmpty() bool {
	if e == nil {
		return true
	}
	if len(e.Fields) > 0 || len(e.Payee) > 0 || len(e.PayoutMethod) > 0 || len(e.PayeeLocation) > 0 {
		return false
	}
	for _, item := range e.Items {
		if len(item) > 0 {
			return false
		}
	}
	for _, tax := range e.Taxes {
		if len(tax) > 0 {
			return false
		}
	}
	return true
}

// Item returns the errors of the item at index, or nil
func (e *Errors) Item(index int) FieldErrors {
	if e == nil || index < 0 || index >= len(e.Items) {
		return nil
	}
	return e.Items[index]
}

// Paths flattens the tree into sorted "path: code" strings
func (e *Errors) Paths() []string {
	if e == nil {
		return nil
	}
	var out []string
	collect := func(prefix string, f FieldErrors) {
		for field, code := range f {
			out = append(out, fmt.Sprintf("%s%s: %s", prefix, field, code))
		}
	}
	collect("", e.Fields)
	collect("payee.", e.Payee)
	collect("payoutMethod.", e.PayoutMethod)
	collect("payeeLocation.", e.PayeeLocation)
	for i, item := range e.Items {
		collect(fmt.Sprintf("items[%d].", i), item)
	}
	for i, tax := range e.Taxes {
		collect(fmt.Sprintf("taxes[%d].", i), tax)
	}
	sort.Strings(out)
	return out
}

// compact drops empty sections so a valid tree compares equal to nil
func (e *Errors) compact() *Errors {
	if e.IsEmpty() {
		return nil
	}
	if !hasAny(e.Items) {
		e.Items = nil
	}
	if !hasAny(e.Taxes) {
		e.Taxes = nil
	}
	return e
}

func hasAny(list []FieldErrors) bool {
	for _, f := range list {
		if len(f) > 0 {
			return true
		}
	}
	return false
}

// Error is returned when validation blocks an operation
type Error struct {
	Errors *Errors
}

// Error implements the error interface
func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Errors.Paths(), ", ")
}
