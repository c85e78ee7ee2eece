// Package submission turns a draft into the canonical request payload and back.
package submission

import (
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/rules"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// Prepare normalizes a draft into the submission payload. It never mutates
// the draft and returns identical payloads for identical drafts.
func Prepare(d entity.ExpenseDraft) Payload {
	req := rules.ForDraft(d)
	invite := d.Payee.IsInvite()

	p := Payload{
		DraftKey:       d.DraftKey,
		Type:           d.Type,
		Description:    utils.CleanText(d.Description),
		InvoiceInfo:    utils.CleanText(d.InvoiceInfo),
		Reference:      strings.TrimSpace(d.Reference),
		PrivateMessage: utils.CleanText(d.PrivateMessage),
		Tags:           prepareTags(d.Tags),
		Currency:       d.Currency,
		Payee:          preparePayee(d.Payee),
		Items:          make([]ItemInput, 0, len(d.Items)),
	}

	if d.ID != "" {
		id := d.ID
		p.ID = &id
	}
	if d.LegacyID != 0 {
		legacyID := d.LegacyID
		p.LegacyID = &legacyID
	}

	if d.PayoutMethod != nil && !invite && len(rules.SupportedPayoutMethodTypes(d.Type)) > 0 {
		p.PayoutMethod = preparePayoutMethod(*d.PayoutMethod)
	}

	if req.PayeeLocation && !invite && !d.PayeeLocation.IsEmpty() {
		loc := d.PayeeLocation.Normalized()
		p.PayeeLocation = &LocationInput{
			Address:    strings.TrimSpace(loc.Address),
			Country:    strings.ToUpper(strings.TrimSpace(loc.Country)),
			Structured: loc.Structured,
		}
	}

	if c := d.AccountingCategory; c != nil {
		ref := &AccountingCategoryRef{}
		if !c.IsUncategorized() {
			id := c.ID
			ref.ID = &id
		}
		p.AccountingCategory = ref
	}

	keepItemIDs := d.Status() == entity.DraftStatusExisting
	for _, item := range d.Items {
		p.Items = append(p.Items, prepareItem(item, d.Currency, req, keepItemIDs))
	}

	if req.Taxes {
		for _, tax := range d.Taxes {
			if !tax.IsActive() {
				continue
			}
			p.Taxes = append(p.Taxes, TaxInput{
				Type:     tax.Type,
				Rate:     tax.Rate,
				IDNumber: utils.NormalizeTaxID(tax.IDNumber),
			})
		}
	}

	if req.AttachedFiles {
		for _, f := range d.AttachedFiles {
			if f.UploadInProgress || strings.TrimSpace(f.URL) == "" {
				continue
			}
			p.AttachedFiles = append(p.AttachedFiles, AttachedFileInput{
				URL:  strings.TrimSpace(f.URL),
				Name: strings.TrimSpace(f.Name),
			})
		}
	}

	totals := d.ComputeTotals(req.Taxes)
	p.TotalAmount = totals.Total
	p.TaxAmount = totals.TaxAmount
	p.TotalIsApproximate = totals.Approximate

	return p
}

func preparePayee(payee *entity.Payee) PayeeInput {
	if payee == nil {
		return PayeeInput{Kind: entity.PayeeKindNone}
	}

	in := PayeeInput{Kind: payee.Kind}
	if payee.IsInvite() {
		in.Name = strings.TrimSpace(payee.Name)
		in.Email = strings.TrimSpace(payee.Email)
		in.LegalName = strings.TrimSpace(payee.LegalName)
		if org := payee.Organization; org != nil && payee.Kind == entity.PayeeKindInvitedOrganization {
			in.Organization = &OrganizationInput{
				Name:        strings.TrimSpace(org.Name),
				Slug:        strings.TrimSpace(org.Slug),
				Website:     strings.TrimSpace(org.Website),
				Description: utils.CleanText(org.Description),
			}
		}
		return in
	}

	// stable id first, legacy numeric id as fallback
	if payee.ID != "" {
		id := payee.ID
		in.ID = &id
	} else if payee.LegacyID != 0 {
		legacyID := payee.LegacyID
		in.LegacyID = &legacyID
	}
	return in
}

func preparePayoutMethod(pm entity.PayoutMethod) *PayoutMethodInput {
	in := &PayoutMethodInput{
		Type:     pm.Type,
		Name:     strings.TrimSpace(pm.Name),
		Currency: pm.Currency,
	}
	if pm.IsSaved && pm.ID != "" {
		id := pm.ID
		in.ID = &id
		return in
	}
	if len(pm.Data) > 0 {
		in.Data = make(map[string]string, len(pm.Data))
		for k, v := range pm.Data {
			in.Data[k] = strings.TrimSpace(v)
		}
	}
	return in
}

func prepareItem(item entity.ExpenseItem, expenseCurrency string, req rules.Requirements, keepID bool) ItemInput {
	itemCurrency := item.CurrencyOr(expenseCurrency)
	in := ItemInput{
		Description: utils.CleanText(item.Description),
		Amount:      entity.Amount{ValueInCents: item.Amount.ValueInCents, Currency: itemCurrency},
	}
	if keepID && item.ID != "" {
		id := item.ID
		in.ID = &id
	}
	if item.IncurredAt != nil && !item.IncurredAt.IsZero() {
		day := StartOfDay(*item.IncurredAt)
		in.IncurredAt = &day
	}
	if itemCurrency != expenseCurrency && item.ExchangeRate.HasValue() {
		r := item.ExchangeRate
		in.ExchangeRate = &ExchangeRateInput{
			Value:         r.Value.Decimal,
			Source:        r.Source,
			FromCurrency:  r.FromCurrency,
			ToCurrency:    r.ToCurrency,
			Date:          StartOfDay(r.Date),
			IsApproximate: r.IsApproximate,
		}
	}
	if req.ItemReceipt {
		in.URL = strings.TrimSpace(item.URL)
	}
	return in
}

func prepareTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// StartOfDay discards the time of day and returns midnight UTC of the same calendar date
func StartOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
