package submission

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// DraftFromPayload rebuilds an editable draft from a prepared payload, for
// example when reopening a submitted expense
func DraftFromPayload(p Payload) entity.ExpenseDraft {
	d := entity.ExpenseDraft{
		DraftKey:       p.DraftKey,
		Type:           p.Type,
		Description:    p.Description,
		InvoiceInfo:    p.InvoiceInfo,
		Reference:      p.Reference,
		PrivateMessage: p.PrivateMessage,
		Currency:       p.Currency,
		Items:          make([]entity.ExpenseItem, 0, len(p.Items)),
	}
	if p.ID != nil {
		d.ID = *p.ID
	}
	if p.LegacyID != nil {
		d.LegacyID = *p.LegacyID
	}
	if p.Tags != nil {
		d.Tags = append([]string(nil), p.Tags...)
	}

	d.Payee = payeeFromInput(p.Payee)

	if pm := p.PayoutMethod; pm != nil {
		method := entity.PayoutMethod{
			Type:     pm.Type,
			Name:     pm.Name,
			Currency: pm.Currency,
		}
		if pm.ID != nil {
			method.ID = *pm.ID
			method.IsSaved = true
		}
		if pm.Data != nil {
			method.Data = make(map[string]string, len(pm.Data))
			for k, v := range pm.Data {
				method.Data[k] = v
			}
		}
		d.PayoutMethod = &method
	}

	if loc := p.PayeeLocation; loc != nil {
		l := &entity.Location{Address: loc.Address, Country: loc.Country, Structured: loc.Structured}
		d.PayeeLocation = l.Clone()
	}

	if ref := p.AccountingCategory; ref != nil {
		id := entity.UncategorizedAccountingCategoryID
		if ref.ID != nil {
			id = *ref.ID
		}
		d.AccountingCategory = &entity.AccountingCategory{ID: id}
	}

	for i, in := range p.Items {
		item := entity.ExpenseItem{
			ID:          fmt.Sprintf("item-%d", i),
			Description: in.Description,
			Amount:      in.Amount,
			URL:         in.URL,
		}
		if in.ID != nil {
			item.ID = *in.ID
		}
		if in.IncurredAt != nil {
			at := *in.IncurredAt
			item.IncurredAt = &at
		}
		if r := in.ExchangeRate; r != nil {
			item.ExchangeRate = &entity.ExchangeRate{
				Value:         decimal.NewNullDecimal(r.Value),
				Source:        r.Source,
				FromCurrency:  r.FromCurrency,
				ToCurrency:    r.ToCurrency,
				Date:          r.Date,
				IsApproximate: r.IsApproximate,
			}
		}
		d.Items = append(d.Items, item)
	}

	for _, tax := range p.Taxes {
		d.Taxes = append(d.Taxes, entity.Tax{Type: tax.Type, Rate: tax.Rate, IDNumber: tax.IDNumber})
	}
	for _, f := range p.AttachedFiles {
		d.AttachedFiles = append(d.AttachedFiles, entity.AttachedFile{URL: f.URL, Name: f.Name})
	}

	return d
}

func payeeFromInput(in PayeeInput) *entity.Payee {
	if in.Kind == "" || in.Kind == entity.PayeeKindNone {
		return nil
	}
	payee := &entity.Payee{
		Kind:      in.Kind,
		Name:      in.Name,
		Email:     in.Email,
		LegalName: in.LegalName,
	}
	if in.ID != nil {
		payee.ID = *in.ID
	}
	if in.LegacyID != nil {
		payee.LegacyID = *in.LegacyID
	}
	if org := in.Organization; org != nil {
		// the slug was checked before the payload was prepared
		payee.Organization = &entity.InvitedOrganization{
			Name:        org.Name,
			Slug:        org.Slug,
			Website:     org.Website,
			Description: org.Description,
			SlugStatus:  entity.SlugStatusAvailable,
		}
	}
	return payee
}
