package expenseform

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/rules"
	"github.com/garyjia/expense-intake/internal/ocr"
	"github.com/garyjia/expense-intake/internal/payee"
)

// reduction is the outcome of one action
type reduction struct {
	draft entity.ExpenseDraft
	// backToPayee forces the form back to the payee step
	backToPayee bool
}

// reduce applies one action to a copy of the draft and computes every
// derived reset synchronously. The input draft is never modified.
func reduce(d entity.ExpenseDraft, action Action) (reduction, error) {
	out := reduction{draft: d.Clone()}
	draft := &out.draft

	switch a := action.(type) {
	case SelectPayee:
		if a.Payee != nil && !payee.IsCompatible(a.Payee, draft.Type) {
			return out, fmt.Errorf("%w: %s cannot be paid for %s", ErrIncompatiblePayee, a.Payee.Kind, draft.Type)
		}
		next := carrySlugStatus(d.Payee, a.Payee)
		*draft = payee.Select(*draft, next)

	case ChangeType:
		return changeType(out, a.Type)

	case ChangeCurrency:
		code := currency.Normalize(a.Currency)
		if code == "" {
			return out, fmt.Errorf("%w: %q", ErrInvalidCurrency, a.Currency)
		}
		if !draft.PayoutMethod.SupportsCurrency(code) {
			return out, fmt.Errorf("%w: %s cannot be paid out through the selected payout method", ErrInvalidCurrency, code)
		}
		draft.Currency = code

	case SelectPayoutMethod:
		req := rules.ForDraft(*draft)
		if !req.PayoutMethodEditable {
			return out, ErrPayoutMethodLocked
		}
		if a.PayoutMethod != nil && !rules.SupportsPayoutMethod(draft.Type, a.PayoutMethod.Type) {
			return out, fmt.Errorf("%w: %s", ErrFieldNotSupported, a.PayoutMethod.Type)
		}
		if a.PayoutMethod == nil {
			draft.PayoutMethod = nil
		} else {
			pm := a.PayoutMethod.Clone()
			draft.PayoutMethod = &pm
		}

	case SetLocation:
		draft.PayeeLocation = a.Location.Clone()

	case AddItem:
		item := a.Item.Clone()
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if draft.ItemIndex(item.ID) >= 0 {
			return out, fmt.Errorf("item %s already exists", item.ID)
		}
		item.Amount.Currency = strings.ToUpper(item.Amount.Currency)
		item.ExchangeRate = nil
		if filled, ok := ocr.Prefill(item); ok {
			item = filled
		}
		draft.Items = append(draft.Items, item)

	case RemoveItem:
		idx := draft.ItemIndex(a.ItemID)
		if idx < 0 {
			return out, fmt.Errorf("%w: %s", ErrItemNotFound, a.ItemID)
		}
		draft.Items = append(draft.Items[:idx], draft.Items[idx+1:]...)

	case ChangeItemAmount:
		item, err := findItem(draft, a.ItemID)
		if err != nil {
			return out, err
		}
		if a.Amount.Currency != "" && currency.Normalize(a.Amount.Currency) == "" {
			return out, fmt.Errorf("%w: %q", ErrInvalidCurrency, a.Amount.Currency)
		}
		item.Amount = entity.Amount{ValueInCents: a.Amount.ValueInCents, Currency: currency.Normalize(a.Amount.Currency)}

	case UpdateItem:
		item, err := findItem(draft, a.ItemID)
		if err != nil {
			return out, err
		}
		if a.Description != nil {
			item.Description = *a.Description
		}
		switch {
		case a.ClearIncurredAt:
			item.IncurredAt = nil
		case a.IncurredAt != nil:
			at := *a.IncurredAt
			item.IncurredAt = &at
		}
		if a.URL != nil {
			item.URL = *a.URL
		}
		if a.UploadInProgress != nil {
			item.UploadInProgress = *a.UploadInProgress
		}

	case ItemParsed:
		item, err := findItem(draft, a.ItemID)
		if err != nil {
			return out, err
		}
		result := a.Result
		item.ParsingResult = &result
		if filled, ok := ocr.Prefill(*item); ok {
			*item = filled
		}

	case SetManualRate:
		if draft.ItemIndex(a.ItemID) < 0 {
			return out, fmt.Errorf("%w: %s", ErrItemNotFound, a.ItemID)
		}
		updated, ok := currency.SetManualRate(*draft, a.ItemID, a.Value)
		if !ok {
			return out, fmt.Errorf("%w: item %s does not need an exchange rate", ErrFieldNotSupported, a.ItemID)
		}
		*draft = updated

	case SetTaxes:
		if len(a.Taxes) > 0 && !rules.ForDraft(*draft).Taxes {
			return out, fmt.Errorf("%w: taxes", ErrFieldNotSupported)
		}
		draft.Taxes = append([]entity.Tax(nil), a.Taxes...)

	case SetAccountingCategory:
		if a.Category == nil {
			draft.AccountingCategory = nil
		} else {
			c := *a.Category
			draft.AccountingCategory = &c
		}

	case SetAttachedFiles:
		if len(a.Files) > 0 && !rules.ForDraft(*draft).AttachedFiles {
			return out, fmt.Errorf("%w: attached files", ErrFieldNotSupported)
		}
		draft.AttachedFiles = append([]entity.AttachedFile(nil), a.Files...)

	case SetDetails:
		if a.Description != nil {
			draft.Description = *a.Description
		}
		if a.InvoiceInfo != nil {
			draft.InvoiceInfo = *a.InvoiceInfo
		}
		if a.Reference != nil {
			draft.Reference = *a.Reference
		}
		if a.PrivateMessage != nil {
			draft.PrivateMessage = *a.PrivateMessage
		}
		if a.Tags != nil {
			draft.Tags = append([]string(nil), a.Tags...)
		}

	default:
		return out, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}

	return out, nil
}

// changeType switches the expense type and resets the fields the new type
// does not support. An incompatible payee or payout method is cleared and
// the form returns to the payee step.
func changeType(out reduction, to entity.ExpenseType) (reduction, error) {
	draft := &out.draft
	from := draft.Type
	if to == from {
		return out, nil
	}
	if !to.IsValid() {
		return out, fmt.Errorf("unknown expense type %q", to)
	}
	if from == entity.ExpenseTypeCharge || to == entity.ExpenseTypeCharge {
		return out, fmt.Errorf("%w: card charges keep their type", ErrTypeLocked)
	}
	for _, item := range draft.Items {
		if item.ExchangeRate != nil {
			return out, fmt.Errorf("%w: items already carry exchange rates, reset the form first", ErrTypeLocked)
		}
	}

	draft.Type = to
	req := rules.ForDraft(*draft)

	if !req.Taxes {
		draft.Taxes = nil
	}
	if !req.AttachedFiles {
		draft.AttachedFiles = nil
	}

	switch {
	case !payee.IsCompatible(draft.Payee, to):
		draft.Payee = nil
		draft.PayoutMethod = nil
		out.backToPayee = true
	case draft.PayoutMethod != nil && !rules.SupportsPayoutMethod(to, draft.PayoutMethod.Type):
		draft.PayoutMethod = nil
		out.backToPayee = true
	}

	return out, nil
}

// derive recomputes the fields that follow from others. It is idempotent.
func derive(d entity.ExpenseDraft) entity.ExpenseDraft {
	if d.PayeeLocation != nil {
		// dirty-check: only replace when the derived address differs
		if normalized := d.PayeeLocation.Normalized(); !normalized.Equal(d.PayeeLocation) {
			d = d.Clone()
			d.PayeeLocation = normalized
		}
	}
	return currency.ReconcileExpenseCurrency(d)
}

// carrySlugStatus keeps the availability of an unchanged organization slug.
// A changed slug must be checked again.
func carrySlugStatus(prev, next *entity.Payee) *entity.Payee {
	if next == nil || next.Organization == nil {
		return next
	}
	out := next.Clone()
	out.Organization.SlugStatus = entity.SlugStatusUnknown
	if prev != nil && prev.Organization != nil && prev.Organization.Slug == out.Organization.Slug {
		out.Organization.SlugStatus = prev.Organization.SlugStatus
	}
	return out
}

func findItem(d *entity.ExpenseDraft, id string) (*entity.ExpenseItem, error) {
	idx := d.ItemIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return &d.Items[idx], nil
}
