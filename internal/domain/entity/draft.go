package entity

// Tax is a tax line applied on top of an invoice
type Tax struct {
	Type     TaxType `json:"type"`
	Rate     float64 `json:"rate"`
	IDNumber string  `json:"idNumber,omitempty"`
	Disabled bool    `json:"disabled,omitempty"`
}

// IsActive returns true if the tax must be emitted
func (t Tax) IsActive() bool {
	return !t.Disabled && t.Rate > 0
}

// AccountingCategory references a host accounting category
type AccountingCategory struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsUncategorized returns true for the allow-null sentinel
func (c *AccountingCategory) IsUncategorized() bool {
	return c != nil && c.ID == UncategorizedAccountingCategoryID
}

// AttachedFile is an extra document attached to the expense
type AttachedFile struct {
	URL              string `json:"url"`
	Name             string `json:"name,omitempty"`
	UploadInProgress bool   `json:"uploadInProgress,omitempty"`
}

// ExpenseDraft is the in-progress, unsaved expense being edited
type ExpenseDraft struct {
	ID       string `json:"id,omitempty"`
	LegacyID int64  `json:"legacyId,omitempty"`
	DraftKey string `json:"draftKey,omitempty"`

	Type               ExpenseType         `json:"type"`
	Payee              *Payee              `json:"payee,omitempty"`
	PayoutMethod       *PayoutMethod       `json:"payoutMethod,omitempty"`
	Currency           string              `json:"currency"`
	Items              []ExpenseItem       `json:"items"`
	Taxes              []Tax               `json:"taxes,omitempty"`
	PayeeLocation      *Location           `json:"payeeLocation,omitempty"`
	AccountingCategory *AccountingCategory `json:"accountingCategory,omitempty"`
	AttachedFiles      []AttachedFile      `json:"attachedFiles,omitempty"`
	Description        string              `json:"description"`
	InvoiceInfo        string              `json:"invoiceInfo,omitempty"`
	Reference          string              `json:"reference,omitempty"`
	PrivateMessage     string              `json:"privateMessage,omitempty"`
	Tags               []string            `json:"tags,omitempty"`
}

// NewDraft returns the type-appropriate default draft
func NewDraft(expenseType ExpenseType, currency string) ExpenseDraft {
	return ExpenseDraft{
		Type:     expenseType,
		Currency: currency,
		Items:    []ExpenseItem{},
	}
}

// Status derives the draft status from its identifiers
func (d ExpenseDraft) Status() DraftStatus {
	switch {
	case d.DraftKey != "":
		return DraftStatusDraft
	case d.ID == "" && d.LegacyID == 0:
		return DraftStatusNew
	default:
		return DraftStatusExisting
	}
}

// PayeeKind returns the kind of the selected payee, or NONE
func (d ExpenseDraft) PayeeKind() PayeeKind {
	if d.Payee == nil {
		return PayeeKindNone
	}
	return d.Payee.Kind
}

// ItemIndex returns the position of the item with id, or -1
func (d ExpenseDraft) ItemIndex(id string) int {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// HasItemAmounts returns true if any item already carries an amount
func (d ExpenseDraft) HasItemAmounts() bool {
	for _, item := range d.Items {
		if item.HasAmount() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshots never alias the live draft
func (d ExpenseDraft) Clone() ExpenseDraft {
	out := d
	out.Payee = d.Payee.Clone()
	if d.PayoutMethod != nil {
		pm := d.PayoutMethod.Clone()
		out.PayoutMethod = &pm
	}
	if d.Items != nil {
		out.Items = make([]ExpenseItem, len(d.Items))
		for i, item := range d.Items {
			out.Items[i] = item.Clone()
		}
	}
	if d.Taxes != nil {
		out.Taxes = append([]Tax(nil), d.Taxes...)
	}
	out.PayeeLocation = d.PayeeLocation.Clone()
	if d.AccountingCategory != nil {
		c := *d.AccountingCategory
		out.AccountingCategory = &c
	}
	if d.AttachedFiles != nil {
		out.AttachedFiles = append([]AttachedFile(nil), d.AttachedFiles...)
	}
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	return out
}
