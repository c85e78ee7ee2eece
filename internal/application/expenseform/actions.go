package expenseform

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// Action is one user intent applied to the draft by the reducer
type Action interface {
	ActionName() string
}

// SelectPayee selects, replaces or edits the payee. Invited payees are
// edited by selecting them again with the updated sub-form.
type SelectPayee struct {
	Payee *entity.Payee `json:"payee"`
}

// ChangeType switches the expense type
type ChangeType struct {
	Type entity.ExpenseType `json:"type"`
}

// ChangeCurrency switches the expense currency
type ChangeCurrency struct {
	Currency string `json:"currency"`
}

// SelectPayoutMethod picks or creates the payout method
type SelectPayoutMethod struct {
	PayoutMethod *entity.PayoutMethod `json:"payoutMethod"`
}

// SetLocation edits the payee legal address
type SetLocation struct {
	Location *entity.Location `json:"location"`
}

// AddItem appends an item; an ID is generated when empty
type AddItem struct {
	Item entity.ExpenseItem `json:"item"`
}

// RemoveItem deletes an item
type RemoveItem struct {
	ItemID string `json:"itemId"`
}

// ChangeItemAmount edits the amount and currency of an item
type ChangeItemAmount struct {
	ItemID string        `json:"itemId"`
	Amount entity.Amount `json:"amount"`
}

// UpdateItem edits the non-amount fields of an item. Nil fields are left unchanged.
type UpdateItem struct {
	ItemID           string     `json:"itemId"`
	Description      *string    `json:"description,omitempty"`
	IncurredAt       *time.Time `json:"incurredAt,omitempty"`
	ClearIncurredAt  bool       `json:"clearIncurredAt,omitempty"`
	URL              *string    `json:"url,omitempty"`
	UploadInProgress *bool      `json:"uploadInProgress,omitempty"`
}

// ItemParsed attaches an OCR parsing result to an item
type ItemParsed struct {
	ItemID string               `json:"itemId"`
	Result entity.ParsingResult `json:"result"`
}

// SetManualRate records an exchange rate typed by the submitter
type SetManualRate struct {
	ItemID string          `json:"itemId"`
	Value  decimal.Decimal `json:"value"`
}

// SetTaxes replaces the tax lines
type SetTaxes struct {
	Taxes []entity.Tax `json:"taxes"`
}

// SetAccountingCategory picks the accounting category
type SetAccountingCategory struct {
	Category *entity.AccountingCategory `json:"category"`
}

// SetAttachedFiles replaces the supporting documents
type SetAttachedFiles struct {
	Files []entity.AttachedFile `json:"files"`
}

// SetDetails edits free-text metadata. Nil fields are left unchanged.
type SetDetails struct {
	Description    *string  `json:"description,omitempty"`
	InvoiceInfo    *string  `json:"invoiceInfo,omitempty"`
	Reference      *string  `json:"reference,omitempty"`
	PrivateMessage *string  `json:"privateMessage,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

func (SelectPayee) ActionName() string           { return "SELECT_PAYEE" }
func (ChangeType) ActionName() string            { return "CHANGE_TYPE" }
func (ChangeCurrency) ActionName() string        { return "CHANGE_CURRENCY" }
func (SelectPayoutMethod) ActionName() string    { return "SELECT_PAYOUT_METHOD" }
func (SetLocation) ActionName() string           { return "SET_LOCATION" }
func (AddItem) ActionName() string               { return "ADD_ITEM" }
func (RemoveItem) ActionName() string            { return "REMOVE_ITEM" }
func (ChangeItemAmount) ActionName() string      { return "ITEM_AMOUNT_CHANGED" }
func (UpdateItem) ActionName() string            { return "UPDATE_ITEM" }
func (ItemParsed) ActionName() string            { return "ITEM_PARSED" }
func (SetManualRate) ActionName() string         { return "SET_MANUAL_RATE" }
func (SetTaxes) ActionName() string              { return "SET_TAXES" }
func (SetAccountingCategory) ActionName() string { return "SET_ACCOUNTING_CATEGORY" }
func (SetAttachedFiles) ActionName() string      { return "SET_ATTACHED_FILES" }
func (SetDetails) ActionName() string            { return "SET_DETAILS" }
