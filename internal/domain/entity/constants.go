package entity

// ExpenseType identifies the kind of expense being submitted
type ExpenseType string

const (
	ExpenseTypeInvoice ExpenseType = "INVOICE"
	ExpenseTypeReceipt ExpenseType = "RECEIPT"
	ExpenseTypeGrant   ExpenseType = "GRANT"
	ExpenseTypeCharge  ExpenseType = "CHARGE"
)

// String returns the string representation of the expense type
func (t ExpenseType) String() string {
	return string(t)
}

// IsValid returns true if the expense type is one of the known types
func (t ExpenseType) IsValid() bool {
	switch t {
	case ExpenseTypeInvoice, ExpenseTypeReceipt, ExpenseTypeGrant, ExpenseTypeCharge:
		return true
	default:
		return false
	}
}

// PayeeKind distinguishes the variants of Payee
type PayeeKind string

const (
	PayeeKindNone                PayeeKind = "NONE"
	PayeeKindExistingProfile     PayeeKind = "EXISTING_PROFILE"
	PayeeKindVendor              PayeeKind = "VENDOR"
	PayeeKindInvitedIndividual   PayeeKind = "INVITED_INDIVIDUAL"
	PayeeKindInvitedOrganization PayeeKind = "INVITED_ORGANIZATION"
)

// String returns the string representation of the payee kind
func (k PayeeKind) String() string {
	return string(k)
}

// IsInvite returns true when the payee will be created/invited on submit
func (k PayeeKind) IsInvite() bool {
	return k == PayeeKindInvitedIndividual || k == PayeeKindInvitedOrganization
}

// IsValid returns true if the kind is a known payee kind
func (k PayeeKind) IsValid() bool {
	switch k {
	case PayeeKindNone, PayeeKindExistingProfile, PayeeKindVendor,
		PayeeKindInvitedIndividual, PayeeKindInvitedOrganization:
		return true
	default:
		return false
	}
}

// RateSource identifies where an exchange rate came from
type RateSource string

const (
	RateSourceOpenCollective RateSource = "OPEN_COLLECTIVE"
	RateSourceUser           RateSource = "USER"
)

// PayoutMethodType identifies the payout mechanism
type PayoutMethodType string

const (
	PayoutMethodBankAccount    PayoutMethodType = "BANK_ACCOUNT"
	PayoutMethodPayPal         PayoutMethodType = "PAYPAL"
	PayoutMethodOther          PayoutMethodType = "OTHER"
	PayoutMethodAccountBalance PayoutMethodType = "ACCOUNT_BALANCE"
)

// DraftStatus is derived from the draft identifiers, never stored
type DraftStatus string

const (
	DraftStatusNew      DraftStatus = "NEW"
	DraftStatusDraft    DraftStatus = "DRAFT"
	DraftStatusExisting DraftStatus = "EXISTING"
)

// SlugStatus tracks availability checks for an invited organization slug
type SlugStatus string

const (
	SlugStatusUnknown   SlugStatus = ""
	SlugStatusChecking  SlugStatus = "CHECKING"
	SlugStatusAvailable SlugStatus = "AVAILABLE"
	SlugStatusTaken     SlugStatus = "TAKEN"
)

// TaxType identifies a tax regime
type TaxType string

const (
	TaxTypeVAT TaxType = "VAT"
	TaxTypeGST TaxType = "GST"
)

// UncategorizedAccountingCategoryID is the allow-null sentinel: the submitter
// explicitly does not know which category applies.
const UncategorizedAccountingCategoryID = "__uncategorized__"
