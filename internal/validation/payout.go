package validation

import (
	"strings"

	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// Payout method data keys
const (
	DataAccountHolderName = "accountHolderName"
	DataIBAN              = "iban"
	DataAccountNumber     = "accountNumber"
	DataEmail             = "email"
	DataContent           = "content"
)

type payoutValidator func(pm entity.PayoutMethod, errs FieldErrors)

var payoutValidators = map[entity.PayoutMethodType]payoutValidator{
	entity.PayoutMethodBankAccount:    validateBankAccount,
	entity.PayoutMethodPayPal:         validatePayPal,
	entity.PayoutMethodOther:          validateOther,
	entity.PayoutMethodAccountBalance: func(entity.PayoutMethod, FieldErrors) {},
}

// ValidatePayoutMethod checks the type-specific fields of a new payout method
func ValidatePayoutMethod(pm entity.PayoutMethod) FieldErrors {
	errs := FieldErrors{}
	validate, ok := payoutValidators[pm.Type]
	if !ok {
		errs.add(FieldType, CodeRequired)
		return errs
	}
	validate(pm, errs)
	return errs
}

func validateBankAccount(pm entity.PayoutMethod, errs FieldErrors) {
	if pm.Currency == "" {
		errs.add(FieldCurrency, CodeRequired)
	} else if !currency.IsValidCode(pm.Currency) {
		errs.add(FieldCurrency, CodeInvalidCurrency)
	}
	if blank(pm.Data[DataAccountHolderName]) {
		errs.add(DataAccountHolderName, CodeRequired)
	}
	if blank(pm.Data[DataIBAN]) && blank(pm.Data[DataAccountNumber]) {
		errs.add(DataAccountNumber, CodeRequired)
	}
}

func validatePayPal(pm entity.PayoutMethod, errs FieldErrors) {
	email := strings.TrimSpace(pm.Data[DataEmail])
	if email == "" {
		errs.add(DataEmail, CodeRequired)
	} else if err := utils.ValidateEmail(email); err != nil {
		errs.add(DataEmail, CodeInvalidEmail)
	}
}

func validateOther(pm entity.PayoutMethod, errs FieldErrors) {
	if blank(pm.Data[DataContent]) {
		errs.add(DataContent, CodeRequired)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
