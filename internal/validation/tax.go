package validation

import (
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// ValidateTax checks a single tax line. Disabled taxes are never emitted
// and therefore never invalid.
func ValidateTax(tax entity.Tax) FieldErrors {
	errs := FieldErrors{}
	if tax.Disabled {
		return errs
	}

	if tax.Rate < 0 || tax.Rate > 1 {
		errs.add(FieldRate, CodeRateOutOfRange)
		return errs
	}

	if tax.Rate > 0 {
		if tax.IDNumber == "" {
			errs.add(FieldIDNumber, CodeRequired)
		} else if err := utils.ValidateTaxID(string(tax.Type), tax.IDNumber); err != nil {
			errs.add(FieldIDNumber, CodeInvalidTaxID)
		}
	}
	return errs
}
