package currency

import (
	"strings"

	xcurrency "golang.org/x/text/currency"
)

// IsValidCode reports whether code is a recognised ISO 4217 currency code
func IsValidCode(code string) bool {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return false
	}
	_, err := xcurrency.ParseISO(code)
	return err == nil
}

// Normalize upper-cases and trims a currency code; invalid codes normalize to ""
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsValidCode(code) {
		return ""
	}
	return code
}

// MinorUnits returns the number of decimals used by the currency
func MinorUnits(code string) int {
	unit, err := xcurrency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := xcurrency.Standard.Rounding(unit)
	return scale
}
