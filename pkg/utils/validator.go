package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	slugRegex  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// VAT numbers: two-letter country prefix followed by 2-13 alphanumerics
	vatRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{2,13}$`)
	// GST numbers: 8-15 digits, optionally grouped
	gstRegex = regexp.MustCompile(`^[0-9]{8,15}$`)

	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateSlug validates an account slug
func ValidateSlug(slug string) error {
	if len(slug) < 2 || len(slug) > 255 {
		return fmt.Errorf("slug must be between 2 and 255 characters: %s", slug)
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug may only contain lowercase letters, digits and dashes: %s", slug)
	}
	return nil
}

// ValidateTaxID validates a tax identification number for the given tax type
func ValidateTaxID(taxType, idNumber string) error {
	normalized := NormalizeTaxID(idNumber)
	switch strings.ToUpper(taxType) {
	case "VAT":
		if !vatRegex.MatchString(normalized) {
			return fmt.Errorf("invalid VAT number: %s", idNumber)
		}
	case "GST":
		if !gstRegex.MatchString(normalized) {
			return fmt.Errorf("invalid GST number: %s", idNumber)
		}
	default:
		if normalized == "" {
			return fmt.Errorf("tax ID is empty")
		}
	}
	return nil
}

// NormalizeTaxID strips separators and upper-cases a tax id
func NormalizeTaxID(idNumber string) string {
	r := strings.NewReplacer(" ", "", "-", "", ".", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(idNumber)))
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// CleanText trims a free-text field and removes control characters except newlines
func CleanText(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = SanitizeString(strings.TrimRight(line, "\r"))
	}
	return strings.Join(lines, "\n")
}
