package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("jane.doe+expenses@example.org"))
	assert.Error(t, ValidateEmail("jane@"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug    string
		wantErr bool
	}{
		{"acme-corp", false},
		{"a1", false},
		{"Acme", true},
		{"acme--corp", true},
		{"-acme", true},
		{"a", true},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTaxID(t *testing.T) {
	assert.NoError(t, ValidateTaxID("VAT", "FR 12-345678901"))
	assert.Error(t, ValidateTaxID("VAT", "12345"))
	assert.NoError(t, ValidateTaxID("GST", "123 456 789"))
	assert.Error(t, ValidateTaxID("GST", "ABC"))
	assert.Error(t, ValidateTaxID("OTHER", "  "))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "line one\nline two", CleanText("  line one\r\nline two\x00  "))
}
