package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/expense-intake/internal/domain/entity"
)

func TestValidateInvite(t *testing.T) {
	tests := []struct {
		name  string
		payee *entity.Payee
		want  FieldErrors
	}{
		{
			name:  "valid individual",
			payee: &entity.Payee{Kind: entity.PayeeKindInvitedIndividual, Name: "Sam", Email: "sam@example.org"},
			want:  FieldErrors{},
		},
		{
			name:  "individual missing fields",
			payee: &entity.Payee{Kind: entity.PayeeKindInvitedIndividual, Email: "sam@"},
			want:  FieldErrors{FieldName: CodeRequired, FieldEmail: CodeInvalidEmail},
		},
		{
			name:  "organization without sub-form",
			payee: &entity.Payee{Kind: entity.PayeeKindInvitedOrganization, Name: "Sam", Email: "sam@example.org"},
			want:  FieldErrors{FieldOrganizationName: CodeRequired, FieldOrganizationSlug: CodeRequired},
		},
		{
			name: "organization slug taken",
			payee: &entity.Payee{
				Kind: entity.PayeeKindInvitedOrganization, Name: "Sam", Email: "sam@example.org",
				Organization: &entity.InvitedOrganization{Name: "Acme", Slug: "acme", SlugStatus: entity.SlugStatusTaken},
			},
			want: FieldErrors{FieldOrganizationSlug: CodeSlugTaken},
		},
		{
			name: "organization slug malformed",
			payee: &entity.Payee{
				Kind: entity.PayeeKindInvitedOrganization, Name: "Sam", Email: "sam@example.org",
				Organization: &entity.InvitedOrganization{Name: "Acme", Slug: "Acme Corp"},
			},
			want: FieldErrors{FieldOrganizationSlug: CodeInvalidSlug},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateInvite(tt.payee))
		})
	}
}

func TestValidatePayoutMethod(t *testing.T) {
	tests := []struct {
		name string
		pm   entity.PayoutMethod
		want FieldErrors
	}{
		{
			name: "bank account with iban",
			pm: entity.PayoutMethod{Type: entity.PayoutMethodBankAccount, Currency: "EUR",
				Data: map[string]string{DataAccountHolderName: "Jane", DataIBAN: "FR7630006000011234567890189"}},
			want: FieldErrors{},
		},
		{
			name: "bank account missing everything",
			pm:   entity.PayoutMethod{Type: entity.PayoutMethodBankAccount},
			want: FieldErrors{FieldCurrency: CodeRequired, DataAccountHolderName: CodeRequired, DataAccountNumber: CodeRequired},
		},
		{
			name: "other needs content",
			pm:   entity.PayoutMethod{Type: entity.PayoutMethodOther, Data: map[string]string{DataContent: " "}},
			want: FieldErrors{DataContent: CodeRequired},
		},
		{
			name: "account balance has no fields",
			pm:   entity.PayoutMethod{Type: entity.PayoutMethodAccountBalance},
			want: FieldErrors{},
		},
		{
			name: "unknown type",
			pm:   entity.PayoutMethod{Type: "CRYPTO"},
			want: FieldErrors{FieldType: CodeRequired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePayoutMethod(tt.pm))
		})
	}
}
