package validation

import (
	"strings"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// ValidateInvite validates the invite sub-form of an invited payee.
// Individuals need a name and an email; organizations need a name and an
// available slug, plus the email of the person receiving the invite.
func ValidateInvite(p *entity.Payee) FieldErrors {
	errs := FieldErrors{}
	if p == nil {
		errs.add(FieldName, CodeRequired)
		return errs
	}

	if strings.TrimSpace(p.Name) == "" {
		errs.add(FieldName, CodeRequired)
	}

	email := strings.TrimSpace(p.Email)
	if email == "" {
		errs.add(FieldEmail, CodeRequired)
	} else if err := utils.ValidateEmail(email); err != nil {
		errs.add(FieldEmail, CodeInvalidEmail)
	}

	if p.Kind != entity.PayeeKindInvitedOrganization {
		return errs
	}

	org := p.Organization
	if org == nil {
		errs.add(FieldOrganizationName, CodeRequired)
		errs.add(FieldOrganizationSlug, CodeRequired)
		return errs
	}
	if strings.TrimSpace(org.Name) == "" {
		errs.add(FieldOrganizationName, CodeRequired)
	}
	switch {
	case org.Slug == "":
		errs.add(FieldOrganizationSlug, CodeRequired)
	case utils.ValidateSlug(org.Slug) != nil:
		errs.add(FieldOrganizationSlug, CodeInvalidSlug)
	case org.SlugStatus == entity.SlugStatusTaken:
		errs.add(FieldOrganizationSlug, CodeSlugTaken)
	}
	return errs
}
