package entity

// InvitedOrganization is the organization sub-form of an invited payee
type InvitedOrganization struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Website     string     `json:"website,omitempty"`
	Description string     `json:"description,omitempty"`
	SlugStatus  SlugStatus `json:"slugStatus,omitempty"`
}

// Payee is the account or invited identity that should receive payment.
// Kind selects which of the fields are meaningful.
type Payee struct {
	Kind         PayeeKind            `json:"kind"`
	ID           string               `json:"id,omitempty"`
	LegacyID     int64                `json:"legacyId,omitempty"`
	Slug         string               `json:"slug,omitempty"`
	Name         string               `json:"name,omitempty"`
	LegalName    string               `json:"legalName,omitempty"`
	Email        string               `json:"email,omitempty"`
	Organization *InvitedOrganization `json:"organization,omitempty"`
	Location     *Location            `json:"location,omitempty"`

	// PayoutMethods lists the payout methods saved on the profile
	PayoutMethods []PayoutMethod `json:"payoutMethods,omitempty"`

	// Requires2FA is set when the owning account mandates two-factor
	// authentication that the current user has not satisfied yet
	Requires2FA bool `json:"requires2FA,omitempty"`
}

// IsInvite returns true if the payee will be invited on submit
func (p *Payee) IsInvite() bool {
	return p != nil && p.Kind.IsInvite()
}

// IsVendor returns true for vendor payees
func (p *Payee) IsVendor() bool {
	return p != nil && p.Kind == PayeeKindVendor
}

// HasAccountReference returns true if the payee resolves to a known account id
func (p *Payee) HasAccountReference() bool {
	return p != nil && (p.ID != "" || p.LegacyID != 0)
}

// VendorPayoutMethod returns the single payout method of a vendor
func (p *Payee) VendorPayoutMethod() *PayoutMethod {
	if !p.IsVendor() || len(p.PayoutMethods) == 0 {
		return nil
	}
	pm := p.PayoutMethods[0].Clone()
	return &pm
}

// Clone returns a deep copy of the payee
func (p *Payee) Clone() *Payee {
	if p == nil {
		return nil
	}
	out := *p
	if p.Organization != nil {
		org := *p.Organization
		out.Organization = &org
	}
	out.Location = p.Location.Clone()
	if p.PayoutMethods != nil {
		out.PayoutMethods = make([]PayoutMethod, len(p.PayoutMethods))
		for i, pm := range p.PayoutMethods {
			out.PayoutMethods[i] = pm.Clone()
		}
	}
	return &out
}
