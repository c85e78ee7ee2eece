package entity

// PayoutMethod is the mechanism used to pay the payee
type PayoutMethod struct {
	ID       string            `json:"id,omitempty"`
	Type     PayoutMethodType  `json:"type"`
	Name     string            `json:"name,omitempty"`
	Currency string            `json:"currency,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
	IsSaved  bool              `json:"isSaved"`
}

// SupportsCurrency reports whether an expense in currency can be paid out
// through this method. Methods bound to a currency only pay that currency;
// OTHER and ACCOUNT_BALANCE are currency agnostic.
func (pm *PayoutMethod) SupportsCurrency(currency string) bool {
	if pm == nil {
		return true
	}
	switch pm.Type {
	case PayoutMethodOther, PayoutMethodAccountBalance:
		return true
	}
	return pm.Currency == "" || pm.Currency == currency
}

// Clone returns a deep copy of the payout method
func (pm PayoutMethod) Clone() PayoutMethod {
	out := pm
	if pm.Data != nil {
		out.Data = make(map[string]string, len(pm.Data))
		for k, v := range pm.Data {
			out.Data[k] = v
		}
	}
	return out
}
