package entity

import "strings"

// structuredAddressKeys lists structured address fields in display order
var structuredAddressKeys = []string{"address1", "address2", "city", "zone", "postalCode"}

// Location is the payee's legal address
type Location struct {
	Address    string            `json:"address,omitempty"`
	Country    string            `json:"country,omitempty"`
	Structured map[string]string `json:"structured,omitempty"`
}

// IsEmpty returns true if nothing was entered
func (l *Location) IsEmpty() bool {
	return l == nil || (strings.TrimSpace(l.Address) == "" && l.Country == "" && len(l.Structured) == 0)
}

// HasUserInput returns true if the user already typed an address or picked a country
func (l *Location) HasUserInput() bool {
	return l != nil && (strings.TrimSpace(l.Address) != "" || l.Country != "")
}

// Normalized derives Address from the structured fields. The result of
// normalizing an already normalized location is identical to its input.
func (l *Location) Normalized() *Location {
	if l == nil {
		return nil
	}
	out := l.Clone()
	if len(l.Structured) == 0 {
		return out
	}
	parts := make([]string, 0, len(structuredAddressKeys))
	for _, key := range structuredAddressKeys {
		if v := strings.TrimSpace(l.Structured[key]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		out.Address = strings.Join(parts, "\n")
	}
	return out
}

// Equal compares two locations field by field
func (l *Location) Equal(other *Location) bool {
	if l == nil || other == nil {
		return l == nil && other == nil
	}
	if l.Address != other.Address || l.Country != other.Country || len(l.Structured) != len(other.Structured) {
		return false
	}
	for k, v := range l.Structured {
		if other.Structured[k] != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the location
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := *l
	if l.Structured != nil {
		out.Structured = make(map[string]string, len(l.Structured))
		for k, v := range l.Structured {
			out.Structured[k] = v
		}
	}
	return &out
}
