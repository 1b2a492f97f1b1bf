package entities

import "time"

// DefaultOtherNameType is used when an alternate name has no type.
const DefaultOtherNameType = "ALT"

// Identifier is an issued identifier for an entity, valid over a period.
type Identifier struct {
	ID         string   `json:"id"`
	Owner      OwnerRef `json:"owner"`
	Scheme     string   `json:"scheme"`
	Identifier string   `json:"identifier"`
	Source     string   `json:"source,omitempty"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks owner, scheme, value and dates.
func (i *Identifier) Validate() error {
	if err := i.Owner.Validate(); err != nil {
		return err
	}
	if i.Scheme == "" {
		return validationErrorf("scheme", "an identifier needs a scheme")
	}
	if i.Identifier == "" {
		return validationErrorf("identifier", "an identifier needs a value")
	}
	return i.ValidateDates()
}

// OtherName is an alternate or former name, valid over a period.
type OtherName struct {
	ID     string   `json:"id"`
	Owner  OwnerRef `json:"owner"`
	Type   string   `json:"othername_type"`
	Name   string   `json:"name"`
	Note   string   `json:"note,omitempty"`
	Source string   `json:"source,omitempty"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate fills the default type and checks owner, name and dates.
func (n *OtherName) Validate() error {
	if n.Type == "" {
		n.Type = DefaultOtherNameType
	}
	if err := n.Owner.Validate(); err != nil {
		return err
	}
	if n.Name == "" {
		return validationErrorf("name", "an other name needs a name")
	}
	return n.ValidateDates()
}
