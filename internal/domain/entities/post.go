package entities

import "time"

// Post is a position in an organization. A specific post belongs to one
// organization; a generic post (no organization) can be held anywhere.
type Post struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	OtherLabel     string `json:"other_label,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	AreaID         string `json:"area_id,omitempty"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGeneric reports whether the post is not tied to an organization.
func (p *Post) IsGeneric() bool {
	return p.OrganizationID == ""
}

// ResolveOrganization returns the organization a role on p is held in.
// A specific post rejects an explicit organization, a generic one requires it.
func (p *Post) ResolveOrganization(explicit string) (string, error) {
	if p.IsGeneric() {
		if explicit == "" {
			return "", &ValidationError{Field: "organization", Message: "post needs to be specific, i.e. linked to an organization", Err: ErrPostMismatch}
		}
		return explicit, nil
	}
	if explicit != "" {
		return "", &ValidationError{Field: "organization", Message: "post needs to be generic, i.e. not linked to an organization", Err: ErrPostMismatch}
	}
	return p.OrganizationID, nil
}

// Validate checks required fields and dates.
func (p *Post) Validate() error {
	if p.Label == "" {
		return validationErrorf("label", "a post needs a label")
	}
	return p.ValidateDates()
}
