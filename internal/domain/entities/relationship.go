package entities

import (
	"time"
)

// Membership ties a member (a person or an organization) to an organization,
// optionally through a post and on behalf of another organization.
type Membership struct {
	ID                   string `json:"id"`
	PersonID             string `json:"person_id,omitempty"`
	MemberOrganizationID string `json:"member_organization_id,omitempty"`
	OrganizationID       string `json:"organization_id"`
	PostID               string `json:"post_id,omitempty"`
	OnBehalfOfID         string `json:"on_behalf_of_id,omitempty"`
	AreaID               string `json:"area_id,omitempty"`
	Role                 string `json:"role,omitempty"`
	Label                string `json:"label,omitempty"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MembershipScope is the bucket key of a membership for its member.
type MembershipScope struct {
	OrganizationID string
	PostID         string
	OnBehalfOfID   string
	// Label is only part of the key when the caller asks for it.
	Label string
}

// Member returns the person or organization holding the membership.
func (m *Membership) Member() OwnerRef {
	if m.PersonID != "" {
		return OwnerRef{Kind: OwnerPerson, ID: m.PersonID}
	}
	return OwnerRef{Kind: OwnerOrganization, ID: m.MemberOrganizationID}
}

// SetMember assigns the member side from a reference.
func (m *Membership) SetMember(ref OwnerRef) error {
	m.PersonID, m.MemberOrganizationID = "", ""
	switch ref.Kind {
	case OwnerPerson:
		m.PersonID = ref.ID
	case OwnerOrganization:
		m.MemberOrganizationID = ref.ID
	default:
		return validationErrorf("member", "member must be a person or an organization, got %q", ref.Kind)
	}
	return nil
}

// Scope returns the bucket key; the label counts only with checkLabel.
func (m *Membership) Scope(checkLabel bool) MembershipScope {
	s := MembershipScope{
		OrganizationID: m.OrganizationID,
		PostID:         m.PostID,
		OnBehalfOfID:   m.OnBehalfOfID,
	}
	if checkLabel {
		s.Label = m.Label
	}
	return s
}

// Validate checks that exactly one member and an organization are set.
func (m *Membership) Validate() error {
	switch {
	case m.PersonID == "" && m.MemberOrganizationID == "":
		return validationErrorf("member", "a member, either a person or an organization, must be specified")
	case m.PersonID != "" && m.MemberOrganizationID != "":
		return validationErrorf("member", "a membership has either a person or an organization as member, not both")
	case m.OrganizationID == "":
		return validationErrorf("organization", "an organization must be specified")
	case m.MemberOrganizationID != "" && m.MemberOrganizationID == m.OrganizationID:
		return validationErrorf("member", "an organization cannot be a member of itself")
	}
	return m.ValidateDates()
}

// Ownership records that a person or an organization owns a share of an organization.
type Ownership struct {
	ID                  string  `json:"id"`
	OwnerPersonID       string  `json:"owner_person_id,omitempty"`
	OwnerOrganizationID string  `json:"owner_organization_id,omitempty"`
	OwnedOrganizationID string  `json:"owned_organization_id"`
	Percentage          float64 `json:"percentage"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnershipScope is the bucket key of an ownership for its owner. Two shares of
// the same organization at different percentages never meet in one bucket.
type OwnershipScope struct {
	OwnedOrganizationID string
	Percentage          float64
}

// Owner returns the person or organization holding the share.
func (o *Ownership) Owner() OwnerRef {
	if o.OwnerPersonID != "" {
		return OwnerRef{Kind: OwnerPerson, ID: o.OwnerPersonID}
	}
	return OwnerRef{Kind: OwnerOrganization, ID: o.OwnerOrganizationID}
}

// SetOwner assigns the owner side from a reference.
func (o *Ownership) SetOwner(ref OwnerRef) error {
	o.OwnerPersonID, o.OwnerOrganizationID = "", ""
	switch ref.Kind {
	case OwnerPerson:
		o.OwnerPersonID = ref.ID
	case OwnerOrganization:
		o.OwnerOrganizationID = ref.ID
	default:
		return validationErrorf("owner", "owner must be a person or an organization, got %q", ref.Kind)
	}
	return nil
}

// Scope returns the bucket key.
func (o *Ownership) Scope() OwnershipScope {
	return OwnershipScope{OwnedOrganizationID: o.OwnedOrganizationID, Percentage: o.Percentage}
}

// Validate checks owner, owned organization, percentage and dates.
func (o *Ownership) Validate() error {
	switch {
	case o.OwnerPersonID == "" && o.OwnerOrganizationID == "":
		return validationErrorf("owner", "an owner, either a person or an organization, must be specified")
	case o.OwnerPersonID != "" && o.OwnerOrganizationID != "":
		return validationErrorf("owner", "an ownership has either a person or an organization as owner, not both")
	case o.OwnedOrganizationID == "":
		return validationErrorf("owned_organization", "an owned organization must be specified")
	}
	if err := ValidatePercentage(o.Percentage); err != nil {
		return err
	}
	return o.ValidateDates()
}

// ValidatePercentage checks that v lies in [0, 100].
func ValidatePercentage(v float64) error {
	if v < 0 || v > 100 {
		return validationErrorf("percentage", "%v is not a percentage", v)
	}
	return nil
}
