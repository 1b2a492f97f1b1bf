package entities

import (
	"time"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// Organization is a group with a common purpose: a party, a chamber, a company.
type Organization struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Classification  string           `json:"classification,omitempty"`
	Abstract        string           `json:"abstract,omitempty"`
	ParentID        string           `json:"parent_id,omitempty"`
	AreaID          string           `json:"area_id,omitempty"`
	FoundingDate    partialdate.Date `json:"founding_date"`
	DissolutionDate partialdate.Date `json:"dissolution_date"`
	Image           string           `json:"image,omitempty"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize copies founding and dissolution dates into the validity period.
func (o *Organization) Normalize() {
	if !o.FoundingDate.IsNull() {
		o.StartDate = o.FoundingDate
	}
	if !o.DissolutionDate.IsNull() {
		o.EndDate = o.DissolutionDate
	}
}

// Validate normalizes o and checks its required fields and dates.
func (o *Organization) Validate() error {
	o.Normalize()
	if o.Name == "" {
		return validationErrorf("name", "an organization needs a name")
	}
	if o.ParentID != "" && o.ParentID == o.ID {
		return validationErrorf("parent_id", "an organization cannot be its own parent")
	}
	return o.ValidateDates()
}
