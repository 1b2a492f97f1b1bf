package entities

import (
	"time"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// Person is a real person, alive or dead.
type Person struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	FamilyName    string           `json:"family_name,omitempty"`
	GivenName     string           `json:"given_name,omitempty"`
	SortName      string           `json:"sort_name,omitempty"`
	Email         string           `json:"email,omitempty"`
	Gender        string           `json:"gender,omitempty"`
	BirthDate     partialdate.Date `json:"birth_date"`
	DeathDate     partialdate.Date `json:"death_date"`
	BirthLocation string           `json:"birth_location,omitempty"`
	Image         string           `json:"image,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	Biography     string           `json:"biography,omitempty"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize copies birth and death dates into the validity period.
func (p *Person) Normalize() {
	if !p.BirthDate.IsNull() {
		p.StartDate = p.BirthDate
	}
	if !p.DeathDate.IsNull() {
		p.EndDate = p.DeathDate
	}
}

// Validate normalizes p and checks its required fields and dates.
func (p *Person) Validate() error {
	p.Normalize()
	if p.Name == "" {
		return validationErrorf("name", "a person needs a name")
	}
	return p.ValidateDates()
}
