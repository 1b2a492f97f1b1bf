package entities

import "time"

// Area is a geographic area: a constituency, a region, a municipality.
type Area struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Identifier     string `json:"identifier,omitempty"`
	Classification string `json:"classification,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	Dateframe
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required fields and dates.
func (a *Area) Validate() error {
	if a.Name == "" {
		return validationErrorf("name", "an area needs a name")
	}
	return a.ValidateDates()
}
