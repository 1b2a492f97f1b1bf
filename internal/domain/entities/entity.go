// Package entities contains the Popolo domain data structures.
package entities

import (
	"fmt"
	"strings"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// OwnerKind is the closed set of entities that can hold dated facts.
type OwnerKind string

const (
	OwnerPerson       OwnerKind = "person"
	OwnerOrganization OwnerKind = "organization"
	OwnerPost         OwnerKind = "post"
	OwnerMembership   OwnerKind = "membership"
	OwnerArea         OwnerKind = "area"
)

// OwnerKinds lists every valid owner kind.
var OwnerKinds = []OwnerKind{OwnerPerson, OwnerOrganization, OwnerPost, OwnerMembership, OwnerArea}

// IsValid reports whether k is a known owner kind.
func (k OwnerKind) IsValid() bool {
	for _, known := range OwnerKinds {
		if k == known {
			return true
		}
	}
	return false
}

// OwnerRef points at the entity a dated fact is attached to.
type OwnerRef struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

// Validate checks that the reference is complete.
func (o OwnerRef) Validate() error {
	if !o.Kind.IsValid() {
		return validationErrorf("owner", "unknown owner kind %q", o.Kind)
	}
	if o.ID == "" {
		return validationErrorf("owner", "owner id is required")
	}
	return nil
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s:%s", o.Kind, o.ID)
}

// ParseOwnerRef parses "kind:id".
func ParseOwnerRef(s string) (OwnerRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return OwnerRef{}, validationErrorf("owner", "expected kind:id, got %q", s)
	}
	ref := OwnerRef{Kind: OwnerKind(strings.ToLower(kind)), ID: id}
	return ref, ref.Validate()
}

// Dateframe is the validity period shared by every dated entity.
type Dateframe struct {
	StartDate partialdate.Date `json:"start_date"`
	EndDate   partialdate.Date `json:"end_date"`
}

// Interval returns the period as an interval.
func (d Dateframe) Interval() partialdate.Interval {
	return partialdate.Interval{Start: d.StartDate, End: d.EndDate}
}

// SetInterval replaces both bounds.
func (d *Dateframe) SetInterval(i partialdate.Interval) {
	d.StartDate = i.Start
	d.EndDate = i.End
}

// ValidateDates checks that the start does not follow the end.
func (d Dateframe) ValidateDates() error {
	if err := d.Interval().Validate(); err != nil {
		return &ValidationError{Field: "start_date", Message: "initial date must precede end date", Err: err}
	}
	return nil
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
