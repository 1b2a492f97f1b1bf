// Package parsers reads Popolo data from the formats accepted by import.
package parsers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// Document is a Popolo export. Every record carries the external string id it
// had in the source system; the importer maps those ids to stored rows.
type Document struct {
	Persons       []PersonRecord       `json:"persons"`
	Organizations []OrganizationRecord `json:"organizations"`
	Posts         []PostRecord         `json:"posts"`
	Memberships   []MembershipRecord   `json:"memberships"`
	Areas         []AreaRecord         `json:"areas"`

	// Identifiers are attached to entities that already exist. Only the
	// identifier CSV format fills them.
	Identifiers []IdentifierRow `json:"-"`
}

// IsEmpty reports whether the document holds nothing to import.
func (d *Document) IsEmpty() bool {
	return len(d.Persons) == 0 && len(d.Organizations) == 0 && len(d.Posts) == 0 &&
		len(d.Memberships) == 0 && len(d.Areas) == 0 && len(d.Identifiers) == 0
}

// IdentifierRecord is an identifier nested in an entity record.
type IdentifierRecord struct {
	Scheme     string           `json:"scheme"`
	Identifier string           `json:"identifier"`
	StartDate  partialdate.Date `json:"start_date"`
	EndDate    partialdate.Date `json:"end_date"`
	Source     string           `json:"source,omitempty"`
}

// OtherNameRecord is an alternate name nested in an entity record.
type OtherNameRecord struct {
	Name      string           `json:"name"`
	Type      string           `json:"othername_type,omitempty"`
	Note      string           `json:"note,omitempty"`
	StartDate partialdate.Date `json:"start_date"`
	EndDate   partialdate.Date `json:"end_date"`
	Source    string           `json:"source,omitempty"`
}

type PersonRecord struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	FamilyName  string             `json:"family_name,omitempty"`
	GivenName   string             `json:"given_name,omitempty"`
	SortName    string             `json:"sort_name,omitempty"`
	Email       string             `json:"email,omitempty"`
	Gender      string             `json:"gender,omitempty"`
	BirthDate   partialdate.Date   `json:"birth_date"`
	DeathDate   partialdate.Date   `json:"death_date"`
	Image       string             `json:"image,omitempty"`
	Summary     string             `json:"summary,omitempty"`
	Biography   string             `json:"biography,omitempty"`
	Identifiers []IdentifierRecord `json:"identifiers,omitempty"`
	OtherNames  []OtherNameRecord  `json:"other_names,omitempty"`
	// Memberships listed inline under the person; PersonID may be omitted.
	Memberships []MembershipRecord `json:"memberships,omitempty"`
}

type OrganizationRecord struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Classification  string             `json:"classification,omitempty"`
	ParentID        string             `json:"parent_id,omitempty"`
	AreaID          string             `json:"area_id,omitempty"`
	Area            *AreaRecord        `json:"area,omitempty"`
	FoundingDate    partialdate.Date   `json:"founding_date"`
	DissolutionDate partialdate.Date   `json:"dissolution_date"`
	Image           string             `json:"image,omitempty"`
	Identifiers     []IdentifierRecord `json:"identifiers,omitempty"`
	OtherNames      []OtherNameRecord  `json:"other_names,omitempty"`
}

type PostRecord struct {
	ID             string           `json:"id"`
	Label          string           `json:"label"`
	OtherLabel     string           `json:"other_label,omitempty"`
	Role           string           `json:"role,omitempty"`
	OrganizationID string           `json:"organization_id,omitempty"`
	AreaID         string           `json:"area_id,omitempty"`
	Area           *AreaRecord      `json:"area,omitempty"`
	StartDate      partialdate.Date `json:"start_date"`
	EndDate        partialdate.Date `json:"end_date"`
}

type MembershipRecord struct {
	ID                   string           `json:"id,omitempty"`
	PersonID             string           `json:"person_id,omitempty"`
	MemberOrganizationID string           `json:"member_organization_id,omitempty"`
	OrganizationID       string           `json:"organization_id"`
	PostID               string           `json:"post_id,omitempty"`
	OnBehalfOfID         string           `json:"on_behalf_of_id,omitempty"`
	AreaID               string           `json:"area_id,omitempty"`
	Area                 *AreaRecord      `json:"area,omitempty"`
	Role                 string           `json:"role,omitempty"`
	Label                string           `json:"label,omitempty"`
	StartDate            partialdate.Date `json:"start_date"`
	EndDate              partialdate.Date `json:"end_date"`
}

// Key returns the record's id, or one built from the fields that make a
// membership unique when the source gave none.
func (m MembershipRecord) Key() string {
	if m.ID != "" {
		return m.ID
	}
	part := func(s string) string {
		if s == "" {
			return "missing"
		}
		return s
	}
	member := m.PersonID
	if member == "" {
		member = m.MemberOrganizationID
	}
	return strings.Join([]string{
		part(m.OrganizationID), part(m.AreaID), part(m.Role),
		part(m.OnBehalfOfID), part(member), part(m.StartDate.String()),
	}, "_")
}

type AreaRecord struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Identifier       string             `json:"identifier,omitempty"`
	Classification   string             `json:"classification,omitempty"`
	ParentID         string             `json:"parent_id,omitempty"`
	OtherIdentifiers []IdentifierRecord `json:"other_identifiers,omitempty"`
}

// IdentifierRow is one line of an identifier CSV file. OwnerID is either a
// stored id or the external id an earlier import recorded.
type IdentifierRow struct {
	OwnerKind  string
	OwnerID    string
	Scheme     string
	Identifier string
	StartDate  partialdate.Date
	EndDate    partialdate.Date
	Source     string
	LineNum    int
}

// Parser defines the interface for parsing Popolo data from various formats.
type Parser interface {
	Parse(r io.Reader) (*Document, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json", "popolo":
		return &PopoloParser{}
	case "csv":
		return &IdentifierCSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &PopoloParser{}
	case ".csv":
		return &IdentifierCSVParser{}
	default:
		return nil
	}
}
