package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// PopoloParser parses a Popolo JSON export.
type PopoloParser struct{}

// Parse decodes the document and moves inline person memberships into
// Memberships with their person filled in.
func (p *PopoloParser) Parse(r io.Reader) (*Document, error) {
	var doc Document

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	for i := range doc.Persons {
		person := &doc.Persons[i]
		if person.ID == "" {
			return nil, fmt.Errorf("person %d (%q): missing id", i+1, person.Name)
		}
		for _, m := range person.Memberships {
			if m.PersonID == "" && m.MemberOrganizationID == "" {
				m.PersonID = person.ID
			}
			doc.Memberships = append(doc.Memberships, m)
		}
		person.Memberships = nil
	}

	for i, o := range doc.Organizations {
		if o.ID == "" {
			return nil, fmt.Errorf("organization %d (%q): missing id", i+1, o.Name)
		}
		if o.Area != nil && o.Area.ID == "" {
			return nil, fmt.Errorf("organization %s: inline area without id", o.ID)
		}
	}
	for i, post := range doc.Posts {
		if post.ID == "" {
			return nil, fmt.Errorf("post %d (%q): missing id", i+1, post.Label)
		}
		if post.Area != nil && post.Area.ID == "" {
			return nil, fmt.Errorf("post %s: inline area without id", post.ID)
		}
	}
	for i, a := range doc.Areas {
		if a.ID == "" {
			return nil, fmt.Errorf("area %d (%q): missing id", i+1, a.Name)
		}
	}
	for _, m := range doc.Memberships {
		if m.Area != nil && m.Area.ID == "" {
			return nil, fmt.Errorf("membership %s: inline area without id", m.Key())
		}
	}

	return &doc, nil
}
