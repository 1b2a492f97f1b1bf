package services

import (
	"context"
	"fmt"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/infrastructure/parsers"
)

const exportPageSize = 200

// ExportService builds Popolo documents from the store. Records use stored
// ids, so an export can be imported again into a fresh dataset.
type ExportService struct {
	relationalDB ports.RelationalDB
}

// NewExportService creates a new export service.
func NewExportService(relationalDB ports.RelationalDB) *ExportService {
	return &ExportService{relationalDB: relationalDB}
}

// Export reads every area, organization, post, person and membership.
// Memberships are listed under the organization they are held in.
func (s *ExportService) Export(ctx context.Context) (*parsers.Document, error) {
	doc := &parsers.Document{}

	if err := s.exportAreas(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.exportOrganizations(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.exportPosts(ctx, doc, ""); err != nil {
		return nil, err
	}
	if err := s.exportPersons(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// IdentifierRows flattens the identifiers of doc into CSV rows.
func IdentifierRows(doc *parsers.Document) []parsers.IdentifierRow {
	var rows []parsers.IdentifierRow
	add := func(kind entities.OwnerKind, id string, list []parsers.IdentifierRecord) {
		for _, rec := range list {
			rows = append(rows, parsers.IdentifierRow{
				OwnerKind:  string(kind),
				OwnerID:    id,
				Scheme:     rec.Scheme,
				Identifier: rec.Identifier,
				StartDate:  rec.StartDate,
				EndDate:    rec.EndDate,
				Source:     rec.Source,
			})
		}
	}
	for _, a := range doc.Areas {
		add(entities.OwnerArea, a.ID, a.OtherIdentifiers)
	}
	for _, o := range doc.Organizations {
		add(entities.OwnerOrganization, o.ID, o.Identifiers)
	}
	for _, p := range doc.Persons {
		add(entities.OwnerPerson, p.ID, p.Identifiers)
	}
	return rows
}

func (s *ExportService) exportAreas(ctx context.Context, doc *parsers.Document) error {
	for offset := 0; ; offset += exportPageSize {
		areas, err := s.relationalDB.ListAreas(ctx, exportPageSize, offset)
		if err != nil {
			return fmt.Errorf("listing areas: %w", err)
		}
		for _, a := range areas {
			ids, err := s.identifiers(ctx, entities.OwnerRef{Kind: entities.OwnerArea, ID: a.ID})
			if err != nil {
				return err
			}
			doc.Areas = append(doc.Areas, parsers.AreaRecord{
				ID:               a.ID,
				Name:             a.Name,
				Identifier:       a.Identifier,
				Classification:   a.Classification,
				ParentID:         a.ParentID,
				OtherIdentifiers: ids,
			})
		}
		if len(areas) < exportPageSize {
			return nil
		}
	}
}

func (s *ExportService) exportOrganizations(ctx context.Context, doc *parsers.Document) error {
	for offset := 0; ; offset += exportPageSize {
		orgs, err := s.relationalDB.ListOrganizations(ctx, exportPageSize, offset)
		if err != nil {
			return fmt.Errorf("listing organizations: %w", err)
		}
		for _, o := range orgs {
			ref := entities.OwnerRef{Kind: entities.OwnerOrganization, ID: o.ID}
			ids, err := s.identifiers(ctx, ref)
			if err != nil {
				return err
			}
			names, err := s.otherNames(ctx, ref)
			if err != nil {
				return err
			}
			doc.Organizations = append(doc.Organizations, parsers.OrganizationRecord{
				ID:              o.ID,
				Name:            o.Name,
				Classification:  o.Classification,
				ParentID:        o.ParentID,
				AreaID:          o.AreaID,
				FoundingDate:    o.FoundingDate,
				DissolutionDate: o.DissolutionDate,
				Image:           o.Image,
				Identifiers:     ids,
				OtherNames:      names,
			})

			if err := s.exportPosts(ctx, doc, o.ID); err != nil {
				return err
			}

			members, err := s.relationalDB.ListMembershipsByOrganization(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("listing memberships: %w", err)
			}
			for _, m := range members {
				doc.Memberships = append(doc.Memberships, parsers.MembershipRecord{
					ID:                   m.ID,
					PersonID:             m.PersonID,
					MemberOrganizationID: m.MemberOrganizationID,
					OrganizationID:       m.OrganizationID,
					PostID:               m.PostID,
					OnBehalfOfID:         m.OnBehalfOfID,
					AreaID:               m.AreaID,
					Role:                 m.Role,
					Label:                m.Label,
					StartDate:            m.StartDate,
					EndDate:              m.EndDate,
				})
			}
		}
		if len(orgs) < exportPageSize {
			return nil
		}
	}
}

// exportPosts appends the posts of an organization; an empty id selects the
// generic posts.
func (s *ExportService) exportPosts(ctx context.Context, doc *parsers.Document, organizationID string) error {
	posts, err := s.relationalDB.ListPostsByOrganization(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("listing posts: %w", err)
	}
	for _, p := range posts {
		doc.Posts = append(doc.Posts, parsers.PostRecord{
			ID:             p.ID,
			Label:          p.Label,
			OtherLabel:     p.OtherLabel,
			Role:           p.Role,
			OrganizationID: p.OrganizationID,
			AreaID:         p.AreaID,
			StartDate:      p.StartDate,
			EndDate:        p.EndDate,
		})
	}
	return nil
}

func (s *ExportService) exportPersons(ctx context.Context, doc *parsers.Document) error {
	for offset := 0; ; offset += exportPageSize {
		persons, err := s.relationalDB.ListPersons(ctx, exportPageSize, offset)
		if err != nil {
			return fmt.Errorf("listing persons: %w", err)
		}
		for _, p := range persons {
			ref := entities.OwnerRef{Kind: entities.OwnerPerson, ID: p.ID}
			ids, err := s.identifiers(ctx, ref)
			if err != nil {
				return err
			}
			names, err := s.otherNames(ctx, ref)
			if err != nil {
				return err
			}
			doc.Persons = append(doc.Persons, parsers.PersonRecord{
				ID:          p.ID,
				Name:        p.Name,
				FamilyName:  p.FamilyName,
				GivenName:   p.GivenName,
				SortName:    p.SortName,
				Email:       p.Email,
				Gender:      p.Gender,
				BirthDate:   p.BirthDate,
				DeathDate:   p.DeathDate,
				Image:       p.Image,
				Summary:     p.Summary,
				Biography:   p.Biography,
				Identifiers: ids,
				OtherNames:  names,
			})
		}
		if len(persons) < exportPageSize {
			return nil
		}
	}
}

func (s *ExportService) identifiers(ctx context.Context, owner entities.OwnerRef) ([]parsers.IdentifierRecord, error) {
	list, err := s.relationalDB.ListIdentifiers(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing identifiers of %s: %w", owner, err)
	}
	var out []parsers.IdentifierRecord
	for _, i := range list {
		out = append(out, parsers.IdentifierRecord{
			Scheme:     i.Scheme,
			Identifier: i.Identifier,
			StartDate:  i.StartDate,
			EndDate:    i.EndDate,
			Source:     i.Source,
		})
	}
	return out, nil
}

func (s *ExportService) otherNames(ctx context.Context, owner entities.OwnerRef) ([]parsers.OtherNameRecord, error) {
	list, err := s.relationalDB.ListOtherNames(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing other names of %s: %w", owner, err)
	}
	var out []parsers.OtherNameRecord
	for _, n := range list {
		out = append(out, parsers.OtherNameRecord{
			Name:      n.Name,
			Type:      n.Type,
			Note:      n.Note,
			StartDate: n.StartDate,
			EndDate:   n.EndDate,
			Source:    n.Source,
		})
	}
	return out, nil
}
