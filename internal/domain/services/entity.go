package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
)

// EntityService manages persons, organizations, posts and areas.
type EntityService struct {
	relationalDB ports.RelationalDB
}

// NewEntityService creates a new EntityService.
func NewEntityService(relationalDB ports.RelationalDB) *EntityService {
	return &EntityService{
		relationalDB: relationalDB,
	}
}

// CreatePerson validates p, assigns a new ID when missing and stores it.
func (s *EntityService) CreatePerson(ctx context.Context, p *entities.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := s.relationalDB.SavePerson(ctx, p); err != nil {
		return fmt.Errorf("creating person: %w", err)
	}
	return nil
}

// UpdatePerson validates and stores an existing person.
func (s *EntityService) UpdatePerson(ctx context.Context, p *entities.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	existing, err := s.GetPerson(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	if err := s.relationalDB.SavePerson(ctx, p); err != nil {
		return fmt.Errorf("updating person: %w", err)
	}
	return nil
}

// GetPerson returns a person or an ErrNotFound error.
func (s *EntityService) GetPerson(ctx context.Context, id string) (*entities.Person, error) {
	p, err := s.relationalDB.FindPersonByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding person: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("person %s: %w", id, entities.ErrNotFound)
	}
	return p, nil
}

// ListPersons returns persons with pagination.
func (s *EntityService) ListPersons(ctx context.Context, limit, offset int) ([]*entities.Person, error) {
	return s.relationalDB.ListPersons(ctx, limit, offset)
}

// SearchPersons matches names and other names.
func (s *EntityService) SearchPersons(ctx context.Context, query string, limit int) ([]*entities.Person, error) {
	return s.relationalDB.SearchPersons(ctx, query, limit)
}

// DeletePerson removes a person with its dated facts and memberships.
func (s *EntityService) DeletePerson(ctx context.Context, id string) error {
	ref := entities.OwnerRef{Kind: entities.OwnerPerson, ID: id}
	return s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := deleteFacts(ctx, tx, ref); err != nil {
			return err
		}
		if err := tx.DeletePerson(ctx, id); err != nil {
			return err
		}
		return tx.LogAction(ctx, entities.ActionDelete, id, map[string]any{"kind": string(entities.OwnerPerson)})
	})
}

// CreateOrganization validates o, assigns a new ID when missing and stores it.
// A parent organization must already exist.
func (s *EntityService) CreateOrganization(ctx context.Context, o *entities.Organization) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if err := s.checkOrganization(ctx, o); err != nil {
		return err
	}
	if err := s.relationalDB.SaveOrganization(ctx, o); err != nil {
		return fmt.Errorf("creating organization: %w", err)
	}
	return nil
}

// UpdateOrganization validates and stores an existing organization.
func (s *EntityService) UpdateOrganization(ctx context.Context, o *entities.Organization) error {
	existing, err := s.GetOrganization(ctx, o.ID)
	if err != nil {
		return err
	}
	if err := s.checkOrganization(ctx, o); err != nil {
		return err
	}
	o.CreatedAt = existing.CreatedAt
	if err := s.relationalDB.SaveOrganization(ctx, o); err != nil {
		return fmt.Errorf("updating organization: %w", err)
	}
	return nil
}

func (s *EntityService) checkOrganization(ctx context.Context, o *entities.Organization) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.ParentID != "" {
		if err := ensureOrganization(ctx, s.relationalDB, o.ParentID); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}
	if o.AreaID != "" {
		if err := ensureOwner(ctx, s.relationalDB, entities.OwnerRef{Kind: entities.OwnerArea, ID: o.AreaID}); err != nil {
			return err
		}
	}
	return nil
}

// GetOrganization returns an organization or an ErrNotFound error.
func (s *EntityService) GetOrganization(ctx context.Context, id string) (*entities.Organization, error) {
	o, err := s.relationalDB.FindOrganizationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	if o == nil {
		return nil, fmt.Errorf("organization %s: %w", id, entities.ErrNotFound)
	}
	return o, nil
}

// ListOrganizations returns organizations with pagination.
func (s *EntityService) ListOrganizations(ctx context.Context, limit, offset int) ([]*entities.Organization, error) {
	return s.relationalDB.ListOrganizations(ctx, limit, offset)
}

// SearchOrganizations matches names and other names.
func (s *EntityService) SearchOrganizations(ctx context.Context, query string, limit int) ([]*entities.Organization, error) {
	return s.relationalDB.SearchOrganizations(ctx, query, limit)
}

// DeleteOrganization removes an organization with its dated facts, its
// memberships and the ownerships it holds or is subject to.
func (s *EntityService) DeleteOrganization(ctx context.Context, id string) error {
	ref := entities.OwnerRef{Kind: entities.OwnerOrganization, ID: id}
	return s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := deleteFacts(ctx, tx, ref); err != nil {
			return err
		}

		members, err := tx.ListMembershipsByOrganization(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteMemberships(ctx, membershipIDs(members)); err != nil {
			return err
		}

		owned, err := tx.ListOwnershipsByOrganization(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteOwnerships(ctx, ownershipIDs(owned)); err != nil {
			return err
		}

		if err := tx.DeleteOrganization(ctx, id); err != nil {
			return err
		}
		return tx.LogAction(ctx, entities.ActionDelete, id, map[string]any{"kind": string(entities.OwnerOrganization)})
	})
}

// Counts returns the number of persons and organizations.
func (s *EntityService) Counts(ctx context.Context) (persons, organizations int, err error) {
	if persons, err = s.relationalDB.CountPersons(ctx); err != nil {
		return 0, 0, fmt.Errorf("counting persons: %w", err)
	}
	if organizations, err = s.relationalDB.CountOrganizations(ctx); err != nil {
		return 0, 0, fmt.Errorf("counting organizations: %w", err)
	}
	return persons, organizations, nil
}

// AddPost attaches a new specific post to an organization.
func (s *EntityService) AddPost(ctx context.Context, organizationID string, p *entities.Post) error {
	if _, err := s.GetOrganization(ctx, organizationID); err != nil {
		return err
	}
	p.OrganizationID = organizationID
	return s.CreatePost(ctx, p)
}

// CreatePost stores a post; without an organization it is generic.
func (s *EntityService) CreatePost(ctx context.Context, p *entities.Post) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.OrganizationID != "" {
		if err := ensureOrganization(ctx, s.relationalDB, p.OrganizationID); err != nil {
			return err
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := s.relationalDB.SavePost(ctx, p); err != nil {
		return fmt.Errorf("creating post: %w", err)
	}
	return nil
}

// UpdatePost validates and stores an existing post.
func (s *EntityService) UpdatePost(ctx context.Context, p *entities.Post) error {
	existing, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.OrganizationID != "" {
		if err := ensureOrganization(ctx, s.relationalDB, p.OrganizationID); err != nil {
			return err
		}
	}
	p.CreatedAt = existing.CreatedAt
	if err := s.relationalDB.SavePost(ctx, p); err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	return nil
}

// GetPost returns a post or an ErrNotFound error.
func (s *EntityService) GetPost(ctx context.Context, id string) (*entities.Post, error) {
	p, err := s.relationalDB.FindPostByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding post: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("post %s: %w", id, entities.ErrNotFound)
	}
	return p, nil
}

// ListPosts returns the posts of an organization.
func (s *EntityService) ListPosts(ctx context.Context, organizationID string) ([]*entities.Post, error) {
	return s.relationalDB.ListPostsByOrganization(ctx, organizationID)
}

// CreateArea stores an area.
func (s *EntityService) CreateArea(ctx context.Context, a *entities.Area) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ParentID != "" {
		if err := ensureOwner(ctx, s.relationalDB, entities.OwnerRef{Kind: entities.OwnerArea, ID: a.ParentID}); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if err := s.relationalDB.SaveArea(ctx, a); err != nil {
		return fmt.Errorf("creating area: %w", err)
	}
	return nil
}

// UpdateArea validates and stores an existing area.
func (s *EntityService) UpdateArea(ctx context.Context, a *entities.Area) error {
	existing, err := s.GetArea(ctx, a.ID)
	if err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ParentID != "" {
		if a.ParentID == a.ID {
			return &entities.ValidationError{Field: "parent_id", Message: "an area cannot be its own parent"}
		}
		if err := ensureOwner(ctx, s.relationalDB, entities.OwnerRef{Kind: entities.OwnerArea, ID: a.ParentID}); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}
	a.CreatedAt = existing.CreatedAt
	if err := s.relationalDB.SaveArea(ctx, a); err != nil {
		return fmt.Errorf("updating area: %w", err)
	}
	return nil
}

// GetArea returns an area or an ErrNotFound error.
func (s *EntityService) GetArea(ctx context.Context, id string) (*entities.Area, error) {
	a, err := s.relationalDB.FindAreaByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding area: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("area %s: %w", id, entities.ErrNotFound)
	}
	return a, nil
}

// ListAreas returns areas with pagination.
func (s *EntityService) ListAreas(ctx context.Context, limit, offset int) ([]*entities.Area, error) {
	return s.relationalDB.ListAreas(ctx, limit, offset)
}

// deleteFacts removes every identifier, other name, membership and ownership of owner.
func deleteFacts(ctx context.Context, tx ports.RelationalDB, owner entities.OwnerRef) error {
	ids, err := tx.ListIdentifiers(ctx, owner)
	if err != nil {
		return err
	}
	idList := make([]string, len(ids))
	for i, id := range ids {
		idList[i] = id.ID
	}
	if err := tx.DeleteIdentifiers(ctx, idList); err != nil {
		return err
	}

	names, err := tx.ListOtherNames(ctx, owner)
	if err != nil {
		return err
	}
	nameList := make([]string, len(names))
	for i, n := range names {
		nameList[i] = n.ID
	}
	if err := tx.DeleteOtherNames(ctx, nameList); err != nil {
		return err
	}

	memberships, err := tx.ListMembershipsByMember(ctx, owner)
	if err != nil {
		return err
	}
	if err := tx.DeleteMemberships(ctx, membershipIDs(memberships)); err != nil {
		return err
	}

	ownerships, err := tx.ListOwnershipsByOwner(ctx, owner)
	if err != nil {
		return err
	}
	return tx.DeleteOwnerships(ctx, ownershipIDs(ownerships))
}

func membershipIDs(list []entities.Membership) []string {
	ids := make([]string, len(list))
	for i, m := range list {
		ids[i] = m.ID
	}
	return ids
}

func ownershipIDs(list []entities.Ownership) []string {
	ids := make([]string, len(list))
	for i, o := range list {
		ids[i] = o.ID
	}
	return ids
}
