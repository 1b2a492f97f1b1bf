package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/services"
)

// EntityHandler handles entity operations at the application layer and keeps
// the name index in step with persons and organizations.
type EntityHandler struct {
	entityService *services.EntityService
	search        *services.SearchService
	logger        logrus.FieldLogger
}

// NewEntityHandler creates a new EntityHandler. search may be nil.
func NewEntityHandler(entityService *services.EntityService, search *services.SearchService, logger logrus.FieldLogger) *EntityHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EntityHandler{
		entityService: entityService,
		search:        search,
		logger:        logger,
	}
}

// PersonListResult contains the result of listing persons.
type PersonListResult struct {
	Persons []*entities.Person `json:"persons"`
	Total   int                `json:"total"`
}

// OrganizationListResult contains the result of listing organizations.
type OrganizationListResult struct {
	Organizations []*entities.Organization `json:"organizations"`
	Total         int                      `json:"total"`
}

// CreatePerson stores a new person.
func (h *EntityHandler) CreatePerson(ctx context.Context, p *entities.Person) error {
	if err := h.entityService.CreatePerson(ctx, p); err != nil {
		return err
	}
	h.index(ctx, entities.OwnerRef{Kind: entities.OwnerPerson, ID: p.ID})
	return nil
}

// GetPerson returns a person by id.
func (h *EntityHandler) GetPerson(ctx context.Context, id string) (*entities.Person, error) {
	return h.entityService.GetPerson(ctx, id)
}

// ListPersons returns persons with pagination.
func (h *EntityHandler) ListPersons(ctx context.Context, limit, offset int) (*PersonListResult, error) {
	list, err := h.entityService.ListPersons(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	persons, _, err := h.entityService.Counts(ctx)
	if err != nil {
		return nil, err
	}

	return &PersonListResult{Persons: list, Total: persons}, nil
}

// DeletePerson removes a person with its facts and memberships.
func (h *EntityHandler) DeletePerson(ctx context.Context, id string) error {
	if err := h.entityService.DeletePerson(ctx, id); err != nil {
		return err
	}
	h.unindex(ctx, id)
	return nil
}

// CreateOrganization stores a new organization.
func (h *EntityHandler) CreateOrganization(ctx context.Context, o *entities.Organization) error {
	if err := h.entityService.CreateOrganization(ctx, o); err != nil {
		return err
	}
	h.index(ctx, entities.OwnerRef{Kind: entities.OwnerOrganization, ID: o.ID})
	return nil
}

// GetOrganization returns an organization by id.
func (h *EntityHandler) GetOrganization(ctx context.Context, id string) (*entities.Organization, error) {
	return h.entityService.GetOrganization(ctx, id)
}

// ListOrganizations returns organizations with pagination.
func (h *EntityHandler) ListOrganizations(ctx context.Context, limit, offset int) (*OrganizationListResult, error) {
	list, err := h.entityService.ListOrganizations(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	_, orgs, err := h.entityService.Counts(ctx)
	if err != nil {
		return nil, err
	}

	return &OrganizationListResult{Organizations: list, Total: orgs}, nil
}

// DeleteOrganization removes an organization with its facts, posts and
// memberships.
func (h *EntityHandler) DeleteOrganization(ctx context.Context, id string) error {
	if err := h.entityService.DeleteOrganization(ctx, id); err != nil {
		return err
	}
	h.unindex(ctx, id)
	return nil
}

// CreatePost stores a post. An organizationID makes it specific to that
// organization; an empty one creates a generic post.
func (h *EntityHandler) CreatePost(ctx context.Context, organizationID string, p *entities.Post) error {
	if organizationID != "" {
		return h.entityService.AddPost(ctx, organizationID, p)
	}
	return h.entityService.CreatePost(ctx, p)
}

// ListPosts returns the posts of an organization, or the generic posts.
func (h *EntityHandler) ListPosts(ctx context.Context, organizationID string) ([]*entities.Post, error) {
	return h.entityService.ListPosts(ctx, organizationID)
}

// CreateArea stores an area.
func (h *EntityHandler) CreateArea(ctx context.Context, a *entities.Area) error {
	return h.entityService.CreateArea(ctx, a)
}

// ListAreas returns areas with pagination.
func (h *EntityHandler) ListAreas(ctx context.Context, limit, offset int) ([]*entities.Area, error) {
	return h.entityService.ListAreas(ctx, limit, offset)
}

func (h *EntityHandler) index(ctx context.Context, ref entities.OwnerRef) {
	if h.search == nil {
		return
	}
	if err := h.search.Index(ctx, ref); err != nil {
		h.logger.WithField("entity", ref.String()).WithError(err).Warn("updating name index")
	}
}

func (h *EntityHandler) unindex(ctx context.Context, id string) {
	if h.search == nil {
		return
	}
	if err := h.search.Remove(ctx, id); err != nil {
		h.logger.WithField("entity", id).WithError(err).Warn("updating name index")
	}
}
