package handlers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
	"github.com/ersonp/popolo-core/internal/domain/services"
)

// FactsHandler adds and replaces the dated facts of an entity. Name changes
// are pushed to the name index when search is set.
type FactsHandler struct {
	identifiers *services.IdentifierService
	otherNames  *services.OtherNameService
	memberships *services.MembershipService
	ownerships  *services.OwnershipService
	search      *services.SearchService
	logger      logrus.FieldLogger
}

// NewFactsHandler creates the fact services over relationalDB. search may be nil.
func NewFactsHandler(relationalDB ports.RelationalDB, search *services.SearchService, logger logrus.FieldLogger) *FactsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FactsHandler{
		identifiers: services.NewIdentifierService(relationalDB, logger),
		otherNames:  services.NewOtherNameService(relationalDB, logger),
		memberships: services.NewMembershipService(relationalDB, logger),
		ownerships:  services.NewOwnershipService(relationalDB, logger),
		search:      search,
		logger:      logger,
	}
}

// FactsView lists every fact held by one entity.
type FactsView struct {
	Owner       entities.OwnerRef     `json:"owner"`
	Identifiers []entities.Identifier `json:"identifiers"`
	OtherNames  []entities.OtherName  `json:"other_names"`
	Memberships []entities.Membership `json:"memberships,omitempty"`
	Ownerships  []entities.Ownership  `json:"ownerships,omitempty"`
}

// AddIdentifier reconciles one identifier of owner.
func (h *FactsHandler) AddIdentifier(ctx context.Context, owner entities.OwnerRef, in entities.Identifier, policy reconcile.Policy) (services.Result[entities.Identifier], error) {
	in.Owner = owner
	return h.identifiers.Add(ctx, in, policy)
}

// AddIdentifiers reconciles items in order; failures are collected per item.
func (h *FactsHandler) AddIdentifiers(ctx context.Context, owner entities.OwnerRef, items []entities.Identifier, policy reconcile.Policy) ([]services.Result[entities.Identifier], error) {
	return h.identifiers.AddMany(ctx, owner, items, policy)
}

// FindOwners returns the entities of kind holding scheme:value.
func (h *FactsHandler) FindOwners(ctx context.Context, kind entities.OwnerKind, scheme, value string) ([]entities.OwnerRef, error) {
	return h.identifiers.FindOwners(ctx, kind, scheme, value)
}

// ReplaceIdentifiers makes owner's identifiers match items.
func (h *FactsHandler) ReplaceIdentifiers(ctx context.Context, owner entities.OwnerRef, items []entities.Identifier, policy reconcile.Policy) (reconcile.ReplaceResult, error) {
	return h.identifiers.Update(ctx, owner, items, policy)
}

// AddOtherName reconciles one alternate name of owner.
func (h *FactsHandler) AddOtherName(ctx context.Context, owner entities.OwnerRef, in entities.OtherName, policy reconcile.Policy) (services.Result[entities.OtherName], error) {
	in.Owner = owner
	res, err := h.otherNames.Add(ctx, in, policy)
	if err != nil {
		return res, err
	}
	h.reindex(ctx, owner)
	return res, nil
}

// AddOtherNames reconciles items in order.
func (h *FactsHandler) AddOtherNames(ctx context.Context, owner entities.OwnerRef, items []entities.OtherName, policy reconcile.Policy) ([]services.Result[entities.OtherName], error) {
	res, err := h.otherNames.AddMany(ctx, owner, items, policy)
	h.reindex(ctx, owner)
	return res, err
}

// ReplaceOtherNames makes owner's alternate names match items.
func (h *FactsHandler) ReplaceOtherNames(ctx context.Context, owner entities.OwnerRef, items []entities.OtherName, policy reconcile.Policy) (reconcile.ReplaceResult, error) {
	res, err := h.otherNames.Update(ctx, owner, items, policy)
	if err != nil {
		return res, err
	}
	h.reindex(ctx, owner)
	return res, nil
}

// AddMembership reconciles a membership of member. A membership with a post
// and no organization takes the post's organization.
func (h *FactsHandler) AddMembership(ctx context.Context, member entities.OwnerRef, m entities.Membership, opts services.MembershipOptions) (services.Result[entities.Membership], error) {
	if err := m.SetMember(member); err != nil {
		return services.Result[entities.Membership]{}, err
	}
	if m.PostID != "" && m.OrganizationID == "" {
		return h.memberships.AddRole(ctx, m, opts)
	}
	return h.memberships.Add(ctx, m, opts)
}

// AddMemberships reconciles items in order.
func (h *FactsHandler) AddMemberships(ctx context.Context, member entities.OwnerRef, items []entities.Membership, opts services.MembershipOptions) ([]services.Result[entities.Membership], error) {
	return h.memberships.AddMany(ctx, member, items, opts)
}

// ReplaceMemberships makes member's memberships match items.
func (h *FactsHandler) ReplaceMemberships(ctx context.Context, member entities.OwnerRef, items []entities.Membership, opts services.MembershipOptions) (reconcile.ReplaceResult, error) {
	return h.memberships.Update(ctx, member, items, opts)
}

// AddOwnership reconciles a share of an organization held by owner.
func (h *FactsHandler) AddOwnership(ctx context.Context, owner entities.OwnerRef, o entities.Ownership, policy reconcile.Policy) (services.Result[entities.Ownership], error) {
	if err := o.SetOwner(owner); err != nil {
		return services.Result[entities.Ownership]{}, err
	}
	return h.ownerships.Add(ctx, o, policy)
}

// AddOwnerships reconciles items in order.
func (h *FactsHandler) AddOwnerships(ctx context.Context, owner entities.OwnerRef, items []entities.Ownership, policy reconcile.Policy) ([]services.Result[entities.Ownership], error) {
	return h.ownerships.AddMany(ctx, owner, items, policy)
}

// ReplaceOwnerships makes owner's ownerships match items.
func (h *FactsHandler) ReplaceOwnerships(ctx context.Context, owner entities.OwnerRef, items []entities.Ownership, policy reconcile.Policy) (reconcile.ReplaceResult, error) {
	return h.ownerships.Update(ctx, owner, items, policy)
}

// Show lists the facts of owner. Memberships and ownerships are only read
// for persons and organizations.
func (h *FactsHandler) Show(ctx context.Context, owner entities.OwnerRef) (*FactsView, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	view := &FactsView{Owner: owner}

	var err error
	if view.Identifiers, err = h.identifiers.List(ctx, owner); err != nil {
		return nil, err
	}
	if view.OtherNames, err = h.otherNames.List(ctx, owner); err != nil {
		return nil, err
	}
	if owner.Kind != entities.OwnerPerson && owner.Kind != entities.OwnerOrganization {
		return view, nil
	}
	if view.Memberships, err = h.memberships.ListByMember(ctx, owner); err != nil {
		return nil, err
	}
	if view.Ownerships, err = h.ownerships.ListByOwner(ctx, owner); err != nil {
		return nil, fmt.Errorf("listing ownerships: %w", err)
	}
	return view, nil
}

func (h *FactsHandler) reindex(ctx context.Context, owner entities.OwnerRef) {
	if h.search == nil {
		return
	}
	if err := h.search.Index(ctx, owner); err != nil {
		h.logger.WithField("owner", owner.String()).WithError(err).Warn("updating name index")
	}
}
