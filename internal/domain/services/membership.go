package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
)

var membershipRules = reconcile.Rules[string]{Kind: membershipKind}

// MembershipOptions tune how a membership is reconciled.
type MembershipOptions struct {
	Policy reconcile.Policy
	// CheckLabel makes the label part of the bucket key, so roles with the
	// same post but different labels never collide.
	CheckLabel bool
}

// DefaultMembershipOptions extends same-role memberships.
func DefaultMembershipOptions() MembershipOptions {
	return MembershipOptions{Policy: reconcile.DefaultPolicy()}
}

func (o MembershipOptions) policy() reconcile.Policy {
	p := o.Policy
	p.Merge = false
	p.SameValuesOnly = false
	return p
}

// MembershipService manages memberships of persons and organizations in
// organizations, optionally through a post.
type MembershipService struct {
	relationalDB ports.RelationalDB
	logger       logrus.FieldLogger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(relationalDB ports.RelationalDB, logger logrus.FieldLogger) *MembershipService {
	return &MembershipService{
		relationalDB: relationalDB,
		logger:       orDiscard(logger),
	}
}

// Add reconciles a membership into its member's bucket for the organization,
// post and on-behalf-of organization. The membership is validated before any
// lookup; a post whose organization differs from m's is a hard failure.
func (s *MembershipService) Add(ctx context.Context, m entities.Membership, opts MembershipOptions) (Result[entities.Membership], error) {
	var res Result[entities.Membership]
	if err := m.Validate(); err != nil {
		return res, err
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := s.checkReferences(ctx, tx, m); err != nil {
			return err
		}
		var err error
		res, err = s.add(ctx, tx, m, opts)
		return err
	})
	return res, err
}

// AddRole adds m as a role through its post. A specific post supplies the
// organization and m.OrganizationID must be empty; a generic post requires it.
// An empty role defaults to the post's role, then its label.
func (s *MembershipService) AddRole(ctx context.Context, m entities.Membership, opts MembershipOptions) (Result[entities.Membership], error) {
	var res Result[entities.Membership]
	if m.PostID == "" {
		return res, &entities.ValidationError{Field: "post", Message: "a role needs a post"}
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		post, err := tx.FindPostByID(ctx, m.PostID)
		if err != nil {
			return fmt.Errorf("finding post: %w", err)
		}
		if post == nil {
			return fmt.Errorf("post %s: %w", m.PostID, entities.ErrNotFound)
		}

		org, err := post.ResolveOrganization(m.OrganizationID)
		if err != nil {
			return err
		}
		m.OrganizationID = org
		if m.Role == "" {
			m.Role = post.Role
		}
		if m.Role == "" {
			m.Role = post.Label
		}

		if err := m.Validate(); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, tx, m); err != nil {
			return err
		}
		res, err = s.add(ctx, tx, m, opts)
		return err
	})
	return res, err
}

// AddRoleOnBehalfOf adds a role held on behalf of another organization.
func (s *MembershipService) AddRoleOnBehalfOf(ctx context.Context, m entities.Membership, behalfOrganizationID string, opts MembershipOptions) (Result[entities.Membership], error) {
	m.OnBehalfOfID = behalfOrganizationID
	return s.AddRole(ctx, m, opts)
}

func (s *MembershipService) add(ctx context.Context, tx ports.RelationalDB, m entities.Membership, opts MembershipOptions) (Result[entities.Membership], error) {
	store := newMembershipStore(tx, m.Member())
	r := reconcile.New[entities.MembershipScope, string, membershipMeta](store, membershipRules, reconcile.WithLogger(s.logger))
	out, err := r.Add(ctx, m.Scope(opts.CheckLabel), membershipFact(m), opts.policy())
	if err != nil {
		return Result[entities.Membership]{}, err
	}
	return Result[entities.Membership]{Item: store.seen[out.Fact.ID], Outcome: out.Kind.String()}, nil
}

// checkReferences verifies that every entity m points at exists and that a
// specific post agrees with the organization.
func (s *MembershipService) checkReferences(ctx context.Context, tx ports.RelationalDB, m entities.Membership) error {
	if err := ensureOwner(ctx, tx, m.Member()); err != nil {
		return err
	}
	if err := ensureOrganization(ctx, tx, m.OrganizationID); err != nil {
		return err
	}
	if m.OnBehalfOfID != "" {
		if err := ensureOrganization(ctx, tx, m.OnBehalfOfID); err != nil {
			return err
		}
	}
	if m.AreaID != "" {
		if err := ensureOwner(ctx, tx, entities.OwnerRef{Kind: entities.OwnerArea, ID: m.AreaID}); err != nil {
			return err
		}
	}
	if m.PostID == "" {
		return nil
	}

	post, err := tx.FindPostByID(ctx, m.PostID)
	if err != nil {
		return fmt.Errorf("finding post: %w", err)
	}
	if post == nil {
		return fmt.Errorf("post %s: %w", m.PostID, entities.ErrNotFound)
	}
	if !post.IsGeneric() && post.OrganizationID != m.OrganizationID {
		return &entities.ValidationError{
			Field:   "organization",
			Message: fmt.Sprintf("post %s belongs to organization %s, not %s", post.ID, post.OrganizationID, m.OrganizationID),
			Err:     entities.ErrPostMismatch,
		}
	}
	return nil
}

// AddMany adds each membership of member and joins the failures. Items with a
// post and no organization go through AddRole.
func (s *MembershipService) AddMany(ctx context.Context, member entities.OwnerRef, items []entities.Membership, opts MembershipOptions) ([]Result[entities.Membership], error) {
	var results []Result[entities.Membership]
	err := reconcile.Batch(items, func(m entities.Membership) error {
		if err := m.SetMember(member); err != nil {
			return err
		}
		var (
			res Result[entities.Membership]
			err error
		)
		if m.PostID != "" && m.OrganizationID == "" {
			res, err = s.AddRole(ctx, m, opts)
		} else {
			res, err = s.Add(ctx, m, opts)
		}
		if err != nil {
			return fmt.Errorf("membership in %s: %w", m.OrganizationID, err)
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

// Update makes member's memberships match items in one transaction.
func (s *MembershipService) Update(ctx context.Context, member entities.OwnerRef, items []entities.Membership, opts MembershipOptions) (reconcile.ReplaceResult, error) {
	var result reconcile.ReplaceResult

	entries := make([]reconcile.Entry[entities.MembershipScope, string, membershipMeta], len(items))
	for i, m := range items {
		if err := m.SetMember(member); err != nil {
			return result, err
		}
		if err := m.Validate(); err != nil {
			return result, fmt.Errorf("item %d: %w", i+1, err)
		}
		entries[i] = reconcile.Entry[entities.MembershipScope, string, membershipMeta]{
			Scope: m.Scope(opts.CheckLabel),
			Fact:  membershipFact(m),
		}
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := ensureOwner(ctx, tx, member); err != nil {
			return err
		}
		for _, m := range items {
			if err := ensureOrganization(ctx, tx, m.OrganizationID); err != nil {
				return err
			}
		}
		r := reconcile.New[entities.MembershipScope, string, membershipMeta](newMembershipStore(tx, member), membershipRules, reconcile.WithLogger(s.logger))
		var err error
		result, err = r.Replace(ctx, entries, opts.policy())
		return err
	})
	return result, err
}

// ListByMember returns every membership held by member.
func (s *MembershipService) ListByMember(ctx context.Context, member entities.OwnerRef) ([]entities.Membership, error) {
	list, err := s.relationalDB.ListMembershipsByMember(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	return list, nil
}

// ListByOrganization returns every membership in an organization.
func (s *MembershipService) ListByOrganization(ctx context.Context, organizationID string) ([]entities.Membership, error) {
	list, err := s.relationalDB.ListMembershipsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	return list, nil
}

func membershipFact(m entities.Membership) reconcile.Fact[string, membershipMeta] {
	return reconcile.Fact[string, membershipMeta]{
		ID:       m.ID,
		Value:    m.Role,
		Interval: m.Interval(),
		Meta:     membershipMeta{AreaID: m.AreaID, Label: m.Label},
	}
}
