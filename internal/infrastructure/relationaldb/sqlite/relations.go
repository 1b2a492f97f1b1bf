package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

const membershipColumns = `id, person_id, member_organization_id, organization_id, post_id,
	on_behalf_of_id, area_id, role, label, start_date, end_date, created_at, updated_at`

// memberColumn is the column holding a member of the given kind.
func memberColumn(kind entities.OwnerKind) (string, error) {
	switch kind {
	case entities.OwnerPerson:
		return "person_id", nil
	case entities.OwnerOrganization:
		return "member_organization_id", nil
	}
	return "", fmt.Errorf("member kind %q: %w", kind, entities.ErrValidation)
}

// SaveMembership inserts or updates a membership.
func (r *Repository) SaveMembership(ctx context.Context, m *entities.Membership) error {
	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			person_id = excluded.person_id,
			member_organization_id = excluded.member_organization_id,
			organization_id = excluded.organization_id,
			post_id = excluded.post_id,
			on_behalf_of_id = excluded.on_behalf_of_id,
			area_id = excluded.area_id,
			role = excluded.role,
			label = excluded.label,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		m.ID, m.PersonID, m.MemberOrganizationID, m.OrganizationID, m.PostID,
		m.OnBehalfOfID, m.AreaID, m.Role, m.Label, m.StartDate, m.EndDate, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving membership: %w", err)
	}
	return nil
}

// FindMembershipByID finds a membership by ID.
func (r *Repository) FindMembershipByID(ctx context.Context, id string) (*entities.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = ?`
	m, err := scanMembership(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding membership: %w", err)
	}
	return m, nil
}

// FindMembershipsInScope returns the member's memberships in scope, open-ended first.
// An empty scope label matches any label.
func (r *Repository) FindMembershipsInScope(ctx context.Context, member entities.OwnerRef, scope entities.MembershipScope) ([]entities.Membership, error) {
	col, err := memberColumn(member.Kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + membershipColumns + ` FROM memberships
		WHERE ` + col + ` = ? AND organization_id = ? AND post_id = ? AND on_behalf_of_id = ?
		AND (? = '' OR label = ?) ` + bucketOrder
	return r.queryMemberships(ctx, query,
		member.ID, scope.OrganizationID, scope.PostID, scope.OnBehalfOfID, scope.Label, scope.Label)
}

// FindMembership returns the member's membership in scope with this role.
func (r *Repository) FindMembership(ctx context.Context, member entities.OwnerRef, scope entities.MembershipScope, role string) (*entities.Membership, error) {
	col, err := memberColumn(member.Kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + membershipColumns + ` FROM memberships
		WHERE ` + col + ` = ? AND organization_id = ? AND post_id = ? AND on_behalf_of_id = ?
		AND (? = '' OR label = ?) AND role = ?
		ORDER BY created_at, id LIMIT 1`
	m, err := scanMembership(r.q.QueryRowContext(ctx, query,
		member.ID, scope.OrganizationID, scope.PostID, scope.OnBehalfOfID, scope.Label, scope.Label, role))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding membership: %w", err)
	}
	return m, nil
}

// ListMembershipsByMember returns every membership held by a member.
func (r *Repository) ListMembershipsByMember(ctx context.Context, member entities.OwnerRef) ([]entities.Membership, error) {
	col, err := memberColumn(member.Kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + membershipColumns + ` FROM memberships
		WHERE ` + col + ` = ?
		ORDER BY organization_id, end_date IS NOT NULL, end_date DESC, id`
	return r.queryMemberships(ctx, query, member.ID)
}

// ListMembershipsByOrganization returns every membership in an organization.
func (r *Repository) ListMembershipsByOrganization(ctx context.Context, organizationID string) ([]entities.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships
		WHERE organization_id = ? ` + bucketOrder
	return r.queryMemberships(ctx, query, organizationID)
}

// DeleteMemberships removes memberships by ID.
func (r *Repository) DeleteMemberships(ctx context.Context, ids []string) error {
	return r.deleteByIDs(ctx, "memberships", ids)
}

func (r *Repository) queryMemberships(ctx context.Context, query string, args ...any) ([]entities.Membership, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	var out []entities.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMembership(s scanner) (*entities.Membership, error) {
	var m entities.Membership
	err := s.Scan(
		&m.ID, &m.PersonID, &m.MemberOrganizationID, &m.OrganizationID, &m.PostID,
		&m.OnBehalfOfID, &m.AreaID, &m.Role, &m.Label, &m.StartDate, &m.EndDate, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const ownershipColumns = `id, owner_person_id, owner_organization_id, owned_organization_id,
	percentage, start_date, end_date, created_at, updated_at`

// ownerColumn is the column holding an owner of the given kind.
func ownerColumn(kind entities.OwnerKind) (string, error) {
	switch kind {
	case entities.OwnerPerson:
		return "owner_person_id", nil
	case entities.OwnerOrganization:
		return "owner_organization_id", nil
	}
	return "", fmt.Errorf("owner kind %q: %w", kind, entities.ErrValidation)
}

// SaveOwnership inserts or updates an ownership.
func (r *Repository) SaveOwnership(ctx context.Context, o *entities.Ownership) error {
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)

	query := `
		INSERT INTO ownerships (` + ownershipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_person_id = excluded.owner_person_id,
			owner_organization_id = excluded.owner_organization_id,
			owned_organization_id = excluded.owned_organization_id,
			percentage = excluded.percentage,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		o.ID, o.OwnerPersonID, o.OwnerOrganizationID, o.OwnedOrganizationID,
		o.Percentage, o.StartDate, o.EndDate, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving ownership: %w", err)
	}
	return nil
}

// FindOwnershipsInScope returns the owner's ownerships in scope, open-ended first.
func (r *Repository) FindOwnershipsInScope(ctx context.Context, owner entities.OwnerRef, scope entities.OwnershipScope) ([]entities.Ownership, error) {
	col, err := ownerColumn(owner.Kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + ownershipColumns + ` FROM ownerships
		WHERE ` + col + ` = ? AND owned_organization_id = ? AND percentage = ? ` + bucketOrder
	return r.queryOwnerships(ctx, query, owner.ID, scope.OwnedOrganizationID, scope.Percentage)
}

// FindUnboundedOwnership returns the owner's ownership in scope with no dates.
func (r *Repository) FindUnboundedOwnership(ctx context.Context, owner entities.OwnerRef, scope entities.OwnershipScope) (*entities.Ownership, error) {
	col, err := ownerColumn(owner.Kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + ownershipColumns + ` FROM ownerships
		WHERE ` + col + ` = ? AND owned_organization_id = ? AND percentage = ?
		AND start_date IS NULL AND end_date IS NULL
		ORDER BY created_at, id LIMIT 1`
	o, err := scanOwnership(r.q.QueryRowContext(ctx, query, owner.ID, scope.OwnedOrganizationID, scope.Percentage))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding ownership: %w", err)
	}
	return o, nil
}

// ListOwnershipsByOwner returns every ownership held by an owner.
func (r *Repository) ListOwnershipsByOwner(ctx context.Context, owner entities.OwnerRef) ([]entities.Ownership, error) {
	col, err := ownerColumn(owner.Kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + ownershipColumns + ` FROM ownerships
		WHERE ` + col + ` = ?
		ORDER BY owned_organization_id, end_date IS NOT NULL, end_date DESC, id`
	return r.queryOwnerships(ctx, query, owner.ID)
}

// ListOwnershipsByOrganization returns every ownership of an organization.
func (r *Repository) ListOwnershipsByOrganization(ctx context.Context, organizationID string) ([]entities.Ownership, error) {
	query := `SELECT ` + ownershipColumns + ` FROM ownerships
		WHERE owned_organization_id = ? ` + bucketOrder
	return r.queryOwnerships(ctx, query, organizationID)
}

// DeleteOwnerships removes ownerships by ID.
func (r *Repository) DeleteOwnerships(ctx context.Context, ids []string) error {
	return r.deleteByIDs(ctx, "ownerships", ids)
}

func (r *Repository) queryOwnerships(ctx context.Context, query string, args ...any) ([]entities.Ownership, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ownerships: %w", err)
	}
	defer rows.Close()

	var out []entities.Ownership
	for rows.Next() {
		o, err := scanOwnership(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ownership: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOwnership(s scanner) (*entities.Ownership, error) {
	var o entities.Ownership
	err := s.Scan(
		&o.ID, &o.OwnerPersonID, &o.OwnerOrganizationID, &o.OwnedOrganizationID,
		&o.Percentage, &o.StartDate, &o.EndDate, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
