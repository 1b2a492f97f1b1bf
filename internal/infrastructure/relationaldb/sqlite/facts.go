package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

const identifierColumns = `id, owner_kind, owner_id, scheme, identifier, source,
	start_date, end_date, created_at, updated_at`

// SaveIdentifier inserts or updates an identifier.
func (r *Repository) SaveIdentifier(ctx context.Context, i *entities.Identifier) error {
	stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)

	query := `
		INSERT INTO identifiers (` + identifierColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scheme = excluded.scheme,
			identifier = excluded.identifier,
			source = excluded.source,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		i.ID, string(i.Owner.Kind), i.Owner.ID, i.Scheme, i.Identifier, i.Source,
		i.StartDate, i.EndDate, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving identifier: %w", err)
	}
	return nil
}

// FindIdentifiersByScheme returns the owner's identifiers for scheme, open-ended first.
func (r *Repository) FindIdentifiersByScheme(ctx context.Context, owner entities.OwnerRef, scheme string) ([]entities.Identifier, error) {
	query := `SELECT ` + identifierColumns + ` FROM identifiers
		WHERE owner_kind = ? AND owner_id = ? AND scheme = ? ` + bucketOrder
	return r.queryIdentifiers(ctx, query, string(owner.Kind), owner.ID, scheme)
}

// FindIdentifier returns the owner's identifier with this scheme and value.
func (r *Repository) FindIdentifier(ctx context.Context, owner entities.OwnerRef, scheme, value string) (*entities.Identifier, error) {
	query := `SELECT ` + identifierColumns + ` FROM identifiers
		WHERE owner_kind = ? AND owner_id = ? AND scheme = ? AND identifier = ?
		ORDER BY created_at, id LIMIT 1`
	i, err := scanIdentifier(r.q.QueryRowContext(ctx, query, string(owner.Kind), owner.ID, scheme, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding identifier: %w", err)
	}
	return i, nil
}

// ListIdentifiers returns every identifier of an owner.
func (r *Repository) ListIdentifiers(ctx context.Context, owner entities.OwnerRef) ([]entities.Identifier, error) {
	query := `SELECT ` + identifierColumns + ` FROM identifiers
		WHERE owner_kind = ? AND owner_id = ?
		ORDER BY scheme, end_date IS NOT NULL, end_date DESC, id`
	return r.queryIdentifiers(ctx, query, string(owner.Kind), owner.ID)
}

// FindOwnersByIdentifier returns the owners of kind holding scheme/value.
func (r *Repository) FindOwnersByIdentifier(ctx context.Context, kind entities.OwnerKind, scheme, value string) ([]entities.OwnerRef, error) {
	query := `SELECT DISTINCT owner_id FROM identifiers
		WHERE owner_kind = ? AND scheme = ? AND identifier = ?
		ORDER BY owner_id`
	rows, err := r.q.QueryContext(ctx, query, string(kind), scheme, value)
	if err != nil {
		return nil, fmt.Errorf("querying identifier owners: %w", err)
	}
	defer rows.Close()

	var owners []entities.OwnerRef
	for rows.Next() {
		ref := entities.OwnerRef{Kind: kind}
		if err := rows.Scan(&ref.ID); err != nil {
			return nil, fmt.Errorf("scanning identifier owner: %w", err)
		}
		owners = append(owners, ref)
	}
	return owners, rows.Err()
}

// DeleteIdentifiers removes identifiers by ID.
func (r *Repository) DeleteIdentifiers(ctx context.Context, ids []string) error {
	return r.deleteByIDs(ctx, "identifiers", ids)
}

func (r *Repository) queryIdentifiers(ctx context.Context, query string, args ...any) ([]entities.Identifier, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying identifiers: %w", err)
	}
	defer rows.Close()

	var out []entities.Identifier
	for rows.Next() {
		i, err := scanIdentifier(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning identifier: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

func scanIdentifier(s scanner) (*entities.Identifier, error) {
	var i entities.Identifier
	var kind string
	err := s.Scan(
		&i.ID, &kind, &i.Owner.ID, &i.Scheme, &i.Identifier, &i.Source,
		&i.StartDate, &i.EndDate, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.Owner.Kind = entities.OwnerKind(kind)
	return &i, nil
}

const otherNameColumns = `id, owner_kind, owner_id, othername_type, name, note, source,
	start_date, end_date, created_at, updated_at`

// SaveOtherName inserts or updates an other name.
func (r *Repository) SaveOtherName(ctx context.Context, n *entities.OtherName) error {
	stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if n.Type == "" {
		n.Type = entities.DefaultOtherNameType
	}

	query := `
		INSERT INTO other_names (` + otherNameColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			othername_type = excluded.othername_type,
			name = excluded.name,
			note = excluded.note,
			source = excluded.source,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		n.ID, string(n.Owner.Kind), n.Owner.ID, n.Type, n.Name, n.Note, n.Source,
		n.StartDate, n.EndDate, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving other name: %w", err)
	}
	return nil
}

// FindOtherNamesByType returns the owner's other names of one type, open-ended first.
func (r *Repository) FindOtherNamesByType(ctx context.Context, owner entities.OwnerRef, othernameType string) ([]entities.OtherName, error) {
	query := `SELECT ` + otherNameColumns + ` FROM other_names
		WHERE owner_kind = ? AND owner_id = ? AND othername_type = ? ` + bucketOrder
	return r.queryOtherNames(ctx, query, string(owner.Kind), owner.ID, othernameType)
}

// FindOtherName returns the owner's other name with this type and name.
func (r *Repository) FindOtherName(ctx context.Context, owner entities.OwnerRef, othernameType, name string) (*entities.OtherName, error) {
	query := `SELECT ` + otherNameColumns + ` FROM other_names
		WHERE owner_kind = ? AND owner_id = ? AND othername_type = ? AND name = ?
		ORDER BY created_at, id LIMIT 1`
	n, err := scanOtherName(r.q.QueryRowContext(ctx, query, string(owner.Kind), owner.ID, othernameType, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding other name: %w", err)
	}
	return n, nil
}

// ListOtherNames returns every other name of an owner.
func (r *Repository) ListOtherNames(ctx context.Context, owner entities.OwnerRef) ([]entities.OtherName, error) {
	query := `SELECT ` + otherNameColumns + ` FROM other_names
		WHERE owner_kind = ? AND owner_id = ?
		ORDER BY othername_type, end_date IS NOT NULL, end_date DESC, id`
	return r.queryOtherNames(ctx, query, string(owner.Kind), owner.ID)
}

// DeleteOtherNames removes other names by ID.
func (r *Repository) DeleteOtherNames(ctx context.Context, ids []string) error {
	return r.deleteByIDs(ctx, "other_names", ids)
}

func (r *Repository) queryOtherNames(ctx context.Context, query string, args ...any) ([]entities.OtherName, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying other names: %w", err)
	}
	defer rows.Close()

	var out []entities.OtherName
	for rows.Next() {
		n, err := scanOtherName(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning other name: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanOtherName(s scanner) (*entities.OtherName, error) {
	var n entities.OtherName
	var kind string
	err := s.Scan(
		&n.ID, &kind, &n.Owner.ID, &n.Type, &n.Name, &n.Note, &n.Source,
		&n.StartDate, &n.EndDate, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Owner.Kind = entities.OwnerKind(kind)
	return &n, nil
}
