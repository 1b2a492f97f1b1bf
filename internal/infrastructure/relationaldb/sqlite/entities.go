package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

const personColumns = `id, name, family_name, given_name, sort_name, email, gender,
	birth_date, death_date, birth_location, image, summary, biography,
	start_date, end_date, created_at, updated_at`

// SavePerson inserts or updates a person.
func (r *Repository) SavePerson(ctx context.Context, p *entities.Person) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	query := `
		INSERT INTO persons (` + personColumns + `, normalized_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			family_name = excluded.family_name,
			given_name = excluded.given_name,
			sort_name = excluded.sort_name,
			email = excluded.email,
			gender = excluded.gender,
			birth_date = excluded.birth_date,
			death_date = excluded.death_date,
			birth_location = excluded.birth_location,
			image = excluded.image,
			summary = excluded.summary,
			biography = excluded.biography,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at,
			normalized_name = excluded.normalized_name
	`
	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.Name, p.FamilyName, p.GivenName, p.SortName, p.Email, p.Gender,
		p.BirthDate, p.DeathDate, p.BirthLocation, p.Image, p.Summary, p.Biography,
		p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt,
		entities.NormalizeName(p.Name),
	)
	if err != nil {
		return fmt.Errorf("saving person: %w", err)
	}
	return nil
}

// FindPersonByID finds a person by ID.
func (r *Repository) FindPersonByID(ctx context.Context, id string) (*entities.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = ?`
	p, err := scanPerson(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding person: %w", err)
	}
	return p, nil
}

// ListPersons returns persons ordered by name.
func (r *Repository) ListPersons(ctx context.Context, limit, offset int) ([]*entities.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons ORDER BY normalized_name, id LIMIT ? OFFSET ?`
	return r.queryPersons(ctx, query, limit, offset)
}

// SearchPersons matches the name or any other name, case-insensitively.
func (r *Repository) SearchPersons(ctx context.Context, query string, limit int) ([]*entities.Person, error) {
	pattern := "%" + entities.NormalizeName(query) + "%"
	q := `
		SELECT ` + personColumns + ` FROM persons p
		WHERE p.normalized_name LIKE ?
		OR EXISTS (
			SELECT 1 FROM other_names n
			WHERE n.owner_kind = 'person' AND n.owner_id = p.id AND lower(n.name) LIKE ?
		)
		ORDER BY p.normalized_name, p.id
		LIMIT ?
	`
	return r.queryPersons(ctx, q, pattern, pattern, limit)
}

// CountPersons returns the number of persons.
func (r *Repository) CountPersons(ctx context.Context) (int, error) {
	return r.count(ctx, "persons")
}

// DeletePerson removes a person.
func (r *Repository) DeletePerson(ctx context.Context, id string) error {
	return r.deleteOne(ctx, "persons", id)
}

func (r *Repository) queryPersons(ctx context.Context, query string, args ...any) ([]*entities.Person, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying persons: %w", err)
	}
	defer rows.Close()

	var persons []*entities.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func scanPerson(s scanner) (*entities.Person, error) {
	var p entities.Person
	err := s.Scan(
		&p.ID, &p.Name, &p.FamilyName, &p.GivenName, &p.SortName, &p.Email, &p.Gender,
		&p.BirthDate, &p.DeathDate, &p.BirthLocation, &p.Image, &p.Summary, &p.Biography,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const organizationColumns = `id, name, classification, abstract, parent_id, area_id,
	founding_date, dissolution_date, image, start_date, end_date, created_at, updated_at`

// SaveOrganization inserts or updates an organization.
func (r *Repository) SaveOrganization(ctx context.Context, o *entities.Organization) error {
	stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)

	query := `
		INSERT INTO organizations (` + organizationColumns + `, normalized_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			classification = excluded.classification,
			abstract = excluded.abstract,
			parent_id = excluded.parent_id,
			area_id = excluded.area_id,
			founding_date = excluded.founding_date,
			dissolution_date = excluded.dissolution_date,
			image = excluded.image,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at,
			normalized_name = excluded.normalized_name
	`
	_, err := r.q.ExecContext(ctx, query,
		o.ID, o.Name, o.Classification, o.Abstract, o.ParentID, o.AreaID,
		o.FoundingDate, o.DissolutionDate, o.Image, o.StartDate, o.EndDate, o.CreatedAt, o.UpdatedAt,
		entities.NormalizeName(o.Name),
	)
	if err != nil {
		return fmt.Errorf("saving organization: %w", err)
	}
	return nil
}

// FindOrganizationByID finds an organization by ID.
func (r *Repository) FindOrganizationByID(ctx context.Context, id string) (*entities.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = ?`
	o, err := scanOrganization(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return o, nil
}

// ListOrganizations returns organizations ordered by name.
func (r *Repository) ListOrganizations(ctx context.Context, limit, offset int) ([]*entities.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY normalized_name, id LIMIT ? OFFSET ?`
	return r.queryOrganizations(ctx, query, limit, offset)
}

// SearchOrganizations matches the name or any other name, case-insensitively.
func (r *Repository) SearchOrganizations(ctx context.Context, query string, limit int) ([]*entities.Organization, error) {
	pattern := "%" + entities.NormalizeName(query) + "%"
	q := `
		SELECT ` + organizationColumns + ` FROM organizations o
		WHERE o.normalized_name LIKE ?
		OR EXISTS (
			SELECT 1 FROM other_names n
			WHERE n.owner_kind = 'organization' AND n.owner_id = o.id AND lower(n.name) LIKE ?
		)
		ORDER BY o.normalized_name, o.id
		LIMIT ?
	`
	return r.queryOrganizations(ctx, q, pattern, pattern, limit)
}

// CountOrganizations returns the number of organizations.
func (r *Repository) CountOrganizations(ctx context.Context) (int, error) {
	return r.count(ctx, "organizations")
}

// DeleteOrganization removes an organization.
func (r *Repository) DeleteOrganization(ctx context.Context, id string) error {
	return r.deleteOne(ctx, "organizations", id)
}

func (r *Repository) queryOrganizations(ctx context.Context, query string, args ...any) ([]*entities.Organization, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*entities.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func scanOrganization(s scanner) (*entities.Organization, error) {
	var o entities.Organization
	err := s.Scan(
		&o.ID, &o.Name, &o.Classification, &o.Abstract, &o.ParentID, &o.AreaID,
		&o.FoundingDate, &o.DissolutionDate, &o.Image, &o.StartDate, &o.EndDate, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const postColumns = `id, label, other_label, role, organization_id, area_id,
	start_date, end_date, created_at, updated_at`

// SavePost inserts or updates a post.
func (r *Repository) SavePost(ctx context.Context, p *entities.Post) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			other_label = excluded.other_label,
			role = excluded.role,
			organization_id = excluded.organization_id,
			area_id = excluded.area_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.Label, p.OtherLabel, p.Role, p.OrganizationID, p.AreaID,
		p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving post: %w", err)
	}
	return nil
}

// FindPostByID finds a post by ID.
func (r *Repository) FindPostByID(ctx context.Context, id string) (*entities.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`
	p, err := scanPost(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding post: %w", err)
	}
	return p, nil
}

// ListPostsByOrganization returns the posts of an organization.
func (r *Repository) ListPostsByOrganization(ctx context.Context, organizationID string) ([]*entities.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE organization_id = ? ORDER BY label, id`
	rows, err := r.q.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []*entities.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(s scanner) (*entities.Post, error) {
	var p entities.Post
	err := s.Scan(
		&p.ID, &p.Label, &p.OtherLabel, &p.Role, &p.OrganizationID, &p.AreaID,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const areaColumns = `id, name, identifier, classification, parent_id,
	start_date, end_date, created_at, updated_at`

// SaveArea inserts or updates an area.
func (r *Repository) SaveArea(ctx context.Context, a *entities.Area) error {
	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	query := `
		INSERT INTO areas (` + areaColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			identifier = excluded.identifier,
			classification = excluded.classification,
			parent_id = excluded.parent_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		a.ID, a.Name, a.Identifier, a.Classification, a.ParentID,
		a.StartDate, a.EndDate, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving area: %w", err)
	}
	return nil
}

// FindAreaByID finds an area by ID.
func (r *Repository) FindAreaByID(ctx context.Context, id string) (*entities.Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE id = ?`
	a, err := scanArea(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding area: %w", err)
	}
	return a, nil
}

// ListAreas returns areas ordered by name.
func (r *Repository) ListAreas(ctx context.Context, limit, offset int) ([]*entities.Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas ORDER BY name, id LIMIT ? OFFSET ?`
	rows, err := r.q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying areas: %w", err)
	}
	defer rows.Close()

	var areas []*entities.Area
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func scanArea(s scanner) (*entities.Area, error) {
	var a entities.Area
	err := s.Scan(
		&a.ID, &a.Name, &a.Identifier, &a.Classification, &a.ParentID,
		&a.StartDate, &a.EndDate, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
