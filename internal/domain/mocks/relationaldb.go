package mocks

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
	"github.com/ersonp/popolo-core/internal/domain/ports"
)

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// WithinTx snapshots every table and restores it when fn fails.
type RelationalDB struct {
	Persons       map[string]entities.Person
	Organizations map[string]entities.Organization
	Posts         map[string]entities.Post
	Areas         map[string]entities.Area
	Identifiers   map[string]entities.Identifier
	OtherNames    map[string]entities.OtherName
	Memberships   map[string]entities.Membership
	Ownerships    map[string]entities.Ownership
	Audit         []entities.AuditEntry

	// Err is returned by every method when set.
	Err error

	// Call tracking
	TxCallCount int
	nextID      int
}

var _ ports.RelationalDB = (*RelationalDB)(nil)

// NewRelationalDB creates a new mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Persons:       make(map[string]entities.Person),
		Organizations: make(map[string]entities.Organization),
		Posts:         make(map[string]entities.Post),
		Areas:         make(map[string]entities.Area),
		Identifiers:   make(map[string]entities.Identifier),
		OtherNames:    make(map[string]entities.OtherName),
		Memberships:   make(map[string]entities.Membership),
		Ownerships:    make(map[string]entities.Ownership),
	}
}

// EnsureSchema returns the configured error.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// WithinTx runs fn against m and rolls every table back when fn fails.
func (m *RelationalDB) WithinTx(_ context.Context, fn func(tx ports.RelationalDB) error) error {
	m.TxCallCount++
	if m.Err != nil {
		return m.Err
	}

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	persons       map[string]entities.Person
	organizations map[string]entities.Organization
	posts         map[string]entities.Post
	areas         map[string]entities.Area
	identifiers   map[string]entities.Identifier
	otherNames    map[string]entities.OtherName
	memberships   map[string]entities.Membership
	ownerships    map[string]entities.Ownership
	audit         []entities.AuditEntry
}

func (m *RelationalDB) snapshot() snapshot {
	return snapshot{
		persons:       maps.Clone(m.Persons),
		organizations: maps.Clone(m.Organizations),
		posts:         maps.Clone(m.Posts),
		areas:         maps.Clone(m.Areas),
		identifiers:   maps.Clone(m.Identifiers),
		otherNames:    maps.Clone(m.OtherNames),
		memberships:   maps.Clone(m.Memberships),
		ownerships:    maps.Clone(m.Ownerships),
		audit:         append([]entities.AuditEntry(nil), m.Audit...),
	}
}

func (m *RelationalDB) restore(s snapshot) {
	m.Persons = s.persons
	m.Organizations = s.organizations
	m.Posts = s.posts
	m.Areas = s.areas
	m.Identifiers = s.identifiers
	m.OtherNames = s.otherNames
	m.Memberships = s.memberships
	m.Ownerships = s.ownerships
	m.Audit = s.audit
}

func (m *RelationalDB) stamp(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		m.nextID++
		*id = fmt.Sprintf("id-%d", m.nextID)
	}
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

// byEndDesc orders facts end date descending with unbounded ends first, then by ID.
func byEndDesc(aID string, aEnd partialdate.Date, bID string, bEnd partialdate.Date) bool {
	switch {
	case aEnd.IsNull() != bEnd.IsNull():
		return aEnd.IsNull()
	case aEnd.String() != bEnd.String():
		return aEnd.String() > bEnd.String()
	default:
		return aID < bID
	}
}

// Persons.

// SavePerson inserts or updates a person.
func (m *RelationalDB) SavePerson(_ context.Context, p *entities.Person) error {
	if m.Err != nil {
		return m.Err
	}
	m.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	m.Persons[p.ID] = *p
	return nil
}

// FindPersonByID returns nil, nil when the person does not exist.
func (m *RelationalDB) FindPersonByID(_ context.Context, id string) (*entities.Person, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Persons[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListPersons returns persons sorted by name.
func (m *RelationalDB) ListPersons(_ context.Context, limit, offset int) ([]*entities.Person, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Person
	for _, p := range m.Persons {
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, limit, offset), nil
}

// SearchPersons matches names and other names by substring.
func (m *RelationalDB) SearchPersons(_ context.Context, query string, limit int) ([]*entities.Person, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Person
	for _, p := range m.Persons {
		if m.nameMatches(entities.OwnerRef{Kind: entities.OwnerPerson, ID: p.ID}, p.Name, query) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, limit, 0), nil
}

// CountPersons returns the number of persons.
func (m *RelationalDB) CountPersons(_ context.Context) (int, error) {
	return len(m.Persons), m.Err
}

// DeletePerson removes a person.
func (m *RelationalDB) DeletePerson(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Persons[id]; !ok {
		return fmt.Errorf("person %s: %w", id, entities.ErrNotFound)
	}
	delete(m.Persons, id)
	return nil
}

// Organizations.

// SaveOrganization inserts or updates an organization.
func (m *RelationalDB) SaveOrganization(_ context.Context, o *entities.Organization) error {
	if m.Err != nil {
		return m.Err
	}
	m.stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	m.Organizations[o.ID] = *o
	return nil
}

// FindOrganizationByID returns nil, nil when the organization does not exist.
func (m *RelationalDB) FindOrganizationByID(_ context.Context, id string) (*entities.Organization, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	o, ok := m.Organizations[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// ListOrganizations returns organizations sorted by name.
func (m *RelationalDB) ListOrganizations(_ context.Context, limit, offset int) ([]*entities.Organization, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Organization
	for _, o := range m.Organizations {
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, limit, offset), nil
}

// SearchOrganizations matches names and other names by substring.
func (m *RelationalDB) SearchOrganizations(_ context.Context, query string, limit int) ([]*entities.Organization, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Organization
	for _, o := range m.Organizations {
		if m.nameMatches(entities.OwnerRef{Kind: entities.OwnerOrganization, ID: o.ID}, o.Name, query) {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, limit, 0), nil
}

// CountOrganizations returns the number of organizations.
func (m *RelationalDB) CountOrganizations(_ context.Context) (int, error) {
	return len(m.Organizations), m.Err
}

// DeleteOrganization removes an organization.
func (m *RelationalDB) DeleteOrganization(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Organizations[id]; !ok {
		return fmt.Errorf("organization %s: %w", id, entities.ErrNotFound)
	}
	delete(m.Organizations, id)
	return nil
}

// Posts and areas.

// SavePost inserts or updates a post.
func (m *RelationalDB) SavePost(_ context.Context, p *entities.Post) error {
	if m.Err != nil {
		return m.Err
	}
	m.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	m.Posts[p.ID] = *p
	return nil
}

// FindPostByID returns nil, nil when the post does not exist.
func (m *RelationalDB) FindPostByID(_ context.Context, id string) (*entities.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListPostsByOrganization returns the posts of an organization.
func (m *RelationalDB) ListPostsByOrganization(_ context.Context, organizationID string) ([]*entities.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Post
	for _, p := range m.Posts {
		if p.OrganizationID == organizationID {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Label, out[i].ID, out[j].Label, out[j].ID) })
	return out, nil
}

// SaveArea inserts or updates an area.
func (m *RelationalDB) SaveArea(_ context.Context, a *entities.Area) error {
	if m.Err != nil {
		return m.Err
	}
	m.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	m.Areas[a.ID] = *a
	return nil
}

// FindAreaByID returns nil, nil when the area does not exist.
func (m *RelationalDB) FindAreaByID(_ context.Context, id string) (*entities.Area, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Areas[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListAreas returns areas sorted by name.
func (m *RelationalDB) ListAreas(_ context.Context, limit, offset int) ([]*entities.Area, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.Area
	for _, a := range m.Areas {
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, limit, offset), nil
}

// Identifiers.

// SaveIdentifier inserts or updates an identifier.
func (m *RelationalDB) SaveIdentifier(_ context.Context, i *entities.Identifier) error {
	if m.Err != nil {
		return m.Err
	}
	m.stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	m.Identifiers[i.ID] = *i
	return nil
}

// FindIdentifiersByScheme returns the owner's bucket for scheme.
func (m *RelationalDB) FindIdentifiersByScheme(_ context.Context, owner entities.OwnerRef, scheme string) ([]entities.Identifier, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.identifiersWhere(func(i entities.Identifier) bool {
		return i.Owner == owner && i.Scheme == scheme
	}), nil
}

// FindIdentifier returns the owner's identifier with this scheme and value.
func (m *RelationalDB) FindIdentifier(_ context.Context, owner entities.OwnerRef, scheme, value string) (*entities.Identifier, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	found := m.identifiersWhere(func(i entities.Identifier) bool {
		return i.Owner == owner && i.Scheme == scheme && i.Identifier == value
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// ListIdentifiers returns every identifier of an owner.
func (m *RelationalDB) ListIdentifiers(_ context.Context, owner entities.OwnerRef) ([]entities.Identifier, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.identifiersWhere(func(i entities.Identifier) bool { return i.Owner == owner }), nil
}

// FindOwnersByIdentifier returns the owners of kind holding scheme/value.
func (m *RelationalDB) FindOwnersByIdentifier(_ context.Context, kind entities.OwnerKind, scheme, value string) ([]entities.OwnerRef, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	seen := make(map[string]bool)
	var out []entities.OwnerRef
	for _, i := range m.Identifiers {
		if i.Owner.Kind == kind && i.Scheme == scheme && i.Identifier == value && !seen[i.Owner.ID] {
			seen[i.Owner.ID] = true
			out = append(out, i.Owner)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// DeleteIdentifiers removes identifiers by ID.
func (m *RelationalDB) DeleteIdentifiers(_ context.Context, ids []string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, id := range ids {
		delete(m.Identifiers, id)
	}
	return nil
}

func (m *RelationalDB) identifiersWhere(match func(entities.Identifier) bool) []entities.Identifier {
	var out []entities.Identifier
	for _, i := range m.Identifiers {
		if match(i) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Scheme != out[b].Scheme {
			return out[a].Scheme < out[b].Scheme
		}
		return byEndDesc(out[a].ID, out[a].EndDate, out[b].ID, out[b].EndDate)
	})
	return out
}

// Other names.

// SaveOtherName inserts or updates an other name.
func (m *RelationalDB) SaveOtherName(_ context.Context, n *entities.OtherName) error {
	if m.Err != nil {
		return m.Err
	}
	if n.Type == "" {
		n.Type = entities.DefaultOtherNameType
	}
	m.stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	m.OtherNames[n.ID] = *n
	return nil
}

// FindOtherNamesByType returns the owner's bucket for othernameType.
func (m *RelationalDB) FindOtherNamesByType(_ context.Context, owner entities.OwnerRef, othernameType string) ([]entities.OtherName, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.otherNamesWhere(func(n entities.OtherName) bool {
		return n.Owner == owner && n.Type == othernameType
	}), nil
}

// FindOtherName returns the owner's other name with this type and name.
func (m *RelationalDB) FindOtherName(_ context.Context, owner entities.OwnerRef, othernameType, name string) (*entities.OtherName, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	found := m.otherNamesWhere(func(n entities.OtherName) bool {
		return n.Owner == owner && n.Type == othernameType && n.Name == name
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// ListOtherNames returns every other name of an owner.
func (m *RelationalDB) ListOtherNames(_ context.Context, owner entities.OwnerRef) ([]entities.OtherName, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.otherNamesWhere(func(n entities.OtherName) bool { return n.Owner == owner }), nil
}

// DeleteOtherNames removes other names by ID.
func (m *RelationalDB) DeleteOtherNames(_ context.Context, ids []string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, id := range ids {
		delete(m.OtherNames, id)
	}
	return nil
}

func (m *RelationalDB) otherNamesWhere(match func(entities.OtherName) bool) []entities.OtherName {
	var out []entities.OtherName
	for _, n := range m.OtherNames {
		if match(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Type != out[b].Type {
			return out[a].Type < out[b].Type
		}
		return byEndDesc(out[a].ID, out[a].EndDate, out[b].ID, out[b].EndDate)
	})
	return out
}

func (m *RelationalDB) nameMatches(owner entities.OwnerRef, name, query string) bool {
	q := entities.NormalizeName(query)
	if strings.Contains(entities.NormalizeName(name), q) {
		return true
	}
	for _, n := range m.OtherNames {
		if n.Owner == owner && strings.Contains(strings.ToLower(n.Name), q) {
			return true
		}
	}
	return false
}

// Memberships.

// SaveMembership inserts or updates a membership.
func (m *RelationalDB) SaveMembership(_ context.Context, ms *entities.Membership) error {
	if m.Err != nil {
		return m.Err
	}
	m.stamp(&ms.ID, &ms.CreatedAt, &ms.UpdatedAt)
	m.Memberships[ms.ID] = *ms
	return nil
}

// FindMembershipByID returns nil, nil when the membership does not exist.
func (m *RelationalDB) FindMembershipByID(_ context.Context, id string) (*entities.Membership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ms, ok := m.Memberships[id]
	if !ok {
		return nil, nil
	}
	return &ms, nil
}

// FindMembershipsInScope returns the member's bucket; an empty scope label matches any label.
func (m *RelationalDB) FindMembershipsInScope(_ context.Context, member entities.OwnerRef, scope entities.MembershipScope) ([]entities.Membership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.membershipsWhere(func(ms entities.Membership) bool {
		return ms.Member() == member && inMembershipScope(ms, scope)
	}), nil
}

// FindMembership returns the member's membership in scope with role.
func (m *RelationalDB) FindMembership(_ context.Context, member entities.OwnerRef, scope entities.MembershipScope, role string) (*entities.Membership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	found := m.membershipsWhere(func(ms entities.Membership) bool {
		return ms.Member() == member && inMembershipScope(ms, scope) && ms.Role == role
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// ListMembershipsByMember returns every membership held by member.
func (m *RelationalDB) ListMembershipsByMember(_ context.Context, member entities.OwnerRef) ([]entities.Membership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.membershipsWhere(func(ms entities.Membership) bool { return ms.Member() == member }), nil
}

// ListMembershipsByOrganization returns every membership in an organization.
func (m *RelationalDB) ListMembershipsByOrganization(_ context.Context, organizationID string) ([]entities.Membership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.membershipsWhere(func(ms entities.Membership) bool { return ms.OrganizationID == organizationID }), nil
}

// DeleteMemberships removes memberships by ID.
func (m *RelationalDB) DeleteMemberships(_ context.Context, ids []string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, id := range ids {
		delete(m.Memberships, id)
	}
	return nil
}

func inMembershipScope(ms entities.Membership, scope entities.MembershipScope) bool {
	return ms.OrganizationID == scope.OrganizationID &&
		ms.PostID == scope.PostID &&
		ms.OnBehalfOfID == scope.OnBehalfOfID &&
		(scope.Label == "" || ms.Label == scope.Label)
}

func (m *RelationalDB) membershipsWhere(match func(entities.Membership) bool) []entities.Membership {
	var out []entities.Membership
	for _, ms := range m.Memberships {
		if match(ms) {
			out = append(out, ms)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return byEndDesc(out[a].ID, out[a].EndDate, out[b].ID, out[b].EndDate)
	})
	return out
}

// Ownerships.

// SaveOwnership inserts or updates an ownership.
func (m *RelationalDB) SaveOwnership(_ context.Context, o *entities.Ownership) error {
	if m.Err != nil {
		return m.Err
	}
	m.stamp(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	m.Ownerships[o.ID] = *o
	return nil
}

// FindOwnershipsInScope returns the owner's bucket.
func (m *RelationalDB) FindOwnershipsInScope(_ context.Context, owner entities.OwnerRef, scope entities.OwnershipScope) ([]entities.Ownership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ownershipsWhere(func(o entities.Ownership) bool {
		return o.Owner() == owner && o.Scope() == scope
	}), nil
}

// FindUnboundedOwnership returns the owner's undated ownership in scope.
func (m *RelationalDB) FindUnboundedOwnership(_ context.Context, owner entities.OwnerRef, scope entities.OwnershipScope) (*entities.Ownership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	found := m.ownershipsWhere(func(o entities.Ownership) bool {
		return o.Owner() == owner && o.Scope() == scope && o.Interval().IsUnbounded()
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// ListOwnershipsByOwner returns every ownership held by owner.
func (m *RelationalDB) ListOwnershipsByOwner(_ context.Context, owner entities.OwnerRef) ([]entities.Ownership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ownershipsWhere(func(o entities.Ownership) bool { return o.Owner() == owner }), nil
}

// ListOwnershipsByOrganization returns every ownership of an organization.
func (m *RelationalDB) ListOwnershipsByOrganization(_ context.Context, organizationID string) ([]entities.Ownership, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ownershipsWhere(func(o entities.Ownership) bool { return o.OwnedOrganizationID == organizationID }), nil
}

// DeleteOwnerships removes ownerships by ID.
func (m *RelationalDB) DeleteOwnerships(_ context.Context, ids []string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, id := range ids {
		delete(m.Ownerships, id)
	}
	return nil
}

func (m *RelationalDB) ownershipsWhere(match func(entities.Ownership) bool) []entities.Ownership {
	var out []entities.Ownership
	for _, o := range m.Ownerships {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return byEndDesc(out[a].ID, out[a].EndDate, out[b].ID, out[b].EndDate)
	})
	return out
}

// Audit log.

// LogAction appends to the audit log.
func (m *RelationalDB) LogAction(_ context.Context, action string, subjectID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// FindAuditLog returns entries for a subject, newest first.
func (m *RelationalDB) FindAuditLog(_ context.Context, subjectID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].SubjectID == subjectID {
			out = append(out, m.Audit[i])
		}
	}
	return out, nil
}

// FindAuditLogByAction returns entries with action, newest first.
func (m *RelationalDB) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if action == "" || m.Audit[i].Action == action {
			out = append(out, m.Audit[i])
		}
	}
	return out, nil
}

// Actions returns the logged actions in order.
func (m *RelationalDB) Actions() []string {
	out := make([]string, len(m.Audit))
	for i, e := range m.Audit {
		out[i] = e.Action
	}
	return out
}

func less(aName, aID, bName, bID string) bool {
	if aName != bName {
		return aName < bName
	}
	return aID < bID
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
