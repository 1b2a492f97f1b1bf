package services

import (
	"context"
	"fmt"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
)

// The stores below adapt one owner's facts of a kind to reconcile.Store.
// They are built per operation around the transaction-bound repository and
// remember every row they loaded so partial updates can be written back whole.

// auditor logs reconciliation writes against the fact they touched.
type auditor struct {
	db    ports.RelationalDB
	kind  string
	owner entities.OwnerRef
}

func (a auditor) log(ctx context.Context, action, factID string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	details["kind"] = a.kind
	details["owner"] = a.owner.String()
	if err := a.db.LogAction(ctx, action, factID, details); err != nil {
		return fmt.Errorf("logging %s: %w", action, err)
	}
	return nil
}

func (a auditor) logDeletes(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := a.log(ctx, entities.ActionDelete, id, nil); err != nil {
			return err
		}
	}
	return nil
}

func writeAction(kind reconcile.WriteKind) string {
	switch kind {
	case reconcile.WriteMerge:
		return entities.ActionMerge
	case reconcile.WriteOverwrite:
		return entities.ActionOverwrite
	default:
		return entities.ActionExtend
	}
}

// Identifiers: scope is the scheme, value the identifier string.

type identifierMeta struct {
	Source string
}

type identifierStore struct {
	db    ports.RelationalDB
	owner entities.OwnerRef
	audit auditor
	seen  map[string]entities.Identifier
}

func newIdentifierStore(db ports.RelationalDB, owner entities.OwnerRef) *identifierStore {
	return &identifierStore{
		db:    db,
		owner: owner,
		audit: auditor{db: db, kind: identifierKind, owner: owner},
		seen:  make(map[string]entities.Identifier),
	}
}

func (s *identifierStore) remember(i entities.Identifier) reconcile.Fact[string, identifierMeta] {
	s.seen[i.ID] = i
	return reconcile.Fact[string, identifierMeta]{
		ID:       i.ID,
		Value:    i.Identifier,
		Interval: i.Interval(),
		Meta:     identifierMeta{Source: i.Source},
	}
}

func (s *identifierStore) Bucket(ctx context.Context, scheme string) ([]reconcile.Fact[string, identifierMeta], error) {
	rows, err := s.db.FindIdentifiersByScheme(ctx, s.owner, scheme)
	if err != nil {
		return nil, err
	}
	facts := make([]reconcile.Fact[string, identifierMeta], len(rows))
	for i, row := range rows {
		facts[i] = s.remember(row)
	}
	return facts, nil
}

func (s *identifierStore) FindExact(ctx context.Context, scheme, value string) (*reconcile.Fact[string, identifierMeta], error) {
	row, err := s.db.FindIdentifier(ctx, s.owner, scheme, value)
	if err != nil || row == nil {
		return nil, err
	}
	f := s.remember(*row)
	return &f, nil
}

func (s *identifierStore) Create(ctx context.Context, scheme string, f reconcile.Fact[string, identifierMeta]) (reconcile.Fact[string, identifierMeta], error) {
	row := entities.Identifier{
		Owner:      s.owner,
		Scheme:     scheme,
		Identifier: f.Value,
		Source:     f.Meta.Source,
	}
	row.SetInterval(f.Interval)
	if err := s.db.SaveIdentifier(ctx, &row); err != nil {
		return f, err
	}
	if err := s.audit.log(ctx, entities.ActionCreate, row.ID, map[string]any{"scheme": scheme, "identifier": f.Value}); err != nil {
		return f, err
	}
	return s.remember(row), nil
}

func (s *identifierStore) Update(ctx context.Context, f reconcile.Fact[string, identifierMeta], kind reconcile.WriteKind) error {
	row, ok := s.seen[f.ID]
	if !ok {
		return fmt.Errorf("identifier %s: %w", f.ID, entities.ErrNotFound)
	}
	row.Identifier = f.Value
	row.Source = f.Meta.Source
	row.SetInterval(f.Interval)
	if err := s.db.SaveIdentifier(ctx, &row); err != nil {
		return err
	}
	s.seen[row.ID] = row
	return s.audit.log(ctx, writeAction(kind), row.ID, map[string]any{"interval": f.Interval.String()})
}

func (s *identifierStore) Overwrite(ctx context.Context, e reconcile.Entry[string, string, identifierMeta]) error {
	row := entities.Identifier{
		ID:         e.Fact.ID,
		Owner:      s.owner,
		Scheme:     e.Scope,
		Identifier: e.Fact.Value,
		Source:     e.Fact.Meta.Source,
	}
	if prev, ok := s.seen[e.Fact.ID]; ok {
		row.CreatedAt = prev.CreatedAt
	}
	row.SetInterval(e.Fact.Interval)
	if err := s.db.SaveIdentifier(ctx, &row); err != nil {
		return err
	}
	return s.audit.log(ctx, entities.ActionReplace, row.ID, nil)
}

func (s *identifierStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.ListIdentifiers(ctx, s.owner)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		s.seen[row.ID] = row
		ids[i] = row.ID
	}
	return ids, nil
}

func (s *identifierStore) Delete(ctx context.Context, ids []string) error {
	if err := s.db.DeleteIdentifiers(ctx, ids); err != nil {
		return err
	}
	return s.audit.logDeletes(ctx, ids)
}

// Other names: scope is the othername type, value the name.

type otherNameMeta struct {
	Note   string
	Source string
}

type otherNameStore struct {
	db    ports.RelationalDB
	owner entities.OwnerRef
	audit auditor
	seen  map[string]entities.OtherName
}

func newOtherNameStore(db ports.RelationalDB, owner entities.OwnerRef) *otherNameStore {
	return &otherNameStore{
		db:    db,
		owner: owner,
		audit: auditor{db: db, kind: otherNameKind, owner: owner},
		seen:  make(map[string]entities.OtherName),
	}
}

func (s *otherNameStore) remember(n entities.OtherName) reconcile.Fact[string, otherNameMeta] {
	s.seen[n.ID] = n
	return reconcile.Fact[string, otherNameMeta]{
		ID:       n.ID,
		Value:    n.Name,
		Interval: n.Interval(),
		Meta:     otherNameMeta{Note: n.Note, Source: n.Source},
	}
}

func (s *otherNameStore) Bucket(ctx context.Context, othernameType string) ([]reconcile.Fact[string, otherNameMeta], error) {
	rows, err := s.db.FindOtherNamesByType(ctx, s.owner, othernameType)
	if err != nil {
		return nil, err
	}
	facts := make([]reconcile.Fact[string, otherNameMeta], len(rows))
	for i, row := range rows {
		facts[i] = s.remember(row)
	}
	return facts, nil
}

func (s *otherNameStore) FindExact(ctx context.Context, othernameType, name string) (*reconcile.Fact[string, otherNameMeta], error) {
	row, err := s.db.FindOtherName(ctx, s.owner, othernameType, name)
	if err != nil || row == nil {
		return nil, err
	}
	f := s.remember(*row)
	return &f, nil
}

func (s *otherNameStore) Create(ctx context.Context, othernameType string, f reconcile.Fact[string, otherNameMeta]) (reconcile.Fact[string, otherNameMeta], error) {
	row := entities.OtherName{
		Owner:  s.owner,
		Type:   othernameType,
		Name:   f.Value,
		Note:   f.Meta.Note,
		Source: f.Meta.Source,
	}
	row.SetInterval(f.Interval)
	if err := s.db.SaveOtherName(ctx, &row); err != nil {
		return f, err
	}
	if err := s.audit.log(ctx, entities.ActionCreate, row.ID, map[string]any{"othername_type": othernameType, "name": f.Value}); err != nil {
		return f, err
	}
	return s.remember(row), nil
}

func (s *otherNameStore) Update(ctx context.Context, f reconcile.Fact[string, otherNameMeta], kind reconcile.WriteKind) error {
	row, ok := s.seen[f.ID]
	if !ok {
		return fmt.Errorf("other name %s: %w", f.ID, entities.ErrNotFound)
	}
	row.Name = f.Value
	row.Note = f.Meta.Note
	row.Source = f.Meta.Source
	row.SetInterval(f.Interval)
	if err := s.db.SaveOtherName(ctx, &row); err != nil {
		return err
	}
	s.seen[row.ID] = row
	return s.audit.log(ctx, writeAction(kind), row.ID, map[string]any{"interval": f.Interval.String()})
}

func (s *otherNameStore) Overwrite(ctx context.Context, e reconcile.Entry[string, string, otherNameMeta]) error {
	row := entities.OtherName{
		ID:     e.Fact.ID,
		Owner:  s.owner,
		Type:   e.Scope,
		Name:   e.Fact.Value,
		Note:   e.Fact.Meta.Note,
		Source: e.Fact.Meta.Source,
	}
	if prev, ok := s.seen[e.Fact.ID]; ok {
		row.CreatedAt = prev.CreatedAt
	}
	row.SetInterval(e.Fact.Interval)
	if err := s.db.SaveOtherName(ctx, &row); err != nil {
		return err
	}
	return s.audit.log(ctx, entities.ActionReplace, row.ID, nil)
}

func (s *otherNameStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.ListOtherNames(ctx, s.owner)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		s.seen[row.ID] = row
		ids[i] = row.ID
	}
	return ids, nil
}

func (s *otherNameStore) Delete(ctx context.Context, ids []string) error {
	if err := s.db.DeleteOtherNames(ctx, ids); err != nil {
		return err
	}
	return s.audit.logDeletes(ctx, ids)
}

// Memberships: scope is organization, post, on-behalf-of and optionally the
// label; value is the role.

type membershipMeta struct {
	AreaID string
	Label  string
}

type membershipStore struct {
	db     ports.RelationalDB
	member entities.OwnerRef
	audit  auditor
	seen   map[string]entities.Membership
}

func newMembershipStore(db ports.RelationalDB, member entities.OwnerRef) *membershipStore {
	return &membershipStore{
		db:     db,
		member: member,
		audit:  auditor{db: db, kind: membershipKind, owner: member},
		seen:   make(map[string]entities.Membership),
	}
}

func (s *membershipStore) remember(m entities.Membership) reconcile.Fact[string, membershipMeta] {
	s.seen[m.ID] = m
	return reconcile.Fact[string, membershipMeta]{
		ID:       m.ID,
		Value:    m.Role,
		Interval: m.Interval(),
		Meta:     membershipMeta{AreaID: m.AreaID, Label: m.Label},
	}
}

func (s *membershipStore) row(scope entities.MembershipScope, f reconcile.Fact[string, membershipMeta]) (entities.Membership, error) {
	row := entities.Membership{
		ID:             f.ID,
		OrganizationID: scope.OrganizationID,
		PostID:         scope.PostID,
		OnBehalfOfID:   scope.OnBehalfOfID,
		AreaID:         f.Meta.AreaID,
		Role:           f.Value,
		Label:          f.Meta.Label,
	}
	if scope.Label != "" {
		row.Label = scope.Label
	}
	if err := row.SetMember(s.member); err != nil {
		return row, err
	}
	row.SetInterval(f.Interval)
	return row, nil
}

func (s *membershipStore) Bucket(ctx context.Context, scope entities.MembershipScope) ([]reconcile.Fact[string, membershipMeta], error) {
	rows, err := s.db.FindMembershipsInScope(ctx, s.member, scope)
	if err != nil {
		return nil, err
	}
	facts := make([]reconcile.Fact[string, membershipMeta], len(rows))
	for i, row := range rows {
		facts[i] = s.remember(row)
	}
	return facts, nil
}

func (s *membershipStore) FindExact(ctx context.Context, scope entities.MembershipScope, role string) (*reconcile.Fact[string, membershipMeta], error) {
	row, err := s.db.FindMembership(ctx, s.member, scope, role)
	if err != nil || row == nil {
		return nil, err
	}
	f := s.remember(*row)
	return &f, nil
}

func (s *membershipStore) Create(ctx context.Context, scope entities.MembershipScope, f reconcile.Fact[string, membershipMeta]) (reconcile.Fact[string, membershipMeta], error) {
	f.ID = ""
	row, err := s.row(scope, f)
	if err != nil {
		return f, err
	}
	if err := s.db.SaveMembership(ctx, &row); err != nil {
		return f, err
	}
	if err := s.audit.log(ctx, entities.ActionCreate, row.ID, map[string]any{"organization_id": scope.OrganizationID, "role": f.Value}); err != nil {
		return f, err
	}
	return s.remember(row), nil
}

func (s *membershipStore) Update(ctx context.Context, f reconcile.Fact[string, membershipMeta], kind reconcile.WriteKind) error {
	row, ok := s.seen[f.ID]
	if !ok {
		return fmt.Errorf("membership %s: %w", f.ID, entities.ErrNotFound)
	}
	row.Role = f.Value
	row.AreaID = f.Meta.AreaID
	if f.Meta.Label != "" {
		row.Label = f.Meta.Label
	}
	row.SetInterval(f.Interval)
	if err := s.db.SaveMembership(ctx, &row); err != nil {
		return err
	}
	s.seen[row.ID] = row
	return s.audit.log(ctx, writeAction(kind), row.ID, map[string]any{"interval": f.Interval.String()})
}

func (s *membershipStore) Overwrite(ctx context.Context, e reconcile.Entry[entities.MembershipScope, string, membershipMeta]) error {
	row, err := s.row(e.Scope, e.Fact)
	if err != nil {
		return err
	}
	if prev, ok := s.seen[e.Fact.ID]; ok {
		row.CreatedAt = prev.CreatedAt
	}
	if err := s.db.SaveMembership(ctx, &row); err != nil {
		return err
	}
	return s.audit.log(ctx, entities.ActionReplace, row.ID, nil)
}

func (s *membershipStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.ListMembershipsByMember(ctx, s.member)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		s.seen[row.ID] = row
		ids[i] = row.ID
	}
	return ids, nil
}

func (s *membershipStore) Delete(ctx context.Context, ids []string) error {
	if err := s.db.DeleteMemberships(ctx, ids); err != nil {
		return err
	}
	return s.audit.logDeletes(ctx, ids)
}

// Ownerships: scope is the owned organization and percentage. Every fact in
// a bucket shares the same value, so overlaps always extend or conflict.

type ownershipStore struct {
	db    ports.RelationalDB
	owner entities.OwnerRef
	audit auditor
	seen  map[string]entities.Ownership
}

func newOwnershipStore(db ports.RelationalDB, owner entities.OwnerRef) *ownershipStore {
	return &ownershipStore{
		db:    db,
		owner: owner,
		audit: auditor{db: db, kind: ownershipKind, owner: owner},
		seen:  make(map[string]entities.Ownership),
	}
}

func (s *ownershipStore) remember(o entities.Ownership) reconcile.Fact[string, struct{}] {
	s.seen[o.ID] = o
	return reconcile.Fact[string, struct{}]{ID: o.ID, Interval: o.Interval()}
}

func (s *ownershipStore) row(scope entities.OwnershipScope, f reconcile.Fact[string, struct{}]) (entities.Ownership, error) {
	row := entities.Ownership{
		ID:                  f.ID,
		OwnedOrganizationID: scope.OwnedOrganizationID,
		Percentage:          scope.Percentage,
	}
	if err := row.SetOwner(s.owner); err != nil {
		return row, err
	}
	row.SetInterval(f.Interval)
	return row, nil
}

func (s *ownershipStore) Bucket(ctx context.Context, scope entities.OwnershipScope) ([]reconcile.Fact[string, struct{}], error) {
	rows, err := s.db.FindOwnershipsInScope(ctx, s.owner, scope)
	if err != nil {
		return nil, err
	}
	facts := make([]reconcile.Fact[string, struct{}], len(rows))
	for i, row := range rows {
		facts[i] = s.remember(row)
	}
	return facts, nil
}

func (s *ownershipStore) FindExact(ctx context.Context, scope entities.OwnershipScope, _ string) (*reconcile.Fact[string, struct{}], error) {
	row, err := s.db.FindUnboundedOwnership(ctx, s.owner, scope)
	if err != nil || row == nil {
		return nil, err
	}
	f := s.remember(*row)
	return &f, nil
}

func (s *ownershipStore) Create(ctx context.Context, scope entities.OwnershipScope, f reconcile.Fact[string, struct{}]) (reconcile.Fact[string, struct{}], error) {
	f.ID = ""
	row, err := s.row(scope, f)
	if err != nil {
		return f, err
	}
	if err := s.db.SaveOwnership(ctx, &row); err != nil {
		return f, err
	}
	if err := s.audit.log(ctx, entities.ActionCreate, row.ID, map[string]any{"owned_organization_id": scope.OwnedOrganizationID, "percentage": scope.Percentage}); err != nil {
		return f, err
	}
	return s.remember(row), nil
}

func (s *ownershipStore) Update(ctx context.Context, f reconcile.Fact[string, struct{}], kind reconcile.WriteKind) error {
	row, ok := s.seen[f.ID]
	if !ok {
		return fmt.Errorf("ownership %s: %w", f.ID, entities.ErrNotFound)
	}
	row.SetInterval(f.Interval)
	if err := s.db.SaveOwnership(ctx, &row); err != nil {
		return err
	}
	s.seen[row.ID] = row
	return s.audit.log(ctx, writeAction(kind), row.ID, map[string]any{"interval": f.Interval.String()})
}

func (s *ownershipStore) Overwrite(ctx context.Context, e reconcile.Entry[entities.OwnershipScope, string, struct{}]) error {
	row, err := s.row(e.Scope, e.Fact)
	if err != nil {
		return err
	}
	if prev, ok := s.seen[e.Fact.ID]; ok {
		row.CreatedAt = prev.CreatedAt
	}
	if err := s.db.SaveOwnership(ctx, &row); err != nil {
		return err
	}
	return s.audit.log(ctx, entities.ActionReplace, row.ID, nil)
}

func (s *ownershipStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.ListOwnershipsByOwner(ctx, s.owner)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		s.seen[row.ID] = row
		ids[i] = row.ID
	}
	return ids, nil
}

func (s *ownershipStore) Delete(ctx context.Context, ids []string) error {
	if err := s.db.DeleteOwnerships(ctx, ids); err != nil {
		return err
	}
	return s.audit.logDeletes(ctx, ids)
}
