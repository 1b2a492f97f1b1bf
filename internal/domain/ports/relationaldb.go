package ports

import (
	"context"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

// RelationalDB defines the interface for relational database operations.
// It stores the Popolo entities and their dated facts; bucket queries return
// facts ordered by end date descending with unbounded ends first.
type RelationalDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// WithinTx runs fn against a repository bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// A nested call on tx undoes only its own writes when it fails.
	WithinTx(ctx context.Context, fn func(tx RelationalDB) error) error

	EntityStore
	FactStore

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, subjectID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a subject, newest first.
	FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error)

	// FindAuditLogByAction finds the newest audit log entries of an action;
	// an empty action matches every entry.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}

// EntityStore persists persons, organizations, posts and areas.
// Find methods return nil, nil when nothing matches.
type EntityStore interface {
	SavePerson(ctx context.Context, person *entities.Person) error
	FindPersonByID(ctx context.Context, id string) (*entities.Person, error)
	ListPersons(ctx context.Context, limit, offset int) ([]*entities.Person, error)
	SearchPersons(ctx context.Context, query string, limit int) ([]*entities.Person, error)
	CountPersons(ctx context.Context) (int, error)
	DeletePerson(ctx context.Context, id string) error

	SaveOrganization(ctx context.Context, org *entities.Organization) error
	FindOrganizationByID(ctx context.Context, id string) (*entities.Organization, error)
	ListOrganizations(ctx context.Context, limit, offset int) ([]*entities.Organization, error)
	SearchOrganizations(ctx context.Context, query string, limit int) ([]*entities.Organization, error)
	CountOrganizations(ctx context.Context) (int, error)
	DeleteOrganization(ctx context.Context, id string) error

	SavePost(ctx context.Context, post *entities.Post) error
	FindPostByID(ctx context.Context, id string) (*entities.Post, error)
	ListPostsByOrganization(ctx context.Context, organizationID string) ([]*entities.Post, error)

	SaveArea(ctx context.Context, area *entities.Area) error
	FindAreaByID(ctx context.Context, id string) (*entities.Area, error)
	ListAreas(ctx context.Context, limit, offset int) ([]*entities.Area, error)
}

// FactStore persists the dated facts attached to entities.
type FactStore interface {
	// SaveIdentifier inserts or updates an identifier by ID.
	SaveIdentifier(ctx context.Context, identifier *entities.Identifier) error
	// FindIdentifiersByScheme returns the owner's bucket for scheme.
	FindIdentifiersByScheme(ctx context.Context, owner entities.OwnerRef, scheme string) ([]entities.Identifier, error)
	// FindIdentifier returns the owner's identifier with this scheme and value.
	FindIdentifier(ctx context.Context, owner entities.OwnerRef, scheme, value string) (*entities.Identifier, error)
	ListIdentifiers(ctx context.Context, owner entities.OwnerRef) ([]entities.Identifier, error)
	// FindOwnersByIdentifier returns the owners of kind holding scheme/value.
	FindOwnersByIdentifier(ctx context.Context, kind entities.OwnerKind, scheme, value string) ([]entities.OwnerRef, error)
	DeleteIdentifiers(ctx context.Context, ids []string) error

	SaveOtherName(ctx context.Context, name *entities.OtherName) error
	FindOtherNamesByType(ctx context.Context, owner entities.OwnerRef, othernameType string) ([]entities.OtherName, error)
	FindOtherName(ctx context.Context, owner entities.OwnerRef, othernameType, name string) (*entities.OtherName, error)
	ListOtherNames(ctx context.Context, owner entities.OwnerRef) ([]entities.OtherName, error)
	DeleteOtherNames(ctx context.Context, ids []string) error

	SaveMembership(ctx context.Context, membership *entities.Membership) error
	FindMembershipByID(ctx context.Context, id string) (*entities.Membership, error)
	// FindMembershipsInScope returns the member's bucket; an empty Label in
	// scope matches any label.
	FindMembershipsInScope(ctx context.Context, member entities.OwnerRef, scope entities.MembershipScope) ([]entities.Membership, error)
	FindMembership(ctx context.Context, member entities.OwnerRef, scope entities.MembershipScope, role string) (*entities.Membership, error)
	ListMembershipsByMember(ctx context.Context, member entities.OwnerRef) ([]entities.Membership, error)
	ListMembershipsByOrganization(ctx context.Context, organizationID string) ([]entities.Membership, error)
	DeleteMemberships(ctx context.Context, ids []string) error

	SaveOwnership(ctx context.Context, ownership *entities.Ownership) error
	FindOwnershipsInScope(ctx context.Context, owner entities.OwnerRef, scope entities.OwnershipScope) ([]entities.Ownership, error)
	// FindUnboundedOwnership returns the owner's ownership in scope with no dates.
	FindUnboundedOwnership(ctx context.Context, owner entities.OwnerRef, scope entities.OwnershipScope) (*entities.Ownership, error)
	ListOwnershipsByOwner(ctx context.Context, owner entities.OwnerRef) ([]entities.Ownership, error)
	ListOwnershipsByOrganization(ctx context.Context, organizationID string) ([]entities.Ownership, error)
	DeleteOwnerships(ctx context.Context, ids []string) error
}
