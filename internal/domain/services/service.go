// Package services holds the use cases of the Popolo store: entity
// management and the dated-fact collections built on reconcile.
package services

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
)

// Fact kinds, as named in conflict messages and the audit log.
const (
	identifierKind = "Identifier"
	otherNameKind  = "OtherName"
	membershipKind = "Membership"
	ownershipKind  = "Ownership"
)

var _ reconcile.Store[string, string, identifierMeta] = (*identifierStore)(nil)
var _ reconcile.Store[string, string, otherNameMeta] = (*otherNameStore)(nil)
var _ reconcile.Store[entities.MembershipScope, string, membershipMeta] = (*membershipStore)(nil)
var _ reconcile.Store[entities.OwnershipScope, string, struct{}] = (*ownershipStore)(nil)

// Result is the stored state of a fact after an add, with what happened to it.
type Result[T any] struct {
	Item    T      `json:"item"`
	Outcome string `json:"outcome"`
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func orDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return discardLogger()
	}
	return l
}

// ensureOwner checks that the entity a fact is attached to exists.
func ensureOwner(ctx context.Context, db ports.RelationalDB, owner entities.OwnerRef) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	var (
		found bool
		err   error
	)
	switch owner.Kind {
	case entities.OwnerPerson:
		var p *entities.Person
		p, err = db.FindPersonByID(ctx, owner.ID)
		found = p != nil
	case entities.OwnerOrganization:
		var o *entities.Organization
		o, err = db.FindOrganizationByID(ctx, owner.ID)
		found = o != nil
	case entities.OwnerPost:
		var p *entities.Post
		p, err = db.FindPostByID(ctx, owner.ID)
		found = p != nil
	case entities.OwnerArea:
		var a *entities.Area
		a, err = db.FindAreaByID(ctx, owner.ID)
		found = a != nil
	case entities.OwnerMembership:
		var m *entities.Membership
		m, err = db.FindMembershipByID(ctx, owner.ID)
		found = m != nil
	}
	if err != nil {
		return fmt.Errorf("finding %s: %w", owner, err)
	}
	if !found {
		return fmt.Errorf("%s %s: %w", owner.Kind, owner.ID, entities.ErrNotFound)
	}
	return nil
}

func ensureOrganization(ctx context.Context, db ports.RelationalDB, id string) error {
	return ensureOwner(ctx, db, entities.OwnerRef{Kind: entities.OwnerOrganization, ID: id})
}
