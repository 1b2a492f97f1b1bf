package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
)

var ownershipRules = reconcile.Rules[string]{Kind: ownershipKind}

// OwnershipService manages shares that persons and organizations hold in
// organizations. The percentage is part of the bucket key.
type OwnershipService struct {
	relationalDB ports.RelationalDB
	logger       logrus.FieldLogger
}

// NewOwnershipService creates a new OwnershipService.
func NewOwnershipService(relationalDB ports.RelationalDB, logger logrus.FieldLogger) *OwnershipService {
	return &OwnershipService{
		relationalDB: relationalDB,
		logger:       orDiscard(logger),
	}
}

func ownershipPolicy(p reconcile.Policy) reconcile.Policy {
	p.Merge = false
	p.SameValuesOnly = false
	return p
}

// Add reconciles an ownership into its owner's bucket.
func (s *OwnershipService) Add(ctx context.Context, o entities.Ownership, policy reconcile.Policy) (Result[entities.Ownership], error) {
	var res Result[entities.Ownership]
	if err := o.Validate(); err != nil {
		return res, err
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := ensureOwner(ctx, tx, o.Owner()); err != nil {
			return err
		}
		if err := ensureOrganization(ctx, tx, o.OwnedOrganizationID); err != nil {
			return err
		}

		store := newOwnershipStore(tx, o.Owner())
		r := reconcile.New[entities.OwnershipScope, string, struct{}](store, ownershipRules, reconcile.WithLogger(s.logger))
		out, err := r.Add(ctx, o.Scope(), ownershipFact(o), ownershipPolicy(policy))
		if err != nil {
			return err
		}
		res = Result[entities.Ownership]{Item: store.seen[out.Fact.ID], Outcome: out.Kind.String()}
		return nil
	})
	return res, err
}

// AddMany adds each ownership held by owner and joins the failures.
func (s *OwnershipService) AddMany(ctx context.Context, owner entities.OwnerRef, items []entities.Ownership, policy reconcile.Policy) ([]Result[entities.Ownership], error) {
	var results []Result[entities.Ownership]
	err := reconcile.Batch(items, func(o entities.Ownership) error {
		if err := o.SetOwner(owner); err != nil {
			return err
		}
		res, err := s.Add(ctx, o, policy)
		if err != nil {
			return fmt.Errorf("ownership of %s: %w", o.OwnedOrganizationID, err)
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

// Update makes owner's ownerships match items in one transaction.
func (s *OwnershipService) Update(ctx context.Context, owner entities.OwnerRef, items []entities.Ownership, policy reconcile.Policy) (reconcile.ReplaceResult, error) {
	var result reconcile.ReplaceResult

	entries := make([]reconcile.Entry[entities.OwnershipScope, string, struct{}], len(items))
	for i, o := range items {
		if err := o.SetOwner(owner); err != nil {
			return result, err
		}
		if err := o.Validate(); err != nil {
			return result, fmt.Errorf("item %d: %w", i+1, err)
		}
		entries[i] = reconcile.Entry[entities.OwnershipScope, string, struct{}]{Scope: o.Scope(), Fact: ownershipFact(o)}
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := ensureOwner(ctx, tx, owner); err != nil {
			return err
		}
		r := reconcile.New[entities.OwnershipScope, string, struct{}](newOwnershipStore(tx, owner), ownershipRules, reconcile.WithLogger(s.logger))
		var err error
		result, err = r.Replace(ctx, entries, ownershipPolicy(policy))
		return err
	})
	return result, err
}

// ListByOwner returns every ownership held by owner.
func (s *OwnershipService) ListByOwner(ctx context.Context, owner entities.OwnerRef) ([]entities.Ownership, error) {
	list, err := s.relationalDB.ListOwnershipsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing ownerships: %w", err)
	}
	return list, nil
}

// ListByOrganization returns every ownership of an organization.
func (s *OwnershipService) ListByOrganization(ctx context.Context, organizationID string) ([]entities.Ownership, error) {
	list, err := s.relationalDB.ListOwnershipsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listing ownerships: %w", err)
	}
	return list, nil
}

func ownershipFact(o entities.Ownership) reconcile.Fact[string, struct{}] {
	return reconcile.Fact[string, struct{}]{ID: o.ID, Interval: o.Interval()}
}
