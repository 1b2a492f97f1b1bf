package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
)

var identifierRules = reconcile.Rules[string]{Kind: identifierKind}

// IdentifierService manages the dated identifiers of any owner.
// Identifiers are bucketed by scheme; every reconcile policy applies.
type IdentifierService struct {
	relationalDB ports.RelationalDB
	logger       logrus.FieldLogger
}

// NewIdentifierService creates a new IdentifierService.
func NewIdentifierService(relationalDB ports.RelationalDB, logger logrus.FieldLogger) *IdentifierService {
	return &IdentifierService{
		relationalDB: relationalDB,
		logger:       orDiscard(logger),
	}
}

// Add reconciles one identifier into its owner's scheme bucket.
func (s *IdentifierService) Add(ctx context.Context, in entities.Identifier, policy reconcile.Policy) (Result[entities.Identifier], error) {
	var res Result[entities.Identifier]
	if err := in.Validate(); err != nil {
		return res, err
	}
	policy.AllowOverlap = false

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := ensureOwner(ctx, tx, in.Owner); err != nil {
			return err
		}
		var err error
		res, err = s.add(ctx, newIdentifierStore(tx, in.Owner), in, policy)
		return err
	})
	return res, err
}

func (s *IdentifierService) add(ctx context.Context, store *identifierStore, in entities.Identifier, policy reconcile.Policy) (Result[entities.Identifier], error) {
	r := reconcile.New[string, string, identifierMeta](store, identifierRules, reconcile.WithLogger(s.logger))
	out, err := r.Add(ctx, in.Scheme, identifierFact(in), policy)
	if err != nil {
		return Result[entities.Identifier]{}, err
	}
	return Result[entities.Identifier]{Item: store.seen[out.Fact.ID], Outcome: out.Kind.String()}, nil
}

// AddMany adds each identifier to owner in its own transaction and joins the
// failures; identifiers added before a failure are kept.
func (s *IdentifierService) AddMany(ctx context.Context, owner entities.OwnerRef, items []entities.Identifier, policy reconcile.Policy) ([]Result[entities.Identifier], error) {
	var results []Result[entities.Identifier]
	err := reconcile.Batch(items, func(in entities.Identifier) error {
		in.Owner = owner
		res, err := s.Add(ctx, in, policy)
		if err != nil {
			return fmt.Errorf("%s %s: %w", in.Scheme, in.Identifier, err)
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

// Update makes owner's identifiers match items in one transaction. Identifiers
// missing from items are deleted, items carrying an ID overwrite the stored
// row, the rest are added with policy.
func (s *IdentifierService) Update(ctx context.Context, owner entities.OwnerRef, items []entities.Identifier, policy reconcile.Policy) (reconcile.ReplaceResult, error) {
	var result reconcile.ReplaceResult
	policy.AllowOverlap = false

	entries := make([]reconcile.Entry[string, string, identifierMeta], len(items))
	for i, in := range items {
		in.Owner = owner
		if err := in.Validate(); err != nil {
			return result, fmt.Errorf("item %d: %w", i+1, err)
		}
		entries[i] = reconcile.Entry[string, string, identifierMeta]{Scope: in.Scheme, Fact: identifierFact(in)}
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := ensureOwner(ctx, tx, owner); err != nil {
			return err
		}
		r := reconcile.New[string, string, identifierMeta](newIdentifierStore(tx, owner), identifierRules, reconcile.WithLogger(s.logger))
		var err error
		result, err = r.Replace(ctx, entries, policy)
		return err
	})
	return result, err
}

// List returns owner's identifiers grouped by scheme, open-ended first.
func (s *IdentifierService) List(ctx context.Context, owner entities.OwnerRef) ([]entities.Identifier, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	ids, err := s.relationalDB.ListIdentifiers(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing identifiers: %w", err)
	}
	return ids, nil
}

// FindOwners returns the owners of kind holding scheme/value.
func (s *IdentifierService) FindOwners(ctx context.Context, kind entities.OwnerKind, scheme, value string) ([]entities.OwnerRef, error) {
	owners, err := s.relationalDB.FindOwnersByIdentifier(ctx, kind, scheme, value)
	if err != nil {
		return nil, fmt.Errorf("finding owners: %w", err)
	}
	return owners, nil
}

func identifierFact(in entities.Identifier) reconcile.Fact[string, identifierMeta] {
	return reconcile.Fact[string, identifierMeta]{
		ID:       in.ID,
		Value:    in.Identifier,
		Interval: in.Interval(),
		Meta:     identifierMeta{Source: in.Source},
	}
}
