package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
)

var otherNameRules = reconcile.Rules[string]{Kind: otherNameKind}

// OtherNameService manages alternate and former names, bucketed by type.
// Merging and same-value-only scans do not apply to names.
type OtherNameService struct {
	relationalDB ports.RelationalDB
	logger       logrus.FieldLogger
}

// NewOtherNameService creates a new OtherNameService.
func NewOtherNameService(relationalDB ports.RelationalDB, logger logrus.FieldLogger) *OtherNameService {
	return &OtherNameService{
		relationalDB: relationalDB,
		logger:       orDiscard(logger),
	}
}

func otherNamePolicy(p reconcile.Policy) reconcile.Policy {
	p.Merge = false
	p.SameValuesOnly = false
	p.AllowOverlap = false
	return p
}

// Add reconciles one name into its owner's type bucket.
func (s *OtherNameService) Add(ctx context.Context, in entities.OtherName, policy reconcile.Policy) (Result[entities.OtherName], error) {
	var res Result[entities.OtherName]
	if err := in.Validate(); err != nil {
		return res, err
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := ensureOwner(ctx, tx, in.Owner); err != nil {
			return err
		}
		store := newOtherNameStore(tx, in.Owner)
		r := reconcile.New[string, string, otherNameMeta](store, otherNameRules, reconcile.WithLogger(s.logger))
		out, err := r.Add(ctx, in.Type, otherNameFact(in), otherNamePolicy(policy))
		if err != nil {
			return err
		}
		res = Result[entities.OtherName]{Item: store.seen[out.Fact.ID], Outcome: out.Kind.String()}
		return nil
	})
	return res, err
}

// AddMany adds each name to owner and joins the failures.
func (s *OtherNameService) AddMany(ctx context.Context, owner entities.OwnerRef, items []entities.OtherName, policy reconcile.Policy) ([]Result[entities.OtherName], error) {
	var results []Result[entities.OtherName]
	err := reconcile.Batch(items, func(in entities.OtherName) error {
		in.Owner = owner
		res, err := s.Add(ctx, in, policy)
		if err != nil {
			return fmt.Errorf("%q: %w", in.Name, err)
		}
		results = append(results, res)
		return nil
	})
	return results, err
}

// Update makes owner's other names match items in one transaction.
func (s *OtherNameService) Update(ctx context.Context, owner entities.OwnerRef, items []entities.OtherName, policy reconcile.Policy) (reconcile.ReplaceResult, error) {
	var result reconcile.ReplaceResult

	entries := make([]reconcile.Entry[string, string, otherNameMeta], len(items))
	for i, in := range items {
		in.Owner = owner
		if err := in.Validate(); err != nil {
			return result, fmt.Errorf("item %d: %w", i+1, err)
		}
		entries[i] = reconcile.Entry[string, string, otherNameMeta]{Scope: in.Type, Fact: otherNameFact(in)}
	}

	err := s.relationalDB.WithinTx(ctx, func(tx ports.RelationalDB) error {
		if err := ensureOwner(ctx, tx, owner); err != nil {
			return err
		}
		r := reconcile.New[string, string, otherNameMeta](newOtherNameStore(tx, owner), otherNameRules, reconcile.WithLogger(s.logger))
		var err error
		result, err = r.Replace(ctx, entries, otherNamePolicy(policy))
		return err
	})
	return result, err
}

// List returns owner's other names.
func (s *OtherNameService) List(ctx context.Context, owner entities.OwnerRef) ([]entities.OtherName, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	names, err := s.relationalDB.ListOtherNames(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing other names: %w", err)
	}
	return names, nil
}

func otherNameFact(in entities.OtherName) reconcile.Fact[string, otherNameMeta] {
	return reconcile.Fact[string, otherNameMeta]{
		ID:       in.ID,
		Value:    in.Name,
		Interval: in.Interval(),
		Meta:     otherNameMeta{Note: in.Note, Source: in.Source},
	}
}
