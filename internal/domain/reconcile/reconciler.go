package reconcile

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Store is the bucket access a fact collection exposes for a single owner.
type Store[S comparable, V comparable, M any] interface {
	// Bucket returns the facts in scope, end date descending, unbounded ends first.
	Bucket(ctx context.Context, scope S) ([]Fact[V, M], error)
	// FindExact returns the fact in scope with the given value, or nil.
	FindExact(ctx context.Context, scope S, value V) (*Fact[V, M], error)
	// Create persists a new fact and returns it with its ID set.
	Create(ctx context.Context, scope S, fact Fact[V, M]) (Fact[V, M], error)
	// Update persists a changed fact.
	Update(ctx context.Context, fact Fact[V, M], kind WriteKind) error
	// Overwrite stores every field of a tagged entry verbatim.
	Overwrite(ctx context.Context, entry Entry[S, V, M]) error
	// IDs lists every fact the owner holds, across scopes.
	IDs(ctx context.Context) ([]string, error)
	// Delete removes facts by ID.
	Delete(ctx context.Context, ids []string) error
}

// Reconciler applies Resolve decisions to a Store.
// It is not safe for concurrent use on the same bucket; callers run it inside
// one transaction per operation.
type Reconciler[S comparable, V comparable, M any] struct {
	store  Store[S, V, M]
	rules  Rules[V]
	logger logrus.FieldLogger
}

// Option configures a Reconciler.
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
}

// WithLogger sets the logger decisions are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns a Reconciler over store.
func New[S comparable, V comparable, M any](store Store[S, V, M], rules Rules[V], opts ...Option) *Reconciler[S, V, M] {
	o := options{logger: discardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reconciler[S, V, M]{store: store, rules: rules, logger: o.logger}
}

// Add reconciles one candidate into its bucket.
func (r *Reconciler[S, V, M]) Add(ctx context.Context, scope S, cand Fact[V, M], policy Policy) (Outcome[V, M], error) {
	if err := cand.Interval.Validate(); err != nil {
		return Outcome[V, M]{Kind: Rejected, Fact: cand}, err
	}

	log := r.logger.WithFields(logrus.Fields{
		"kind":     r.rules.kind(),
		"scope":    scope,
		"value":    cand.Value,
		"interval": cand.Interval.String(),
	})

	// unbounded facts live beside dated ones, keyed by scope and value only
	if cand.Interval.IsUnbounded() {
		return r.getOrCreate(ctx, log, scope, cand)
	}

	if policy.AllowOverlap {
		return r.create(ctx, log, scope, cand)
	}

	existing, err := r.store.Bucket(ctx, scope)
	if err != nil {
		return Outcome[V, M]{}, fmt.Errorf("loading bucket: %w", err)
	}

	out, err := Resolve(cand, existing, policy, r.rules)
	if err != nil {
		log.WithField("outcome", out.Kind.String()).Debug("candidate rejected")
		return out, err
	}

	for _, w := range out.Writes {
		if err := r.store.Update(ctx, w.Fact, w.Kind); err != nil {
			return Outcome[V, M]{}, fmt.Errorf("applying %s: %w", w.Kind, err)
		}
		log.WithFields(logrus.Fields{"fact_id": w.Fact.ID, "write": w.Kind.String()}).Debug("fact updated")
	}

	if out.Kind == Created {
		return r.create(ctx, log, scope, cand)
	}

	log.WithField("outcome", out.Kind.String()).Debug("candidate resolved")
	return out, nil
}

// Replace makes the owner's facts match entries: facts whose ID is absent are
// deleted, tagged entries are stored verbatim, untagged ones go through Add.
func (r *Reconciler[S, V, M]) Replace(ctx context.Context, entries []Entry[S, V, M], policy Policy) (ReplaceResult, error) {
	var result ReplaceResult

	existing, err := r.store.IDs(ctx)
	if err != nil {
		return result, fmt.Errorf("listing facts: %w", err)
	}

	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Fact.ID != "" {
			keep[e.Fact.ID] = struct{}{}
		}
	}

	present := make(map[string]struct{}, len(existing))
	var stale []string
	for _, id := range existing {
		present[id] = struct{}{}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		if err := r.store.Delete(ctx, stale); err != nil {
			return result, fmt.Errorf("deleting facts: %w", err)
		}
		result.Deleted = len(stale)
	}

	for _, e := range entries {
		if e.Fact.ID == "" {
			continue
		}
		if _, ok := present[e.Fact.ID]; !ok {
			r.logger.WithField("fact_id", e.Fact.ID).Debug("skipping unknown tagged fact")
			continue
		}
		if err := r.store.Overwrite(ctx, e); err != nil {
			return result, fmt.Errorf("overwriting fact %s: %w", e.Fact.ID, err)
		}
		result.Overwritten++
	}

	for _, e := range entries {
		if e.Fact.ID != "" {
			continue
		}
		out, err := r.Add(ctx, e.Scope, e.Fact, policy)
		if err != nil {
			return result, err
		}
		if out.Kind == Created {
			result.Added++
		}
	}

	return result, nil
}

// ReplaceResult counts the effects of Replace.
type ReplaceResult struct {
	Deleted     int `json:"deleted"`
	Overwritten int `json:"overwritten"`
	Added       int `json:"added"`
}

func (r *Reconciler[S, V, M]) getOrCreate(ctx context.Context, log logrus.FieldLogger, scope S, cand Fact[V, M]) (Outcome[V, M], error) {
	found, err := r.store.FindExact(ctx, scope, cand.Value)
	if err != nil {
		return Outcome[V, M]{}, fmt.Errorf("finding fact: %w", err)
	}
	if found != nil {
		log.WithField("fact_id", found.ID).Debug("unbounded fact already present")
		return Outcome[V, M]{Kind: NoOp, Fact: *found}, nil
	}
	return r.create(ctx, log, scope, cand)
}

func (r *Reconciler[S, V, M]) create(ctx context.Context, log logrus.FieldLogger, scope S, cand Fact[V, M]) (Outcome[V, M], error) {
	created, err := r.store.Create(ctx, scope, cand)
	if err != nil {
		return Outcome[V, M]{}, fmt.Errorf("creating fact: %w", err)
	}
	log.WithField("fact_id", created.ID).Debug("fact created")
	return Outcome[V, M]{Kind: Created, Fact: created}, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
