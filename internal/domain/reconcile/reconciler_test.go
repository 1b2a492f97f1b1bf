package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

type storedFact struct {
	scope string
	fact  Fact[string, meta]
}

// memStore keeps the facts of a single owner in memory.
type memStore struct {
	facts   []storedFact
	nextID  int
	created int
	updated []WriteKind
	err     error
}

func (m *memStore) Bucket(_ context.Context, scope string) ([]Fact[string, meta], error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Fact[string, meta]
	for _, f := range m.facts {
		if f.scope == scope {
			out = append(out, f.fact)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Interval.End, out[j].Interval.End
		if a.IsNull() != b.IsNull() {
			return a.IsNull()
		}
		return a.String() > b.String()
	})
	return out, nil
}

func (m *memStore) FindExact(_ context.Context, scope, value string) (*Fact[string, meta], error) {
	for _, f := range m.facts {
		if f.scope == scope && f.fact.Value == value {
			found := f.fact
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, scope string, fact Fact[string, meta]) (Fact[string, meta], error) {
	m.nextID++
	fact.ID = fmt.Sprintf("f%d", m.nextID)
	m.facts = append(m.facts, storedFact{scope: scope, fact: fact})
	m.created++
	return fact, nil
}

func (m *memStore) Update(_ context.Context, fact Fact[string, meta], kind WriteKind) error {
	for i := range m.facts {
		if m.facts[i].fact.ID == fact.ID {
			m.facts[i].fact = fact
			m.updated = append(m.updated, kind)
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memStore) Overwrite(_ context.Context, entry Entry[string, string, meta]) error {
	for i := range m.facts {
		if m.facts[i].fact.ID == entry.Fact.ID {
			m.facts[i] = storedFact{scope: entry.Scope, fact: entry.Fact}
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memStore) IDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.facts))
	for _, f := range m.facts {
		ids = append(ids, f.fact.ID)
	}
	return ids, nil
}

func (m *memStore) Delete(_ context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.facts[:0]
	for _, f := range m.facts {
		if !drop[f.fact.ID] {
			kept = append(kept, f)
		}
	}
	m.facts = kept
	return nil
}

func (m *memStore) intervals(scope string) []string {
	bucket, _ := m.Bucket(context.Background(), scope)
	out := make([]string, 0, len(bucket))
	for _, f := range bucket {
		out = append(out, f.Value+" "+f.Interval.String())
	}
	return out
}

func TestReconciler_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("disjoint values both persist", func(t *testing.T) {
		store := &memStore{}
		r := New[string, string, meta](store, identifierRules)

		_, err := r.Add(ctx, "X", fact("", "A1", "2000", "2006"), DefaultPolicy())
		require.NoError(t, err)
		_, err = r.Add(ctx, "X", fact("", "A2", "2006-06", "2010"), DefaultPolicy())
		require.NoError(t, err)

		assert.Len(t, store.facts, 2)
	})

	t.Run("crossing different value rejected", func(t *testing.T) {
		store := &memStore{}
		r := New[string, string, meta](store, identifierRules)

		_, err := r.Add(ctx, "X", fact("", "A1", "2000", "2010"), DefaultPolicy())
		require.NoError(t, err)
		out, err := r.Add(ctx, "X", fact("", "A2", "2005", "2008"), DefaultPolicy())

		assert.ErrorIs(t, err, ErrOverlappingInterval)
		assert.Equal(t, Rejected, out.Kind)
		assert.Len(t, store.facts, 1)
	})

	t.Run("touching same value extends", func(t *testing.T) {
		store := &memStore{}
		r := New[string, string, meta](store, identifierRules)

		_, err := r.Add(ctx, "X", fact("", "A1", "2000", "2005"), DefaultPolicy())
		require.NoError(t, err)
		out, err := r.Add(ctx, "X", fact("", "A1", "2005", "2010"), DefaultPolicy())
		require.NoError(t, err)

		assert.Equal(t, Updated, out.Kind)
		assert.Equal(t, []string{"A1 2000 => 2010"}, store.intervals("X"))
	})

	t.Run("chained extensions collapse", func(t *testing.T) {
		store := &memStore{}
		r := New[string, string, meta](store, identifierRules)
		day0 := partialdate.MustParse("2000-01-01")
		span := func(from, to int) partialdate.Interval {
			s, err := day0.AddDays(from)
			require.NoError(t, err)
			e, err := day0.AddDays(to)
			require.NoError(t, err)
			return partialdate.Interval{Start: s, End: e}
		}

		for _, iv := range []partialdate.Interval{span(0, 50), span(40, 120), span(100, 200)} {
			_, err := r.Add(ctx, "X", Fact[string, meta]{Value: "A1", Interval: iv}, DefaultPolicy())
			require.NoError(t, err)
		}

		require.Len(t, store.facts, 1)
		assert.True(t, span(0, 200).Equal(store.facts[0].fact.Interval))
	})
}

func TestReconciler_UnboundedCandidate(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	r := New[string, string, meta](store, identifierRules)

	_, err := r.Add(ctx, "X", fact("", "A1", "2000", "2010"), DefaultPolicy())
	require.NoError(t, err)

	out, err := r.Add(ctx, "X", fact("", "A2", "", ""), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, Created, out.Kind)

	again, err := r.Add(ctx, "X", fact("", "A2", "", ""), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, NoOp, again.Kind)
	assert.Equal(t, out.Fact.ID, again.Fact.ID)
	assert.Len(t, store.facts, 2)
}

func TestReconciler_AllowOverlap(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	r := New[string, string, meta](store, identifierRules)

	_, err := r.Add(ctx, "X", fact("", "A1", "2000", "2010"), DefaultPolicy())
	require.NoError(t, err)
	_, err = r.Add(ctx, "X", fact("", "A2", "2005", "2008"), Policy{AllowOverlap: true})
	require.NoError(t, err)

	assert.Len(t, store.facts, 2)
}

func TestReconciler_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	r := New[string, string, meta](store, identifierRules)

	_, err := r.Add(ctx, "X", fact("", "A1", "2000", "2010"), DefaultPolicy())
	require.NoError(t, err)
	_, err = r.Add(ctx, "Y", fact("", "B1", "2000", "2010"), DefaultPolicy())
	require.NoError(t, err)

	assert.Len(t, store.facts, 2)
}

func TestReconciler_InvalidOrder(t *testing.T) {
	r := New[string, string, meta](&memStore{}, identifierRules)

	_, err := r.Add(context.Background(), "X", fact("", "A1", "2010", "2000"), DefaultPolicy())

	assert.ErrorIs(t, err, partialdate.ErrOrder)
}

func TestReconciler_StoreError(t *testing.T) {
	r := New[string, string, meta](&memStore{err: errors.New("boom")}, identifierRules)

	_, err := r.Add(context.Background(), "X", fact("", "A1", "2000", "2001"), DefaultPolicy())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading bucket")
}

func TestReconciler_Replace(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	r := New[string, string, meta](store, identifierRules)

	first, err := r.Add(ctx, "X", fact("", "A1", "2000", "2005"), DefaultPolicy())
	require.NoError(t, err)
	_, err = r.Add(ctx, "Y", fact("", "B1", "2000", "2005"), DefaultPolicy())
	require.NoError(t, err)

	kept := fact(first.Fact.ID, "A1-fixed", "1999", "2005")
	result, err := r.Replace(ctx, []Entry[string, string, meta]{
		{Scope: "X", Fact: kept},
		{Scope: "X", Fact: fact("", "A1-fixed", "2005", "2008")},
		{Scope: "Z", Fact: fact("", "C1", "", "")},
		{Scope: "X", Fact: fact("unknown", "ignored", "", "")},
	}, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, ReplaceResult{Deleted: 1, Overwritten: 1, Added: 1}, result)
	assert.Equal(t, []string{"A1-fixed 1999 => 2008"}, store.intervals("X"))
	assert.Empty(t, store.intervals("Y"))
	assert.Len(t, store.intervals("Z"), 1)
}

func TestBatch_CollectsFailures(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	r := New[string, string, meta](store, identifierRules)

	candidates := []Fact[string, meta]{
		fact("", "A1", "2000", "2010"),
		fact("", "A2", "2005", "2008"),
		fact("", "A3", "2011", "2012"),
		fact("", "A4", "2009", "2011-06"),
	}

	err := Batch(candidates, func(c Fact[string, meta]) error {
		_, err := r.Add(ctx, "X", c, DefaultPolicy())
		return err
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverlappingInterval)
	failures := Failures(err)
	require.Len(t, failures, 2)
	assert.Contains(t, failures[0].Error(), "item 2")
	assert.Contains(t, failures[1].Error(), "item 4")
	assert.Len(t, store.facts, 2)
}

func TestBatch_OrderMatters(t *testing.T) {
	ctx := context.Background()
	add := func(order []Fact[string, meta]) (int, error) {
		store := &memStore{}
		r := New[string, string, meta](store, identifierRules)
		err := Batch(order, func(c Fact[string, meta]) error {
			_, err := r.Add(ctx, "X", c, Policy{})
			return err
		})
		return len(store.facts), err
	}

	a := fact("", "A1", "2000", "2003")
	b := fact("", "A1", "2006", "2009")
	c := fact("", "A1", "2002", "2007")

	n, err := add([]Fact[string, meta]{a, b, c})
	assert.Error(t, err)
	assert.Equal(t, 2, n)

	n, err = add([]Fact[string, meta]{c, a, b})
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}
