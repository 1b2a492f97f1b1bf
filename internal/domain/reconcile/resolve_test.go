package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

type meta struct {
	Source string
}

func fact(id, value, start, end string) Fact[string, meta] {
	return Fact[string, meta]{ID: id, Value: value, Interval: partialdate.MustInterval(start, end)}
}

var identifierRules = Rules[string]{Kind: "Identifier"}

func TestResolve_EmptyBucketCreates(t *testing.T) {
	out, err := Resolve(fact("", "A1", "2000", "2006"), nil, DefaultPolicy(), identifierRules)
	require.NoError(t, err)
	assert.Equal(t, Created, out.Kind)
	assert.Empty(t, out.Writes)
}

func TestResolve_DisjointDifferentValues(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2006")}

	out, err := Resolve(fact("", "A2", "2006-06", "2010"), existing, DefaultPolicy(), identifierRules)

	require.NoError(t, err)
	assert.Equal(t, Created, out.Kind)
}

func TestResolve_CrossingDifferentValueRejected(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2010")}

	out, err := Resolve(fact("", "A2", "2005", "2008"), existing, DefaultPolicy(), identifierRules)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverlappingInterval)
	assert.Equal(t, Rejected, out.Kind)
	require.NotNil(t, out.Conflict)
	assert.Equal(t, "1", out.Conflict.ID)

	var oe *OverlappingIntervalError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "1", oe.ConflictID)
	assert.Contains(t, oe.Error(), "2005 => 2008")
	assert.Contains(t, oe.Error(), "2000 => 2010")
	assert.Contains(t, oe.Error(), "Identifier could not be created")
}

func TestResolve_TouchingDifferentValueCoexists(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2005")}

	out, err := Resolve(fact("", "A2", "2005", "2010"), existing, DefaultPolicy(), identifierRules)

	require.NoError(t, err)
	assert.Equal(t, Created, out.Kind)
}

func TestResolve_Overwrite(t *testing.T) {
	existing := []Fact[string, meta]{
		fact("1", "A1", "2000", "2010"),
		fact("2", "A0", "1990", "1999"),
	}
	cand := fact("", "A2", "2005", "2008")
	cand.Meta = meta{Source: "http://example.org"}

	out, err := Resolve(cand, existing, Policy{Overwrite: true}, identifierRules)

	require.NoError(t, err)
	assert.Equal(t, Updated, out.Kind)
	require.Len(t, out.Writes, 1)
	w := out.Writes[0]
	assert.Equal(t, WriteOverwrite, w.Kind)
	assert.Equal(t, "1", w.Fact.ID)
	assert.Equal(t, "A2", w.Fact.Value)
	assert.Equal(t, "2005 => 2008", w.Fact.Interval.String())
	assert.Equal(t, "http://example.org", w.Fact.Meta.Source)
}

func TestResolve_SameValuesOnlyIgnoresOtherValues(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2010")}
	policy := Policy{Extend: true, SameValuesOnly: true}

	out, err := Resolve(fact("", "A2", "2005", "2008"), existing, policy, identifierRules)

	require.NoError(t, err)
	assert.Equal(t, Created, out.Kind)
}

func TestResolve_ExtendTouchingSameValue(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2005")}

	out, err := Resolve(fact("", "A1", "2005", "2010"), existing, DefaultPolicy(), identifierRules)

	require.NoError(t, err)
	assert.Equal(t, Updated, out.Kind)
	require.Len(t, out.Writes, 1)
	assert.Equal(t, WriteExtend, out.Writes[0].Kind)
	assert.Equal(t, "2000 => 2010", out.Writes[0].Fact.Interval.String())
}

func TestResolve_ExtendPropagatesUnbounded(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2005")}

	out, err := Resolve(fact("", "A1", "", "2003"), existing, DefaultPolicy(), identifierRules)

	require.NoError(t, err)
	require.Len(t, out.Writes, 1)
	assert.Equal(t, "forever => 2005", out.Writes[0].Fact.Interval.String())
}

func TestResolve_EqualIntervalsNoOp(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2005")}

	out, err := Resolve(fact("", "A1", "2000", "2005"), existing, DefaultPolicy(), identifierRules)

	require.NoError(t, err)
	assert.Equal(t, NoOp, out.Kind)
	assert.Equal(t, "1", out.Fact.ID)
	assert.Empty(t, out.Writes)
}

func TestResolve_EqualIntervalsKeepScanning(t *testing.T) {
	existing := []Fact[string, meta]{
		fact("1", "A1", "2000", "2005"),
		fact("2", "B1", "2001", "2003"),
	}

	_, err := Resolve(fact("", "A1", "2000", "2005"), existing, DefaultPolicy(), identifierRules)

	assert.ErrorIs(t, err, ErrOverlappingInterval)
}

func TestResolve_MergeContinues(t *testing.T) {
	existing := []Fact[string, meta]{
		fact("1", "A1", "2008", ""),
		fact("2", "A1", "2000", "2004"),
	}
	policy := Policy{Merge: true}

	out, err := Resolve(fact("", "A1", "2003", "2009"), existing, policy, identifierRules)

	require.NoError(t, err)
	assert.Equal(t, Updated, out.Kind)
	require.Len(t, out.Writes, 2)
	assert.Equal(t, WriteMerge, out.Writes[0].Kind)
	assert.Equal(t, "1", out.Writes[0].Fact.ID)
	assert.Equal(t, "2003 => 2009", out.Writes[0].Fact.Interval.String())
	assert.Equal(t, "2000 => 2009", out.Writes[1].Fact.Interval.String())
}

func TestResolve_SameValueWithoutPolicyRejected(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "2000", "2005")}

	_, err := Resolve(fact("", "A1", "2004", "2010"), existing, Policy{}, identifierRules)

	var oe *OverlappingIntervalError
	require.ErrorAs(t, err, &oe)
	assert.True(t, oe.SameValue)
	assert.Contains(t, oe.Error(), "with same value")
}

func TestResolve_DegenerateDuplicateIsSilent(t *testing.T) {
	existing := []Fact[string, meta]{fact("1", "A1", "", "")}

	out, err := Resolve(fact("", "A2", "", ""), existing, DefaultPolicy(), identifierRules)

	require.NoError(t, err)
	assert.Equal(t, NoOp, out.Kind)
	assert.Equal(t, "1", out.Fact.ID)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	existing := []Fact[string, meta]{
		fact("1", "A1", "2005", "2010"),
		fact("2", "A1", "2000", "2006"),
	}

	out, err := Resolve(fact("", "A1", "2004", "2007"), existing, DefaultPolicy(), identifierRules)

	require.NoError(t, err)
	require.Len(t, out.Writes, 1)
	assert.Equal(t, "1", out.Writes[0].Fact.ID)
	assert.Equal(t, "2004 => 2010", out.Writes[0].Fact.Interval.String())
}

func TestResolve_CustomValuePredicate(t *testing.T) {
	rules := Rules[string]{Kind: "Name", SameValue: func(a, b string) bool {
		return len(a) == len(b)
	}}
	existing := []Fact[string, meta]{fact("1", "abc", "2000", "2005")}

	out, err := Resolve(fact("", "xyz", "2003", "2009"), existing, DefaultPolicy(), rules)

	require.NoError(t, err)
	assert.Equal(t, Updated, out.Kind)
	assert.Equal(t, "abc", out.Fact.Value)
}
