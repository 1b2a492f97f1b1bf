package reconcile

import (
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// Resolve decides the outcome for cand against existing, which must be ordered
// by end date descending with unbounded ends first. The first decisive fact
// wins: a later fact is never consulted once an extend or overwrite happened.
//
// Resolve does not touch storage; the returned Outcome lists what to persist.
// On rejection the error is an *OverlappingIntervalError.
func Resolve[V comparable, M any](cand Fact[V, M], existing []Fact[V, M], policy Policy, rules Rules[V]) (Outcome[V, M], error) {
	out := Outcome[V, M]{Kind: Created, Fact: cand}
	decisive := false

	for _, ex := range existing {
		overlap := partialdate.OverlapDays(cand.Interval, ex.Interval)
		if overlap < 0 {
			continue
		}

		if !rules.sameValue(ex.Value, cand.Value) {
			// touching facts with different values coexist
			if overlap == 0 || policy.SameValuesOnly {
				continue
			}
			if policy.Overwrite {
				updated := ex
				updated.Value = cand.Value
				updated.Interval = cand.Interval
				updated.Meta = cand.Meta
				out.record(WriteOverwrite, updated)
				return out, nil
			}
			if isDegenerate(cand, ex) {
				return Outcome[V, M]{Kind: NoOp, Fact: ex}, nil
			}
			return reject(cand, ex, rules, false)
		}

		if ex.Interval.Equal(cand.Interval) {
			decisive = true
			if out.Kind == Created {
				out.Kind = NoOp
				out.Fact = ex
			}
			continue
		}

		switch {
		case policy.Extend:
			updated := ex
			updated.Interval = extend(ex.Interval, cand.Interval)
			out.record(WriteExtend, updated)
			return out, nil
		case policy.Merge:
			updated := ex
			updated.Interval = merge(ex.Interval, cand.Interval)
			out.record(WriteMerge, updated)
			decisive = true
		default:
			if isDegenerate(cand, ex) {
				return Outcome[V, M]{Kind: NoOp, Fact: ex}, nil
			}
			return reject(cand, ex, rules, true)
		}
	}

	if decisive {
		return out, nil
	}
	return Outcome[V, M]{Kind: Created, Fact: cand}, nil
}

// isDegenerate matches an unbounded candidate against an unbounded fact.
func isDegenerate[V comparable, M any](cand, ex Fact[V, M]) bool {
	return cand.Interval.IsUnbounded() && ex.Interval.Equal(cand.Interval)
}

func reject[V comparable, M any](cand, ex Fact[V, M], rules Rules[V], sameValue bool) (Outcome[V, M], error) {
	conflict := ex
	return Outcome[V, M]{Kind: Rejected, Fact: cand, Conflict: &conflict}, &OverlappingIntervalError{
		Kind:          rules.kind(),
		ConflictID:    ex.ID,
		ConflictValue: ex.Value,
		Candidate:     cand.Interval,
		Existing:      ex.Interval,
		SameValue:     sameValue,
	}
}

// extend returns the union of a and b; an unbounded side on either wins.
func extend(a, b partialdate.Interval) partialdate.Interval {
	var out partialdate.Interval
	if !a.Start.IsNull() && !b.Start.IsNull() {
		out.Start, _ = partialdate.Min(a.Start, b.Start)
	}
	if !a.End.IsNull() && !b.End.IsNull() {
		out.End, _ = partialdate.Max(a.End, b.End)
	}
	return out
}

// merge returns the span of the bounded sides, unbounded only when both are.
func merge(a, b partialdate.Interval) partialdate.Interval {
	return partialdate.Interval{
		Start: pick(a.Start, b.Start, partialdate.Min),
		End:   pick(a.End, b.End, partialdate.Max),
	}
}

func pick(a, b partialdate.Date, choose func(a, b partialdate.Date) (partialdate.Date, error)) partialdate.Date {
	switch {
	case a.IsNull():
		return b
	case b.IsNull():
		return a
	default:
		d, _ := choose(a, b)
		return d
	}
}
