// Package reconcile decides how a dated fact joins the facts already attached
// to an owner: created alongside them, folded into one of them, or rejected.
package reconcile

import (
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// Fact is one dated fact inside a bucket. V is compared for equality, M is
// carried through untouched except on overwrite.
type Fact[V comparable, M any] struct {
	ID       string
	Value    V
	Interval partialdate.Interval
	Meta     M
}

// Entry pairs a fact with the scope it belongs to.
// A non-empty Fact.ID tags the stored fact the entry replaces.
type Entry[S comparable, V comparable, M any] struct {
	Scope S
	Fact  Fact[V, M]
}

// WriteKind says how an existing fact was changed.
type WriteKind int

const (
	WriteExtend WriteKind = iota + 1
	WriteMerge
	WriteOverwrite
)

func (k WriteKind) String() string {
	switch k {
	case WriteExtend:
		return "extend"
	case WriteMerge:
		return "merge"
	case WriteOverwrite:
		return "overwrite"
	default:
		return "unknown"
	}
}

// Write is an existing fact in its changed state.
type Write[V comparable, M any] struct {
	Kind WriteKind
	Fact Fact[V, M]
}

// OutcomeKind classifies a resolution.
type OutcomeKind int

const (
	Created OutcomeKind = iota + 1
	Updated
	NoOp
	Rejected
)

func (k OutcomeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case NoOp:
		return "noop"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the decision for one candidate.
type Outcome[V comparable, M any] struct {
	Kind OutcomeKind
	// Fact is the created fact, the last updated one, or the matching one on NoOp.
	Fact Fact[V, M]
	// Writes lists existing facts to persist, in scan order.
	Writes []Write[V, M]
	// Conflict is set when Kind is Rejected.
	Conflict *Fact[V, M]
}

func (o *Outcome[V, M]) record(kind WriteKind, fact Fact[V, M]) {
	o.Kind = Updated
	o.Fact = fact
	o.Writes = append(o.Writes, Write[V, M]{Kind: kind, Fact: fact})
}
