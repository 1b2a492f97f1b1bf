package reconcile

// Policy selects what happens when a candidate touches or crosses a fact in its bucket.
type Policy struct {
	// Extend widens a same-valued fact to cover the candidate. Stops the scan.
	Extend bool `json:"extend"`
	// Overwrite replaces a crossing fact with a different value. Stops the scan.
	Overwrite bool `json:"overwrite"`
	// Merge widens a same-valued fact ignoring unbounded sides, then keeps scanning.
	Merge bool `json:"merge"`
	// SameValuesOnly ignores facts whose value differs from the candidate.
	SameValuesOnly bool `json:"same_values_only"`
	// AllowOverlap skips the interval checks and always creates.
	AllowOverlap bool `json:"allow_overlap"`
}

// DefaultPolicy extends same-valued facts and rejects crossing different ones.
func DefaultPolicy() Policy {
	return Policy{Extend: true}
}

// Rules are the per-kind predicates a collection injects.
type Rules[V comparable] struct {
	// Kind names the fact kind in errors and logs.
	Kind string
	// SameValue reports value equality; nil means ==.
	SameValue func(a, b V) bool
}

func (r Rules[V]) sameValue(a, b V) bool {
	if r.SameValue == nil {
		return a == b
	}
	return r.SameValue(a, b)
}

func (r Rules[V]) kind() string {
	if r.Kind == "" {
		return "Fact"
	}
	return r.Kind
}
