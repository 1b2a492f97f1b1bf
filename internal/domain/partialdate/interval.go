package partialdate

import (
	"errors"
	"fmt"
)

// HugeOverlap is returned by OverlapDays when both intervals are unbounded on the same side.
const HugeOverlap = 999999

// ErrOrder is returned when an interval starts after it ends.
var ErrOrder = errors.New("start date after end date")

// Interval is a validity period. Either bound may be unbounded.
type Interval struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

// NewInterval parses both bounds.
func NewInterval(start, end string) (Interval, error) {
	s, err := Parse(start)
	if err != nil {
		return Interval{}, fmt.Errorf("parsing start date: %w", err)
	}
	e, err := Parse(end)
	if err != nil {
		return Interval{}, fmt.Errorf("parsing end date: %w", err)
	}
	return Interval{Start: s, End: e}, nil
}

// MustInterval is like NewInterval but panics on malformed input.
func MustInterval(start, end string) Interval {
	i, err := NewInterval(start, end)
	if err != nil {
		panic(err)
	}
	return i
}

// Equal reports exact equality of both bounds.
func (i Interval) Equal(other Interval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}

// IsUnbounded reports whether neither bound is set.
func (i Interval) IsUnbounded() bool {
	return i.Start.IsNull() && i.End.IsNull()
}

// Validate checks that the start does not follow the end.
func (i Interval) Validate() error {
	if i.Start.IsNull() || i.End.IsNull() {
		return nil
	}
	after, err := i.Start.After(i.End)
	if err != nil {
		return err
	}
	if after {
		return fmt.Errorf("%w: %s", ErrOrder, i)
	}
	return nil
}

func (i Interval) String() string {
	start, end := "forever", "forever"
	if !i.Start.IsNull() {
		start = i.Start.String()
	}
	if !i.End.IsNull() {
		end = i.End.String()
	}
	return start + " => " + end
}

// OverlapDays returns the days shared by a and b: positive when the intervals
// cross, zero when they touch, negative when they are disjoint.
//
// When both starts are unbounded the result is HugeOverlap regardless of the
// ends, and likewise when both ends are unbounded. Intervals unbounded at the
// start but disjoint at the end therefore still report HugeOverlap.
func OverlapDays(a, b Interval) int {
	var latestStart Date
	switch {
	case a.Start.IsNull() && b.Start.IsNull():
		return HugeOverlap
	case a.Start.IsNull():
		latestStart = b.Start
	case b.Start.IsNull():
		latestStart = a.Start
	default:
		latestStart, _ = Max(a.Start, b.Start)
	}

	var earliestEnd Date
	switch {
	case a.End.IsNull() && b.End.IsNull():
		return HugeOverlap
	case a.End.IsNull():
		earliestEnd = b.End
	case b.End.IsNull():
		earliestEnd = a.End
	default:
		earliestEnd, _ = Min(a.End, b.End)
	}

	days, _ := earliestEnd.SubDays(latestStart)
	return int(days)
}

// Overlaps reports whether a and b cross.
func Overlaps(a, b Interval) bool {
	return OverlapDays(a, b) > 0
}

// Touches reports whether a and b share only a boundary.
func Touches(a, b Interval) bool {
	return OverlapDays(a, b) == 0
}
