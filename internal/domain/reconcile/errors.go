package reconcile

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// ErrOverlappingInterval is matched by every *OverlappingIntervalError.
var ErrOverlappingInterval = errors.New("overlapping date intervals")

// OverlappingIntervalError reports the fact a candidate collided with.
// Callers may retry with a different Policy.
type OverlappingIntervalError struct {
	Kind          string
	ConflictID    string
	ConflictValue any
	Candidate     partialdate.Interval
	Existing      partialdate.Interval
	SameValue     bool
}

func (e *OverlappingIntervalError) Error() string {
	what := e.Kind
	if e.SameValue {
		what += " with same value"
	}
	return fmt.Sprintf("%s could not be created, due to overlapping dates (%s : %s) with %v [%s]",
		what, e.Candidate, e.Existing, e.ConflictValue, e.ConflictID)
}

func (e *OverlappingIntervalError) Is(target error) bool {
	return target == ErrOverlappingInterval
}

// Batch calls fn for each item in order and joins the failures.
// Items that succeed before a failure are kept.
func Batch[T any](items []T, fn func(T) error) error {
	var errs error
	for i, item := range items {
		if err := fn(item); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("item %d: %w", i+1, err))
		}
	}
	return errs
}

// Failures splits an error returned by Batch into its parts.
func Failures(err error) []error {
	return multierr.Errors(err)
}
