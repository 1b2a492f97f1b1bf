// Package partialdate provides dates known only to year, month or day precision,
// and the interval overlap measure used to reconcile dated facts.
package partialdate

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Precision is the granularity a Date is known to.
type Precision int

const (
	// PrecisionNone marks the unbounded date.
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	default:
		return "none"
	}
}

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
	yearLayout  = "2006"
)

var rePartialDate = regexp.MustCompile(`^[0-9]{4}(-[0-9]{2}){0,2}$`)

// Date is an immutable partial date. The zero value is the unbounded date.
type Date struct {
	raw       string
	precision Precision
	anchor    time.Time
}

// Null is the unbounded date: "since always" as a start, "until forever" as an end.
var Null = Date{}

// Parse parses YYYY, YYYY-MM or YYYY-MM-DD from year 1 on. The empty string yields Null.
func Parse(s string) (Date, error) {
	if s == "" {
		return Null, nil
	}
	if !rePartialDate.MatchString(s) {
		return Null, &FormatError{Input: s}
	}

	var layout string
	var precision Precision
	switch len(s) {
	case len(dayLayout):
		layout, precision = dayLayout, PrecisionDay
	case len(monthLayout):
		layout, precision = monthLayout, PrecisionMonth
	default:
		layout, precision = yearLayout, PrecisionYear
	}

	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return Null, &FormatError{Input: s, Err: err}
	}
	if t.Year() < 1 {
		return Null, &FormatError{Input: s}
	}

	return Date{raw: s, precision: precision, anchor: t}, nil
}

// ParsePtr parses an optional string; nil yields Null.
func ParsePtr(s *string) (Date, error) {
	if s == nil {
		return Null, nil
	}
	return Parse(*s)
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the day-precision date containing t.
func FromTime(t time.Time) Date {
	t = t.UTC()
	anchor := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Date{raw: anchor.Format(dayLayout), precision: PrecisionDay, anchor: anchor}
}

// Format returns the canonical string, or nil for the unbounded date.
func Format(d Date) *string {
	if d.IsNull() {
		return nil
	}
	s := d.raw
	return &s
}

// IsNull reports whether d is unbounded.
func (d Date) IsNull() bool {
	return d.raw == ""
}

// Precision returns the granularity of d.
func (d Date) Precision() Precision {
	return d.precision
}

// Anchor returns the first instant of the represented period.
// The boolean is false for the unbounded date.
func (d Date) Anchor() (time.Time, bool) {
	if d.IsNull() {
		return time.Time{}, false
	}
	return d.anchor, true
}

// String returns the canonical form, "" for the unbounded date.
func (d Date) String() string {
	return d.raw
}

// Equal reports whether both dates have the same canonical form.
// Two unbounded dates are equal.
func (d Date) Equal(other Date) bool {
	return d.raw == other.raw
}

// Compare orders two bounded dates. On equal anchors the coarser precision
// sorts first, which matches comparing the canonical strings.
func (d Date) Compare(other Date) (int, error) {
	if d.IsNull() || other.IsNull() {
		return 0, fmt.Errorf("%w: %q vs %q", ErrComparison, d.raw, other.raw)
	}
	return strings.Compare(d.raw, other.raw), nil
}

// Before reports whether d sorts strictly before other.
func (d Date) Before(other Date) (bool, error) {
	c, err := d.Compare(other)
	return c < 0, err
}

// After reports whether d sorts strictly after other.
func (d Date) After(other Date) (bool, error) {
	c, err := d.Compare(other)
	return c > 0, err
}

// Min returns the earlier of two bounded dates.
func Min(a, b Date) (Date, error) {
	c, err := a.Compare(b)
	if err != nil {
		return Null, err
	}
	if c <= 0 {
		return a, nil
	}
	return b, nil
}

// Max returns the later of two bounded dates.
func Max(a, b Date) (Date, error) {
	c, err := a.Compare(b)
	if err != nil {
		return Null, err
	}
	if c >= 0 {
		return a, nil
	}
	return b, nil
}

// Add shifts the anchor by dur and returns a day-precision date.
func (d Date) Add(dur time.Duration) (Date, error) {
	if d.IsNull() {
		return Null, ErrUnbounded
	}
	return FromTime(d.anchor.Add(dur)), nil
}

// AddDays shifts the anchor by n calendar days.
func (d Date) AddDays(n int) (Date, error) {
	if d.IsNull() {
		return Null, ErrUnbounded
	}
	return FromTime(d.anchor.AddDate(0, 0, n)), nil
}

// Sub returns the duration between the anchors of d and other. Spans that do
// not fit in a time.Duration (about 292 years) fail with ErrRange; use SubDays.
func (d Date) Sub(other Date) (time.Duration, error) {
	days, err := d.SubDays(other)
	if err != nil {
		return 0, err
	}
	if days > maxDurationDays || days < -maxDurationDays {
		return 0, fmt.Errorf("%s - %s: %w", d.raw, other.raw, ErrRange)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// SubDays returns the number of whole days from other to d.
func (d Date) SubDays(other Date) (int64, error) {
	if d.IsNull() || other.IsNull() {
		return 0, ErrUnbounded
	}
	return daysBetween(other.anchor, d.anchor), nil
}

const secondsPerDay = 24 * 60 * 60

// maxDurationDays is the longest span of whole days a time.Duration holds.
const maxDurationDays = int64(math.MaxInt64 / int64(24*time.Hour))

// daysBetween counts days from a to b. Anchors are UTC midnights.
func daysBetween(a, b time.Time) int64 {
	return (b.Unix() - a.Unix()) / secondsPerDay
}

// SubDuration shifts the anchor back by dur and returns a day-precision date.
func (d Date) SubDuration(dur time.Duration) (Date, error) {
	return d.Add(-dur)
}

// MarshalJSON encodes the unbounded date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(d.raw)
}

// UnmarshalJSON accepts null, "" or a partial date string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Null
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding partial date: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner; NULL maps to the unbounded date.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Null
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("scanning partial date: unsupported type %T", src)
	}
}

// Value implements driver.Valuer; the unbounded date is stored as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsNull() {
		return nil, nil
	}
	return d.raw, nil
}

var (
	// ErrFormat is matched by every malformed date error.
	ErrFormat = errors.New("malformed partial date")
	// ErrComparison is returned when ordering involves an unbounded date.
	ErrComparison = errors.New("could not compare null dates")
	// ErrUnbounded is returned by arithmetic on an unbounded date.
	ErrUnbounded = errors.New("arithmetic on an unbounded date")
	// ErrRange is returned when a span does not fit in a time.Duration.
	ErrRange = errors.New("date span out of duration range")
)

// FormatError reports a string that is not a partial date.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("could not convert %q into a partial date", e.Input)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
