package daterange

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDate  = errors.New("daterange: date must use YYYY-MM-DD")
)

// DateRange represents a half-open interval [checkIn, checkOut) of calendar nights.
// Both ends are UTC-midnight anchored; the checkout date itself is not occupied.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New normalizes both ends to calendar days and rejects empty or inverted ranges.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// ParseDate reads a calendar date. RFC3339 timestamps are accepted and truncated to their UTC day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Day(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format renders a calendar date as YYYY-MM-DD.
func Format(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// DaysBetween counts whole calendar days from a to b (negative when b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / day)
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Degenerate reports zero-length or inverted ranges.
func (dr DateRange) Degenerate() bool {
	return !dr.CheckOut.After(dr.CheckIn)
}

func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

// Overlaps uses half-open semantics; degenerate ranges never overlap anything.
func (dr DateRange) Overlaps(other DateRange) bool {
	if dr.Degenerate() || other.Degenerate() {
		return false
	}
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// Intersect returns the shared nights of both ranges.
func (dr DateRange) Intersect(other DateRange) (DateRange, bool) {
	if !dr.Overlaps(other) {
		return DateRange{}, false
	}
	start := dr.CheckIn
	if other.CheckIn.After(start) {
		start = other.CheckIn
	}
	end := dr.CheckOut
	if other.CheckOut.Before(end) {
		end = other.CheckOut
	}
	return DateRange{CheckIn: start, CheckOut: end}, true
}

// Pad widens the range by before days ahead of checkin and after days past checkout.
func (dr DateRange) Pad(before, after int) DateRange {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}
	return DateRange{CheckIn: AddDays(dr.CheckIn, -before), CheckOut: AddDays(dr.CheckOut, after)}
}

// Each calls fn for every night in [CheckIn, CheckOut).
func (dr DateRange) Each(fn func(night time.Time)) {
	for d := Day(dr.CheckIn); d.Before(dr.CheckOut); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func (dr DateRange) String() string {
	return Format(dr.CheckIn) + "/" + Format(dr.CheckOut)
}
