package availability

import (
	"sort"
	"time"

	"rentnow/internal/domain/shared/daterange"
)

// DefaultSearchLimitDays bounds NextValidEndDate when the caller passes no limit.
const DefaultSearchLimitDays = 365

type Source string

const (
	SourceBooking   Source = "booking"
	SourceHostBlock Source = "host_block"
)

// UnavailableRange is a half-open span of nights a property cannot be booked for.
type UnavailableRange struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Source    Source    `json:"source"`
	BookingID string    `json:"booking_id,omitempty"`
	BlockID   string    `json:"block_id,omitempty"`
}

func (r UnavailableRange) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: daterange.Day(r.Start), CheckOut: daterange.Day(r.End)}
}

// DisabledSet holds blocked nights keyed by YYYY-MM-DD.
type DisabledSet map[string]struct{}

func (s DisabledSet) Add(night time.Time) {
	s[daterange.Format(night)] = struct{}{}
}

func (s DisabledSet) Has(night time.Time) bool {
	_, ok := s[daterange.Format(night)]
	return ok
}

// Dates returns the blocked nights in ascending order.
func (s DisabledSet) Dates() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ExpandRangesToDisabledDates flattens ranges into the nights they block inside window.
// A range's end date is a turnover boundary and is never marked.
func ExpandRangesToDisabledDates(ranges []UnavailableRange, window daterange.DateRange) DisabledSet {
	set := DisabledSet{}
	for _, r := range ranges {
		clipped, ok := r.Range().Intersect(window)
		if !ok {
			continue
		}
		clipped.Each(set.Add)
	}
	return set
}

// IsRangeValid accepts [checkIn, checkOut) when its length is within bounds and
// none of its nights is disabled. The checkout date itself may be disabled.
// maxNights <= 0 means unbounded.
func IsRangeValid(checkIn, checkOut time.Time, disabled DisabledSet, minNights, maxNights int) bool {
	stay := daterange.DateRange{CheckIn: daterange.Day(checkIn), CheckOut: daterange.Day(checkOut)}
	nights := stay.Nights()
	if nights < 1 || nights < minNights {
		return false
	}
	if maxNights > 0 && nights > maxNights {
		return false
	}
	valid := true
	stay.Each(func(night time.Time) {
		if valid && disabled.Has(night) {
			valid = false
		}
	})
	return valid
}

// NextValidEndDate finds the earliest checkout that makes [checkIn, checkout) valid.
// It gives up at checkIn+searchLimitDays, past maxNights, or at the first disabled night.
func NextValidEndDate(checkIn time.Time, disabled DisabledSet, minNights, maxNights, searchLimitDays int) (time.Time, bool) {
	checkIn = daterange.Day(checkIn)
	if checkIn.IsZero() {
		return time.Time{}, false
	}
	if minNights < 1 {
		minNights = 1
	}
	if searchLimitDays <= 0 {
		searchLimitDays = DefaultSearchLimitDays
	}
	for n := 1; n <= searchLimitDays; n++ {
		if maxNights > 0 && n > maxNights {
			return time.Time{}, false
		}
		if disabled.Has(daterange.AddDays(checkIn, n-1)) {
			return time.Time{}, false
		}
		if n >= minNights {
			return daterange.AddDays(checkIn, n), true
		}
	}
	return time.Time{}, false
}

// FindConflicts reports the nights of stay covered by any range, and the ranges responsible.
func FindConflicts(stay daterange.DateRange, ranges []UnavailableRange) ([]time.Time, []UnavailableRange) {
	var hits []UnavailableRange
	set := DisabledSet{}
	for _, r := range ranges {
		shared, ok := stay.Intersect(r.Range())
		if !ok {
			continue
		}
		hits = append(hits, r)
		shared.Each(set.Add)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	dates := make([]time.Time, 0, len(set))
	stay.Each(func(night time.Time) {
		if set.Has(night) {
			dates = append(dates, night)
		}
	})
	return dates, hits
}
