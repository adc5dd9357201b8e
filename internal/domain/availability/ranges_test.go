package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/domain/shared/daterange"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := daterange.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func window(t *testing.T, from, to string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(from, to)
	require.NoError(t, err)
	return dr
}

func TestExpandRangesToDisabledDates(t *testing.T) {
	ranges := []UnavailableRange{
		{Start: day(t, "2026-03-10"), End: day(t, "2026-03-12"), Source: SourceBooking},
		{Start: day(t, "2026-03-28"), End: day(t, "2026-04-03"), Source: SourceHostBlock},
		{Start: day(t, "2026-03-05"), End: day(t, "2026-03-05"), Source: SourceHostBlock},
	}
	set := ExpandRangesToDisabledDates(ranges, window(t, "2026-03-01", "2026-04-01"))
	assert.Equal(t, []string{"2026-03-10", "2026-03-11", "2026-03-28", "2026-03-29", "2026-03-30", "2026-03-31"}, set.Dates())
	assert.False(t, set.Has(day(t, "2026-03-12")))
}

func TestIsRangeValid(t *testing.T) {
	disabled := DisabledSet{}
	disabled.Add(day(t, "2026-03-10"))
	disabled.Add(day(t, "2026-03-11"))

	tests := []struct {
		name     string
		in, out  string
		min, max int
		want     bool
	}{
		{"checkout on disabled date is allowed", "2026-03-07", "2026-03-10", 1, 0, true},
		{"night disabled", "2026-03-09", "2026-03-11", 1, 0, false},
		{"starts after block", "2026-03-12", "2026-03-14", 1, 0, true},
		{"too short", "2026-03-12", "2026-03-13", 2, 0, false},
		{"too long", "2026-03-12", "2026-03-20", 1, 5, false},
		{"unbounded max", "2026-03-12", "2026-06-20", 1, 0, true},
		{"inverted", "2026-03-14", "2026-03-12", 1, 0, false},
		{"empty", "2026-03-14", "2026-03-14", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRangeValid(day(t, tt.in), day(t, tt.out), disabled, tt.min, tt.max))
		})
	}
}

func TestNextValidEndDate(t *testing.T) {
	disabled := DisabledSet{}
	disabled.Add(day(t, "2026-03-15"))

	got, ok := NextValidEndDate(day(t, "2026-03-10"), disabled, 2, 0, 30)
	require.True(t, ok)
	assert.Equal(t, "2026-03-12", daterange.Format(got))

	got, ok = NextValidEndDate(day(t, "2026-03-13"), disabled, 2, 0, 30)
	require.True(t, ok)
	assert.Equal(t, "2026-03-15", daterange.Format(got), "disabled checkout date is a valid boundary")

	_, ok = NextValidEndDate(day(t, "2026-03-14"), disabled, 2, 0, 30)
	assert.False(t, ok, "blocked before reaching min nights")

	_, ok = NextValidEndDate(day(t, "2026-03-16"), disabled, 10, 0, 5)
	assert.False(t, ok, "search limit reached")

	_, ok = NextValidEndDate(day(t, "2026-03-16"), disabled, 4, 3, 30)
	assert.False(t, ok, "min above max")
}

func TestFindConflictsConcreteScenario(t *testing.T) {
	ranges := []UnavailableRange{{Start: day(t, "2026-03-10"), End: day(t, "2026-03-12"), Source: SourceBooking, BookingID: "b1"}}
	dates, hits := FindConflicts(window(t, "2026-03-11", "2026-03-13"), ranges)
	require.Len(t, hits, 1)
	assert.Equal(t, "b1", hits[0].BookingID)
	require.Len(t, dates, 1)
	assert.Equal(t, "2026-03-11", daterange.Format(dates[0]))

	dates, hits = FindConflicts(window(t, "2026-03-12", "2026-03-14"), ranges)
	assert.Empty(t, hits)
	assert.Empty(t, dates)
}
