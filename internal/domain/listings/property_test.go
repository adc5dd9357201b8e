package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortletSettingsNormalized(t *testing.T) {
	got := ShortletSettings{PrepDays: -1, MinNights: 0, MaxNights: -3, AdvanceNoticeDays: -2, CancellationPolicy: " Strict "}.Normalized()
	assert.Equal(t, ShortletSettings{MinNights: 1, CancellationPolicy: "strict"}, got)

	got = ShortletSettings{MinNights: 5, MaxNights: 3}.Normalized()
	assert.Equal(t, 5, got.MinNights)
	assert.Equal(t, 0, got.MaxNights)
}

func TestSearchParamsNormalized(t *testing.T) {
	in := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)
	got := SearchParams{
		City:          " Lagos ",
		MinGuests:     -1,
		PriceMinMinor: 5000,
		PriceMaxMinor: 100,
		CheckIn:       in,
		CheckOut:      in,
		Sort:          "bogus",
	}.Normalized()

	assert.Equal(t, "lagos", got.City)
	assert.Zero(t, got.MinGuests)
	assert.Zero(t, got.PriceMaxMinor)
	assert.True(t, got.CheckIn.IsZero())
	assert.Equal(t, SortByPriceAsc, got.Sort)
	assert.Equal(t, DefaultPageLimit, got.Page.Limit)
	_, ok := got.Stay()
	assert.False(t, ok)
}

func TestSearchParamsMatches(t *testing.T) {
	prop := &Property{ID: "p1", Title: "Lekki Loft", City: "Lagos", MaxGuests: 4, NightlyPriceMinor: 25000, State: PropertyActive}
	params := SearchParams{City: "Lagos", Query: "loft", MinGuests: 2, PriceMaxMinor: 30000, OnlyActive: true}.Normalized()
	assert.True(t, params.Matches(prop))

	params.MinGuests = 6
	assert.False(t, params.Matches(prop))

	prop.State = PropertyInactive
	params.MinGuests = 0
	assert.False(t, params.Matches(prop))
}

func TestCatalogSortIsStable(t *testing.T) {
	a := &Property{ID: "a", NightlyPriceMinor: 100}
	b := &Property{ID: "b", NightlyPriceMinor: 100}
	assert.True(t, SortByPriceAsc.Less(a, b))
	assert.False(t, SortByPriceAsc.Less(b, a))
	assert.True(t, SortByPriceDesc.Less(&Property{ID: "z", NightlyPriceMinor: 200}, a))
}
