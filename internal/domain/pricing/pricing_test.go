package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/domain/shared/daterange"
)

func TestCalculatePricingScenario(t *testing.T) {
	got, err := CalculatePricing("2026-03-10", "2026-03-12", 25000, Fees{CleaningFeeMinor: 3000})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Nights)
	assert.Equal(t, int64(50000), got.SubtotalMinor)
	assert.Equal(t, int64(53000), got.TotalAmountMinor)
}

func TestCalculatePricingClampsNegativeInputs(t *testing.T) {
	got, err := CalculatePricing("2026-03-10", "2026-03-13", -100, Fees{CleaningFeeMinor: -1, DepositMinor: 5000})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.NightlyPriceMinor)
	assert.Equal(t, int64(0), got.CleaningFeeMinor)
	assert.Equal(t, int64(5000), got.TotalAmountMinor)
}

func TestCalculatePricingIsDeterministic(t *testing.T) {
	inputs := []struct {
		in, out  string
		nightly  int64
		cleaning int64
		deposit  int64
	}{
		{"2026-01-01", "2026-01-02", 1, 0, 0},
		{"2026-02-27", "2026-03-02", 18000, 2500, 10000},
		{"2025-12-30", "2026-01-05", 99999, 1, 1},
	}
	for _, in := range inputs {
		first, err := CalculatePricing(in.in, in.out, in.nightly, Fees{CleaningFeeMinor: in.cleaning, DepositMinor: in.deposit})
		require.NoError(t, err)
		second, err := CalculatePricing(in.in, in.out, in.nightly, Fees{CleaningFeeMinor: in.cleaning, DepositMinor: in.deposit})
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, first.SubtotalMinor+first.CleaningFeeMinor+first.DepositMinor, first.TotalAmountMinor)
		assert.Equal(t, first.NightlyPriceMinor*int64(first.Nights), first.SubtotalMinor)
	}
}

func TestCalculateNightsErrors(t *testing.T) {
	_, err := CalculateNights("not-a-date", "2026-03-12")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = CalculateNights("2026-03-12", "")
	assert.ErrorIs(t, err, ErrInvalidDate)

	for _, out := range []string{"2026-03-12", "2026-03-11", "2025-03-12"} {
		_, err := CalculateNights("2026-03-12", out)
		assert.ErrorIs(t, err, ErrInvalidNights, out)
	}

	n, err := CalculateNights("2026-03-28", "2026-04-02")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRangesOverlapBoundary(t *testing.T) {
	a, _ := daterange.Parse("2026-03-10", "2026-03-12")
	b, _ := daterange.Parse("2026-03-12", "2026-03-15")
	assert.False(t, RangesOverlap(a, b))
	assert.False(t, RangesOverlap(b, a))

	c, _ := daterange.Parse("2026-03-11", "2026-03-13")
	assert.True(t, RangesOverlap(a, c))
	assert.True(t, RangesOverlap(c, a))
}

func TestQuoteCarriesCurrency(t *testing.T) {
	dr, _ := daterange.Parse("2026-03-10", "2026-03-12")
	got, err := Quote(dr, 25000, Fees{DepositMinor: 1000})
	require.NoError(t, err)
	total := got.WithCurrency("NGN").Total()
	assert.Equal(t, int64(51000), total.Amount)
	assert.Equal(t, "NGN", total.Currency)
}
