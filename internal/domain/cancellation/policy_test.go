package cancellation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/pricing"
)

func TestResolveDefaults(t *testing.T) {
	assert.Equal(t, Flexible48h, Resolve(nil))
	assert.Equal(t, Flexible48h, Resolve(&listings.ShortletSettings{CancellationPolicy: "super_flexible"}))
	assert.Equal(t, Flexible48h, Resolve(&listings.ShortletSettings{}))
	assert.Equal(t, Strict, Resolve(&listings.ShortletSettings{CancellationPolicy: " STRICT "}))
	assert.Equal(t, Moderate5d, Resolve(&listings.ShortletSettings{CancellationPolicy: "moderate_5d"}))
}

func TestLabelsAreDistinctAndFree(t *testing.T) {
	seen := map[string]Policy{}
	for _, p := range []Policy{Flexible24h, Flexible48h, Moderate5d, Strict} {
		label := Label(p)
		require.NotEmpty(t, label)
		_, dup := seen[label]
		assert.False(t, dup, "label reused for %s", p)
		seen[label] = p
		assert.Equal(t, p != Strict, IsFree(p))
	}
	assert.Equal(t, Label(DefaultPolicy), Label("unknown"))
}

func TestTermsFor(t *testing.T) {
	checkIn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	terms := TermsFor(Moderate5d, checkIn)
	require.NotNil(t, terms.FreeUntil)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), *terms.FreeUntil)

	strict := TermsFor(Strict, checkIn)
	assert.False(t, strict.Free)
	assert.Nil(t, strict.FreeUntil)
}

func TestCalculateRefund(t *testing.T) {
	price, err := pricing.CalculatePricing("2026-03-10", "2026-03-12", 25000, pricing.Fees{CleaningFeeMinor: 3000, DepositMinor: 10000})
	require.NoError(t, err)
	checkIn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		policy   Policy
		cancelAt time.Time
		refund   int64
		full     bool
	}{
		{"flexible inside window", Flexible48h, checkIn.Add(-72 * time.Hour), 63000, true},
		{"flexible after window", Flexible48h, checkIn.Add(-24 * time.Hour), 10000 + 3000 + 25000, false},
		{"flexible 24h still free", Flexible24h, checkIn.Add(-25 * time.Hour), 63000, true},
		{"strict keeps deposit only", Strict, checkIn.Add(-30 * 24 * time.Hour), 10000, false},
		{"after check-in", Moderate5d, checkIn.Add(12 * time.Hour), 10000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateRefund(tt.policy, price, checkIn, tt.cancelAt)
			assert.Equal(t, tt.refund, got.RefundMinor)
			assert.Equal(t, price.TotalAmountMinor-tt.refund, got.PenaltyMinor)
			assert.Equal(t, tt.full, got.Full)
		})
	}
}
