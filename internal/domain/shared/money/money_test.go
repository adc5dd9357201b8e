package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampMinor(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{25000, 25000},
		{2999.99, 2999},
		{-1, 0},
		{-0.5, 0},
		{0, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampMinor(tt.in), "input %v", tt.in)
	}
}

func TestArithmetic(t *testing.T) {
	a := Must(1000, "ngn")
	assert.Equal(t, "NGN", a.Currency)

	sum, err := a.Add(Must(500, "NGN"))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), sum.Amount)

	_, err = a.Add(Must(500, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	assert.Equal(t, int64(500), a.Percent(50).Amount)
	assert.Equal(t, int64(1000), a.Percent(150).Amount)
	assert.True(t, a.Percent(-5).IsZero())
}
