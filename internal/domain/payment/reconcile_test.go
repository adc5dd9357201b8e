package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/domain/booking"
)

func TestResolveUIStatePrecedence(t *testing.T) {
	tests := []struct {
		booking booking.Status
		payment Status
		want    UIState
	}{
		{booking.StatusConfirmed, StatusRefunded, UIRefunded},
		{booking.StatusCancelled, StatusRefunded, UIRefunded},
		{booking.StatusConfirmed, StatusFailed, UIConfirmed},
		{booking.StatusPending, StatusSucceeded, UIPending},
		{booking.StatusDeclined, StatusSucceeded, UIClosed},
		{booking.StatusExpired, StatusFailed, UIClosed},
		{booking.StatusCompleted, "", UIClosed},
		{booking.StatusPendingPayment, StatusFailed, UIFailed},
		{booking.StatusPendingPayment, StatusSucceeded, UIProcessing},
		{booking.StatusPendingPayment, "", UIProcessing},
	}
	for _, tt := range tests {
		t.Run(string(tt.booking)+"/"+string(tt.payment), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveUIState(tt.booking, tt.payment))
		})
	}
}

func TestShouldPoll(t *testing.T) {
	assert.True(t, ShouldPoll(booking.StatusPendingPayment, StatusSucceeded, time.Second, 0), "paid but booking not caught up")
	assert.True(t, ShouldPoll(booking.StatusPendingPayment, StatusPending, time.Second, time.Minute))
	assert.False(t, ShouldPoll(booking.StatusPendingPayment, StatusFailed, 0, 0))
	assert.False(t, ShouldPoll(booking.StatusPendingPayment, StatusRefunded, 0, 0))
	assert.False(t, ShouldPoll(booking.StatusPending, StatusSucceeded, 0, 0))
	assert.False(t, ShouldPoll(booking.StatusPendingPayment, StatusSucceeded, 3*time.Minute, 2*time.Minute))
	assert.True(t, ShouldPoll(booking.StatusPendingPayment, StatusSucceeded, time.Hour, 0))
}

func TestReconcilerRegression(t *testing.T) {
	state := NewReconciler(2*time.Minute).Reconcile(booking.StatusPendingPayment, StatusSucceeded, 5*time.Second)
	assert.True(t, state.ShouldPoll)
	assert.Equal(t, UIProcessing, state.UIState)
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{"success": StatusSucceeded, "Failed": StatusFailed, "refunded": StatusRefunded, "processing": StatusPending} {
		got, err := ParseStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStatus("chargeback")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
