package booking

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondOnlyFromPending(t *testing.T) {
	for _, s := range Statuses {
		for _, action := range []Action{ActionAccept, ActionDecline} {
			next, err := Respond(s, action)
			if s != StatusPending {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition, "%s/%s", s, action)
				assert.Equal(t, s, next)
				continue
			}
			require.NoError(t, err)
			if action == ActionAccept {
				assert.Equal(t, StatusConfirmed, next)
			} else {
				assert.Equal(t, StatusDeclined, next)
			}
		}
	}
	_, err := Respond(StatusPending, "maybe")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status      Status
		respond     bool
		blocks      bool
		cancellable bool
		terminal    bool
	}{
		{StatusPendingPayment, false, false, true, false},
		{StatusPending, true, true, true, false},
		{StatusConfirmed, false, true, true, false},
		{StatusDeclined, false, false, false, true},
		{StatusCancelled, false, false, false, true},
		{StatusExpired, false, false, false, true},
		{StatusCompleted, false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.respond, CanHostRespond(tt.status))
			assert.Equal(t, tt.blocks, BlocksAvailability(tt.status))
			assert.Equal(t, tt.cancellable, IsCancellable(tt.status))
			assert.Equal(t, tt.terminal, IsTerminal(tt.status))
		})
	}
}

func TestTransitionsAreOneDirectional(t *testing.T) {
	require.NoError(t, Transition(StatusPendingPayment, StatusPending))
	require.NoError(t, Transition(StatusConfirmed, StatusCompleted))
	assert.ErrorIs(t, Transition(StatusPending, StatusPendingPayment), ErrInvalidStatusTransition)
	assert.ErrorIs(t, Transition(StatusConfirmed, StatusPending), ErrInvalidStatusTransition)
	for _, s := range Statuses {
		if IsTerminal(s) {
			for _, to := range Statuses {
				assert.Error(t, Transition(s, to), "%s -> %s", s, to)
			}
		}
	}
}

func TestLegacyDecisionMapping(t *testing.T) {
	assert.Equal(t, ActionAccept, MapLegacyDecision(DecisionApprove))
	assert.Equal(t, ActionDecline, MapLegacyDecision(DecisionDecline))

	for raw, want := range map[string]Action{"accept": ActionAccept, "APPROVE": ActionAccept, " decline ": ActionDecline} {
		got, err := ParseAction(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAction("reject")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestClassifyCreateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"exclusion code", errors.New(`pq: conflicting key value violates exclusion constraint "bookings_no_overlap" (23P01)`), http.StatusConflict, CodeDatesUnavailable},
		{"unique violation", errors.New("duplicate key value violates unique constraint"), http.StatusConflict, CodeDatesUnavailable},
		{"wrapped sentinel", fmt.Errorf("create: %w", ErrDatesUnavailable), http.StatusConflict, CodeDatesUnavailable},
		{"host block", ErrDatesBlocked, http.StatusConflict, CodeDatesUnavailable},
		{"nights", ErrNightsOutOfRange, http.StatusConflict, CodeInvalidStay},
		{"advance notice message", errors.New("check-in violates advance notice"), http.StatusConflict, CodeInvalidStay},
		{"other", errors.New("connection reset by peer"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCreateError(tt.err)
			assert.Equal(t, tt.status, got.HTTPStatus)
			assert.Equal(t, tt.code, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}
