package payment

import (
	"time"

	"rentnow/internal/domain/booking"
)

type UIState string

const (
	UIRefunded   UIState = "refunded"
	UIConfirmed  UIState = "confirmed"
	UIPending    UIState = "pending"
	UIClosed     UIState = "closed"
	UIFailed     UIState = "failed"
	UIProcessing UIState = "processing"
)

// ResolveUIState merges the authoritative booking status with a possibly stale payment status.
func ResolveUIState(b booking.Status, p Status) UIState {
	switch {
	case p == StatusRefunded:
		return UIRefunded
	case b == booking.StatusConfirmed:
		return UIConfirmed
	case b == booking.StatusPending:
		return UIPending
	case booking.IsTerminal(b):
		return UIClosed
	case p == StatusFailed:
		return UIFailed
	}
	return UIProcessing
}

// ShouldPoll keeps the client polling while the booking still waits on payment.
// A succeeded payment on a pending_payment booking keeps polling until the booking catches up.
// maxWait <= 0 disables the elapsed ceiling.
func ShouldPoll(b booking.Status, p Status, elapsed, maxWait time.Duration) bool {
	if b != booking.StatusPendingPayment {
		return false
	}
	if p == StatusFailed || p == StatusRefunded {
		return false
	}
	if maxWait > 0 && elapsed > maxWait {
		return false
	}
	return true
}

type ReturnState struct {
	BookingStatus booking.Status `json:"booking_status"`
	PaymentStatus Status         `json:"payment_status,omitempty"`
	UIState       UIState        `json:"ui_state"`
	ShouldPoll    bool           `json:"should_poll"`
}

// Reconciler carries the polling ceiling so handlers do not read config at call time.
type Reconciler struct {
	maxWait time.Duration
}

func NewReconciler(maxWait time.Duration) Reconciler {
	return Reconciler{maxWait: maxWait}
}

func (r Reconciler) Reconcile(b booking.Status, p Status, elapsed time.Duration) ReturnState {
	return ReturnState{
		BookingStatus: b,
		PaymentStatus: p,
		UIState:       ResolveUIState(b, p),
		ShouldPoll:    ShouldPoll(b, p, elapsed, r.maxWait),
	}
}
