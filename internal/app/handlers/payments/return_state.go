package payments

import (
	"context"
	"errors"
	"math"
	"time"

	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/queries"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
	domainpayment "rentnow/internal/domain/payment"
)

const returnStateKey = "payment.return_state"

// GetReturnStateQuery is polled by the client after it comes back from the
// payment page. ElapsedMs counts from the first poll.
type GetReturnStateQuery struct {
	BookingID   string `validate:"required"`
	RequesterID string
	ElapsedMs   int64 `validate:"gte=0"`
}

func (q GetReturnStateQuery) Key() string { return returnStateKey }

type GetReturnStateHandler struct {
	UoWFactory uow.UoWFactory
	Reconciler domainpayment.Reconciler
}

func (h *GetReturnStateHandler) Handle(ctx context.Context, q GetReturnStateQuery) (dto.ReturnState, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReturnState{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.ReturnState{}, err
	}
	if q.RequesterID != "" && q.RequesterID != b.GuestID && q.RequesterID != string(b.HostID) {
		return dto.ReturnState{}, domainbooking.ErrForbidden
	}
	var status domainpayment.Status
	p, err := unit.Payments().LatestForBooking(execCtx, q.BookingID)
	switch {
	case err == nil:
		status = p.Status
	case !errors.Is(err, domainpayment.ErrPaymentNotFound):
		return dto.ReturnState{}, err
	}
	state := h.Reconciler.Reconcile(b.Status, status, elapsed(q.ElapsedMs))
	return dto.MapReturnState(q.BookingID, state), nil
}

// elapsed converts client milliseconds, saturating rather than wrapping negative.
func elapsed(ms int64) time.Duration {
	switch {
	case ms <= 0:
		return 0
	case ms > math.MaxInt64/int64(time.Millisecond):
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

var _ queries.Handler[GetReturnStateQuery, dto.ReturnState] = (*GetReturnStateHandler)(nil)
