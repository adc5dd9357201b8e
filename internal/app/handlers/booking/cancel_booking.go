package booking

import (
	"context"
	"time"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	ActorID   string `validate:"required"`
	ActorRole principal.Role
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleGuest, principal.RoleHost}
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Metrics    handlersupport.Metrics
	Now        func() time.Time
}

// Handle lets the booking's guest or the property's host cancel.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.CancelResult, error) {
	unit, execCtx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(execCtx)

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	reason := ""
	switch {
	case cmd.ActorRole == principal.RoleHost && string(b.HostID) == cmd.ActorID:
		reason = domainbooking.ReasonHost
	case cmd.ActorRole != principal.RoleHost && b.GuestID == cmd.ActorID:
		reason = domainbooking.ReasonGuest
	default:
		return nil, domainbooking.ErrForbidden
	}

	from := b.Status
	refund, err := b.Cancel(reason, handlersupport.Now(h.Now))
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(execCtx, b); err != nil {
		return nil, err
	}
	if err := outbox.Drain(execCtx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	handlersupport.MetricsOrNoop(h.Metrics).BookingTransition(string(from), string(b.Status))
	return &dto.CancelResult{Booking: dto.MapBooking(b), Refund: dto.MapRefund(refund)}, nil
}

var _ commands.Handler[CancelBookingCommand, *dto.CancelResult] = (*CancelBookingHandler)(nil)
