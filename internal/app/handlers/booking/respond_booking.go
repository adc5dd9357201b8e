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
	domainlistings "rentnow/internal/domain/listings"
)

const respondBookingKey = "booking.respond"

// RespondBookingCommand accepts accept|decline and the older approve|decline.
type RespondBookingCommand struct {
	BookingID string `validate:"required"`
	HostID    string `validate:"required"`
	Action    string `validate:"required,oneof=accept decline approve ACCEPT DECLINE APPROVE"`
}

func (c RespondBookingCommand) Key() string { return respondBookingKey }

func (c RespondBookingCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleHost}
}

type RespondBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Metrics    handlersupport.Metrics
	Now        func() time.Time
}

func (h *RespondBookingHandler) Handle(ctx context.Context, cmd RespondBookingCommand) (*dto.Booking, error) {
	action, err := domainbooking.ParseAction(cmd.Action)
	if err != nil {
		return nil, err
	}
	unit, execCtx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(execCtx)

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := b.RespondAsHost(domainlistings.HostID(cmd.HostID), action, handlersupport.Now(h.Now)); err != nil {
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
	out := dto.MapBooking(b)
	return &out, nil
}

var _ commands.Handler[RespondBookingCommand, *dto.Booking] = (*RespondBookingHandler)(nil)
