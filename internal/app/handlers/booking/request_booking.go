package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/middleware"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainrange "rentnow/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	PropertyID      string `validate:"required"`
	GuestID         string `validate:"required"`
	CheckIn         string `validate:"required,isodate"`
	CheckOut        string `validate:"required,isodate"`
	Guests          int    `validate:"gte=1,lte=50"`
	IdempotencyKeyV string `validate:"max=128"`
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.Booking{} }

func (c RequestBookingCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleGuest}
}

type RequestBookingHandler struct {
	UoWFactory    uow.UoWFactory
	Outbox        outbox.Outbox
	Encoder       outbox.EventEncoder
	Windows       domainbooking.Windows
	SymmetricPrep bool
	Metrics       handlersupport.Metrics
	Logger        *slog.Logger
	NewID         func() string
	Now           func() time.Time
}

var ErrPropertyInactive = errors.New("booking: property is not accepting bookings")

// Handle runs the in-app availability check as a pre-flight filter. Two racing
// requests can both pass it; the storage exclusion constraint rejects the loser
// with ErrDatesUnavailable.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	result, err := h.handle(ctx, cmd)
	metrics := handlersupport.MetricsOrNoop(h.Metrics)
	if err != nil {
		metrics.BookingCreated(domainbooking.ClassifyCreateError(err).Code)
		return nil, err
	}
	metrics.BookingCreated("created")
	return result, nil
}

func (h *RequestBookingHandler) handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	dr, err := domainrange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	unit, execCtx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(execCtx)

	property, err := unit.Properties().ByID(execCtx, domainlistings.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	if !property.Active() {
		return nil, ErrPropertyInactive
	}
	now := handlersupport.Now(h.Now)
	if err := domainbooking.ValidateStay(dr, property.Shortlet, now); err != nil {
		return nil, err
	}

	resolver := domainavailability.NewResolver(unit.Availability(), domainavailability.WithSymmetricPrepBuffer(h.SymmetricPrep))
	report, err := resolver.ResolveConflict(execCtx, domainavailability.ConflictQuery{PropertyID: property.ID, Stay: dr})
	if err != nil {
		return nil, err
	}
	if report.HasConflict {
		h.log(ctx, "booking pre-flight conflict", "property_id", cmd.PropertyID, "range", dr.String(), "dates", report.DateStrings())
		if report.OnlyHostBlocks() {
			return nil, domainbooking.ErrDatesBlocked
		}
		return nil, domainbooking.ErrDatesUnavailable
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:       domainbooking.BookingID(h.newID()),
		Property: property,
		GuestID:  cmd.GuestID,
		Range:    dr,
		Guests:   cmd.Guests,
		Windows:  h.Windows,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Create(execCtx, b); err != nil {
		return nil, err
	}
	if err := outbox.Drain(execCtx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	h.log(ctx, "booking requested", "booking_id", string(b.ID), "status", string(b.Status))
	out := dto.MapBooking(b)
	return &out, nil
}

func (h *RequestBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *RequestBookingHandler) log(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, msg, args...)
	}
}

var _ commands.Handler[RequestBookingCommand, *dto.Booking] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
