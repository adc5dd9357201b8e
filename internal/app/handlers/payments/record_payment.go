package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/middleware"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
	domainpayment "rentnow/internal/domain/payment"
)

const recordPaymentKey = "payment.record"

// RecordPaymentCommand is fed by the provider webhook and the payments topic.
// EventID doubles as the idempotency key.
type RecordPaymentCommand struct {
	EventID     string `validate:"max=128"`
	Reference   string `validate:"required"`
	BookingID   string `validate:"required"`
	Status      string `validate:"required"`
	AmountMinor int64  `validate:"gte=0"`
	Currency    string `validate:"omitempty,len=3"`
}

func (c RecordPaymentCommand) Key() string { return recordPaymentKey }

func (c RecordPaymentCommand) IdempotencyKey() string { return c.EventID }

func (c RecordPaymentCommand) ResultPrototype() any { return &dto.PaymentRecorded{} }

func (c RecordPaymentCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleSystem}
}

type RecordPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Metrics    handlersupport.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle stores the provider status and advances a pending_payment booking on
// success. When the nights were taken while the guest was paying, the storage
// constraint rejects the move and the booking is cancelled instead.
func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (*dto.PaymentRecorded, error) {
	status, err := domainpayment.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	unit, execCtx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(execCtx)

	bookingID := domainbooking.BookingID(cmd.BookingID)
	b, err := unit.Bookings().ByID(execCtx, bookingID)
	if err != nil {
		return nil, err
	}
	current, err := unit.Payments().LatestForBooking(execCtx, cmd.BookingID)
	if err != nil && !errors.Is(err, domainpayment.ErrPaymentNotFound) {
		return nil, err
	}
	now := handlersupport.Now(h.Now)
	next := domainpayment.Payment{
		Reference:   cmd.Reference,
		BookingID:   cmd.BookingID,
		Status:      status,
		AmountMinor: cmd.AmountMinor,
		Currency:    cmd.Currency,
		UpdatedAt:   now,
	}
	out := &dto.PaymentRecorded{
		Reference:     cmd.Reference,
		BookingID:     cmd.BookingID,
		PaymentStatus: string(status),
		BookingStatus: string(b.Status),
	}
	if !domainpayment.Supersedes(current, next) {
		out.Duplicate = true
		out.PaymentStatus = string(current.Status)
		return out, nil
	}
	if err := unit.Payments().Upsert(execCtx, &next); err != nil {
		return nil, err
	}
	handlersupport.MetricsOrNoop(h.Metrics).PaymentRecorded(string(status))

	if status == domainpayment.StatusSucceeded && b.Status == domainbooking.StatusPendingPayment {
		b, err = h.settle(execCtx, unit, b, cmd.Reference, now)
		if err != nil {
			return nil, err
		}
		out.BookingStatus = string(b.Status)
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *RecordPaymentHandler) settle(ctx context.Context, unit *handlersupport.ManagedUnit, b *domainbooking.Booking, ref string, now time.Time) (*domainbooking.Booking, error) {
	metrics := handlersupport.MetricsOrNoop(h.Metrics)
	from := b.Status
	if err := b.MarkPaid(ref, now); err != nil {
		return nil, err
	}
	err := unit.Bookings().Save(ctx, b)
	switch {
	case err == nil:
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, b); err != nil {
			return nil, err
		}
		metrics.BookingTransition(string(from), string(b.Status))
		return b, nil
	case !errors.Is(err, domainbooking.ErrDatesUnavailable):
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.WarnContext(ctx, "paid booking lost its dates", "booking_id", string(b.ID), "payment_ref", ref)
	}
	fresh, err := unit.Bookings().ByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if _, err := fresh.Cancel(domainbooking.ReasonDatesUnavailable, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, fresh); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, fresh); err != nil {
		return nil, err
	}
	metrics.BookingTransition(string(from), string(fresh.Status))
	return fresh, nil
}

var _ commands.Handler[RecordPaymentCommand, *dto.PaymentRecorded] = (*RecordPaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*RecordPaymentCommand)(nil)
