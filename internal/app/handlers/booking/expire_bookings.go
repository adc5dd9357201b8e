package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
)

const (
	expireBookingsKey  = "booking.expire_due"
	defaultExpireBatch = 100
)

// ExpireBookingsCommand expires unanswered or unpaid bookings and completes
// confirmed stays whose checkout has passed.
type ExpireBookingsCommand struct {
	Limit int `validate:"gte=0,lte=1000"`
}

func (c ExpireBookingsCommand) Key() string { return expireBookingsKey }

func (c ExpireBookingsCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleSystem}
}

type ExpireBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Metrics    handlersupport.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ExpireBookingsHandler) Handle(ctx context.Context, cmd ExpireBookingsCommand) (dto.ExpirySummary, error) {
	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultExpireBatch
	}
	unit, execCtx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ExpirySummary{}, err
	}
	defer unit.Close(execCtx)

	now := handlersupport.Now(h.Now)
	due, err := unit.Bookings().ListDue(execCtx, now, limit)
	if err != nil {
		return dto.ExpirySummary{}, err
	}

	metrics := handlersupport.MetricsOrNoop(h.Metrics)
	var summary dto.ExpirySummary
	for _, b := range due {
		from := b.Status
		var stepErr error
		if b.Status == domainbooking.StatusConfirmed {
			stepErr = b.Complete(now)
		} else {
			stepErr = b.Expire(now)
		}
		if stepErr != nil {
			if !errors.Is(stepErr, domainbooking.ErrInvalidStatusTransition) {
				return summary, stepErr
			}
			summary.Failed++
			h.warn(ctx, "booking not due", "booking_id", string(b.ID), "status", string(b.Status))
			continue
		}
		if err := unit.Bookings().Save(execCtx, b); err != nil {
			return summary, err
		}
		if err := outbox.Drain(execCtx, h.Outbox, h.Encoder, b); err != nil {
			return summary, err
		}
		metrics.BookingTransition(string(from), string(b.Status))
		if b.Status == domainbooking.StatusCompleted {
			summary.Completed++
		} else {
			summary.Expired++
		}
	}
	if err := unit.Commit(execCtx); err != nil {
		return dto.ExpirySummary{}, err
	}
	return summary, nil
}

func (h *ExpireBookingsHandler) warn(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.WarnContext(ctx, msg, args...)
	}
}

var _ commands.Handler[ExpireBookingsCommand, dto.ExpirySummary] = (*ExpireBookingsHandler)(nil)
