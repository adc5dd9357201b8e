package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	bookinghandlers "rentnow/internal/app/handlers/booking"
	"rentnow/internal/app/principal"
)

var ErrSweeperNotConfigured = errors.New("schedule: sweeper missing bus")

// Sweeper periodically expires overdue bookings and completes finished stays.
type Sweeper struct {
	Bus       commands.Bus
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	if s.Bus == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && s.Logger != nil {
				s.Logger.ErrorContext(ctx, "booking sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce drains due bookings batch by batch until a batch comes back short.
func (s *Sweeper) SweepOnce(ctx context.Context) (dto.ExpirySummary, error) {
	sysCtx := principal.WithPrincipal(ctx, principal.Principal{UserID: "sweeper", Role: principal.RoleSystem})
	batch := s.batchSize()
	var total dto.ExpirySummary
	for {
		summary, err := commands.Dispatch[bookinghandlers.ExpireBookingsCommand, dto.ExpirySummary](sysCtx, s.Bus, bookinghandlers.ExpireBookingsCommand{Limit: batch})
		if err != nil {
			return total, err
		}
		total.Expired += summary.Expired
		total.Completed += summary.Completed
		total.Failed += summary.Failed
		moved := summary.Expired + summary.Completed
		if moved == 0 || moved+summary.Failed < batch {
			break
		}
	}
	if s.Logger != nil && total.Expired+total.Completed > 0 {
		s.Logger.InfoContext(ctx, "bookings swept", "expired", total.Expired, "completed", total.Completed, "skipped", total.Failed)
	}
	return total, nil
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *Sweeper) batchSize() int {
	if s.BatchSize <= 0 {
		return 100
	}
	return s.BatchSize
}
