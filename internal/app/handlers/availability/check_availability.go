package availability

import (
	"context"
	"log/slog"

	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/queries"
	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	PropertyID       string `validate:"required"`
	CheckIn          string `validate:"required,isodate"`
	CheckOut         string `validate:"required,isodate"`
	ExcludeBookingID string
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory    uow.UoWFactory
	SymmetricPrep bool
	Metrics       handlersupport.Metrics
	Logger        *slog.Logger
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.ConflictReport, error) {
	stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.ConflictReport{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ConflictReport{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	propertyID := domainlistings.PropertyID(q.PropertyID)
	if _, err := unit.Properties().ByID(execCtx, propertyID); err != nil {
		return dto.ConflictReport{}, err
	}
	resolver := domainavailability.NewResolver(unit.Availability(), domainavailability.WithSymmetricPrepBuffer(h.SymmetricPrep))
	report, err := resolver.ResolveConflict(execCtx, domainavailability.ConflictQuery{
		PropertyID:       propertyID,
		Stay:             stay,
		ExcludeBookingID: q.ExcludeBookingID,
	})
	if err != nil {
		return dto.ConflictReport{}, err
	}
	handlersupport.MetricsOrNoop(h.Metrics).AvailabilityChecked(report.HasConflict)
	if report.HasConflict && h.Logger != nil {
		h.Logger.DebugContext(ctx, "availability conflict",
			"property_id", q.PropertyID,
			"range", stay.String(),
			"dates", report.DateStrings(),
		)
	}
	return dto.MapConflictReport(q.PropertyID, stay, report), nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.ConflictReport] = (*CheckAvailabilityHandler)(nil)
