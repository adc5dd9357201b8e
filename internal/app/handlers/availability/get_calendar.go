package availability

import (
	"context"
	"time"

	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/queries"
	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

const (
	getCalendarKey      = "availability.calendar"
	defaultCalendarDays = 90
	maxCalendarDays     = 366
	defaultCheckoutScan = 60
)

// GetCalendarQuery returns blocked nights for [From, To). With CheckIn set it
// also reports the earliest valid checkout from that date.
type GetCalendarQuery struct {
	PropertyID      string `validate:"required"`
	From            string `validate:"omitempty,isodate"`
	To              string `validate:"omitempty,isodate"`
	CheckIn         string `validate:"omitempty,isodate"`
	SearchLimitDays int    `validate:"gte=0,lte=366"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory    uow.UoWFactory
	SymmetricPrep bool
	Now           func() time.Time
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	window, err := calendarWindow(q, handlersupport.Now(h.Now))
	if err != nil {
		return dto.Calendar{}, err
	}
	var checkIn time.Time
	fetch := window
	scan := q.SearchLimitDays
	if scan <= 0 {
		scan = defaultCheckoutScan
	}
	if q.CheckIn != "" {
		checkIn, err = daterange.ParseDate(q.CheckIn)
		if err != nil {
			return dto.Calendar{}, err
		}
		fetch = union(window, daterange.DateRange{CheckIn: checkIn, CheckOut: daterange.AddDays(checkIn, scan)})
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	propertyID := domainlistings.PropertyID(q.PropertyID)
	if _, err := unit.Properties().ByID(execCtx, propertyID); err != nil {
		return dto.Calendar{}, err
	}
	resolver := domainavailability.NewResolver(unit.Availability(), domainavailability.WithSymmetricPrepBuffer(h.SymmetricPrep))
	settings, ranges, err := resolver.UnavailableRanges(execCtx, propertyID, fetch, "")
	if err != nil {
		return dto.Calendar{}, err
	}

	disabled := domainavailability.ExpandRangesToDisabledDates(ranges, window)
	out := dto.Calendar{
		PropertyID:    q.PropertyID,
		From:          daterange.Format(window.CheckIn),
		To:            daterange.Format(window.CheckOut),
		DisabledDates: disabled.Dates(),
		Ranges:        dto.MapUnavailableRanges(ranges),
		MinNights:     settings.MinNights,
		MaxNights:     settings.MaxNights,
		PrepDays:      settings.PrepDays,
	}
	if !checkIn.IsZero() {
		scanSet := domainavailability.ExpandRangesToDisabledDates(ranges, fetch)
		if end, ok := domainavailability.NextValidEndDate(checkIn, scanSet, settings.MinNights, settings.MaxNights, scan); ok {
			formatted := daterange.Format(end)
			out.NextValidCheckOut = &formatted
		}
	}
	return out, nil
}

func calendarWindow(q GetCalendarQuery, now time.Time) (daterange.DateRange, error) {
	from := daterange.Day(now)
	if q.From != "" {
		parsed, err := daterange.ParseDate(q.From)
		if err != nil {
			return daterange.DateRange{}, err
		}
		from = parsed
	}
	to := daterange.AddDays(from, defaultCalendarDays)
	if q.To != "" {
		parsed, err := daterange.ParseDate(q.To)
		if err != nil {
			return daterange.DateRange{}, err
		}
		to = parsed
	}
	if daterange.DaysBetween(from, to) > maxCalendarDays {
		to = daterange.AddDays(from, maxCalendarDays)
	}
	return daterange.New(from, to)
}

func union(a, b daterange.DateRange) daterange.DateRange {
	out := a
	if b.CheckIn.Before(out.CheckIn) {
		out.CheckIn = b.CheckIn
	}
	if b.CheckOut.After(out.CheckOut) {
		out.CheckOut = b.CheckOut
	}
	return out
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
