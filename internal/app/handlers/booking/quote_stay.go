package booking

import (
	"context"

	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/queries"
	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/pricing"
	"rentnow/internal/domain/shared/daterange"
)

const quoteStayKey = "booking.quote"

// QuoteStayQuery prices a stay at the property's current rates and reports
// whether the nights are free.
type QuoteStayQuery struct {
	PropertyID string `validate:"required"`
	CheckIn    string `validate:"required,isodate"`
	CheckOut   string `validate:"required,isodate"`
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

type QuoteStayHandler struct {
	UoWFactory    uow.UoWFactory
	SymmetricPrep bool
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.Quote, error) {
	stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	property, err := unit.Properties().ByID(execCtx, domainlistings.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Quote{}, err
	}
	breakdown, err := pricing.Quote(stay, property.NightlyPriceMinor, pricing.Fees{
		CleaningFeeMinor: property.CleaningFeeMinor,
		DepositMinor:     property.DepositMinor,
	})
	if err != nil {
		return dto.Quote{}, err
	}

	resolver := domainavailability.NewResolver(unit.Availability(), domainavailability.WithSymmetricPrepBuffer(h.SymmetricPrep))
	report, err := resolver.ResolveConflict(execCtx, domainavailability.ConflictQuery{PropertyID: property.ID, Stay: stay})
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.Quote{
		PropertyID: q.PropertyID,
		CheckIn:    daterange.Format(stay.CheckIn),
		CheckOut:   daterange.Format(stay.CheckOut),
		Available:  !report.HasConflict && property.Active(),
		Pricing:    dto.MapPriceBreakdown(breakdown.WithCurrency(property.Currency)),
	}, nil
}

var _ queries.Handler[QuoteStayQuery, dto.Quote] = (*QuoteStayHandler)(nil)
