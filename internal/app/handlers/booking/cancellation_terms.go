package booking

import (
	"context"
	"time"

	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/queries"
	"rentnow/internal/app/uow"
	"rentnow/internal/domain/cancellation"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

const cancellationTermsKey = "booking.cancellation_terms"

type GetCancellationTermsQuery struct {
	PropertyID string `validate:"required"`
	CheckIn    string `validate:"omitempty,isodate"`
}

func (q GetCancellationTermsQuery) Key() string { return cancellationTermsKey }

type GetCancellationTermsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle falls back to the property's default policy when settings are missing.
func (h *GetCancellationTermsHandler) Handle(ctx context.Context, q GetCancellationTermsQuery) (dto.CancellationTerms, error) {
	var checkIn time.Time
	if q.CheckIn != "" {
		parsed, err := daterange.ParseDate(q.CheckIn)
		if err != nil {
			return dto.CancellationTerms{}, err
		}
		checkIn = parsed
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CancellationTerms{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	property, err := unit.Properties().ByID(execCtx, domainlistings.PropertyID(q.PropertyID))
	if err != nil {
		return dto.CancellationTerms{}, err
	}
	terms := cancellation.TermsFor(cancellation.Resolve(&property.Shortlet), checkIn)
	return dto.MapTerms(q.PropertyID, terms), nil
}

var _ queries.Handler[GetCancellationTermsQuery, dto.CancellationTerms] = (*GetCancellationTermsHandler)(nil)
