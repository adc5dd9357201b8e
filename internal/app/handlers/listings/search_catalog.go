package listings

import (
	"context"

	"rentnow/internal/app/dto"
	handlersupport "rentnow/internal/app/handlers/support"
	"rentnow/internal/app/queries"
	"rentnow/internal/app/uow"
	domainavailability "rentnow/internal/domain/availability"
	"rentnow/internal/domain/cancellation"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

const (
	searchCatalogKey = "listings.catalog"
	// dated searches filter by availability in memory over at most this many matches
	maxAvailabilityScan = 500
)

// SearchCatalogQuery accepts either page/page_size or limit/cursor.
type SearchCatalogQuery struct {
	City          string
	Country       string
	Query         string
	MinGuests     int    `validate:"gte=0"`
	PriceMinMinor int64  `validate:"gte=0"`
	PriceMaxMinor int64  `validate:"gte=0"`
	CheckIn       string `validate:"omitempty,isodate"`
	CheckOut      string `validate:"omitempty,isodate"`
	Sort          string
	Page          int
	PageSize      int
	Limit         int
	Cursor        string
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

// SearchCatalogHandler loads active properties with applied filters.
type SearchCatalogHandler struct {
	UoWFactory    uow.UoWFactory
	SymmetricPrep bool
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.PropertyCatalog, error) {
	params, err := searchParams(q)
	if err != nil {
		return dto.PropertyCatalog{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var page domainlistings.Page[*domainlistings.Property]
	if stay, ok := params.Stay(); ok {
		page, err = h.searchAvailable(execCtx, unit, params, stay)
	} else {
		var result domainlistings.SearchResult
		result, err = unit.Properties().Search(execCtx, params)
		page = domainlistings.NewPage(result.Items, result.Total, params.Page)
	}
	if err != nil {
		return dto.PropertyCatalog{}, err
	}
	return dto.MapCatalog(page, params, policyLabel), nil
}

func (h *SearchCatalogHandler) searchAvailable(ctx context.Context, unit uow.UnitOfWork, params domainlistings.SearchParams, stay daterange.DateRange) (domainlistings.Page[*domainlistings.Property], error) {
	scan := params
	scan.Page = domainlistings.Descriptor{Mode: params.Page.Mode, Limit: maxAvailabilityScan}
	result, err := unit.Properties().Search(ctx, scan)
	if err != nil {
		return domainlistings.Page[*domainlistings.Property]{}, err
	}
	resolver := domainavailability.NewResolver(unit.Availability(), domainavailability.WithSymmetricPrepBuffer(h.SymmetricPrep))
	available := make([]*domainlistings.Property, 0, len(result.Items))
	for _, p := range result.Items {
		nights := stay.Nights()
		settings := p.Shortlet.Normalized()
		if nights < settings.MinNights || (settings.MaxNights > 0 && nights > settings.MaxNights) {
			continue
		}
		report, err := resolver.ResolveConflict(ctx, domainavailability.ConflictQuery{PropertyID: p.ID, Stay: stay})
		if err != nil {
			return domainlistings.Page[*domainlistings.Property]{}, err
		}
		if !report.HasConflict {
			available = append(available, p)
		}
	}
	return domainlistings.Paginate(available, params.Page), nil
}

func searchParams(q SearchCatalogQuery) (domainlistings.SearchParams, error) {
	params := domainlistings.SearchParams{
		City:          q.City,
		Country:       q.Country,
		Query:         q.Query,
		MinGuests:     q.MinGuests,
		PriceMinMinor: q.PriceMinMinor,
		PriceMaxMinor: q.PriceMaxMinor,
		Sort:          domainlistings.CatalogSort(q.Sort),
		OnlyActive:    true,
		Page: domainlistings.ResolvePagination(domainlistings.PaginationInput{
			Page:     q.Page,
			PageSize: q.PageSize,
			Limit:    q.Limit,
			Cursor:   q.Cursor,
		}),
	}
	if q.CheckIn != "" && q.CheckOut != "" {
		stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
		if err != nil {
			return domainlistings.SearchParams{}, err
		}
		params.CheckIn, params.CheckOut = stay.CheckIn, stay.CheckOut
	}
	return params.Normalized(), nil
}

func policyLabel(p *domainlistings.Property) string {
	return cancellation.Label(cancellation.Resolve(&p.Shortlet))
}

var _ queries.Handler[SearchCatalogQuery, dto.PropertyCatalog] = (*SearchCatalogHandler)(nil)
