package dto

import (
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

// PropertyCatalog is a paginated collection of properties.
type PropertyCatalog struct {
	Items      []PropertyCard  `json:"items"`
	Filters    CatalogFilters  `json:"filters"`
	Meta       CatalogMetadata `json:"meta"`
	NextCursor *string         `json:"next_cursor"`
}

// PropertyCard is a lightweight representation for catalog cards.
type PropertyCard struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	City               string  `json:"city"`
	Country            string  `json:"country"`
	MaxGuests          int     `json:"max_guests"`
	MinNights          int     `json:"min_nights"`
	MaxNights          int     `json:"max_nights,omitempty"`
	NightlyPriceMinor  int64   `json:"nightly_price_minor"`
	CleaningFeeMinor   int64   `json:"cleaning_fee_minor"`
	Currency           string  `json:"currency"`
	Rating             float64 `json:"rating"`
	CancellationPolicy string  `json:"cancellation_policy"`
}

// CatalogFilters echoes back the applied filters.
type CatalogFilters struct {
	City          string `json:"city"`
	Country       string `json:"country"`
	Query         string `json:"query"`
	MinGuests     int    `json:"min_guests"`
	PriceMinMinor int64  `json:"price_min_minor"`
	PriceMaxMinor int64  `json:"price_max_minor"`
	CheckIn       string `json:"check_in,omitempty"`
	CheckOut      string `json:"check_out,omitempty"`
}

// CatalogMetadata describes pagination.
type CatalogMetadata struct {
	Mode   string `json:"mode"`
	Total  int    `json:"total"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Page   int    `json:"page"`
	Sort   string `json:"sort"`
}

// MapCatalog builds the response from an already windowed page.
func MapCatalog(page domainlistings.Page[*domainlistings.Property], params domainlistings.SearchParams, policyOf func(*domainlistings.Property) string) PropertyCatalog {
	items := make([]PropertyCard, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, MapPropertyCard(p, policyOf))
	}
	filters := CatalogFilters{
		City:          params.City,
		Country:       params.Country,
		Query:         params.Query,
		MinGuests:     params.MinGuests,
		PriceMinMinor: params.PriceMinMinor,
		PriceMaxMinor: params.PriceMaxMinor,
	}
	if stay, ok := params.Stay(); ok {
		filters.CheckIn = daterange.Format(stay.CheckIn)
		filters.CheckOut = daterange.Format(stay.CheckOut)
	}
	pageNumber := 1
	if page.Limit > 0 {
		pageNumber = page.Offset/page.Limit + 1
	}
	return PropertyCatalog{
		Items:   items,
		Filters: filters,
		Meta: CatalogMetadata{
			Mode:   string(params.Page.Mode),
			Total:  page.Total,
			Count:  len(items),
			Limit:  page.Limit,
			Offset: page.Offset,
			Page:   pageNumber,
			Sort:   string(params.Sort),
		},
		NextCursor: page.NextCursor,
	}
}

// MapPropertyCard copies domain data for frontend consumption.
func MapPropertyCard(p *domainlistings.Property, policyOf func(*domainlistings.Property) string) PropertyCard {
	if p == nil {
		return PropertyCard{}
	}
	settings := p.Shortlet.Normalized()
	card := PropertyCard{
		ID:                string(p.ID),
		Title:             p.Title,
		City:              p.City,
		Country:           p.Country,
		MaxGuests:         p.MaxGuests,
		MinNights:         settings.MinNights,
		MaxNights:         settings.MaxNights,
		NightlyPriceMinor: p.NightlyPriceMinor,
		CleaningFeeMinor:  p.CleaningFeeMinor,
		Currency:          p.Currency,
		Rating:            p.Rating,
	}
	if policyOf != nil {
		card.CancellationPolicy = policyOf(p)
	}
	return card
}
