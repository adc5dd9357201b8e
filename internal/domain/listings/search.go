package listings

import (
	"strings"
	"time"

	"rentnow/internal/domain/shared/daterange"
)

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"
	SortByRating    CatalogSort = "rating_desc"
	SortByNewest    CatalogSort = "newest"
)

// SearchParams describe catalog filters and the resolved page window.
type SearchParams struct {
	Host          HostID
	City          string
	Country       string
	Query         string
	MinGuests     int
	PriceMinMinor int64
	PriceMaxMinor int64
	CheckIn       time.Time
	CheckOut      time.Time
	Sort          CatalogSort
	Page          Descriptor
	OnlyActive    bool
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.City = strings.TrimSpace(strings.ToLower(normalized.City))
	normalized.Country = strings.TrimSpace(strings.ToLower(normalized.Country))
	normalized.Query = strings.TrimSpace(strings.ToLower(normalized.Query))
	normalized.CheckIn = daterange.Day(normalized.CheckIn)
	normalized.CheckOut = daterange.Day(normalized.CheckOut)
	if normalized.CheckIn.IsZero() || normalized.CheckOut.IsZero() || !normalized.CheckOut.After(normalized.CheckIn) {
		normalized.CheckIn = time.Time{}
		normalized.CheckOut = time.Time{}
	}
	if normalized.MinGuests < 0 {
		normalized.MinGuests = 0
	}
	if normalized.PriceMinMinor < 0 {
		normalized.PriceMinMinor = 0
	}
	if normalized.PriceMaxMinor > 0 && normalized.PriceMaxMinor < normalized.PriceMinMinor {
		normalized.PriceMaxMinor = 0
	}
	if normalized.Page.Limit <= 0 {
		normalized.Page = ResolvePagination(PaginationInput{
			Limit:  normalized.Page.Limit,
			Cursor: normalized.Page.Cursor,
		})
	}
	if normalized.Page.Offset < 0 {
		normalized.Page.Offset = 0
	}
	switch normalized.Sort {
	case SortByPriceAsc, SortByPriceDesc, SortByRating, SortByNewest:
	default:
		normalized.Sort = SortByPriceAsc
	}
	return normalized
}

// Stay returns the requested stay when both dates are set.
func (p SearchParams) Stay() (daterange.DateRange, bool) {
	if p.CheckIn.IsZero() || p.CheckOut.IsZero() {
		return daterange.DateRange{}, false
	}
	return daterange.DateRange{CheckIn: p.CheckIn, CheckOut: p.CheckOut}, true
}

// Matches applies the non-date filters to a single property.
func (p SearchParams) Matches(prop *Property) bool {
	if prop == nil {
		return false
	}
	if p.OnlyActive && !prop.Active() {
		return false
	}
	if p.Host != "" && prop.Host != p.Host {
		return false
	}
	if p.City != "" && strings.ToLower(prop.City) != p.City {
		return false
	}
	if p.Country != "" && strings.ToLower(prop.Country) != p.Country {
		return false
	}
	if p.Query != "" && !strings.Contains(strings.ToLower(prop.Title), p.Query) {
		return false
	}
	if p.MinGuests > 0 && prop.MaxGuests < p.MinGuests {
		return false
	}
	if p.PriceMinMinor > 0 && prop.NightlyPriceMinor < p.PriceMinMinor {
		return false
	}
	if p.PriceMaxMinor > 0 && prop.NightlyPriceMinor > p.PriceMaxMinor {
		return false
	}
	return true
}

// Less orders two properties by the requested sort, falling back to id so pages stay stable.
func (s CatalogSort) Less(a, b *Property) bool {
	switch s {
	case SortByPriceDesc:
		if a.NightlyPriceMinor != b.NightlyPriceMinor {
			return a.NightlyPriceMinor > b.NightlyPriceMinor
		}
	case SortByRating:
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
	case SortByNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		if a.NightlyPriceMinor != b.NightlyPriceMinor {
			return a.NightlyPriceMinor < b.NightlyPriceMinor
		}
	}
	return a.ID < b.ID
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Property
	Total int
}
