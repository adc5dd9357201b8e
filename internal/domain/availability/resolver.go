package availability

import (
	"context"
	"fmt"
	"time"

	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

type BookingRow struct {
	ID    string
	Range daterange.DateRange
}

type BlockRow struct {
	ID    string
	Range daterange.DateRange
}

// BlockingRows are bookings in a blocking status and host blocks overlapping a window.
type BlockingRows struct {
	Bookings []BookingRow
	Blocks   []BlockRow
}

// BlockingStore is the storage collaborator the resolver reads from.
type BlockingStore interface {
	ListBlockingRows(ctx context.Context, propertyID listings.PropertyID, window daterange.DateRange) (BlockingRows, error)
	ShortletSettings(ctx context.Context, propertyID listings.PropertyID) (listings.ShortletSettings, error)
}

type ConflictQuery struct {
	PropertyID       listings.PropertyID
	Stay             daterange.DateRange
	ExcludeBookingID string
}

type ConflictReport struct {
	HasConflict       bool               `json:"has_conflict"`
	ConflictingDates  []time.Time        `json:"conflicting_dates"`
	ConflictingRanges []UnavailableRange `json:"conflicting_ranges"`
	PrepDays          int                `json:"prep_days"`
}

// DateStrings renders the conflicting nights as YYYY-MM-DD.
func (r ConflictReport) DateStrings() []string {
	out := make([]string, 0, len(r.ConflictingDates))
	for _, d := range r.ConflictingDates {
		out = append(out, daterange.Format(d))
	}
	return out
}

// OnlyHostBlocks reports whether every conflicting range is a host block.
func (r ConflictReport) OnlyHostBlocks() bool {
	if !r.HasConflict {
		return false
	}
	for _, cr := range r.ConflictingRanges {
		if cr.Source != SourceHostBlock {
			return false
		}
	}
	return true
}

type Resolver struct {
	store     BlockingStore
	symmetric bool
}

type ResolverOption func(*Resolver)

// WithSymmetricPrepBuffer also pads the nights before a booking's checkin. By
// default only the nights after a booking's checkout are padded, so a new stay
// cannot begin within prepDays of a prior checkout.
func WithSymmetricPrepBuffer(enabled bool) ResolverOption {
	return func(r *Resolver) { r.symmetric = enabled }
}

func NewResolver(store BlockingStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveConflict checks a candidate stay against the property's blocking rows.
// It is a pre-flight filter; storage constraints remain the final word.
func (r *Resolver) ResolveConflict(ctx context.Context, q ConflictQuery) (ConflictReport, error) {
	if err := q.Stay.Validate(); err != nil {
		return ConflictReport{}, err
	}
	settings, ranges, err := r.UnavailableRanges(ctx, q.PropertyID, q.Stay, q.ExcludeBookingID)
	if err != nil {
		return ConflictReport{}, err
	}
	dates, hits := FindConflicts(q.Stay, ranges)
	return ConflictReport{
		HasConflict:       len(hits) > 0,
		ConflictingDates:  dates,
		ConflictingRanges: hits,
		PrepDays:          settings.PrepDays,
	}, nil
}

// UnavailableRanges loads settings and the padded ranges that can touch window.
func (r *Resolver) UnavailableRanges(ctx context.Context, propertyID listings.PropertyID, window daterange.DateRange, excludeBookingID string) (listings.ShortletSettings, []UnavailableRange, error) {
	settings, err := r.store.ShortletSettings(ctx, propertyID)
	if err != nil {
		return listings.ShortletSettings{}, nil, fmt.Errorf("availability: load settings: %w", err)
	}
	settings = settings.Normalized()
	prep := settings.PrepDays

	after := 0
	if r.symmetric {
		after = prep
	}
	rows, err := r.store.ListBlockingRows(ctx, propertyID, window.Pad(prep, after))
	if err != nil {
		return listings.ShortletSettings{}, nil, fmt.Errorf("availability: list blocking rows: %w", err)
	}
	return settings, r.Expand(rows, prep, excludeBookingID), nil
}

// Expand converts blocking rows into unavailable ranges, padding bookings by the prep buffer.
func (r *Resolver) Expand(rows BlockingRows, prepDays int, excludeBookingID string) []UnavailableRange {
	out := make([]UnavailableRange, 0, len(rows.Bookings)+len(rows.Blocks))
	before := 0
	if r.symmetric {
		before = prepDays
	}
	for _, b := range rows.Bookings {
		if excludeBookingID != "" && b.ID == excludeBookingID {
			continue
		}
		if b.Range.Degenerate() {
			continue
		}
		padded := b.Range.Pad(before, prepDays)
		out = append(out, UnavailableRange{Start: padded.CheckIn, End: padded.CheckOut, Source: SourceBooking, BookingID: b.ID})
	}
	for _, b := range rows.Blocks {
		if b.Range.Degenerate() {
			continue
		}
		out = append(out, UnavailableRange{Start: b.Range.CheckIn, End: b.Range.CheckOut, Source: SourceHostBlock, BlockID: b.ID})
	}
	return out
}
