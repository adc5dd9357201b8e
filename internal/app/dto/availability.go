package dto

import (
	"rentnow/internal/domain/availability"
	"rentnow/internal/domain/shared/daterange"
)

type UnavailableRange struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Source    string `json:"source"`
	BookingID string `json:"booking_id,omitempty"`
	BlockID   string `json:"block_id,omitempty"`
}

type ConflictReport struct {
	PropertyID        string             `json:"property_id"`
	CheckIn           string             `json:"check_in"`
	CheckOut          string             `json:"check_out"`
	Available         bool               `json:"available"`
	HasConflict       bool               `json:"has_conflict"`
	ConflictingDates  []string           `json:"conflicting_dates"`
	ConflictingRanges []UnavailableRange `json:"conflicting_ranges"`
	PrepDays          int                `json:"prep_days"`
}

func MapUnavailableRanges(ranges []availability.UnavailableRange) []UnavailableRange {
	out := make([]UnavailableRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, UnavailableRange{
			Start:     daterange.Format(r.Start),
			End:       daterange.Format(r.End),
			Source:    string(r.Source),
			BookingID: r.BookingID,
			BlockID:   r.BlockID,
		})
	}
	return out
}

func MapConflictReport(propertyID string, stay daterange.DateRange, report availability.ConflictReport) ConflictReport {
	return ConflictReport{
		PropertyID:        propertyID,
		CheckIn:           daterange.Format(stay.CheckIn),
		CheckOut:          daterange.Format(stay.CheckOut),
		Available:         !report.HasConflict,
		HasConflict:       report.HasConflict,
		ConflictingDates:  report.DateStrings(),
		ConflictingRanges: MapUnavailableRanges(report.ConflictingRanges),
		PrepDays:          report.PrepDays,
	}
}

// Calendar is what a date picker needs to grey out nights.
type Calendar struct {
	PropertyID        string             `json:"property_id"`
	From              string             `json:"from"`
	To                string             `json:"to"`
	DisabledDates     []string           `json:"disabled_dates"`
	Ranges            []UnavailableRange `json:"ranges"`
	MinNights         int                `json:"min_nights"`
	MaxNights         int                `json:"max_nights,omitempty"`
	PrepDays          int                `json:"prep_days"`
	NextValidCheckOut *string            `json:"next_valid_check_out,omitempty"`
}

type HostBlock struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Note       string `json:"note,omitempty"`
}

func MapHostBlock(b *availability.HostBlock) HostBlock {
	if b == nil {
		return HostBlock{}
	}
	return HostBlock{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		Start:      daterange.Format(b.Range.CheckIn),
		End:        daterange.Format(b.Range.CheckOut),
		Note:       b.Note,
	}
}
