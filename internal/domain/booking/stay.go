package booking

import (
	"errors"
	"time"

	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

var (
	ErrCheckInInPast    = errors.New("booking: check-in date is in the past")
	ErrAdvanceNotice    = errors.New("booking: check-in violates advance notice")
	ErrNightsOutOfRange = errors.New("booking: stay length outside allowed nights")
)

// ValidateStay checks a requested stay against the property's stay rules.
func ValidateStay(dr daterange.DateRange, settings listings.ShortletSettings, now time.Time) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	settings = settings.Normalized()
	today := daterange.Day(now)
	if dr.CheckIn.Before(today) {
		return ErrCheckInInPast
	}
	if daterange.DaysBetween(today, dr.CheckIn) < settings.AdvanceNoticeDays {
		return ErrAdvanceNotice
	}
	nights := dr.Nights()
	if nights < settings.MinNights || (settings.MaxNights > 0 && nights > settings.MaxNights) {
		return ErrNightsOutOfRange
	}
	return nil
}
