package pricing

import (
	"errors"
	"time"

	"rentnow/internal/domain/shared/daterange"
	"rentnow/internal/domain/shared/money"
)

var (
	ErrInvalidDate   = errors.New("pricing: invalid date")
	ErrInvalidNights = errors.New("pricing: checkout must be at least one night after checkin")
)

// Breakdown is the derived cost of a stay. It is computed from the nightly rate
// captured at booking time and is never persisted on its own.
type Breakdown struct {
	Nights            int    `json:"nights"`
	NightlyPriceMinor int64  `json:"nightly_price_minor"`
	SubtotalMinor     int64  `json:"subtotal_minor"`
	CleaningFeeMinor  int64  `json:"cleaning_fee_minor"`
	DepositMinor      int64  `json:"deposit_minor"`
	TotalAmountMinor  int64  `json:"total_amount_minor"`
	Currency          string `json:"currency,omitempty"`
}

// Fees groups the optional one-off charges of a stay.
type Fees struct {
	CleaningFeeMinor int64
	DepositMinor     int64
}

// CalculateNights parses both dates as UTC calendar days and counts the nights between them.
func CalculateNights(checkIn, checkOut string) (int, error) {
	in, err := daterange.ParseDate(checkIn)
	if err != nil {
		return 0, ErrInvalidDate
	}
	out, err := daterange.ParseDate(checkOut)
	if err != nil {
		return 0, ErrInvalidDate
	}
	return NightsBetween(in, out)
}

// NightsBetween counts nights between two already parsed dates.
func NightsBetween(checkIn, checkOut time.Time) (int, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0, ErrInvalidDate
	}
	nights := daterange.DaysBetween(checkIn, checkOut)
	if nights < 1 {
		return 0, ErrInvalidNights
	}
	return nights, nil
}

// CalculatePricing prices a stay given as YYYY-MM-DD strings.
func CalculatePricing(checkIn, checkOut string, nightlyPriceMinor int64, fees Fees) (Breakdown, error) {
	nights, err := CalculateNights(checkIn, checkOut)
	if err != nil {
		return Breakdown{}, err
	}
	return build(nights, nightlyPriceMinor, fees), nil
}

// Quote prices an already validated range.
func Quote(dr daterange.DateRange, nightlyPriceMinor int64, fees Fees) (Breakdown, error) {
	nights, err := NightsBetween(dr.CheckIn, dr.CheckOut)
	if err != nil {
		return Breakdown{}, err
	}
	return build(nights, nightlyPriceMinor, fees), nil
}

func build(nights int, nightly int64, fees Fees) Breakdown {
	nightly = money.NonNegative(nightly)
	cleaning := money.NonNegative(fees.CleaningFeeMinor)
	deposit := money.NonNegative(fees.DepositMinor)
	subtotal := nightly * int64(nights)
	return Breakdown{
		Nights:            nights,
		NightlyPriceMinor: nightly,
		SubtotalMinor:     subtotal,
		CleaningFeeMinor:  cleaning,
		DepositMinor:      deposit,
		TotalAmountMinor:  subtotal + cleaning + deposit,
	}
}

// WithCurrency tags the breakdown with the property's currency.
func (b Breakdown) WithCurrency(currency string) Breakdown {
	b.Currency = currency
	return b
}

// Total returns the total as Money.
func (b Breakdown) Total() money.Money {
	return money.Money{Amount: b.TotalAmountMinor, Currency: b.Currency}
}

// RangesOverlap reports whether two stays share at least one night.
func RangesOverlap(a, b daterange.DateRange) bool {
	return a.Overlaps(b)
}
