package cancellation

import (
	"strings"
	"time"

	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/pricing"
	"rentnow/internal/domain/shared/money"
)

type Policy string

const (
	Flexible24h Policy = "flexible_24h"
	Flexible48h Policy = "flexible_48h"
	Moderate5d  Policy = "moderate_5d"
	Strict      Policy = "strict"

	DefaultPolicy = Flexible48h
)

// Parse maps a stored value onto a known policy. Unknown values fall back to DefaultPolicy.
func Parse(raw string) Policy {
	switch p := Policy(strings.TrimSpace(strings.ToLower(raw))); p {
	case Flexible24h, Flexible48h, Moderate5d, Strict:
		return p
	default:
		return DefaultPolicy
	}
}

// Resolve picks the policy for a property; missing settings mean the default.
func Resolve(settings *listings.ShortletSettings) Policy {
	if settings == nil {
		return DefaultPolicy
	}
	return Parse(settings.CancellationPolicy)
}

func IsFree(p Policy) bool {
	return Parse(string(p)) != Strict
}

// FreeWindow is how long before check-in a guest may still cancel for free.
func FreeWindow(p Policy) time.Duration {
	switch Parse(string(p)) {
	case Flexible24h:
		return 24 * time.Hour
	case Moderate5d:
		return 5 * 24 * time.Hour
	case Strict:
		return 0
	default:
		return 48 * time.Hour
	}
}

func Label(p Policy) string {
	switch Parse(string(p)) {
	case Flexible24h:
		return "Free cancellation up to 24 hours before check-in"
	case Moderate5d:
		return "Free cancellation up to 5 days before check-in"
	case Strict:
		return "Non-refundable except the security deposit"
	default:
		return "Free cancellation up to 48 hours before check-in"
	}
}

// Terms is the guest-facing summary for a specific stay.
type Terms struct {
	Policy    Policy     `json:"policy"`
	Label     string     `json:"label"`
	Free      bool       `json:"free"`
	FreeUntil *time.Time `json:"free_until,omitempty"`
}

func TermsFor(p Policy, checkIn time.Time) Terms {
	p = Parse(string(p))
	terms := Terms{Policy: p, Label: Label(p), Free: IsFree(p)}
	if terms.Free && !checkIn.IsZero() {
		until := checkIn.UTC().Add(-FreeWindow(p))
		terms.FreeUntil = &until
	}
	return terms
}

// Refund is the split of a booking total when it is cancelled.
type Refund struct {
	Policy       Policy `json:"policy"`
	RefundMinor  int64  `json:"refund_minor"`
	PenaltyMinor int64  `json:"penalty_minor"`
	Full         bool   `json:"full"`
}

const partialRefundPercent = 50

// CalculateRefund decides how much of price goes back to the guest when cancelling at cancelAt.
// Inside the free window the whole total is returned. Later the deposit is always returned;
// non-strict policies also return cleaning and half the subtotal until check-in.
func CalculateRefund(p Policy, price pricing.Breakdown, checkIn, cancelAt time.Time) Refund {
	p = Parse(string(p))
	total := money.NonNegative(price.TotalAmountMinor)
	out := Refund{Policy: p}

	if IsFree(p) && cancelAt.Before(checkIn.Add(-FreeWindow(p))) {
		out.RefundMinor = total
		out.Full = true
		return out
	}

	refund := money.NonNegative(price.DepositMinor)
	if p != Strict && cancelAt.Before(checkIn) {
		subtotal := money.Money{Amount: money.NonNegative(price.SubtotalMinor)}
		refund += money.NonNegative(price.CleaningFeeMinor) + subtotal.Percent(partialRefundPercent).Amount
	}
	if refund > total {
		refund = total
	}
	out.RefundMinor = refund
	out.PenaltyMinor = total - refund
	out.Full = out.PenaltyMinor == 0
	return out
}
