package dto

import (
	"time"

	"rentnow/internal/domain/booking"
	"rentnow/internal/domain/cancellation"
	"rentnow/internal/domain/shared/daterange"
)

type Booking struct {
	ID                 string         `json:"id"`
	PropertyID         string         `json:"property_id"`
	GuestID            string         `json:"guest_id"`
	CheckIn            string         `json:"check_in"`
	CheckOut           string         `json:"check_out"`
	Guests             int            `json:"guests"`
	Status             string         `json:"status"`
	CancellationPolicy string         `json:"cancellation_policy"`
	CancelReason       string         `json:"cancel_reason,omitempty"`
	Pricing            PriceBreakdown `json:"pricing"`
	RespondBy          *time.Time     `json:"respond_by,omitempty"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func MapBooking(b *booking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	out := Booking{
		ID:                 string(b.ID),
		PropertyID:         string(b.PropertyID),
		GuestID:            b.GuestID,
		CheckIn:            daterange.Format(b.Range.CheckIn),
		CheckOut:           daterange.Format(b.Range.CheckOut),
		Guests:             b.Guests,
		Status:             string(b.Status),
		CancellationPolicy: string(b.CancellationPolicy),
		CancelReason:       b.CancelReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if price, err := b.Pricing(); err == nil {
		out.Pricing = MapPriceBreakdown(price)
	}
	if b.Status == booking.StatusPending && !b.RespondBy.IsZero() {
		respondBy := b.RespondBy
		out.RespondBy = &respondBy
	}
	if b.Status == booking.StatusPendingPayment && !b.ExpiresAt.IsZero() {
		expiresAt := b.ExpiresAt
		out.ExpiresAt = &expiresAt
	}
	return out
}

type CancelResult struct {
	Booking Booking       `json:"booking"`
	Refund  RefundSummary `json:"refund"`
}

type RefundSummary struct {
	Policy       string `json:"policy"`
	RefundMinor  int64  `json:"refund_minor"`
	PenaltyMinor int64  `json:"penalty_minor"`
	Full         bool   `json:"full"`
}

func MapRefund(r cancellation.Refund) RefundSummary {
	return RefundSummary{Policy: string(r.Policy), RefundMinor: r.RefundMinor, PenaltyMinor: r.PenaltyMinor, Full: r.Full}
}

type CancellationTerms struct {
	PropertyID string     `json:"property_id"`
	Policy     string     `json:"policy"`
	Label      string     `json:"label"`
	Free       bool       `json:"free"`
	FreeUntil  *time.Time `json:"free_until,omitempty"`
}

func MapTerms(propertyID string, t cancellation.Terms) CancellationTerms {
	return CancellationTerms{PropertyID: propertyID, Policy: string(t.Policy), Label: t.Label, Free: t.Free, FreeUntil: t.FreeUntil}
}

type ExpirySummary struct {
	Expired   int `json:"expired"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
