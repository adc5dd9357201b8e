package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentnow/internal/domain/cancellation"
	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/pricing"
	"rentnow/internal/domain/shared/daterange"
	"rentnow/internal/domain/shared/events"
)

var (
	ErrInvalidGuests    = errors.New("booking: guests count must be positive")
	ErrGuestRequired    = errors.New("booking: guest id required")
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrForbidden        = errors.New("booking: not allowed for this user")
	ErrDatesUnavailable = errors.New("booking: dates unavailable")
	ErrDatesBlocked     = errors.New("booking: dates blocked by host")
	ErrNotCancellable   = errors.New("booking: status does not allow cancellation")
)

// Cancellation reasons stored on the booking.
const (
	ReasonGuest            = "guest_cancelled"
	ReasonHost             = "host_cancelled"
	ReasonDatesUnavailable = "dates_unavailable"
)

type BookingID string

type Booking struct {
	ID                 BookingID
	PropertyID         listings.PropertyID
	HostID             listings.HostID
	GuestID            string
	Range              daterange.DateRange
	Guests             int
	NightlyPriceMinor  int64
	CleaningFeeMinor   int64
	DepositMinor       int64
	Currency           string
	Status             Status
	CancellationPolicy cancellation.Policy
	CancelReason       string
	RespondBy          time.Time
	ExpiresAt          time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Create and Save report overlapping blocking stays as ErrDatesUnavailable.
	Create(ctx context.Context, booking *Booking) error
	Save(ctx context.Context, booking *Booking) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Booking, error)
}

type CreateParams struct {
	ID       BookingID
	Property *listings.Property
	GuestID  string
	Range    daterange.DateRange
	Guests   int
	Windows  Windows
	Now      time.Time
}

// Windows are the deadlines applied to a new booking.
type Windows struct {
	HostResponse time.Duration
	Payment      time.Duration
}

// NewBooking captures the property's current rates; later listing price changes never touch it.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.Property == nil {
		return nil, listings.ErrPropertyNotFound
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	settings := params.Property.Shortlet.Normalized()
	now := params.Now.UTC()
	status := StatusPending
	if settings.PaymentBeforeConfirm {
		status = StatusPendingPayment
	}
	b := &Booking{
		ID:                 params.ID,
		PropertyID:         params.Property.ID,
		HostID:             params.Property.Host,
		GuestID:            strings.TrimSpace(params.GuestID),
		Range:              params.Range,
		Guests:             params.Guests,
		NightlyPriceMinor:  params.Property.NightlyPriceMinor,
		CleaningFeeMinor:   params.Property.CleaningFeeMinor,
		DepositMinor:       params.Property.DepositMinor,
		Currency:           params.Property.Currency,
		Status:             status,
		CancellationPolicy: cancellation.Resolve(&settings),
		RespondBy:          now.Add(params.Windows.HostResponse),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if status == StatusPendingPayment {
		b.ExpiresAt = now.Add(params.Windows.Payment)
	}
	if _, err := b.Pricing(); err != nil {
		return nil, err
	}
	b.Record(BookingRequested{BookingID: b.ID, PropertyID: b.PropertyID, GuestID: b.GuestID, Range: b.Range, Status: b.Status, TotalMinor: b.mustTotal(), At: now})
	if status == StatusPending {
		b.Record(BookingAwaitingHost{BookingID: b.ID, HostID: b.HostID, RespondBy: b.RespondBy, At: now})
	}
	return b, nil
}

// Pricing recomputes the breakdown from the rates stored on the booking.
func (b *Booking) Pricing() (pricing.Breakdown, error) {
	breakdown, err := pricing.Quote(b.Range, b.NightlyPriceMinor, pricing.Fees{CleaningFeeMinor: b.CleaningFeeMinor, DepositMinor: b.DepositMinor})
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return breakdown.WithCurrency(b.Currency), nil
}

func (b *Booking) mustTotal() int64 {
	p, _ := b.Pricing()
	return p.TotalAmountMinor
}

func (b *Booking) move(to Status, now time.Time) error {
	if err := Transition(b.Status, to); err != nil {
		return err
	}
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Version++
	return nil
}

// MarkPaid hands a paid booking to the host for a response.
func (b *Booking) MarkPaid(paymentRef string, now time.Time) error {
	if err := b.move(StatusPending, now); err != nil {
		return err
	}
	b.ExpiresAt = time.Time{}
	if b.RespondBy.Before(b.UpdatedAt) {
		b.RespondBy = b.UpdatedAt
	}
	b.Record(BookingAwaitingHost{BookingID: b.ID, HostID: b.HostID, PaymentRef: paymentRef, RespondBy: b.RespondBy, At: b.UpdatedAt})
	return nil
}

// RespondAsHost applies a host decision.
func (b *Booking) RespondAsHost(host listings.HostID, action Action, now time.Time) error {
	if b.HostID != host {
		return ErrForbidden
	}
	next, err := Respond(b.Status, action)
	if err != nil {
		return err
	}
	if err := b.move(next, now); err != nil {
		return err
	}
	if next == StatusConfirmed {
		b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Range: b.Range, TotalMinor: b.mustTotal(), At: b.UpdatedAt})
		return nil
	}
	b.Record(BookingDeclined{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Cancel moves a cancellable booking to cancelled and returns the refund split.
func (b *Booking) Cancel(reason string, now time.Time) (cancellation.Refund, error) {
	if !IsCancellable(b.Status) {
		return cancellation.Refund{}, ErrNotCancellable
	}
	price, err := b.Pricing()
	if err != nil {
		return cancellation.Refund{}, err
	}
	refund := cancellation.CalculateRefund(b.CancellationPolicy, price, b.Range.CheckIn, now.UTC())
	switch {
	case b.Status == StatusPendingPayment:
		refund = cancellation.Refund{Policy: refund.Policy, Full: true}
	case reason == ReasonHost:
		refund = cancellation.Refund{Policy: refund.Policy, RefundMinor: price.TotalAmountMinor, Full: true}
	}
	if err := b.move(StatusCancelled, now); err != nil {
		return cancellation.Refund{}, err
	}
	b.CancelReason = reason
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, RefundMinor: refund.RefundMinor, PenaltyMinor: refund.PenaltyMinor, At: b.UpdatedAt})
	return refund, nil
}

// Overdue reports whether the booking's current deadline has passed.
func (b *Booking) Overdue(now time.Time) bool {
	switch b.Status {
	case StatusPendingPayment:
		return !b.ExpiresAt.IsZero() && !now.Before(b.ExpiresAt)
	case StatusPending:
		return !b.RespondBy.IsZero() && !now.Before(b.RespondBy)
	case StatusConfirmed:
		return !daterange.Day(now).Before(b.Range.CheckOut)
	}
	return false
}

// Expire ends an unpaid or unanswered booking after its deadline.
func (b *Booking) Expire(now time.Time) error {
	if b.Status != StatusPendingPayment && b.Status != StatusPending {
		return ErrInvalidStatusTransition
	}
	if !b.Overdue(now) {
		return ErrInvalidStatusTransition
	}
	if err := b.move(StatusExpired, now); err != nil {
		return err
	}
	b.Record(BookingExpired{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Complete closes a confirmed stay once its checkout date is reached.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed || !b.Overdue(now) {
		return ErrInvalidStatusTransition
	}
	if err := b.move(StatusCompleted, now); err != nil {
		return err
	}
	b.Record(BookingCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}
