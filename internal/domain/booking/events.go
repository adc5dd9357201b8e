package booking

import (
	"time"

	"rentnow/internal/domain/listings"
	"rentnow/internal/domain/shared/daterange"
)

type BookingRequested struct {
	BookingID  BookingID
	PropertyID listings.PropertyID
	GuestID    string
	Range      daterange.DateRange
	Status     Status
	TotalMinor int64
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingAwaitingHost struct {
	BookingID  BookingID
	HostID     listings.HostID
	PaymentRef string
	RespondBy  time.Time
	At         time.Time
}

func (e BookingAwaitingHost) EventName() string     { return "booking.awaiting_host" }
func (e BookingAwaitingHost) AggregateID() string   { return string(e.BookingID) }
func (e BookingAwaitingHost) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID  BookingID
	PropertyID listings.PropertyID
	Range      daterange.DateRange
	TotalMinor int64
	At         time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingDeclined struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingDeclined) EventName() string     { return "booking.declined" }
func (e BookingDeclined) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeclined) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID    BookingID
	Reason       string
	RefundMinor  int64
	PenaltyMinor int64
	At           time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingExpired struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingExpired) EventName() string     { return "booking.expired" }
func (e BookingExpired) AggregateID() string   { return string(e.BookingID) }
func (e BookingExpired) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }
