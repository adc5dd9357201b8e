package payment

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrPaymentNotFound = errors.New("payment: not found")
	ErrUnknownStatus   = errors.New("payment: unknown status")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// ParseStatus normalizes provider spellings onto the statuses the engine reacts to.
func ParseStatus(raw string) (Status, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "pending", "processing", "initialized", "ongoing":
		return StatusPending, nil
	case "succeeded", "success", "successful", "paid":
		return StatusSucceeded, nil
	case "failed", "failure", "abandoned", "reversed":
		return StatusFailed, nil
	case "refunded", "refund":
		return StatusRefunded, nil
	}
	return "", ErrUnknownStatus
}

// Payment mirrors the provider's view of a charge. The provider is authoritative.
type Payment struct {
	Reference   string
	BookingID   string
	Status      Status
	AmountMinor int64
	Currency    string
	UpdatedAt   time.Time
}

type Repository interface {
	// LatestForBooking returns ErrPaymentNotFound when nothing was recorded yet.
	LatestForBooking(ctx context.Context, bookingID string) (*Payment, error)
	Upsert(ctx context.Context, p *Payment) error
}

func rank(s Status) int {
	switch s {
	case StatusPending:
		return 1
	case StatusSucceeded, StatusFailed:
		return 2
	case StatusRefunded:
		return 3
	}
	return 0
}

// Supersedes reports whether next should replace current. Provider callbacks
// arrive out of order, so a later-stage status is never overwritten by an
// earlier one for the same reference.
func Supersedes(current *Payment, next Payment) bool {
	if current == nil || current.Reference != next.Reference {
		return true
	}
	if current.Status == next.Status {
		return false
	}
	return rank(next.Status) >= rank(current.Status)
}
