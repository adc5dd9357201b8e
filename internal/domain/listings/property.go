package listings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrPropertyNotFound = errors.New("listings: property not found")
	ErrNightsRange      = errors.New("listings: min nights must be <= max nights")
	ErrNightlyRate      = errors.New("listings: nightly rate must be non-negative")
)

type PropertyID string
type HostID string

type PropertyState string

const (
	PropertyActive   PropertyState = "active"
	PropertyInactive PropertyState = "inactive"
)

// ShortletSettings is host-owned configuration the booking engine only reads.
// MaxNights == 0 means the stay length is unbounded.
type ShortletSettings struct {
	PrepDays             int    `json:"prep_days" toml:"prep_days"`
	CancellationPolicy   string `json:"cancellation_policy" toml:"cancellation_policy"`
	MinNights            int    `json:"min_nights" toml:"min_nights"`
	MaxNights            int    `json:"max_nights" toml:"max_nights"`
	AdvanceNoticeDays    int    `json:"advance_notice_days" toml:"advance_notice_days"`
	PaymentBeforeConfirm bool   `json:"payment_before_confirm" toml:"payment_before_confirm"`
}

// DefaultShortletSettings applies when a property has no settings row.
func DefaultShortletSettings() ShortletSettings {
	return ShortletSettings{MinNights: 1, PaymentBeforeConfirm: true}
}

// Normalized clamps settings into a usable shape: negative counts become zero,
// min nights is at least one and a max below min is dropped.
func (s ShortletSettings) Normalized() ShortletSettings {
	out := s
	if out.PrepDays < 0 {
		out.PrepDays = 0
	}
	if out.AdvanceNoticeDays < 0 {
		out.AdvanceNoticeDays = 0
	}
	if out.MinNights < 1 {
		out.MinNights = 1
	}
	if out.MaxNights < 0 || (out.MaxNights > 0 && out.MaxNights < out.MinNights) {
		out.MaxNights = 0
	}
	out.CancellationPolicy = strings.TrimSpace(strings.ToLower(out.CancellationPolicy))
	return out
}

type Property struct {
	ID                PropertyID
	Host              HostID
	Title             string
	City              string
	Country           string
	MaxGuests         int
	NightlyPriceMinor int64
	CleaningFeeMinor  int64
	DepositMinor      int64
	Currency          string
	Rating            float64
	State             PropertyState
	Shortlet          ShortletSettings
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p *Property) Active() bool {
	return p != nil && p.State == PropertyActive
}

// Validate checks the invariants the booking engine relies on.
func (p *Property) Validate() error {
	if p.NightlyPriceMinor < 0 {
		return ErrNightlyRate
	}
	if p.Shortlet.MaxNights > 0 && p.Shortlet.MinNights > p.Shortlet.MaxNights {
		return ErrNightsRange
	}
	return nil
}

type PropertyRepository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

// SettingsRepository exposes shortlet settings without loading the full property.
type SettingsRepository interface {
	ShortletSettings(ctx context.Context, id PropertyID) (ShortletSettings, error)
}
