// Package fixtures seeds properties from a JSON file at startup. Property
// management is owned by another service; this keeps local and demo setups
// self-contained.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	domainlistings "rentnow/internal/domain/listings"
)

// PutFunc stores one property, replacing any previous version.
type PutFunc func(ctx context.Context, p domainlistings.Property) error

type propertyFixture struct {
	ID                string                           `json:"id"`
	Host              string                           `json:"host"`
	Title             string                           `json:"title"`
	City              string                           `json:"city"`
	Country           string                           `json:"country"`
	MaxGuests         int                              `json:"max_guests"`
	NightlyPriceMinor int64                            `json:"nightly_price_minor"`
	CleaningFeeMinor  int64                            `json:"cleaning_fee_minor"`
	DepositMinor      int64                            `json:"deposit_minor"`
	Currency          string                           `json:"currency"`
	Rating            float64                          `json:"rating"`
	State             string                           `json:"state"`
	CreatedAt         string                           `json:"created_at"`
	Shortlet          *domainlistings.ShortletSettings `json:"shortlet"`
}

// LoadProperties imports every valid fixture in path and returns how many
// were stored. A missing file is not an error; invalid entries are logged
// and skipped.
func LoadProperties(ctx context.Context, path string, put PutFunc, logger *slog.Logger, now time.Time) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("fixtures: read: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		logger.Warn("property fixtures file empty", "path", path)
		return 0, nil
	}
	var items []propertyFixture
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("fixtures: decode: %w", err)
	}

	stored := 0
	for _, fx := range items {
		p := fx.property(now)
		if p.ID == "" || p.Host == "" {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", "id and host are required")
			continue
		}
		if err := p.Validate(); err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		if err := put(ctx, p); err != nil {
			return stored, fmt.Errorf("fixtures: store %s: %w", fx.ID, err)
		}
		stored++
	}
	logger.Info("property fixtures imported", "path", path, "count", stored)
	return stored, nil
}

func (fx propertyFixture) property(now time.Time) domainlistings.Property {
	created := now.UTC()
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(fx.CreatedAt)); err == nil {
		created = t.UTC()
	}
	state := domainlistings.PropertyActive
	if fx.State != "" {
		state = domainlistings.PropertyState(strings.ToLower(fx.State))
	}
	settings := domainlistings.DefaultShortletSettings()
	if fx.Shortlet != nil {
		settings = *fx.Shortlet
	}
	maxGuests := fx.MaxGuests
	if maxGuests <= 0 {
		maxGuests = 1
	}
	return domainlistings.Property{
		ID:                domainlistings.PropertyID(strings.TrimSpace(fx.ID)),
		Host:              domainlistings.HostID(strings.TrimSpace(fx.Host)),
		Title:             fx.Title,
		City:              fx.City,
		Country:           fx.Country,
		MaxGuests:         maxGuests,
		NightlyPriceMinor: fx.NightlyPriceMinor,
		CleaningFeeMinor:  fx.CleaningFeeMinor,
		DepositMinor:      fx.DepositMinor,
		Currency:          strings.ToUpper(fx.Currency),
		Rating:            fx.Rating,
		State:             state,
		Shortlet:          settings,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}
