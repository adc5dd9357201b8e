package fixtures

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "rentnow/internal/domain/listings"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadProperties(t *testing.T) {
	path := writeFile(t, `[
		{"id":"p1","host":"h1","title":"Lekki loft","city":"Lagos","nightly_price_minor":25000,"currency":"ngn",
		 "shortlet":{"prep_days":1,"min_nights":2,"cancellation_policy":"moderate_5d","payment_before_confirm":false}},
		{"id":"p2","host":"h1","nightly_price_minor":10000,"state":"INACTIVE","created_at":"2025-12-01T00:00:00Z"},
		{"id":"bad","host":"h1","nightly_price_minor":-1},
		{"id":"","host":"h1","nightly_price_minor":100}
	]`)
	stored := map[domainlistings.PropertyID]domainlistings.Property{}
	n, err := LoadProperties(context.Background(), path, func(ctx context.Context, p domainlistings.Property) error {
		stored[p.ID] = p
		return nil
	}, quietLogger(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p1 := stored["p1"]
	assert.Equal(t, "NGN", p1.Currency)
	assert.Equal(t, domainlistings.PropertyActive, p1.State)
	assert.Equal(t, 1, p1.MaxGuests)
	assert.Equal(t, domainlistings.ShortletSettings{PrepDays: 1, MinNights: 2, CancellationPolicy: "moderate_5d"}, p1.Shortlet)
	assert.Equal(t, now, p1.CreatedAt)

	p2 := stored["p2"]
	assert.Equal(t, domainlistings.PropertyInactive, p2.State)
	assert.Equal(t, domainlistings.DefaultShortletSettings(), p2.Shortlet)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), p2.CreatedAt)
}

func TestLoadPropertiesEdgeCases(t *testing.T) {
	put := func(context.Context, domainlistings.Property) error { return nil }

	n, err := LoadProperties(context.Background(), filepath.Join(t.TempDir(), "missing.json"), put, quietLogger(), now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = LoadProperties(context.Background(), writeFile(t, "  \n"), put, quietLogger(), now)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = LoadProperties(context.Background(), writeFile(t, "{"), put, quietLogger(), now)
	assert.Error(t, err)

	boom := errors.New("db down")
	_, err = LoadProperties(context.Background(), writeFile(t, `[{"id":"p1","host":"h1"}]`), func(context.Context, domainlistings.Property) error {
		return boom
	}, quietLogger(), now)
	assert.ErrorIs(t, err, boom)
}
