package queries_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/app/queries"
)

type lookup struct{ id string }

func (lookup) Key() string { return "lookup" }

func TestInMemoryBusAsk(t *testing.T) {
	bus := queries.NewInMemoryBus()
	missing := errors.New("missing")
	queries.RegisterHandler(bus, "lookup", queries.HandlerFunc[lookup, []string](func(ctx context.Context, q lookup) ([]string, error) {
		if q.id == "" {
			return nil, missing
		}
		return []string{q.id}, nil
	}))

	got, err := queries.Ask[lookup, []string](context.Background(), bus, lookup{id: "p1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, got)

	_, err = queries.Ask[lookup, []string](context.Background(), bus, lookup{})
	assert.ErrorIs(t, err, missing)

	_, err = queries.Ask[lookup, string](context.Background(), bus, lookup{id: "p1"})
	assert.ErrorIs(t, err, queries.ErrResultType)

	assert.Panics(t, func() {
		queries.RegisterHandler(bus, "lookup", queries.HandlerFunc[lookup, string](func(context.Context, lookup) (string, error) { return "", nil }))
	})
}

func TestInMemoryBusUnknownQuery(t *testing.T) {
	_, err := queries.NewInMemoryBus().Ask(context.Background(), lookup{})
	assert.ErrorIs(t, err, queries.ErrHandlerNotFound)
}
