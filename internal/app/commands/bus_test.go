package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/app/commands"
)

type ping struct{ name string }

func (ping) Key() string { return "ping" }

type other struct{}

func (other) Key() string { return "other" }

func TestInMemoryBusDispatch(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "ping", commands.HandlerFunc[ping, string](func(ctx context.Context, cmd ping) (string, error) {
		return "pong " + cmd.name, nil
	}))

	got, err := commands.Dispatch[ping, string](context.Background(), bus, ping{name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "pong a", got)

	_, err = commands.Dispatch[ping, int](context.Background(), bus, ping{})
	assert.ErrorIs(t, err, commands.ErrResultType)

	_, err = bus.Dispatch(context.Background(), other{})
	assert.ErrorIs(t, err, commands.ErrHandlerNotFound)

	_, err = commands.Dispatch[ping, string](context.Background(), nil, ping{})
	assert.ErrorIs(t, err, commands.ErrNilBus)
	assert.Equal(t, []string{"ping"}, bus.Keys())
}

func TestInMemoryBusRejectsDuplicates(t *testing.T) {
	bus := commands.NewInMemoryBus()
	h := commands.HandlerFunc[ping, string](func(context.Context, ping) (string, error) { return "", nil })
	commands.RegisterHandler(bus, "ping", h)
	assert.Panics(t, func() { commands.RegisterHandler(bus, "ping", h) })
	assert.Panics(t, func() { commands.RegisterHandler(bus, "", h) })
}

func TestRegisteredKeyMismatch(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "other", commands.HandlerFunc[ping, string](func(context.Context, ping) (string, error) { return "", nil }))
	_, err := bus.Dispatch(context.Background(), other{})
	assert.ErrorIs(t, err, commands.ErrInvalidCommand)
}
