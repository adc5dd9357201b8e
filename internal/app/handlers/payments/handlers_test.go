package payments_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookinghandlers "rentnow/internal/app/handlers/booking"
	handlers "rentnow/internal/app/handlers/payments"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
	"rentnow/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	factory memory.Factory
	sink    *memory.OutboxSink
	box     *outbox.Buffered
	seq     int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.PutProperty(domainlistings.Property{
		ID:                "p1",
		Host:              "h1",
		NightlyPriceMinor: 25000,
		CleaningFeeMinor:  3000,
		Currency:          "NGN",
		State:             domainlistings.PropertyActive,
		Shortlet:          domainlistings.ShortletSettings{MinNights: 1, PaymentBeforeConfirm: true},
	}))
	sink := memory.NewOutboxSink()
	return &env{factory: memory.Factory{Store: store}, sink: sink, box: outbox.NewBuffered(sink)}
}

func (e *env) book(t *testing.T, guest, in, out string) string {
	t.Helper()
	h := &bookinghandlers.RequestBookingHandler{
		UoWFactory: e.factory,
		Outbox:     e.box,
		Windows:    domainbooking.Windows{HostResponse: 24 * time.Hour, Payment: 30 * time.Minute},
		NewID: func() string {
			e.seq++
			return fmt.Sprintf("b%d", e.seq)
		},
		Now: func() time.Time { return testNow },
	}
	got, err := h.Handle(context.Background(), bookinghandlers.RequestBookingCommand{PropertyID: "p1", GuestID: guest, CheckIn: in, CheckOut: out, Guests: 1})
	require.NoError(t, err)
	return got.ID
}

func (e *env) recorder() *handlers.RecordPaymentHandler {
	return &handlers.RecordPaymentHandler{UoWFactory: e.factory, Outbox: e.box, Now: func() time.Time { return testNow.Add(5 * time.Minute) }}
}

func (e *env) status(t *testing.T, id string) domainbooking.Status {
	t.Helper()
	ctx := context.Background()
	unit, err := e.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	require.NoError(t, err)
	return b.Status
}

func TestRecordPaymentSettlesBooking(t *testing.T) {
	e := newEnv(t)
	id := e.book(t, "g1", "2026-03-10", "2026-03-12")

	got, err := e.recorder().Handle(context.Background(), handlers.RecordPaymentCommand{Reference: "ref-1", BookingID: id, Status: "success", AmountMinor: 53000, Currency: "NGN"})
	require.NoError(t, err)
	assert.Equal(t, "succeeded", got.PaymentStatus)
	assert.Equal(t, "pending", got.BookingStatus)
	assert.False(t, got.Duplicate)
	assert.Contains(t, e.sink.Names(), "booking.awaiting_host")

	again, err := e.recorder().Handle(context.Background(), handlers.RecordPaymentCommand{Reference: "ref-1", BookingID: id, Status: "succeeded"})
	require.NoError(t, err)
	assert.True(t, again.Duplicate)

	late, err := e.recorder().Handle(context.Background(), handlers.RecordPaymentCommand{Reference: "ref-1", BookingID: id, Status: "pending"})
	require.NoError(t, err)
	assert.True(t, late.Duplicate)
	assert.Equal(t, "succeeded", late.PaymentStatus)
}

func TestRecordPaymentLosingRaceCancels(t *testing.T) {
	e := newEnv(t)
	first := e.book(t, "g1", "2026-03-10", "2026-03-12")
	second := e.book(t, "g2", "2026-03-11", "2026-03-13")

	_, err := e.recorder().Handle(context.Background(), handlers.RecordPaymentCommand{Reference: "ref-1", BookingID: first, Status: "succeeded"})
	require.NoError(t, err)
	got, err := e.recorder().Handle(context.Background(), handlers.RecordPaymentCommand{Reference: "ref-2", BookingID: second, Status: "succeeded"})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", got.BookingStatus)
	assert.Equal(t, domainbooking.StatusPending, e.status(t, first))
	assert.Equal(t, domainbooking.StatusCancelled, e.status(t, second))
	assert.Contains(t, e.sink.Names(), "booking.cancelled")
}

func TestRecordPaymentRejectsUnknownStatus(t *testing.T) {
	e := newEnv(t)
	id := e.book(t, "g1", "2026-03-10", "2026-03-12")
	_, err := e.recorder().Handle(context.Background(), handlers.RecordPaymentCommand{Reference: "ref-1", BookingID: id, Status: "chargeback?"})
	assert.ErrorIs(t, err, domainpayment.ErrUnknownStatus)

	_, err = e.recorder().Handle(context.Background(), handlers.RecordPaymentCommand{Reference: "ref-1", BookingID: "missing", Status: "succeeded"})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestReturnState(t *testing.T) {
	e := newEnv(t)
	id := e.book(t, "g1", "2026-03-10", "2026-03-12")
	h := &handlers.GetReturnStateHandler{UoWFactory: e.factory, Reconciler: domainpayment.NewReconciler(2 * time.Minute)}
	ctx := context.Background()

	state, err := h.Handle(ctx, handlers.GetReturnStateQuery{BookingID: id, RequesterID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, "processing", state.UIState)
	assert.True(t, state.ShouldPoll)
	assert.Empty(t, state.PaymentStatus)

	state, err = h.Handle(ctx, handlers.GetReturnStateQuery{BookingID: id, ElapsedMs: (3 * time.Minute).Milliseconds()})
	require.NoError(t, err)
	assert.False(t, state.ShouldPoll)

	// past the int64 nanosecond range the ceiling still applies
	state, err = h.Handle(ctx, handlers.GetReturnStateQuery{BookingID: id, ElapsedMs: 9_300_000_000_000})
	require.NoError(t, err)
	assert.False(t, state.ShouldPoll)

	_, err = h.Handle(ctx, handlers.GetReturnStateQuery{BookingID: id, RequesterID: "stranger"})
	assert.ErrorIs(t, err, domainbooking.ErrForbidden)

	_, err = e.recorder().Handle(ctx, handlers.RecordPaymentCommand{Reference: "ref-1", BookingID: id, Status: "succeeded"})
	require.NoError(t, err)
	state, err = h.Handle(ctx, handlers.GetReturnStateQuery{BookingID: id})
	require.NoError(t, err)
	assert.Equal(t, "pending", state.UIState)
	assert.False(t, state.ShouldPoll)
	assert.Equal(t, "succeeded", state.PaymentStatus)
}
