package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	paymentsapp "rentnow/internal/app/handlers/payments"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
)

type busFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f busFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) { return f(ctx, cmd) }

type memInbox struct {
	seen    map[string]bool
	forgot  []string
	failErr error
}

func (i *memInbox) Seen(ctx context.Context, id string) (bool, error) {
	if i.failErr != nil {
		return false, i.failErr
	}
	if i.seen == nil {
		i.seen = map[string]bool{}
	}
	was := i.seen[id]
	i.seen[id] = true
	return was, nil
}

func (i *memInbox) Forget(ctx context.Context, id string) error {
	delete(i.seen, id)
	i.forgot = append(i.forgot, id)
	return nil
}

type outcomes []string

func (o *outcomes) PaymentEventConsumed(outcome string) { *o = append(*o, outcome) }

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "payments.events", Partition: 2, Offset: 41, Value: []byte(value)}
}

func TestPaymentEventHandlerDispatchesRecordPayment(t *testing.T) {
	var got []paymentsapp.RecordPaymentCommand
	bus := busFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		p, ok := principal.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, principal.RoleSystem, p.Role)
		c := cmd.(paymentsapp.RecordPaymentCommand)
		got = append(got, c)
		return &dto.PaymentRecorded{BookingID: c.BookingID, BookingStatus: "pending"}, nil
	})
	inbox := &memInbox{}
	var seen outcomes
	h := &PaymentEventHandler{Commands: bus, Inbox: inbox, Metrics: &seen}

	body := `{"event_id":"evt-1","reference":" ref-1 ","booking_id":"b1","status":"succeeded","amount_minor":60000,"currency":"ngn"}`
	require.NoError(t, h.Handle(context.Background(), message(body)))
	require.NoError(t, h.Handle(context.Background(), message(body)))

	require.Len(t, got, 1)
	assert.Equal(t, paymentsapp.RecordPaymentCommand{
		EventID:     "evt-1",
		Reference:   "ref-1",
		BookingID:   "b1",
		Status:      "succeeded",
		AmountMinor: 60000,
		Currency:    "NGN",
	}, got[0])
	assert.Equal(t, outcomes{"recorded", "duplicate"}, seen)
}

func TestPaymentEventHandlerReadsCloudEvents(t *testing.T) {
	var got paymentsapp.RecordPaymentCommand
	bus := busFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		got = cmd.(paymentsapp.RecordPaymentCommand)
		return &dto.PaymentRecorded{}, nil
	})
	h := &PaymentEventHandler{Commands: bus}

	require.NoError(t, h.Handle(context.Background(), message(`{"id":"ce-9","type":"payment.updated.v1","data":{"reference":"r","booking_id":"b1","status":"failed"}}`)))
	assert.Equal(t, "ce-9", got.EventID)
	assert.Equal(t, "failed", got.Status)

	require.NoError(t, h.Handle(context.Background(), message(`{"reference":"r","booking_id":"b1","status":"failed"}`)))
	assert.Equal(t, "payments.events/2/41", got.EventID)
}

func TestPaymentEventHandlerClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
		outcome   string
	}{
		{name: "unknown booking", err: domainbooking.ErrBookingNotFound, permanent: true, outcome: "rejected"},
		{name: "storage down", err: fmt.Errorf("%w: timeout", uow.ErrStorage), outcome: "retry"},
		{name: "unexpected", err: errors.New("boom"), outcome: "retry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbox := &memInbox{}
			var seen outcomes
			h := &PaymentEventHandler{
				Commands: busFunc(func(context.Context, commands.Command) (any, error) { return nil, tt.err }),
				Inbox:    inbox,
				Metrics:  &seen,
			}
			err := h.Handle(context.Background(), message(`{"event_id":"e","reference":"r","booking_id":"b1","status":"succeeded"}`))
			require.Error(t, err)
			assert.Equal(t, tt.permanent, errors.Is(err, ErrPermanent))
			assert.Equal(t, outcomes{tt.outcome}, seen)
			if tt.permanent {
				assert.Empty(t, inbox.forgot)
			} else {
				assert.Equal(t, []string{"e"}, inbox.forgot)
			}
		})
	}
}

func TestPaymentEventHandlerDropsMalformedMessages(t *testing.T) {
	var seen outcomes
	h := &PaymentEventHandler{Metrics: &seen}
	err := h.Handle(context.Background(), message("{"))
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, outcomes{"malformed"}, seen)
}

type handlerFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

func (f handlerFunc) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error { return f(ctx, msg) }

func TestGroupHandlerRetries(t *testing.T) {
	calls := 0
	h := groupHandler{
		handler: handlerFunc(func(context.Context, *sarama.ConsumerMessage) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}),
		backoff: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
		logger:  discardLogger(),
	}
	require.NoError(t, h.handle(context.Background(), message("{}")))
	assert.Equal(t, 3, calls)

	calls = 0
	h.handler = handlerFunc(func(context.Context, *sarama.ConsumerMessage) error {
		calls++
		return errors.New("still down")
	})
	assert.Error(t, h.handle(context.Background(), message("{}")))
	assert.Equal(t, 4, calls)

	calls = 0
	h.handler = handlerFunc(func(context.Context, *sarama.ConsumerMessage) error {
		calls++
		return fmt.Errorf("%w: bad payload", ErrPermanent)
	})
	assert.NoError(t, h.handle(context.Background(), message("{}")))
	assert.Equal(t, 1, calls)
}

func TestProducerPublishesHeadersAndKey(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	sync := mocks.NewSyncProducer(t, cfg)
	sync.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking.events.v1" {
			return fmt.Errorf("topic %q", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "b1" {
			return fmt.Errorf("key %q", key)
		}
		if len(msg.Headers) != 1 || string(msg.Headers[0].Key) != "content-type" {
			return fmt.Errorf("headers %v", msg.Headers)
		}
		return nil
	})
	p := newProducerWith(sync)
	require.NoError(t, p.Publish(context.Background(), "booking.events.v1", "b1", []byte(`{}`), map[string]string{"content-type": "application/cloudevents+json"}))
	require.NoError(t, p.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, newProducerWith(mocks.NewSyncProducer(t, cfg)).Publish(ctx, "t", "k", nil, nil), context.Canceled)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
