package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	paymentsapp "rentnow/internal/app/handlers/payments"
	"rentnow/internal/app/middleware"
	"rentnow/internal/app/principal"
	"rentnow/internal/app/uow"
	domainbooking "rentnow/internal/domain/booking"
	domainpayment "rentnow/internal/domain/payment"
	"rentnow/internal/infra/validation"
)

const paymentsConsumerID = "payments-consumer"

// Inbox deduplicates broker deliveries per consumer.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type PaymentMetrics interface {
	PaymentEventConsumed(outcome string)
}

// PaymentEventHandler turns provider payment events into RecordPaymentCommand.
// Messages are either the bare event or a CloudEvent carrying it in data.
type PaymentEventHandler struct {
	Commands commands.Bus
	Inbox    Inbox
	Metrics  PaymentMetrics
	Logger   *slog.Logger
}

type paymentEvent struct {
	EventID     string `json:"event_id"`
	Reference   string `json:"reference"`
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

type cloudEnvelope struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

func (h *PaymentEventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	evt, err := decodePaymentEvent(msg.Value)
	if err != nil {
		h.observe("malformed")
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if evt.EventID == "" {
		evt.EventID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}

	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, evt.EventID)
		if err != nil {
			return err
		}
		if seen {
			h.observe("duplicate")
			return nil
		}
	}

	cmd := paymentsapp.RecordPaymentCommand{
		EventID:     evt.EventID,
		Reference:   strings.TrimSpace(evt.Reference),
		BookingID:   strings.TrimSpace(evt.BookingID),
		Status:      strings.TrimSpace(evt.Status),
		AmountMinor: evt.AmountMinor,
		Currency:    strings.ToUpper(strings.TrimSpace(evt.Currency)),
	}
	ctx = principal.WithPrincipal(ctx, principal.Principal{UserID: paymentsConsumerID, Role: principal.RoleSystem})
	result, err := commands.Dispatch[paymentsapp.RecordPaymentCommand, *dto.PaymentRecorded](ctx, h.Commands, cmd)
	if err != nil {
		if permanentPaymentFailure(err) {
			h.observe("rejected")
			h.logger().WarnContext(ctx, "payment event rejected", "event_id", evt.EventID, "booking_id", cmd.BookingID, "err", err)
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		if h.Inbox != nil {
			if fErr := h.Inbox.Forget(ctx, evt.EventID); fErr != nil {
				err = errors.Join(err, fErr)
			}
		}
		h.observe("retry")
		return err
	}
	h.observe("recorded")
	h.logger().InfoContext(ctx, "payment event recorded", "event_id", evt.EventID, "booking_id", result.BookingID, "booking_status", result.BookingStatus)
	return nil
}

func decodePaymentEvent(raw []byte) (paymentEvent, error) {
	var env cloudEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return paymentEvent{}, err
	}
	body := raw
	if len(env.Data) > 0 {
		body = env.Data
	}
	var evt paymentEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return paymentEvent{}, err
	}
	if evt.EventID == "" {
		evt.EventID = env.ID
	}
	evt.EventID = strings.TrimSpace(evt.EventID)
	return evt, nil
}

// permanentPaymentFailure reports failures a redelivery would repeat.
func permanentPaymentFailure(err error) bool {
	if errors.Is(err, uow.ErrStorage) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var verrs validation.Errors
	var replayed *middleware.ReplayedError
	return errors.As(err, &verrs) ||
		errors.As(err, &replayed) ||
		errors.Is(err, domainbooking.ErrBookingNotFound) ||
		errors.Is(err, domainpayment.ErrUnknownStatus) ||
		errors.Is(err, domainbooking.ErrInvalidStatusTransition) ||
		errors.Is(err, middleware.ErrForbidden)
}

func (h *PaymentEventHandler) observe(outcome string) {
	if h.Metrics != nil {
		h.Metrics.PaymentEventConsumed(outcome)
	}
}

func (h *PaymentEventHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*PaymentEventHandler)(nil)
