package ginserver

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	paymentsapp "rentnow/internal/app/handlers/payments"
	"rentnow/internal/app/principal"
)

const HeaderWebhookSecret = "X-Webhook-Secret"

// PaymentWebhookHandler accepts provider callbacks. With Secret set, callers
// must present it in X-Webhook-Secret.
type PaymentWebhookHandler struct {
	Commands commands.Bus
	Secret   string
	Logger   *slog.Logger
}

type paymentWebhookRequest struct {
	EventID     string `json:"event_id"`
	Reference   string `json:"reference"`
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

func (h PaymentWebhookHandler) Receive(c *gin.Context) {
	if h.Secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(HeaderWebhookSecret)), []byte(h.Secret)) != 1 {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid webhook secret"})
		return
	}
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	cmd := paymentsapp.RecordPaymentCommand{
		EventID:     strings.TrimSpace(req.EventID),
		Reference:   strings.TrimSpace(req.Reference),
		BookingID:   strings.TrimSpace(req.BookingID),
		Status:      strings.TrimSpace(req.Status),
		AmountMinor: req.AmountMinor,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	ctx := principal.WithPrincipal(c.Request.Context(), principal.Principal{UserID: "payments-webhook", Role: principal.RoleSystem})
	result, err := commands.Dispatch[paymentsapp.RecordPaymentCommand, *dto.PaymentRecorded](ctx, h.Commands, cmd)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentWebhookHTTP = PaymentWebhookHandler{}
