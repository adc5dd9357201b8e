package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentnow/internal/app/commands"
	bookingapp "rentnow/internal/app/handlers/booking"
	"rentnow/internal/app/middleware"
	"rentnow/internal/app/queries"
	domainavailability "rentnow/internal/domain/availability"
	domainbooking "rentnow/internal/domain/booking"
	domainlistings "rentnow/internal/domain/listings"
	domainpayment "rentnow/internal/domain/payment"
	domainpricing "rentnow/internal/domain/pricing"
	"rentnow/internal/domain/shared/daterange"
	"rentnow/internal/domain/shared/money"
	"rentnow/internal/infra/validation"
)

type errorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code,omitempty"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func statusFor(err error) int {
	var fields validation.Errors
	var replayed *middleware.ReplayedError
	switch {
	case errors.As(err, &fields):
		return http.StatusBadRequest
	case errors.As(err, &replayed):
		return domainbooking.ClassifyCreateErrorMessage(replayed.Message).HTTPStatus
	case errors.Is(err, middleware.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, middleware.ErrForbidden),
		errors.Is(err, domainbooking.ErrForbidden),
		errors.Is(err, domainavailability.ErrBlockForbidden):
		return http.StatusForbidden
	case errors.Is(err, domainlistings.ErrPropertyNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainavailability.ErrBlockNotFound),
		errors.Is(err, domainpayment.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrDatesUnavailable),
		errors.Is(err, domainbooking.ErrDatesBlocked),
		errors.Is(err, domainavailability.ErrDatesBlocked),
		errors.Is(err, domainbooking.ErrInvalidStatusTransition),
		errors.Is(err, domainbooking.ErrNotCancellable),
		errors.Is(err, bookingapp.ErrPropertyInactive):
		return http.StatusConflict
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDate),
		errors.Is(err, domainbooking.ErrInvalidAction),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrCheckInInPast),
		errors.Is(err, domainbooking.ErrAdvanceNotice),
		errors.Is(err, domainbooking.ErrNightsOutOfRange),
		errors.Is(err, domainpayment.ErrUnknownStatus),
		errors.Is(err, domainpricing.ErrInvalidDate),
		errors.Is(err, domainpricing.ErrInvalidNights),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch):
		return http.StatusBadRequest
	case errors.Is(err, commands.ErrHandlerNotFound), errors.Is(err, queries.ErrHandlerNotFound):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// handleError writes the mapped status. Internal errors never leak their text.
func handleError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}
	var fields validation.Errors
	if errors.As(err, &fields) {
		body = errorResponse{Error: "validation failed", Code: "validation", Fields: fields}
	}
	if status >= http.StatusInternalServerError {
		body = errorResponse{Error: "internal error", Code: domainbooking.CodeInternal}
	}
	logFailure(c, logger, status, err)
	_ = c.Error(err)
	c.JSON(status, body)
}

// handleCreateError answers booking creation failures with the classified
// user-facing message. Failures the classifier does not know fall back to
// handleError.
func handleCreateError(c *gin.Context, logger *slog.Logger, err error) {
	failure := domainbooking.ClassifyCreateError(err)
	var replayed *middleware.ReplayedError
	if errors.As(err, &replayed) {
		failure = domainbooking.ClassifyCreateErrorMessage(replayed.Message)
	}
	var fields validation.Errors
	if errors.As(err, &fields) || failure.Code == domainbooking.CodeInternal {
		handleError(c, logger, err)
		return
	}
	_ = c.Error(err)
	c.JSON(failure.HTTPStatus, errorResponse{Error: failure.Message, Code: failure.Code})
}

func logFailure(c *gin.Context, logger *slog.Logger, status int, err error) {
	if logger == nil || status < http.StatusInternalServerError {
		return
	}
	logger.ErrorContext(c.Request.Context(), "request failed", "status", status, "error", err, "path", c.FullPath())
}
