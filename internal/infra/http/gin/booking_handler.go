package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	bookingapp "rentnow/internal/app/handlers/booking"
	paymentsapp "rentnow/internal/app/handlers/payments"
	"rentnow/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
}

// Create answers 201 on success and 409 when the dates were taken or break
// the stay rules.
func (h BookingHandler) Create(c *gin.Context) {
	guest, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		PropertyID:      strings.TrimSpace(req.PropertyID),
		GuestID:         guest.UserID,
		CheckIn:         strings.TrimSpace(req.CheckIn),
		CheckOut:        strings.TrimSpace(req.CheckOut),
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		handleCreateError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type respondRequest struct {
	Action string `json:"action"`
}

func (h BookingHandler) Respond(c *gin.Context) {
	host, ok := requireUser(c)
	if !ok {
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	cmd := bookingapp.RespondBookingCommand{
		BookingID: c.Param("id"),
		HostID:    host.UserID,
		Action:    strings.TrimSpace(req.Action),
	}
	result, err := commands.Dispatch[bookingapp.RespondBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.CancelResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ReturnState is polled by the client after the payment redirect.
func (h BookingHandler) ReturnState(c *gin.Context) {
	requester, ok := requireUser(c)
	if !ok {
		return
	}
	query := paymentsapp.GetReturnStateQuery{
		BookingID:   c.Param("id"),
		RequesterID: requester.UserID,
		ElapsedMs:   parseInt64(c.Query("elapsed_ms")),
	}
	result, err := queries.Ask[paymentsapp.GetReturnStateQuery, dto.ReturnState](c.Request.Context(), h.Queries, query)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
