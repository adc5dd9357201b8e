package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/dto"
	availabilityapp "rentnow/internal/app/handlers/availability"
	bookingapp "rentnow/internal/app/handlers/booking"
	listingapp "rentnow/internal/app/handlers/listings"
	"rentnow/internal/app/queries"
)

// PropertyHandler wires catalog, availability and host block routes.
type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h PropertyHandler) Catalog(c *gin.Context) {
	query := listingapp.SearchCatalogQuery{
		City:          c.Query("city"),
		Country:       c.Query("country"),
		Query:         c.Query("q"),
		MinGuests:     parseInt(c.Query("min_guests")),
		PriceMinMinor: parseInt64(c.Query("price_min")),
		PriceMaxMinor: parseInt64(c.Query("price_max")),
		CheckIn:       c.Query("check_in"),
		CheckOut:      c.Query("check_out"),
		Sort:          c.Query("sort"),
		Page:          parseInt(c.Query("page")),
		PageSize:      parseInt(c.Query("page_size")),
		Limit:         parseInt(c.Query("limit")),
		Cursor:        c.Query("cursor"),
	}
	result, err := queries.Ask[listingapp.SearchCatalogQuery, dto.PropertyCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Availability(c *gin.Context) {
	query := availabilityapp.CheckAvailabilityQuery{
		PropertyID:       c.Param("id"),
		CheckIn:          c.Query("check_in"),
		CheckOut:         c.Query("check_out"),
		ExcludeBookingID: c.Query("exclude_booking_id"),
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.ConflictReport](c.Request.Context(), h.Queries, query)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetCalendarQuery{
		PropertyID:      c.Param("id"),
		From:            c.Query("from"),
		To:              c.Query("to"),
		CheckIn:         c.Query("check_in"),
		SearchLimitDays: parseInt(c.Query("search_limit_days")),
	}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Quote(c *gin.Context) {
	query := bookingapp.QuoteStayQuery{
		PropertyID: c.Param("id"),
		CheckIn:    c.Query("check_in"),
		CheckOut:   c.Query("check_out"),
	}
	result, err := queries.Ask[bookingapp.QuoteStayQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) CancellationTerms(c *gin.Context) {
	query := bookingapp.GetCancellationTermsQuery{
		PropertyID: c.Param("id"),
		CheckIn:    c.Query("check_in"),
	}
	result, err := queries.Ask[bookingapp.GetCancellationTermsQuery, dto.CancellationTerms](c.Request.Context(), h.Queries, query)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createBlockRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Note  string `json:"note"`
}

func (h PropertyHandler) CreateBlock(c *gin.Context) {
	host, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	cmd := availabilityapp.CreateHostBlockCommand{
		PropertyID: c.Param("id"),
		HostID:     host.UserID,
		Start:      strings.TrimSpace(req.Start),
		End:        strings.TrimSpace(req.End),
		Note:       strings.TrimSpace(req.Note),
	}
	result, err := commands.Dispatch[availabilityapp.CreateHostBlockCommand, dto.HostBlock](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PropertyHandler) RemoveBlock(c *gin.Context) {
	host, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := availabilityapp.RemoveHostBlockCommand{
		PropertyID: c.Param("id"),
		BlockID:    c.Param("blockId"),
		HostID:     host.UserID,
	}
	result, err := commands.Dispatch[availabilityapp.RemoveHostBlockCommand, dto.HostBlock](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		handleError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseInt64(raw string) int64 {
	value, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if value < 0 {
		return 0
	}
	return value
}

var _ PropertyHTTP = PropertyHandler{}
