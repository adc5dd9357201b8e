package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountOutcomes(t *testing.T) {
	m := NewMetrics()
	m.AvailabilityChecked(true)
	m.AvailabilityChecked(false)
	m.AvailabilityChecked(true)
	m.BookingCreated("created")
	m.BookingTransition("pending", "confirmed")
	m.BookingTransition("confirmed", "confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.availabilityChecks.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingCreates.WithLabelValues("created")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.bookingTransitions))
}

func TestHTTPMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(m.HTTP())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/ping/:id", "GET", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rentnow_http_requests_total"))
}
