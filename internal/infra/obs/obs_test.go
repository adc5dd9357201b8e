package obs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	mw := Middleware{Logger: newLogger(&buf, "prod", slog.LevelInfo)}
	r := gin.New()
	r.Use(mw.RequestID(), mw.LoggerMiddleware())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name  string
		ready func(context.Context) error
		want  int
	}{
		{"no probe", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"down", func(context.Context) error { return errors.New("mongo down") }, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/readyz", HealthHandlers{Ready: tc.ready}.Readyz)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
