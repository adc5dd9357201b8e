package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentnow/internal/infra/config"
	"rentnow/internal/infra/obs"
)

type PropertyHTTP interface {
	Catalog(c *gin.Context)
	Availability(c *gin.Context)
	Calendar(c *gin.Context)
	Quote(c *gin.Context)
	CancellationTerms(c *gin.Context)
	CreateBlock(c *gin.Context)
	RemoveBlock(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Respond(c *gin.Context)
	Cancel(c *gin.Context)
	ReturnState(c *gin.Context)
}

type PaymentWebhookHTTP interface {
	Receive(c *gin.Context)
}

type Handlers struct {
	Properties PropertyHTTP
	Bookings   BookingHTTP
	Payments   PaymentWebhookHTTP
	Metrics    *obs.Metrics
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without touching the global gin mode.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	if h.Metrics != nil {
		router.Use(h.Metrics.HTTP())
	}
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	router.Use(PrincipalFromHeaders())

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	if h.Properties != nil {
		api.GET("/properties", h.Properties.Catalog)
		props := api.Group("/properties/:id")
		props.GET("/availability", h.Properties.Availability)
		props.GET("/calendar", h.Properties.Calendar)
		props.GET("/quote", h.Properties.Quote)
		props.GET("/cancellation-terms", h.Properties.CancellationTerms)
		props.POST("/blocks", h.Properties.CreateBlock)
		props.DELETE("/blocks/:blockId", h.Properties.RemoveBlock)
	}
	if h.Bookings != nil {
		api.POST("/bookings", h.Bookings.Create)
		api.POST("/bookings/:id/respond", h.Bookings.Respond)
		api.POST("/bookings/:id/cancel", h.Bookings.Cancel)
		api.GET("/bookings/:id/return-state", h.Bookings.ReturnState)
	}
	if h.Payments != nil {
		api.POST("/webhooks/payments", h.Payments.Receive)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", HeaderUserID, HeaderUserRole},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
