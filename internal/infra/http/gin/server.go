package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rstays/internal/infra/config"
	"rstays/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Pay(c *gin.Context)
	Cancel(c *gin.Context)
	Review(c *gin.Context)
}

type CalendarHTTP interface {
	Block(c *gin.Context)
	Unblock(c *gin.Context)
	Prices(c *gin.Context)
}

type PromoHTTP interface {
	Check(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
}

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

type WSHTTP interface {
	Connect(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Calendar       CalendarHTTP
	Promo          PromoHTTP
	Me             MeHTTP
	Auth           AuthHTTP
	WS             WSHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg),
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/pay", h.Booking.Pay)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/review", h.Booking.Review)
	}
	if h.Calendar != nil {
		calGroup := api.Group("/calendar")
		calGroup.POST("/block", h.Calendar.Block)
		calGroup.POST("/unblock", h.Calendar.Unblock)
		calGroup.POST("/prices", h.Calendar.Prices)
	}
	if h.Promo != nil {
		api.GET("/promo/:code", h.Promo.Check)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
	}
	if h.WS != nil {
		api.GET("/ws", h.WS.Connect)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func corsOrigins(cfg config.Config) []string {
	if len(cfg.CORSOrigins) > 0 {
		return cfg.CORSOrigins
	}
	return []string{"*"}
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
