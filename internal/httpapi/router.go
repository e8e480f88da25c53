package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/slot_swapper/internal/httpapi/handlers"
	"github.com/Freeeeeet/slot_swapper/internal/httpapi/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	SlotHandler    *handlers.SlotHandler
	SwapHandler    *handlers.SwapHandler
	HealthHandler  *handlers.HealthHandler

	RateLimiter    *middleware.RateLimiter
	Logger         *zap.Logger
	CORSOrigins    []string
	TracingService string // пусто - без otelgin
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Auth (public)
	public := api.Group("/auth")
	if cfg.RateLimiter != nil {
		public.Use(cfg.RateLimiter.Limit())
	}
	if cfg.AuthHandler != nil {
		public.POST("/register", cfg.AuthHandler.Register)
		public.POST("/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
			linkCode := []gin.HandlerFunc{cfg.AuthHandler.TelegramCode}
			if cfg.RateLimiter != nil {
				linkCode = append([]gin.HandlerFunc{cfg.RateLimiter.Limit()}, linkCode...)
			}
			protected.POST("/auth/telegram-code", linkCode...)
		}

		// Slots
		if cfg.SlotHandler != nil {
			protected.POST("/slots", cfg.SlotHandler.Create)
			protected.GET("/slots", cfg.SlotHandler.List)
			protected.GET("/slots/:id", cfg.SlotHandler.Get)
			protected.PUT("/slots/:id", cfg.SlotHandler.Update)
			protected.DELETE("/slots/:id", cfg.SlotHandler.Delete)
		}

		// Swap requests
		if cfg.SwapHandler != nil {
			protected.POST("/requests/swap", cfg.SwapHandler.Propose)
			protected.GET("/requests/pending", cfg.SwapHandler.ListPending)
			protected.GET("/requests/outgoing", cfg.SwapHandler.ListOutgoing)
			protected.GET("/requests/:id", cfg.SwapHandler.Get)
			protected.POST("/requests/:id/accept", cfg.SwapHandler.Accept)
			protected.POST("/requests/:id/reject", cfg.SwapHandler.Reject)
		}
	}

	return r
}
