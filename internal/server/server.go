package server

import (
	"context"
	"net/http"
	"time"

	"ecomove/internal/auth"
	"ecomove/internal/config"
	"ecomove/internal/ecohabit"
	"ecomove/internal/payment"
	"ecomove/internal/promo"
	"ecomove/internal/settings"
	"ecomove/internal/wallet"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers of every domain package.
type Handlers struct {
	Wallet   *wallet.Handler
	Promo    *promo.Handler
	EcoHabit *ecohabit.Handler
	Payment  *payment.Handler
	Settings *settings.Handler
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, h Handlers, checks map[string]HealthCheck) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", Health(cfg.StorageDriver, checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	limiter := RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	protected := router.Group("/")
	protected.Use(authMiddleware, limiter)
	{
		protected.GET("/wallet", h.Wallet.GetWallet)
		protected.GET("/wallet/transactions", h.Wallet.ListTransactions)
		protected.POST("/wallet/recharge", h.Wallet.Recharge)

		protected.POST("/promo/quote", h.Promo.Quote)

		protected.POST("/eco-habits", h.EcoHabit.Submit)
		protected.GET("/eco-habits", h.EcoHabit.ListMine)
		protected.GET("/eco-habits/:id", h.EcoHabit.GetMine)

		protected.POST("/payments/quote", h.Payment.Quote)
		protected.POST("/payments/checkout", h.Payment.Checkout)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/wallets/:userID", h.Wallet.AdminGetWallet)
		admin.GET("/wallets/:userID/transactions", h.Wallet.AdminListTransactions)
		admin.POST("/wallets/:userID/credit", h.Wallet.AdminCredit)

		admin.POST("/promo-codes", h.Promo.Create)
		admin.GET("/promo-codes", h.Promo.List)
		admin.GET("/promo-codes/:code", h.Promo.Get)
		admin.PATCH("/promo-codes/:code", h.Promo.Update)
		admin.DELETE("/promo-codes/:code", h.Promo.Delete)

		admin.GET("/eco-habits", h.EcoHabit.ListByStatus)
		admin.POST("/eco-habits/:id/validate", h.EcoHabit.Validate)
		admin.POST("/eco-habits/:id/reject", h.EcoHabit.Reject)

		admin.GET("/settings", h.Settings.Get)
		admin.PUT("/settings", h.Settings.Update)
	}

	return &Server{
		router: router,
		config: cfg,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
