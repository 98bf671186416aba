// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"larder/internal/domain/catalogs/product"
	"larder/internal/domain/invoice"
	"larder/internal/domain/orders"
	"larder/internal/domain/stock"
	"larder/internal/infrastructure/http/v1/handlers"
	"larder/internal/infrastructure/http/v1/middleware"
	"larder/internal/infrastructure/storage/postgres"
	"larder/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Domain services
	ProductService *product.Service
	StockService   *stock.Service
	OrderService   *orders.Service
	InvoiceService *invoice.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		baseHandler := handlers.NewBaseHandler()

		productHandler := handlers.NewProductHandler(baseHandler, cfg.ProductService, cfg.StockService)
		productHandler.RegisterRoutes(protected.Group("/products"))

		orderHandler := handlers.NewOrderHandler(baseHandler, cfg.OrderService, cfg.InvoiceService)
		orderHandler.RegisterRoutes(protected.Group("/orders"))
	}

	return router
}
