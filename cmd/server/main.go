// Package main is the entry point for the larder API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"larder/internal/domain/auth"
	"larder/internal/domain/catalogs/product"
	"larder/internal/domain/invoice"
	domnotify "larder/internal/domain/notify"
	"larder/internal/domain/orders"
	"larder/internal/domain/stock"
	v1 "larder/internal/infrastructure/http/v1"
	infranotify "larder/internal/infrastructure/notify"
	"larder/internal/infrastructure/storage/postgres"
	"larder/internal/infrastructure/storage/postgres/catalog_repo"
	"larder/internal/infrastructure/storage/postgres/document_repo"
	"larder/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting larder server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	orderRepo := document_repo.NewOrderRepo(txManager)

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Notifications ---
	var notifier domnotify.Notifier = domnotify.NopNotifier{}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		kafkaNotifier := infranotify.NewKafkaNotifier(
			strings.Split(brokers, ","),
			getEnv("KAFKA_NOTIFICATION_TOPIC", infranotify.DefaultTopic),
		)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Infow("kafka notifier initialized", "brokers", brokers)
	} else {
		log.Warn("KAFKA_BROKERS not set, notifications disabled")
	}

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(getEnv("JWT_SECRET", "your-secret-key-change-in-production"))
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Domain services ---
	productService := product.NewService(productRepo, txManager)
	stockService := stock.NewService(productRepo, txManager)
	orderService := orders.NewService(orderRepo, stockService, txManager, notifier, auditService)
	invoiceService := invoice.NewService(orderService, productRepo, nil)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtService,
		ProductService: productService,
		StockService:   stockService,
		OrderService:   orderService,
		InvoiceService: invoiceService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return value
}
