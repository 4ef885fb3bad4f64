package main

import (
	"context"

	"genmarket/internal/handler"
	"genmarket/internal/middleware"
	"genmarket/internal/queue"
	"genmarket/pkg/config"
	"genmarket/pkg/logger"
	"genmarket/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting webhook ingestion service...", zap.String("environment", cfg.Server.Env))

	// Connect to Redis; a refused connection fails fast so the process
	// restarts instead of accepting webhooks it cannot queue
	client, err := queue.Connect(context.Background(), cfg.Redis.URL, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	q := queue.New(client)
	log.Info("Message queue ready", zap.String("queue", cfg.Queue.Name))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	webhookHandler := handler.NewWebhookHandler(q, cfg)

	e.GET("/health", handler.HealthCheck("ingestion"))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// WhatsApp webhook endpoints
	e.GET("/api/webhook", webhookHandler.Verify)
	e.POST("/api/webhook", webhookHandler.Receive)

	// Queue introspection
	e.GET("/api/queue/status", webhookHandler.QueueStatus)
	e.DELETE("/api/queue/clear", webhookHandler.QueueClear)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
