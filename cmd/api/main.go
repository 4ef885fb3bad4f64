package main

import (
	"genmarket/internal/handler"
	"genmarket/internal/middleware"
	"genmarket/internal/repository"
	"genmarket/pkg/config"
	"genmarket/pkg/database"
	"genmarket/pkg/jwtutil"
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
	log.Info("Starting marketplace API service...", zap.String("environment", cfg.Server.Env))

	// Initialize database (includes migrations)
	db, err := database.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	users := repository.NewUserRepository(db)
	generators := repository.NewGeneratorRepository(db)

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey: cfg.Admin.JWTSigningKey,
		Expiration: cfg.Admin.JWTExpiration,
	})

	generatorHandler := handler.NewGeneratorHandler(generators)
	adminHandler := handler.NewAdminHandler(generators, users, jwtUtil, cfg)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	e.GET("/health", handler.HealthCheck("api"))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public storefront routes
	api := e.Group("/api")
	api.GET("/generators", generatorHandler.List)
	api.GET("/generators/:id", generatorHandler.Get)
	api.POST("/generators/:id", generatorHandler.TrackClick)

	// Admin routes - login is public, everything else requires a token
	admin := api.Group("/admin")
	admin.POST("/auth", adminHandler.Login)

	protected := admin.Group("", middleware.AdminAuthMiddleware(jwtUtil))
	protected.GET("/generators", adminHandler.ListGenerators)
	protected.PUT("/generators/:id", adminHandler.Review)
	protected.POST("/generators/manual", adminHandler.CreateManual)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
