package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"genmarket/internal/handler"
	"genmarket/internal/media"
	"genmarket/internal/queue"
	"genmarket/internal/repository"
	"genmarket/internal/storage"
	"genmarket/internal/worker"
	"genmarket/pkg/config"
	"genmarket/pkg/database"
	"genmarket/pkg/logger"
	"genmarket/prometheus"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
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
	log.Info("Starting parser worker...", zap.String("environment", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database (includes migrations)
	db, err := database.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Connect to Redis before consuming
	client, err := queue.Connect(ctx, cfg.Redis.URL, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	q := queue.New(client)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)

	users := repository.NewUserRepository(db)
	generators := repository.NewGeneratorRepository(db)

	uploader := newUploader(ctx, cfg, log)
	mediaResolver := media.NewResolver(media.NewHTTPDownloader(), uploader, log)
	soldResolver := worker.NewSoldResolver(generators, users, log)
	processor := worker.NewProcessor(users, generators, mediaResolver, soldResolver, log)

	w := worker.NewWorker(
		q,
		cfg.Queue.Name,
		cfg.Queue.DequeueTimeout,
		cfg.Queue.ErrorCooldown,
		processor,
		log,
	)

	// Health and metrics endpoint alongside the consumer loop
	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.GET("/health", handler.HealthCheck("parser"))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	// Blocks until the context is cancelled by SIGINT/SIGTERM
	w.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("Metrics server shutdown failed", zap.Error(err))
	}
	log.Info("Parser worker stopped")
}

// newUploader builds the S3 uploader, falling back to placeholder-only
// mode when no bucket is configured or AWS credentials cannot be loaded.
func newUploader(ctx context.Context, cfg *config.Config, log *zap.Logger) *storage.S3Uploader {
	if cfg.S3.Bucket == "" {
		log.Warn("No S3 bucket configured, media uploads use placeholder URLs")
		return storage.NewS3Uploader(nil, "", cfg.S3.Region, cfg.S3.PublicBaseURL, true, log)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		log.Warn("Failed to load AWS configuration, media uploads use placeholder URLs",
			zap.Error(err))
		return storage.NewS3Uploader(nil, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.PublicBaseURL, true, log)
	}

	return storage.NewS3Uploader(
		s3.NewFromConfig(awsCfg),
		cfg.S3.Bucket,
		cfg.S3.Region,
		cfg.S3.PublicBaseURL,
		false,
		log,
	)
}
