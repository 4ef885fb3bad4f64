package prometheus

import (
	"strconv"
	"time"

	"genmarket/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook metrics
	WebhooksReceivedCounter prometheus.Counter
	WebhooksQueuedCounter   prometheus.Counter
	EnqueueFailureCounter   prometheus.Counter

	// Worker metrics
	MessagesProcessedCounter *prometheus.CounterVec
	ListingsCreatedCounter   *prometheus.CounterVec
	SoldOutcomeCounter       *prometheus.CounterVec
	MediaItemsCounter        *prometheus.CounterVec

	// Queue metrics
	QueueDepthGauge prometheus.Gauge

	// Request metrics
	RequestDurationHistogram *prometheus.HistogramVec
	APIRequestCounter        *prometheus.CounterVec

	// Namespace prefix for metrics
	namespace string
)

// InitMetrics initializes all Prometheus metrics
func InitMetrics(cfg *config.Config) {
	namespace = cfg.Metrics.Prefix

	// Webhook metrics
	WebhooksReceivedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhooks_received_total",
		Help:      "Total number of inbound webhook payloads accepted",
	})

	WebhooksQueuedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhooks_queued_total",
		Help:      "Total number of webhook payloads successfully enqueued",
	})

	EnqueueFailureCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_enqueue_failures_total",
		Help:      "Total number of webhook payloads that could not be enqueued",
	})

	// Worker metrics
	MessagesProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Total number of queue messages processed by result",
		},
		[]string{"result"},
	)

	ListingsCreatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created by initial status",
		},
		[]string{"status"},
	)

	SoldOutcomeCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sold_workflow_outcomes_total",
			Help:      "Total number of SOLD reply resolutions by outcome",
		},
		[]string{"outcome"},
	)

	MediaItemsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_items_total",
			Help:      "Total number of media items resolved or skipped",
		},
		[]string{"result"},
	)

	// Queue metrics
	QueueDepthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Number of pending messages in the ingestion queue",
	})

	// Request metrics
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)
}

// MetricsMiddleware returns an Echo middleware that records request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			RequestDurationHistogram.WithLabelValues(c.Request().Method, path, status).
				Observe(time.Since(start).Seconds())
			APIRequestCounter.WithLabelValues(c.Request().Method, path, status).Inc()

			return err
		}
	}
}
