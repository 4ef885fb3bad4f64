package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"genmarket/internal/queue"
	"genmarket/internal/webhook"
	"genmarket/pkg/config"
	"genmarket/pkg/logger"
	"genmarket/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WebhookHandler accepts inbound WhatsApp webhook payloads and enqueues
// them for the parser worker
type WebhookHandler struct {
	queue       queue.Queue
	queueName   string
	verifyToken string
	env         string
}

func NewWebhookHandler(q queue.Queue, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		queue:       q,
		queueName:   cfg.Queue.Name,
		verifyToken: cfg.Webhook.VerifyToken,
		env:         cfg.Server.Env,
	}
}

// Receive handles POST /api/webhook. Once the payload is a syntactically
// valid JSON object the response is 200 no matter what happens downstream:
// WhatsApp retries aggressively on non-2xx, and a retry storm would only
// amplify duplicates. Enqueue failures are reported in the body.
func (h *WebhookHandler) Receive(c echo.Context) error {
	log := logger.FromContext(c)

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Error("Failed to read webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payload"})
	}

	// The payload must be a non-null JSON object
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		log.Error("Invalid webhook payload received")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payload"})
	}

	prometheus.WebhooksReceivedCounter.Inc()

	env := webhook.NewEnvelope(raw, time.Now())
	data, err := json.Marshal(env)
	if err != nil {
		log.Error("Failed to serialize queue envelope", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{
			"success":   false,
			"message":   "Webhook received but failed to queue",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	length, err := h.queue.Enqueue(c.Request().Context(), h.queueName, data)
	if err != nil {
		prometheus.EnqueueFailureCounter.Inc()
		log.Error("Failed to enqueue webhook payload",
			zap.String("queue", h.queueName),
			zap.Error(err))
		// Still 200 so the sender does not retry
		return c.JSON(http.StatusOK, echo.Map{
			"success":   false,
			"message":   "Webhook received but failed to queue",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	prometheus.WebhooksQueuedCounter.Inc()
	log.Info("Webhook payload queued",
		zap.String("queue", h.queueName),
		zap.Int64("queue_length", length))

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Webhook received and queued for processing",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Verify handles GET /api/webhook, the WhatsApp webhook subscription
// handshake: echo the challenge back when the verify token matches.
func (h *WebhookHandler) Verify(c echo.Context) error {
	log := logger.FromContext(c)

	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		log.Info("Webhook verified successfully")
		return c.String(http.StatusOK, challenge)
	}

	log.Warn("Webhook verification failed", zap.String("mode", mode))
	return c.String(http.StatusForbidden, "Forbidden")
}

// QueueStatus handles GET /api/queue/status
func (h *WebhookHandler) QueueStatus(c echo.Context) error {
	log := logger.FromContext(c)

	length, err := h.queue.Length(c.Request().Context(), h.queueName)
	if err != nil {
		log.Error("Failed to get queue status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to get queue status",
			"message": err.Error(),
		})
	}

	prometheus.QueueDepthGauge.Set(float64(length))

	return c.JSON(http.StatusOK, echo.Map{
		"queue_name":       h.queueName,
		"pending_messages": length,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

// QueueClear handles DELETE /api/queue/clear, disabled in production
func (h *WebhookHandler) QueueClear(c echo.Context) error {
	log := logger.FromContext(c)

	if h.env == "production" {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "Queue clearing not allowed in production",
		})
	}

	deleted, err := h.queue.Clear(c.Request().Context(), h.queueName)
	if err != nil {
		log.Error("Failed to clear queue", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to clear queue",
			"message": err.Error(),
		})
	}

	log.Info("Queue cleared",
		zap.String("queue", h.queueName),
		zap.Int64("deleted_count", deleted))

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"message":       "Queue " + h.queueName + " cleared",
		"deleted_count": deleted,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
