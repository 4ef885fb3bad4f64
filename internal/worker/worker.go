package worker

import (
	"context"
	"sync/atomic"
	"time"

	"genmarket/internal/queue"
	"genmarket/prometheus"

	"go.uber.org/zap"
)

// MessageProcessor handles one dequeued payload
type MessageProcessor interface {
	Process(ctx context.Context, raw []byte) error
}

// Worker is the single sequential queue consumer: exactly one message is in
// flight at a time. Per-message failures are logged and the loop continues;
// dequeue-level failures back off for a cooldown before retrying.
type Worker struct {
	queue          queue.Queue
	queueName      string
	dequeueTimeout time.Duration
	errorCooldown  time.Duration
	processor      MessageProcessor
	log            *zap.Logger

	running atomic.Bool
}

func NewWorker(
	q queue.Queue,
	queueName string,
	dequeueTimeout time.Duration,
	errorCooldown time.Duration,
	processor MessageProcessor,
	log *zap.Logger,
) *Worker {
	return &Worker{
		queue:          q,
		queueName:      queueName,
		dequeueTimeout: dequeueTimeout,
		errorCooldown:  errorCooldown,
		processor:      processor,
		log:            log,
	}
}

// Start runs the consumer loop until the context is cancelled. Calling
// Start while the loop is already running is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		w.log.Warn("Parser worker is already running")
		return
	}
	defer w.running.Store(false)

	w.log.Info("Starting message parser worker",
		zap.String("queue", w.queueName),
		zap.Duration("dequeue_timeout", w.dequeueTimeout))

	for {
		if ctx.Err() != nil {
			w.log.Info("Stopping message parser worker")
			return
		}

		raw, err := w.queue.Dequeue(ctx, w.queueName, w.dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("Stopping message parser worker")
				return
			}
			w.log.Error("Error dequeuing message, cooling down",
				zap.Duration("cooldown", w.errorCooldown),
				zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.errorCooldown):
			}
			continue
		}

		if raw == nil {
			// Dequeue timed out with nothing to consume, keep polling
			continue
		}

		if err := w.processor.Process(ctx, raw); err != nil {
			prometheus.MessagesProcessedCounter.WithLabelValues("error").Inc()
			w.log.Error("Error processing message", zap.Error(err))
			continue
		}
		prometheus.MessagesProcessedCounter.WithLabelValues("ok").Inc()
	}
}
