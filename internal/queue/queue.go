// Package queue implements the durable FIFO message queue shared by the
// ingestion service (producer) and the parser worker (consumer), backed by
// a Redis list.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrUnavailable wraps transport-level queue failures so callers can
// distinguish infrastructure loss from empty-queue results.
var ErrUnavailable = errors.New("message queue unavailable")

// Reconnection policy: connection refusal escalates immediately, anything
// else is retried with bounded exponential backoff.
const (
	maxConnectAttempts = 10
	backoffStep        = 100 * time.Millisecond
	maxBackoff         = 3 * time.Second
	maxCumulativeRetry = time.Hour
)

// Queue is the producer/consumer contract over the durable message list
type Queue interface {
	// Enqueue appends a serialized message to the tail of the named queue
	// and returns the new queue length.
	Enqueue(ctx context.Context, queueName string, payload []byte) (int64, error)
	// Dequeue blocks up to timeout waiting for a message and pops from the
	// head (FIFO). A nil payload with a nil error means the timeout elapsed
	// with nothing to consume.
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) ([]byte, error)
	// Length reports the number of pending messages.
	Length(ctx context.Context, queueName string) (int64, error)
	// Clear drops all pending messages and returns how many were removed.
	Clear(ctx context.Context, queueName string) (int64, error)
}

type redisQueue struct {
	client *redis.Client
}

// New wraps an established Redis client as a Queue
func New(client *redis.Client) Queue {
	return &redisQueue{client: client}
}

// Connect establishes and verifies the Redis connection. A refused
// connection fails immediately; other errors are retried with backoff
// capped at maxBackoff per attempt, giving up after maxConnectAttempts
// attempts or maxCumulativeRetry of total waiting.
// connectBackoff grows linearly with the attempt number, capped at
// maxBackoff per attempt.
func connectBackoff(attempt int) time.Duration {
	backoff := time.Duration(attempt) * backoffStep
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}

func Connect(ctx context.Context, redisURL string, log *zap.Logger) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opts)

	var waited time.Duration
	for attempt := 1; ; attempt++ {
		err := client.Ping(ctx).Err()
		if err == nil {
			log.Info("Redis connection established", zap.Int("attempt", attempt))
			return client, nil
		}

		if errors.Is(err, syscall.ECONNREFUSED) {
			_ = client.Close()
			return nil, fmt.Errorf("redis connection refused: %w", err)
		}

		if attempt >= maxConnectAttempts || waited >= maxCumulativeRetry {
			_ = client.Close()
			return nil, fmt.Errorf("redis retry attempts exhausted: %w", err)
		}

		backoff := connectBackoff(attempt)
		log.Warn("Redis ping failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
			waited += backoff
		}
	}
}

func (q *redisQueue) Enqueue(ctx context.Context, queueName string, payload []byte) (int64, error) {
	length, err := q.client.LPush(ctx, queueName, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: lpush %s: %v", ErrUnavailable, queueName, err)
	}
	return length, nil
}

func (q *redisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) ([]byte, error) {
	vals, err := q.client.BRPop(ctx, timeout, queueName).Result()
	if errors.Is(err, redis.Nil) {
		// Timed out with nothing to consume
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: brpop %s: %v", ErrUnavailable, queueName, err)
	}
	if len(vals) < 2 {
		return nil, fmt.Errorf("%w: brpop %s: malformed reply", ErrUnavailable, queueName)
	}
	return []byte(vals[1]), nil
}

func (q *redisQueue) Length(ctx context.Context, queueName string) (int64, error) {
	length, err := q.client.LLen(ctx, queueName).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: llen %s: %v", ErrUnavailable, queueName, err)
	}
	return length, nil
}

func (q *redisQueue) Clear(ctx context.Context, queueName string) (int64, error) {
	deleted, err := q.client.Del(ctx, queueName).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: del %s: %v", ErrUnavailable, queueName, err)
	}
	return deleted, nil
}
