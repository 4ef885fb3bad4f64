package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// scriptedQueue plays back a fixed sequence of dequeue results, then
// cancels the loop context so Start returns.
type scriptedQueue struct {
	mu      sync.Mutex
	results []dequeueResult
	cancel  context.CancelFunc
	calls   int
}

type dequeueResult struct {
	payload []byte
	err     error
}

func (q *scriptedQueue) Enqueue(ctx context.Context, queueName string, payload []byte) (int64, error) {
	return 0, nil
}

func (q *scriptedQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if len(q.results) == 0 {
		q.cancel()
		return nil, nil
	}
	next := q.results[0]
	q.results = q.results[1:]
	return next.payload, next.err
}

func (q *scriptedQueue) Length(ctx context.Context, queueName string) (int64, error) { return 0, nil }
func (q *scriptedQueue) Clear(ctx context.Context, queueName string) (int64, error) { return 0, nil }

// recordingProcessor records the payloads it was handed
type recordingProcessor struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingProcessor) Process(ctx context.Context, raw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, raw)
	return p.err
}

func TestWorker_ProcessesDequeuedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &scriptedQueue{
		cancel: cancel,
		results: []dequeueResult{
			{payload: []byte(`{"a":1}`)},
			{payload: []byte(`{"b":2}`)},
		},
	}
	proc := &recordingProcessor{}
	w := NewWorker(q, "whatsapp_messages", time.Millisecond, time.Millisecond, proc, zap.NewNop())

	w.Start(ctx)

	assert.Equal(t, [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`)}, proc.payloads)
}

func TestWorker_TimeoutContinuesPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// nil payload with nil error is a dequeue timeout, not a failure
	q := &scriptedQueue{
		cancel: cancel,
		results: []dequeueResult{
			{payload: nil, err: nil},
			{payload: nil, err: nil},
			{payload: []byte(`{"late":true}`)},
		},
	}
	proc := &recordingProcessor{}
	w := NewWorker(q, "whatsapp_messages", time.Millisecond, time.Millisecond, proc, zap.NewNop())

	w.Start(ctx)

	assert.Len(t, proc.payloads, 1)
	assert.GreaterOrEqual(t, q.calls, 4)
}

func TestWorker_DequeueErrorCoolsDownAndContinues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &scriptedQueue{
		cancel: cancel,
		results: []dequeueResult{
			{err: errors.New("queue unreachable")},
			{payload: []byte(`{"after":"recovery"}`)},
		},
	}
	proc := &recordingProcessor{}
	w := NewWorker(q, "whatsapp_messages", time.Millisecond, time.Millisecond, proc, zap.NewNop())

	w.Start(ctx)

	assert.Len(t, proc.payloads, 1)
}

func TestWorker_ProcessingErrorKeepsLoopAlive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &scriptedQueue{
		cancel: cancel,
		results: []dequeueResult{
			{payload: []byte(`{"bad":true}`)},
			{payload: []byte(`{"also":"processed"}`)},
		},
	}
	proc := &recordingProcessor{err: errors.New("boom")}
	w := NewWorker(q, "whatsapp_messages", time.Millisecond, time.Millisecond, proc, zap.NewNop())

	w.Start(ctx)

	// Both messages were handed to the processor despite the failures
	assert.Len(t, proc.payloads, 2)
}

func TestWorker_ReentrantStartIsNoOp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := make(chan struct{})
	q := &blockingQueue{entered: make(chan struct{}), unblock: block}
	w := NewWorker(q, "whatsapp_messages", time.Millisecond, time.Millisecond, &recordingProcessor{}, zap.NewNop())

	go w.Start(ctx)

	// Wait for the first loop to be inside Dequeue
	<-q.entered

	done := make(chan struct{})
	go func() {
		w.Start(ctx) // must return immediately
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Start did not return while worker was running")
	}

	cancel()
	close(block)
}

type blockingQueue struct {
	entered   chan struct{}
	unblock   chan struct{}
	enterOnce sync.Once
}

func (q *blockingQueue) Enqueue(ctx context.Context, queueName string, payload []byte) (int64, error) {
	return 0, nil
}

func (q *blockingQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) ([]byte, error) {
	q.enterOnce.Do(func() { close(q.entered) })
	select {
	case <-ctx.Done():
	case <-q.unblock:
	}
	return nil, nil
}

func (q *blockingQueue) Length(ctx context.Context, queueName string) (int64, error) { return 0, nil }
func (q *blockingQueue) Clear(ctx context.Context, queueName string) (int64, error) { return 0, nil }
