package shop

import (
	"context"
	"sync"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

const taskQueueSize = 1000

type EventProcessor interface {
	ProcessEvent(ctx context.Context, evt *stripe.Event) error
}

// WorkerPool runs submitted events on a fixed number of goroutines.
type WorkerPool struct {
	tasks     chan func()
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	logger    *zap.Logger
	processor EventProcessor
}

func NewWorkerPool(size int, processor EventProcessor, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}

	wp := &WorkerPool{
		tasks:     make(chan func(), taskQueueSize),
		logger:    logger,
		processor: processor,
	}

	wp.wg.Add(size)
	for i := 0; i < size; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.tasks {
		task()
	}
}

// Submit queues evt and reports whether it was accepted. Events submitted
// after Shutdown are dropped. Cancelling ctx does not abandon an accepted
// event; it still runs to completion during Shutdown.
func (wp *WorkerPool) Submit(ctx context.Context, evt *stripe.Event) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		wp.logger.Warn("Worker pool closed, dropping event", zap.String("event_id", evt.ID))
		return false
	}

	taskCtx := context.WithoutCancel(ctx)
	wp.tasks <- func() {
		if err := wp.processor.ProcessEvent(taskCtx, evt); err != nil {
			wp.logger.Error("Failed to process event",
				zap.Error(err),
				zap.String("event_type", string(evt.Type)),
				zap.String("event_id", evt.ID))
		}
	}
	return true
}

// Shutdown stops intake and waits for queued events to finish.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.tasks)
	wp.mu.Unlock()

	wp.wg.Wait()
}
