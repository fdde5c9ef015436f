package shop_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	shop "gofalre.io/storefront"
)

type countingProcessor struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (p *countingProcessor) ProcessEvent(_ context.Context, _ *stripe.Event) error {
	time.Sleep(p.delay)
	p.calls.Add(1)
	return p.err
}

func TestWorkerPool_ShutdownDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	processor := &countingProcessor{delay: time.Millisecond}
	wp := shop.NewWorkerPool(4, processor, zaptest.NewLogger(t))

	for i := 0; i < 50; i++ {
		assert.True(t, wp.Submit(t.Context(), &stripe.Event{ID: fmt.Sprintf("evt_%d", i)}))
	}
	wp.Shutdown()

	assert.EqualValues(t, 50, processor.calls.Load())
}

type contextRecorder struct {
	done      atomic.Int32
	cancelled atomic.Int32
}

func (p *contextRecorder) ProcessEvent(ctx context.Context, _ *stripe.Event) error {
	time.Sleep(time.Millisecond)
	if ctx.Err() != nil {
		p.cancelled.Add(1)
		return ctx.Err()
	}
	p.done.Add(1)
	return nil
}

func TestWorkerPool_QueuedEventsOutliveSubmitContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	processor := &contextRecorder{}
	wp := shop.NewWorkerPool(1, processor, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(t.Context())
	for i := 0; i < 10; i++ {
		assert.True(t, wp.Submit(ctx, &stripe.Event{ID: fmt.Sprintf("evt_%d", i)}))
	}
	cancel()
	wp.Shutdown()

	assert.EqualValues(t, 10, processor.done.Load())
	assert.Zero(t, processor.cancelled.Load())
}

func TestWorkerPool_SubmitAfterShutdownIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	processor := &countingProcessor{}
	wp := shop.NewWorkerPool(2, processor, zaptest.NewLogger(t))
	wp.Shutdown()
	wp.Shutdown()

	assert.False(t, wp.Submit(t.Context(), &stripe.Event{ID: "evt_late"}))
	assert.Zero(t, processor.calls.Load())
}

func TestWorkerPool_ProcessorErrorsDoNotStopWorkers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	processor := &countingProcessor{err: errors.New("boom")}
	wp := shop.NewWorkerPool(1, processor, zaptest.NewLogger(t))

	wp.Submit(t.Context(), &stripe.Event{ID: "evt_1"})
	wp.Submit(t.Context(), &stripe.Event{ID: "evt_2"})
	wp.Shutdown()

	assert.EqualValues(t, 2, processor.calls.Load())
}

func TestWorkerPool_ZeroSizeStillRuns(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	processor := &countingProcessor{}
	wp := shop.NewWorkerPool(0, processor, zaptest.NewLogger(t))

	wp.Submit(t.Context(), &stripe.Event{ID: "evt_1"})
	wp.Shutdown()

	assert.EqualValues(t, 1, processor.calls.Load())
}
