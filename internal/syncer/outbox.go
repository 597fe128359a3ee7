package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Write is one queued remote write.
type Write struct {
	Entity string
	Op     string
	ID     string
	Send   func(ctx context.Context) error
}

// Outbox delivers remote writes in the background without the caller waiting.
//
// Delivery is best effort: a write is attempted up to the configured number of
// times with exponential backoff, and a final failure is logged and dropped. The
// local state stays as the caller left it. Writes are upserts or deletes by ID, so
// completions may land in any order.
type Outbox struct {
	queue    chan Write
	attempts int
	backoff  time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	workers  sync.WaitGroup
	pending  atomic.Int64
	failed   atomic.Int64
	stopOnce sync.Once
	done     chan struct{}
}

// NewOutbox creates an outbox holding up to buffer queued writes.
func NewOutbox(buffer, attempts int, backoff, timeout time.Duration, logger *zap.Logger) *Outbox {
	if buffer <= 0 {
		buffer = 256
	}
	if attempts <= 0 {
		attempts = 1
	}
	return &Outbox{
		queue:    make(chan Write, buffer),
		attempts: attempts,
		backoff:  backoff,
		timeout:  timeout,
		logger:   logger.Named("outbox"),
		done:     make(chan struct{}),
	}
}

// Start launches the delivery workers.
func (o *Outbox) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		o.workers.Add(1)
		go o.run()
	}
}

// Enqueue queues w and returns immediately. A full queue drops the write.
func (o *Outbox) Enqueue(w Write) bool {
	select {
	case <-o.done:
		o.logger.Warn("outbox stopped, dropping write",
			zap.String("entity", w.Entity), zap.String("op", w.Op), zap.String("id", w.ID))
		return false
	default:
	}

	o.pending.Add(1)
	select {
	case o.queue <- w:
		return true
	default:
		o.pending.Add(-1)
		o.failed.Add(1)
		o.logger.Warn("outbox full, dropping write",
			zap.String("entity", w.Entity), zap.String("op", w.Op), zap.String("id", w.ID))
		return false
	}
}

// Pending returns the number of queued or in-flight writes.
func (o *Outbox) Pending() int {
	return int(o.pending.Load())
}

// Failed returns the number of writes given up on since start.
func (o *Outbox) Failed() int {
	return int(o.failed.Load())
}

// Wait blocks until no write is queued or in flight, or ctx expires.
func (o *Outbox) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for o.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Stop stops accepting writes and waits for the workers to drain the queue, or for
// ctx to expire.
func (o *Outbox) Stop(ctx context.Context) {
	o.stopOnce.Do(func() { close(o.done) })

	finished := make(chan struct{})
	go func() {
		o.workers.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		o.logger.Warn("outbox stop timed out", zap.Int("pending", o.Pending()))
	}
}

func (o *Outbox) run() {
	defer o.workers.Done()
	for {
		select {
		case w := <-o.queue:
			o.deliver(w)
		case <-o.done:
			// drain what is already queued, then exit
			for {
				select {
				case w := <-o.queue:
					o.deliver(w)
				default:
					return
				}
			}
		}
	}
}

func (o *Outbox) deliver(w Write) {
	defer o.pending.Add(-1)

	wait := o.backoff
	var err error
	for attempt := 1; attempt <= o.attempts; attempt++ {
		ctx, cancel := o.attemptContext()
		err = w.Send(ctx)
		cancel()
		if err == nil {
			return
		}
		if attempt < o.attempts {
			time.Sleep(wait)
			wait *= 2
		}
	}

	o.failed.Add(1)
	o.logger.Warn("remote write failed",
		zap.String("entity", w.Entity),
		zap.String("op", w.Op),
		zap.String("id", w.ID),
		zap.Int("attempts", o.attempts),
		zap.Error(err),
	)
}

func (o *Outbox) attemptContext() (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(context.Background(), o.timeout)
	}
	return context.WithCancel(context.Background())
}
