package mailer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrQueueFull        = errors.New("mail queue is full")
	ErrDispatcherClosed = errors.New("mail dispatcher is closed")
)

// Dispatcher sends queued messages from a fixed pool of workers, no faster
// than the configured rate.
type Dispatcher struct {
	sender      Sender
	limiter     *rate.Limiter
	workerCount int
	queue       chan Message
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	closeMux    sync.RWMutex
}

// NewDispatcher creates a dispatcher with workerCount workers sending at most
// perSecond messages per second.
func NewDispatcher(sender Sender, workerCount, perSecond int) *Dispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	if perSecond < 1 {
		perSecond = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sender:      sender,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), perSecond),
		workerCount: workerCount,
		queue:       make(chan Message, workerCount*64),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	zap.L().Info("Mail dispatcher started", zap.Int("workers", d.workerCount))
}

// Enqueue schedules msg for delivery without blocking.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.closeMux.RLock()
	defer d.closeMux.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting messages and waits for the queue to drain. When
// ctx ends first, pending messages are dropped.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.closeMux.Lock()
	if !d.closed {
		close(d.queue)
		d.closed = true
	}
	d.closeMux.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		zap.L().Info("Mail dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		zap.L().Warn("Mail dispatcher stopped before the queue drained")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for msg := range d.queue {
		if err := d.limiter.Wait(d.ctx); err != nil {
			zap.L().Debug("Mail worker cancelled", zap.Int("worker", id))
			return
		}
		if err := d.sender.Send(d.ctx, msg); err != nil {
			zap.L().Error("Failed to send mail",
				zap.Int("worker", id),
				zap.String("to", msg.To),
				zap.Error(err))
		}
	}
}
