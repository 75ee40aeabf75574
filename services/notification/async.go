package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"tourbooking/models"

	"go.uber.org/zap"
)

const (
	DefaultAsyncBuffer      = 256
	DefaultAsyncSendTimeout = 30 * time.Second
)

// ErrBufferFull is returned when the async buffer cannot take another
// notification. The notification is dropped.
var ErrBufferFull = errors.New("notification buffer is full")

// AsyncPublisher queues notifications in a bounded buffer drained by one
// goroutine, so Publish never waits on the wrapped publisher.
type AsyncPublisher struct {
	inner   Publisher
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan models.Notification
	done   chan struct{}
}

func NewAsyncPublisher(inner Publisher, size int, timeout time.Duration, logger *zap.Logger) *AsyncPublisher {
	if size <= 0 {
		size = DefaultAsyncBuffer
	}
	if timeout <= 0 {
		timeout = DefaultAsyncSendTimeout
	}
	p := &AsyncPublisher{
		inner:   inner,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan models.Notification, size),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) Publish(_ context.Context, n models.Notification) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrBufferFull
	}
	select {
	case p.queue <- n:
		return nil
	default:
		return ErrBufferFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for n := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.inner.Publish(ctx, n)
		cancel()
		if err != nil {
			p.logger.Warn("notification dropped",
				zap.String("kind", string(n.Kind)),
				zap.String("reservationID", n.ReservationID),
				zap.Error(&models.NotificationError{Kind: n.Kind, ReservationID: n.ReservationID, Err: err}))
		}
	}
}

// Close stops accepting notifications and waits for the buffer to drain.
func (p *AsyncPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}
