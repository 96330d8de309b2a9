package events

import (
	"context"
	"errors"
	"sync"

	"github.com/bimflow/bimviewer/internal/logger"
)

var (
	ErrQueueFull       = errors.New("event queue full")
	ErrPublisherClosed = errors.New("publisher closed")
)

const defaultQueueSize = 256

// AsyncPublisher queues events and hands them to the wrapped Publisher from
// a single goroutine, in the order they were queued. Publish never waits on
// the bus; when the queue is full the event is rejected with ErrQueueFull.
type AsyncPublisher struct {
	next  Publisher
	log   logger.ILogger
	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsyncPublisher starts draining into next. size <= 0 uses a queue of 256.
func NewAsyncPublisher(next Publisher, size int, log logger.ILogger) *AsyncPublisher {
	if size <= 0 {
		size = defaultQueueSize
	}
	p := &AsyncPublisher{
		next:  next,
		log:   log,
		queue: make(chan Event, size),
		done:  make(chan struct{}),
	}
	go p.drain()
	return p
}

// Publish queues event. ctx is not used; each event gets its own publish
// timeout once it leaves the queue.
func (p *AsyncPublisher) Publish(_ context.Context, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) drain() {
	defer close(p.done)
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.next.Publish(ctx, event)
		cancel()
		if err != nil {
			p.log.Warn("Events", "Failed to publish queued event", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
}

// Close stops accepting events, publishes what is still queued and closes
// the wrapped Publisher.
func (p *AsyncPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	p.next.Close()
}
