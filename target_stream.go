package bimviewer

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// StreamTarget fans JSON frames out to subscribers, such as websocket
// clients. Frames identical to the previous one are not sent, and a
// subscriber that falls behind misses frames rather than blocking the
// viewer.
type StreamTarget struct {
	name   string
	buffer int

	mu     sync.RWMutex
	last   []byte
	subs   map[int]chan []byte
	nextID int
	closed bool
}

// StreamOption configures a StreamTarget.
type StreamOption func(*StreamTarget)

// WithStreamBuffer sets how many frames a subscriber may lag behind.
func WithStreamBuffer(n int) StreamOption {
	return func(t *StreamTarget) {
		if n > 0 {
			t.buffer = n
		}
	}
}

// NewStreamTarget creates a stream target.
func NewStreamTarget(name string, opts ...StreamOption) *StreamTarget {
	t := &StreamTarget{
		name:   name,
		buffer: 4,
		subs:   make(map[int]chan []byte),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Target.
func (t *StreamTarget) Name() string {
	return fmt.Sprintf("Stream(%s)", t.name)
}

// Update implements Target.
func (t *StreamTarget) Update(ctx context.Context, state *ViewState) error {
	data, err := ViewStateToJSONBytes(state)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || bytes.Equal(data, t.last) {
		return nil
	}
	t.last = data
	for _, ch := range t.subs {
		select {
		case ch <- data:
		default:
		}
	}
	return nil
}

// Latest returns the most recent frame, or nil before the first update.
func (t *StreamTarget) Latest() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Subscribe returns a channel of frames, primed with the latest frame, and
// a function that ends the subscription. The channel is closed when the
// subscription ends or the target closes.
func (t *StreamTarget) Subscribe() (<-chan []byte, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan []byte, t.buffer)
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	if t.last != nil {
		ch <- t.last
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers is the number of live subscriptions.
func (t *StreamTarget) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Close implements Target.
func (t *StreamTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
	return nil
}
