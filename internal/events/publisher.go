package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/internal/logger"
)

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NopPublisher drops every event. Used when no NATS URL is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close()                               {}

// NATSPublisher publishes events to a JetStream stream.
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	prefix string
}

// NewNATSPublisher connects to url and ensures a stream named stream
// captures "<prefix>.>".
func NewNATSPublisher(url, stream, prefix string, log logger.ILogger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{prefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		// the stream may already exist or the server may still be starting
		log.Warn("Events", "Failed to ensure stream", map[string]interface{}{"stream": stream, "error": err.Error()})
	}

	return &NATSPublisher{nc: nc, js: js, prefix: prefix}, nil
}

// Subject is the subject an event is published on.
func (p *NATSPublisher) Subject(event Event) string {
	return Subject(p.prefix, event)
}

// Subject builds "<prefix>.<session>.<type>", or "<prefix>.<type>" for
// events without a session.
func Subject(prefix string, event Event) string {
	if s, ok := event.Payload()["session"].(string); ok && s != "" {
		return fmt.Sprintf("%s.%s.%s", prefix, s, event.EventType())
	}
	return fmt.Sprintf("%s.%s", prefix, event.EventType())
}

// Publish sends an event to NATS.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := p.Subject(event)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of what was published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Sink returns a viewer observer that publishes each state change of
// session. Failures are logged and never reach the viewer. Observers run on
// the viewer's command and frame goroutines, so pub should be an
// AsyncPublisher when it talks to the network.
func Sink(pub Publisher, session string, log logger.ILogger) func(bimviewer.Event) {
	return func(e bimviewer.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := pub.Publish(ctx, FromViewer(session, e, time.Now())); err != nil {
			log.Warn("Events", "Failed to publish viewer event", map[string]interface{}{
				"session": session,
				"type":    string(e.Type),
				"error":   err.Error(),
			})
		}
	}
}

const publishTimeout = 2 * time.Second
