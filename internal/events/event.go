package events

import (
	"time"

	"github.com/bimflow/bimviewer"
)

// Event defines the contract for all published events.
type Event interface {
	// EventType returns the event code, e.g. "tour_started".
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }

// FromViewer wraps a viewer state change of session for publishing.
func FromViewer(session string, e bimviewer.Event, at time.Time) Event {
	data := map[string]interface{}{
		"session":     session,
		"archetype":   e.Archetype,
		"mode":        e.Mode.String(),
		"frame":       e.Frame,
		"occurred_at": at.UTC().Format(time.RFC3339Nano),
	}
	switch e.Type {
	case bimviewer.EventTourStarted, bimviewer.EventStopChanged:
		data["index"] = e.Index
		data["stop"] = e.Stop
	}
	return BaseEvent{Type: string(e.Type), Data: data, OccurredAt: at}
}
