package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/internal/logger"
	"github.com/bimflow/bimviewer/scene"
)

func TestFromViewer(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stop change carries the stop", func(t *testing.T) {
		e := FromViewer("s1", bimviewer.Event{
			Type:      bimviewer.EventStopChanged,
			Archetype: "office",
			Mode:      scene.Interior,
			Index:     2,
			Stop:      "Executive Suite",
			Frame:     120,
		}, at)

		assert.Equal(t, "stop_changed", e.EventType())
		assert.Equal(t, at, e.Timestamp())
		p := e.Payload()
		assert.Equal(t, "s1", p["session"])
		assert.Equal(t, "interior", p["mode"])
		assert.Equal(t, 2, p["index"])
		assert.Equal(t, "Executive Suite", p["stop"])
		assert.Equal(t, "2026-03-01T12:00:00Z", p["occurred_at"])
	})

	t.Run("mode change has no stop", func(t *testing.T) {
		e := FromViewer("s1", bimviewer.Event{Type: bimviewer.EventViewModeChanged, Mode: scene.Exterior}, at)
		assert.NotContains(t, e.Payload(), "stop")
		assert.NotContains(t, e.Payload(), "index")
	})
}

func TestSubject(t *testing.T) {
	withSession := BaseEvent{Type: "tour_started", Data: map[string]interface{}{"session": "abc"}}
	assert.Equal(t, "bimviewer.abc.tour_started", Subject("bimviewer", withSession))

	bare := BaseEvent{Type: "server_started", Data: map[string]interface{}{}}
	assert.Equal(t, "bimviewer.server_started", Subject("bimviewer", bare))
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("no responders")
}

func (f *failingPublisher) Close() {}

func TestSink(t *testing.T) {
	t.Run("publishes in order", func(t *testing.T) {
		rec := &Recorder{}
		v := bimviewer.New(bimviewer.WithObserver(Sink(rec, "s1", logger.NewNop())))
		require.True(t, v.StartTour("office"))
		require.True(t, v.NextStop())

		var types []string
		for _, e := range rec.Events() {
			types = append(types, e.EventType())
			assert.Equal(t, "s1", e.Payload()["session"])
		}
		assert.Equal(t, []string{"archetype_selected", "view_mode_changed", "tour_started", "stop_changed"}, types)
	})

	t.Run("failures stay out of the viewer", func(t *testing.T) {
		pub := &failingPublisher{}
		v := bimviewer.New(bimviewer.WithObserver(Sink(pub, "s2", logger.NewNop())))
		assert.True(t, v.SelectArchetype("bridge"))
		assert.Equal(t, 1, pub.calls)
	})

	var _ Publisher = NopPublisher{}
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), BaseEvent{}))
}
