package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/internal/events"
	"github.com/bimflow/bimviewer/internal/logger"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one client's viewer and its outputs.
type Session struct {
	ID      string
	Viewer  *bimviewer.Viewer
	Stream  *bimviewer.StreamTarget
	Frames  *bimviewer.FrameTarget
	Created time.Time
}

// SessionSettings is what every new session starts with.
type SessionSettings struct {
	Options       []bimviewer.Option
	Width, Height int
}

// Sessions keeps viewer sessions in memory. A session not touched for the
// TTL is evicted and its viewer closed.
type Sessions struct {
	cache    *cache.Cache
	settings SessionSettings
	pub      events.Publisher
	log      logger.ILogger
}

func NewSessions(ttl time.Duration, settings SessionSettings, pub events.Publisher, log logger.ILogger) *Sessions {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	c := cache.New(ttl, cleanup)
	s := &Sessions{cache: c, settings: settings, pub: pub, log: log}
	c.OnEvicted(s.evicted)
	return s
}

func (s *Sessions) evicted(id string, v interface{}) {
	sess := v.(*Session)
	if err := sess.Viewer.Close(); err != nil {
		s.log.Warn("Sessions", "Failed to close viewer", map[string]interface{}{"session": id, "error": err.Error()})
	}
	s.log.Info("Sessions", "Session closed", map[string]interface{}{"session": id})
}

// Create starts a new viewer session. width and height override the
// default frame size when positive; archetype is selected when not empty.
func (s *Sessions) Create(ctx context.Context, archetype string, width, height int) (*Session, error) {
	if width <= 0 || height <= 0 {
		width, height = s.settings.Width, s.settings.Height
	}
	id := uuid.NewString()
	sess := &Session{
		ID:      id,
		Stream:  bimviewer.NewStreamTarget(id),
		Frames:  bimviewer.NewFrameTarget(width, height),
		Created: time.Now(),
	}

	opts := append([]bimviewer.Option(nil), s.settings.Options...)
	opts = append(opts,
		bimviewer.WithViewport(width, height),
		bimviewer.WithObserver(events.Sink(s.pub, id, s.log)),
	)
	if archetype != "" {
		opts = append(opts, bimviewer.WithArchetype(archetype))
	}
	sess.Viewer = bimviewer.New(opts...)
	if err := sess.Viewer.AddTarget(sess.Stream); err != nil {
		return nil, err
	}
	if err := sess.Viewer.AddTarget(sess.Frames); err != nil {
		return nil, err
	}

	// the frame loop outlives the request that created it
	if err := sess.Viewer.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	s.cache.Set(id, sess, cache.DefaultExpiration)
	s.log.Info("Sessions", "Session created", map[string]interface{}{"session": id, "archetype": archetype})
	return sess, nil
}

// Get returns a session and extends its lifetime.
func (s *Sessions) Get(id string) (*Session, error) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.cache.Set(id, v, cache.DefaultExpiration)
	return v.(*Session), nil
}

// Touch extends the lifetime of a live session. It reports false when the
// session is gone.
func (s *Sessions) Touch(id string) bool {
	v, found := s.cache.Get(id)
	if !found {
		return false
	}
	return s.cache.Replace(id, v, cache.DefaultExpiration) == nil
}

// Delete closes a session.
func (s *Sessions) Delete(id string) error {
	if _, found := s.cache.Get(id); !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.cache.Delete(id)
	return nil
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	return s.cache.ItemCount()
}

// Close closes every session.
func (s *Sessions) Close() {
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}
