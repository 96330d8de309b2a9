package bimviewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bimflow/bimviewer/camera"
	"github.com/bimflow/bimviewer/scene"
	"github.com/bimflow/bimviewer/tour"
)

var (
	ErrAlreadyStarted = errors.New("viewer already started")
	ErrNotStarted     = errors.New("viewer not started")
)

// StateProvider supplies the frame pushed to targets. A Viewer is its own
// provider unless SetStateProvider replaces it.
type StateProvider interface {
	GetViewState() (*ViewState, error)
}

// Viewer runs one viewer session: it owns the ViewerState, steps it once
// per frame and pushes every frame to its targets.
type Viewer struct {
	mu       sync.RWMutex
	provider StateProvider
	targets  []Target
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	cfg       StateConfig
	state     *ViewerState
	logger    *zap.Logger
	observers []func(Event)
}

// Option configures the Viewer.
type Option func(*Viewer)

// WithInterval sets the frame interval.
func WithInterval(d time.Duration) Option {
	return func(v *Viewer) {
		if d > 0 {
			v.interval = d
		}
	}
}

// WithFrameRate sets the frame interval from frames per second. The orbit
// damping is tuned to the same rate.
func WithFrameRate(fps int) Option {
	return func(v *Viewer) {
		if fps > 0 {
			v.interval = time.Second / time.Duration(fps)
			v.cfg.FPS = fps
		}
	}
}

// WithBlend sets the per-frame tour blend factor, between 0 and 1.
func WithBlend(f float64) Option {
	return func(v *Viewer) {
		v.cfg.Blend = f
	}
}

// WithCameraPolicy decides who owns the camera while a tour runs.
func WithCameraPolicy(p camera.Policy) Option {
	return func(v *Viewer) {
		v.cfg.Policy = p
	}
}

// WithCatalogue replaces the built-in tour catalogue.
func WithCatalogue(c *tour.Catalogue) Option {
	return func(v *Viewer) {
		v.cfg.Catalogue = c
	}
}

// WithBuilder replaces the built-in scene builder.
func WithBuilder(b *scene.Builder) Option {
	return func(v *Viewer) {
		v.cfg.Builder = b
	}
}

// WithViewport sets the initial viewport size.
func WithViewport(width, height int) Option {
	return func(v *Viewer) {
		v.cfg.Width, v.cfg.Height = width, height
	}
}

// WithFOV sets the vertical field of view in degrees.
func WithFOV(deg float64) Option {
	return func(v *Viewer) {
		v.cfg.FOV = deg
	}
}

// WithArchetype selects an archetype whenever a fresh session starts.
func WithArchetype(id string) Option {
	return func(v *Viewer) {
		v.cfg.Archetype = id
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithObserver registers fn to receive state change events. Observers run
// on the goroutine that caused the change, after the viewer lock is
// released.
func WithObserver(fn func(Event)) Option {
	return func(v *Viewer) {
		v.observers = append(v.observers, fn)
	}
}

// New creates a new Viewer with the given options.
func New(opts ...Option) *Viewer {
	v := &Viewer{
		interval: time.Second / 60,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.state = NewViewerState(v.cfg)
	return v
}

// SetStateProvider replaces the source of the frames pushed to targets.
// By default the viewer pushes its own snapshots.
func (v *Viewer) SetStateProvider(p StateProvider) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.provider = p
}

// AddTarget adds an output target. Targets added to a running viewer are
// not opened.
func (v *Viewer) AddTarget(t Target) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.targets = append(v.targets, t)
	return nil
}

// RemoveTarget removes a target by reference.
func (v *Viewer) RemoveTarget(t Target) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, target := range v.targets {
		if target == t {
			v.targets = append(v.targets[:i], v.targets[i+1:]...)
			return
		}
	}
}

// Start opens every target that needs a surface and begins the frame loop.
// If any target fails to open, the ones already opened are closed and the
// error is returned; the viewer stays closed.
func (v *Viewer) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	v.cancel, v.done = cancel, done
	targets := make([]Target, len(v.targets))
	copy(targets, v.targets)
	v.mu.Unlock()

	if err := openTargets(ctx, targets); err != nil {
		v.mu.Lock()
		if v.done == done {
			v.cancel, v.done = nil, nil
		}
		v.mu.Unlock()
		cancel()
		close(done)
		v.logger.Error("viewer failed to open", zap.Error(err))
		return err
	}

	if err := v.Tick(ctx); err != nil {
		v.logger.Warn("initial frame", zap.Error(err))
	}

	go v.run(ctx, done)
	v.logger.Info("viewer started", zap.Duration("interval", v.interval), zap.Int("targets", len(targets)))
	return nil
}

func openTargets(ctx context.Context, targets []Target) error {
	var opened []Target
	for _, t := range targets {
		o, ok := t.(Opener)
		if !ok {
			continue
		}
		if err := o.Open(ctx); err != nil {
			for i := len(opened) - 1; i >= 0; i-- {
				_ = opened[i].Close()
			}
			return fmt.Errorf("opening target %s: %w", t.Name(), err)
		}
		opened = append(opened, t)
	}
	return nil
}

func (v *Viewer) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.Tick(ctx); err != nil {
				v.logger.Debug("frame update", zap.Error(err))
			}
		}
	}
}

// Running reports whether the frame loop is running.
func (v *Viewer) Running() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cancel != nil
}

// Stop stops the frame loop and waits for it to exit. The session state
// and targets are kept.
func (v *Viewer) Stop() {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	done := v.done
	v.done = nil
	v.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Tick advances one frame and pushes it to the targets.
func (v *Viewer) Tick(ctx context.Context) error {
	v.mu.Lock()
	v.state.Step()
	events := v.state.takeEvents()
	v.mu.Unlock()

	v.notify(events)
	return v.Update(ctx)
}

// Update pushes the current frame to all targets without stepping.
func (v *Viewer) Update(ctx context.Context) error {
	v.mu.RLock()
	provider := v.provider
	targets := make([]Target, len(v.targets))
	copy(targets, v.targets)
	v.mu.RUnlock()

	if provider == nil {
		provider = v
	}

	state, err := provider.GetViewState()
	if err != nil {
		return fmt.Errorf("failed to get view state: %w", err)
	}

	var lastErr error
	for _, target := range targets {
		if err := target.Update(ctx, state); err != nil {
			lastErr = fmt.Errorf("target %s: %w", target.Name(), err)
		}
	}
	return lastErr
}

// GetViewState implements StateProvider with the viewer's own snapshot.
func (v *Viewer) GetViewState() (*ViewState, error) {
	return v.Snapshot(), nil
}

// Snapshot captures the current frame.
func (v *Viewer) Snapshot() *ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.Snapshot()
}

// Close stops the frame loop, closes every target and discards the
// session. A later Start begins from a fresh ViewerState.
func (v *Viewer) Close() error {
	v.Stop()

	v.mu.Lock()
	targets := v.targets
	v.targets = nil
	v.state = NewViewerState(v.cfg)
	v.mu.Unlock()

	var lastErr error
	for _, target := range targets {
		if err := target.Close(); err != nil {
			lastErr = err
		}
	}
	v.logger.Info("viewer closed")
	return lastErr
}

// apply runs fn against the state under the lock and delivers the events
// it produced.
func (v *Viewer) apply(name string, fn func(s *ViewerState) bool) bool {
	v.mu.Lock()
	ok := fn(v.state)
	events := v.state.takeEvents()
	v.mu.Unlock()

	if ce := v.logger.Check(zap.DebugLevel, "command"); ce != nil {
		ce.Write(zap.String("command", name), zap.Bool("applied", ok))
	}
	v.notify(events)
	return ok
}

func (v *Viewer) notify(events []Event) {
	for _, e := range events {
		v.logger.Info("viewer event",
			zap.String("type", string(e.Type)),
			zap.String("archetype", e.Archetype),
			zap.Stringer("mode", e.Mode),
			zap.Int("index", e.Index))
		for _, fn := range v.observers {
			fn(e)
		}
	}
}

// SelectArchetype shows an archetype, discarding the tour and the camera.
func (v *Viewer) SelectArchetype(id string) bool {
	return v.apply("select_archetype", func(s *ViewerState) bool { return s.SelectArchetype(id) })
}

// StartTour starts the tour of id, or of the selected archetype when id is
// empty.
func (v *Viewer) StartTour(id string) bool {
	return v.apply("start_tour", func(s *ViewerState) bool { return s.StartTour(id) })
}

// StopTour ends the running tour.
func (v *Viewer) StopTour() bool {
	return v.apply("stop_tour", func(s *ViewerState) bool { return s.StopTour() })
}

// GoToStop jumps to stop i of the running tour.
func (v *Viewer) GoToStop(i int) bool {
	return v.apply("go_to_stop", func(s *ViewerState) bool { return s.GoToStop(i) })
}

// NextStop advances the running tour, wrapping at the end.
func (v *Viewer) NextStop() bool {
	return v.apply("next_stop", func(s *ViewerState) bool { return s.NextStop() })
}

// PrevStop steps the running tour back, stopping at the first stop.
func (v *Viewer) PrevStop() bool {
	return v.apply("prev_stop", func(s *ViewerState) bool { return s.PrevStop() })
}

// ToggleViewMode flips between exterior and interior.
func (v *Viewer) ToggleViewMode() {
	v.apply("toggle_view_mode", func(s *ViewerState) bool {
		s.ToggleViewMode()
		return true
	})
}

// Orbit rotates the camera by radians.
func (v *Viewer) Orbit(dAzimuth, dPolar float64) bool {
	return v.apply("orbit", func(s *ViewerState) bool { return s.Orbit(dAzimuth, dPolar) })
}

// Pan slides the camera by fractions of the orbit distance.
func (v *Viewer) Pan(dx, dy float64) bool {
	return v.apply("pan", func(s *ViewerState) bool { return s.Pan(dx, dy) })
}

// Zoom dollies the camera; positive steps move closer.
func (v *Viewer) Zoom(steps float64) bool {
	return v.apply("zoom", func(s *ViewerState) bool { return s.Zoom(steps) })
}

// ResetCamera returns to the default pose or resumes a paused tour.
func (v *Viewer) ResetCamera() {
	v.apply("reset_camera", func(s *ViewerState) bool {
		s.ResetCamera()
		return true
	})
}

// Resize changes the viewport size.
func (v *Viewer) Resize(width, height int) bool {
	return v.apply("resize", func(s *ViewerState) bool { return s.Resize(width, height) })
}

// Wait blocks until the frame loop exits or ctx is done.
func (v *Viewer) Wait(ctx context.Context) error {
	v.mu.RLock()
	done := v.done
	v.mu.RUnlock()
	if done == nil {
		return ErrNotStarted
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
