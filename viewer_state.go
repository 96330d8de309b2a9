package bimviewer

import (
	"github.com/bimflow/bimviewer/camera"
	"github.com/bimflow/bimviewer/render"
	"github.com/bimflow/bimviewer/scene"
	"github.com/bimflow/bimviewer/tour"
)

// EventType names a viewer state change.
type EventType string

const (
	EventArchetypeSelected EventType = "archetype_selected"
	EventViewModeChanged   EventType = "view_mode_changed"
	EventTourStarted       EventType = "tour_started"
	EventStopChanged       EventType = "stop_changed"
	EventTourStopped       EventType = "tour_stopped"
)

// Event reports a state change to observers.
type Event struct {
	Type      EventType
	Archetype string
	Mode      scene.Mode
	Index     int    // stop index for tour events
	Stop      string // stop name for tour events
	Frame     uint64
}

// settleEpsilon is the pose distance at which a tour camera counts as
// arrived.
const settleEpsilon = 1e-3

// StateConfig parameterises a ViewerState. Zero fields take defaults.
type StateConfig struct {
	Catalogue *tour.Catalogue
	Builder   *scene.Builder
	Policy    camera.Policy
	Blend     float64
	FPS       int
	Width     int
	Height    int
	FOV       float64
	Archetype string // selected on creation when set
}

func (c StateConfig) withDefaults() StateConfig {
	if c.Catalogue == nil {
		c.Catalogue = tour.Default()
	}
	if c.Builder == nil {
		c.Builder = scene.Default()
	}
	if c.Policy == "" {
		c.Policy = camera.PolicyPause
	}
	if c.Blend <= 0 || c.Blend >= 1 {
		c.Blend = camera.DefaultBlend
	}
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.Width <= 0 {
		c.Width = render.DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = render.DefaultHeight
	}
	if c.FOV <= 0 {
		c.FOV = 75
	}
	return c
}

// ViewerState is everything a viewer session shows: the selected archetype,
// the view mode, the scene, the tour and the camera. It is not safe for
// concurrent use; Viewer serialises access to it.
//
// Navigation methods return false and leave the state untouched when the
// request is not valid in the current state.
type ViewerState struct {
	cfg StateConfig

	archetype string
	mode      scene.Mode
	graph     *scene.Graph
	tour      *tour.Controller
	navigator bool

	pose   camera.Pose
	orbit  *camera.Orbit
	paused bool

	frame  uint64
	width  int
	height int

	events []Event
}

// NewViewerState creates a session with nothing selected, in exterior mode.
func NewViewerState(cfg StateConfig) *ViewerState {
	cfg = cfg.withDefaults()
	s := &ViewerState{
		cfg:    cfg,
		tour:   tour.NewController(cfg.Catalogue),
		orbit:  camera.NewOrbit(cfg.FPS, camera.DefaultLimits(false)),
		width:  cfg.Width,
		height: cfg.Height,
	}
	s.pose = camera.DefaultPose("", false)
	s.orbit.Sync(s.pose)
	if cfg.Archetype != "" {
		s.SelectArchetype(cfg.Archetype)
		s.events = nil
	}
	return s
}

// SelectArchetype shows archetype in the current view mode. Any tour is
// discarded, the scene is rebuilt and the camera returns to the default
// pose.
func (s *ViewerState) SelectArchetype(archetype string) bool {
	if archetype == "" {
		return false
	}
	s.cancelTour()
	s.navigator = false
	s.archetype = archetype
	s.rebuild()
	s.resetCamera()
	s.emit(Event{Type: EventArchetypeSelected})
	return true
}

// StartTour begins the guided tour of archetype, or of the selected
// archetype when archetype is empty. The tour needs stops; it switches to
// interior view and shows the room navigator.
func (s *ViewerState) StartTour(archetype string) bool {
	if archetype == "" {
		archetype = s.archetype
	}
	if s.cfg.Catalogue.StopCount(archetype) == 0 {
		return false
	}
	if archetype != s.archetype {
		s.SelectArchetype(archetype)
	}
	if !s.tour.Start(archetype) {
		return false
	}
	if s.mode != scene.Interior {
		s.setMode(scene.Interior)
		s.resetCamera()
	}
	s.navigator = true
	s.paused = false
	s.emitStop(EventTourStarted)
	return true
}

// GoToStop jumps to stop i of the running tour.
func (s *ViewerState) GoToStop(i int) bool {
	if !s.tour.GoTo(i) {
		return false
	}
	s.resume()
	s.emitStop(EventStopChanged)
	return true
}

// NextStop advances the tour, wrapping after the last stop.
func (s *ViewerState) NextStop() bool {
	if !s.tour.Next() {
		return false
	}
	s.resume()
	s.emitStop(EventStopChanged)
	return true
}

// PrevStop steps the tour back; it does nothing at the first stop.
func (s *ViewerState) PrevStop() bool {
	if !s.tour.Prev() {
		return false
	}
	s.resume()
	s.emitStop(EventStopChanged)
	return true
}

// StopTour ends the running tour and hides the navigator. The camera stays
// where it is.
func (s *ViewerState) StopTour() bool {
	if !s.tour.Active() {
		return false
	}
	s.cancelTour()
	s.navigator = false
	s.orbit.Sync(s.pose)
	return true
}

// ToggleViewMode flips between exterior and interior. It always cancels the
// tour, rebuilds the scene and resets the camera to the new mode's default.
func (s *ViewerState) ToggleViewMode() {
	s.cancelTour()
	s.setMode(s.mode.Toggle())
	s.resetCamera()
}

// Orbit rotates the camera around its target by radians.
func (s *ViewerState) Orbit(dAzimuth, dPolar float64) bool {
	if !s.acceptInput() {
		return false
	}
	s.orbit.Rotate(dAzimuth, dPolar)
	return true
}

// Pan slides the camera and its target across the screen, in fractions of
// the orbit distance.
func (s *ViewerState) Pan(dx, dy float64) bool {
	if !s.acceptInput() {
		return false
	}
	s.orbit.Pan(dx, dy)
	return true
}

// Zoom dollies toward the target; positive steps move closer.
func (s *ViewerState) Zoom(steps float64) bool {
	if !s.acceptInput() {
		return false
	}
	s.orbit.Zoom(steps)
	return true
}

// ResetCamera puts the camera back on the mode's default pose, or resumes
// a paused tour.
func (s *ViewerState) ResetCamera() {
	if s.tour.Active() {
		s.resume()
		return
	}
	s.resetCamera()
}

// Resize changes the viewport and the projection aspect.
func (s *ViewerState) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	s.width, s.height = width, height
	return true
}

// Step advances one frame: queued input has already been applied by the
// command methods, so this moves the camera exactly once.
func (s *ViewerState) Step() {
	s.frame++
	stop, touring := s.tour.Current()
	if !touring || s.paused {
		s.pose = s.orbit.Step(s.pose)
		return
	}
	if s.cfg.Policy == camera.PolicyOverride && s.orbit.Moving() {
		s.orbit.Step(s.pose)
		s.pose = s.orbit.Pull(stop.Pose(), s.cfg.Blend)
		return
	}
	s.pose = s.pose.Blend(stop.Pose(), s.cfg.Blend)
	s.orbit.Sync(s.pose)
}

// Pose is the current camera pose.
func (s *ViewerState) Pose() camera.Pose {
	return s.pose
}

// Mode is the current view mode.
func (s *ViewerState) Mode() scene.Mode {
	return s.mode
}

// Tour is the tour controller state.
func (s *ViewerState) Tour() tour.State {
	return s.tour.State()
}

// Snapshot captures the state for rendering.
func (s *ViewerState) Snapshot() *ViewState {
	vs := &ViewState{
		Frame:  s.frame,
		Mode:   s.mode,
		Scene:  s.graph,
		Stats:  sceneStats(s.graph),
		Width:  s.width,
		Height: s.height,
	}
	if s.archetype != "" {
		vs.Archetype.ID = s.archetype
		if a, ok := s.cfg.Catalogue.Archetype(s.archetype); ok {
			vs.Archetype.Title = a.Title
			vs.Archetype.Summary = a.Summary
		}
	}

	proj := camera.DefaultProjection(float64(s.width) / float64(s.height))
	proj.FOV = s.cfg.FOV
	vs.Camera = CameraView{Pose: s.pose, Projection: proj, Settled: !s.orbit.Moving()}

	ts := s.tour.State()
	if stop, ok := s.tour.Current(); ok {
		vs.Tour = TourView{Active: true, Paused: s.paused, Index: ts.Index, Count: s.tour.StopCount(), Stop: &stop}
		if !s.paused {
			vs.Camera.Settled = s.pose.Distance(stop.Pose()) < settleEpsilon
		}
	}

	vs.Navigator.Visible = s.navigator
	if s.navigator {
		for i, st := range s.cfg.Catalogue.Stops(s.archetype) {
			vs.Navigator.Stops = append(vs.Navigator.Stops, StopView{
				Index:   i,
				Name:    st.Name,
				Current: ts.Active && ts.Index == i,
			})
		}
	}
	return vs
}

// takeEvents returns and clears the pending events.
func (s *ViewerState) takeEvents() []Event {
	ev := s.events
	s.events = nil
	return ev
}

func (s *ViewerState) acceptInput() bool {
	if !s.tour.Active() {
		return true
	}
	switch s.cfg.Policy {
	case camera.PolicyIgnore:
		return false
	case camera.PolicyPause:
		s.paused = true
	}
	return true
}

func (s *ViewerState) resume() {
	s.paused = false
	s.orbit.Sync(s.pose)
}

func (s *ViewerState) cancelTour() {
	if !s.tour.Active() {
		return
	}
	ts := s.tour.State()
	s.tour.Cancel()
	s.paused = false
	s.emit(Event{Type: EventTourStopped, Index: ts.Index})
}

func (s *ViewerState) setMode(m scene.Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.rebuild()
	s.emit(Event{Type: EventViewModeChanged})
}

func (s *ViewerState) rebuild() {
	if s.archetype == "" {
		s.graph = nil
		return
	}
	s.graph = s.cfg.Builder.Build(s.archetype, s.mode)
}

func (s *ViewerState) resetCamera() {
	interior := s.mode == scene.Interior
	s.pose = camera.DefaultPose(s.archetype, interior)
	s.orbit.SetLimits(camera.DefaultLimits(interior))
	s.orbit.Sync(s.pose)
	s.paused = false
}

func (s *ViewerState) emitStop(t EventType) {
	e := Event{Type: t, Index: s.tour.State().Index}
	if stop, ok := s.tour.Current(); ok {
		e.Stop = stop.Name
	}
	s.emit(e)
}

func (s *ViewerState) emit(e Event) {
	e.Archetype = s.archetype
	e.Mode = s.mode
	e.Frame = s.frame
	s.events = append(s.events, e)
}
