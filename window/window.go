// Package window shows a viewer session in a desktop window. The window's
// refresh drives the viewer: one Tick per ebiten update.
package window

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/bimflow/bimviewer"
)

const (
	orbitSpeed = 0.005 // radians per pixel dragged
	panSpeed   = 0.002 // orbit distances per pixel dragged
)

// Window is an ebiten.Game around a Viewer.
type Window struct {
	viewer     *bimviewer.Viewer
	renderer   *bimviewer.SceneRenderer
	archetypes []string
	title      string

	ctx    context.Context
	frame  *ebiten.Image
	width  int
	height int

	dragging   bool
	lastX      int
	lastY      int
	lastButton ebiten.MouseButton
}

// New creates a window of the given size. archetypes is the Tab cycle order.
func New(v *bimviewer.Viewer, width, height int, archetypes []string) *Window {
	return &Window{
		viewer:     v,
		renderer:   bimviewer.NewSceneRenderer(width, height),
		archetypes: archetypes,
		title:      "bimviewer",
		width:      width,
		height:     height,
	}
}

// Run opens the window and blocks until it is closed or ctx is done.
func (w *Window) Run(ctx context.Context) error {
	w.ctx = ctx
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	w.viewer.Resize(w.width, w.height)

	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.ctx != nil && w.ctx.Err() != nil {
		return ebiten.Termination
	}
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if w.handleKey(k) {
			return ebiten.Termination
		}
	}
	w.handleMouse()
	return w.viewer.Tick(w.context())
}

func (w *Window) context() context.Context {
	if w.ctx == nil {
		return context.Background()
	}
	return w.ctx
}

// handleKey applies one key press and reports whether the window should
// close.
func (w *Window) handleKey(k ebiten.Key) bool {
	switch {
	case k == ebiten.KeyQ:
		return true
	case k == ebiten.KeyRight || k == ebiten.KeyN:
		w.viewer.NextStop()
	case k == ebiten.KeyLeft || k == ebiten.KeyP:
		w.viewer.PrevStop()
	case k >= ebiten.KeyDigit1 && k <= ebiten.KeyDigit9:
		w.viewer.GoToStop(int(k - ebiten.KeyDigit1))
	case k == ebiten.KeyT:
		w.viewer.StartTour("")
	case k == ebiten.KeyEscape:
		w.viewer.StopTour()
	case k == ebiten.KeyV:
		w.viewer.ToggleViewMode()
	case k == ebiten.KeyR:
		w.viewer.ResetCamera()
	case k == ebiten.KeyTab:
		w.cycleArchetype()
	case k == ebiten.KeyEqual:
		w.viewer.Zoom(1)
	case k == ebiten.KeyMinus:
		w.viewer.Zoom(-1)
	}
	return false
}

func (w *Window) cycleArchetype() {
	if len(w.archetypes) == 0 {
		return
	}
	current := w.viewer.Snapshot().Archetype.ID
	next := w.archetypes[0]
	for i, id := range w.archetypes {
		if id == current {
			next = w.archetypes[(i+1)%len(w.archetypes)]
			break
		}
	}
	w.viewer.SelectArchetype(next)
}

func (w *Window) handleMouse() {
	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		w.dragging, w.lastButton = true, ebiten.MouseButtonLeft
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight):
		w.dragging, w.lastButton = true, ebiten.MouseButtonRight
	case w.dragging && inpututil.IsMouseButtonJustReleased(w.lastButton):
		w.dragging = false
	case w.dragging:
		w.drag(w.lastButton, x-w.lastX, y-w.lastY)
	}
	w.lastX, w.lastY = x, y

	if _, wy := ebiten.Wheel(); wy != 0 {
		w.viewer.Zoom(wy)
	}
}

// drag turns a mouse movement into orbit (left button) or pan (right).
func (w *Window) drag(button ebiten.MouseButton, dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	if button == ebiten.MouseButtonRight {
		w.viewer.Pan(float64(dx)*panSpeed, float64(dy)*panSpeed)
		return
	}
	w.viewer.Orbit(float64(dx)*orbitSpeed, float64(dy)*orbitSpeed)
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	img, err := w.renderer.Render(w.viewer.Snapshot())
	if err != nil {
		return
	}
	if w.frame == nil || w.frame.Bounds() != img.Bounds() {
		w.frame = ebiten.NewImage(img.Bounds().Dx(), img.Bounds().Dy())
	}
	w.frame.WritePixels(img.Pix)
	screen.DrawImage(w.frame, nil)
}

// Layout implements ebiten.Game. A new window size rebuilds the renderer
// and resizes the viewport.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != w.width || outsideHeight != w.height) {
		w.width, w.height = outsideWidth, outsideHeight
		w.renderer = bimviewer.NewSceneRenderer(w.width, w.height)
		w.viewer.Resize(w.width, w.height)
	}
	return w.width, w.height
}
