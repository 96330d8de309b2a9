package bimviewer

import (
	"errors"
	"fmt"
	"image"

	sprites "github.com/nimsforest/nimsforestsprites"

	"github.com/bimflow/bimviewer/render"
)

var errNoState = errors.New("no view state")

// FrameRenderer turns a frame into an image.
type FrameRenderer interface {
	RenderFrame(state *ViewState) (image.Image, error)
}

// SceneRenderer draws the 3D scene through the frame's camera, with the
// tour overlay on top.
type SceneRenderer struct {
	r       *render.Renderer
	overlay bool
}

// NewSceneRenderer creates a scene renderer of the given size.
func NewSceneRenderer(width, height int) *SceneRenderer {
	return &SceneRenderer{
		r:       render.New(render.Options{Width: width, Height: height}),
		overlay: true,
	}
}

// WithoutOverlay returns a renderer that draws the scene only.
func (s *SceneRenderer) WithoutOverlay() *SceneRenderer {
	return &SceneRenderer{r: s.r, overlay: false}
}

// Size returns the output size.
func (s *SceneRenderer) Size() (int, int) {
	return s.r.Size()
}

// RenderFrame implements FrameRenderer. The projection keeps the frame's
// lens but takes the renderer's aspect ratio.
func (s *SceneRenderer) RenderFrame(state *ViewState) (image.Image, error) {
	return s.Render(state)
}

// Render is RenderFrame returning the concrete image type.
func (s *SceneRenderer) Render(state *ViewState) (*image.RGBA, error) {
	if state == nil {
		return nil, errNoState
	}
	proj := state.Camera.Projection
	proj.Aspect = s.r.Aspect()
	var ov *render.Overlay
	if s.overlay {
		ov = state.Overlay()
	}
	return s.r.Render(state.Scene, state.Camera.Pose, proj, ov), nil
}

// PlanRenderer draws a top-down overview of the tour with
// nimsforestsprites.
type PlanRenderer struct {
	sprites *sprites.Renderer
}

// NewPlanRenderer creates a plan renderer.
func NewPlanRenderer(opts sprites.Options) (*PlanRenderer, error) {
	r, err := sprites.New(opts)
	if err != nil {
		return nil, fmt.Errorf("create sprite renderer: %w", err)
	}
	return &PlanRenderer{sprites: r}, nil
}

// RenderFrame implements FrameRenderer.
func (p *PlanRenderer) RenderFrame(state *ViewState) (image.Image, error) {
	if state == nil {
		return nil, errNoState
	}
	img := p.sprites.Render(NewSpritesStateAdapter(state))
	if img == nil {
		return nil, fmt.Errorf("failed to render plan")
	}
	return img, nil
}

// Close releases the sprite renderer.
func (p *PlanRenderer) Close() error {
	p.sprites.Close()
	return nil
}

// ensureRGBA converts any image to RGBA.
func ensureRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}
