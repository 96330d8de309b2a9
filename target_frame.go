package bimviewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// ErrInvalidSurface is returned when a render surface cannot be created.
var ErrInvalidSurface = errors.New("invalid render surface")

const maxSurfaceSide = 8192

// FrameTarget keeps the latest frame and renders it on demand, for PNG
// snapshots and polling clients. It acquires its surface in Open.
type FrameTarget struct {
	width, height int

	mu       sync.Mutex
	renderer *SceneRenderer
	state    *ViewState
	rendered *ViewState
	img      *image.RGBA
}

// NewFrameTarget creates a frame target of the given size.
func NewFrameTarget(width, height int) *FrameTarget {
	return &FrameTarget{width: width, height: height}
}

// Name implements Target.
func (t *FrameTarget) Name() string {
	return fmt.Sprintf("Frame(%dx%d)", t.width, t.height)
}

// Open implements Opener.
func (t *FrameTarget) Open(ctx context.Context) error {
	if t.width <= 0 || t.height <= 0 || t.width > maxSurfaceSide || t.height > maxSurfaceSide {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSurface, t.width, t.height)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = NewSceneRenderer(t.width, t.height)
	return nil
}

// Update implements Target.
func (t *FrameTarget) Update(ctx context.Context, state *ViewState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.renderer == nil {
		return fmt.Errorf("%s: %w", t.Name(), ErrNotStarted)
	}
	t.state = state
	return nil
}

// Image renders the latest frame. Repeated calls without a new frame
// return the same image.
func (t *FrameTarget) Image() (*image.RGBA, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.renderer == nil {
		return nil, fmt.Errorf("%s: %w", t.Name(), ErrNotStarted)
	}
	if t.state == nil {
		return nil, errNoState
	}
	if t.img != nil && t.rendered == t.state {
		return t.img, nil
	}
	img, err := t.renderer.Render(t.state)
	if err != nil {
		return nil, err
	}
	t.img, t.rendered = img, t.state
	return img, nil
}

// PNG renders the latest frame as PNG.
func (t *FrameTarget) PNG() ([]byte, error) {
	img, err := t.Image()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Close implements Target.
func (t *FrameTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = nil
	t.state, t.rendered, t.img = nil, nil, nil
	return nil
}
