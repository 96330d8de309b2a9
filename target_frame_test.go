package bimviewer

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimflow/bimviewer/render"
)

func TestFrameTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid surface", func(t *testing.T) {
		for _, size := range [][2]int{{0, 10}, {10, -1}, {9000, 10}} {
			ft := NewFrameTarget(size[0], size[1])
			assert.ErrorIs(t, ft.Open(ctx), ErrInvalidSurface)
		}
	})

	t.Run("not opened", func(t *testing.T) {
		ft := NewFrameTarget(64, 48)
		assert.ErrorIs(t, ft.Update(ctx, &ViewState{}), ErrNotStarted)
		_, err := ft.PNG()
		assert.ErrorIs(t, err, ErrNotStarted)
	})

	t.Run("png", func(t *testing.T) {
		ft := NewFrameTarget(160, 90)
		require.NoError(t, ft.Open(ctx))
		defer ft.Close()

		_, err := ft.Image()
		assert.ErrorIs(t, err, errNoState)

		s := NewViewerState(StateConfig{Archetype: "mansion"})
		require.NoError(t, ft.Update(ctx, s.Snapshot()))

		img1, err := ft.Image()
		require.NoError(t, err)
		img2, err := ft.Image()
		require.NoError(t, err)
		assert.Same(t, img1, img2)

		data, err := ft.PNG()
		require.NoError(t, err)
		decoded, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 160, decoded.Bounds().Dx())
		assert.Equal(t, 90, decoded.Bounds().Dy())
	})

	t.Run("works through the viewer", func(t *testing.T) {
		ft := NewFrameTarget(0, 0)
		v := New(WithArchetype("office"))
		require.NoError(t, v.AddTarget(ft))
		assert.ErrorIs(t, v.Start(ctx), ErrInvalidSurface)
		assert.False(t, v.Running())
	})
}

func TestSceneRenderer(t *testing.T) {
	r := NewSceneRenderer(120, 80)
	_, err := r.Render(nil)
	assert.ErrorIs(t, err, errNoState)

	s := NewViewerState(StateConfig{Archetype: "hospital"})
	snap := s.Snapshot()
	withText, err := r.Render(snap)
	require.NoError(t, err)
	plain, err := r.WithoutOverlay().Render(snap)
	require.NoError(t, err)
	assert.NotEqual(t, withText.Pix, plain.Pix)
}

func TestViewStateOverlay(t *testing.T) {
	var none *ViewState
	assert.Nil(t, none.Overlay())
	assert.Nil(t, NewViewerState(StateConfig{}).Snapshot().Overlay())

	s := NewViewerState(StateConfig{Archetype: "office"})
	ov := s.Snapshot().Overlay()
	require.Len(t, ov.Panels, 1)
	assert.Equal(t, render.TopLeft, ov.Panels[0].Corner)
	assert.Equal(t, "EXTERIOR VIEW", ov.Panels[0].Lines[1])

	require.True(t, s.StartTour(""))
	require.True(t, s.GoToStop(2))
	require.True(t, s.Orbit(0.2, 0))
	ov = s.Snapshot().Overlay()
	require.Len(t, ov.Panels, 3)

	detail := ov.Panels[1]
	assert.Equal(t, render.BottomLeft, detail.Corner)
	assert.Contains(t, detail.Lines[0], "3/6")
	assert.Equal(t, "(tour paused)", detail.Lines[len(detail.Lines)-1])

	nav := ov.Panels[2]
	assert.Equal(t, render.TopRight, nav.Corner)
	assert.Len(t, nav.Lines, 6)
	assert.Equal(t, 2, nav.Highlight)
}
