package bimviewer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTour(t *testing.T) {
	ctx := context.Background()

	t.Run("every stop held for dwell frames", func(t *testing.T) {
		var stops []int
		n, err := RecordTour(ctx, StateConfig{Catalogue: villaCatalogue(t)}, "villa", 30, func(s *ViewState) error {
			stops = append(stops, s.Tour.Index)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 120, n)
		require.Len(t, stops, 120)
		assert.Equal(t, 0, stops[0])
		assert.Equal(t, 1, stops[30])
		assert.Equal(t, 3, stops[119])
	})

	t.Run("camera reaches each stop", func(t *testing.T) {
		var last *ViewState
		_, err := RecordTour(ctx, StateConfig{Catalogue: villaCatalogue(t)}, "villa", 600, func(s *ViewState) error {
			last = s
			return nil
		})
		require.NoError(t, err)
		assert.True(t, last.Camera.Settled)
	})

	t.Run("no tour", func(t *testing.T) {
		_, err := RecordTour(ctx, StateConfig{}, "bridge", 10, func(*ViewState) error { return nil })
		assert.ErrorIs(t, err, ErrNoTour)
	})

	t.Run("bad dwell", func(t *testing.T) {
		_, err := RecordTour(ctx, StateConfig{}, "office", 0, func(*ViewState) error { return nil })
		assert.Error(t, err)
	})

	t.Run("callback error stops recording", func(t *testing.T) {
		boom := errors.New("disk full")
		n, err := RecordTour(ctx, StateConfig{}, "office", 10, func(s *ViewState) error {
			if s.Tour.Index == 2 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 20, n)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		n, err := RecordTour(cctx, StateConfig{}, "office", 10, func(*ViewState) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, n)
	})
}
