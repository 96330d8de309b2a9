package bimviewer

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoTour is returned when an archetype has no tour stops.
var ErrNoTour = errors.New("archetype has no tour")

// RecordTour plays the whole tour of archetype in a private session and
// hands every frame to fn. The camera spends dwell frames on each stop,
// blending in from the previous one. It returns the number of frames
// produced.
func RecordTour(ctx context.Context, cfg StateConfig, archetype string, dwell int, fn func(*ViewState) error) (int, error) {
	if dwell <= 0 {
		return 0, fmt.Errorf("dwell must be positive, got %d", dwell)
	}
	s := NewViewerState(cfg)
	if !s.StartTour(archetype) {
		return 0, fmt.Errorf("%w: %q", ErrNoTour, archetype)
	}

	frames := 0
	stops := s.tour.StopCount()
	for i := 0; i < stops; i++ {
		if i > 0 {
			s.GoToStop(i)
		}
		for f := 0; f < dwell; f++ {
			if err := ctx.Err(); err != nil {
				return frames, err
			}
			s.Step()
			if err := fn(s.Snapshot()); err != nil {
				return frames, err
			}
			frames++
		}
	}
	return frames, nil
}
