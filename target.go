package bimviewer

import "context"

// Target represents a frame output destination.
type Target interface {
	// Update sends a new frame to the target.
	Update(ctx context.Context, state *ViewState) error

	// Close cleans up the target.
	Close() error

	// Name returns a descriptive name for logging.
	Name() string
}

// Opener is implemented by targets that must acquire a render surface
// before the first frame. Viewer.Start opens them and fails when one
// cannot be opened.
type Opener interface {
	Open(ctx context.Context) error
}
