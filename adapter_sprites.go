package bimviewer

import (
	"math"
	"strconv"

	sprites "github.com/nimsforest/nimsforestsprites"
)

// SpritesStateAdapter presents a frame as a plan for nimsforestsprites:
// each tour stop (or, outside a tour, each scene group) becomes a land on
// a square grid, and the camera is a nim process on the current stop.
type SpritesStateAdapter struct {
	viewState *ViewState
}

// NewSpritesStateAdapter creates an adapter for sprites rendering.
func NewSpritesStateAdapter(state *ViewState) *SpritesStateAdapter {
	return &SpritesStateAdapter{viewState: state}
}

// Lands implements sprites.State.
func (a *SpritesStateAdapter) Lands() []sprites.Land {
	if a.viewState == nil {
		return nil
	}

	names := a.landNames()
	cols := gridColumns(len(names))
	result := make([]sprites.Land, len(names))
	for i, name := range names {
		landType := "normal"
		if a.viewState.Tour.Active && i == a.viewState.Tour.Index {
			landType = "mana"
		}
		result[i] = sprites.Land{
			ID:   landID(i),
			Name: name,
			X:    float64(i % cols),
			Y:    float64(i / cols),
			Type: landType,
		}
	}
	return result
}

// Processes implements sprites.State.
func (a *SpritesStateAdapter) Processes() []sprites.Process {
	if a.viewState == nil || !a.viewState.Tour.Active || a.viewState.Tour.Stop == nil {
		return nil
	}

	i := a.viewState.Tour.Index
	cols := gridColumns(len(a.landNames()))
	stop := a.viewState.Tour.Stop
	remaining := a.viewState.Camera.Pose.Distance(stop.Pose())
	return []sprites.Process{{
		ID:       "camera",
		LandID:   landID(i),
		Type:     "nim",
		Progress: 1 / (1 + remaining),
		X:        float64(i % cols),
		Y:        float64(i / cols),
	}}
}

func (a *SpritesStateAdapter) landNames() []string {
	var names []string
	if len(a.viewState.Navigator.Stops) > 0 {
		for _, s := range a.viewState.Navigator.Stops {
			names = append(names, s.Name)
		}
		return names
	}
	for _, g := range a.viewState.Stats.Groups {
		names = append(names, g.Name)
	}
	return names
}

func gridColumns(n int) int {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	return cols
}

func landID(i int) string {
	return "land-" + strconv.Itoa(i)
}

// Ensure SpritesStateAdapter implements sprites.State
var _ sprites.State = (*SpritesStateAdapter)(nil)
