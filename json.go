package bimviewer

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/bimflow/bimviewer/tour"
)

// ViewJSON is the JSON representation of ViewState for web clients. It
// carries no frame counter, so a camera at rest produces identical
// payloads.
type ViewJSON struct {
	Archetype ArchetypeJSON `json:"archetype"`
	Mode      string        `json:"mode"`
	Camera    CameraJSON    `json:"camera"`
	Tour      TourJSON      `json:"tour"`
	Navigator NavigatorJSON `json:"navigator"`
	Scene     SceneJSON     `json:"scene"`
	Viewport  ViewportJSON  `json:"viewport"`
}

// ArchetypeJSON is the selected archetype.
type ArchetypeJSON struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// CameraJSON is the camera pose and lens.
type CameraJSON struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	FOV      float64    `json:"fov"`
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
	Settled  bool       `json:"settled"`
}

// TourJSON is the guided tour status.
type TourJSON struct {
	Active bool      `json:"active"`
	Paused bool      `json:"paused,omitempty"`
	Index  int       `json:"index"`
	Count  int       `json:"count"`
	Stop   *StopJSON `json:"stop,omitempty"`
}

// StopJSON is a tour stop with its BIM detail.
type StopJSON struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Position    [3]float64  `json:"position"`
	Target      [3]float64  `json:"target"`
	Detail      tour.Detail `json:"detail"`
}

// NavigatorJSON is the room navigator.
type NavigatorJSON struct {
	Visible bool            `json:"visible"`
	Stops   []NavigatorStop `json:"stops,omitempty"`
}

// NavigatorStop is one navigator entry.
type NavigatorStop struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Current bool   `json:"current"`
}

// SceneJSON is the scene summary.
type SceneJSON struct {
	Archetype  string      `json:"archetype,omitempty"`
	Background string      `json:"background,omitempty"`
	Meshes     int         `json:"meshes"`
	Lights     int         `json:"lights"`
	Groups     []GroupJSON `json:"groups,omitempty"`
	Min        [3]float64  `json:"min"`
	Max        [3]float64  `json:"max"`
}

// GroupJSON is the mesh count of one scene group.
type GroupJSON struct {
	Name   string `json:"name"`
	Meshes int    `json:"meshes"`
}

// ViewportJSON is the viewport size.
type ViewportJSON struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ViewStateToJSON converts a ViewState for web clients.
func ViewStateToJSON(state *ViewState) ViewJSON {
	if state == nil {
		return ViewJSON{}
	}

	out := ViewJSON{
		Archetype: ArchetypeJSON{
			ID:      state.Archetype.ID,
			Title:   state.Archetype.Title,
			Summary: state.Archetype.Summary,
		},
		Mode: state.Mode.String(),
		Camera: CameraJSON{
			Position: vec3JSON(state.Camera.Pose.Position),
			Target:   vec3JSON(state.Camera.Pose.Target),
			FOV:      state.Camera.Projection.FOV,
			Near:     state.Camera.Projection.Near,
			Far:      state.Camera.Projection.Far,
			Settled:  state.Camera.Settled,
		},
		Tour: TourJSON{
			Active: state.Tour.Active,
			Paused: state.Tour.Paused,
			Index:  state.Tour.Index,
			Count:  state.Tour.Count,
		},
		Navigator: NavigatorJSON{Visible: state.Navigator.Visible},
		Scene: SceneJSON{
			Meshes: state.Stats.Meshes,
			Min:    vec3JSON(state.Stats.Min),
			Max:    vec3JSON(state.Stats.Max),
		},
		Viewport: ViewportJSON{Width: state.Width, Height: state.Height},
	}

	if stop := state.Tour.Stop; stop != nil {
		out.Tour.Stop = &StopJSON{
			Name:        stop.Name,
			Description: stop.Description,
			Position:    vec3JSON(stop.Position),
			Target:      vec3JSON(stop.Target),
			Detail:      stop.Detail,
		}
	}
	for _, s := range state.Navigator.Stops {
		out.Navigator.Stops = append(out.Navigator.Stops, NavigatorStop(s))
	}
	if g := state.Scene; g != nil {
		out.Scene.Archetype = g.Archetype
		out.Scene.Background = g.Background.String()
		out.Scene.Lights = len(g.Lights)
	}
	for _, g := range state.Stats.Groups {
		out.Scene.Groups = append(out.Scene.Groups, GroupJSON(g))
	}
	return out
}

func vec3JSON(v mgl64.Vec3) [3]float64 {
	return [3]float64{v.X(), v.Y(), v.Z()}
}

// ViewStateToJSONBytes converts a ViewState to JSON bytes.
func ViewStateToJSONBytes(state *ViewState) ([]byte, error) {
	return json.Marshal(ViewStateToJSON(state))
}
