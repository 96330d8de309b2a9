// Package bimviewer runs guided 3D tours through building archetypes and
// pushes every frame to Smart TVs, browsers, recordings and desktop windows.
package bimviewer

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/bimflow/bimviewer/camera"
	"github.com/bimflow/bimviewer/render"
	"github.com/bimflow/bimviewer/scene"
	"github.com/bimflow/bimviewer/tour"
)

// ViewState is an immutable snapshot of one frame.
type ViewState struct {
	Frame     uint64
	Archetype ArchetypeView
	Mode      scene.Mode
	Camera    CameraView
	Tour      TourView
	Navigator NavigatorView
	Scene     *scene.Graph // shared, read-only
	Stats     SceneStats
	Width     int
	Height    int
}

// ArchetypeView describes the selected archetype.
type ArchetypeView struct {
	ID      string
	Title   string
	Summary string
}

// Selected reports whether an archetype is on screen.
func (a ArchetypeView) Selected() bool {
	return a.ID != ""
}

// CameraView is the camera of a frame.
type CameraView struct {
	Pose       camera.Pose
	Projection camera.Projection
	Settled    bool
}

// TourView is the guided tour status.
type TourView struct {
	Active bool
	Paused bool
	Index  int
	Count  int
	Stop   *tour.Stop
}

// NavigatorView is the room navigator list.
type NavigatorView struct {
	Visible bool
	Stops   []StopView
}

// StopView is one navigator entry.
type StopView struct {
	Index   int
	Name    string
	Current bool
}

// SceneStats summarises the scene graph.
type SceneStats struct {
	Meshes int
	Groups []GroupStats
	Min    mgl64.Vec3
	Max    mgl64.Vec3
}

// GroupStats is the mesh count of one group.
type GroupStats struct {
	Name   string
	Meshes int
}

func sceneStats(g *scene.Graph) SceneStats {
	if g == nil {
		return SceneStats{}
	}
	s := SceneStats{Meshes: g.MeshCount(), Groups: make([]GroupStats, len(g.Groups))}
	for i, grp := range g.Groups {
		s.Groups[i] = GroupStats{Name: grp.Name, Meshes: len(grp.Meshes)}
	}
	s.Min, s.Max = g.Bounds()
	return s
}

// Overlay lays out the text drawn over a frame: the archetype heading, the
// current stop's description and BIM detail, and the room navigator.
func (s *ViewState) Overlay() *render.Overlay {
	if s == nil || !s.Archetype.Selected() {
		return nil
	}
	ov := &render.Overlay{}

	heading := s.Archetype.Title
	if heading == "" {
		heading = s.Archetype.ID
	}
	ov.Panels = append(ov.Panels, render.Panel{
		Corner:    render.TopLeft,
		Lines:     []string{heading, strings.ToUpper(s.Mode.String()) + " VIEW"},
		Highlight: 0,
	})

	if s.Tour.Active && s.Tour.Stop != nil {
		stop := s.Tour.Stop
		lines := []string{
			fmt.Sprintf("%d/%d  %s", s.Tour.Index+1, s.Tour.Count, stop.Name),
			stop.Description,
		}
		lines = appendDetail(lines, "Materials", stop.Detail.Materials)
		lines = appendDetail(lines, "MEP", stop.Detail.MEP)
		if stop.Detail.Lighting != "" {
			lines = append(lines, "Lighting: "+stop.Detail.Lighting)
		}
		if stop.Detail.Structure != "" {
			lines = append(lines, "Structure: "+stop.Detail.Structure)
		}
		lines = appendDetail(lines, "Features", stop.Detail.SpecialFeatures)
		if s.Tour.Paused {
			lines = append(lines, "(tour paused)")
		}
		ov.Panels = append(ov.Panels, render.Panel{Corner: render.BottomLeft, Lines: lines, Highlight: 0})
	}

	if s.Navigator.Visible && len(s.Navigator.Stops) > 0 {
		nav := render.Panel{Corner: render.TopRight, Highlight: -1}
		for _, st := range s.Navigator.Stops {
			nav.Lines = append(nav.Lines, fmt.Sprintf("%d. %s", st.Index+1, st.Name))
			if st.Current {
				nav.Highlight = st.Index
			}
		}
		ov.Panels = append(ov.Panels, nav)
	}
	return ov
}

func appendDetail(lines []string, label string, items []string) []string {
	if len(items) == 0 {
		return lines
	}
	return append(lines, label+": "+strings.Join(items, ", "))
}
