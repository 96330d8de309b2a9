// Package scene assembles building archetypes from declarative descriptor
// tables into a graph of primitive meshes and lights.
package scene

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode selects which geometry set of an archetype is built.
type Mode int

const (
	Exterior Mode = iota
	Interior
)

func (m Mode) String() string {
	if m == Interior {
		return "interior"
	}
	return "exterior"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Interior {
		return Exterior
	}
	return Interior
}

// ParseMode accepts "exterior" or "interior".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "exterior":
		return Exterior, nil
	case "interior":
		return Interior, nil
	}
	return Exterior, fmt.Errorf("unknown view mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Shape is a primitive kind.
type Shape string

const (
	Box      Shape = "box"
	Plane    Shape = "plane"
	Cylinder Shape = "cylinder"
	Cone     Shape = "cone"
	Sphere   Shape = "sphere"
)

// Color is an opaque sRGB color written as "#RRGGBB".
type Color struct {
	R, G, B uint8
}

// Hex builds a Color from 0xRRGGBB.
func Hex(v uint32) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// ParseColor reads "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Hex(uint32(v)), nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Material is the surface of a mesh.
type Material struct {
	Color             Color
	Opacity           float64 // 1 is opaque, 0 is treated as 1
	Metalness         float64
	Roughness         float64
	Emissive          Color
	EmissiveIntensity float64
}

// Mesh is one placed primitive. Dimensions are read per shape: box uses
// Width, Height and Depth; plane uses Width and Height; cylinder uses
// Radius (top), RadiusBottom and Height; cone uses Radius (base) and
// Height; sphere uses Radius.
type Mesh struct {
	Name         string
	Shape        Shape
	Width        float64
	Height       float64
	Depth        float64
	Radius       float64
	RadiusBottom float64
	Segments     int
	Position     mgl64.Vec3
	Rotation     mgl64.Vec3 // Euler XYZ, radians
	Material     Material
}

// Transform returns the local-to-world matrix.
func (m Mesh) Transform() mgl64.Mat4 {
	t := mgl64.Translate3D(m.Position.X(), m.Position.Y(), m.Position.Z())
	r := mgl64.HomogRotate3DX(m.Rotation.X()).
		Mul4(mgl64.HomogRotate3DY(m.Rotation.Y())).
		Mul4(mgl64.HomogRotate3DZ(m.Rotation.Z()))
	return t.Mul4(r)
}

// Extent is the half size of the mesh's local bounding box.
func (m Mesh) Extent() mgl64.Vec3 {
	switch m.Shape {
	case Box:
		return mgl64.Vec3{m.Width / 2, m.Height / 2, m.Depth / 2}
	case Plane:
		return mgl64.Vec3{m.Width / 2, m.Height / 2, 0}
	case Cylinder:
		r := math.Max(m.Radius, m.RadiusBottom)
		return mgl64.Vec3{r, m.Height / 2, r}
	case Cone:
		return mgl64.Vec3{m.Radius, m.Height / 2, m.Radius}
	case Sphere:
		return mgl64.Vec3{m.Radius, m.Radius, m.Radius}
	}
	return mgl64.Vec3{}
}

// Group is a named set of meshes, one per descriptor section.
type Group struct {
	Name   string
	Meshes []Mesh
}

// LightKind is the kind of a light source.
type LightKind string

const (
	Ambient     LightKind = "ambient"
	Directional LightKind = "directional"
	Point       LightKind = "point"
)

// Light is a light source. Position is the direction origin for
// directional lights and the emitter for point lights.
type Light struct {
	Kind      LightKind
	Color     Color
	Intensity float64
	Position  mgl64.Vec3
	Range     float64 // point lights only, 0 is unbounded
}

// Grid is the ground helper drawn under every scene.
type Grid struct {
	Size      float64
	Divisions int
}

// Graph is a fully assembled scene. Graphs handed out by a Builder are
// shared and must be treated as read-only.
type Graph struct {
	Archetype  string // tables the geometry came from
	Requested  string // archetype asked for
	Mode       Mode
	Background Color
	Groups     []Group
	Lights     []Light
	Grid       Grid
}

// MeshCount is the total number of meshes in the graph.
func (g *Graph) MeshCount() int {
	n := 0
	for _, grp := range g.Groups {
		n += len(grp.Meshes)
	}
	return n
}

// Group finds a group by name.
func (g *Graph) Group(name string) (Group, bool) {
	for _, grp := range g.Groups {
		if grp.Name == name {
			return grp, true
		}
	}
	return Group{}, false
}

// Bounds is the axis-aligned box around every mesh, ignoring rotation.
func (g *Graph) Bounds() (min, max mgl64.Vec3) {
	first := true
	for _, grp := range g.Groups {
		for _, m := range grp.Meshes {
			e := m.Extent()
			lo, hi := m.Position.Sub(e), m.Position.Add(e)
			if first {
				min, max = lo, hi
				first = false
				continue
			}
			for i := 0; i < 3; i++ {
				min[i] = math.Min(min[i], lo[i])
				max[i] = math.Max(max[i], hi[i])
			}
		}
	}
	return min, max
}
