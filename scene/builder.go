package scene

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"
)

//go:embed archetypes/*.yaml
var embeddedTables embed.FS

// DefaultArchetype is built for unknown archetype ids.
const DefaultArchetype = "mansion"

var ErrUnknownShape = errors.New("unknown shape")

// Table is the parsed descriptor table of one archetype.
type Table struct {
	Archetype string      `yaml:"archetype"`
	Exterior  []groupSpec `yaml:"exterior"`
	Interior  []groupSpec `yaml:"interior"`
}

type groupSpec struct {
	Group  string     `yaml:"group"`
	Meshes []meshSpec `yaml:"meshes"`
}

type meshSpec struct {
	Name         string       `yaml:"name"`
	Shape        Shape        `yaml:"shape"`
	Size         []float64    `yaml:"size"`
	Radius       float64      `yaml:"radius"`
	RadiusBottom *float64     `yaml:"radius_bottom"`
	Height       float64      `yaml:"height"`
	Segments     int          `yaml:"segments"`
	Position     []float64    `yaml:"position"`
	Rotation     []float64    `yaml:"rotation"`
	Material     materialSpec `yaml:"material"`

	Repeat *repeatSpec `yaml:"repeat"`
	Grid   *gridSpec   `yaml:"grid"`
	Ring   *ringSpec   `yaml:"ring"`
	At     [][]float64 `yaml:"at"`
}

type materialSpec struct {
	Color             Color    `yaml:"color"`
	Opacity           *float64 `yaml:"opacity"`
	Metalness         float64  `yaml:"metalness"`
	Roughness         float64  `yaml:"roughness"`
	Emissive          *Color   `yaml:"emissive"`
	EmissiveIntensity float64  `yaml:"emissive_intensity"`
}

// repeatSpec places count copies, each step further along.
type repeatSpec struct {
	Count int       `yaml:"count"`
	Step  []float64 `yaml:"step"`
}

// gridSpec places counts[0]*counts[1]*counts[2] copies on a lattice.
type gridSpec struct {
	Counts []int     `yaml:"counts"`
	Step   []float64 `yaml:"step"`
}

// ringSpec places count copies evenly on a horizontal circle around the
// mesh position, starting on +X.
type ringSpec struct {
	Count  int     `yaml:"count"`
	Radius float64 `yaml:"radius"`
}

// ParseTable reads and validates one descriptor table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing scene table: %w", err)
	}
	if t.Archetype == "" {
		return nil, fmt.Errorf("scene table without archetype")
	}
	if len(t.Exterior) == 0 {
		return nil, fmt.Errorf("scene table %s: no exterior groups", t.Archetype)
	}
	for _, section := range [][]groupSpec{t.Exterior, t.Interior} {
		for _, g := range section {
			for _, m := range g.Meshes {
				if err := m.validate(); err != nil {
					return nil, fmt.Errorf("scene table %s group %s: %w", t.Archetype, g.Group, err)
				}
			}
		}
	}
	return &t, nil
}

func (m meshSpec) validate() error {
	switch m.Shape {
	case Box:
		if len(m.Size) != 3 {
			return fmt.Errorf("mesh %s: box needs size [w, h, d]", m.Name)
		}
	case Plane:
		if len(m.Size) != 2 {
			return fmt.Errorf("mesh %s: plane needs size [w, h]", m.Name)
		}
	case Cylinder, Cone:
		if m.Radius <= 0 || m.Height <= 0 {
			return fmt.Errorf("mesh %s: %s needs radius and height", m.Name, m.Shape)
		}
	case Sphere:
		if m.Radius <= 0 {
			return fmt.Errorf("mesh %s: sphere needs radius", m.Name)
		}
	default:
		return fmt.Errorf("mesh %s: %w %q", m.Name, ErrUnknownShape, m.Shape)
	}
	if len(m.Position) != 0 && len(m.Position) != 3 {
		return fmt.Errorf("mesh %s: position needs 3 components", m.Name)
	}
	if len(m.Rotation) != 0 && len(m.Rotation) != 3 {
		return fmt.Errorf("mesh %s: rotation needs 3 components", m.Name)
	}
	if m.Repeat != nil && (m.Repeat.Count < 1 || len(m.Repeat.Step) != 3) {
		return fmt.Errorf("mesh %s: repeat needs count and a 3 component step", m.Name)
	}
	if m.Grid != nil && (len(m.Grid.Counts) != 3 || len(m.Grid.Step) != 3) {
		return fmt.Errorf("mesh %s: grid needs 3 counts and a 3 component step", m.Name)
	}
	if m.Ring != nil && m.Ring.Count < 1 {
		return fmt.Errorf("mesh %s: ring needs a count", m.Name)
	}
	for _, at := range m.At {
		if len(at) != 3 {
			return fmt.Errorf("mesh %s: every at offset needs 3 components", m.Name)
		}
	}
	return nil
}

// Assemble expands a table's section for mode into a graph, adding the
// mode's lights, background and ground grid. A table without an interior
// section uses its exterior for both modes.
func Assemble(t *Table, mode Mode) *Graph {
	section := t.Exterior
	if mode == Interior && len(t.Interior) > 0 {
		section = t.Interior
	}
	g := &Graph{
		Archetype: t.Archetype,
		Requested: t.Archetype,
		Mode:      mode,
		Grid:      Grid{Size: 40, Divisions: 40},
	}
	for _, gs := range section {
		grp := Group{Name: gs.Group}
		for _, ms := range gs.Meshes {
			grp.Meshes = append(grp.Meshes, ms.expand()...)
		}
		g.Groups = append(g.Groups, grp)
	}
	g.Background, g.Lights = lighting(mode)
	return g
}

func lighting(mode Mode) (Color, []Light) {
	white := Hex(0xFFFFFF)
	if mode == Interior {
		return Hex(0x111111), []Light{
			{Kind: Ambient, Color: white, Intensity: 0.8},
			{Kind: Directional, Color: white, Intensity: 1.2, Position: mgl64.Vec3{10, 10, 5}},
			{Kind: Point, Color: white, Intensity: 0.5, Position: mgl64.Vec3{0, 5, 0}, Range: 20},
			{Kind: Point, Color: white, Intensity: 0.3, Position: mgl64.Vec3{8, 5, 8}, Range: 15},
		}
	}
	return Hex(0x87CEEB), []Light{
		{Kind: Ambient, Color: white, Intensity: 0.6},
		{Kind: Directional, Color: white, Intensity: 0.8, Position: mgl64.Vec3{10, 10, 5}},
	}
}

func (m meshSpec) expand() []Mesh {
	base := Mesh{
		Name:     m.Name,
		Shape:    m.Shape,
		Radius:   m.Radius,
		Height:   m.Height,
		Segments: m.Segments,
		Position: vec(m.Position),
		Rotation: vec(m.Rotation),
		Material: m.Material.material(),
	}
	switch m.Shape {
	case Box:
		base.Width, base.Height, base.Depth = m.Size[0], m.Size[1], m.Size[2]
	case Plane:
		base.Width, base.Height = m.Size[0], m.Size[1]
	case Cylinder:
		base.RadiusBottom = m.Radius
		if m.RadiusBottom != nil {
			base.RadiusBottom = *m.RadiusBottom
		}
	}

	offsets := m.offsets()
	if len(offsets) == 1 {
		base.Position = base.Position.Add(offsets[0])
		return []Mesh{base}
	}
	out := make([]Mesh, len(offsets))
	for i, off := range offsets {
		mesh := base
		mesh.Name = fmt.Sprintf("%s-%d", m.Name, i)
		mesh.Position = base.Position.Add(off)
		out[i] = mesh
	}
	return out
}

// offsets combines the generators; at most one is expected per mesh, and
// a mesh without any is placed once.
func (m meshSpec) offsets() []mgl64.Vec3 {
	switch {
	case m.Repeat != nil:
		step := vec(m.Repeat.Step)
		out := make([]mgl64.Vec3, m.Repeat.Count)
		for i := range out {
			out[i] = step.Mul(float64(i))
		}
		return out
	case m.Grid != nil:
		step := vec(m.Grid.Step)
		var out []mgl64.Vec3
		for i := 0; i < m.Grid.Counts[0]; i++ {
			for j := 0; j < m.Grid.Counts[1]; j++ {
				for k := 0; k < m.Grid.Counts[2]; k++ {
					out = append(out, mgl64.Vec3{
						float64(i) * step[0],
						float64(j) * step[1],
						float64(k) * step[2],
					})
				}
			}
		}
		return out
	case m.Ring != nil:
		out := make([]mgl64.Vec3, m.Ring.Count)
		for i := range out {
			angle := float64(i) / float64(m.Ring.Count) * 2 * math.Pi
			out[i] = mgl64.Vec3{math.Cos(angle) * m.Ring.Radius, 0, math.Sin(angle) * m.Ring.Radius}
		}
		return out
	case len(m.At) > 0:
		out := make([]mgl64.Vec3, len(m.At))
		for i, at := range m.At {
			out[i] = vec(at)
		}
		return out
	}
	return []mgl64.Vec3{{}}
}

func (s materialSpec) material() Material {
	m := Material{
		Color:             s.Color,
		Opacity:           1,
		Metalness:         s.Metalness,
		Roughness:         s.Roughness,
		EmissiveIntensity: s.EmissiveIntensity,
	}
	if s.Opacity != nil {
		m.Opacity = *s.Opacity
	}
	if s.Emissive != nil {
		m.Emissive = *s.Emissive
		if m.EmissiveIntensity == 0 {
			m.EmissiveIntensity = 1
		}
	}
	return m
}

func vec(v []float64) mgl64.Vec3 {
	if len(v) != 3 {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}

// Builder turns (archetype, mode) into scene graphs. Results are memoised;
// repeated calls return the same read-only graph.
type Builder struct {
	mu     sync.RWMutex
	tables map[string]*Table
	graphs *cache.Cache
}

// NewBuilder loads the built-in archetype tables.
func NewBuilder() (*Builder, error) {
	b := &Builder{
		tables: make(map[string]*Table),
		graphs: cache.New(cache.NoExpiration, 0),
	}
	entries, err := fs.ReadDir(embeddedTables, "archetypes")
	if err != nil {
		return nil, fmt.Errorf("reading scene tables: %w", err)
	}
	for _, e := range entries {
		data, err := embeddedTables.ReadFile(path.Join("archetypes", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading scene table %s: %w", e.Name(), err)
		}
		if err := b.Register(data); err != nil {
			return nil, err
		}
	}
	if _, ok := b.tables[DefaultArchetype]; !ok {
		return nil, fmt.Errorf("scene tables missing %s", DefaultArchetype)
	}
	return b, nil
}

var (
	defaultOnce    sync.Once
	defaultBuilder *Builder
)

// Default returns a shared builder over the built-in tables.
func Default() *Builder {
	defaultOnce.Do(func() {
		b, err := NewBuilder()
		if err != nil {
			panic(fmt.Sprintf("embedded scene tables: %v", err))
		}
		defaultBuilder = b
	})
	return defaultBuilder
}

// Register adds or replaces an archetype table.
func (b *Builder) Register(data []byte) error {
	t, err := ParseTable(data)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.tables[t.Archetype] = t
	b.mu.Unlock()
	b.graphs.Flush()
	return nil
}

// Archetypes lists the archetypes with tables, sorted.
func (b *Builder) Archetypes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.tables))
	for id := range b.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether archetype has its own table.
func (b *Builder) Has(archetype string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.tables[archetype]
	return ok
}

// Build returns the scene for archetype in mode. Unknown archetypes are
// built from the default archetype's tables.
func (b *Builder) Build(archetype string, mode Mode) *Graph {
	key := archetype + "/" + mode.String()
	if g, ok := b.graphs.Get(key); ok {
		return g.(*Graph)
	}

	b.mu.RLock()
	t, ok := b.tables[archetype]
	if !ok {
		t = b.tables[DefaultArchetype]
	}
	b.mu.RUnlock()

	g := Assemble(t, mode)
	g.Requested = archetype
	b.graphs.Set(key, g, cache.NoExpiration)
	return g
}
