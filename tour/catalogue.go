// Package tour holds the guided-tour catalogue of building archetypes and
// the state machine that walks a viewer through an archetype's stops.
package tour

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/bimflow/bimviewer/camera"
)

//go:embed catalogue.yaml
var embeddedCatalogue []byte

var (
	ErrDuplicateArchetype = errors.New("duplicate archetype")
	ErrDuplicateStop      = errors.New("duplicate stop name")
)

// Detail is the BIM information shown alongside a stop.
type Detail struct {
	Materials       []string `json:"materials"`
	MEP             []string `json:"mep"`
	Lighting        string   `json:"lighting"`
	Structure       string   `json:"structure"`
	SpecialFeatures []string `json:"special_features"`
}

// Stop is one waypoint of a tour.
type Stop struct {
	Name        string
	Position    mgl64.Vec3
	Target      mgl64.Vec3
	Description string
	Detail      Detail
}

// Pose is the camera pose the tour blends toward at this stop.
func (s Stop) Pose() camera.Pose {
	return camera.Pose{Position: s.Position, Target: s.Target}
}

// Archetype is a building category and its ordered tour.
type Archetype struct {
	ID      string
	Title   string
	Summary string
	Stops   []Stop
}

// Catalogue maps archetype ids to their tours. It is never mutated after
// construction and is safe for concurrent use.
type Catalogue struct {
	archetypes []Archetype
	index      map[string]int
}

// New validates the archetypes and builds a catalogue from them.
func New(archetypes ...Archetype) (*Catalogue, error) {
	c := &Catalogue{index: make(map[string]int, len(archetypes))}
	for _, a := range archetypes {
		if a.ID == "" {
			return nil, fmt.Errorf("archetype without id")
		}
		if _, ok := c.index[a.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArchetype, a.ID)
		}
		seen := make(map[string]bool, len(a.Stops))
		for i, s := range a.Stops {
			if s.Name == "" {
				return nil, fmt.Errorf("archetype %s: stop %d has no name", a.ID, i)
			}
			if seen[s.Name] {
				return nil, fmt.Errorf("archetype %s: %w: %s", a.ID, ErrDuplicateStop, s.Name)
			}
			seen[s.Name] = true
		}
		a.Stops = append([]Stop(nil), a.Stops...)
		c.index[a.ID] = len(c.archetypes)
		c.archetypes = append(c.archetypes, a)
	}
	return c, nil
}

type catalogueFile struct {
	Archetypes []archetypeRecord `yaml:"archetypes"`
}

type archetypeRecord struct {
	ID      string       `yaml:"id"`
	Title   string       `yaml:"title"`
	Summary string       `yaml:"summary"`
	Stops   []stopRecord `yaml:"stops"`
}

type stopRecord struct {
	Name        string    `yaml:"name"`
	Position    []float64 `yaml:"position"`
	Target      []float64 `yaml:"target"`
	Description string    `yaml:"description"`
	Detail      struct {
		Materials       []string `yaml:"materials"`
		MEP             []string `yaml:"mep"`
		Lighting        string   `yaml:"lighting"`
		Structure       string   `yaml:"structure"`
		SpecialFeatures []string `yaml:"special_features"`
	} `yaml:"detail"`
}

// Parse reads a YAML catalogue.
func Parse(data []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}
	archetypes := make([]Archetype, 0, len(f.Archetypes))
	for _, rec := range f.Archetypes {
		a := Archetype{ID: rec.ID, Title: rec.Title, Summary: rec.Summary}
		for _, s := range rec.Stops {
			pos, err := vec3(s.Position)
			if err != nil {
				return nil, fmt.Errorf("archetype %s stop %q position: %w", rec.ID, s.Name, err)
			}
			target, err := vec3(s.Target)
			if err != nil {
				return nil, fmt.Errorf("archetype %s stop %q target: %w", rec.ID, s.Name, err)
			}
			a.Stops = append(a.Stops, Stop{
				Name:        s.Name,
				Position:    pos,
				Target:      target,
				Description: s.Description,
				Detail: Detail{
					Materials:       s.Detail.Materials,
					MEP:             s.Detail.MEP,
					Lighting:        s.Detail.Lighting,
					Structure:       s.Detail.Structure,
					SpecialFeatures: s.Detail.SpecialFeatures,
				},
			})
		}
		archetypes = append(archetypes, a)
	}
	return New(archetypes...)
}

// Load reads a YAML catalogue from disk.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalogue: %w", err)
	}
	return Parse(data)
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
)

// Default returns the built-in catalogue (mansion, hospital, office, bridge).
func Default() *Catalogue {
	defaultOnce.Do(func() {
		c, err := Parse(embeddedCatalogue)
		if err != nil {
			panic(fmt.Sprintf("embedded tour catalogue: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

func vec3(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("want 3 components, got %d", len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// Archetypes lists every archetype in catalogue order.
func (c *Catalogue) Archetypes() []Archetype {
	return append([]Archetype(nil), c.archetypes...)
}

// IDs lists archetype ids in catalogue order.
func (c *Catalogue) IDs() []string {
	ids := make([]string, len(c.archetypes))
	for i, a := range c.archetypes {
		ids[i] = a.ID
	}
	return ids
}

// Archetype looks up one archetype.
func (c *Catalogue) Archetype(id string) (Archetype, bool) {
	i, ok := c.index[id]
	if !ok {
		return Archetype{}, false
	}
	return c.archetypes[i], true
}

// Stops returns a copy of the archetype's ordered stops.
func (c *Catalogue) Stops(id string) []Stop {
	a, ok := c.Archetype(id)
	if !ok {
		return nil
	}
	return append([]Stop(nil), a.Stops...)
}

// StopCount is the number of stops for id; zero when unknown.
func (c *Catalogue) StopCount(id string) int {
	a, ok := c.Archetype(id)
	if !ok {
		return 0
	}
	return len(a.Stops)
}

// Stop returns stop i of archetype id.
func (c *Catalogue) Stop(id string, i int) (Stop, bool) {
	a, ok := c.Archetype(id)
	if !ok || i < 0 || i >= len(a.Stops) {
		return Stop{}, false
	}
	return a.Stops[i], true
}
