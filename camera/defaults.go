package camera

// InteriorPose frames every interior from just inside the front wall.
var InteriorPose = NewPose(0, 5, 15, 0, 3, 0)

var exteriorPoses = map[string]Pose{
	"mansion":  NewPose(25, 12, 25, 0, 5, 0),
	"hospital": NewPose(30, 15, 30, 0, 7, 0),
	"office":   NewPose(20, 30, 20, 0, 15, 0),
	"bridge":   NewPose(0, 15, 25, 0, 10, 0),
}

var fallbackExterior = NewPose(15, 10, 15, 0, 5, 0)

// DefaultPose returns the non-tour framing for an archetype in the given mode.
func DefaultPose(archetype string, interior bool) Pose {
	if interior {
		return InteriorPose
	}
	if p, ok := exteriorPoses[archetype]; ok {
		return p
	}
	return fallbackExterior
}

// DefaultLimits returns the orbit limits used for the given mode.
func DefaultLimits(interior bool) Limits {
	if interior {
		return Limits{MinDistance: 1, MaxDistance: 100, MinPolar: 0.01, MaxPolar: 3.13}
	}
	return Limits{MinDistance: 5, MaxDistance: 100, MinPolar: 0.01, MaxPolar: 3.13}
}
