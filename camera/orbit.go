package camera

import (
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
)

// Policy decides who owns the camera while a tour is running.
type Policy string

const (
	// PolicyOverride applies user input, then keeps pulling toward the stop.
	PolicyOverride Policy = "override"
	// PolicyPause lets user input suspend the pull until the next navigation.
	PolicyPause Policy = "pause"
	// PolicyIgnore drops user input while a tour is running.
	PolicyIgnore Policy = "ignore"
)

// ParsePolicy accepts "override", "pause" or "ignore".
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyOverride, PolicyPause, PolicyIgnore:
		return p, nil
	case "":
		return PolicyPause, nil
	default:
		return "", fmt.Errorf("unknown camera policy %q", s)
	}
}

// Limits bounds orbit distance and polar angle (radians from +Y).
type Limits struct {
	MinDistance float64
	MaxDistance float64
	MinPolar    float64
	MaxPolar    float64
}

const (
	springFrequency = 6.0
	springDamping   = 1.0
	settleEpsilon   = 1e-4
	zoomBase        = 0.95
)

// axis is one damped scalar: the value shown, its velocity and where it is headed.
type axis struct {
	pos, vel, goal float64
}

func (a *axis) reset(v float64) {
	a.pos, a.vel, a.goal = v, 0, v
}

func (a *axis) step(s harmonica.Spring) {
	a.pos, a.vel = s.Update(a.pos, a.vel, a.goal)
}

func (a *axis) settled() bool {
	return math.Abs(a.vel) < settleEpsilon && math.Abs(a.pos-a.goal) < settleEpsilon
}

// pull moves pos and goal a fraction f of the way to v, keeping velocity.
func (a *axis) pull(v, f float64) {
	a.pos += (v - a.pos) * f
	a.goal += (v - a.goal) * f
}

// pullAngle is pull along the shorter way round the circle.
func (a *axis) pullAngle(v, f float64) {
	a.pos += math.Remainder(v-a.pos, 2*math.Pi) * f
	a.goal += math.Remainder(v-a.goal, 2*math.Pi) * f
}

func (a *axis) snap() {
	a.pos, a.vel = a.goal, 0
}

// Orbit turns drag, pan and wheel gestures into camera motion around the
// look-at point. Motion eases out through critically damped springs.
type Orbit struct {
	limits Limits
	spring harmonica.Spring

	azimuth axis
	polar   axis
	radius  axis
	center  [3]axis

	moving bool
}

// NewOrbit creates orbit controls stepping at fps frames per second.
func NewOrbit(fps int, limits Limits) *Orbit {
	if fps <= 0 {
		fps = 60
	}
	return &Orbit{
		limits: limits,
		spring: harmonica.NewSpring(harmonica.FPS(fps), springFrequency, springDamping),
	}
}

// SetLimits replaces the distance and angle bounds for future input.
func (o *Orbit) SetLimits(l Limits) {
	o.limits = l
}

// Limits returns the current bounds.
func (o *Orbit) Limits() Limits {
	return o.limits
}

// Sync adopts p as the resting state and drops any pending motion.
func (o *Orbit) Sync(p Pose) {
	azimuth, polar, r := spherical(p)
	o.azimuth.reset(azimuth)
	o.polar.reset(polar)
	o.radius.reset(r)
	for i := range o.center {
		o.center[i].reset(p.Target[i])
	}
	o.moving = false
}

// Pull eases the orbit a fraction f toward p without dropping motion in
// flight: shown values and goals both move toward p while velocities are
// kept, so a gesture still plays out on top of the pull. It returns the
// resulting pose.
func (o *Orbit) Pull(p Pose, f float64) Pose {
	f = mgl64.Clamp(f, 0, 1)
	azimuth, polar, r := spherical(p)
	o.azimuth.pullAngle(azimuth, f)
	o.polar.pull(polar, f)
	o.radius.pull(r, f)
	for i := range o.center {
		o.center[i].pull(p.Target[i], f)
	}
	return o.pose()
}

// spherical splits p into azimuth, polar angle and distance around its target.
func spherical(p Pose) (azimuth, polar, r float64) {
	offset := p.Position.Sub(p.Target)
	r = offset.Len()
	if r > 0 {
		polar = math.Acos(mgl64.Clamp(offset.Y()/r, -1, 1))
		azimuth = math.Atan2(offset.X(), offset.Z())
	}
	return azimuth, polar, r
}

// Rotate swings the camera around the target by the given angles in radians.
func (o *Orbit) Rotate(dAzimuth, dPolar float64) {
	o.azimuth.goal -= dAzimuth
	o.polar.goal = mgl64.Clamp(o.polar.goal-dPolar, o.limits.MinPolar, o.limits.MaxPolar)
	o.moving = true
}

// Pan slides target and camera together. dx and dy are fractions of the
// current orbit distance along the screen axes.
func (o *Orbit) Pan(dx, dy float64) {
	right, up := o.screenAxes()
	shift := right.Mul(-dx * o.radius.goal).Add(up.Mul(dy * o.radius.goal))
	for i := range o.center {
		o.center[i].goal += shift[i]
	}
	o.moving = true
}

// Zoom dollies toward the target; each positive step shrinks the distance by 5%.
func (o *Orbit) Zoom(steps float64) {
	r := o.radius.goal * math.Pow(zoomBase, steps)
	o.radius.goal = mgl64.Clamp(r, o.limits.MinDistance, o.limits.MaxDistance)
	o.moving = true
}

// Moving reports whether gestures are still easing out.
func (o *Orbit) Moving() bool {
	return o.moving
}

// Step advances the damping by one frame and returns the resulting pose.
// When nothing is moving the pose is returned unchanged.
func (o *Orbit) Step(p Pose) Pose {
	if !o.moving {
		return p
	}
	axes := []*axis{&o.azimuth, &o.polar, &o.radius, &o.center[0], &o.center[1], &o.center[2]}
	settled := true
	for _, a := range axes {
		a.step(o.spring)
		if !a.settled() {
			settled = false
		}
	}
	if settled {
		for _, a := range axes {
			a.snap()
		}
		o.moving = false
	}
	return o.pose()
}

func (o *Orbit) pose() Pose {
	target := mgl64.Vec3{o.center[0].pos, o.center[1].pos, o.center[2].pos}
	r, polar, az := o.radius.pos, o.polar.pos, o.azimuth.pos
	offset := mgl64.Vec3{
		r * math.Sin(polar) * math.Sin(az),
		r * math.Cos(polar),
		r * math.Sin(polar) * math.Cos(az),
	}
	return Pose{Position: target.Add(offset), Target: target}
}

func (o *Orbit) screenAxes() (right, up mgl64.Vec3) {
	az, polar := o.azimuth.goal, o.polar.goal
	forward := mgl64.Vec3{
		-math.Sin(polar) * math.Sin(az),
		-math.Cos(polar),
		-math.Sin(polar) * math.Cos(az),
	}
	right = forward.Cross(Up)
	if right.Len() < 1e-9 {
		right = mgl64.Vec3{math.Cos(az), 0, -math.Sin(az)}
	}
	right = right.Normalize()
	up = right.Cross(forward).Normalize()
	return right, up
}
