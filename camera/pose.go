// Package camera holds the virtual camera: its pose, the per-frame blend
// toward a tour stop, default framings and the orbit controls used while
// the user drives the view.
package camera

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultBlend is the fraction of the remaining distance covered each frame.
const DefaultBlend = 0.03

// Up is the world up axis.
var Up = mgl64.Vec3{0, 1, 0}

// Pose is where the camera sits and the point it faces.
type Pose struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
}

// NewPose builds a pose from plain coordinates.
func NewPose(px, py, pz, tx, ty, tz float64) Pose {
	return Pose{
		Position: mgl64.Vec3{px, py, pz},
		Target:   mgl64.Vec3{tx, ty, tz},
	}
}

// Blend moves position and target the fraction f of their remaining
// distance toward goal. f outside (0, 1) is clamped.
func (p Pose) Blend(goal Pose, f float64) Pose {
	f = mgl64.Clamp(f, 0, 1)
	return Pose{
		Position: lerp(p.Position, goal.Position, f),
		Target:   lerp(p.Target, goal.Target, f),
	}
}

// BlendAt converts a per-frame blend factor tuned for 60 fps into the
// factor that covers the same share of the distance per second at fps.
func BlendAt(f float64, fps int) float64 {
	if fps <= 0 || f <= 0 || f >= 1 {
		return f
	}
	return 1 - math.Pow(1-f, 60/float64(fps))
}

func lerp(a, b mgl64.Vec3, f float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

// Distance is the sum of the position and target distances.
func (p Pose) Distance(o Pose) float64 {
	return p.Position.Sub(o.Position).Len() + p.Target.Sub(o.Target).Len()
}

// ApproxEqual reports whether both points are within eps of o's.
func (p Pose) ApproxEqual(o Pose, eps float64) bool {
	return p.Position.ApproxEqualThreshold(o.Position, eps) &&
		p.Target.ApproxEqualThreshold(o.Target, eps)
}

// Forward is the unit view direction, or -Z when position and target meet.
func (p Pose) Forward() mgl64.Vec3 {
	d := p.Target.Sub(p.Position)
	if d.Len() < 1e-9 {
		return mgl64.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// View returns the world-to-camera matrix.
func (p Pose) View() mgl64.Mat4 {
	up := Up
	if math.Abs(p.Forward().Dot(Up)) > 0.999 {
		up = mgl64.Vec3{0, 0, -1}
	}
	return mgl64.LookAtV(p.Position, p.Target, up)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f) -> (%.2f, %.2f, %.2f)",
		p.Position.X(), p.Position.Y(), p.Position.Z(),
		p.Target.X(), p.Target.Y(), p.Target.Z())
}

// Projection describes a perspective lens.
type Projection struct {
	FOV    float64 // vertical, degrees
	Aspect float64
	Near   float64
	Far    float64
}

// DefaultProjection is a 75 degree lens with the given aspect ratio.
func DefaultProjection(aspect float64) Projection {
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	return Projection{FOV: 75, Aspect: aspect, Near: 0.1, Far: 1000}
}

// Matrix returns the camera-to-clip matrix.
func (p Projection) Matrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(p.FOV), p.Aspect, p.Near, p.Far)
}
