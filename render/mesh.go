package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/bimflow/bimviewer/scene"
)

// face is a planar polygon in mesh-local space.
type face struct {
	verts       []mgl64.Vec3
	doubleSided bool
}

const (
	defaultSegments = 16
	minSegments     = 3
)

func segments(n int) int {
	if n == 0 {
		return defaultSegments
	}
	if n < minSegments {
		return minSegments
	}
	return n
}

// tessellate breaks a mesh into faces. Planes lie in the local XY plane,
// round shapes run around the Y axis with x = r*sin(theta) and
// z = r*cos(theta).
func tessellate(m scene.Mesh) []face {
	switch m.Shape {
	case scene.Box:
		return box(m.Width/2, m.Height/2, m.Depth/2)
	case scene.Plane:
		w, h := m.Width/2, m.Height/2
		return []face{{
			verts:       []mgl64.Vec3{{-w, -h, 0}, {w, -h, 0}, {w, h, 0}, {-w, h, 0}},
			doubleSided: true,
		}}
	case scene.Cylinder:
		return frustum(m.Radius, m.RadiusBottom, m.Height/2, segments(m.Segments))
	case scene.Cone:
		return frustum(0, m.Radius, m.Height/2, segments(m.Segments))
	case scene.Sphere:
		return sphere(m.Radius, segments(m.Segments))
	}
	return nil
}

func box(x, y, z float64) []face {
	c := func(sx, sy, sz float64) mgl64.Vec3 { return mgl64.Vec3{sx * x, sy * y, sz * z} }
	return []face{
		{verts: []mgl64.Vec3{c(1, -1, -1), c(1, 1, -1), c(1, 1, 1), c(1, -1, 1)}},
		{verts: []mgl64.Vec3{c(-1, -1, -1), c(-1, -1, 1), c(-1, 1, 1), c(-1, 1, -1)}},
		{verts: []mgl64.Vec3{c(-1, 1, -1), c(-1, 1, 1), c(1, 1, 1), c(1, 1, -1)}},
		{verts: []mgl64.Vec3{c(-1, -1, -1), c(1, -1, -1), c(1, -1, 1), c(-1, -1, 1)}},
		{verts: []mgl64.Vec3{c(-1, -1, 1), c(1, -1, 1), c(1, 1, 1), c(-1, 1, 1)}},
		{verts: []mgl64.Vec3{c(-1, -1, -1), c(-1, 1, -1), c(1, 1, -1), c(1, -1, -1)}},
	}
}

// frustum covers cylinders and cones; a zero top radius collapses the
// side quads into triangles and drops the top cap.
func frustum(top, bottom, halfH float64, n int) []face {
	ring := func(r, y float64) []mgl64.Vec3 {
		pts := make([]mgl64.Vec3, n)
		for i := range pts {
			theta := float64(i) / float64(n) * 2 * math.Pi
			pts[i] = mgl64.Vec3{r * math.Sin(theta), y, r * math.Cos(theta)}
		}
		return pts
	}
	upper, lower := ring(top, halfH), ring(bottom, -halfH)

	faces := make([]face, 0, n+2)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if top == 0 {
			faces = append(faces, face{verts: []mgl64.Vec3{{0, halfH, 0}, lower[i], lower[j]}})
			continue
		}
		faces = append(faces, face{verts: []mgl64.Vec3{upper[i], lower[i], lower[j], upper[j]}})
	}
	if top > 0 {
		faces = append(faces, face{verts: upper})
	}
	if bottom > 0 {
		faces = append(faces, face{verts: lower})
	}
	return faces
}

func sphere(r float64, n int) []face {
	rings := n / 2
	if rings < 2 {
		rings = 2
	}
	point := func(ring, seg int) mgl64.Vec3 {
		phi := float64(ring) / float64(rings) * math.Pi
		theta := float64(seg) / float64(n) * 2 * math.Pi
		return mgl64.Vec3{
			r * math.Sin(phi) * math.Sin(theta),
			r * math.Cos(phi),
			r * math.Sin(phi) * math.Cos(theta),
		}
	}
	faces := make([]face, 0, rings*n)
	for i := 0; i < rings; i++ {
		for j := 0; j < n; j++ {
			k := (j + 1) % n
			switch i {
			case 0:
				faces = append(faces, face{verts: []mgl64.Vec3{point(0, 0), point(1, j), point(1, k)}})
			case rings - 1:
				faces = append(faces, face{verts: []mgl64.Vec3{point(i, j), point(rings, 0), point(i, k)}})
			default:
				faces = append(faces, face{verts: []mgl64.Vec3{point(i, j), point(i+1, j), point(i+1, k), point(i, k)}})
			}
		}
	}
	return faces
}

// newell returns the unnormalised polygon normal.
func newell(pts []mgl64.Vec3) mgl64.Vec3 {
	var n mgl64.Vec3
	for i, cur := range pts {
		next := pts[(i+1)%len(pts)]
		n[0] += (cur.Y() - next.Y()) * (cur.Z() + next.Z())
		n[1] += (cur.Z() - next.Z()) * (cur.X() + next.X())
		n[2] += (cur.X() - next.X()) * (cur.Y() + next.Y())
	}
	return n
}

func centroid(pts []mgl64.Vec3) mgl64.Vec3 {
	var c mgl64.Vec3
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(pts)))
}
