package render

import "github.com/go-gl/mathgl/mgl64"

// clipNear keeps the part of an eye-space polygon with z <= limit.
func clipNear(pts []mgl64.Vec3, limit float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(pts)+2)
	for i, cur := range pts {
		prev := pts[(i+len(pts)-1)%len(pts)]
		curIn, prevIn := cur.Z() <= limit, prev.Z() <= limit
		if curIn != prevIn {
			out = append(out, intersectZ(prev, cur, limit))
		}
		if curIn {
			out = append(out, cur)
		}
	}
	return out
}

// intersectZ returns the point on segment ab where z == limit.
func intersectZ(a, b mgl64.Vec3, limit float64) mgl64.Vec3 {
	t := (limit - a.Z()) / (b.Z() - a.Z())
	return a.Add(b.Sub(a).Mul(t))
}

// clipRect clips a screen polygon to the rectangle [x0,x1]x[y0,y1] with
// Sutherland-Hodgman.
func clipRect(pts []mgl64.Vec2, x0, y0, x1, y1 float64) []mgl64.Vec2 {
	edges := []struct {
		inside func(p mgl64.Vec2) bool
		cross  func(a, b mgl64.Vec2) mgl64.Vec2
	}{
		{func(p mgl64.Vec2) bool { return p.X() >= x0 }, func(a, b mgl64.Vec2) mgl64.Vec2 { return atX(a, b, x0) }},
		{func(p mgl64.Vec2) bool { return p.X() <= x1 }, func(a, b mgl64.Vec2) mgl64.Vec2 { return atX(a, b, x1) }},
		{func(p mgl64.Vec2) bool { return p.Y() >= y0 }, func(a, b mgl64.Vec2) mgl64.Vec2 { return atY(a, b, y0) }},
		{func(p mgl64.Vec2) bool { return p.Y() <= y1 }, func(a, b mgl64.Vec2) mgl64.Vec2 { return atY(a, b, y1) }},
	}
	for _, e := range edges {
		if len(pts) == 0 {
			return nil
		}
		in := pts
		pts = make([]mgl64.Vec2, 0, len(in)+2)
		for i, cur := range in {
			prev := in[(i+len(in)-1)%len(in)]
			curIn, prevIn := e.inside(cur), e.inside(prev)
			if curIn != prevIn {
				pts = append(pts, e.cross(prev, cur))
			}
			if curIn {
				pts = append(pts, cur)
			}
		}
	}
	if len(pts) == 0 {
		return nil
	}
	return pts
}

func atX(a, b mgl64.Vec2, x float64) mgl64.Vec2 {
	t := (x - a.X()) / (b.X() - a.X())
	return mgl64.Vec2{x, a.Y() + t*(b.Y()-a.Y())}
}

func atY(a, b mgl64.Vec2, y float64) mgl64.Vec2 {
	t := (y - a.Y()) / (b.Y() - a.Y())
	return mgl64.Vec2{a.X() + t*(b.X()-a.X()), y}
}
