// Package render rasterises scene graphs through a camera into RGBA images.
//
// It is a flat-shaded painter's renderer: every face is lit once with
// Lambert shading, sorted far to near and filled as a polygon. There is no
// depth buffer, which is adequate for the box-built architecture it draws.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/vector"

	"github.com/bimflow/bimviewer/camera"
	"github.com/bimflow/bimviewer/scene"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

var (
	gridColor  = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	gridCenter = color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
)

const gridLineWidth = 1.0

// Options configures a Renderer.
type Options struct {
	Width  int
	Height int
}

// Renderer draws frames of a fixed size. It is safe for concurrent use.
type Renderer struct {
	opts Options

	mu  sync.Mutex
	ras *vector.Rasterizer
}

// New creates a renderer. Non-positive sizes fall back to the defaults.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	return &Renderer{
		opts: opts,
		ras:  vector.NewRasterizer(opts.Width, opts.Height),
	}
}

// Size returns the frame size.
func (r *Renderer) Size() (int, int) {
	return r.opts.Width, r.opts.Height
}

// Aspect is width over height.
func (r *Renderer) Aspect() float64 {
	return float64(r.opts.Width) / float64(r.opts.Height)
}

// Render draws g into a new image.
func (r *Renderer) Render(g *scene.Graph, pose camera.Pose, proj camera.Projection, ov *Overlay) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	r.Draw(dst, g, pose, proj, ov)
	return dst
}

// polygon is a projected, shaded face ready to fill.
type polygon struct {
	pts   []mgl64.Vec2
	depth float64
	fill  color.NRGBA
}

// Draw renders into dst, which must be at least the renderer's size. It
// returns the number of polygons filled.
func (r *Renderer) Draw(dst *image.RGBA, g *scene.Graph, pose camera.Pose, proj camera.Projection, ov *Overlay) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.opts.Width, r.opts.Height
	bg := color.Color(color.Black)
	if g != nil {
		bg = g.Background
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	cam := frame{
		view:   pose.View(),
		proj:   proj.Matrix(),
		near:   proj.Near,
		eye:    pose.Position,
		width:  float64(w),
		height: float64(h),
	}

	drawn := 0
	if g != nil {
		for _, p := range cam.grid(g.Grid) {
			r.fill(dst, p)
			drawn++
		}
		polys := cam.faces(g)
		sort.SliceStable(polys, func(i, j int) bool { return polys[i].depth > polys[j].depth })
		for _, p := range polys {
			r.fill(dst, p)
			drawn++
		}
	}
	if ov != nil {
		ov.draw(dst)
	}
	return drawn
}

func (r *Renderer) fill(dst *image.RGBA, p polygon) {
	if len(p.pts) < 3 {
		return
	}
	r.ras.Reset(r.opts.Width, r.opts.Height)
	r.ras.DrawOp = draw.Over
	r.ras.MoveTo(float32(p.pts[0].X()), float32(p.pts[0].Y()))
	for _, pt := range p.pts[1:] {
		r.ras.LineTo(float32(pt.X()), float32(pt.Y()))
	}
	r.ras.ClosePath()
	r.ras.Draw(dst, dst.Bounds(), image.NewUniform(p.fill), image.Point{})
}

// frame holds the per-render camera transforms.
type frame struct {
	view, proj    mgl64.Mat4
	near          float64
	eye           mgl64.Vec3
	width, height float64
}

func (f frame) faces(g *scene.Graph) []polygon {
	var out []polygon
	for _, grp := range g.Groups {
		for _, m := range grp.Meshes {
			model := m.Transform()
			center := model.Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
			transparent := m.Material.Opacity > 0 && m.Material.Opacity < 1

			for _, fc := range tessellate(m) {
				world := make([]mgl64.Vec3, len(fc.verts))
				for i, v := range fc.verts {
					world[i] = model.Mul4x1(v.Vec4(1)).Vec3()
				}
				normal := newell(world)
				if normal.Len() < 1e-12 {
					continue
				}
				normal = normal.Normalize()
				mid := centroid(world)
				if !fc.doubleSided && normal.Dot(mid.Sub(center)) < 0 {
					normal = normal.Mul(-1)
				}

				toEye := f.eye.Sub(mid)
				facing := normal.Dot(toEye) > 0
				if !facing {
					if !fc.doubleSided && !transparent {
						continue
					}
					normal = normal.Mul(-1)
				}

				pts, depth, ok := f.project(world)
				if !ok {
					continue
				}
				out = append(out, polygon{
					pts:   pts,
					depth: depth,
					fill:  shade(m.Material, normal, mid, g.Lights),
				})
			}
		}
	}
	return out
}

// project moves world points to screen space, clipped against the near
// plane and the viewport. depth is the mean view distance of the visible
// part.
func (f frame) project(world []mgl64.Vec3) ([]mgl64.Vec2, float64, bool) {
	eye := make([]mgl64.Vec3, len(world))
	for i, p := range world {
		eye[i] = f.view.Mul4x1(p.Vec4(1)).Vec3()
	}
	eye = clipNear(eye, -f.near)
	if len(eye) < 3 {
		return nil, 0, false
	}
	depth := 0.0
	screen := make([]mgl64.Vec2, len(eye))
	for i, p := range eye {
		depth += -p.Z()
		screen[i] = f.toScreen(p)
	}
	screen = clipRect(screen, -1, -1, f.width+1, f.height+1)
	if len(screen) < 3 {
		return nil, 0, false
	}
	return screen, depth / float64(len(eye)), true
}

func (f frame) toScreen(eye mgl64.Vec3) mgl64.Vec2 {
	c := f.proj.Mul4x1(eye.Vec4(1))
	ndcX, ndcY := c.X()/c.W(), c.Y()/c.W()
	return mgl64.Vec2{(ndcX + 1) / 2 * f.width, (1 - ndcY) / 2 * f.height}
}

// grid draws the ground helper as thin quads on y = 0.
func (f frame) grid(g scene.Grid) []polygon {
	if g.Divisions <= 0 || g.Size <= 0 {
		return nil
	}
	half := g.Size / 2
	step := g.Size / float64(g.Divisions)
	var out []polygon
	for i := 0; i <= g.Divisions; i++ {
		k := -half + float64(i)*step
		c := gridColor
		if math.Abs(k) < 1e-9 {
			c = gridCenter
		}
		for _, seg := range [][2]mgl64.Vec3{
			{{k, 0, -half}, {k, 0, half}},
			{{-half, 0, k}, {half, 0, k}},
		} {
			if p, ok := f.line(seg[0], seg[1], c); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func (f frame) line(a, b mgl64.Vec3, c color.NRGBA) (polygon, bool) {
	ea := f.view.Mul4x1(a.Vec4(1)).Vec3()
	eb := f.view.Mul4x1(b.Vec4(1)).Vec3()
	limit := -f.near
	if ea.Z() > limit && eb.Z() > limit {
		return polygon{}, false
	}
	if ea.Z() > limit {
		ea = intersectZ(eb, ea, limit)
	} else if eb.Z() > limit {
		eb = intersectZ(ea, eb, limit)
	}
	sa, sb := f.toScreen(ea), f.toScreen(eb)
	d := sb.Sub(sa)
	if d.Len() < 1e-9 {
		return polygon{}, false
	}
	n := mgl64.Vec2{-d.Y(), d.X()}.Normalize().Mul(gridLineWidth / 2)
	pts := clipRect([]mgl64.Vec2{sa.Add(n), sb.Add(n), sb.Sub(n), sa.Sub(n)}, -1, -1, f.width+1, f.height+1)
	if len(pts) < 3 {
		return polygon{}, false
	}
	return polygon{pts: pts, fill: c}, true
}

// shade applies flat Lambert lighting plus emission.
func shade(m scene.Material, n, at mgl64.Vec3, lights []scene.Light) color.NRGBA {
	var lit [3]float64
	add := func(l scene.Light, k float64) {
		lit[0] += k * l.Intensity * float64(l.Color.R) / 255
		lit[1] += k * l.Intensity * float64(l.Color.G) / 255
		lit[2] += k * l.Intensity * float64(l.Color.B) / 255
	}
	for _, l := range lights {
		switch l.Kind {
		case scene.Ambient:
			add(l, 1)
		case scene.Directional:
			if l.Position.Len() == 0 {
				continue
			}
			add(l, math.Max(0, n.Dot(l.Position.Normalize())))
		case scene.Point:
			d := l.Position.Sub(at)
			dist := d.Len()
			if dist == 0 {
				continue
			}
			atten := 1.0
			if l.Range > 0 {
				atten = math.Max(0, 1-dist/l.Range)
			}
			add(l, atten*math.Max(0, n.Dot(d.Mul(1/dist))))
		}
	}

	base := [3]float64{float64(m.Color.R) / 255, float64(m.Color.G) / 255, float64(m.Color.B) / 255}
	glow := [3]float64{float64(m.Emissive.R) / 255, float64(m.Emissive.G) / 255, float64(m.Emissive.B) / 255}
	var out [3]uint8
	for i := range out {
		v := base[i]*lit[i] + glow[i]*m.EmissiveIntensity
		out[i] = uint8(math.Round(math.Min(1, math.Max(0, v)) * 255))
	}
	alpha := m.Opacity
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: uint8(math.Round(alpha * 255))}
}
