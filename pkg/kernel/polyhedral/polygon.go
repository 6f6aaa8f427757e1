package polyhedral

import (
	"math"

	"github.com/chazu/cgtree/pkg/geom"
)

// planeEpsilon is the thickness used to classify vertices against a plane.
const planeEpsilon = 1e-5

type plane struct {
	normal geom.Vec3
	w      float64
}

func (p plane) flipped() plane {
	return plane{normal: p.normal.Neg(), w: -p.w}
}

// polygon is a convex planar polygon. verts keep the order they were created
// in; reversed records that the polygon is used back to front, and pl is the
// plane of the polygon as used (pointing out of the solid).
type polygon struct {
	verts    []geom.Vec3
	pl       plane
	face     int64
	reversed bool
}

// newPolygon builds a polygon from vertices listed counter-clockwise as seen
// from outside. When reversed is set the vertices are stored back to front
// and the polygon is marked reversed, so both forms describe the same
// outward-facing polygon.
func newPolygon(outward []geom.Vec3, face int64, reversed bool) *polygon {
	verts := make([]geom.Vec3, len(outward))
	copy(verts, outward)
	n := newell(outward).Normalize()
	if reversed {
		for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
	}
	return &polygon{
		verts:    verts,
		pl:       plane{normal: n, w: n.Dot(outward[0])},
		face:     face,
		reversed: reversed,
	}
}

// planarFace returns whether a planar face with outward normal n should be
// stored reversed. Faces whose normal points along a negative direction are.
func planarFace(n geom.Vec3) bool {
	for _, c := range []float64{n.X, n.Y, n.Z} {
		if math.Abs(c) > 1e-9 {
			return c < 0
		}
	}
	return false
}

func newell(pts []geom.Vec3) geom.Vec3 {
	var n geom.Vec3
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return n
}

func (p *polygon) clone() *polygon {
	c := *p
	c.verts = make([]geom.Vec3, len(p.verts))
	copy(c.verts, p.verts)
	return &c
}

func (p *polygon) flip() {
	p.reversed = !p.reversed
	p.pl = p.pl.flipped()
}

// outward returns the vertices in outward counter-clockwise order.
func (p *polygon) outward() []geom.Vec3 {
	if !p.reversed {
		return p.verts
	}
	out := make([]geom.Vec3, len(p.verts))
	for i, v := range p.verts {
		out[len(out)-1-i] = v
	}
	return out
}

func (p *polygon) mapVerts(f func(geom.Vec3) geom.Vec3, rot func(geom.Vec3) geom.Vec3) *polygon {
	c := &polygon{face: p.face, reversed: p.reversed, verts: make([]geom.Vec3, len(p.verts))}
	for i, v := range p.verts {
		c.verts[i] = f(v)
	}
	n := rot(p.pl.normal)
	c.pl = plane{normal: n, w: n.Dot(c.verts[0])}
	return c
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// split sorts p into the four lists by its position relative to pl,
// splitting it in two when it straddles the plane.
func (pl plane) split(p *polygon, coplanarFront, coplanarBack, fronts, backs *[]*polygon) {
	polyType := 0
	types := make([]int, len(p.verts))
	for i, v := range p.verts {
		t := pl.normal.Dot(v) - pl.w
		typ := coplanar
		if t < -planeEpsilon {
			typ = back
		} else if t > planeEpsilon {
			typ = front
		}
		polyType |= typ
		types[i] = typ
	}

	switch polyType {
	case coplanar:
		if pl.normal.Dot(p.pl.normal) > 0 {
			*coplanarFront = append(*coplanarFront, p)
		} else {
			*coplanarBack = append(*coplanarBack, p)
		}
	case front:
		*fronts = append(*fronts, p)
	case back:
		*backs = append(*backs, p)
	case spanning:
		var f, b []geom.Vec3
		n := len(p.verts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := p.verts[i], p.verts[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (pl.w - pl.normal.Dot(vi)) / pl.normal.Dot(vj.Sub(vi))
				v := vi.Lerp(vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fronts = append(*fronts, &polygon{verts: f, pl: p.pl, face: p.face, reversed: p.reversed})
		}
		if len(b) >= 3 {
			*backs = append(*backs, &polygon{verts: b, pl: p.pl, face: p.face, reversed: p.reversed})
		}
	}
}
