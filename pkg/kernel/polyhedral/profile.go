package polyhedral

import (
	"fmt"
	"math"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
)

// profile is a closed planar wire with a placement.
type profile struct {
	segs []*kernel.Segment
	xf   affine
	face int64
}

// loop discretizes the wire. segOf[i] is the segment that the polygon edge
// starting at pts[i] belongs to.
func (p *profile) loop(tol kernel.Tolerance) (pts []geom.Vec3, segOf []int) {
	for i, s := range p.segs {
		sp := s.Points(tol)
		for _, v := range sp[:len(sp)-1] {
			pts = append(pts, p.xf.apply(v))
			segOf = append(segOf, i)
		}
	}
	return pts, segOf
}

func (p *profile) plane() (kernel.Plane, error) {
	pts, _ := p.loop(kernel.DefaultTolerance())
	return kernel.PlaneOf(pts)
}

// triangulate splits the loop into triangles counter-clockwise around the
// plane normal.
func triangulate(pl kernel.Plane, pts []geom.Vec3) [][3]geom.Vec3 {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = pl.Project(p)
	}
	var out [][3]geom.Vec3
	for _, t := range earClip(xs, ys) {
		out = append(out, [3]geom.Vec3{pts[t[0]], pts[t[1]], pts[t[2]]})
	}
	return out
}

// Face implements kernel.Kernel. The edges must form one closed planar loop.
// The face's normal follows the loop's winding.
func (k *Kernel) Face(edges []kernel.Edge) (kernel.Shape, error) {
	segs, err := kernel.Wire(edges)
	if err != nil {
		return nil, err
	}
	prof := &profile{segs: segs, xf: identity(), face: k.newFace()}
	if _, err := prof.plane(); err != nil {
		return nil, err
	}
	return &shape{k: k, profs: []*profile{prof}, build: func(tol kernel.Tolerance) []*polygon {
		pl, err := prof.plane()
		if err != nil {
			return nil
		}
		pts, _ := prof.loop(tol)
		var polys []*polygon
		for _, t := range triangulate(pl, pts) {
			polys = append(polys, newPolygon(t[:], prof.face, false))
		}
		return polys
	}}, nil
}

// Extrude implements kernel.Kernel. Only planar faces built with Face, placed
// copies of them or compounds of such faces can be extruded, and v must not
// lie in any of the faces. A compound sweeps every face and keeps the prisms
// side by side.
func (k *Kernel) Extrude(s kernel.Shape, v geom.Vec3) (kernel.Shape, error) {
	sh, err := k.own(s)
	if err != nil {
		return nil, err
	}
	if len(sh.profs) == 0 {
		return nil, fmt.Errorf("extrude needs a face built from edges: %w", kernel.ErrUnsupported)
	}
	sweeps := make([]func(kernel.Tolerance) []*polygon, len(sh.profs))
	for i, prof := range sh.profs {
		if sweeps[i], err = k.sweep(prof, v); err != nil {
			return nil, err
		}
	}
	return &shape{k: k, build: func(tol kernel.Tolerance) []*polygon {
		var polys []*polygon
		for _, sw := range sweeps {
			polys = append(polys, sw(tol)...)
		}
		return polys
	}}, nil
}

// sweep returns the polygons of the prism traced by prof moving along v.
func (k *Kernel) sweep(prof *profile, v geom.Vec3) (func(kernel.Tolerance) []*polygon, error) {
	pl, err := prof.plane()
	if err != nil {
		return nil, err
	}
	d := pl.Normal.Dot(v)
	if v.IsZero() || math.Abs(d) <= 1e-12*v.Length() {
		return nil, fmt.Errorf("extrude by %s parallel to the face: %w", v, kernel.ErrDegenerate)
	}

	bottom, top := k.newFace(), k.newFace()
	sides := make([]int64, len(prof.segs))
	for i := range sides {
		sides[i] = k.newFace()
	}
	forward := d > 0

	return func(tol kernel.Tolerance) []*polygon {
		pts, segOf := prof.loop(tol)
		var polys []*polygon

		// Cap triangles are counter-clockwise around the face normal, so the
		// cap the sweep leaves behind is turned over.
		for _, t := range triangulate(pl, pts) {
			lo := []geom.Vec3{t[2], t[1], t[0]}
			hi := []geom.Vec3{t[0].Add(v), t[1].Add(v), t[2].Add(v)}
			if !forward {
				lo = []geom.Vec3{t[0], t[1], t[2]}
				hi = []geom.Vec3{hi[2], hi[1], hi[0]}
			}
			polys = append(polys,
				newPolygon(lo, bottom, planarFace(newell(lo))),
				newPolygon(hi, top, planarFace(newell(hi))))
		}

		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			quad := []geom.Vec3{a, b, b.Add(v), a.Add(v)}
			if !forward {
				quad = []geom.Vec3{b, a, a.Add(v), b.Add(v)}
			}
			seg := prof.segs[segOf[i]]
			rev := false
			if !seg.IsArc() {
				rev = planarFace(newell(quad))
			}
			polys = append(polys, newPolygon(quad, sides[segOf[i]], rev))
		}
		return polys
	}, nil
}
