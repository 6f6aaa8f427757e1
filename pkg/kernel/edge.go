package kernel

import (
	"fmt"
	"math"

	"github.com/chazu/cgtree/pkg/geom"
)

// WireTolerance is the largest gap between consecutive edge endpoints that
// still counts as connected.
const WireTolerance = 1e-7

// Segment is a straight line or circular arc edge. It is the Edge
// representation shared by the in-tree kernels.
type Segment struct {
	Start, End geom.Vec3
	arc        *circle
}

// circle is an arc of a circle in 3D: Start sits at angle 0 in the (u, w)
// frame and the arc runs counter-clockwise around normal for sweep radians.
type circle struct {
	center geom.Vec3
	radius float64
	normal geom.Vec3
	u, w   geom.Vec3
	sweep  float64
}

// NewLine returns a straight segment. Zero-length segments are rejected.
func NewLine(from, to geom.Vec3) (*Segment, error) {
	if to.Sub(from).Length() <= WireTolerance {
		return nil, fmt.Errorf("line from %s to %s: %w", from, to, ErrDegenerate)
	}
	return &Segment{Start: from, End: to}, nil
}

// NewArc returns the circular arc that starts at from, passes through via
// and ends at to. Collinear or coincident points are degenerate.
func NewArc(from, via, to geom.Vec3) (*Segment, error) {
	c, err := circleThrough(from, via, to)
	if err != nil {
		return nil, fmt.Errorf("arc %s -> %s -> %s: %w", from, via, to, err)
	}
	return &Segment{Start: from, End: to, arc: c}, nil
}

// Endpoints implements Edge.
func (s *Segment) Endpoints() (start, end geom.Vec3) {
	return s.Start, s.End
}

// IsArc reports whether the segment is curved.
func (s *Segment) IsArc() bool {
	return s.arc != nil
}

// Center returns the arc centre and radius. Lines return the midpoint and 0.
func (s *Segment) Center() (geom.Vec3, float64) {
	if s.arc == nil {
		return s.Start.Lerp(s.End, 0.5), 0
	}
	return s.arc.center, s.arc.radius
}

// Sweep returns the arc angle in radians, 0 for lines.
func (s *Segment) Sweep() float64 {
	if s.arc == nil {
		return 0
	}
	return s.arc.sweep
}

// Points discretizes the segment within tol. The result always begins with
// Start and ends with End exactly, so adjacent segments share endpoints.
func (s *Segment) Points(tol Tolerance) []geom.Vec3 {
	if s.arc == nil {
		return []geom.Vec3{s.Start, s.End}
	}
	c := s.arc
	n := tol.Segments(c.radius, c.sweep)
	pts := make([]geom.Vec3, 0, n+1)
	pts = append(pts, s.Start)
	for i := 1; i < n; i++ {
		pts = append(pts, c.at(c.sweep*float64(i)/float64(n)))
	}
	return append(pts, s.End)
}

func (c *circle) at(theta float64) geom.Vec3 {
	return c.center.
		Add(c.u.Scale(c.radius * math.Cos(theta))).
		Add(c.w.Scale(c.radius * math.Sin(theta)))
}

// circleThrough computes the circumcircle of a, b, c oriented so that the
// points are visited in order.
func circleThrough(a, b, c geom.Vec3) (*circle, error) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	n := ab.Cross(ac)
	nn := n.Dot(n)
	scale := math.Max(ab.Dot(ab), ac.Dot(ac))
	if scale == 0 || nn <= 1e-18*scale*scale {
		return nil, ErrDegenerate
	}
	off := n.Cross(ab).Scale(ac.Dot(ac)).
		Add(ac.Cross(n).Scale(ab.Dot(ab))).
		Scale(1 / (2 * nn))
	center := a.Add(off)
	radius := off.Length()
	normal := n.Normalize()
	u := a.Sub(center).Scale(1 / radius)
	w := normal.Cross(u)

	rel := c.Sub(center)
	sweep := math.Atan2(rel.Dot(w), rel.Dot(u))
	if sweep <= 0 {
		sweep += 2 * math.Pi
	}
	return &circle{center: center, radius: radius, normal: normal, u: u, w: w, sweep: sweep}, nil
}

// Wire checks that edges form a single closed loop in the given order and
// returns them as segments. Foreign Edge implementations are rejected.
func Wire(edges []Edge) ([]*Segment, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("empty wire: %w", ErrOpenWire)
	}
	segs := make([]*Segment, len(edges))
	for i, e := range edges {
		s, ok := e.(*Segment)
		if !ok {
			return nil, fmt.Errorf("edge %d is %T: %w", i, e, ErrForeignShape)
		}
		segs[i] = s
	}
	for i, s := range segs {
		next := segs[(i+1)%len(segs)]
		if s.End.Sub(next.Start).Length() > WireTolerance {
			return nil, fmt.Errorf("edge %d ends at %s but edge %d starts at %s: %w",
				i, s.End, (i+1)%len(segs), next.Start, ErrOpenWire)
		}
	}
	return segs, nil
}

// Plane is an oriented plane through Origin with unit Normal, plus an
// in-plane basis (U, W) with U × W = Normal.
type Plane struct {
	Origin, Normal geom.Vec3
	U, W           geom.Vec3
}

// PlaneOf fits a plane to a closed polygon using Newell's method and checks
// that every point lies on it. The normal follows the polygon's winding.
func PlaneOf(pts []geom.Vec3) (Plane, error) {
	var n, centroid geom.Vec3
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
		centroid = centroid.Add(p)
	}
	if len(pts) < 3 || n.Length() <= 1e-12 {
		return Plane{}, fmt.Errorf("profile encloses no area: %w", ErrDegenerate)
	}
	centroid = centroid.Scale(1 / float64(len(pts)))
	normal := n.Normalize()

	var extent float64
	for _, p := range pts {
		extent = math.Max(extent, p.Sub(centroid).Length())
	}
	for _, p := range pts {
		if d := math.Abs(p.Sub(centroid).Dot(normal)); d > 1e-6*math.Max(1, extent) {
			return Plane{}, fmt.Errorf("point %s is %g off the profile plane: %w", p, d, ErrNotPlanar)
		}
	}

	// Pick the in-plane axis from the first edge so the basis is stable.
	u := pts[1].Sub(pts[0])
	u = u.Sub(normal.Scale(u.Dot(normal))).Normalize()
	return Plane{Origin: pts[0], Normal: normal, U: u, W: normal.Cross(u)}, nil
}

// Project maps p to 2D plane coordinates.
func (pl Plane) Project(p geom.Vec3) (x, y float64) {
	d := p.Sub(pl.Origin)
	return d.Dot(pl.U), d.Dot(pl.W)
}

// Lift maps plane coordinates back to model space.
func (pl Plane) Lift(x, y float64) geom.Vec3 {
	return pl.Origin.Add(pl.U.Scale(x)).Add(pl.W.Scale(y))
}

// Loop discretizes a closed wire into a polygon without the repeated
// closing point.
func Loop(segs []*Segment, tol Tolerance) []geom.Vec3 {
	var pts []geom.Vec3
	for _, s := range segs {
		p := s.Points(tol)
		pts = append(pts, p[:len(p)-1]...)
	}
	return pts
}
