// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Surfaces are exact signed distance functions until Triangulate runs
// marching cubes over them, so this kernel supports fillets but never
// produces exact planar facets.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// Marching cubes resolution limits along the longest bounding box axis.
const (
	DefaultMinCells = 32
	DefaultMaxCells = 200
)

// sdfxShape wraps an sdf.SDF3 to implement kernel.Shape. A nil SDF is the
// empty shape. Planar faces have no volume yet, so they carry their outlines
// instead until they are extruded.
type sdfxShape struct {
	s     sdf.SDF3
	faces [][]geom.Vec3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxShape) BoundingBox() (min, max geom.Vec3) {
	switch {
	case s.s != nil:
		bb := s.s.BoundingBox()
		return fromVec(bb.Min), fromVec(bb.Max)
	case len(s.faces) > 0:
		min, max = s.faces[0][0], s.faces[0][0]
		for _, face := range s.faces {
			for _, p := range face {
				min = geom.V(math.Min(min.X, p.X), math.Min(min.Y, p.Y), math.Min(min.Z, p.Z))
				max = geom.V(math.Max(max.X, p.X), math.Max(max.Y, p.Y), math.Max(max.Z, p.Z))
			}
		}
	}
	return min, max
}

// IsEmpty implements kernel.Shape.
func (s *sdfxShape) IsEmpty() bool {
	return s.s == nil && len(s.faces) == 0
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	// MinCells and MaxCells clamp the marching cubes grid.
	MinCells, MaxCells int
	// Profile is the tolerance used to flatten arcs in face outlines.
	Profile kernel.Tolerance
}

// New returns a new SdfxKernel with default resolution limits.
func New() *SdfxKernel {
	return &SdfxKernel{
		MinCells: DefaultMinCells,
		MaxCells: DefaultMaxCells,
		Profile:  kernel.DefaultTolerance(),
	}
}

// Name implements kernel.Kernel.
func (k *SdfxKernel) Name() string { return "sdfx" }

func toVec(v geom.Vec3) v3.Vec   { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromVec(v v3.Vec) geom.Vec3 { return geom.V(v.X, v.Y, v.Z) }

// unwrap extracts the underlying shape from a kernel.Shape.
func unwrap(s kernel.Shape) (*sdfxShape, error) {
	sh, ok := s.(*sdfxShape)
	if !ok {
		return nil, fmt.Errorf("%T: %w", s, kernel.ErrForeignShape)
	}
	return sh, nil
}

// solid extracts a volume, rejecting bare faces.
func solid(s kernel.Shape) (*sdfxShape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	if sh.s == nil && len(sh.faces) > 0 {
		return nil, fmt.Errorf("sdfx needs a solid, got a face: %w", kernel.ErrUnsupported)
	}
	return sh, nil
}

// wrap creates a kernel.Shape from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Shape {
	return &sdfxShape{s: s}
}

// Empty implements kernel.Kernel.
func (k *SdfxKernel) Empty() kernel.Shape {
	return &sdfxShape{}
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin. sdf.Box3D centers the box at the origin, so
// we translate by half-dimensions.
func (k *SdfxKernel) Box(size geom.Vec3) (kernel.Shape, error) {
	s, err := sdf.Box3D(toVec(size), 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D %s: %w", size, err)
	}
	m := sdf.Translate3d(toVec(size.Scale(0.5)))
	return wrap(sdf.Transform3D(s, m)), nil
}

// Wedge extrudes the XY outline (0,0) (x,0) (ltx,y) (0,y) along +Z.
func (k *SdfxKernel) Wedge(size geom.Vec3, ltx float64) (kernel.Shape, error) {
	if !(size.X > 0 && size.Y > 0 && size.Z > 0) || ltx < 0 {
		return nil, fmt.Errorf("wedge %s ltx %g: %w", size, ltx, kernel.ErrDegenerate)
	}
	pts := []v2.Vec{{X: 0, Y: 0}, {X: size.X, Y: 0}, {X: ltx, Y: size.Y}}
	if ltx > 0 {
		pts = append(pts, v2.Vec{X: 0, Y: size.Y})
	}
	poly, err := sdf.Polygon2D(pts)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}
	s := sdf.Extrude3D(poly, size.Z)
	return wrap(sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: size.Z / 2}))), nil
}

// Sphere creates a sphere centred on the origin.
func (k *SdfxKernel) Sphere(radius float64) (kernel.Shape, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Sphere3D r=%g: %w", radius, err)
	}
	return wrap(s), nil
}

// Cylinder creates a cylinder standing on the XY plane. sdf.Cylinder3D is
// centred on the origin, so it is lifted by half its height.
func (k *SdfxKernel) Cylinder(radius, height float64) (kernel.Shape, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cylinder3D r=%g h=%g: %w", radius, height, err)
	}
	return wrap(sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2}))), nil
}

// Cone creates a truncated cone with radius r0 at z=0 and r1 at z=height.
func (k *SdfxKernel) Cone(r0, r1, height float64) (kernel.Shape, error) {
	s, err := sdf.Cone3D(height, r0, r1, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cone3D r0=%g r1=%g h=%g: %w", r0, r1, height, err)
	}
	return wrap(sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2}))), nil
}

// Compound implements kernel.Kernel. Distance fields cannot keep
// overlapping parts apart, so a compound of solids is their union. A
// compound of faces keeps every outline for Extrude; faces and solids
// cannot be mixed.
func (k *SdfxKernel) Compound(shapes ...kernel.Shape) (kernel.Shape, error) {
	var faces [][]geom.Vec3
	for _, s := range shapes {
		sh, err := unwrap(s)
		if err != nil {
			return nil, err
		}
		faces = append(faces, sh.faces...)
	}
	if len(faces) == 0 {
		return k.union(shapes)
	}
	for _, s := range shapes {
		if sh := s.(*sdfxShape); sh.s != nil {
			return nil, fmt.Errorf("sdfx cannot mix faces and solids in a compound: %w", kernel.ErrUnsupported)
		}
	}
	return &sdfxShape{faces: faces}, nil
}

func (k *SdfxKernel) union(shapes []kernel.Shape) (kernel.Shape, error) {
	var parts []sdf.SDF3
	for _, s := range shapes {
		sh, err := solid(s)
		if err != nil {
			return nil, err
		}
		if sh.s != nil {
			parts = append(parts, sh.s)
		}
	}
	if len(parts) == 0 {
		return k.Empty(), nil
	}
	return wrap(sdf.Union3D(parts...)), nil
}

func (k *SdfxKernel) transform(s kernel.Shape, m sdf.M44) (kernel.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	if sh.s != nil {
		return wrap(sdf.Transform3D(sh.s, m)), nil
	}
	faces := make([][]geom.Vec3, len(sh.faces))
	for i, face := range sh.faces {
		faces[i] = make([]geom.Vec3, len(face))
		for j, p := range face {
			faces[i][j] = fromVec(m.MulPosition(toVec(p)))
		}
	}
	return &sdfxShape{faces: faces}, nil
}

// Translate moves a shape by v.
func (k *SdfxKernel) Translate(s kernel.Shape, v geom.Vec3) (kernel.Shape, error) {
	return k.transform(s, sdf.Translate3d(toVec(v)))
}

// Rotate rotates a shape about an axis through the origin.
func (k *SdfxKernel) Rotate(s kernel.Shape, axis geom.Vec3, radians float64) (kernel.Shape, error) {
	if axis.IsZero() {
		return nil, fmt.Errorf("rotate about zero axis: %w", kernel.ErrDegenerate)
	}
	return k.transform(s, sdf.Rotate3d(toVec(axis.Normalize()), radians))
}

// Cut returns the difference a - b.
func (k *SdfxKernel) Cut(a, b kernel.Shape) (kernel.Shape, error) {
	sa, sb, err := solids(a, b)
	if err != nil {
		return nil, err
	}
	switch {
	case sa.s == nil:
		return k.Empty(), nil
	case sb.s == nil:
		return sa, nil
	}
	return wrap(sdf.Difference3D(sa.s, sb.s)), nil
}

// Fuse returns the union of two shapes.
func (k *SdfxKernel) Fuse(a, b kernel.Shape) (kernel.Shape, error) {
	sa, sb, err := solids(a, b)
	if err != nil {
		return nil, err
	}
	switch {
	case sa.s == nil:
		return sb, nil
	case sb.s == nil:
		return sa, nil
	}
	return wrap(sdf.Union3D(sa.s, sb.s)), nil
}

// Common returns the intersection of two shapes.
func (k *SdfxKernel) Common(a, b kernel.Shape) (kernel.Shape, error) {
	sa, sb, err := solids(a, b)
	if err != nil {
		return nil, err
	}
	if sa.s == nil || sb.s == nil {
		return k.Empty(), nil
	}
	return wrap(sdf.Intersect3D(sa.s, sb.s)), nil
}

func solids(a, b kernel.Shape) (*sdfxShape, *sdfxShape, error) {
	sa, err := solid(a)
	if err != nil {
		return nil, nil, err
	}
	sb, err := solid(b)
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

// Fillet rounds convex edges by shrinking and regrowing the field, then
// concave edges by growing and shrinking it.
func (k *SdfxKernel) Fillet(s kernel.Shape, radius float64) (kernel.Shape, error) {
	sh, err := solid(s)
	if err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("fillet radius %g: %w", radius, kernel.ErrDegenerate)
	}
	if sh.s == nil || radius == 0 {
		return sh, nil
	}
	opened := sdf.Offset3D(sdf.Offset3D(sh.s, -radius), radius)
	return wrap(sdf.Offset3D(sdf.Offset3D(opened, radius), -radius)), nil
}

// Line implements kernel.Kernel.
func (k *SdfxKernel) Line(from, to geom.Vec3) (kernel.Edge, error) {
	return kernel.NewLine(from, to)
}

// Arc implements kernel.Kernel.
func (k *SdfxKernel) Arc(from, via, to geom.Vec3) (kernel.Edge, error) {
	return kernel.NewArc(from, via, to)
}

// Face flattens the wire with the kernel's profile tolerance.
func (k *SdfxKernel) Face(edges []kernel.Edge) (kernel.Shape, error) {
	segs, err := kernel.Wire(edges)
	if err != nil {
		return nil, err
	}
	pts := kernel.Loop(segs, k.Profile)
	if _, err := kernel.PlaneOf(pts); err != nil {
		return nil, err
	}
	return &sdfxShape{faces: [][]geom.Vec3{pts}}, nil
}

// Extrude sweeps a face, or every face of a compound, along v. The prisms
// of a compound are unioned. sdf.Extrude3D only sweeps along the profile
// normal, so oblique sweeps are not supported.
func (k *SdfxKernel) Extrude(s kernel.Shape, v geom.Vec3) (kernel.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	if len(sh.faces) == 0 {
		return nil, fmt.Errorf("extrude needs a face built from edges: %w", kernel.ErrUnsupported)
	}
	prisms := make([]sdf.SDF3, len(sh.faces))
	for i, face := range sh.faces {
		if prisms[i], err = extrude(face, v); err != nil {
			return nil, err
		}
	}
	if len(prisms) == 1 {
		return wrap(prisms[0]), nil
	}
	return wrap(sdf.Union3D(prisms...)), nil
}

func extrude(face []geom.Vec3, v geom.Vec3) (sdf.SDF3, error) {
	pl, err := kernel.PlaneOf(face)
	if err != nil {
		return nil, err
	}
	d := pl.Normal.Dot(v)
	if v.IsZero() || math.Abs(d) <= 1e-12*v.Length() {
		return nil, fmt.Errorf("extrude by %s parallel to the face: %w", v, kernel.ErrDegenerate)
	}
	if v.Sub(pl.Normal.Scale(d)).Length() > 1e-9*v.Length() {
		return nil, fmt.Errorf("oblique extrude by %s: %w", v, kernel.ErrUnsupported)
	}

	// Rotate +Z onto the face normal and express the outline in the
	// rotated X/Y axes so the 2D profile lands back on the face.
	rot := sdf.Identity3d()
	switch z := (geom.Vec3{Z: 1}); {
	case pl.Normal.Sub(z).Length() < 1e-12:
	case pl.Normal.Add(z).Length() < 1e-12:
		rot = sdf.Rotate3d(v3.Vec{X: 1}, math.Pi)
	default:
		axis := z.Cross(pl.Normal)
		rot = sdf.Rotate3d(toVec(axis.Normalize()), math.Acos(pl.Normal.Z))
	}
	ex := fromVec(rot.MulPosition(v3.Vec{X: 1}))
	ey := fromVec(rot.MulPosition(v3.Vec{Y: 1}))
	outline := make([]v2.Vec, len(face))
	for i, p := range face {
		rel := p.Sub(pl.Origin)
		outline[i] = v2.Vec{X: rel.Dot(ex), Y: rel.Dot(ey)}
	}
	poly, err := sdf.Polygon2D(outline)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}

	prism := sdf.Extrude3D(poly, math.Abs(d))
	m := sdf.Translate3d(toVec(pl.Origin)).
		Mul(rot).
		Mul(sdf.Translate3d(v3.Vec{Z: d / 2}))
	return sdf.Transform3D(prism, m), nil
}

// cells picks the marching cubes resolution for the tolerance.
func (k *SdfxKernel) cells(s sdf.SDF3, tol kernel.Tolerance) int {
	bb := s.BoundingBox()
	size := bb.Size()
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	step := tol.Linear
	if tol.Relative {
		step *= extent
	}
	n := int(math.Ceil(extent / step))
	if n < k.MinCells {
		n = k.MinCells
	}
	if k.MaxCells > 0 && n > k.MaxCells {
		n = k.MaxCells
	}
	return n
}

// Triangulate converts a solid to a single face mesh using marching cubes.
func (k *SdfxKernel) Triangulate(s kernel.Shape, tol kernel.Tolerance) ([]kernel.FaceMesh, error) {
	sh, err := solid(s)
	if err != nil {
		return nil, err
	}
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	if sh.s == nil {
		return nil, nil
	}

	renderer := render.NewMarchingCubesUniform(k.cells(sh.s, tol))
	triangles := render.ToTriangles(sh.s, renderer)

	fm := kernel.FaceMesh{
		Nodes:     make([]geom.Vec3, 0, len(triangles)),
		Triangles: make([][3]int, 0, len(triangles)),
	}
	index := make(map[geom.Vec3]int, len(triangles))
	for _, tri := range triangles {
		var t [3]int
		for j := 0; j < 3; j++ {
			v := fromVec(tri[j])
			i, ok := index[v]
			if !ok {
				i = len(fm.Nodes)
				fm.Nodes = append(fm.Nodes, v)
				index[v] = i
			}
			t[j] = i
		}
		fm.Triangles = append(fm.Triangles, t)
	}
	return []kernel.FaceMesh{fm}, nil
}
