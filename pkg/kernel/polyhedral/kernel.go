// Package polyhedral implements kernel.Kernel with planar polygons and BSP
// booleans. Every shape is a recipe that is evaluated against the tolerance
// passed to Triangulate, so curved surfaces are faceted only as finely as the
// caller asks for.
package polyhedral

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel is the polyhedral geometry kernel. It is safe for concurrent use.
type Kernel struct {
	faces atomic.Int64
}

// New returns a polyhedral kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name implements kernel.Kernel.
func (k *Kernel) Name() string { return "polyhedral" }

func (k *Kernel) newFace() int64 {
	return k.faces.Add(1)
}

// shape is a lazily evaluated polygon soup. Planar faces built from edges,
// and compounds made only of such faces, also keep their profiles so they
// can be extruded.
type shape struct {
	k     *Kernel
	build func(tol kernel.Tolerance) []*polygon
	profs []*profile
}

// BoundingBox implements kernel.Shape. Curved surfaces are measured on their
// default-tolerance facets.
func (s *shape) BoundingBox() (min, max geom.Vec3) {
	polys := s.build(kernel.DefaultTolerance())
	first := true
	for _, p := range polys {
		for _, v := range p.verts {
			if first {
				min, max = v, v
				first = false
				continue
			}
			min = geom.V(math.Min(min.X, v.X), math.Min(min.Y, v.Y), math.Min(min.Z, v.Z))
			max = geom.V(math.Max(max.X, v.X), math.Max(max.Y, v.Y), math.Max(max.Z, v.Z))
		}
	}
	return min, max
}

// IsEmpty implements kernel.Shape.
func (s *shape) IsEmpty() bool {
	return len(s.build(kernel.DefaultTolerance())) == 0
}

func (k *Kernel) own(s kernel.Shape) (*shape, error) {
	sh, ok := s.(*shape)
	if !ok || sh.k != k {
		return nil, fmt.Errorf("%T: %w", s, kernel.ErrForeignShape)
	}
	return sh, nil
}

// Empty implements kernel.Kernel.
func (k *Kernel) Empty() kernel.Shape {
	return &shape{k: k, build: func(kernel.Tolerance) []*polygon { return nil }}
}

// Compound implements kernel.Kernel.
func (k *Kernel) Compound(shapes ...kernel.Shape) (kernel.Shape, error) {
	parts := make([]*shape, len(shapes))
	var profs []*profile
	flat := true
	for i, s := range shapes {
		sh, err := k.own(s)
		if err != nil {
			return nil, err
		}
		parts[i] = sh
		if len(sh.profs) == 0 {
			flat = false
		}
		profs = append(profs, sh.profs...)
	}
	out := &shape{k: k, build: func(tol kernel.Tolerance) []*polygon {
		var polys []*polygon
		for _, p := range parts {
			polys = append(polys, p.build(tol)...)
		}
		return polys
	}}
	if flat {
		out.profs = profs
	}
	return out, nil
}

func (k *Kernel) place(s kernel.Shape, xf affine) (kernel.Shape, error) {
	sh, err := k.own(s)
	if err != nil {
		return nil, err
	}
	out := &shape{k: k, build: func(tol kernel.Tolerance) []*polygon {
		polys := sh.build(tol)
		moved := make([]*polygon, len(polys))
		for i, p := range polys {
			moved[i] = p.mapVerts(xf.apply, xf.dir)
		}
		return moved
	}}
	for _, p := range sh.profs {
		moved := *p
		moved.xf = moved.xf.then(xf)
		out.profs = append(out.profs, &moved)
	}
	return out, nil
}

// Translate implements kernel.Kernel.
func (k *Kernel) Translate(s kernel.Shape, v geom.Vec3) (kernel.Shape, error) {
	return k.place(s, translation(v))
}

// Rotate implements kernel.Kernel.
func (k *Kernel) Rotate(s kernel.Shape, axis geom.Vec3, radians float64) (kernel.Shape, error) {
	if axis.IsZero() {
		return nil, fmt.Errorf("rotate about zero axis: %w", kernel.ErrDegenerate)
	}
	return k.place(s, rotation(axis.Normalize(), radians))
}

func (k *Kernel) boolean(a, b kernel.Shape, op func(pa, pb []*polygon) []*polygon) (kernel.Shape, error) {
	sa, err := k.own(a)
	if err != nil {
		return nil, err
	}
	sb, err := k.own(b)
	if err != nil {
		return nil, err
	}
	return &shape{k: k, build: func(tol kernel.Tolerance) []*polygon {
		return op(sa.build(tol), sb.build(tol))
	}}, nil
}

// Cut implements kernel.Kernel.
func (k *Kernel) Cut(a, b kernel.Shape) (kernel.Shape, error) {
	return k.boolean(a, b, subtract)
}

// Fuse implements kernel.Kernel.
func (k *Kernel) Fuse(a, b kernel.Shape) (kernel.Shape, error) {
	return k.boolean(a, b, union)
}

// Common implements kernel.Kernel.
func (k *Kernel) Common(a, b kernel.Shape) (kernel.Shape, error) {
	return k.boolean(a, b, intersect)
}

// Fillet implements kernel.Kernel. Rounding arbitrary polyhedral edges is not
// supported; the sdfx kernel can fillet.
func (k *Kernel) Fillet(s kernel.Shape, radius float64) (kernel.Shape, error) {
	return nil, fmt.Errorf("fillet radius %g on %s kernel (build with --kernel sdfx to round edges): %w",
		radius, k.Name(), kernel.ErrUnsupported)
}

// Line implements kernel.Kernel.
func (k *Kernel) Line(from, to geom.Vec3) (kernel.Edge, error) {
	return kernel.NewLine(from, to)
}

// Arc implements kernel.Kernel.
func (k *Kernel) Arc(from, via, to geom.Vec3) (kernel.Edge, error) {
	return kernel.NewArc(from, via, to)
}

// Triangulate implements kernel.Kernel. Polygons are grouped back into the
// faces they came from; each group becomes one FaceMesh with its own node
// list, in the order the faces first appear.
func (k *Kernel) Triangulate(s kernel.Shape, tol kernel.Tolerance) ([]kernel.FaceMesh, error) {
	sh, err := k.own(s)
	if err != nil {
		return nil, err
	}
	if err := tol.Validate(); err != nil {
		return nil, err
	}

	type faceKey struct {
		face     int64
		reversed bool
	}
	var faces []kernel.FaceMesh
	slots := make(map[faceKey]int)
	nodes := make([]map[geom.Vec3]int, 0)

	for _, p := range sh.build(tol) {
		key := faceKey{p.face, p.reversed}
		slot, ok := slots[key]
		if !ok {
			slot = len(faces)
			slots[key] = slot
			faces = append(faces, kernel.FaceMesh{Reversed: p.reversed})
			nodes = append(nodes, make(map[geom.Vec3]int))
		}
		fm := &faces[slot]
		index := func(v geom.Vec3) int {
			if i, ok := nodes[slot][v]; ok {
				return i
			}
			i := len(fm.Nodes)
			fm.Nodes = append(fm.Nodes, v)
			nodes[slot][v] = i
			return i
		}
		first := index(p.verts[0])
		prev := index(p.verts[1])
		for _, v := range p.verts[2:] {
			cur := index(v)
			if first != prev && prev != cur && cur != first {
				fm.Triangles = append(fm.Triangles, [3]int{first, prev, cur})
			}
			prev = cur
		}
	}
	return faces, nil
}
