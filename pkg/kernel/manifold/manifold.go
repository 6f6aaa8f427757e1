//go:build manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold provides
// guaranteed-manifold mesh boolean operations.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
//
// Manifold meshes eagerly, so curved primitives are faceted with the
// tolerance given to New rather than the one given to Triangulate. Wires,
// faces, wedges and fillets are not available.
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Shape = (*manifoldSolid)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer and implements kernel.Shape.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max geom.Vec3) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min = geom.V(float64(C.manifold_box_min_x(bbox)), float64(C.manifold_box_min_y(bbox)), float64(C.manifold_box_min_z(bbox)))
	max = geom.V(float64(C.manifold_box_max_x(bbox)), float64(C.manifold_box_max_y(bbox)), float64(C.manifold_box_max_z(bbox)))
	return min, max
}

// IsEmpty implements kernel.Shape.
func (s *manifoldSolid) IsEmpty() bool {
	return C.manifold_is_empty(s.ptr) != 0
}

// newSolid wraps a C ManifoldManifold pointer with Go-side finalizer
// for automatic memory management.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Shape) (*manifoldSolid, error) {
	ms, ok := s.(*manifoldSolid)
	if !ok {
		return nil, fmt.Errorf("%T: %w", s, kernel.ErrForeignShape)
	}
	return ms, nil
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct {
	tol kernel.Tolerance
}

// New creates a new ManifoldKernel that facets curved primitives with tol.
func New(tol kernel.Tolerance) (kernel.Kernel, error) {
	if err := tol.Validate(); err != nil {
		return nil, err
	}
	return &ManifoldKernel{tol: tol}, nil
}

// Name implements kernel.Kernel.
func (k *ManifoldKernel) Name() string { return "manifold" }

func (k *ManifoldKernel) segments(radius float64) C.int {
	return C.int(k.tol.Segments(radius, 2*math.Pi))
}

// Empty implements kernel.Kernel.
func (k *ManifoldKernel) Empty() kernel.Shape {
	return newSolid(C.manifold_empty(C.manifold_alloc_manifold()))
}

// Box creates an axis-aligned box from the origin to size.
func (k *ManifoldKernel) Box(size geom.Vec3) (kernel.Shape, error) {
	if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
		return nil, fmt.Errorf("box %s: %w", size, kernel.ErrDegenerate)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc,
		C.double(size.X), C.double(size.Y), C.double(size.Z),
		C.int(0), // center=false
	)
	return newSolid(ptr), nil
}

// Sphere creates a sphere centred on the origin.
func (k *ManifoldKernel) Sphere(radius float64) (kernel.Shape, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("sphere radius %g: %w", radius, kernel.ErrDegenerate)
	}
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_sphere(alloc, C.double(radius), k.segments(radius))), nil
}

// Cylinder creates a cylinder along +Z from the origin.
func (k *ManifoldKernel) Cylinder(radius, height float64) (kernel.Shape, error) {
	if !(radius > 0 && height > 0) {
		return nil, fmt.Errorf("cylinder r=%g h=%g: %w", radius, height, kernel.ErrDegenerate)
	}
	return k.Cone(radius, radius, height)
}

// Cone creates a truncated cone along +Z from the origin.
func (k *ManifoldKernel) Cone(r0, r1, height float64) (kernel.Shape, error) {
	if r0 < 0 || r1 < 0 || (r0 == 0 && r1 == 0) || !(height > 0) {
		return nil, fmt.Errorf("cone r0=%g r1=%g h=%g: %w", r0, r1, height, kernel.ErrDegenerate)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cylinder(alloc,
		C.double(height),
		C.double(r0), // radius_low
		C.double(r1), // radius_high
		k.segments(math.Max(r0, r1)),
		C.int(0), // center=false
	)
	return newSolid(ptr), nil
}

// Wedge is not available in the Manifold binding.
func (k *ManifoldKernel) Wedge(size geom.Vec3, ltx float64) (kernel.Shape, error) {
	return nil, fmt.Errorf("wedge on %s kernel: %w", k.Name(), kernel.ErrUnsupported)
}

// Compound unions the shapes; Manifold keeps only manifold solids.
func (k *ManifoldKernel) Compound(shapes ...kernel.Shape) (kernel.Shape, error) {
	acc := k.Empty()
	for _, s := range shapes {
		var err error
		if acc, err = k.Fuse(acc, s); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (k *ManifoldKernel) boolean(a, b kernel.Shape, op func(*C.ManifoldManifold, *C.ManifoldManifold) *C.ManifoldManifold) (kernel.Shape, error) {
	sa, err := unwrap(a)
	if err != nil {
		return nil, err
	}
	sb, err := unwrap(b)
	if err != nil {
		return nil, err
	}
	return newSolid(op(sa.ptr, sb.ptr)), nil
}

// Fuse returns the boolean union of two solids.
func (k *ManifoldKernel) Fuse(a, b kernel.Shape) (kernel.Shape, error) {
	return k.boolean(a, b, func(x, y *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_union(C.manifold_alloc_manifold(), x, y)
	})
}

// Cut returns the boolean difference (a minus b).
func (k *ManifoldKernel) Cut(a, b kernel.Shape) (kernel.Shape, error) {
	return k.boolean(a, b, func(x, y *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_difference(C.manifold_alloc_manifold(), x, y)
	})
}

// Common returns the boolean intersection of two solids.
func (k *ManifoldKernel) Common(a, b kernel.Shape) (kernel.Shape, error) {
	return k.boolean(a, b, func(x, y *C.ManifoldManifold) *C.ManifoldManifold {
		return C.manifold_intersection(C.manifold_alloc_manifold(), x, y)
	})
}

// Translate moves the solid by v.
func (k *ManifoldKernel) Translate(s kernel.Shape, v geom.Vec3) (kernel.Shape, error) {
	ms, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_translate(alloc, ms.ptr, C.double(v.X), C.double(v.Y), C.double(v.Z))
	return newSolid(ptr), nil
}

// Rotate rotates the solid about an axis through the origin. Manifold only
// takes Euler angles, so the axis-angle rotation goes in as a 4x3 matrix.
func (k *ManifoldKernel) Rotate(s kernel.Shape, axis geom.Vec3, radians float64) (kernel.Shape, error) {
	ms, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	if axis.IsZero() {
		return nil, fmt.Errorf("rotate about zero axis: %w", kernel.ErrDegenerate)
	}
	u := axis.Normalize()
	c, sn := math.Cos(radians), math.Sin(radians)
	rot := func(v geom.Vec3) geom.Vec3 {
		return v.Scale(c).Add(u.Cross(v).Scale(sn)).Add(u.Scale(u.Dot(v) * (1 - c)))
	}
	x, y, z := rot(geom.V(1, 0, 0)), rot(geom.V(0, 1, 0)), rot(geom.V(0, 0, 1))
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_transform(alloc, ms.ptr,
		C.double(x.X), C.double(x.Y), C.double(x.Z),
		C.double(y.X), C.double(y.Y), C.double(y.Z),
		C.double(z.X), C.double(z.Y), C.double(z.Z),
		0, 0, 0,
	)
	return newSolid(ptr), nil
}

// Fillet is not available in the Manifold binding.
func (k *ManifoldKernel) Fillet(s kernel.Shape, radius float64) (kernel.Shape, error) {
	return nil, fmt.Errorf("fillet on %s kernel: %w", k.Name(), kernel.ErrUnsupported)
}

// Line implements kernel.Kernel.
func (k *ManifoldKernel) Line(from, to geom.Vec3) (kernel.Edge, error) {
	return kernel.NewLine(from, to)
}

// Arc implements kernel.Kernel.
func (k *ManifoldKernel) Arc(from, via, to geom.Vec3) (kernel.Edge, error) {
	return kernel.NewArc(from, via, to)
}

// Face is not available in the Manifold binding.
func (k *ManifoldKernel) Face(edges []kernel.Edge) (kernel.Shape, error) {
	return nil, fmt.Errorf("face on %s kernel: %w", k.Name(), kernel.ErrUnsupported)
}

// Extrude is not available in the Manifold binding.
func (k *ManifoldKernel) Extrude(s kernel.Shape, v geom.Vec3) (kernel.Shape, error) {
	return nil, fmt.Errorf("extrude on %s kernel: %w", k.Name(), kernel.ErrUnsupported)
}

// Triangulate extracts the solid's MeshGL as a single face. The tolerance
// only applies at construction time for this kernel.
func (k *ManifoldKernel) Triangulate(s kernel.Shape, tol kernel.Tolerance) ([]kernel.FaceMesh, error) {
	ms, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, ms.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return nil, nil
	}

	// MeshGL stores vertex properties in a flat float array; the first 3 of
	// every numProp values are the position.
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	fm := kernel.FaceMesh{
		Nodes:     make([]geom.Vec3, numVert),
		Triangles: make([][3]int, numTri),
	}
	for i := range fm.Nodes {
		base := i * numProp
		fm.Nodes[i] = geom.V(float64(propData[base]), float64(propData[base+1]), float64(propData[base+2]))
	}
	for t := range fm.Triangles {
		fm.Triangles[t] = [3]int{int(indices[t*3]), int(indices[t*3+1]), int(indices[t*3+2])}
	}
	return []kernel.FaceMesh{fm}, nil
}
