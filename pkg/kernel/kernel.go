// Package kernel defines the abstract geometry kernel interface.
// Implementations (polyhedral, sdfx, manifold) provide solid construction,
// boolean operations and triangulation behind this interface. The kernel
// abstraction allows swapping backends without changing the rest of the
// system.
package kernel

import (
	"errors"

	"github.com/chazu/cgtree/pkg/geom"
)

// Sentinel errors reported by kernels. Backends wrap them with detail.
var (
	// ErrOpenWire means the edges given to Face do not form one closed loop.
	ErrOpenWire = errors.New("wire is not closed")
	// ErrNotPlanar means a wire or profile does not lie in one plane.
	ErrNotPlanar = errors.New("wire is not planar")
	// ErrDegenerate means the input collapses to nothing (collinear arc
	// points, zero extrusion, fillet radius too large...).
	ErrDegenerate = errors.New("degenerate geometry")
	// ErrUnsupported means the backend does not implement the operation.
	ErrUnsupported = errors.New("operation not supported by this kernel")
	// ErrForeignShape means a shape from another backend was passed in.
	ErrForeignShape = errors.New("shape belongs to a different kernel")
)

// Shape is an opaque handle to a kernel solid, face or compound.
// Implementations wrap their internal representation.
type Shape interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Vec3)
	// IsEmpty reports whether the shape holds no geometry at all.
	IsEmpty() bool
}

// Edge is one curve segment of a wire, produced by Line or Arc.
type Edge interface {
	Endpoints() (start, end geom.Vec3)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Empty returns a shape with no geometry.
	Empty() Shape

	// Primitives. Box and Wedge start at the origin corner, Sphere is
	// centred on the origin, Cylinder and Cone run along +Z from the origin.
	Box(size geom.Vec3) (Shape, error)
	Wedge(size geom.Vec3, ltx float64) (Shape, error)
	Sphere(radius float64) (Shape, error)
	Cylinder(radius, height float64) (Shape, error)
	Cone(r0, r1, height float64) (Shape, error)

	// Compound bundles shapes without any boolean interaction.
	Compound(shapes ...Shape) (Shape, error)

	// Transforms
	Translate(s Shape, v geom.Vec3) (Shape, error)
	Rotate(s Shape, axis geom.Vec3, radians float64) (Shape, error) // axis through the origin

	// Boolean operations
	Cut(a, b Shape) (Shape, error)
	Fuse(a, b Shape) (Shape, error)
	Common(a, b Shape) (Shape, error)

	// Fillet rounds every edge of s with the given radius.
	Fillet(s Shape, radius float64) (Shape, error)

	// Wires, faces and sweeps
	Line(from, to geom.Vec3) (Edge, error)
	Arc(from, via, to geom.Vec3) (Edge, error)
	Face(edges []Edge) (Shape, error)
	Extrude(s Shape, v geom.Vec3) (Shape, error)

	// Triangulate tessellates s within the given deflection tolerance and
	// returns one triangulation per face.
	Triangulate(s Shape, tol Tolerance) ([]FaceMesh, error)
}
