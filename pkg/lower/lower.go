// Package lower walks a scene tree and builds the solid it describes by
// calling into a geometry kernel. Every node kind maps to one kernel
// operation; the package does no geometry of its own.
package lower

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
	"github.com/chazu/cgtree/pkg/scene"
)

// Structural errors found while lowering. Kernel failures are passed
// through unchanged inside a BuildError.
var (
	ErrPathOutsideFace = errors.New("path segment outside a face")
	ErrNotPathSegment  = errors.New("face children must be path segments")
	ErrNoCursor        = errors.New("path segment before the first move-to")
)

// BuildError reports the node whose lowering failed. Object is the name of
// the Object being built and Path the node's position below it, like
// "Thingy/cut[0]/cylinder[2]".
type BuildError struct {
	Object string
	Path   string
	Kind   scene.Kind
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %q: %s at %s: %v", e.Object, e.Kind, e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Lower builds the shape for the tree rooted at root. It is a pure function
// of the tree: the same tree and kernel give the same shape. Any failure
// aborts the whole build; there are no partial results.
func Lower(k kernel.Kernel, root *scene.Node) (kernel.Shape, error) {
	if root == nil {
		return k.Empty(), nil
	}
	l := &lowerer{k: k, object: scene.RootPath(root)}
	return l.node(root, l.object)
}

type lowerer struct {
	k      kernel.Kernel
	object string
}

func (l *lowerer) fail(n *scene.Node, path string, err error) error {
	return &BuildError{Object: l.object, Path: path, Kind: n.Kind(), Err: err}
}

// node dispatches on the payload type.
func (l *lowerer) node(n *scene.Node, path string) (kernel.Shape, error) {
	var (
		s   kernel.Shape
		err error
	)
	switch d := n.Data.(type) {
	case scene.ObjectData, scene.GroupData:
		return l.group(n, path)

	case scene.TranslateData:
		g, gerr := l.group(n, path)
		if gerr != nil {
			return nil, gerr
		}
		s, err = l.k.Translate(g, d.Offset)

	case scene.RotateData:
		g, gerr := l.group(n, path)
		if gerr != nil {
			return nil, gerr
		}
		s, err = l.k.Rotate(g, d.Axis, d.Degrees*math.Pi/180)

	case scene.CutData:
		return l.fold(n, path, l.k.Cut)
	case scene.FuseData:
		return l.fold(n, path, l.k.Fuse)
	case scene.CommonData:
		return l.fold(n, path, l.k.Common)

	case scene.FilletData:
		fused, ferr := l.fold(n, path, l.k.Fuse)
		if ferr != nil {
			return nil, ferr
		}
		if d.Radius == 0 {
			return fused, nil
		}
		s, err = l.k.Fillet(fused, d.Radius)

	case scene.PrismData:
		g, gerr := l.group(n, path)
		if gerr != nil {
			return nil, gerr
		}
		s, err = l.k.Extrude(g, d.Sweep)

	case scene.FaceData:
		return l.face(n, path)

	case scene.BoxData:
		s, err = l.k.Box(d.Size)
	case scene.WedgeData:
		s, err = l.k.Wedge(d.Size, d.LTX)
	case scene.SphereData:
		s, err = l.k.Sphere(d.Radius)
	case scene.CylinderData:
		s, err = l.k.Cylinder(d.Radius, d.Height)
	case scene.ConeData:
		s, err = l.k.Cone(d.R0, d.R1, d.Height)

	case scene.MoveToData, scene.LineToData, scene.ArcToData:
		err = ErrPathOutsideFace

	default:
		err = fmt.Errorf("unsupported node data %T", n.Data)
	}
	if err != nil {
		return nil, l.fail(n, path, err)
	}
	return s, nil
}

func (l *lowerer) children(n *scene.Node, path string) ([]kernel.Shape, error) {
	shapes := make([]kernel.Shape, 0, len(n.Children))
	for i, c := range n.Children {
		s, err := l.node(c, scene.ChildPath(path, c, i))
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// group bundles the children into a compound. A single child is returned
// as is so that a lone face stays extrudable.
func (l *lowerer) group(n *scene.Node, path string) (kernel.Shape, error) {
	shapes, err := l.children(n, path)
	if err != nil {
		return nil, err
	}
	switch len(shapes) {
	case 0:
		return l.k.Empty(), nil
	case 1:
		return shapes[0], nil
	}
	s, err := l.k.Compound(shapes...)
	if err != nil {
		return nil, l.fail(n, path, err)
	}
	return s, nil
}

// fold combines the children left to right with op: ((c0 op c1) op c2)...
// No children gives the empty shape and one child gives that child.
func (l *lowerer) fold(n *scene.Node, path string, op func(a, b kernel.Shape) (kernel.Shape, error)) (kernel.Shape, error) {
	shapes, err := l.children(n, path)
	if err != nil {
		return nil, err
	}
	if len(shapes) == 0 {
		return l.k.Empty(), nil
	}
	acc := shapes[0]
	for _, s := range shapes[1:] {
		if acc, err = op(acc, s); err != nil {
			return nil, l.fail(n, path, err)
		}
	}
	return acc, nil
}

// face turns path segments into edges, tracking the cursor, and asks the
// kernel for a face bounded by them.
func (l *lowerer) face(n *scene.Node, path string) (kernel.Shape, error) {
	var (
		edges     []kernel.Edge
		cursor    geom.Vec3
		cursorSet bool
	)
	for i, c := range n.Children {
		cpath := scene.ChildPath(path, c, i)
		var (
			e   kernel.Edge
			err error
		)
		switch d := c.Data.(type) {
		case scene.MoveToData:
			cursor, cursorSet = d.Point, true
			continue
		case scene.LineToData:
			if !cursorSet {
				return nil, l.fail(c, cpath, ErrNoCursor)
			}
			e, err = l.k.Line(cursor, d.Point)
			cursor = d.Point
		case scene.ArcToData:
			if !cursorSet {
				return nil, l.fail(c, cpath, ErrNoCursor)
			}
			e, err = l.k.Arc(cursor, d.Via, d.End)
			cursor = d.End
		default:
			return nil, l.fail(c, cpath, ErrNotPathSegment)
		}
		if err != nil {
			return nil, l.fail(c, cpath, err)
		}
		edges = append(edges, e)
	}
	s, err := l.k.Face(edges)
	if err != nil {
		return nil, l.fail(n, path, err)
	}
	return s, nil
}
