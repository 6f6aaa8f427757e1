package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
)

func mustShape(t *testing.T) func(kernel.Shape, error) kernel.Shape {
	return func(s kernel.Shape, err error) kernel.Shape {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
}

func triangles(t *testing.T, k *SdfxKernel, s kernel.Shape) int {
	t.Helper()
	faces, err := k.Triangulate(s, kernel.Tolerance{Linear: 0.1, Angular: 0.5})
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	return kernel.CountTriangles(faces)
}

func assertBounds(t *testing.T, s kernel.Shape, wantMin, wantMax geom.Vec3, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	if min.Sub(wantMin).Length() > tol || max.Sub(wantMax).Length() > tol {
		t.Errorf("bounds %s..%s, expected ~%s..%s", min, max, wantMin, wantMax)
	}
}

func TestBox(t *testing.T) {
	k := New()
	box := mustShape(t)(k.Box(geom.V(10, 5, 2.5)))
	faces, err := k.Triangulate(box, kernel.DefaultTolerance())
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("got %d faces, want 1", len(faces))
	}
	if faces[0].IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if faces[0].Reversed {
		t.Error("marching cubes output is already outward facing")
	}
	t.Logf("box triangle count: %d", faces[0].TriangleCount())
}

func TestPrimitivePlacement(t *testing.T) {
	k := New()
	tests := []struct {
		name     string
		shape    func() (kernel.Shape, error)
		min, max geom.Vec3
	}{
		{"box at corner", func() (kernel.Shape, error) { return k.Box(geom.V(100, 50, 25)) },
			geom.V(0, 0, 0), geom.V(100, 50, 25)},
		{"cylinder on xy plane", func() (kernel.Shape, error) { return k.Cylinder(10, 50) },
			geom.V(-10, -10, 0), geom.V(10, 10, 50)},
		{"cone on xy plane", func() (kernel.Shape, error) { return k.Cone(10, 5, 20) },
			geom.V(-10, -10, 0), geom.V(10, 10, 20)},
		{"centred sphere", func() (kernel.Shape, error) { return k.Sphere(5) },
			geom.V(-5, -5, -5), geom.V(5, 5, 5)},
		{"wedge", func() (kernel.Shape, error) { return k.Wedge(geom.V(4, 3, 2), 1) },
			geom.V(0, 0, 0), geom.V(4, 3, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertBounds(t, mustShape(t)(tt.shape()), tt.min, tt.max, 0.01)
		})
	}
}

func TestCut(t *testing.T) {
	k := New()
	box := mustShape(t)(k.Box(geom.V(10, 10, 10)))
	cyl := mustShape(t)(k.Translate(mustShape(t)(k.Cylinder(2, 12)), geom.V(5, 5, -1)))
	diff := mustShape(t)(k.Cut(box, cyl))

	boxTris, diffTris := triangles(t, k, box), triangles(t, k, diff)
	// A box with a hole should have more triangles than a plain box.
	if diffTris <= boxTris {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffTris, boxTris)
	}
	t.Logf("box triangles: %d, difference triangles: %d", boxTris, diffTris)
}

func TestFuseAndCommon(t *testing.T) {
	k := New()
	box1 := mustShape(t)(k.Box(geom.V(5, 5, 5)))
	box2 := mustShape(t)(k.Translate(mustShape(t)(k.Box(geom.V(5, 5, 5))), geom.V(3, 0, 0)))

	u := mustShape(t)(k.Fuse(box1, box2))
	assertBounds(t, u, geom.V(0, 0, 0), geom.V(8, 5, 5), 0.01)

	i := mustShape(t)(k.Common(box1, box2))
	if triangles(t, k, i) == 0 {
		t.Fatal("intersection mesh is empty")
	}
}

func TestEmptyOperands(t *testing.T) {
	k := New()
	box := mustShape(t)(k.Box(geom.V(1, 1, 1)))
	if s := mustShape(t)(k.Cut(k.Empty(), box)); !s.IsEmpty() {
		t.Error("cutting from empty should stay empty")
	}
	if s := mustShape(t)(k.Fuse(k.Empty(), box)); s.IsEmpty() {
		t.Error("fusing with empty should keep the box")
	}
	if s := mustShape(t)(k.Common(box, k.Empty())); !s.IsEmpty() {
		t.Error("common with empty should be empty")
	}
	faces, err := k.Triangulate(k.Empty(), kernel.DefaultTolerance())
	if err != nil || len(faces) != 0 {
		t.Errorf("Triangulate(empty) = %d faces, %v", len(faces), err)
	}
}

func TestRotate(t *testing.T) {
	k := New()
	box := mustShape(t)(k.Box(geom.V(100, 10, 10)))

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	rotated := mustShape(t)(k.Rotate(box, geom.V(0, 0, 1), math.Pi/2))
	min, max := rotated.BoundingBox()

	xExtent := max.X - min.X
	yExtent := max.Y - min.Y

	const tol = 1.0
	if math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}

func TestFillet(t *testing.T) {
	k := New()
	box := mustShape(t)(k.Box(geom.V(10, 10, 10)))
	rounded := mustShape(t)(k.Fillet(box, 1))
	if triangles(t, k, rounded) == 0 {
		t.Fatal("filleted mesh is empty")
	}
	if same := mustShape(t)(k.Fillet(box, 0)); same != box {
		t.Error("fillet radius 0 should return the shape unchanged")
	}
	if _, err := k.Fillet(box, -1); !errors.Is(err, kernel.ErrDegenerate) {
		t.Errorf("negative radius: err = %v, want ErrDegenerate", err)
	}
}

func TestFaceExtrude(t *testing.T) {
	k := New()
	corners := []geom.Vec3{{}, {X: 4}, {X: 4, Z: 2}, {Z: 2}} // in the XZ plane
	var edges []kernel.Edge
	for i := range corners {
		e, err := k.Line(corners[i], corners[(i+1)%len(corners)])
		if err != nil {
			t.Fatal(err)
		}
		edges = append(edges, e)
	}
	face := mustShape(t)(k.Face(edges))
	assertBounds(t, face, geom.V(0, 0, 0), geom.V(4, 0, 2), 1e-12)

	prism := mustShape(t)(k.Extrude(face, geom.V(0, 3, 0)))
	assertBounds(t, prism, geom.V(0, 0, 0), geom.V(4, 3, 2), 0.01)

	if _, err := k.Extrude(face, geom.V(1, 1, 0)); !errors.Is(err, kernel.ErrUnsupported) {
		t.Errorf("oblique sweep: err = %v, want ErrUnsupported", err)
	}
	if _, err := k.Triangulate(face, kernel.DefaultTolerance()); !errors.Is(err, kernel.ErrUnsupported) {
		t.Errorf("bare face: err = %v, want ErrUnsupported", err)
	}
	if _, err := k.Face(edges[:3]); !errors.Is(err, kernel.ErrOpenWire) {
		t.Errorf("open wire: err = %v, want ErrOpenWire", err)
	}
}

func TestCompoundOfFacesExtrudes(t *testing.T) {
	k := New()
	square := func(x float64) kernel.Shape {
		corners := []geom.Vec3{{X: x}, {X: x + 1}, {X: x + 1, Y: 1}, {X: x, Y: 1}}
		var edges []kernel.Edge
		for i := range corners {
			e, err := k.Line(corners[i], corners[(i+1)%len(corners)])
			if err != nil {
				t.Fatal(err)
			}
			edges = append(edges, e)
		}
		return mustShape(t)(k.Face(edges))
	}
	pair := mustShape(t)(k.Compound(square(0), square(5)))
	assertBounds(t, pair, geom.V(0, 0, 0), geom.V(6, 1, 0), 1e-12)

	prism := mustShape(t)(k.Extrude(pair, geom.V(0, 0, 2)))
	assertBounds(t, prism, geom.V(0, 0, 0), geom.V(6, 1, 2), 0.01)
	if n := triangles(t, k, prism); n == 0 {
		t.Error("prism pair has no triangles")
	}

	box := mustShape(t)(k.Box(geom.V(1, 1, 1)))
	if _, err := k.Compound(square(0), box); !errors.Is(err, kernel.ErrUnsupported) {
		t.Errorf("face and solid: err = %v, want ErrUnsupported", err)
	}
}
