package geom

import (
	"math"
	"sort"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %v, want (5, 7, 9)", got)
	}
	if got := b.Sub(a); got != (Vec3{3, 3, 3}) {
		t.Errorf("Sub = %v, want (3, 3, 3)", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v, want (2, 4, 6)", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross = %v, want (0, 0, 1)", got)
	}
	if got := a.Neg(); got != (Vec3{-1, -2, -3}) {
		t.Errorf("Neg = %v", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{0, 0, 4}.Normalize()
	if n != (Vec3{0, 0, 1}) {
		t.Errorf("Normalize = %v, want (0, 0, 1)", n)
	}
	if l := (Vec3{3, 4, 12}).Normalize().Length(); math.Abs(l-1) > 1e-12 {
		t.Errorf("normalized length = %v", l)
	}

	z := Vec3{}.Normalize()
	if !math.IsNaN(z.X) {
		t.Errorf("Normalize of zero vector = %v, want NaN components", z)
	}
}

func TestVec3Less(t *testing.T) {
	vs := []Vec3{{1, 0, 0}, {0, 2, 0}, {0, 1, 5}, {0, 1, 2}}
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
	want := []Vec3{{0, 1, 2}, {0, 1, 5}, {0, 2, 0}, {1, 0, 0}}
	for i := range want {
		if vs[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", vs, want)
		}
	}
	if (Vec3{1, 1, 1}).Less(Vec3{1, 1, 1}) {
		t.Error("Less must be irreflexive")
	}
}

func TestVec3String(t *testing.T) {
	v := Vec3{1.5, 2.5, 3.5}
	if v.String() != "(1.5, 2.5, 3.5)" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestAxisHelpers(t *testing.T) {
	if XAxis(90) != V(90, 0, 0) || YAxis(2) != V(0, 2, 0) || ZAxis(-1) != V(0, 0, -1) {
		t.Error("axis helpers returned unexpected vectors")
	}
}
