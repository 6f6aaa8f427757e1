package engine

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/cgtree/pkg/builder"
	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
	"github.com/chazu/cgtree/pkg/lower"
	"github.com/chazu/cgtree/pkg/pipeline"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(object "A" :linear 0.1)`,
			expect: `(object "A" "__kw_linear" 0.1)`,
		},
		{
			name:   "multiple keywords",
			input:  `(object "A" :linear 0.1 :angular 0.5)`,
			expect: `(object "A" "__kw_linear" 0.1 "__kw_angular" 0.5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(line-to 1 0 0) (rounded-box 4 3 1 0.5)`,
			expect: `(line_to 1 0 0) (rounded_box 4 3 1 0.5)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative numbers preserved",
			input:  `(translate -1 -1 -1)`,
			expect: `(translate -1 -1 -1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:max-cells`,
			expect: `"__kw_max-cells"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Object building
// ---------------------------------------------------------------------------

func evaluate(t *testing.T, eng *Engine, src string) []pipeline.Result {
	t.Helper()
	res, evalErrs, err := eng.Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return res
}

func TestBoxObject(t *testing.T) {
	res := evaluate(t, newTestEngine(), `(object "Cube" (box 2 2 2))`)
	if len(res) != 1 {
		t.Fatalf("expected 1 object, got %d", len(res))
	}
	m := res[0].Mesh
	if res[0].Name != "Cube" {
		t.Errorf("name = %q", res[0].Name)
	}
	if len(m.Vertices) != 8 || len(m.Triangles) != 12 || len(m.Normals) != 6 {
		t.Errorf("got %d/%d/%d, want 8/12/6", len(m.Vertices), len(m.Triangles), len(m.Normals))
	}
}

func TestThingyDump(t *testing.T) {
	var dump bytes.Buffer
	eng := newTestEngine(pipeline.WithDump(&dump))
	src := `
; a drilled cube
(object "Thingy"
  (cut
    (translate (vec3 -1 -1 -1)
      (box 2 2 2))
    (cylinder 0.5 3)))
`
	res := evaluate(t, eng, src)
	want := `object("Thingy") {
   cut {
      translate(-1, -1, -1) {
         box(2, 2, 2);
      }
      cylinder(r=0.5, h=3);
   }
}
`
	if dump.String() != want {
		t.Errorf("dump:\n%s\nwant:\n%s", dump.String(), want)
	}
	if len(res) != 1 || len(res[0].Mesh.Vertices) <= 8 {
		t.Errorf("drilled cube should have more vertices than a box")
	}
}

func TestVariablesAndLists(t *testing.T) {
	src := `
(def hole (cylinder 0.25 4))
(object "Plate"
  (cut
    (box 4 4 1)
    (list (translate 1 1 -1 hole)
          (translate 3 1 -1 hole)
          (translate 1 3 -1 hole))
    (translate 3 3 -1 hole)))
`
	res := evaluate(t, newTestEngine(), src)
	if len(res) != 1 {
		t.Fatalf("expected 1 object, got %d", len(res))
	}
	if v := res[0].Mesh.Volume(); v >= 16 {
		t.Errorf("volume %v should be below the plain plate's 16", v)
	}
}

func TestEveryBuiltin(t *testing.T) {
	src := `
(object "All" :linear 0.5
  (group
    (wedge 2 2 2 1)
    (translate 4 0 0 (sphere 1))
    (translate 8 0 0 (cone 1 0.5 2))
    (rotate 90 (vec3 1 0 0) (translate 12 0 0 (cylinder 1 2)))
    (rotate-vec (vec3 0 0 45) (translate 16 0 0 (box 1 1 1)))
    (fuse (box 1 1 1) (translate 0.5 0 0 (box 1 1 1)))
    (intersect (box 1 1 1) (translate 0.5 0 0 (box 1 1 1)))
    (common (box 1 1 1) (sphere 0.8))
    (fillet 0 (box 1 1 1))
    (prism (vec3 0 0 1)
      (face (move-to 0 0 0) (line-to 1 0 0) (arc-to 1.5 0.5 0 1 1 0) (line-to 0 0 0)))
    (translate 0 6 0 (rounded-box 4 3 1 0.5))
    (prism 0 0 2 (rounded-quad 2 2 0.25))))
`
	res := evaluate(t, newTestEngine(), src)
	if len(res) != 1 || res[0].Mesh.IsEmpty() {
		t.Fatal("expected one non-empty object")
	}
}

func TestPrismOfSeveralFaces(t *testing.T) {
	res := evaluate(t, newTestEngine(), `
(def unit (face (move-to 0 0 0) (line-to 1 0 0) (line-to 1 1 0) (line-to 0 1 0) (line-to 0 0 0)))
(object "Pair" (prism 0 0 2 unit (translate 5 0 0 unit)))`)
	if len(res) != 1 {
		t.Fatalf("expected 1 object, got %d", len(res))
	}
	m := res[0].Mesh
	if v := m.Volume(); math.Abs(v-4) > 1e-9 {
		t.Errorf("volume = %g, want 4", v)
	}
	if min, max := m.Bounds(); min != (geom.Vec3{}) || max != geom.V(6, 1, 2) {
		t.Errorf("bounds %s..%s", min, max)
	}
}

func TestSeveralObjectsExport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out")
	eng := newTestEngine(pipeline.WithOBJ(base))
	res := evaluate(t, eng, `(object "A" (box 1 1 1)) (object "B" (sphere 1))`)
	if len(res) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(res))
	}
	for _, f := range []string{"out.obj", "out.mtl", "out-2.obj", "out-2.mtl"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Error(err)
		}
	}
}

func TestObjectErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"solid inside a face", `(object "A" (prism 0 0 1 (face (move-to 0 0 0) (box 1 1 1))))`, builder.ErrNotPathSegment},
		{"path segment outside a face", `(object "A" (group (line-to 1 0 0)))`, builder.ErrPathOutsideFace},
		{"open profile", `(object "A" (prism 0 0 1 (face (move-to 0 0 0) (line-to 1 0 0) (line-to 1 1 0) (line-to 0 1 0))))`, kernel.ErrOpenWire},
		{"invalid size", `(object "A" (box 1 -1 1))`, pipeline.ErrInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, evalErrs, err := newTestEngine().Evaluate(tt.src)
			if err != nil {
				t.Fatalf("fatal: %v", err)
			}
			if len(res) != 0 {
				t.Errorf("got %d objects, want none", len(res))
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			if !errors.Is(evalErrs[0], tt.want) {
				t.Errorf("err = %v (cause %v), want %v", evalErrs[0], evalErrs[0].Err, tt.want)
			}
		})
	}
}

func TestBuildErrorNamesTheNode(t *testing.T) {
	_, evalErrs, err := newTestEngine().Evaluate(`(object "Soft" (fillet 0.2 (box 1 1 1)))`)
	if err != nil || len(evalErrs) == 0 {
		t.Fatalf("expected an eval error, got %v %v", evalErrs, err)
	}
	var be *lower.BuildError
	if !errors.As(evalErrs[0], &be) {
		t.Fatalf("cause %v is not a build error", evalErrs[0].Err)
	}
	if be.Path != "Soft/fillet[0]" || !errors.Is(be, kernel.ErrUnsupported) {
		t.Errorf("BuildError = %v", be)
	}
}

func TestObjectsBeforeAFailureAreKept(t *testing.T) {
	res, evalErrs, err := newTestEngine().Evaluate(`(object "Good" (box 1 1 1)) (object "Bad" (box 0 1 1))`)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Name != "Good" || len(evalErrs) != 1 {
		t.Errorf("got %d results and %v", len(res), evalErrs)
	}
}

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing size", `(box 1 2)`, "box: missing size z"},
		{"not a number", `(sphere "big")`, "sphere: radius"},
		{"extra argument", `(sphere 1 2)`, "unexpected argument"},
		{"non-shape child", `(group 42)`, "expected a shape"},
		{"nested object", `(object "A" (object "B" (box 1 1 1)))`, "cannot be a child"},
		{"object without name", `(object)`, "requires a name"},
		{"unknown keyword", `(object "A" :colour 1 (box 1 1 1))`, "unknown keyword :colour"},
		{"bad relative flag", `(object "A" :relative 1 (box 1 1 1))`, "expected true or false"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, evalErrs, err := newTestEngine().Evaluate(tt.src)
			if err != nil {
				t.Fatalf("fatal: %v", err)
			}
			if len(evalErrs) == 0 || evalErrs[0].Err == nil {
				t.Fatalf("errors = %v, want a builtin failure", evalErrs)
			}
			if got := evalErrs[0].Err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("cause = %q, want one containing %q", got, tt.want)
			}
		})
	}
}

func TestNestedObjectBuildsNothing(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"direct", `(object "A" (object "B" (box 1 1 1)))`, 1},
		{"after a good object", "(object \"Good\" (box 1 1 1))\n(object \"A\"\n  (group (object \"B\" (box 1 1 1))))", 3},
		{"inside a def", "(def a (object \"A\" [(object \"B\" (box 1 1 1))]))", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			eng := newTestEngine(pipeline.WithOBJ(filepath.Join(dir, "out")))
			res, evalErrs, err := eng.Evaluate(tt.src)
			if err != nil {
				t.Fatalf("fatal: %v", err)
			}
			if len(res) != 0 {
				t.Errorf("built %d objects, want none", len(res))
			}
			if len(evalErrs) != 1 || !errors.Is(evalErrs[0], builder.ErrNestedObject) {
				t.Fatalf("errors = %v, want ErrNestedObject", evalErrs)
			}
			if evalErrs[0].Line != tt.line {
				t.Errorf("line = %d, want %d", evalErrs[0].Line, tt.line)
			}
			if files, _ := os.ReadDir(dir); len(files) != 0 {
				t.Errorf("wrote %d files, want none", len(files))
			}
		})
	}
}

func TestObjectLookalikesAreNotNested(t *testing.T) {
	for _, src := range []string{
		`(object "A" (box 1 1 1)) ; (object "B" (object "C"))`,
		`(object "(object inside a name" (box 1 1 1))`,
		`(def objects 1) (object "A" (box 1 1 1))`,
	} {
		if _, ok := nestedObject(src); ok {
			t.Errorf("nestedObject(%q) reported a nested object", src)
		}
	}
}

func TestObjectDeflectionKeywords(t *testing.T) {
	res := evaluate(t, newTestEngine(), `
(object "Coarse" (sphere 5))
(object "Fine" :linear 0.05 :relative false (sphere 5))`)
	if len(res) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(res))
	}
	if coarse, fine := len(res[0].Mesh.Triangles), len(res[1].Mesh.Triangles); fine <= coarse {
		t.Errorf("fine sphere has %d triangles, coarse %d", fine, coarse)
	}
}

func TestExampleScripts(t *testing.T) {
	scripts, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.lisp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) == 0 {
		t.Skip("no example scripts")
	}
	for _, path := range scripts {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			res := evaluate(t, newTestEngine(), string(src))
			if len(res) == 0 {
				t.Fatal("script built no objects")
			}
			for _, r := range res {
				if r.Mesh.IsEmpty() {
					t.Errorf("object %s is empty", r.Name)
				}
			}
		})
	}
}
