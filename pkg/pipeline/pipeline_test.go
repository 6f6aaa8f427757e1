package pipeline_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/cgtree/pkg/builder"
	"github.com/chazu/cgtree/pkg/config"
	"github.com/chazu/cgtree/pkg/export"
	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
	"github.com/chazu/cgtree/pkg/kernel/polyhedral"
	"github.com/chazu/cgtree/pkg/lower"
	"github.com/chazu/cgtree/pkg/pipeline"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newRun(opts ...pipeline.Option) (*builder.Session, *pipeline.Runner) {
	opts = append([]pipeline.Option{pipeline.WithLogger(quiet())}, opts...)
	r := pipeline.NewRunner(polyhedral.New(), config.Default(), opts...)
	return builder.New(builder.WithHandler(r.Handle), builder.WithLogger(quiet())), r
}

func TestBoxObject(t *testing.T) {
	s, r := newRun()
	if err := s.Object("Cube", func() { s.Box(geom.V(2, 2, 2)) }); err != nil {
		t.Fatal(err)
	}
	res := r.Results()
	if len(res) != 1 {
		t.Fatalf("got %d results, want 1", len(res))
	}
	m := res[0].Mesh
	if res[0].Name != "Cube" || m.Name != "Cube" {
		t.Errorf("names %q / %q, want Cube", res[0].Name, m.Name)
	}
	if len(m.Vertices) != 8 || len(m.Triangles) != 12 || len(m.Normals) != 6 {
		t.Errorf("got %d/%d/%d, want 8/12/6", len(m.Vertices), len(m.Triangles), len(m.Normals))
	}
	if len(res[0].Files) != 0 {
		t.Errorf("nothing should be exported, got %v", res[0].Files)
	}
}

func TestThingyHasMoreVerticesThanBox(t *testing.T) {
	s, r := newRun()
	if err := s.Object("Thingy", func() {
		s.Cut(func() {
			s.Box(geom.V(2, 2, 2))
			s.Translate(geom.V(1, 1, -1), func() { s.Cylinder(0.5, 4) })
		})
	}); err != nil {
		t.Fatal(err)
	}
	if n := len(r.Results()[0].Mesh.Vertices); n <= 8 {
		t.Errorf("got %d vertices, want more than 8", n)
	}
}

func TestDumpTree(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newRun(pipeline.WithDump(&buf))
	if err := s.Object("Thingy", func() {
		s.Cut(func() {
			s.Translate(geom.V(-1, -1, -1), func() { s.Box(geom.V(2, 2, 2)) })
			s.Cylinder(0.5, 3)
		})
	}); err != nil {
		t.Fatal(err)
	}
	want := `object("Thingy") {
   cut {
      translate(-1, -1, -1) {
         box(2, 2, 2);
      }
      cylinder(r=0.5, h=3);
   }
}
`
	if buf.String() != want {
		t.Errorf("dump:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestNestedObjectProducesNoMesh(t *testing.T) {
	s, r := newRun()
	if err := s.BeginObject("A"); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginObject("A"); !errors.Is(err, builder.ErrNestedObject) {
		t.Fatalf("second BeginObject: err = %v, want ErrNestedObject", err)
	}
	s.Reset()
	if len(r.Results()) != 0 {
		t.Errorf("got %d results, want none", len(r.Results()))
	}
}

func TestOpenProfileFails(t *testing.T) {
	s, r := newRun()
	err := s.Object("Open", func() {
		s.Prism(geom.V(0, 0, 1), func() {
			s.Face(func() {
				s.MoveTo(geom.V(0, 0, 0))
				s.LineTo(geom.V(1, 0, 0))
				s.LineTo(geom.V(1, 1, 0))
				s.LineTo(geom.V(0, 1, 0))
			})
		})
	})
	if !errors.Is(err, kernel.ErrOpenWire) {
		t.Fatalf("err = %v, want kernel.ErrOpenWire", err)
	}
	var be *lower.BuildError
	if !errors.As(err, &be) || be.Object != "Open" {
		t.Errorf("err = %v, want a build error for Open", err)
	}
	if len(r.Results()) != 0 {
		t.Error("a failed object must not produce a result")
	}
}

func TestInvalidTree(t *testing.T) {
	s, r := newRun()
	err := s.Object("Flat", func() { s.Box(geom.V(1, 0, 1)) })
	if !errors.Is(err, pipeline.ErrInvalidTree) {
		t.Fatalf("err = %v, want ErrInvalidTree", err)
	}
	var ite *pipeline.InvalidTreeError
	if !errors.As(err, &ite) || ite.Object != "Flat" || len(ite.Findings) == 0 {
		t.Fatalf("err = %#v", err)
	}
	if !strings.Contains(err.Error(), "Flat/box[0]") {
		t.Errorf("message %q should name the box", err)
	}
	if len(r.Results()) != 0 {
		t.Error("an invalid object must not produce a result")
	}
}

func TestObjectDeflection(t *testing.T) {
	s, r := newRun()
	if err := s.Object("Coarse", func() { s.Sphere(5) }); err != nil {
		t.Fatal(err)
	}
	if err := s.Object("Fine", func() { s.Sphere(5) }, builder.WithDeflection(0.05, false, 0.5)); err != nil {
		t.Fatal(err)
	}
	res := r.Results()
	coarse, fine := len(res[0].Mesh.Triangles), len(res[1].Mesh.Triangles)
	if fine <= coarse {
		t.Errorf("fine sphere has %d triangles, coarse %d; want more", fine, coarse)
	}
}

func TestExportNaming(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "part")
	s, r := newRun(
		pipeline.WithOBJ(base),
		pipeline.WithJSON(filepath.Join(dir, "part.json")),
		pipeline.WithSTL(filepath.Join(dir, "part.stl")),
	)
	for _, name := range []string{"A", "B", "C"} {
		if err := s.Object(name, func() { s.Box(geom.V(1, 1, 1)) }); err != nil {
			t.Fatal(err)
		}
	}
	want := [][]string{
		{"part.obj", "part.mtl", "part.json", "part.stl"},
		{"part-2.obj", "part-2.mtl", "part-2.json", "part-2.stl"},
		{"part-3.obj", "part-3.mtl", "part-3.json", "part-3.stl"},
	}
	for i, res := range r.Results() {
		if len(res.Files) != len(want[i]) {
			t.Fatalf("object %d files = %v", i, res.Files)
		}
		for j, f := range res.Files {
			if f != filepath.Join(dir, want[i][j]) {
				t.Errorf("object %d file %d = %s, want %s", i, j, f, want[i][j])
			}
			if _, err := os.Stat(f); err != nil {
				t.Error(err)
			}
		}
	}

	obj, err := os.Open(base + "-2.obj")
	if err != nil {
		t.Fatal(err)
	}
	defer obj.Close()
	m, err := export.ReadOBJ(obj)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "B" || len(m.Vertices) != 8 || len(m.Triangles) != 12 {
		t.Errorf("part-2.obj: %q with %d vertices and %d triangles", m.Name, len(m.Vertices), len(m.Triangles))
	}
}

func TestExportError(t *testing.T) {
	s, r := newRun(pipeline.WithOBJ(filepath.Join(t.TempDir(), "no", "such", "dir")))
	err := s.Object("A", func() { s.Box(geom.V(1, 1, 1)) })
	if err == nil || !strings.Contains(err.Error(), "export: create") {
		t.Fatalf("err = %v, want an export error", err)
	}
	if len(r.Results()) != 0 {
		t.Error("an object that failed to export must not produce a result")
	}
}

func TestOpenKernel(t *testing.T) {
	for _, name := range []string{config.KernelPolyhedral, config.KernelSdfx} {
		cfg := config.Default()
		cfg.Kernel = name
		k, err := pipeline.OpenKernel(cfg)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if k.Name() != name {
			t.Errorf("OpenKernel(%s).Name() = %q", name, k.Name())
		}
	}

	cfg := config.Default()
	cfg.Kernel = config.KernelManifold
	if k, err := pipeline.OpenKernel(cfg); err != nil {
		if !errors.Is(err, kernel.ErrUnsupported) {
			t.Errorf("manifold: err = %v, want ErrUnsupported when not built in", err)
		}
	} else if k.Name() != config.KernelManifold {
		t.Errorf("manifold kernel named %q", k.Name())
	}

	cfg.Kernel = "occt"
	if _, err := pipeline.OpenKernel(cfg); err == nil {
		t.Error("unknown kernel should fail")
	}
}
