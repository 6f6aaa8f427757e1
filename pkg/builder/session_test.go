package builder

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/scene"
)

// recorder collects every Object handed to the handler.
type recorder struct {
	roots []*scene.Node
	err   error
}

func (r *recorder) handle(root *scene.Node) error {
	r.roots = append(r.roots, root)
	return r.err
}

func newSession() (*Session, *recorder) {
	r := &recorder{}
	return New(WithHandler(r.handle)), r
}

func dump(t *testing.T, n *scene.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := scene.Dump(&buf, n); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

const thingyDump = `object("Thingy") {
   cut {
      translate(-1, -1, -1) {
         box(2, 2, 2);
      }
      cylinder(r=0.5, h=3);
   }
}
`

func TestLowLevelCalls(t *testing.T) {
	s, rec := newSession()
	steps := []func() error{
		func() error { return s.BeginObject("Thingy") },
		func() error { return s.OpenContainer(scene.CutData{}) },
		func() error { return s.OpenContainer(scene.TranslateData{Offset: geom.V(-1, -1, -1)}) },
		func() error { return s.AddLeaf(scene.BoxData{Size: geom.V(2, 2, 2)}) },
		s.CloseScope,
		func() error { return s.AddLeaf(scene.CylinderData{Radius: 0.5, Height: 3}) },
		s.CloseScope,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if len(rec.roots) != 0 {
		t.Fatal("handler ran before the object closed")
	}
	if s.Depth() != 1 || !s.Pending() {
		t.Fatalf("depth %d pending %v, want 1 and true", s.Depth(), s.Pending())
	}
	if err := s.CloseScope(); err != nil {
		t.Fatal(err)
	}
	if len(rec.roots) != 1 {
		t.Fatalf("handler ran %d times, want 1", len(rec.roots))
	}
	if got := dump(t, rec.roots[0]); got != thingyDump {
		t.Errorf("tree:\n%s\nwant:\n%s", got, thingyDump)
	}
	if s.Pending() || s.Depth() != 0 {
		t.Error("session should be empty after the object closes")
	}
}

func TestNestedBeginObject(t *testing.T) {
	s, rec := newSession()
	if err := s.BeginObject("A"); err != nil {
		t.Fatal(err)
	}
	err := s.BeginObject("A")
	if !errors.Is(err, ErrNestedObject) {
		t.Fatalf("second BeginObject: err = %v, want ErrNestedObject", err)
	}
	var ce *ConstructionError
	if !errors.As(err, &ce) || ce.Op != "begin" || ce.Kind != scene.KindObject {
		t.Errorf("error = %#v, want a begin/object ConstructionError", err)
	}
	if len(rec.roots) != 0 {
		t.Error("no object should have been produced")
	}
	s.Reset()
	if s.Pending() {
		t.Error("Reset should discard the pending object")
	}
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Session)
		call  func(s *Session) error
		want  error
	}{
		{
			name: "close with nothing open",
			call: func(s *Session) error { return s.CloseScope() },
			want: ErrNoOpenScope,
		},
		{
			name: "leaf with nothing open",
			call: func(s *Session) error { return s.AddLeaf(scene.BoxData{Size: geom.V(1, 1, 1)}) },
			want: ErrNoOpenScope,
		},
		{
			name:  "open a leaf kind",
			setup: func(s *Session) { s.BeginObject("T") },
			call:  func(s *Session) error { return s.OpenContainer(scene.SphereData{Radius: 1}) },
			want:  ErrLeafScope,
		},
		{
			name:  "add a container kind",
			setup: func(s *Session) { s.BeginObject("T") },
			call:  func(s *Session) error { return s.AddLeaf(scene.CutData{}) },
			want:  ErrContainerKind,
		},
		{
			name:  "object as a container",
			setup: func(s *Session) { s.BeginObject("T") },
			call:  func(s *Session) error { return s.OpenContainer(scene.ObjectData{Name: "U"}) },
			want:  ErrNestedObject,
		},
		{
			name: "solid inside a face",
			setup: func(s *Session) {
				s.BeginObject("T")
				s.OpenContainer(scene.FaceData{})
			},
			call: func(s *Session) error { return s.AddLeaf(scene.BoxData{Size: geom.V(1, 1, 1)}) },
			want: ErrNotPathSegment,
		},
		{
			name: "container inside a face",
			setup: func(s *Session) {
				s.BeginObject("T")
				s.OpenContainer(scene.FaceData{})
			},
			call: func(s *Session) error { return s.OpenContainer(scene.CutData{}) },
			want: ErrNotPathSegment,
		},
		{
			name: "path segment outside a face",
			setup: func(s *Session) {
				s.BeginObject("T")
				s.OpenContainer(scene.CutData{})
			},
			call: func(s *Session) error { return s.AddLeaf(scene.LineToData{Point: geom.V(1, 0, 0)}) },
			want: ErrPathOutsideFace,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession()
			if tt.setup != nil {
				tt.setup(s)
			}
			depth := s.Depth()
			err := tt.call(s)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if s.Depth() != depth {
				t.Errorf("failed call changed the scope depth from %d to %d", depth, s.Depth())
			}
		})
	}
}

func TestHandlerErrorClearsPending(t *testing.T) {
	s, rec := newSession()
	rec.err = errors.New("kernel exploded")
	s.BeginObject("T")
	if err := s.CloseScope(); err != rec.err {
		t.Fatalf("CloseScope() = %v, want the handler error", err)
	}
	if s.Pending() {
		t.Fatal("pending object must be cleared even when the handler fails")
	}
	if err := s.BeginObject("U"); err != nil {
		t.Fatalf("session not reusable: %v", err)
	}
}

func TestErrorString(t *testing.T) {
	err := &ConstructionError{Op: "add", Kind: scene.KindLineTo, Err: ErrPathOutsideFace}
	want := "builder: add line-to: path segments are only valid inside a face"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !strings.Contains(err.Error(), "line-to") {
		t.Error("message should name the node kind")
	}
}
