package scene

import (
	"strings"
	"testing"

	"github.com/chazu/cgtree/pkg/geom"
)

func object(children ...*Node) *Node {
	root := NewNode(ObjectData{Name: "T"})
	root.Children = children
	return root
}

func with(d NodeData, children ...*Node) *Node {
	n := NewNode(d)
	n.Children = children
	return n
}

func TestValidateClean(t *testing.T) {
	res := ValidateAll(thingy())
	if !res.OK() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestValidateErrors(t *testing.T) {
	square := []*Node{
		NewNode(MoveToData{Point: geom.V(0, 0, 0)}),
		NewNode(LineToData{Point: geom.V(1, 0, 0)}),
		NewNode(LineToData{Point: geom.V(1, 1, 0)}),
		NewNode(LineToData{Point: geom.V(0, 0, 0)}),
	}

	tests := []struct {
		name string
		root *Node
		want string
	}{
		{"leaf with children", object(with(BoxData{Size: geom.V(1, 1, 1)}, NewNode(SphereData{Radius: 1}))), "leaf node has 1 children"},
		{"non-path under face", object(with(FaceData{}, append([]*Node{NewNode(SphereData{Radius: 1})}, square...)...)), "face children must be"},
		{"path outside face", object(NewNode(LineToData{Point: geom.V(1, 0, 0)})), "path segment outside of a face"},
		{"segment before move-to", object(with(FaceData{}, square[1:]...)), "before the first move-to"},
		{"nested object", object(NewNode(ObjectData{Name: "inner"})), "object cannot be nested"},
		{"zero box", object(NewNode(BoxData{Size: geom.V(1, 0, 1)})), "box size"},
		{"negative wedge taper", object(NewNode(WedgeData{Size: geom.V(1, 1, 1), LTX: -1})), "wedge top length"},
		{"zero sphere", object(NewNode(SphereData{})), "sphere radius"},
		{"flat cylinder", object(NewNode(CylinderData{Radius: 1})), "cylinder height"},
		{"pointless cone", object(NewNode(ConeData{Height: 1})), "non-zero radius"},
		{"negative cone", object(NewNode(ConeData{R0: -1, R1: 1, Height: 1})), "must not be negative"},
		{"zero axis", object(with(RotateData{Degrees: 90}, NewNode(SphereData{Radius: 1}))), "zero length"},
		{"negative fillet", object(with(FilletData{Radius: -0.1}, NewNode(SphereData{Radius: 1}))), "fillet radius"},
		{"zero sweep", object(with(PrismData{}, with(FaceData{}, square...))), "sweep vector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateAll(tt.root)
			if res.OK() {
				t.Fatalf("expected errors, got none")
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e.Message, tt.want) {
					found = true
				}
				if e.Severity != SeverityError {
					t.Errorf("error %v has severity %v", e, e.Severity)
				}
			}
			if !found {
				t.Errorf("no error containing %q in %v", tt.want, res.Errors)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	res := ValidateAll(object(NewNode(CutData{})))
	if !res.OK() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", res.Warnings)
	}
	w := res.Warnings[0]
	if w.Path != "T/cut[0]" || w.Kind != KindCut {
		t.Errorf("warning = %+v", w)
	}
	if !strings.HasPrefix(w.Error(), "[warning] cut at T/cut[0]") {
		t.Errorf("Error() = %q", w.Error())
	}
}

func TestValidationErrorPath(t *testing.T) {
	root := object(with(CutData{}, NewNode(BoxData{Size: geom.V(1, 1, 1)}), NewNode(SphereData{Radius: -1})))
	errs := Validate(root)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want 1", errs)
	}
	if errs[0].Path != "T/cut[0]/sphere[1]" {
		t.Errorf("Path = %q", errs[0].Path)
	}
}
