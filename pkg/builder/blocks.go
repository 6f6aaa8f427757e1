package builder

import (
	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/scene"
)

// The block helpers below wrap the scope calls so that every scope opened is
// closed on the way out of its body, panics included. The first error is
// kept (see Err) and turns later helper calls into no-ops until the enclosing
// Object returns it.

// Err returns the first error recorded by a block helper.
func (s *Session) Err() error {
	return s.err
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) block(d scene.NodeData, body func()) {
	if s.err != nil {
		return
	}
	if err := s.OpenContainer(d); err != nil {
		s.fail(err)
		return
	}
	defer func() {
		if err := s.CloseScope(); err != nil {
			s.fail(err)
		}
	}()
	if body != nil {
		body()
	}
}

func (s *Session) leaf(d scene.NodeData) {
	if s.err != nil {
		return
	}
	if err := s.AddLeaf(d); err != nil {
		s.fail(err)
	}
}

// Object builds one Object from body and, when body finishes cleanly, closes
// it so the handler runs. It returns the first construction error or the
// handler's error. On any error the Object is discarded.
func (s *Session) Object(name string, body func(), opts ...ObjectOption) error {
	if err := s.BeginObject(name, opts...); err != nil {
		s.fail(err)
		return err
	}
	finished := false
	defer func() {
		if !finished {
			s.Reset()
		}
	}()
	if body != nil {
		body()
	}
	finished = true

	if err := s.err; err != nil {
		s.Reset()
		return err
	}
	if s.Depth() != 1 {
		s.Reset()
		return &ConstructionError{Op: "close", Kind: scene.KindObject, Err: ErrUnbalanced}
	}
	return s.CloseScope()
}

// Group bundles its children without geometric interaction.
func (s *Session) Group(body func()) {
	s.block(scene.GroupData{}, body)
}

// Translate moves its children by v.
func (s *Session) Translate(v geom.Vec3, body func()) {
	s.block(scene.TranslateData{Offset: v}, body)
}

// Rotate turns its children by degrees about axis through the origin.
func (s *Session) Rotate(degrees float64, axis geom.Vec3, body func()) {
	s.block(scene.RotateData{Degrees: degrees, Axis: axis}, body)
}

// RotateVec rotates by |v| degrees about v, so RotateVec(geom.XAxis(90), ...)
// is a quarter turn about X. A zero vector is no rotation.
func (s *Session) RotateVec(v geom.Vec3, body func()) {
	if v.IsZero() {
		s.Rotate(0, geom.ZAxis(1), body)
		return
	}
	s.Rotate(v.Length(), v.Normalize(), body)
}

// Cut subtracts every later child from the first.
func (s *Session) Cut(body func()) {
	s.block(scene.CutData{}, body)
}

// Fuse unites its children.
func (s *Session) Fuse(body func()) {
	s.block(scene.FuseData{}, body)
}

// Common intersects its children.
func (s *Session) Common(body func()) {
	s.block(scene.CommonData{}, body)
}

// Fillet fuses its children and rounds every edge by radius. A radius of 0
// leaves the edges sharp.
func (s *Session) Fillet(radius float64, body func()) {
	s.block(scene.FilletData{Radius: radius}, body)
}

// Prism extrudes the profile built by body along sweep.
func (s *Session) Prism(sweep geom.Vec3, body func()) {
	s.block(scene.PrismData{Sweep: sweep}, body)
}

// Face builds a planar face from the path segments added by body.
func (s *Session) Face(body func()) {
	s.block(scene.FaceData{}, body)
}

func (s *Session) Box(size geom.Vec3) {
	s.leaf(scene.BoxData{Size: size})
}

func (s *Session) Wedge(size geom.Vec3, ltx float64) {
	s.leaf(scene.WedgeData{Size: size, LTX: ltx})
}

func (s *Session) Sphere(radius float64) {
	s.leaf(scene.SphereData{Radius: radius})
}

func (s *Session) Cylinder(radius, height float64) {
	s.leaf(scene.CylinderData{Radius: radius, Height: height})
}

func (s *Session) Cone(r0, r1, height float64) {
	s.leaf(scene.ConeData{R0: r0, R1: r1, Height: height})
}

func (s *Session) MoveTo(p geom.Vec3) {
	s.leaf(scene.MoveToData{Point: p})
}

func (s *Session) LineTo(p geom.Vec3) {
	s.leaf(scene.LineToData{Point: p})
}

// ArcTo adds a circular arc from the cursor through via to end.
func (s *Session) ArcTo(via, end geom.Vec3) {
	s.leaf(scene.ArcToData{Via: via, End: end})
}
