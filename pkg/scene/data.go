package scene

import (
	"fmt"

	"github.com/chazu/cgtree/pkg/geom"
)

// ---------------------------------------------------------------------------
// Object
// ---------------------------------------------------------------------------

// Deflection overrides the configured triangulation tolerance for one Object.
type Deflection struct {
	Linear   float64 `json:"linear"`
	Relative bool    `json:"relative"`
	Angular  float64 `json:"angular"`
}

// ObjectData is the payload of the root node. Deflection is nil unless the
// Object asked for its own triangulation tolerance.
type ObjectData struct {
	Name       string      `json:"name"`
	Deflection *Deflection `json:"deflection,omitempty"`
}

func (ObjectData) Kind() Kind { return KindObject }
func (ObjectData) nodeData()  {}

func (d ObjectData) String() string {
	if d.Deflection != nil {
		return fmt.Sprintf("object(%q, linear=%g, relative=%t, angular=%g)",
			d.Name, d.Deflection.Linear, d.Deflection.Relative, d.Deflection.Angular)
	}
	return fmt.Sprintf("object(%q)", d.Name)
}

// ---------------------------------------------------------------------------
// Grouping and transforms
// ---------------------------------------------------------------------------

// GroupData bundles its children into one compound.
type GroupData struct{}

func (GroupData) Kind() Kind     { return KindGroup }
func (GroupData) nodeData()      {}
func (GroupData) String() string { return "group" }

// TranslateData moves the grouped children by Offset.
type TranslateData struct {
	Offset geom.Vec3 `json:"offset"`
}

func (TranslateData) Kind() Kind { return KindTranslate }
func (TranslateData) nodeData()  {}

func (d TranslateData) String() string {
	return fmt.Sprintf("translate(%g, %g, %g)", d.Offset.X, d.Offset.Y, d.Offset.Z)
}

// RotateData rotates the grouped children by Degrees around Axis through
// the origin.
type RotateData struct {
	Degrees float64   `json:"degrees"`
	Axis    geom.Vec3 `json:"axis"`
}

func (RotateData) Kind() Kind { return KindRotate }
func (RotateData) nodeData()  {}

func (d RotateData) String() string {
	return fmt.Sprintf("rotate(degrees=%g, axis=%s)", d.Degrees, d.Axis)
}

// ---------------------------------------------------------------------------
// Booleans and edge rounding
// ---------------------------------------------------------------------------

// CutData subtracts every later child from the first one.
type CutData struct{}

func (CutData) Kind() Kind     { return KindCut }
func (CutData) nodeData()      {}
func (CutData) String() string { return "cut" }

// FuseData unites its children.
type FuseData struct{}

func (FuseData) Kind() Kind     { return KindFuse }
func (FuseData) nodeData()      {}
func (FuseData) String() string { return "fuse" }

// CommonData intersects its children.
type CommonData struct{}

func (CommonData) Kind() Kind     { return KindCommon }
func (CommonData) nodeData()      {}
func (CommonData) String() string { return "common" }

// FilletData fuses its children and rounds every edge of the result.
// A zero radius disables the rounding.
type FilletData struct {
	Radius float64 `json:"radius"`
}

func (FilletData) Kind() Kind { return KindFillet }
func (FilletData) nodeData()  {}

func (d FilletData) String() string { return fmt.Sprintf("fillet(%g)", d.Radius) }

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// PrismData extrudes the grouped children (usually faces) along Sweep.
type PrismData struct {
	Sweep geom.Vec3 `json:"sweep"`
}

func (PrismData) Kind() Kind { return KindPrism }
func (PrismData) nodeData()  {}

func (d PrismData) String() string {
	return fmt.Sprintf("prism(%g, %g, %g)", d.Sweep.X, d.Sweep.Y, d.Sweep.Z)
}

// FaceData is a planar face bounded by its MoveTo/LineTo/ArcTo children.
type FaceData struct{}

func (FaceData) Kind() Kind     { return KindFace }
func (FaceData) nodeData()      {}
func (FaceData) String() string { return "face" }

// MoveToData sets the path cursor without emitting an edge.
type MoveToData struct {
	Point geom.Vec3 `json:"point"`
}

func (MoveToData) Kind() Kind { return KindMoveTo }
func (MoveToData) nodeData()  {}

func (d MoveToData) String() string {
	return fmt.Sprintf("move_to(%g, %g, %g)", d.Point.X, d.Point.Y, d.Point.Z)
}

// LineToData emits a straight edge from the cursor to Point.
type LineToData struct {
	Point geom.Vec3 `json:"point"`
}

func (LineToData) Kind() Kind { return KindLineTo }
func (LineToData) nodeData()  {}

func (d LineToData) String() string {
	return fmt.Sprintf("line_to(%g, %g, %g)", d.Point.X, d.Point.Y, d.Point.Z)
}

// ArcToData emits a circular arc from the cursor through Via to End.
type ArcToData struct {
	Via geom.Vec3 `json:"via"`
	End geom.Vec3 `json:"end"`
}

func (ArcToData) Kind() Kind { return KindArcTo }
func (ArcToData) nodeData()  {}

func (d ArcToData) String() string {
	return fmt.Sprintf("circle_arc_to(%s, %s)", d.Via, d.End)
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// BoxData is an axis-aligned box with one corner at the origin.
type BoxData struct {
	Size geom.Vec3 `json:"size"`
}

func (BoxData) Kind() Kind { return KindBox }
func (BoxData) nodeData()  {}

func (d BoxData) String() string {
	return fmt.Sprintf("box(%g, %g, %g)", d.Size.X, d.Size.Y, d.Size.Z)
}

// WedgeData is a box whose top face (at y = Size.Y) is narrowed to
// x in [0, LTX].
type WedgeData struct {
	Size geom.Vec3 `json:"size"`
	LTX  float64   `json:"ltx"`
}

func (WedgeData) Kind() Kind { return KindWedge }
func (WedgeData) nodeData()  {}

func (d WedgeData) String() string {
	return fmt.Sprintf("wedge(%g, %g, %g, ltx=%g)", d.Size.X, d.Size.Y, d.Size.Z, d.LTX)
}

// SphereData is a sphere centred on the origin.
type SphereData struct {
	Radius float64 `json:"radius"`
}

func (SphereData) Kind() Kind { return KindSphere }
func (SphereData) nodeData()  {}

func (d SphereData) String() string { return fmt.Sprintf("sphere(%g)", d.Radius) }

// CylinderData is a cylinder along +Z starting at the origin.
type CylinderData struct {
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}

func (CylinderData) Kind() Kind { return KindCylinder }
func (CylinderData) nodeData()  {}

func (d CylinderData) String() string {
	return fmt.Sprintf("cylinder(r=%g, h=%g)", d.Radius, d.Height)
}

// ConeData is a (possibly truncated) cone along +Z: radius R0 at z=0 and
// R1 at z=Height.
type ConeData struct {
	R0     float64 `json:"r0"`
	R1     float64 `json:"r1"`
	Height float64 `json:"height"`
}

func (ConeData) Kind() Kind { return KindCone }
func (ConeData) nodeData()  {}

func (d ConeData) String() string {
	return fmt.Sprintf("cone(r0=%g, r1=%g, h=%g)", d.R0, d.R1, d.Height)
}
