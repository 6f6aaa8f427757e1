package scene

// Kind enumerates the node kinds of the scene tree.
type Kind int

const (
	KindObject    Kind = iota // root of one exported solid
	KindGroup                 // plain aggregate, no geometric interaction
	KindTranslate             // translation of the grouped children
	KindRotate                // rotation of the grouped children
	KindCut                   // first child minus the rest, left fold
	KindFuse                  // union, left fold
	KindCommon                // intersection, left fold
	KindFillet                // fuse children, round every edge
	KindPrism                 // linear extrusion of a profile
	KindFace                  // planar face bounded by path segments
	KindBox
	KindWedge
	KindSphere
	KindCylinder
	KindCone
	KindMoveTo
	KindLineTo
	KindArcTo
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindGroup:
		return "group"
	case KindTranslate:
		return "translate"
	case KindRotate:
		return "rotate"
	case KindCut:
		return "cut"
	case KindFuse:
		return "fuse"
	case KindCommon:
		return "common"
	case KindFillet:
		return "fillet"
	case KindPrism:
		return "prism"
	case KindFace:
		return "face"
	case KindBox:
		return "box"
	case KindWedge:
		return "wedge"
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindCone:
		return "cone"
	case KindMoveTo:
		return "move-to"
	case KindLineTo:
		return "line-to"
	case KindArcTo:
		return "arc-to"
	default:
		return "unknown"
	}
}

// IsLeaf reports whether nodes of this kind never have children.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindBox, KindWedge, KindSphere, KindCylinder, KindCone,
		KindMoveTo, KindLineTo, KindArcTo:
		return true
	}
	return false
}

// IsPathSegment reports whether the kind is only valid as a face child.
func (k Kind) IsPathSegment() bool {
	return k == KindMoveTo || k == KindLineTo || k == KindArcTo
}

// IsBoolean reports whether the kind folds its children with a boolean op.
func (k Kind) IsBoolean() bool {
	return k == KindCut || k == KindFuse || k == KindCommon
}

// Node is the fundamental element of the scene tree. Children are owned by
// their parent; no node appears under more than one parent.
type Node struct {
	Data     NodeData `json:"data"`
	Children []*Node  `json:"children,omitempty"`
}

// NewNode returns a childless node carrying d.
func NewNode(d NodeData) *Node {
	return &Node{Data: d}
}

// Kind returns the kind of the node's payload.
func (n *Node) Kind() Kind {
	return n.Data.Kind()
}

// Append adds c as the last child of n.
func (n *Node) Append(c *Node) {
	n.Children = append(n.Children, c)
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	Kind() Kind
	nodeData() // marker method restricting implementations to this package
}
