package kernel

import "github.com/chazu/cgtree/pkg/geom"

// FaceMesh is the local triangulation of one kernel face. Nodes are in model
// space with every placement already applied. Triangles index into Nodes in
// the winding of the underlying surface; Reversed reports that the face is
// used with the opposite orientation, so consumers must swap the winding to
// get outward-facing triangles.
type FaceMesh struct {
	Nodes     []geom.Vec3
	Triangles [][3]int
	Reversed  bool
}

// NodeCount returns the number of nodes.
func (m *FaceMesh) NodeCount() int {
	return len(m.Nodes)
}

// TriangleCount returns the number of triangles.
func (m *FaceMesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the face has no triangles.
func (m *FaceMesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// CountTriangles sums the triangle counts of faces.
func CountTriangles(faces []FaceMesh) int {
	n := 0
	for i := range faces {
		n += faces[i].TriangleCount()
	}
	return n
}
