// Package mesh turns a kernel shape into one compact indexed triangle mesh.
// Vertices and normals shared between faces are welded so each distinct
// position and direction is stored once.
package mesh

import (
	"fmt"
	"log/slog"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
)

// Triangle references three vertices, in outward winding, and one flat
// normal. Indices are 0-based.
type Triangle struct {
	V [3]int `json:"v"`
	N int    `json:"n"`
}

// Mesh is a welded triangle mesh. Duplicates counts the vertex lookups that
// hit an existing entry during extraction.
type Mesh struct {
	Name       string      `json:"name"`
	Vertices   []geom.Vec3 `json:"vertices"`
	Normals    []geom.Vec3 `json:"normals"`
	Triangles  []Triangle  `json:"triangles"`
	Duplicates int         `json:"-"`
}

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh has zero bounds.
func (m *Mesh) Bounds() (min, max geom.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min.X, max.X = minmax(min.X, max.X, v.X)
		min.Y, max.Y = minmax(min.Y, max.Y, v.Y)
		min.Z, max.Z = minmax(min.Z, max.Z, v.Z)
	}
	return
}

func minmax(lo, hi, v float64) (float64, float64) {
	if v < lo {
		lo = v
	}
	if v > hi {
		hi = v
	}
	return lo, hi
}

// Volume returns the signed volume enclosed by the mesh. It is positive for
// a closed mesh with outward winding.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t.V[0]], m.Vertices[t.V[1]], m.Vertices[t.V[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}

// table assigns indices to vectors by exact equality, in insertion order.
// NaN components never compare equal, so a vector containing one always
// gets a fresh entry.
type table struct {
	index map[geom.Vec3]int
	items []geom.Vec3
	hits  int
}

func newTable() *table {
	return &table{index: make(map[geom.Vec3]int)}
}

func (t *table) add(v geom.Vec3) int {
	if i, ok := t.index[v]; ok {
		t.hits++
		return i
	}
	i := len(t.items)
	t.index[v] = i
	t.items = append(t.items, v)
	return i
}

type options struct {
	name   string
	logger *slog.Logger
}

// Option configures Extract.
type Option func(*options)

// WithName sets the mesh name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger that receives the weld statistics at debug
// level. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Extract triangulates s with the given tolerance and welds the faces into
// one mesh. Triangles of reversed faces have their winding swapped so every
// triangle winds outward; each normal is computed from the stored order.
// Degenerate triangles are kept.
func Extract(k kernel.Kernel, s kernel.Shape, tol kernel.Tolerance, opts ...Option) (*Mesh, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := tol.Validate(); err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	faces, err := k.Triangulate(s, tol)
	if err != nil {
		return nil, fmt.Errorf("mesh: triangulate: %w", err)
	}

	verts, norms := newTable(), newTable()
	m := &Mesh{Name: o.name}
	for fi := range faces {
		f := &faces[fi]
		local := make([]int, len(f.Nodes))
		for i, p := range f.Nodes {
			local[i] = verts.add(p)
		}
		for _, tri := range f.Triangles {
			for _, idx := range tri {
				if idx < 0 || idx >= len(local) {
					return nil, fmt.Errorf("mesh: face %d: node index %d out of range [0, %d)", fi, idx, len(local))
				}
			}
			v := [3]int{local[tri[0]], local[tri[1]], local[tri[2]]}
			if f.Reversed {
				v[0], v[2] = v[2], v[0]
			}
			p0, p1, p2 := verts.items[v[0]], verts.items[v[1]], verts.items[v[2]]
			n := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
			m.Triangles = append(m.Triangles, Triangle{V: v, N: norms.add(n)})
		}
	}
	m.Vertices = verts.items
	m.Normals = norms.items
	m.Duplicates = verts.hits

	logger.Debug("mesh extracted",
		"name", m.Name,
		"kernel", k.Name(),
		"faces", len(faces),
		"vertices", len(m.Vertices),
		"normals", len(m.Normals),
		"triangles", len(m.Triangles),
		"duplicates", m.Duplicates)
	return m, nil
}
