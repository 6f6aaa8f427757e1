package export

import (
	"io"
	"math"

	json "github.com/goccy/go-json"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/mesh"
)

type jsonMesh struct {
	Name      string          `json:"name"`
	Vertices  [][3]float64    `json:"vertices"`
	Normals   [][3]float64    `json:"normals"`
	Triangles []mesh.Triangle `json:"triangles"`
}

func triples(vs []geom.Vec3) [][3]float64 {
	out := make([][3]float64, len(vs))
	for i, v := range vs {
		out[i] = [3]float64{v.X, v.Y, v.Z}
	}
	return out
}

// WriteJSON writes m in model coordinates with 0-based indices. Degenerate
// triangles have NaN normals, which JSON cannot carry; they are written as
// zero vectors.
func WriteJSON(w io.Writer, m *mesh.Mesh) error {
	normals := triples(m.Normals)
	for i, n := range normals {
		if math.IsNaN(n[0]) || math.IsNaN(n[1]) || math.IsNaN(n[2]) {
			normals[i] = [3]float64{}
		}
	}
	tris := m.Triangles
	if tris == nil {
		tris = []mesh.Triangle{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonMesh{
		Name:      m.Name,
		Vertices:  triples(m.Vertices),
		Normals:   normals,
		Triangles: tris,
	})
}

// ReadJSON decodes a mesh written by WriteJSON.
func ReadJSON(r io.Reader) (*mesh.Mesh, error) {
	var jm jsonMesh
	if err := json.NewDecoder(r).Decode(&jm); err != nil {
		return nil, err
	}
	m := &mesh.Mesh{Name: jm.Name, Triangles: jm.Triangles}
	for _, v := range jm.Vertices {
		m.Vertices = append(m.Vertices, geom.V(v[0], v[1], v[2]))
	}
	for _, n := range jm.Normals {
		m.Normals = append(m.Normals, geom.V(n[0], n[1], n[2]))
	}
	return m, nil
}
