package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/mesh"
)

const stlHeaderSize = 80

// stlTriangle is one binary STL record.
type stlTriangle struct {
	N, V1, V2, V3 [3]float32
	_             uint16
}

func float32s(v geom.Vec3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// WriteSTL writes m as binary STL in model coordinates. STL has no shared
// vertices, so every triangle repeats its corners.
func WriteSTL(w io.Writer, m *mesh.Mesh) error {
	if uint64(len(m.Triangles)) > math.MaxUint32 {
		return fmt.Errorf("stl: %d triangles do not fit the header count", len(m.Triangles))
	}
	bw := bufio.NewWriter(w)
	var header [stlHeaderSize]byte
	copy(header[:], "cgtree "+m.Name)
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return err
	}
	for _, t := range m.Triangles {
		n := m.Normals[t.N]
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			n = geom.Vec3{}
		}
		rec := stlTriangle{
			N:  float32s(n),
			V1: float32s(m.Vertices[t.V[0]]),
			V2: float32s(m.Vertices[t.V[1]]),
			V3: float32s(m.Vertices[t.V[2]]),
		}
		if err := binary.Write(bw, binary.LittleEndian, &rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}
