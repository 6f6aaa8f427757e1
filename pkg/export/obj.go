// Package export writes welded meshes to files: Wavefront OBJ with a
// one-material MTL companion, JSON and binary STL.
//
// OBJ output is Y-up: model coordinates (x, y, z) are written as
// (x, z, -y). Indices are 1-based and every face corner pairs a vertex with
// the triangle's flat normal.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/mesh"
)

// Material is the single flat material referenced by every exported mesh.
type Material struct {
	Name     string
	Diffuse  [3]float64
	Specular [3]float64
}

// DefaultMaterial is plain gray with a faint highlight.
func DefaultMaterial() Material {
	return Material{
		Name:     "gray",
		Diffuse:  [3]float64{0.7, 0.7, 0.7},
		Specular: [3]float64{0.2, 0.2, 0.2},
	}
}

// swizzle converts model space to the Y-up file convention.
func swizzle(v geom.Vec3) geom.Vec3 {
	return geom.Vec3{X: v.X, Y: v.Z, Z: 0 - v.Y}
}

// unswizzle undoes swizzle.
func unswizzle(v geom.Vec3) geom.Vec3 {
	return geom.Vec3{X: v.X, Y: 0 - v.Z, Z: v.Y}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func writeVec(w *bufio.Writer, tag string, v geom.Vec3) {
	w.WriteString(tag)
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		w.WriteByte(' ')
		w.WriteString(ftoa(c))
	}
	w.WriteByte('\n')
}

// WriteOBJ writes m as one named object. mtllib is the file name of the
// material library; it is omitted when empty.
func WriteOBJ(w io.Writer, m *mesh.Mesh, mtllib string, mat Material) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# cgtree\n")
	if mtllib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", mtllib)
	}
	fmt.Fprintf(bw, "o %s\n", objectName(m.Name))
	for _, v := range m.Vertices {
		writeVec(bw, "v", swizzle(v))
	}
	for _, n := range m.Normals {
		writeVec(bw, "vn", swizzle(n))
	}
	fmt.Fprintf(bw, "usemtl %s\n", mat.Name)
	bw.WriteString("s off\n")
	for _, t := range m.Triangles {
		n := t.N + 1
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n",
			t.V[0]+1, n, t.V[1]+1, n, t.V[2]+1, n)
	}
	return bw.Flush()
}

// objectName keeps the "o" record on one token.
func objectName(name string) string {
	if name == "" {
		return "object"
	}
	b := []byte(name)
	for i, c := range b {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			b[i] = '_'
		}
	}
	return string(b)
}

// WriteMTL writes the material library.
func WriteMTL(w io.Writer, mat Material) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# cgtree\n")
	fmt.Fprintf(bw, "newmtl %s\n", mat.Name)
	fmt.Fprintf(bw, "Kd %s %s %s\n", ftoa(mat.Diffuse[0]), ftoa(mat.Diffuse[1]), ftoa(mat.Diffuse[2]))
	fmt.Fprintf(bw, "Ks %s %s %s\n", ftoa(mat.Specular[0]), ftoa(mat.Specular[1]), ftoa(mat.Specular[2]))
	bw.WriteString("illum 2\n")
	return bw.Flush()
}
