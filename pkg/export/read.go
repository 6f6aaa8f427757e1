package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/mesh"
)

// ReadOBJ parses the subset of OBJ that WriteOBJ produces: one object of
// triangles in "f v//n v//n v//n" form. Coordinates are converted back to
// model space and indices to 0-based. Each triangle takes the normal of its
// first corner.
func ReadOBJ(r io.Reader) (*mesh.Mesh, error) {
	m := &mesh.Mesh{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "o":
			if len(fields) > 1 {
				m.Name = fields[1]
			}
		case "v", "vn":
			var v geom.Vec3
			if v, err = parseVec(fields[1:]); err == nil {
				if fields[0] == "v" {
					m.Vertices = append(m.Vertices, unswizzle(v))
				} else {
					m.Normals = append(m.Normals, unswizzle(v))
				}
			}
		case "f":
			var t mesh.Triangle
			if t, err = parseFace(fields[1:], len(m.Vertices), len(m.Normals)); err == nil {
				m.Triangles = append(m.Triangles, t)
			}
		case "mtllib", "usemtl", "s":
		default:
			err = fmt.Errorf("unsupported record %q", fields[0])
		}
		if err != nil {
			return nil, fmt.Errorf("obj line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	return m, nil
}

func parseVec(fields []string) (geom.Vec3, error) {
	if len(fields) != 3 {
		return geom.Vec3{}, fmt.Errorf("want 3 coordinates, got %d", len(fields))
	}
	var c [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geom.Vec3{}, err
		}
		c[i] = x
	}
	return geom.V(c[0], c[1], c[2]), nil
}

// parseFace reads three "v//n" corners. Indices refer to the records read
// so far.
func parseFace(fields []string, nv, nn int) (mesh.Triangle, error) {
	var t mesh.Triangle
	if len(fields) != 3 {
		return t, fmt.Errorf("want a triangle, got %d corners", len(fields))
	}
	for i, f := range fields {
		vs, ns, ok := strings.Cut(f, "//")
		if !ok {
			return t, fmt.Errorf("corner %q is not in v//n form", f)
		}
		v, err := index(vs, nv)
		if err != nil {
			return t, fmt.Errorf("vertex: %w", err)
		}
		n, err := index(ns, nn)
		if err != nil {
			return t, fmt.Errorf("normal: %w", err)
		}
		t.V[i] = v
		if i == 0 {
			t.N = n
		}
	}
	return t, nil
}

func index(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 1 || i > count {
		return 0, fmt.Errorf("index %d out of range [1, %d]", i, count)
	}
	return i - 1, nil
}
