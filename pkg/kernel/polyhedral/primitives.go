package polyhedral

import (
	"fmt"
	"math"

	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
)

// Box implements kernel.Kernel. The box spans the origin to size.
func (k *Kernel) Box(size geom.Vec3) (kernel.Shape, error) {
	if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
		return nil, fmt.Errorf("box %s: %w", size, kernel.ErrDegenerate)
	}
	x, y, z := size.X, size.Y, size.Z
	quads := [6][4]geom.Vec3{
		{{}, {Z: z}, {Y: y, Z: z}, {Y: y}},                       // -X
		{{X: x}, {X: x, Y: y}, {X: x, Y: y, Z: z}, {X: x, Z: z}}, // +X
		{{}, {X: x}, {X: x, Z: z}, {Z: z}},                       // -Y
		{{Y: y}, {Y: y, Z: z}, {X: x, Y: y, Z: z}, {X: x, Y: y}}, // +Y
		{{}, {Y: y}, {X: x, Y: y}, {X: x}},                       // -Z
		{{Z: z}, {X: x, Z: z}, {X: x, Y: y, Z: z}, {Y: y, Z: z}}, // +Z
	}
	var ids [6]int64
	for i := range ids {
		ids[i] = k.newFace()
	}
	return &shape{k: k, build: func(kernel.Tolerance) []*polygon {
		polys := make([]*polygon, 0, 6)
		for i, q := range quads {
			polys = append(polys, newPolygon(q[:], ids[i], planarFace(newell(q[:]))))
		}
		return polys
	}}, nil
}

// Wedge implements kernel.Kernel. The XY profile (0,0) (x,0) (ltx,y) (0,y)
// is extruded along +Z by size.Z; ltx 0 gives a triangular prism.
func (k *Kernel) Wedge(size geom.Vec3, ltx float64) (kernel.Shape, error) {
	if !(size.X > 0 && size.Y > 0 && size.Z > 0) || ltx < 0 {
		return nil, fmt.Errorf("wedge %s ltx %g: %w", size, ltx, kernel.ErrDegenerate)
	}
	corners := dedupe([]geom.Vec3{{}, {X: size.X}, {X: ltx, Y: size.Y}, {Y: size.Y}})
	edges := make([]kernel.Edge, len(corners))
	for i, c := range corners {
		l, err := kernel.NewLine(c, corners[(i+1)%len(corners)])
		if err != nil {
			return nil, fmt.Errorf("wedge: %w", err)
		}
		edges[i] = l
	}
	face, err := k.Face(edges)
	if err != nil {
		return nil, fmt.Errorf("wedge: %w", err)
	}
	return k.Extrude(face, geom.V(0, 0, size.Z))
}

// Sphere implements kernel.Kernel. The sphere is centred on the origin and
// is a single face.
func (k *Kernel) Sphere(radius float64) (kernel.Shape, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("sphere radius %g: %w", radius, kernel.ErrDegenerate)
	}
	id := k.newFace()
	return &shape{k: k, build: func(tol kernel.Tolerance) []*polygon {
		slices := tol.Segments(radius, 2*math.Pi)
		stacks := tol.Segments(radius, math.Pi)
		if stacks < 2 {
			stacks = 2
		}
		grid := make([][]geom.Vec3, stacks+1)
		for i := range grid {
			phi := math.Pi * float64(i) / float64(stacks)
			sp, cp := snap(math.Sin(phi)), snap(math.Cos(phi))
			grid[i] = make([]geom.Vec3, slices)
			for j := range grid[i] {
				theta := 2 * math.Pi * float64(j) / float64(slices)
				st, ct := snap(math.Sin(theta)), snap(math.Cos(theta))
				grid[i][j] = geom.V(radius*sp*ct, radius*sp*st, radius*cp)
			}
		}
		var polys []*polygon
		for i := 0; i < stacks; i++ {
			for j := 0; j < slices; j++ {
				jn := (j + 1) % slices
				verts := dedupe([]geom.Vec3{grid[i][j], grid[i+1][j], grid[i+1][jn], grid[i][jn]})
				if len(verts) >= 3 {
					polys = append(polys, newPolygon(verts, id, false))
				}
			}
		}
		return polys
	}}, nil
}

// Cylinder implements kernel.Kernel. The axis runs from the origin along +Z.
func (k *Kernel) Cylinder(radius, height float64) (kernel.Shape, error) {
	if !(radius > 0 && height > 0) {
		return nil, fmt.Errorf("cylinder r=%g h=%g: %w", radius, height, kernel.ErrDegenerate)
	}
	return k.frustum(radius, radius, height), nil
}

// Cone implements kernel.Kernel. r0 is the radius at z=0 and r1 at z=height;
// either may be zero.
func (k *Kernel) Cone(r0, r1, height float64) (kernel.Shape, error) {
	if r0 < 0 || r1 < 0 || (r0 == 0 && r1 == 0) || !(height > 0) {
		return nil, fmt.Errorf("cone r0=%g r1=%g h=%g: %w", r0, r1, height, kernel.ErrDegenerate)
	}
	return k.frustum(r0, r1, height), nil
}

func (k *Kernel) frustum(r0, r1, height float64) *shape {
	side, bottom, top := k.newFace(), k.newFace(), k.newFace()
	return &shape{k: k, build: func(tol kernel.Tolerance) []*polygon {
		n := tol.Segments(math.Max(r0, r1), 2*math.Pi)
		lower := make([]geom.Vec3, n)
		upper := make([]geom.Vec3, n)
		for i := 0; i < n; i++ {
			theta := 2 * math.Pi * float64(i) / float64(n)
			c, s := snap(math.Cos(theta)), snap(math.Sin(theta))
			lower[i] = geom.V(r0*c, r0*s, 0)
			upper[i] = geom.V(r1*c, r1*s, height)
		}
		var polys []*polygon
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			verts := dedupe([]geom.Vec3{lower[i], lower[j], upper[j], upper[i]})
			polys = append(polys, newPolygon(verts, side, false))
		}
		if r0 > 0 {
			ring := make([]geom.Vec3, n)
			for i := range lower {
				ring[n-1-i] = lower[i]
			}
			polys = append(polys, newPolygon(ring, bottom, true))
		}
		if r1 > 0 {
			polys = append(polys, newPolygon(upper, top, false))
		}
		return polys
	}}
}

// dedupe drops consecutive repeated points, treating the list as a loop.
func dedupe(pts []geom.Vec3) []geom.Vec3 {
	out := make([]geom.Vec3, 0, len(pts))
	for i, p := range pts {
		if p != pts[(i+1)%len(pts)] {
			out = append(out, p)
		}
	}
	return out
}
