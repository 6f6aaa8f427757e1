package polyhedral

import (
	"math"

	"github.com/chazu/cgtree/pkg/geom"
)

// affine is a rigid placement: p' = m*p + t.
type affine struct {
	m [3][3]float64
	t geom.Vec3
}

func identity() affine {
	return affine{m: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

func translation(v geom.Vec3) affine {
	a := identity()
	a.t = v
	return a
}

// rotation returns the rotation by radians around unit axis k through the
// origin (Rodrigues' formula). Sines and cosines within a rounding error of
// 0 or ±1 are snapped so quarter turns stay exact.
func rotation(k geom.Vec3, radians float64) affine {
	c, s := snap(math.Cos(radians)), snap(math.Sin(radians))
	t := 1 - c
	return affine{m: [3][3]float64{
		{c + k.X*k.X*t, k.X*k.Y*t - k.Z*s, k.X*k.Z*t + k.Y*s},
		{k.Y*k.X*t + k.Z*s, c + k.Y*k.Y*t, k.Y*k.Z*t - k.X*s},
		{k.Z*k.X*t - k.Y*s, k.Z*k.Y*t + k.X*s, c + k.Z*k.Z*t},
	}}
}

func snap(x float64) float64 {
	for _, v := range []float64{-1, 0, 1} {
		if math.Abs(x-v) < 1e-15 {
			return v
		}
	}
	return x
}

func (a affine) dir(p geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: a.m[0][0]*p.X + a.m[0][1]*p.Y + a.m[0][2]*p.Z,
		Y: a.m[1][0]*p.X + a.m[1][1]*p.Y + a.m[1][2]*p.Z,
		Z: a.m[2][0]*p.X + a.m[2][1]*p.Y + a.m[2][2]*p.Z,
	}
}

func (a affine) apply(p geom.Vec3) geom.Vec3 {
	return a.dir(p).Add(a.t)
}

// then returns the placement that applies a first and b second.
func (a affine) then(b affine) affine {
	var out affine
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out.m[i][j] += b.m[i][k] * a.m[k][j]
			}
		}
	}
	out.t = b.apply(a.t)
	return out
}
