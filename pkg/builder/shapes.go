package builder

import (
	"math"

	"github.com/chazu/cgtree/pkg/geom"
)

// RoundedQuad adds a face in the XY plane: an sx by sy rectangle from the
// origin with corners rounded to radius r.
func (s *Session) RoundedQuad(sx, sy, r float64) {
	s.Face(func() {
		cc := math.Sin(math.Pi/4) * r
		s.MoveTo(geom.V(r, 0, 0))
		s.LineTo(geom.V(sx-r, 0, 0))
		s.ArcTo(geom.V(sx-r+cc, r-cc, 0), geom.V(sx, r, 0))
		s.LineTo(geom.V(sx, sy-r, 0))
		s.ArcTo(geom.V(sx-r+cc, sy-r+cc, 0), geom.V(sx-r, sy, 0))
		s.LineTo(geom.V(r, sy, 0))
		s.ArcTo(geom.V(r-cc, sy-r+cc, 0), geom.V(0, sy-r, 0))
		s.LineTo(geom.V(0, r, 0))
		s.ArcTo(geom.V(r-cc, r-cc, 0), geom.V(r, 0, 0))
	})
}

// RoundedBox adds a RoundedQuad extruded by sz along +Z.
func (s *Session) RoundedBox(sx, sy, sz, r float64) {
	s.Prism(geom.ZAxis(sz), func() {
		s.RoundedQuad(sx, sy, r)
	})
}
