package polyhedral

// earClip triangulates a simple polygon given as 2D points in
// counter-clockwise order. It returns index triples into the input, each
// counter-clockwise.
func earClip(xs, ys []float64) [][3]int {
	n := len(xs)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	cross := func(a, b, c int) float64 {
		return (xs[b]-xs[a])*(ys[c]-ys[a]) - (ys[b]-ys[a])*(xs[c]-xs[a])
	}
	inside := func(p, a, b, c int) bool {
		return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
	}

	var tris [][3]int
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			a := idx[(i+len(idx)-1)%len(idx)]
			b := idx[i]
			c := idx[(i+1)%len(idx)]
			if cross(a, b, c) <= 1e-12 {
				continue
			}
			ear := true
			for _, p := range idx {
				if p == a || p == b || p == c {
					continue
				}
				if xs[p] == xs[b] && ys[p] == ys[b] {
					continue
				}
				if inside(p, a, b, c) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			tris = append(tris, [3]int{a, b, c})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Only collinear or degenerate corners are left.
			for i := 1; i+1 < len(idx); i++ {
				if cross(idx[0], idx[i], idx[i+1]) > 0 {
					tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
				}
			}
			return tris
		}
	}
	if cross(idx[0], idx[1], idx[2]) > 0 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris
}
