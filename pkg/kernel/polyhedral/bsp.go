package polyhedral

// node is a BSP tree node. A node without a plane holds nothing.
type node struct {
	pl       *plane
	front    *node
	back     *node
	polygons []*polygon
}

func newNode(polys []*polygon) *node {
	n := &node{}
	n.build(polys)
	return n
}

// invert converts solid space to empty space and empty space to solid space.
func (n *node) invert() {
	for _, p := range n.polygons {
		p.flip()
	}
	if n.pl != nil {
		f := n.pl.flipped()
		n.pl = &f
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys that are inside this tree.
func (n *node) clipPolygons(polys []*polygon) []*polygon {
	if n.pl == nil {
		out := make([]*polygon, len(polys))
		copy(out, polys)
		return out
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.pl.split(p, &fronts, &backs, &fronts, &backs)
	}
	if n.front != nil {
		fronts = n.front.clipPolygons(fronts)
	}
	if n.back != nil {
		backs = n.back.clipPolygons(backs)
	} else {
		backs = nil
	}
	return append(fronts, backs...)
}

// clipTo removes the parts of this tree's polygons that are inside other.
func (n *node) clipTo(other *node) {
	n.polygons = other.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []*polygon {
	out := append([]*polygon(nil), n.polygons...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

func (n *node) build(polys []*polygon) {
	if len(polys) == 0 {
		return
	}
	if n.pl == nil {
		pl := polys[0].pl
		n.pl = &pl
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.pl.split(p, &n.polygons, &n.polygons, &fronts, &backs)
	}
	if len(fronts) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(fronts)
	}
	if len(backs) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(backs)
	}
}

func clonePolygons(polys []*polygon) []*polygon {
	out := make([]*polygon, len(polys))
	for i, p := range polys {
		out[i] = p.clone()
	}
	return out
}

// A tree without a plane clips nothing, which is wrong once it has been
// inverted, so empty operands are settled before building any trees.

func union(pa, pb []*polygon) []*polygon {
	switch {
	case len(pa) == 0:
		return clonePolygons(pb)
	case len(pb) == 0:
		return clonePolygons(pa)
	}
	a := newNode(clonePolygons(pa))
	b := newNode(clonePolygons(pb))
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	return a.allPolygons()
}

func subtract(pa, pb []*polygon) []*polygon {
	switch {
	case len(pa) == 0:
		return nil
	case len(pb) == 0:
		return clonePolygons(pa)
	}
	a := newNode(clonePolygons(pa))
	b := newNode(clonePolygons(pb))
	a.invert()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	a.invert()
	return a.allPolygons()
}

func intersect(pa, pb []*polygon) []*polygon {
	if len(pa) == 0 || len(pb) == 0 {
		return nil
	}
	a := newNode(clonePolygons(pa))
	b := newNode(clonePolygons(pb))
	a.invert()
	b.clipTo(a)
	b.invert()
	a.clipTo(b)
	b.clipTo(a)
	a.build(b.allPolygons())
	a.invert()
	return a.allPolygons()
}
