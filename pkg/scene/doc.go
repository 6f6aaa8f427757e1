// Package scene defines the scene tree for cgtree.
// A scene tree is a strict tree of typed nodes describing one solid Object:
// primitives, affine transforms, boolean combinations, swept profiles and
// edge rounding. Trees are built by package builder and lowered into
// geometry by package lower.
package scene
