package scene

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// indentUnit is the per-depth indentation of Dump.
const indentUnit = "   "

// Label returns the payload's textual form, e.g. "box(2, 2, 2)".
func (n *Node) Label() string {
	if s, ok := n.Data.(fmt.Stringer); ok {
		return s.String()
	}
	return n.Kind().String()
}

// Dump writes an indented textual form of the tree rooted at n. Leaves end
// with ";", containers open a "{ ... }" block.
func Dump(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	dumpRec(bw, n, 0)
	return bw.Flush()
}

func dumpRec(w *bufio.Writer, n *Node, depth int) {
	tab := strings.Repeat(indentUnit, depth)
	w.WriteString(tab)
	w.WriteString(n.Label())
	if n.Kind().IsLeaf() {
		w.WriteString(";\n")
		return
	}
	w.WriteString(" {\n")
	for _, c := range n.Children {
		dumpRec(w, c, depth+1)
	}
	w.WriteString(tab)
	w.WriteString("}\n")
}

// RootPath is the path string of an Object root: the Object name, or the
// kind name for any other root.
func RootPath(n *Node) string {
	if od, ok := n.Data.(ObjectData); ok && od.Name != "" {
		return od.Name
	}
	return n.Kind().String()
}

// ChildPath extends a parent path with the i-th child, e.g.
// "Thingy/cut[0]".
func ChildPath(parent string, child *Node, i int) string {
	return fmt.Sprintf("%s/%s[%d]", parent, child.Kind(), i)
}

// Walk visits n and its descendants depth-first in declaration order,
// passing each node's path. Returning false from fn skips that node's
// children.
func Walk(n *Node, fn func(n *Node, path string) bool) {
	walkRec(n, RootPath(n), fn)
}

func walkRec(n *Node, path string, fn func(*Node, string) bool) {
	if !fn(n, path) {
		return
	}
	for i, c := range n.Children {
		walkRec(c, ChildPath(path, c, i), fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node, string) bool {
		total++
		return true
	})
	return total
}
