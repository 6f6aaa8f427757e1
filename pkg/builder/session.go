// Package builder assembles scene trees through a scope stack. Container
// calls open a scope that later calls append into; leaf calls append without
// opening one. Closing the outermost scope hands the finished tree to the
// session's ObjectHandler.
package builder

import (
	"log/slog"

	"github.com/chazu/cgtree/pkg/scene"
)

// ObjectHandler receives each finished Object tree. The session forgets the
// tree as soon as the handler returns, whatever it returns.
type ObjectHandler func(root *scene.Node) error

// Session is one construction context: at most one pending Object and the
// stack of scopes open inside it. A Session is not safe for concurrent use;
// independent constructions use independent sessions.
type Session struct {
	handler ObjectHandler
	logger  *slog.Logger

	root  *scene.Node
	stack []*scene.Node

	// err is the first error seen by the block helpers.
	err error
}

// Option configures a Session.
type Option func(*Session)

// WithHandler sets the function run when an Object scope closes.
func WithHandler(h ObjectHandler) Option {
	return func(s *Session) { s.handler = h }
}

// WithLogger sets the session logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ObjectOption adjusts the payload of a new Object.
type ObjectOption func(*scene.ObjectData)

// WithDeflection overrides the tessellation tolerance for one Object.
func WithDeflection(linear float64, relative bool, angular float64) ObjectOption {
	return func(d *scene.ObjectData) {
		d.Deflection = &scene.Deflection{Linear: linear, Relative: relative, Angular: angular}
	}
}

// Pending reports whether an Object is under construction.
func (s *Session) Pending() bool {
	return s.root != nil
}

// Depth returns the number of open scopes.
func (s *Session) Depth() int {
	return len(s.stack)
}

// Root returns the pending Object, or nil.
func (s *Session) Root() *scene.Node {
	return s.root
}

func (s *Session) top() *scene.Node {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// BeginObject starts a new Object and opens it as the only scope. Any error
// recorded for an earlier Object is dropped.
func (s *Session) BeginObject(name string, opts ...ObjectOption) error {
	if s.root != nil {
		return &ConstructionError{Op: "begin", Kind: scene.KindObject, Err: ErrNestedObject}
	}
	d := scene.ObjectData{Name: name}
	for _, o := range opts {
		o(&d)
	}
	s.root = scene.NewNode(d)
	s.stack = []*scene.Node{s.root}
	s.err = nil
	s.logger.Debug("begin object", "name", name)
	return nil
}

// checkChild verifies that a node of kind k may be appended to the top scope.
func (s *Session) checkChild(op string, k scene.Kind) (*scene.Node, error) {
	if k == scene.KindObject {
		return nil, &ConstructionError{Op: op, Kind: k, Err: ErrNestedObject}
	}
	parent := s.top()
	if parent == nil {
		return nil, &ConstructionError{Op: op, Kind: k, Err: ErrNoOpenScope}
	}
	switch pk := parent.Kind(); {
	case pk.IsLeaf():
		return nil, &ConstructionError{Op: op, Kind: k, Err: ErrLeafScope}
	case pk == scene.KindFace && !k.IsPathSegment():
		return nil, &ConstructionError{Op: op, Kind: k, Err: ErrNotPathSegment}
	case pk != scene.KindFace && k.IsPathSegment():
		return nil, &ConstructionError{Op: op, Kind: k, Err: ErrPathOutsideFace}
	}
	return parent, nil
}

// OpenContainer appends a container node to the current scope and makes it
// the current scope.
func (s *Session) OpenContainer(d scene.NodeData) error {
	k := d.Kind()
	if k.IsLeaf() {
		return &ConstructionError{Op: "open", Kind: k, Err: ErrLeafScope}
	}
	parent, err := s.checkChild("open", k)
	if err != nil {
		return err
	}
	n := scene.NewNode(d)
	parent.Append(n)
	s.stack = append(s.stack, n)
	return nil
}

// AddLeaf appends a leaf node to the current scope.
func (s *Session) AddLeaf(d scene.NodeData) error {
	k := d.Kind()
	if !k.IsLeaf() {
		return &ConstructionError{Op: "add", Kind: k, Err: ErrContainerKind}
	}
	parent, err := s.checkChild("add", k)
	if err != nil {
		return err
	}
	parent.Append(scene.NewNode(d))
	return nil
}

// CloseScope closes the current scope. Closing the Object itself runs the
// handler and leaves the session ready for the next Object.
func (s *Session) CloseScope() error {
	n := s.top()
	if n == nil {
		return &ConstructionError{Op: "close", Kind: scene.KindObject, Err: ErrNoOpenScope}
	}
	s.stack = s.stack[:len(s.stack)-1]
	if len(s.stack) > 0 {
		return nil
	}

	root := s.root
	s.root = nil
	s.logger.Debug("close object", "name", scene.RootPath(root), "nodes", scene.Count(root))
	if s.handler == nil {
		return nil
	}
	return s.handler(root)
}

// Reset discards the pending Object, any open scopes and the recorded error.
func (s *Session) Reset() {
	if s.root != nil {
		s.logger.Debug("discard object", "name", scene.RootPath(s.root))
	}
	s.root = nil
	s.stack = nil
	s.err = nil
}
