package builder

import (
	"errors"
	"fmt"

	"github.com/chazu/cgtree/pkg/scene"
)

// Construction errors. They are returned wrapped in a *ConstructionError.
var (
	ErrNestedObject    = errors.New("an object is already under construction")
	ErrNoOpenScope     = errors.New("no open scope")
	ErrLeafScope       = errors.New("leaf nodes cannot have children")
	ErrContainerKind   = errors.New("container kinds must be opened, not added")
	ErrNotPathSegment  = errors.New("face children must be move-to, line-to or arc-to")
	ErrPathOutsideFace = errors.New("path segments are only valid inside a face")
	ErrUnbalanced      = errors.New("object closed with scopes still open")
)

// ConstructionError reports misuse of the builder. Op is the builder call
// that failed and Kind the node kind it was given.
type ConstructionError struct {
	Op   string
	Kind scene.Kind
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("builder: %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
