//go:build !manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library. When the "manifold" build tag is not set, this stub
// package is compiled instead, returning an error from New().
//
// Build with: go build -tags=manifold
package manifold

import (
	"fmt"

	"github.com/chazu/cgtree/pkg/kernel"
)

// New returns an error indicating Manifold is not available.
// Build with -tags=manifold to enable.
func New(kernel.Tolerance) (kernel.Kernel, error) {
	return nil, fmt.Errorf("manifold kernel not available: build with -tags=manifold: %w", kernel.ErrUnsupported)
}
