//go:build !manifold

package manifold

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/cgtree/pkg/kernel"
)

func TestNewReturnsError(t *testing.T) {
	k, err := New(kernel.DefaultTolerance())
	if err == nil {
		t.Fatal("New() error = nil, want non-nil error when manifold tag is not set")
	}
	if k != nil {
		t.Fatal("New() returned non-nil kernel, want nil when manifold tag is not set")
	}
	if !errors.Is(err, kernel.ErrUnsupported) {
		t.Errorf("New() error = %v, want ErrUnsupported", err)
	}
	if !strings.HasPrefix(err.Error(), "manifold kernel not available") {
		t.Errorf("New() error = %q", err.Error())
	}
}
