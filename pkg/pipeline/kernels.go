package pipeline

import (
	"fmt"

	"github.com/chazu/cgtree/pkg/config"
	"github.com/chazu/cgtree/pkg/kernel"
	"github.com/chazu/cgtree/pkg/kernel/manifold"
	"github.com/chazu/cgtree/pkg/kernel/polyhedral"
	"github.com/chazu/cgtree/pkg/kernel/sdfx"
)

// OpenKernel returns the kernel named by cfg.Kernel, set up from cfg.
func OpenKernel(cfg config.Config) (kernel.Kernel, error) {
	switch cfg.Kernel {
	case config.KernelPolyhedral:
		return polyhedral.New(), nil
	case config.KernelSdfx:
		k := sdfx.New()
		k.MinCells = cfg.Sdfx.MinCells
		k.MaxCells = cfg.Sdfx.MaxCells
		k.Profile = cfg.KernelTolerance()
		return k, nil
	case config.KernelManifold:
		return manifold.New(cfg.KernelTolerance())
	default:
		return nil, fmt.Errorf("unknown kernel %q", cfg.Kernel)
	}
}
