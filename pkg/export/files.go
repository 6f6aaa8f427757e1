package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/cgtree/pkg/mesh"
)

// Basename returns the base file name of the n-th exported object, counting
// from 1: the first object uses base itself and later ones base-n.
func Basename(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// Files writes base.obj and base.mtl and returns their paths. The OBJ file
// references the MTL file by its base name so the pair can be moved
// together.
func Files(base string, m *mesh.Mesh, mat Material) ([]string, error) {
	objPath, mtlPath := base+".obj", base+".mtl"
	if err := writeFile(mtlPath, func(w io.Writer) error {
		return WriteMTL(w, mat)
	}); err != nil {
		return nil, err
	}
	if err := writeFile(objPath, func(w io.Writer) error {
		return WriteOBJ(w, m, filepath.Base(mtlPath), mat)
	}); err != nil {
		return nil, err
	}
	return []string{objPath, mtlPath}, nil
}

// writeFile creates path and fills it with fn. The close error is reported
// when writing succeeded.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close %s: %w", path, cerr)
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// WriteJSONFile writes m as JSON to path.
func WriteJSONFile(path string, m *mesh.Mesh) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, m) })
}

// WriteSTLFile writes m as binary STL to path.
func WriteSTLFile(path string, m *mesh.Mesh) error {
	return writeFile(path, func(w io.Writer) error { return WriteSTL(w, m) })
}
