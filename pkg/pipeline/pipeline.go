// Package pipeline runs each finished Object through the build steps:
// optional tree dump, structural validation, lowering through a kernel,
// mesh extraction and optional export. A Runner is a builder.ObjectHandler.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/chazu/cgtree/pkg/config"
	"github.com/chazu/cgtree/pkg/export"
	"github.com/chazu/cgtree/pkg/kernel"
	"github.com/chazu/cgtree/pkg/lower"
	"github.com/chazu/cgtree/pkg/mesh"
	"github.com/chazu/cgtree/pkg/scene"
)

// ErrInvalidTree is matched by every *InvalidTreeError.
var ErrInvalidTree = errors.New("invalid scene tree")

// InvalidTreeError lists the blocking validation findings of one Object.
type InvalidTreeError struct {
	Object   string
	Findings []scene.ValidationError
}

func (e *InvalidTreeError) Error() string {
	msgs := make([]string, len(e.Findings))
	for i, f := range e.Findings {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("object %q: %v: %s", e.Object, ErrInvalidTree, strings.Join(msgs, "; "))
}

func (e *InvalidTreeError) Unwrap() error {
	return ErrInvalidTree
}

// Result is the outcome of one successfully built Object.
type Result struct {
	Name  string
	Mesh  *mesh.Mesh
	Files []string
}

// Runner builds Objects one at a time and collects their results. It is not
// safe for concurrent use.
type Runner struct {
	k        kernel.Kernel
	tol      kernel.Tolerance
	material export.Material
	logger   *slog.Logger

	dump     io.Writer
	objBase  string
	jsonPath string
	stlPath  string

	results  []Result
	exported int
}

// Option configures a Runner.
type Option func(*Runner)

// WithDump writes the indented tree of every Object to w before it is
// built.
func WithDump(w io.Writer) Option {
	return func(r *Runner) { r.dump = w }
}

// WithOBJ exports every Object as an OBJ/MTL pair. The first Object uses
// base, later ones base-2, base-3 and so on.
func WithOBJ(base string) Option {
	return func(r *Runner) { r.objBase = base }
}

// WithJSON writes every mesh as JSON, numbering paths like WithOBJ.
func WithJSON(path string) Option {
	return func(r *Runner) { r.jsonPath = path }
}

// WithSTL writes every mesh as binary STL, numbering paths like WithOBJ.
func WithSTL(path string) Option {
	return func(r *Runner) { r.stlPath = path }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner returns a runner that builds with k, triangulates with the
// configured tolerance and exports with the configured material.
func NewRunner(k kernel.Kernel, cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		k:        k,
		tol:      cfg.KernelTolerance(),
		material: cfg.ExportMaterial(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Results returns the Objects built so far, in build order.
func (r *Runner) Results() []Result {
	return r.results
}

// Handle builds one Object tree. Any failure aborts the Object; nothing is
// recorded or exported for it.
func (r *Runner) Handle(root *scene.Node) error {
	name := scene.RootPath(root)
	log := r.logger.With("object", name)

	if r.dump != nil {
		if err := scene.Dump(r.dump, root); err != nil {
			return fmt.Errorf("dump %q: %w", name, err)
		}
	}

	v := scene.ValidateAll(root)
	for _, w := range v.Warnings {
		log.Warn("scene tree", "path", w.Path, "kind", w.Kind.String(), "warning", w.Message)
	}
	if !v.OK() {
		return &InvalidTreeError{Object: name, Findings: v.Errors}
	}

	shape, err := lower.Lower(r.k, root)
	if err != nil {
		return err
	}

	tol := r.tol
	if od, ok := root.Data.(scene.ObjectData); ok && od.Deflection != nil {
		tol = kernel.Tolerance{
			Linear:   od.Deflection.Linear,
			Relative: od.Deflection.Relative,
			Angular:  od.Deflection.Angular,
		}
	}
	m, err := mesh.Extract(r.k, shape, tol, mesh.WithName(name), mesh.WithLogger(log))
	if err != nil {
		return fmt.Errorf("object %q: %w", name, err)
	}

	files, err := r.export(m)
	if err != nil {
		return err
	}
	log.Info("object built",
		"vertices", len(m.Vertices),
		"normals", len(m.Normals),
		"triangles", len(m.Triangles),
		"files", len(files))
	r.results = append(r.results, Result{Name: name, Mesh: m, Files: files})
	return nil
}

func (r *Runner) export(m *mesh.Mesh) ([]string, error) {
	if r.objBase == "" && r.jsonPath == "" && r.stlPath == "" {
		return nil, nil
	}
	r.exported++
	n := r.exported

	var files []string
	if r.objBase != "" {
		paths, err := export.Files(export.Basename(r.objBase, n), m, r.material)
		if err != nil {
			return nil, err
		}
		files = append(files, paths...)
	}
	if r.jsonPath != "" {
		path := numbered(r.jsonPath, n)
		if err := export.WriteJSONFile(path, m); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if r.stlPath != "" {
		path := numbered(r.stlPath, n)
		if err := export.WriteSTLFile(path, m); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

// numbered inserts the export count before the extension of path.
func numbered(path string, n int) string {
	ext := filepath.Ext(path)
	return export.Basename(strings.TrimSuffix(path, ext), n) + ext
}
