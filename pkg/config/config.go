// Package config holds the run settings of cgtree: the geometry kernel, the
// triangulation tolerance, the export material and the log level. Settings
// load from TOML or YAML; fields missing from the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/chazu/cgtree/pkg/export"
	"github.com/chazu/cgtree/pkg/kernel"
)

// Kernel names.
const (
	KernelPolyhedral = "polyhedral"
	KernelSdfx       = "sdfx"
	KernelManifold   = "manifold"
)

// Kernels lists the accepted kernel names.
var Kernels = []string{KernelPolyhedral, KernelSdfx, KernelManifold}

// ErrUnknownFormat is returned by Load for file extensions other than
// .toml, .yaml and .yml.
var ErrUnknownFormat = errors.New("unknown config format")

// Config is the full set of run settings.
type Config struct {
	Kernel    string    `toml:"kernel" yaml:"kernel"`
	LogLevel  string    `toml:"log_level" yaml:"log_level"`
	Tolerance Tolerance `toml:"tolerance" yaml:"tolerance"`
	Material  Material  `toml:"material" yaml:"material"`
	Sdfx      Sdfx      `toml:"sdfx" yaml:"sdfx"`
}

// Tolerance is the default triangulation deflection. Objects may
// override it.
type Tolerance struct {
	Linear   float64 `toml:"linear" yaml:"linear"`
	Relative bool    `toml:"relative" yaml:"relative"`
	Angular  float64 `toml:"angular" yaml:"angular"`
}

// Material is the flat material written next to exported OBJ files.
type Material struct {
	Name     string     `toml:"name" yaml:"name"`
	Diffuse  [3]float64 `toml:"diffuse" yaml:"diffuse"`
	Specular [3]float64 `toml:"specular" yaml:"specular"`
}

// Sdfx bounds the marching-cubes grid of the sdfx kernel, in cells along
// the longest side.
type Sdfx struct {
	MinCells int `toml:"min_cells" yaml:"min_cells"`
	MaxCells int `toml:"max_cells" yaml:"max_cells"`
}

// Default returns the built-in settings.
func Default() Config {
	tol := kernel.DefaultTolerance()
	mat := export.DefaultMaterial()
	return Config{
		Kernel:   KernelPolyhedral,
		LogLevel: "info",
		Tolerance: Tolerance{
			Linear:   tol.Linear,
			Relative: tol.Relative,
			Angular:  tol.Angular,
		},
		Material: Material{
			Name:     mat.Name,
			Diffuse:  mat.Diffuse,
			Specular: mat.Specular,
		},
		Sdfx: Sdfx{MinCells: 32, MaxCells: 200},
	}
}

// Load reads the file at path over the defaults and validates the result.
// A leading "~" in path is expanded to the home directory. The format is
// chosen by extension.
func Load(path string) (Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var format string
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".toml":
		format = "toml"
	case ".yaml", ".yml":
		format = "yaml"
	default:
		return Config{}, fmt.Errorf("config: %s: %w %q", expanded, ErrUnknownFormat, ext)
	}
	cfg, err := Decode(f, format)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", expanded, err)
	}
	return cfg, nil
}

// Decode reads settings in the given format ("toml" or "yaml") over the
// defaults and validates them. Unknown keys are errors.
func Decode(r io.Reader, format string) (Config, error) {
	cfg := Default()
	switch format {
	case "toml":
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	known := false
	for _, k := range Kernels {
		known = known || c.Kernel == k
	}
	if !known {
		errs = append(errs, fmt.Errorf("kernel %q is not one of %s", c.Kernel, strings.Join(Kernels, ", ")))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if err := c.KernelTolerance().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tolerance: %w", err))
	}
	if c.Material.Name == "" || strings.ContainsAny(c.Material.Name, " \t\r\n") {
		errs = append(errs, fmt.Errorf("material name %q must be one non-empty word", c.Material.Name))
	}
	for _, ch := range []struct {
		name string
		rgb  [3]float64
	}{{"diffuse", c.Material.Diffuse}, {"specular", c.Material.Specular}} {
		for _, v := range ch.rgb {
			if !(v >= 0 && v <= 1) {
				errs = append(errs, fmt.Errorf("material %s component %g is outside [0, 1]", ch.name, v))
				break
			}
		}
	}
	if c.Sdfx.MinCells < 1 || c.Sdfx.MaxCells < c.Sdfx.MinCells {
		errs = append(errs, fmt.Errorf("sdfx cells [%d, %d] must satisfy 1 <= min <= max",
			c.Sdfx.MinCells, c.Sdfx.MaxCells))
	}
	return errors.Join(errs...)
}

// KernelTolerance converts the tolerance settings.
func (c Config) KernelTolerance() kernel.Tolerance {
	return kernel.Tolerance{
		Linear:   c.Tolerance.Linear,
		Relative: c.Tolerance.Relative,
		Angular:  c.Tolerance.Angular,
	}
}

// ExportMaterial converts the material settings.
func (c Config) ExportMaterial() export.Material {
	return export.Material{
		Name:     c.Material.Name,
		Diffuse:  c.Material.Diffuse,
		Specular: c.Material.Specular,
	}
}

// Level parses LogLevel ("debug", "info", "warn" or "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
