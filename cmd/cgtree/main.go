// Command cgtree evaluates a cgtree Lisp script and writes the meshes of the
// Objects it builds.
//
//	cgtree [flags] <script.lisp | ->
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/chazu/cgtree/pkg/config"
	"github.com/chazu/cgtree/pkg/engine"
	"github.com/chazu/cgtree/pkg/pipeline"
)

const (
	exitOK    = 0
	exitBuild = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(fs *flag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintln(w, "cgtree evaluates a scene script and exports its objects.\n\nUsage:\n  cgtree [flags] <script.lisp | ->\n\nFlags:")
		fs.PrintDefaults()
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cgtree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, stderr)

	var (
		objBase  string
		jsonPath string
		stlPath  string
		cfgPath  string
		kernName string
		level    string
		dumpTree bool
	)
	fs.StringVar(&objBase, "write-obj", "", "write each object to `basename`.obj and .mtl")
	fs.BoolVar(&dumpTree, "dump-tree", false, "print the tree of each object")
	fs.StringVar(&jsonPath, "write-json", "", "write each object as a JSON mesh to `path`")
	fs.StringVar(&stlPath, "write-stl", "", "write each object as binary STL to `path`")
	fs.StringVar(&cfgPath, "config", "", "load settings from a TOML or YAML `file`")
	fs.StringVar(&kernName, "kernel", "", "geometry kernel: "+strings.Join(config.Kernels, ", "))
	fs.StringVar(&level, "log-level", "", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if objBase == "" && jsonPath == "" && stlPath == "" && !dumpTree {
		fmt.Fprintln(stderr, "cgtree: at least one of --write-obj, --dump-tree, --write-json or --write-stl is required")
		fs.Usage()
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "cgtree: exactly one script is required")
		fs.Usage()
		return exitUsage
	}
	if kernName != "" && !slices.Contains(config.Kernels, kernName) {
		fmt.Fprintf(stderr, "cgtree: unknown kernel %q\n", kernName)
		fs.Usage()
		return exitUsage
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fmt.Fprintf(stderr, "cgtree: %v\n", err)
			return exitBuild
		}
	}
	if kernName != "" {
		cfg.Kernel = kernName
	}
	if level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "cgtree: %v\n", err)
		return exitUsage
	}
	lvl, err := cfg.Level()
	if err != nil {
		fmt.Fprintf(stderr, "cgtree: %v\n", err)
		return exitUsage
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))

	script := fs.Arg(0)
	source, err := readScript(script, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "cgtree: %v\n", err)
		return exitBuild
	}

	k, err := pipeline.OpenKernel(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "cgtree: %v\n", err)
		return exitBuild
	}

	var opts []pipeline.Option
	if dumpTree {
		opts = append(opts, pipeline.WithDump(stdout))
	}
	if objBase != "" {
		opts = append(opts, pipeline.WithOBJ(objBase))
	}
	if jsonPath != "" {
		opts = append(opts, pipeline.WithJSON(jsonPath))
	}
	if stlPath != "" {
		opts = append(opts, pipeline.WithSTL(stlPath))
	}

	eng := engine.NewEngine(k, cfg, engine.WithLogger(logger), engine.WithPipeline(opts...))
	_, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		fmt.Fprintf(stderr, "cgtree: %s: %v\n", script, err)
		return exitBuild
	}
	for _, e := range evalErrs {
		fmt.Fprintf(stderr, "cgtree: %s: %v\n", script, e)
		if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
			fmt.Fprintf(stderr, "  caused by: %v\n", e.Err)
		}
	}
	if len(evalErrs) > 0 {
		return exitBuild
	}
	return exitOK
}

// readScript reads path, or stdin when path is "-".
func readScript(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}
