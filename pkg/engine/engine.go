// Package engine evaluates cgtree Lisp scripts. Each evaluation runs in a
// fresh zygomys sandbox whose builtins describe shapes; every (object ...)
// form replays its shapes into a builder session and hands the finished
// tree to a pipeline runner.
package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cgtree/pkg/builder"
	"github.com/chazu/cgtree/pkg/config"
	"github.com/chazu/cgtree/pkg/kernel"
	"github.com/chazu/cgtree/pkg/pipeline"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a failed Object.
// Err holds the construction or build error behind a failed Object.
type EvalError struct {
	Line    int
	Col     int
	Message string
	Err     error
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e EvalError) Unwrap() error {
	return e.Err
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// evaluations are serialised and each one gets a fresh sandbox, session and
// runner.
type Engine struct {
	mu     sync.Mutex
	k      kernel.Kernel
	cfg    config.Config
	logger *slog.Logger
	opts   []pipeline.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by the session and the runner.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPipeline passes options to the runner of every evaluation.
func WithPipeline(opts ...pipeline.Option) Option {
	return func(e *Engine) { e.opts = append(e.opts, opts...) }
}

// NewEngine creates an Engine that builds with k and cfg.
func NewEngine(k kernel.Kernel, cfg config.Config, opts ...Option) *Engine {
	e := &Engine{k: k, cfg: cfg}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Evaluate runs Lisp source and returns the Objects it built.
//
// Return semantics:
//   - On success: returns results + nil errors + nil error
//   - On parse/eval failure: returns the results built before the failure +
//     eval errors + nil error
//   - On fatal failure (panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (results []pipeline.Result, evalErrs []EvalError, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			results, evalErrs = nil, nil
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()

	// Empty source is a valid program that builds nothing.
	if strings.TrimSpace(source) == "" {
		return nil, nil, nil
	}

	// A literal nested object is rejected before anything is built.
	if line, ok := nestedObject(source); ok {
		err := fmt.Errorf("object form on line %d cannot be a child of another object: %w", line, builder.ErrNestedObject)
		return nil, []EvalError{{Line: line, Message: err.Error(), Err: err}}, nil
	}

	opts := append([]pipeline.Option{pipeline.WithLogger(e.logger)}, e.opts...)
	runner := pipeline.NewRunner(e.k, e.cfg, opts...)
	b := &binder{
		session: builder.New(builder.WithHandler(runner.Handle), builder.WithLogger(e.logger)),
		tol:     e.cfg.KernelTolerance(),
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	b.register(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return runner.Results(), parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		errs := parseZygomysError(err)
		errs[0].Err = b.failure
		return runner.Results(), errs, nil
	}
	return runner.Results(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	// No line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
