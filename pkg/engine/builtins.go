package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cgtree/pkg/builder"
	"github.com/chazu/cgtree/pkg/geom"
	"github.com/chazu/cgtree/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpShape is a shape description. Calling a shape builtin only records
// it; emit replays it into a session while the enclosing object is built,
// so one value may be used any number of times.
type sexpShape struct {
	label string
	emit  func(s *builder.Session)
}

func (sh *sexpShape) SexpString(ps *zygo.PrintState) string { return sh.label }
func (sh *sexpShape) Type() *zygo.RegisteredType            { return nil }

// sexpObject is the value of an (object ...) form that has been built.
type sexpObject struct {
	name string
}

func (o *sexpObject) SexpString(ps *zygo.PrintState) string { return fmt.Sprintf("(object %q)", o.name) }
func (o *sexpObject) Type() *zygo.RegisteredType            { return nil }

// sexpVec3 wraps a geom.Vec3.
type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument decoding
// ---------------------------------------------------------------------------

// keyword reports the name of a preprocessed :keyword argument.
func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return strings.TrimPrefix(str.S, kwPrefix), true
}

// splitKeywords pulls ":name value" pairs out of args. A trailing keyword
// without a value maps to SexpNull.
func splitKeywords(args []zygo.Sexp) (positional []zygo.Sexp, kw map[string]zygo.Sexp) {
	kw = make(map[string]zygo.Sexp)
	for i := 0; i < len(args); i++ {
		name, ok := keyword(args[i])
		if !ok {
			positional = append(positional, args[i])
			continue
		}
		kw[name] = zygo.SexpNull
		if i+1 < len(args) {
			i++
			kw[name] = args[i]
		}
	}
	return positional, kw
}

func describe(s zygo.Sexp) string {
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

func number(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpInt:
		return float64(v.Val), nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

func text(s zygo.Sexp) (string, error) {
	if v, ok := s.(*zygo.SexpStr); ok {
		return v.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

func boolean(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", describe(s))
}

// items returns the elements of a list or array; nil is the empty list.
func items(s zygo.Sexp) ([]zygo.Sexp, bool) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		out, err := zygo.ListToArray(v)
		return out, err == nil
	case *zygo.SexpArray:
		return v.Val, true
	}
	return nil, s == zygo.SexpNull
}

// argReader consumes the positional arguments of one builtin in order.
type argReader struct {
	op   string
	args []zygo.Sexp
	i    int
}

func (r *argReader) float(what string) (float64, error) {
	if r.i >= len(r.args) {
		return 0, fmt.Errorf("%s: missing %s", r.op, what)
	}
	f, err := number(r.args[r.i])
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", r.op, what, err)
	}
	r.i++
	return f, nil
}

// vec reads either one (vec3 x y z) value or three numbers.
func (r *argReader) vec(what string) (geom.Vec3, error) {
	if r.i < len(r.args) {
		if v, ok := r.args[r.i].(*sexpVec3); ok {
			r.i++
			return v.vec, nil
		}
	}
	var c [3]float64
	for j, axis := range []string{"x", "y", "z"} {
		f, err := r.float(what + " " + axis)
		if err != nil {
			return geom.Vec3{}, err
		}
		c[j] = f
	}
	return geom.V(c[0], c[1], c[2]), nil
}

// shapes reads all remaining arguments as child shapes. Lists are
// flattened, so (map ...) results can be passed directly.
func (r *argReader) shapes() ([]*sexpShape, error) {
	var out []*sexpShape
	var add func(s zygo.Sexp) error
	add = func(s zygo.Sexp) error {
		switch v := s.(type) {
		case *sexpShape:
			out = append(out, v)
			return nil
		case *sexpObject:
			return fmt.Errorf("%s: object %q cannot be a child: %w", r.op, v.name, builder.ErrNestedObject)
		}
		if list, ok := items(s); ok {
			for _, item := range list {
				if err := add(item); err != nil {
					return err
				}
			}
			return nil
		}
		return fmt.Errorf("%s: expected a shape, got %s", r.op, describe(s))
	}
	for ; r.i < len(r.args); r.i++ {
		if err := add(r.args[r.i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// done rejects leftover arguments.
func (r *argReader) done() error {
	if r.i < len(r.args) {
		return fmt.Errorf("%s: unexpected argument %s", r.op, r.args[r.i].SexpString(nil))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// binder holds the session that (object ...) forms build into.
type binder struct {
	session *builder.Session
	tol     kernel.Tolerance
	// failure is the first error returned by a builtin.
	failure error
}

// add registers fn under name and records the first error any builtin
// returns, so callers can inspect it after zygomys has formatted it.
func (b *binder) add(env *zygo.Zlisp, name string, fn func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error)) {
	env.AddFunction(name, func(env *zygo.Zlisp, n string, args []zygo.Sexp) (zygo.Sexp, error) {
		res, err := fn(env, n, args)
		if err != nil && b.failure == nil {
			b.failure = err
		}
		return res, err
	})
}

func emitAll(s *builder.Session, children []*sexpShape) {
	for _, c := range children {
		c.emit(s)
	}
}

// opName turns a registered name back into its source spelling.
func opName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// leaf registers a builtin that reads fixed parameters and takes no
// children.
func (b *binder) leaf(env *zygo.Zlisp, name string, params func(r *argReader) (func(*builder.Session), error)) {
	b.add(env, name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := &argReader{op: opName(name), args: args}
		emit, err := params(r)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := r.done(); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{label: sexpLabel(r.op, args), emit: emit}, nil
	})
}

// container registers a builtin that reads fixed parameters followed by
// any number of child shapes. open wraps the children in their scope.
func (b *binder) container(env *zygo.Zlisp, name string, params func(r *argReader) (func(s *builder.Session, body func()), error)) {
	b.add(env, name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := &argReader{op: opName(name), args: args}
		open, err := params(r)
		if err != nil {
			return zygo.SexpNull, err
		}
		children, err := r.shapes()
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{
			label: fmt.Sprintf("(%s ... %d children)", r.op, len(children)),
			emit: func(s *builder.Session) {
				open(s, func() { emitAll(s, children) })
			},
		}, nil
	})
}

func sexpLabel(op string, args []zygo.Sexp) string {
	parts := []string{op}
	for _, a := range args {
		parts = append(parts, a.SexpString(nil))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// register installs the cgtree builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals and
// kebab-case names such as line-to match their registered line_to form.
func (b *binder) register(env *zygo.Zlisp) {

	// (vec3 1 2 3)
	b.add(env, "vec3", func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		r := &argReader{op: "vec3", args: args}
		v, err := r.vec("component")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (object "name" [:linear 0.1 :relative false :angular 0.5] shape...)
	// -----------------------------------------------------------------------
	b.add(env, "object", func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		positional, kw := splitKeywords(args)
		if len(positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("object requires a name argument")
		}
		name, err := text(positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("object: name: %w", err)
		}
		opts, err := b.deflection(kw)
		if err != nil {
			return zygo.SexpNull, err
		}
		r := &argReader{op: "object", args: positional, i: 1}
		children, err := r.shapes()
		if err != nil {
			return zygo.SexpNull, err
		}

		s := b.session
		if err := s.Object(name, func() { emitAll(s, children) }, opts...); err != nil {
			return zygo.SexpNull, fmt.Errorf("object %q: %w", name, err)
		}
		return &sexpObject{name: name}, nil
	})

	// -----------------------------------------------------------------------
	// Containers: (cut shape...), (translate (vec3 1 0 0) shape...), ...
	// -----------------------------------------------------------------------
	b.container(env, "group", func(r *argReader) (func(*builder.Session, func()), error) {
		return (*builder.Session).Group, nil
	})
	b.container(env, "cut", func(r *argReader) (func(*builder.Session, func()), error) {
		return (*builder.Session).Cut, nil
	})
	b.container(env, "fuse", func(r *argReader) (func(*builder.Session, func()), error) {
		return (*builder.Session).Fuse, nil
	})
	common := func(r *argReader) (func(*builder.Session, func()), error) {
		return (*builder.Session).Common, nil
	}
	b.container(env, "common", common)
	b.container(env, "intersect", common)
	b.container(env, "face", func(r *argReader) (func(*builder.Session, func()), error) {
		return (*builder.Session).Face, nil
	})
	b.container(env, "translate", func(r *argReader) (func(*builder.Session, func()), error) {
		v, err := r.vec("offset")
		return func(s *builder.Session, body func()) { s.Translate(v, body) }, err
	})
	b.container(env, "rotate", func(r *argReader) (func(*builder.Session, func()), error) {
		deg, err := r.float("degrees")
		if err != nil {
			return nil, err
		}
		axis, err := r.vec("axis")
		return func(s *builder.Session, body func()) { s.Rotate(deg, axis, body) }, err
	})
	b.container(env, "rotate_vec", func(r *argReader) (func(*builder.Session, func()), error) {
		v, err := r.vec("rotation")
		return func(s *builder.Session, body func()) { s.RotateVec(v, body) }, err
	})
	b.container(env, "fillet", func(r *argReader) (func(*builder.Session, func()), error) {
		radius, err := r.float("radius")
		return func(s *builder.Session, body func()) { s.Fillet(radius, body) }, err
	})
	b.container(env, "prism", func(r *argReader) (func(*builder.Session, func()), error) {
		v, err := r.vec("sweep")
		return func(s *builder.Session, body func()) { s.Prism(v, body) }, err
	})

	// -----------------------------------------------------------------------
	// Leaves: (box 2 2 2), (cylinder 0.5 3), (line-to 1 0 0), ...
	// -----------------------------------------------------------------------
	b.leaf(env, "box", func(r *argReader) (func(*builder.Session), error) {
		size, err := r.vec("size")
		return func(s *builder.Session) { s.Box(size) }, err
	})
	b.leaf(env, "wedge", func(r *argReader) (func(*builder.Session), error) {
		size, err := r.vec("size")
		if err != nil {
			return nil, err
		}
		ltx, err := r.float("ltx")
		return func(s *builder.Session) { s.Wedge(size, ltx) }, err
	})
	b.leaf(env, "sphere", func(r *argReader) (func(*builder.Session), error) {
		radius, err := r.float("radius")
		return func(s *builder.Session) { s.Sphere(radius) }, err
	})
	b.leaf(env, "cylinder", func(r *argReader) (func(*builder.Session), error) {
		f, err := floats(r, "radius", "height")
		return func(s *builder.Session) { s.Cylinder(f[0], f[1]) }, err
	})
	b.leaf(env, "cone", func(r *argReader) (func(*builder.Session), error) {
		f, err := floats(r, "r0", "r1", "height")
		return func(s *builder.Session) { s.Cone(f[0], f[1], f[2]) }, err
	})
	b.leaf(env, "move_to", func(r *argReader) (func(*builder.Session), error) {
		p, err := r.vec("point")
		return func(s *builder.Session) { s.MoveTo(p) }, err
	})
	b.leaf(env, "line_to", func(r *argReader) (func(*builder.Session), error) {
		p, err := r.vec("point")
		return func(s *builder.Session) { s.LineTo(p) }, err
	})
	b.leaf(env, "arc_to", func(r *argReader) (func(*builder.Session), error) {
		via, err := r.vec("via")
		if err != nil {
			return nil, err
		}
		end, err := r.vec("end")
		return func(s *builder.Session) { s.ArcTo(via, end) }, err
	})
	b.leaf(env, "rounded_quad", func(r *argReader) (func(*builder.Session), error) {
		f, err := floats(r, "sx", "sy", "radius")
		return func(s *builder.Session) { s.RoundedQuad(f[0], f[1], f[2]) }, err
	})
	b.leaf(env, "rounded_box", func(r *argReader) (func(*builder.Session), error) {
		f, err := floats(r, "sx", "sy", "sz", "radius")
		return func(s *builder.Session) { s.RoundedBox(f[0], f[1], f[2], f[3]) }, err
	})
}

func floats(r *argReader, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, n := range names {
		f, err := r.float(n)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// deflection turns the :linear, :relative and :angular keywords of an
// object into a builder option. Keywords left out keep the configured
// value.
func (b *binder) deflection(kw map[string]zygo.Sexp) ([]builder.ObjectOption, error) {
	if len(kw) == 0 {
		return nil, nil
	}
	tol := b.tol
	for k, v := range kw {
		var err error
		switch k {
		case "linear":
			tol.Linear, err = number(v)
		case "angular":
			tol.Angular, err = number(v)
		case "relative":
			tol.Relative, err = boolean(v)
		default:
			return nil, fmt.Errorf("object: unknown keyword :%s", k)
		}
		if err != nil {
			return nil, fmt.Errorf("object: %s: %w", k, err)
		}
	}
	return []builder.ObjectOption{builder.WithDeflection(tol.Linear, tol.Relative, tol.Angular)}, nil
}
