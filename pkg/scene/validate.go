package scene

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Path     string             // path from the root to the offending node
	Kind     Kind               // kind of the offending node
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s at %s: %s", e.Severity, e.Kind, e.Path, e.Message)
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural and geometric checks over the tree rooted at
// root and returns every finding in traversal order. It never mutates the
// tree.
func Validate(root *Node) []ValidationError {
	var errs []ValidationError
	Walk(root, func(n *Node, path string) bool {
		errs = append(errs, validateStructure(n, path)...)
		errs = append(errs, validateDimensions(n, path)...)
		errs = append(errs, validateEmpty(n, path)...)
		return true
	})
	return errs
}

// ValidateAll runs Validate and separates errors from warnings.
func ValidateAll(root *Node) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(root) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

func finding(n *Node, path string, sev ValidationSeverity, format string, args ...any) ValidationError {
	return ValidationError{
		Path:     path,
		Kind:     n.Kind(),
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	}
}

// validateStructure checks the parent/child rules: leaves have no children,
// faces hold only path segments, path segments live only in faces, and a
// face path starts with a MoveTo.
func validateStructure(n *Node, path string) []ValidationError {
	var errs []ValidationError
	k := n.Kind()

	if k.IsLeaf() && len(n.Children) > 0 {
		errs = append(errs, finding(n, path, SeverityError,
			"leaf node has %d children", len(n.Children)))
	}

	for i, c := range n.Children {
		cp := ChildPath(path, c, i)
		switch {
		case c.Kind() == KindObject:
			errs = append(errs, finding(c, cp, SeverityError, "object cannot be nested"))
		case k == KindFace && !c.Kind().IsPathSegment():
			errs = append(errs, finding(c, cp, SeverityError,
				"face children must be move-to, line-to or arc-to"))
		case k != KindFace && c.Kind().IsPathSegment():
			errs = append(errs, finding(c, cp, SeverityError,
				"path segment outside of a face"))
		}
	}

	if k == KindFace {
		for i, c := range n.Children {
			if c.Kind() == KindMoveTo {
				break
			}
			if c.Kind().IsPathSegment() {
				errs = append(errs, finding(c, ChildPath(path, c, i), SeverityError,
					"segment before the first move-to has no start point"))
				break
			}
		}
	}
	return errs
}

// validateDimensions checks primitive and operation parameters.
func validateDimensions(n *Node, path string) []ValidationError {
	var errs []ValidationError
	bad := func(format string, args ...any) {
		errs = append(errs, finding(n, path, SeverityError, format, args...))
	}

	switch d := n.Data.(type) {
	case BoxData:
		if d.Size.X <= 0 || d.Size.Y <= 0 || d.Size.Z <= 0 {
			bad("box size %s must be positive in every axis", d.Size)
		}
	case WedgeData:
		if d.Size.X <= 0 || d.Size.Y <= 0 || d.Size.Z <= 0 {
			bad("wedge size %s must be positive in every axis", d.Size)
		}
		if d.LTX < 0 {
			bad("wedge top length %g must not be negative", d.LTX)
		}
	case SphereData:
		if d.Radius <= 0 {
			bad("sphere radius %g must be positive", d.Radius)
		}
	case CylinderData:
		if d.Radius <= 0 {
			bad("cylinder radius %g must be positive", d.Radius)
		}
		if d.Height <= 0 {
			bad("cylinder height %g must be positive", d.Height)
		}
	case ConeData:
		if d.R0 < 0 || d.R1 < 0 {
			bad("cone radii (%g, %g) must not be negative", d.R0, d.R1)
		} else if d.R0 == 0 && d.R1 == 0 {
			bad("cone needs at least one non-zero radius")
		}
		if d.Height <= 0 {
			bad("cone height %g must be positive", d.Height)
		}
	case RotateData:
		if d.Axis.IsZero() {
			bad("rotation axis has zero length")
		}
	case FilletData:
		if d.Radius < 0 {
			bad("fillet radius %g must not be negative", d.Radius)
		}
	case PrismData:
		if d.Sweep.IsZero() {
			bad("prism sweep vector has zero length")
		}
	}
	return errs
}

// validateEmpty warns about containers that contribute nothing.
func validateEmpty(n *Node, path string) []ValidationError {
	k := n.Kind()
	if k.IsLeaf() {
		return nil
	}
	if len(n.Children) == 0 {
		return []ValidationError{finding(n, path, SeverityWarning, "%s has no children", k)}
	}
	if k == KindFace {
		edges := 0
		for _, c := range n.Children {
			if c.Kind() == KindLineTo || c.Kind() == KindArcTo {
				edges++
			}
		}
		if edges > 0 && edges < 3 && !hasArc(n) {
			return []ValidationError{finding(n, path, SeverityWarning,
				"face has only %d straight edges", edges)}
		}
	}
	return nil
}

func hasArc(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind() == KindArcTo {
			return true
		}
	}
	return false
}
