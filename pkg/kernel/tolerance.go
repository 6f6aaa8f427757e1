package kernel

import (
	"fmt"
	"math"
)

// Default deflection values used when nothing else is configured.
const (
	DefaultLinearDeflection  = 1.0
	DefaultAngularDeflection = 0.5
)

// minCircleSegments is the coarsest polygon used for a full circle.
const minCircleSegments = 3

// Tolerance bounds how far a triangulation may deviate from the exact
// surface. Linear is the maximum chord deviation (sagitta); when Relative is
// set it is a fraction of the curve's radius instead of an absolute length.
// Angular is the maximum angle in radians between adjacent facets.
type Tolerance struct {
	Linear   float64
	Relative bool
	Angular  float64
}

// DefaultTolerance returns the reference tolerance (1.0 linear, absolute,
// 0.5 rad angular).
func DefaultTolerance() Tolerance {
	return Tolerance{
		Linear:  DefaultLinearDeflection,
		Angular: DefaultAngularDeflection,
	}
}

// Validate rejects non-positive deflections.
func (t Tolerance) Validate() error {
	if !(t.Linear > 0) {
		return fmt.Errorf("linear deflection %g must be positive", t.Linear)
	}
	if !(t.Angular > 0) {
		return fmt.Errorf("angular deflection %g must be positive", t.Angular)
	}
	return nil
}

// Step returns the largest angular step, in radians, that keeps a circle of
// the given radius within the tolerance.
func (t Tolerance) Step(radius float64) float64 {
	step := 2 * math.Pi
	d := t.Linear
	if t.Relative {
		d *= radius
	}
	if radius > 0 && d < radius {
		// sagitta r(1 - cos(θ/2)) <= d
		step = 2 * math.Acos(1-d/radius)
	}
	if t.Angular > 0 && t.Angular < step {
		step = t.Angular
	}
	return step
}

// Segments returns how many straight segments approximate an arc of the
// given radius and sweep (radians).
func (t Tolerance) Segments(radius, sweep float64) int {
	sweep = math.Abs(sweep)
	n := int(math.Ceil(sweep/t.Step(radius) - 1e-9))
	min := int(math.Ceil(float64(minCircleSegments) * sweep / (2 * math.Pi)))
	if min < 1 {
		min = 1
	}
	if n < min {
		n = min
	}
	return n
}
