package mandel

import "strconv"

// EscapeRadius is the magnitude past which an orbit is known to diverge.
const EscapeRadius = 2

const escapeRadius2 = EscapeRadius * EscapeRadius

// Result classifies one sample point. Bounded (zero) means the orbit stayed
// inside the escape radius for the whole budget; a positive value n means
// the orbit first left it on step n.
type Result int

// Bounded marks a point that did not escape within the iteration budget.
const Bounded Result = 0

// Escaped returns the result for an orbit that escaped on step n (n >= 1).
func Escaped(n int) Result {
	return Result(n)
}

// Escaped returns the escape step and true, or 0 and false for Bounded.
func (r Result) Escaped() (int, bool) {
	if r <= Bounded {
		return 0, false
	}
	return int(r), true
}

// IsBounded reports whether r is Bounded.
func (r Result) IsBounded() bool {
	return r <= Bounded
}

func (r Result) String() string {
	if r.IsBounded() {
		return "Bounded"
	}
	return "Escaped(" + strconv.Itoa(int(r)) + ")"
}

// Evaluator runs the escape-time recurrence with a fixed iteration budget.
// The zero value is not usable; construct one with NewEvaluator.
//
// Evaluators hold no mutable state and may be shared by any number of
// goroutines.
type Evaluator struct {
	maxIter int
}

// NewEvaluator returns an Evaluator allowing up to maxIter steps per point.
func NewEvaluator(maxIter int) (Evaluator, error) {
	if maxIter <= 0 {
		return Evaluator{}, &ParamError{Param: "max_iterations", Value: maxIter, Constraint: ">= 1", Err: ErrInvalidIterationBudget}
	}
	return Evaluator{maxIter: maxIter}, nil
}

// MaxIter returns the iteration budget.
func (e Evaluator) MaxIter() int {
	return e.maxIter
}

// Eval iterates z = z*z + c from z = 0 and returns the step on which
// |z| first exceeds EscapeRadius, or Bounded.
//
// The magnitude test compares squared values, so float64 precision limits
// how deep a viewport can usefully zoom before neighbouring pixels collapse
// onto the same sample.
func (e Evaluator) Eval(c complex128) Result {
	cr, ci := real(c), imag(c)
	var zr, zi float64
	for n := 1; n <= e.maxIter; n++ {
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
		if zr*zr+zi*zi > escapeRadius2 {
			return Result(n)
		}
	}
	return Bounded
}

// Evaluate classifies a single point. It is a shorthand for NewEvaluator
// followed by Eval.
func Evaluate(c complex128, maxIter int) (Result, error) {
	e, err := NewEvaluator(maxIter)
	if err != nil {
		return Bounded, err
	}
	return e.Eval(c), nil
}

// BoundedLevel is the grayscale level Intensity assigns to Bounded points.
// Escaped points always map to a brighter level.
const BoundedLevel uint8 = 0

// Intensity maps r onto an 8-bit grayscale level. Bounded is BoundedLevel;
// Escaped(n) rises linearly from 1 at n = 1 to 255 at n = maxIter and never
// decreases as n grows.
func Intensity(r Result, maxIter int) uint8 {
	n, ok := r.Escaped()
	if !ok {
		return BoundedLevel
	}
	if maxIter <= 1 || n >= maxIter {
		return 255
	}
	return uint8(1 + (n-1)*254/(maxIter-1))
}
