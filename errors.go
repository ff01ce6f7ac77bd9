package mandel

import (
	"errors"
	"fmt"
)

// Validation errors. Everything the core can fail on is detected before the
// first sample is taken.
var (
	ErrInvalidViewport        = errors.New("invalid viewport")
	ErrInvalidIterationBudget = errors.New("invalid iteration budget")
)

// ParamError reports which input parameter was rejected and why.
// Err is one of the sentinel errors above.
type ParamError struct {
	Param      string
	Value      any
	Constraint string
	Err        error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%v: %s = %v, want %s", e.Err, e.Param, e.Value, e.Constraint)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}
