package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrRegistryMustBeSet = errors.New("registry must be set")
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrMissingParam      = errors.New("missing required parameter")
	ErrInvalidParam      = errors.New("invalid parameter")
	ErrUnexpectedParam   = errors.New("unexpected parameter")
	ErrNoMatch           = errors.New("no matching entry")
	ErrStepReused        = errors.New("step already executed")
)

// ConstructionError reports that a unit could not be built from its merged parameters.
type ConstructionError struct {
	Unit string
	Key  string
	Err  error
}

func (e *ConstructionError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("unable to build %s: %s %q", e.Unit, e.Err, e.Key)
	}

	return fmt.Sprintf("unable to build %s: %s", e.Unit, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// ExecutionError reports that a unit failed while running.
type ExecutionError struct {
	Unit string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Unit, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// LookupError is returned when a selection finds fewer matching rows than the requested index needs.
// It unwraps to ErrNoMatch.
type LookupError struct {
	Column  string
	Value   string
	Index   int
	Matches int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no entry #%d where %s == %q (%d matches)", e.Index, e.Column, e.Value, e.Matches)
}

func (e *LookupError) Unwrap() error { return ErrNoMatch }

// StepError is what Run returns when the pipeline halts. Err is a *ConstructionError or an
// *ExecutionError unless a pipeline option failed.
type StepError struct {
	Index int
	Unit  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Index, e.Unit, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func asExecutionError(unit string, err error) error {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}

	var buildErr *ConstructionError
	if errors.As(err, &buildErr) {
		return err
	}

	return &ExecutionError{Unit: unit, Err: err}
}
