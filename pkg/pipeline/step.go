package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/pkg/errors"
)

// Step is one unit of work. It is built from its merged parameters, run once, and then
// exposes its result mapping to the next unit.
type Step interface {
	// Run performs the unit's work and stores the result. A unit runs at most once.
	Run(ctx context.Context) error
	// Result returns the stored result, or an empty mapping before Run succeeded.
	Result() Params
}

// BuildFunc constructs a unit from merged parameters. log is already scoped to the unit.
type BuildFunc func(log *slog.Logger, params Params) (Step, error)

// Descriptor schedules one unit: the registered unit type and its static parameters.
type Descriptor struct {
	Unit   string
	Params Params
}

// Output stores a unit's result. Embed it to satisfy the Result half of Step.
type Output struct {
	result Params
	ran    bool
}

// Begin marks the unit as started. It fails with ErrStepReused on any later call.
func (o *Output) Begin() error {
	if o.ran {
		return ErrStepReused
	}
	o.ran = true

	return nil
}

// Set stores result.
func (o *Output) Set(result Params) {
	o.result = result.Clone()
}

// Result returns a copy of the stored result.
func (o *Output) Result() Params {
	return o.result.Clone()
}

type funcStep struct {
	Output
	fn func(ctx context.Context) (Params, error)
}

func (s *funcStep) Run(ctx context.Context) error {
	if err := s.Begin(); err != nil {
		return err
	}
	out, err := s.fn(ctx)
	if err != nil {
		return err
	}
	s.Set(out)

	return nil
}

// StepFunc adapts fn to a single-use Step whose result is whatever fn returns.
func StepFunc(fn func(ctx context.Context) (Params, error)) Step {
	return &funcStep{fn: fn}
}

// Registry maps unit type identifiers to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]BuildFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuildFunc)}
}

// Register adds a builder. Registering the same unit twice is an error.
func (r *Registry) Register(unit string, build BuildFunc) error {
	if unit == "" {
		return errors.New("unit name must be set")
	}
	if build == nil {
		return errors.Errorf("builder for %s must be set", unit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builders[unit]; ok {
		return errors.Errorf("unit %s already registered", unit)
	}
	r.builders[unit] = build

	return nil
}

// Units returns the registered unit identifiers, sorted.
func (r *Registry) Units() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]string, 0, len(r.builders))
	for unit := range r.builders {
		units = append(units, unit)
	}
	slices.Sort(units)

	return units
}

// Has reports whether unit is registered.
func (r *Registry) Has(unit string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.builders[unit]

	return ok
}

// Build constructs unit from params. Every failure is a *ConstructionError.
func (r *Registry) Build(unit string, log *slog.Logger, params Params) (Step, error) {
	r.mu.RLock()
	build, ok := r.builders[unit]
	r.mu.RUnlock()

	if !ok {
		return nil, &ConstructionError{Unit: unit, Err: ErrUnknownUnit}
	}

	step, err := build(log, params)
	if err != nil {
		var buildErr *ConstructionError
		if errors.As(err, &buildErr) {
			return nil, err
		}

		return nil, &ConstructionError{Unit: unit, Err: err}
	}
	if step == nil {
		return nil, &ConstructionError{Unit: unit, Err: errors.New("builder returned no step")}
	}

	return step, nil
}
