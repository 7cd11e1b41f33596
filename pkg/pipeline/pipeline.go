package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/askiada/xmletl/pkg/pipeline/model"
)

// Status is the outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusHalted    Status = "halted"
)

// Report describes a finished run.
type Report struct {
	Name   string
	Status Status
	// Completed lists the units that succeeded, in execution order.
	Completed []string
	// FailedIndex is the zero-based position of the unit that halted the run, or -1.
	FailedIndex int
	FailedUnit  string
	Err         error
	// State is the result of the last successful unit.
	State    Params
	Duration time.Duration
}

// OK reports whether every unit succeeded.
func (r *Report) OK() bool {
	return r.Status == StatusCompleted
}

// Pipeline runs an ordered list of units, passing each unit's result to the next.
type Pipeline struct {
	name     string
	registry *Registry
	steps    []Descriptor
	log      *slog.Logger
	clock    clockwork.Clock
	opts     []model.PipelineOption
	state    Params
}

// New creates a new pipeline. Nothing is built or run until Run.
func New(name string, registry *Registry, steps []Descriptor, opts ...Option) (*Pipeline, error) {
	if registry == nil {
		return nil, ErrRegistryMustBeSet
	}
	if name == "" {
		return nil, errors.New("pipeline name must be set")
	}

	pipe := &Pipeline{
		name:     name,
		registry: registry,
		steps:    make([]Descriptor, len(steps)),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    clockwork.NewRealClock(),
		state:    Params{},
	}
	for i, d := range steps {
		if d.Unit == "" {
			return nil, errors.Errorf("step %d: unit must be set", i)
		}
		pipe.steps[i] = Descriptor{Unit: d.Unit, Params: d.Params.Clone()}
	}

	for _, opt := range opts {
		opt(pipe)
	}

	return pipe, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// State returns a copy of the accumulated state: the result of the last successful unit.
func (p *Pipeline) State() Params {
	return p.state.Clone()
}

func (p *Pipeline) stepInfos() []*model.StepInfo {
	infos := make([]*model.StepInfo, len(p.steps))
	for i, d := range p.steps {
		infos[i] = &model.StepInfo{
			Type:   model.UnitStepType,
			Index:  i,
			Unit:   d.Unit,
			Name:   fmt.Sprintf("%d. %s", i+1, d.Unit),
			Status: model.StatusPending,
		}
	}

	return infos
}

// Run executes the units in order and stops at the first failure. The returned error is the
// *StepError that halted the run, and it is also stored in the report.
// Side effects of units that already completed are left in place.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	start := p.clock.Now()
	report := &Report{
		Name:        p.name,
		Status:      StatusCompleted,
		FailedIndex: -1,
	}
	p.state = Params{}
	infos := p.stepInfos()

	p.log.Info("Executing pipeline", "pipeline", p.name, "steps", len(p.steps))

	err := p.newOptions(infos)
	if err == nil {
		err = p.runSteps(ctx, report, infos)
	}
	if err != nil {
		report.Status = StatusHalted
		report.Err = err
	}

	report.State = p.state.Clone()
	report.Duration = p.clock.Since(start)

	for _, opt := range p.opts {
		if optErr := opt.Finish(report.Duration); optErr != nil && report.Err == nil {
			report.Status = StatusHalted
			report.Err = errors.Wrap(optErr, "unable to finish pipeline option")
		}
	}

	p.log.Info("Pipeline finished", "pipeline", p.name, "status", report.Status, "duration", report.Duration)

	return report, report.Err
}

func (p *Pipeline) newOptions(infos []*model.StepInfo) error {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}

	for _, opt := range p.opts {
		err := opt.New(names)
		if err != nil {
			return errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return nil
}

func (p *Pipeline) runSteps(ctx context.Context, report *Report, infos []*model.StepInfo) error {
	parent := model.StartStep
	for i, d := range p.steps {
		info := infos[i]
		err := p.runStep(ctx, parent, info, d)
		if err != nil {
			report.FailedIndex = i
			report.FailedUnit = d.Unit

			return err
		}
		report.Completed = append(report.Completed, d.Unit)
		parent = info
	}

	return nil
}

func (p *Pipeline) runStep(ctx context.Context, parent, info *model.StepInfo, d Descriptor) error {
	log := p.log.With("unit", d.Unit, "index", info.Index)

	if err := ctx.Err(); err != nil {
		return p.stepFailed(log, info, 0, &ExecutionError{Unit: d.Unit, Err: err})
	}

	merged := d.Params.Merge(p.state)
	log.Info("Executing step", "params", merged)

	for _, opt := range p.opts {
		err := opt.PrepareStep(parent, info)
		if err != nil {
			return p.stepFailed(log, info, 0, errors.Wrap(err, "unable to run before step function"))
		}
	}

	startFn := p.clock.Now()
	step, err := p.registry.Build(d.Unit, log, merged)
	if err == nil {
		err = step.Run(ctx)
		if err != nil {
			err = asExecutionError(d.Unit, err)
		}
	}
	endFn := p.clock.Since(startFn)

	if err != nil {
		return p.stepFailed(log, info, endFn, err)
	}

	result := step.Result()
	if result == nil {
		result = Params{}
	}
	info.Status = model.StatusSucceeded

	for _, opt := range p.opts {
		err := opt.OnStepOutput(info, endFn)
		if err != nil {
			return p.stepFailed(log, info, endFn, errors.Wrap(err, "unable to run after step function"))
		}
	}

	p.state = result
	log.Info("Step finished", "result", result, "duration", endFn)

	return nil
}

// stepFailed marks step as failed, notifies every option and returns the error that halts the run.
func (p *Pipeline) stepFailed(log *slog.Logger, info *model.StepInfo, duration time.Duration, err error) error {
	info.Status = model.StatusFailed
	log.Error("Step failed", "error", err)

	for _, opt := range p.opts {
		if optErr := opt.OnStepError(info, duration, err); optErr != nil {
			log.Error("unable to run step error function", "error", optErr)
		}
	}

	return &StepError{Index: info.Index, Unit: info.Unit, Err: err}
}
