package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option. It runs once at the start of every run.
	New(names []string) error

	pipelineStepOption

	// Finish runs after the last unit ran or the pipeline halted.
	Finish(totalDuration time.Duration) error
}

// pipelineStepOption defines the interface for step options at the pipeline level.
type pipelineStepOption interface {
	// PrepareStep runs before the step is built.
	PrepareStep(parentStep, step *StepInfo) error
	// OnStepOutput runs after the step succeeded, before its result replaces the pipeline state.
	// An error halts the run and the step is reported as failed.
	OnStepOutput(step *StepInfo, computationDuration time.Duration) error
	// OnStepError runs after the step failed to build or run.
	OnStepError(step *StepInfo, computationDuration time.Duration, err error) error
}
