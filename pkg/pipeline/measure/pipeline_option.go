package measure

import (
	"time"

	"github.com/askiada/xmletl/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New(names []string) error {
	pm.AddMetric(model.StartStep.Name)
	pm.AddMetric(model.EndStep.Name)

	return nil
}

func (pm *pipelineMeasure) PrepareStep(parentStep, step *model.StepInfo) error {
	pm.AddMetric(step.Name)

	return nil
}

func (pm *pipelineMeasure) OnStepOutput(step *model.StepInfo, computationDuration time.Duration) error {
	pm.AddMetric(step.Name).AddDuration(computationDuration)

	return nil
}

// OnStepError records the time spent in a failed unit too, so the slow failure is still visible.
func (pm *pipelineMeasure) OnStepError(step *model.StepInfo, computationDuration time.Duration, _ error) error {
	pm.AddMetric(step.Name).AddDuration(computationDuration)

	return nil
}

func (pm *pipelineMeasure) Finish(totalDuration time.Duration) error {
	pm.AddMetric(model.EndStep.Name).SetTotalDuration(totalDuration)

	return nil
}

// PipelineMeasure records unit durations into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
