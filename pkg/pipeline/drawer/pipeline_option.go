package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/xmletl/pkg/pipeline/measure"
	"github.com/askiada/xmletl/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m measure.Measure
}

// New draws the whole chain up front so units that never ran still appear.
func (pd *pipelineDrawer) New(names []string) error {
	err := pd.AddStep(model.StartStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = pd.AddStep(model.EndStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	parent := model.StartStep.Name
	for _, name := range names {
		err = pd.AddStep(name)
		if err != nil {
			return err
		}
		err = pd.AddLink(parent, name)
		if err != nil {
			return err
		}
		parent = name
	}

	return pd.AddLink(parent, model.EndStep.Name)
}

func (pd *pipelineDrawer) PrepareStep(parentStep, step *model.StepInfo) error {
	return nil
}

func (pd *pipelineDrawer) OnStepOutput(step *model.StepInfo, computationDuration time.Duration) error {
	return pd.SetStatus(step.Name, string(model.StatusSucceeded))
}

func (pd *pipelineDrawer) OnStepError(step *model.StepInfo, computationDuration time.Duration, err error) error {
	return pd.SetStatus(step.Name, string(model.StatusFailed))
}

func (pd *pipelineDrawer) Finish(totalDuration time.Duration) error {
	err := pd.SetTotalTime(model.EndStep.Name, totalDuration)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the run once it finishes. measure may be nil; when set, it must also be
// attached to the pipeline before the drawer so its durations are complete when Finish runs.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure}
}
