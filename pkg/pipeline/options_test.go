package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/xmletl/pkg/pipeline"
	"github.com/askiada/xmletl/pkg/pipeline/model"
)

// hooks records step events and fails on demand.
type hooks struct {
	prepareErr error
	outputErr  error
	outputs    []string
	failures   []string
}

func (h *hooks) New([]string) error { return nil }

func (h *hooks) PrepareStep(_, _ *model.StepInfo) error { return h.prepareErr }

func (h *hooks) OnStepOutput(step *model.StepInfo, _ time.Duration) error {
	h.outputs = append(h.outputs, step.Name)

	return h.outputErr
}

func (h *hooks) OnStepError(step *model.StepInfo, _ time.Duration, _ error) error {
	h.failures = append(h.failures, step.Name)

	return nil
}

func (h *hooks) Finish(time.Duration) error { return nil }

func TestRunOptionFailuresHaltAsStepFailures(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		hooks   *hooks
		ctx     func() context.Context
		built   []string
		outputs []string
	}{
		"prepare": {
			hooks:   &hooks{prepareErr: assert.AnError},
			ctx:     context.Background,
			built:   nil,
			outputs: nil,
		},
		"output": {
			hooks:   &hooks{outputErr: assert.AnError},
			ctx:     context.Background,
			built:   []string{"a"},
			outputs: []string{"1. a"},
		},
		"cancelled": {
			hooks: &hooks{},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				return ctx
			},
			built:   nil,
			outputs: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := &calls{}
			reg := pipeline.NewRegistry()
			registerFunc(t, reg, rec, "a", returns(pipeline.Params{"x": 1}))
			registerFunc(t, reg, rec, "b", returns(nil))

			log, logs := bufferLogger()
			pipe, err := pipeline.New("hooks", reg, []pipeline.Descriptor{{Unit: "a"}, {Unit: "b"}},
				pipeline.WithLogger(log), pipeline.WithOptions(tc.hooks))
			require.NoError(t, err)

			report, err := pipe.Run(tc.ctx())
			var stepErr *pipeline.StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, 0, stepErr.Index)

			assert.Equal(t, tc.built, rec.units)
			assert.Equal(t, tc.outputs, tc.hooks.outputs)
			assert.Equal(t, []string{"1. a"}, tc.hooks.failures)
			assert.Contains(t, logs.String(), "Step failed")
			assert.Empty(t, report.Completed)
			assert.Empty(t, report.State)
		})
	}
}
