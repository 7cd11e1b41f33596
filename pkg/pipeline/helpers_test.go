package pipeline_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/xmletl/pkg/pipeline"
)

// calls records the merged parameters every test unit was built with, in build order.
type calls struct {
	mu     sync.Mutex
	units  []string
	params []pipeline.Params
}

func (c *calls) add(unit string, params pipeline.Params) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.units = append(c.units, unit)
	c.params = append(c.params, params.Clone())
}

// registerFunc registers unit as a step that returns fn's result.
func registerFunc(t *testing.T, reg *pipeline.Registry, rec *calls, unit string, fn func(pipeline.Params) (pipeline.Params, error)) {
	t.Helper()

	err := reg.Register(unit, func(log *slog.Logger, params pipeline.Params) (pipeline.Step, error) {
		rec.add(unit, params)

		return pipeline.StepFunc(func(ctx context.Context) (pipeline.Params, error) {
			return fn(params)
		}), nil
	})
	require.NoError(t, err)
}

func returns(out pipeline.Params) func(pipeline.Params) (pipeline.Params, error) {
	return func(pipeline.Params) (pipeline.Params, error) {
		return out, nil
	}
}

func fails(err error) func(pipeline.Params) (pipeline.Params, error) {
	return func(pipeline.Params) (pipeline.Params, error) {
		return nil, err
	}
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer

	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}
