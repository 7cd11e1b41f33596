package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/askiada/xmletl/pkg/pipeline"
)

func TestParamsMergeDoesNotModifyInputs(t *testing.T) {
	t.Parallel()

	static := pipeline.Params{"a": 99, "b": 2}
	state := pipeline.Params{"a": 1}

	got := static.Merge(state)
	assert.Equal(t, pipeline.Params{"a": 1, "b": 2}, got)
	assert.Equal(t, pipeline.Params{"a": 99, "b": 2}, static)
	assert.Equal(t, pipeline.Params{"a": 1}, state)
}

func TestParamsCloneNil(t *testing.T) {
	t.Parallel()

	var p pipeline.Params
	got := p.Clone()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestArgsRequiredAndOptional(t *testing.T) {
	t.Parallel()

	args := pipeline.NewArgs("unit", pipeline.Params{"name": "x", "count": 3})
	assert.Equal(t, "x", pipeline.Required[string](args, "name"))
	assert.Equal(t, 3, pipeline.Required[int](args, "count"))
	assert.Equal(t, "fallback", pipeline.Optional(args, "absent", "fallback"))
	assert.NoError(t, args.Err())
}

func TestArgsMissing(t *testing.T) {
	t.Parallel()

	args := pipeline.NewArgs("unit", pipeline.Params{"empty": nil})
	_ = pipeline.Required[string](args, "name")
	_ = pipeline.Required[string](args, "empty")

	err := args.Err()
	require.ErrorIs(t, err, pipeline.ErrMissingParam)

	var buildErr *pipeline.ConstructionError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "name", buildErr.Key)
	assert.Equal(t, `unable to build unit: missing required parameter "name"`, err.Error())
}

func TestArgsInvalid(t *testing.T) {
	t.Parallel()

	args := pipeline.NewArgs("unit", pipeline.Params{"count": "three", "ratio": 1.5})
	_ = pipeline.Required[int](args, "count")
	assert.ErrorIs(t, args.Err(), pipeline.ErrInvalidParam)

	args = pipeline.NewArgs("unit", pipeline.Params{"ratio": 1.5})
	_ = pipeline.Optional(args, "ratio", 0)
	assert.ErrorIs(t, args.Err(), pipeline.ErrInvalidParam)
}

func TestArgsUnexpected(t *testing.T) {
	t.Parallel()

	args := pipeline.NewArgs("unit", pipeline.Params{"used": 1, "z": 2, "n_doc": 3})
	_ = pipeline.Required[int](args, "used")

	var buildErr *pipeline.ConstructionError
	require.ErrorAs(t, args.Err(), &buildErr)
	assert.ErrorIs(t, buildErr, pipeline.ErrUnexpectedParam)
	assert.Equal(t, "n_doc,z", buildErr.Key)
}

func TestArgsFailKeepsFirstError(t *testing.T) {
	t.Parallel()

	args := pipeline.NewArgs("unit", pipeline.Params{})
	args.Fail("first", assert.AnError)
	_ = pipeline.Required[string](args, "second")

	var buildErr *pipeline.ConstructionError
	require.ErrorAs(t, args.Err(), &buildErr)
	assert.Equal(t, "first", buildErr.Key)
	assert.ErrorIs(t, buildErr, assert.AnError)
}

func TestArgsCoercesYAMLValues(t *testing.T) {
	t.Parallel()

	var params pipeline.Params
	require.NoError(t, yaml.Unmarshal([]byte(`
select_document: 1
names: [checksum, download_link]
namespaces:
  default: urn:iso
iterparse:
  ModfdRcrd: [Id, FullNm]
`), &params))

	args := pipeline.NewArgs("unit", params)
	assert.Equal(t, 1, pipeline.Required[int](args, "select_document"))
	assert.Equal(t, []string{"checksum", "download_link"}, pipeline.Required[[]string](args, "names"))
	assert.Equal(t, map[string]string{"default": "urn:iso"}, pipeline.Required[map[string]string](args, "namespaces"))
	assert.Equal(t, map[string][]string{"ModfdRcrd": {"Id", "FullNm"}}, pipeline.Required[map[string][]string](args, "iterparse"))
	assert.NoError(t, args.Err())
}

func TestArgsCoercesNumbers(t *testing.T) {
	t.Parallel()

	args := pipeline.NewArgs("unit", pipeline.Params{"f": 2.0, "i64": int64(4), "u": uint8(5)})
	assert.Equal(t, 2, pipeline.Required[int](args, "f"))
	assert.Equal(t, 4, pipeline.Required[int](args, "i64"))
	assert.Equal(t, 5, pipeline.Required[int](args, "u"))
	assert.NoError(t, args.Err())
}
