package plan_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/xmletl/internal/plan"
	"github.com/askiada/xmletl/pkg/steps"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	p := plan.Default()
	assert.Equal(t, "XML_ETL", p.Name)

	units := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		units[i] = s.Unit
	}
	assert.Equal(t, []string{
		steps.UnitExtractXML, steps.UnitSelectLink, steps.UnitDownloadFile, steps.UnitUnzipFile,
		steps.UnitTransformXML, steps.UnitGenerateAColumns, steps.UnitSaveCSV, steps.UnitUploadToBucket,
	}, units)
	assert.Equal(t, 1, p.Steps[1].Params["select_document"])
}

// TestDefaultParamsBuild checks every unit of the default plan accepts its static parameters once
// the previous unit's result is merged in.
func TestDefaultParamsBuild(t *testing.T) {
	t.Parallel()

	reg, err := steps.NewRegistry(steps.Env{StagingDir: t.TempDir()})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := plan.Default()

	_, err = reg.Build(p.Steps[0].Unit, log, p.Steps[0].Params)
	require.NoError(t, err)

	_, err = reg.Build(p.Steps[4].Unit, log, p.Steps[4].Params.Merge(map[string]any{"file_path": "x.xml"}))
	require.NoError(t, err)

	_, err = reg.Build(p.Steps[7].Unit, log, p.Steps[7].Params.Merge(map[string]any{"file_path": "out.csv"}))
	require.NoError(t, err)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"no name":       "steps: [{unit: a}]",
		"no unit":       "name: p\nsteps: [{params: {a: 1}}]",
		"unknown field": "name: p\nstepz: []",
		"not yaml":      "name: [",
	}

	for name, data := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := plan.Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: small\nsteps:\n  - unit: download_file\n    params:\n      download_link: http://x/a.zip\n"), 0o600))

	p, err := plan.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "small", p.Name)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "http://x/a.zip", p.Steps[0].Params["download_link"])

	_, err = plan.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
