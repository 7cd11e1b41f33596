package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/xmletl/internal/plan"
	"github.com/askiada/xmletl/pkg/table"
)

func TestStorageOptions(t *testing.T) {
	t.Parallel()

	p, err := plan.Parse([]byte(`
name: p
steps:
  - unit: save_csv
  - unit: upload_to_bucket
    params:
      storage_options:
        region: eu-west-1
        secure: false
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"region": "eu-west-1", "secure": "false"}, storageOptions(p))

	assert.Empty(t, storageOptions(plan.Default()))
	assert.Nil(t, storageOptions(&plan.Plan{Name: "none"}))
}

func TestPrintTable(t *testing.T) {
	t.Parallel()

	tbl, err := table.New("Id", "a_count")
	require.NoError(t, err)
	require.NoError(t, tbl.Append("DE000A1", "4"))

	var buf bytes.Buffer
	printTable(&buf, tbl)
	out := buf.String()
	assert.Contains(t, out, "Id")
	assert.Contains(t, out, "a_count")
	assert.Contains(t, out, "DE000A1")
}
