package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/xmletl/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	assert.Equal(t, "tmp", cfg.StagingDir)
	assert.Equal(t, 1<<20, cfg.ChunkSize)
	assert.False(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xmletl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
staging_dir = "/var/tmp/xmletl"
chunk_size = 4096
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/xmletl", cfg.StagingDir)
	assert.Equal(t, 4096, cfg.ChunkSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xmletl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`staging_dir = "from-file"`), 0o600))

	t.Setenv("XMLETL_STAGING_DIR", "from-env")
	t.Setenv("XMLETL_CHUNK_SIZE", "10")
	t.Setenv("XMLETL_VERBOSE", "1")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.StagingDir)
	assert.Equal(t, 10, cfg.ChunkSize)
	assert.True(t, cfg.Verbose)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`chunk_size = "big"`), 0o600))
	_, err = config.Load(path)
	require.Error(t, err)

	t.Setenv("XMLETL_CHUNK_SIZE", "lots")
	_, err = config.Load("")
	assert.Error(t, err)
}

func TestLoadInvalidVerbose(t *testing.T) {
	t.Setenv("XMLETL_VERBOSE", "ture")

	_, err := config.Load("")
	assert.ErrorContains(t, err, "XMLETL_VERBOSE")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.StagingDir = ""
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.ChunkSize = 0
	assert.Error(t, cfg.Validate())
}
