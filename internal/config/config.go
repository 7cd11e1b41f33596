// Package config loads the runtime settings shared by every unit.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	DefaultStagingDir = "tmp"
	DefaultChunkSize  = 1 << 20
)

// Config is loaded once per process and never changed afterwards.
type Config struct {
	// StagingDir holds downloads, extracted archives and the local CSV.
	StagingDir string `toml:"staging_dir"`
	// ChunkSize is the download buffer and upload part size, in bytes.
	ChunkSize int  `toml:"chunk_size"`
	Verbose   bool `toml:"verbose"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		StagingDir: DefaultStagingDir,
		ChunkSize:  DefaultChunkSize,
	}
}

// Load reads defaults, then the TOML file at path when set, then XMLETL_* environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read config file")
		}

		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "unable to parse toml config")
		}
	}

	if v := os.Getenv("XMLETL_STAGING_DIR"); v != "" {
		cfg.StagingDir = v
	}
	if v := os.Getenv("XMLETL_CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid XMLETL_CHUNK_SIZE")
		}
		cfg.ChunkSize = n
	}
	if v := os.Getenv("XMLETL_VERBOSE"); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid XMLETL_VERBOSE")
		}
		cfg.Verbose = verbose
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.StagingDir == "" {
		return errors.New("staging_dir cannot be empty")
	}
	if c.ChunkSize <= 0 {
		return errors.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}

	return nil
}
