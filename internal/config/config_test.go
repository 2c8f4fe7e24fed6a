package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

func TestDefault(t *testing.T) {
	config := Default()
	require.NoError(t, config.Validate())

	assert.Equal(t, 32, config.Store.Degree)
	assert.Equal(t, ingest.FailFast, config.Policy())
	assert.Equal(t, "nquads", config.Ingest.DefaultFormat)
	assert.Equal(t, 0, config.Canon.MaxRounds)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "quadgraph.db", config.Storage.Path)
	assert.Equal(t, 1000, config.Storage.BatchSize)

	g, err := config.DefaultContext()
	require.NoError(t, err)
	assert.Equal(t, rdf.NewDefaultGraph(), g)
}

func TestLoadEmptyPath(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestLoadOverridesDefaults(t *testing.T) {
	config, err := Load("testdata/custom.toml")
	require.NoError(t, err)

	assert.Equal(t, 8, config.Store.Degree)
	assert.Len(t, config.StoreOptions(), 1)
	assert.Equal(t, ingest.SkipInvalid, config.Policy())
	assert.Equal(t, "nq", config.Ingest.DefaultFormat)
	assert.True(t, config.Log.Development)
	// untouched sections keep their defaults
	assert.Equal(t, 1000, config.Storage.BatchSize)

	g, err := config.DefaultContext()
	require.NoError(t, err)
	assert.Equal(t, rdf.MustNamedNode("http://example.org/inbox"), g)

	logger, err := config.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load("testdata/unknown.toml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"degree", func(c *Config) { c.Store.Degree = 1 }},
		{"policy", func(c *Config) { c.Ingest.Policy = "sometimes" }},
		{"format", func(c *Config) { c.Ingest.DefaultFormat = "turtle" }},
		{"max rounds", func(c *Config) { c.Canon.MaxRounds = -1 }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"batch size", func(c *Config) { c.Storage.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadInvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\ndegree = 1\n"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
