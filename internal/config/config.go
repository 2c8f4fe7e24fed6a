// Package config loads the quadgraph TOML configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
	"github.com/aleksaelezovic/quadgraph/pkg/rdfio"
	"github.com/aleksaelezovic/quadgraph/pkg/store"
)

const defaultConfig = `
# quadgraph configuration.

[store]
degree = 32

[ingest]
# fail-fast, skip-invalid
policy = "fail-fast"
default-format = "nquads"
# IRI of the context for statements without one; empty means the default graph
default-context = ""

[canon]
# 0 picks the bound from the number of blank nodes
max-rounds = 0

[log]
# debug, info, warn, error
level = "info"
development = false

[storage]
path = "quadgraph.db"
batch-size = 1000
`

var ErrInvalidConfig = errors.New("invalid config")

type StoreConfig struct {
	Degree int `toml:"degree"`
}

type IngestConfig struct {
	Policy         string `toml:"policy"`
	DefaultFormat  string `toml:"default-format"`
	DefaultContext string `toml:"default-context"`
}

type CanonConfig struct {
	MaxRounds int `toml:"max-rounds"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type StorageConfig struct {
	Path      string `toml:"path"`
	BatchSize int    `toml:"batch-size"`
}

type Config struct {
	Store   StoreConfig   `toml:"store"`
	Ingest  IngestConfig  `toml:"ingest"`
	Canon   CanonConfig   `toml:"canon"`
	Log     LogConfig     `toml:"log"`
	Storage StorageConfig `toml:"storage"`
}

// Default returns the built-in configuration.
func Default() *Config {
	config := &Config{}
	if _, err := toml.Decode(defaultConfig, config); err != nil {
		panic(fmt.Sprintf("decode default config failed: %v", err))
	}
	return config
}

// Load reads fileName over the defaults and validates the result. An empty
// fileName yields the defaults.
func Load(fileName string) (*Config, error) {
	config := Default()
	if fileName == "" {
		return config, nil
	}
	if err := config.LoadFromFile(fileName); err != nil {
		return nil, err
	}
	return config, nil
}

func (config *Config) LoadFromFile(fileName string) error {
	meta, err := toml.DecodeFile(fileName, config)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", fileName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown key %s in %s", ErrInvalidConfig, undecoded[0], fileName)
	}
	return config.Validate()
}

func (config *Config) Validate() error {
	if config.Store.Degree < 2 {
		return fmt.Errorf("%w: store.degree must be at least 2, got %d", ErrInvalidConfig, config.Store.Degree)
	}
	if _, err := ingest.ParsePolicy(config.Ingest.Policy); err != nil {
		return fmt.Errorf("%w: ingest.policy: %w", ErrInvalidConfig, err)
	}
	if _, err := rdfio.Default().Lookup(config.Ingest.DefaultFormat); err != nil {
		return fmt.Errorf("%w: ingest.default-format: %w", ErrInvalidConfig, err)
	}
	if _, err := config.DefaultContext(); err != nil {
		return fmt.Errorf("%w: ingest.default-context: %w", ErrInvalidConfig, err)
	}
	if config.Canon.MaxRounds < 0 {
		return fmt.Errorf("%w: canon.max-rounds must not be negative", ErrInvalidConfig)
	}
	if _, err := zapcore.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	if config.Storage.BatchSize < 1 {
		return fmt.Errorf("%w: storage.batch-size must be positive", ErrInvalidConfig)
	}
	return nil
}

// StoreOptions returns the store options the config asks for.
func (config *Config) StoreOptions() []store.Option {
	return []store.Option{store.WithDegree(config.Store.Degree)}
}

func (config *Config) Policy() ingest.Policy {
	policy, _ := ingest.ParsePolicy(config.Ingest.Policy)
	return policy
}

// DefaultContext returns the configured context for statements without one.
func (config *Config) DefaultContext() (rdf.Term, error) {
	if config.Ingest.DefaultContext == "" {
		return rdf.NewDefaultGraph(), nil
	}
	return rdf.NewNamedNode(config.Ingest.DefaultContext)
}

// NewLogger builds a zap logger from the log section.
func (config *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(config.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if config.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
