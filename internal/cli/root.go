// Package cli implements the quadgraph command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadgraph/internal/config"
	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
	"github.com/aleksaelezovic/quadgraph/pkg/rdfio"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // input format; empty picks one from the file extension
	Policy     string // overrides ingest.policy when set
	Verbose    bool

	config   *config.Config
	logger   *zap.Logger
	registry *rdfio.Registry
}

// NewRootCommand creates the root command for the quadgraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{registry: rdfio.Default()}

	cmd := &cobra.Command{
		Use:           "quadgraph",
		Short:         "quadgraph - in-memory RDF quad store",
		Long:          "Load RDF datasets into a multi-indexed quad store, convert between formats, compare graphs up to blank node relabeling and keep snapshots on disk.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a TOML config file")
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "input format (nquads|ntriples|hext|jsonld)")
	cmd.PersistentFlags().StringVar(&opts.Policy, "policy", "", "invalid statement policy (fail-fast|skip-invalid)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))

	return cmd
}

func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Policy != "" {
		if _, err := ingest.ParsePolicy(o.Policy); err != nil {
			return WrapExitError(ExitCommandError, "invalid --policy", err)
		}
		cfg.Ingest.Policy = o.Policy
	}
	if o.Format != "" {
		if _, err := o.registry.Lookup(o.Format); err != nil {
			return WrapExitError(ExitCommandError, "invalid --format", err)
		}
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	o.config = cfg
	o.logger = logger
	return nil
}

func (o *RootOptions) pipelineOptions() ([]ingest.Option, error) {
	g, err := o.config.DefaultContext()
	if err != nil {
		return nil, fmt.Errorf("invalid default context: %w", err)
	}
	return []ingest.Option{
		ingest.WithPolicy(o.config.Policy()),
		ingest.WithDefaultContext(g),
		ingest.WithLogger(o.logger),
	}, nil
}
