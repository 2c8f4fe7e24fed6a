package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/quadgraph/internal/storage"
	"github.com/aleksaelezovic/quadgraph/pkg/rdfio"
)

func (o *RootOptions) openSnapshot(path string) (*storage.BadgerStorage, *storage.Snapshot, error) {
	if path == "" {
		path = o.config.Storage.Path
	}
	db, err := storage.NewBadgerStorage(path, storage.WithBadgerLogger(o.logger))
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	snap := storage.NewSnapshot(db,
		storage.WithLogger(o.logger),
		storage.WithBatchSize(o.config.Storage.BatchSize),
	)
	return db, snap, nil
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "save <file>...",
		Short: "Load inputs and write a snapshot to disk",
		Long: `Load one or more RDF inputs into a single dataset and store it as a
badger snapshot, replacing any snapshot already at that path.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := rootOpts.newDataset()
			if _, err := rootOpts.loadFiles(cmd.Context(), ds, args, cmd.InOrStdin()); err != nil {
				return err
			}

			db, snap, err := rootOpts.openSnapshot(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := snap.Dump(cmd.Context(), ds.Store())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to save snapshot", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d quads in %d contexts (%d terms)\n", stats.Quads, stats.Contexts, stats.Terms)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "snapshot directory (default storage.path from config)")
	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, to, output string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Read a snapshot and write it in an RDF format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, snap, err := rootOpts.openSnapshot(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			st, _, err := snap.Restore(cmd.Context(), rootOpts.config.StoreOptions()...)
			if errors.Is(err, storage.ErrNoSnapshot) {
				return WrapExitError(ExitCommandError, "nothing to restore", err)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to restore snapshot", err)
			}
			return writeOutput(rootOpts.registry, to, output, cmd.OutOrStdout(), st)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "snapshot directory (default storage.path from config)")
	cmd.Flags().StringVarP(&to, "to", "t", rdfio.NQuads, "output format (nquads|ntriples|hext)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
