package cli

import (
	"bufio"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/quadgraph/pkg/rdfio"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var to, output string

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert RDF inputs to another format",
		Long: `Load one or more RDF inputs into a single dataset and write it in the
format given by --to. Blank nodes are relabeled; output is ordered by context.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := rootOpts.newDataset()
			if _, err := rootOpts.loadFiles(cmd.Context(), ds, args, cmd.InOrStdin()); err != nil {
				return err
			}
			return writeOutput(rootOpts.registry, to, output, cmd.OutOrStdout(), ds.Store())
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", rdfio.NQuads, "output format (nquads|ntriples|hext)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// writeOutput encodes src to path, or to stdout when path is empty.
func writeOutput(registry *rdfio.Registry, format, path string, stdout io.Writer, src rdfio.QuadSource) error {
	if path == "" {
		if err := registry.Encode(format, stdout, src); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	w := bufio.NewWriter(file)
	if err := registry.Encode(format, w, src); err != nil {
		file.Close()
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if err := file.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}
