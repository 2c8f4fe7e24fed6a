package cli

import (
	"fmt"
	"io"
	"iter"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/quadgraph/pkg/graph"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>...",
		Short: "Load inputs and print dataset statistics",
		Long: `Load one or more RDF inputs into a single dataset and print quad,
context and term counts. Use "-" to read standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := rootOpts.newDataset()
			summary, err := rootOpts.loadFiles(cmd.Context(), ds, args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), ds, summary)
		},
	}
}

func countSeq[T any](seq iter.Seq[T]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

func writeStats(w io.Writer, ds *graph.Dataset, summary loadSummary) error {
	contexts := ds.Contexts()
	_, err := fmt.Fprintf(w, "files: %d\nstatements: %d\nskipped: %d\nquads: %d\ntriples: %d\ncontexts: %d\nterms: %d\nsubjects: %d\npredicates: %d\nobjects: %d\n",
		summary.Files, summary.Statements, summary.Skipped, ds.Len(), ds.LenMode(graph.Unique), len(contexts), ds.Store().Terms(),
		countSeq(ds.Subjects(nil, nil, graph.Unique)),
		countSeq(ds.Predicates(nil, nil, graph.Unique)),
		countSeq(ds.Objects(nil, nil, graph.Unique)),
	)
	if err != nil {
		return err
	}
	for _, g := range contexts {
		if _, err := fmt.Fprintf(w, "  %s\t%d\n", g, ds.Store().ContextLen(g)); err != nil {
			return err
		}
	}
	return nil
}
