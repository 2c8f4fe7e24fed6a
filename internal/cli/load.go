package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadgraph/pkg/graph"
	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
	"github.com/aleksaelezovic/quadgraph/pkg/rdfio"
	"github.com/aleksaelezovic/quadgraph/pkg/store"
)

const stdinPath = "-"

// loadSummary adds up the ingestion results of several inputs.
type loadSummary struct {
	Files      int
	Statements int
	Added      int
	Skipped    int
}

func (o *RootOptions) newDataset() *graph.Dataset {
	return graph.NewDataset(store.New(o.config.StoreOptions()...))
}

// formatFor picks the input format: --format, then the file extension,
// then the configured default.
func (o *RootOptions) formatFor(path string) (rdfio.Format, error) {
	if o.Format != "" {
		return o.registry.Lookup(o.Format)
	}
	if path != stdinPath {
		f, err := o.registry.FormatForPath(path)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, rdfio.ErrUnsupportedFormat) {
			return rdfio.Format{}, err
		}
	}
	return o.registry.Lookup(o.config.Ingest.DefaultFormat)
}

// loadFiles ingests every path into ds. Each file gets its own blank node
// scope.
func (o *RootOptions) loadFiles(ctx context.Context, ds *graph.Dataset, paths []string, stdin io.Reader) (loadSummary, error) {
	var summary loadSummary
	pipelineOpts, err := o.pipelineOptions()
	if err != nil {
		return summary, err
	}

	for _, path := range paths {
		f, err := o.formatFor(path)
		if err != nil {
			return summary, WrapExitError(ExitCommandError, "cannot determine format of "+path, err)
		}
		loader, err := o.registry.Loader(f.Name, ds, pipelineOpts...)
		if err != nil {
			return summary, WrapExitError(ExitCommandError, "cannot load "+path, err)
		}

		res, err := o.loadOne(ctx, loader, path, stdin)
		if res != nil {
			summary.Statements += res.Statements
			summary.Added += res.Added
			summary.Skipped += len(res.Failures)
		}
		if err != nil {
			return summary, WrapExitError(ExitCommandError, "failed to load "+path, err)
		}
		summary.Files++
		o.logger.Debug("loaded input",
			zap.String("path", path),
			zap.String("format", f.Name),
			zap.Int("statements", res.Statements),
			zap.Int("added", res.Added),
		)
	}
	return summary, nil
}

func (o *RootOptions) loadOne(ctx context.Context, loader *rdfio.Loader, path string, stdin io.Reader) (*ingest.Result, error) {
	if path == stdinPath {
		return loader.Load(ctx, stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return loader.Load(ctx, file)
}
