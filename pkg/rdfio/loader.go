package rdfio

import (
	"context"
	"fmt"
	"io"

	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
)

// Loader binds one format's decoder factory to one ingestion pipeline.
type Loader struct {
	format   Format
	pipeline *ingest.Pipeline
}

// Loader resolves name once and returns a loader that ingests into sink.
func (r *Registry) Loader(name string, sink ingest.Sink, opts ...ingest.Option) (*Loader, error) {
	f, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Loader{format: f, pipeline: ingest.New(sink, opts...)}, nil
}

func (l *Loader) Format() Format {
	return l.format
}

// Load decodes r and ingests every statement. The decoder is closed before
// Load returns.
func (l *Loader) Load(ctx context.Context, r io.Reader, opts ...ingest.CallOption) (*ingest.Result, error) {
	dec, err := l.format.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s decoder: %w", l.format.Name, err)
	}
	defer dec.Close()

	res, err := l.pipeline.Ingest(ctx, dec, opts...)
	if err != nil {
		return res, fmt.Errorf("failed to load %s: %w", l.format.Name, err)
	}
	return res, nil
}
