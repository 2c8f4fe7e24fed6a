// Package rdfio maps serialization format names to decoders and encoders and
// binds a decoder to an ingestion pipeline.
package rdfio

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aleksaelezovic/quadgraph/internal/hext"
	"github.com/aleksaelezovic/quadgraph/internal/jsonld"
	"github.com/aleksaelezovic/quadgraph/internal/nquads"
	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Built-in format names
const (
	NQuads    = "nquads"
	NTriples  = "ntriples"
	HexTuples = "hext"
	JSONLD    = "jsonld"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDecodeOnly        = errors.New("format has no encoder")
)

// QuadSource is the read side of a store needed by encoders.
type QuadSource interface {
	Match(subject, predicate, object, graph rdf.Term) iter.Seq[rdf.Quad]
	Contexts() []rdf.Term
}

// Format describes one serialization. Encode is nil for decode-only formats.
type Format struct {
	Name       string
	Extensions []string
	MediaTypes []string
	NewDecoder func(r io.Reader) (ingest.Decoder, error)
	Encode     func(w io.Writer, src QuadSource) error
}

// Registry resolves formats by name, media type or file extension.
type Registry struct {
	formats map[string]Format
}

func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]Format)}
}

// Register adds f, replacing any format with the same name.
func (r *Registry) Register(f Format) error {
	name := ParseFormatName(f.Name)
	if name == "" {
		return errors.New("format name is required")
	}
	if f.NewDecoder == nil {
		return fmt.Errorf("format %s: decoder factory is required", name)
	}
	f.Name = name
	r.formats[name] = f
	return nil
}

func (r *Registry) Lookup(name string) (Format, error) {
	f, ok := r.formats[ParseFormatName(name)]
	if !ok {
		return Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// LookupMediaType finds a format by MIME type; parameters such as charset
// are ignored.
func (r *Registry) LookupMediaType(mediaType string) (Format, error) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.Index(mt, ";"); idx != -1 {
		mt = strings.TrimSpace(mt[:idx])
	}
	for _, name := range r.Names() {
		f := r.formats[name]
		if slices.Contains(f.MediaTypes, mt) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: media type %s", ErrUnsupportedFormat, mediaType)
}

// FormatForPath picks a format from the file extension of path.
func (r *Registry) FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return Format{}, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	for _, name := range r.Names() {
		f := r.formats[name]
		if slices.Contains(f.Extensions, ext) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: extension %s", ErrUnsupportedFormat, ext)
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.formats))
}

// Encode writes src in the named format.
func (r *Registry) Encode(name string, w io.Writer, src QuadSource) error {
	f, err := r.Lookup(name)
	if err != nil {
		return err
	}
	if f.Encode == nil {
		return fmt.Errorf("%w: %s", ErrDecodeOnly, f.Name)
	}
	return f.Encode(w, src)
}

// ParseFormatName normalizes a user-supplied format name. Unknown names are
// returned lower-cased so custom formats still resolve.
func ParseFormatName(s string) string {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "nq", "n-quads", "nquads":
		return NQuads
	case "nt", "n-triples", "ntriples":
		return NTriples
	case "hext", "hextuples", "ndjson":
		return HexTuples
	case "jsonld", "json-ld":
		return JSONLD
	default:
		return name
	}
}

// Default returns a new registry holding the built-in formats.
func Default() *Registry {
	r := NewRegistry()
	for _, f := range builtin() {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

func builtin() []Format {
	return []Format{
		{
			Name:       NQuads,
			Extensions: []string{".nq", ".nquads"},
			MediaTypes: []string{"application/n-quads"},
			NewDecoder: func(r io.Reader) (ingest.Decoder, error) {
				return nquads.NewDecoder(r), nil
			},
			Encode: func(w io.Writer, src QuadSource) error {
				return nquads.Encode(w, src)
			},
		},
		{
			Name:       NTriples,
			Extensions: []string{".nt", ".ntriples"},
			MediaTypes: []string{"application/n-triples", "text/plain"},
			NewDecoder: func(r io.Reader) (ingest.Decoder, error) {
				return nquads.NewTriplesDecoder(r), nil
			},
			Encode: func(w io.Writer, src QuadSource) error {
				return nquads.EncodeTriples(w, src)
			},
		},
		{
			Name:       HexTuples,
			Extensions: []string{".hext", ".ndjson"},
			MediaTypes: []string{"application/hex+x-ndjson"},
			NewDecoder: func(r io.Reader) (ingest.Decoder, error) {
				return hext.NewDecoder(r), nil
			},
			Encode: func(w io.Writer, src QuadSource) error {
				return hext.Encode(w, src)
			},
		},
		{
			Name:       JSONLD,
			Extensions: []string{".jsonld", ".json"},
			MediaTypes: []string{"application/ld+json"},
			NewDecoder: func(r io.Reader) (ingest.Decoder, error) {
				return jsonld.NewDecoder(r)
			},
		},
	}
}
