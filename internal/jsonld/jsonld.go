// Package jsonld decodes JSON-LD documents into raw statements using
// json-gold's RDF conversion.
package jsonld

import (
	"fmt"
	"io"
	"slices"

	jsoniter "github.com/json-iterator/go"
	"github.com/piprate/json-gold/ld"

	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
)

const (
	defaultGraph = "@default"
	blankPrefix  = "_:"

	xsdString     = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

var jsonAdapter = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseError reports a document json-gold could not convert. The
// underlying JSON and JSON-LD errors carry no position.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type options struct {
	base string
}

// Option configures the decoder.
type Option func(*options)

// WithBase sets the base IRI used to resolve relative references.
func WithBase(base string) Option {
	return func(o *options) {
		o.base = base
	}
}

// NewDecoder reads the whole document from r and converts it to RDF.
// The default graph comes first, named graphs follow in name order.
func NewDecoder(r io.Reader, opts ...Option) (ingest.Decoder, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON-LD document: %w", err)
	}

	var doc any
	if err := jsonAdapter.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Format: "jsonld", Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	proc := ld.NewJsonLdProcessor()
	ldOpts := ld.NewJsonLdOptions(o.base)
	result, err := proc.ToRDF(doc, ldOpts)
	if err != nil {
		return nil, &ParseError{Format: "jsonld", Err: err}
	}
	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return nil, &ParseError{Format: "jsonld", Err: fmt.Errorf("unexpected conversion result %T", result)}
	}

	statements, err := convert(dataset)
	if err != nil {
		return nil, &ParseError{Format: "jsonld", Err: err}
	}
	return ingest.FromStatements(statements), nil
}

func convert(dataset *ld.RDFDataset) ([]ingest.RawStatement, error) {
	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		if name != defaultGraph {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	names = slices.Insert(names, 0, defaultGraph)

	var statements []ingest.RawStatement
	for _, name := range names {
		var context ingest.RawTerm
		if name != defaultGraph {
			context = resource(name)
		}
		for _, q := range dataset.Graphs[name] {
			st, err := statement(q, context)
			if err != nil {
				return nil, err
			}
			statements = append(statements, st)
		}
	}
	return statements, nil
}

func statement(q *ld.Quad, context ingest.RawTerm) (ingest.RawStatement, error) {
	subject, err := term(q.Subject)
	if err != nil {
		return ingest.RawStatement{}, fmt.Errorf("subject: %w", err)
	}
	predicate, err := term(q.Predicate)
	if err != nil {
		return ingest.RawStatement{}, fmt.Errorf("predicate: %w", err)
	}
	if predicate.Kind != ingest.KindIRI {
		return ingest.RawStatement{}, fmt.Errorf("predicate must be an IRI, got %s", predicate.Kind)
	}
	object, err := term(q.Object)
	if err != nil {
		return ingest.RawStatement{}, fmt.Errorf("object: %w", err)
	}
	return ingest.RawStatement{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Context:   context,
	}, nil
}

func term(node ld.Node) (ingest.RawTerm, error) {
	switch n := node.(type) {
	case ld.IRI:
		return ingest.IRI(n.Value), nil
	case *ld.IRI:
		return ingest.IRI(n.Value), nil
	case ld.BlankNode:
		return resource(n.Attribute), nil
	case *ld.BlankNode:
		return resource(n.Attribute), nil
	case ld.Literal:
		return literal(n.Value, n.Datatype, n.Language), nil
	case *ld.Literal:
		return literal(n.Value, n.Datatype, n.Language), nil
	default:
		return ingest.RawTerm{}, fmt.Errorf("unsupported node %T", node)
	}
}

// JSON strings come back typed as xsd:string; they are read as plain
// literals so the same value matches across formats.
func literal(value, datatype, language string) ingest.RawTerm {
	switch {
	case language != "":
		return ingest.Literal(value, "", language)
	case datatype == xsdString, datatype == rdfLangString:
		return ingest.Literal(value, "", "")
	default:
		return ingest.Literal(value, datatype, "")
	}
}

func resource(s string) ingest.RawTerm {
	if len(s) > len(blankPrefix) && s[:len(blankPrefix)] == blankPrefix {
		return ingest.Blank(s[len(blankPrefix):])
	}
	return ingest.IRI(s)
}
