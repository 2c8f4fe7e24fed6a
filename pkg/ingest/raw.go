// Package ingest turns raw statement streams produced by format decoders into
// quads, resolving blank node labels through a caller-visible Scope.
package ingest

import (
	"io"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Kind tags what a raw term denotes.
type Kind byte

const (
	// KindNone marks an absent slot, e.g. the context of a triple format.
	KindNone Kind = iota
	KindIRI
	KindBlank
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// RawTerm is a term as a decoder saw it. Blank node values are format-local
// labels; Datatype and Language only apply to literals.
type RawTerm struct {
	Kind     Kind
	Value    string
	Datatype string
	Language string
}

// IRI returns a raw IRI term.
func IRI(value string) RawTerm {
	return RawTerm{Kind: KindIRI, Value: value}
}

// Blank returns a raw blank node term for a format-local label.
func Blank(label string) RawTerm {
	return RawTerm{Kind: KindBlank, Value: label}
}

// Literal returns a raw literal term. Empty datatype or language mean absent.
func Literal(value, datatype, language string) RawTerm {
	return RawTerm{Kind: KindLiteral, Value: value, Datatype: datatype, Language: language}
}

// RawStatement is one decoded statement. Context.Kind is KindNone when the
// format has no context slot or the statement left it empty.
type RawStatement struct {
	Subject   RawTerm
	Predicate RawTerm
	Object    RawTerm
	Context   RawTerm
}

// Decoder produces raw statements. Next returns io.EOF after the last
// statement. Implementations guarantee the predicate is an IRI.
type Decoder interface {
	Next() (RawStatement, error)
	Close() error
}

type sliceDecoder struct {
	statements []RawStatement
	pos        int
}

// FromStatements returns a decoder replaying statements in order.
func FromStatements(statements []RawStatement) Decoder {
	return &sliceDecoder{statements: statements}
}

func (d *sliceDecoder) Next() (RawStatement, error) {
	if d.pos >= len(d.statements) {
		return RawStatement{}, io.EOF
	}
	st := d.statements[d.pos]
	d.pos++
	return st, nil
}

func (d *sliceDecoder) Close() error {
	return nil
}

// Sink receives resolved quads. Both graph.Graph and graph.Dataset satisfy it.
type Sink interface {
	AddQuad(q rdf.Quad) (bool, error)
}
