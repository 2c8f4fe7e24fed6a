package rdf

import (
	"cmp"
	"fmt"
	"unicode/utf8"
)

// TermType represents the type of an RDF term
type TermType byte

// Kinds are ordered; Compare sorts terms of different kinds by this value.
const (
	TermTypeDefaultGraph TermType = iota + 1
	TermTypeNamedNode
	TermTypeBlankNode
	TermTypeLiteral
)

func (t TermType) String() string {
	switch t {
	case TermTypeDefaultGraph:
		return "default-graph"
	case TermTypeNamedNode:
		return "iri"
	case TermTypeBlankNode:
		return "blank"
	case TermTypeLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term represents an RDF term (IRI, blank node, literal or the default graph).
//
// All implementations are comparable value types, so terms can be used
// directly as map keys and compared with ==.
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

// NewNamedNode returns the IRI term for iri. The IRI must be non-empty valid
// UTF-8.
func NewNamedNode(iri string) (NamedNode, error) {
	n := NamedNode{IRI: iri}
	if err := n.validate(); err != nil {
		return NamedNode{}, &TermError{Position: "iri", Err: err}
	}
	return n, nil
}

// MustNamedNode is like NewNamedNode but panics on an invalid IRI.
// It is meant for vocabulary constants and tests.
func MustNamedNode(iri string) NamedNode {
	n, err := NewNamedNode(iri)
	if err != nil {
		panic(err)
	}
	return n
}

func (n NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n NamedNode) String() string {
	return "<" + escapeIRI(n.IRI) + ">"
}

func (n NamedNode) Equals(other Term) bool {
	on, ok := other.(NamedNode)
	return ok && n == on
}

// IsZero reports whether n is the zero NamedNode (used for "no datatype").
func (n NamedNode) IsZero() bool {
	return n.IRI == ""
}

func (n NamedNode) validate() error {
	if n.IsZero() {
		return fmt.Errorf("%w: empty IRI", ErrInvalidTerm)
	}
	if !utf8.ValidString(n.IRI) {
		return fmt.Errorf("%w: IRI %q is not valid UTF-8", ErrInvalidTerm, n.IRI)
	}
	return nil
}

// BlankNode represents a blank node. Its identity is only meaningful inside
// the store or parse session that minted it.
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) BlankNode {
	return BlankNode{ID: id}
}

func (b BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b BlankNode) String() string {
	return "_:" + b.ID
}

func (b BlankNode) Equals(other Term) bool {
	ob, ok := other.(BlankNode)
	return ok && b == ob
}

// Literal represents an RDF literal.
//
// Language and Datatype are mutually exclusive. A literal with neither is a
// plain string; it is a different term from the same lexical form typed as
// xsd:string.
type Literal struct {
	Value    string
	Language string    // for language-tagged strings
	Datatype NamedNode // zero value means no datatype
}

func NewLiteral(value string) Literal {
	return Literal{Value: value}
}

func NewLiteralWithLanguage(value, language string) (Literal, error) {
	return NewTypedLiteral(value, NamedNode{}, language)
}

func NewLiteralWithDatatype(value string, datatype NamedNode) (Literal, error) {
	if datatype.IsZero() {
		return Literal{}, &TermError{Position: "datatype", Err: fmt.Errorf("%w: empty datatype IRI", ErrInvalidTerm)}
	}
	return NewTypedLiteral(value, datatype, "")
}

// NewTypedLiteral builds a literal from its three parts. Setting both a
// datatype and a language tag is an error; nothing is dropped silently.
func NewTypedLiteral(value string, datatype NamedNode, language string) (Literal, error) {
	if !datatype.IsZero() && language != "" {
		return Literal{}, &TermError{
			Position: "literal",
			Err:      fmt.Errorf("%w: literal %q has both datatype %s and language %q", ErrInvalidTerm, value, datatype, language),
		}
	}
	if !utf8.ValidString(value) {
		return Literal{}, &TermError{Position: "literal", Err: fmt.Errorf("%w: value %q is not valid UTF-8", ErrInvalidTerm, value)}
	}
	if !datatype.IsZero() {
		if err := datatype.validate(); err != nil {
			return Literal{}, &TermError{Position: "datatype", Err: err}
		}
	}
	if language != "" && !validLanguageTag(language) {
		return Literal{}, &TermError{Position: "language", Err: fmt.Errorf("%w: malformed language tag %q", ErrInvalidTerm, language)}
	}
	return Literal{Value: value, Language: language, Datatype: datatype}, nil
}

func (l Literal) Type() TermType {
	return TermTypeLiteral
}

func (l Literal) String() string {
	result := `"` + escapeString(l.Value) + `"`
	if l.Language != "" {
		result += "@" + l.Language
	} else if !l.Datatype.IsZero() {
		result += "^^" + l.Datatype.String()
	}
	return result
}

func (l Literal) Equals(other Term) bool {
	ol, ok := other.(Literal)
	return ok && l == ol
}

// validate reports whether l could have been built by NewTypedLiteral.
func (l Literal) validate() error {
	_, err := NewTypedLiteral(l.Value, l.Datatype, l.Language)
	return err
}

// DefaultGraph represents the default graph
type DefaultGraph struct{}

func NewDefaultGraph() DefaultGraph {
	return DefaultGraph{}
}

func (d DefaultGraph) Type() TermType {
	return TermTypeDefaultGraph
}

func (d DefaultGraph) String() string {
	return "DEFAULT"
}

func (d DefaultGraph) Equals(other Term) bool {
	_, ok := other.(DefaultGraph)
	return ok
}

// Compare orders terms totally: first by kind, then by their fields.
// A nil term sorts before everything else.
func Compare(a, b Term) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if c := cmp.Compare(a.Type(), b.Type()); c != 0 {
		return c
	}
	switch at := a.(type) {
	case NamedNode:
		return cmp.Compare(at.IRI, b.(NamedNode).IRI)
	case BlankNode:
		return cmp.Compare(at.ID, b.(BlankNode).ID)
	case Literal:
		bt := b.(Literal)
		if c := cmp.Compare(at.Value, bt.Value); c != 0 {
			return c
		}
		if c := cmp.Compare(at.Datatype.IRI, bt.Datatype.IRI); c != 0 {
			return c
		}
		return cmp.Compare(at.Language, bt.Language)
	default:
		return 0
	}
}

// IsBlank reports whether t is a blank node.
func IsBlank(t Term) bool {
	_, ok := t.(BlankNode)
	return ok
}

// validLanguageTag checks the BCP 47 shape used by N-Quads:
// [a-zA-Z]+ ('-' [a-zA-Z0-9]+)*
func validLanguageTag(tag string) bool {
	first := true
	segLen := 0
	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		switch {
		case ch == '-':
			if segLen == 0 {
				return false
			}
			first = false
			segLen = 0
		case (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
			segLen++
		case ch >= '0' && ch <= '9':
			if first {
				return false
			}
			segLen++
		default:
			return false
		}
	}
	return segLen > 0
}

// Common datatypes
var (
	XSDString     = MustNamedNode("http://www.w3.org/2001/XMLSchema#string")
	XSDInteger    = MustNamedNode("http://www.w3.org/2001/XMLSchema#integer")
	XSDDecimal    = MustNamedNode("http://www.w3.org/2001/XMLSchema#decimal")
	XSDDouble     = MustNamedNode("http://www.w3.org/2001/XMLSchema#double")
	XSDBoolean    = MustNamedNode("http://www.w3.org/2001/XMLSchema#boolean")
	XSDDateTime   = MustNamedNode("http://www.w3.org/2001/XMLSchema#dateTime")
	XSDDate       = MustNamedNode("http://www.w3.org/2001/XMLSchema#date")
	RDFLangString = MustNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#langString")
	RDFType       = MustNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
)
