package rdf

import "fmt"

// Triple represents an RDF triple (subject, predicate, object)
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func NewTriple(subject, predicate, object Term) Triple {
	return Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// InGraph places the triple in graph g.
func (t Triple) InGraph(g Term) Quad {
	return Quad{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object, Graph: g}
}

// Validate checks the positional constraints of a triple.
func (t Triple) Validate() error {
	return validateSPO(t.Subject, t.Predicate, t.Object)
}

// Quad represents an RDF quad (subject, predicate, object, graph)
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func NewQuad(subject, predicate, object, graph Term) Quad {
	return Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}
}

func (q Quad) String() string {
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// Triple drops the graph.
func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

// InDefaultGraph reports whether the quad belongs to the default graph.
func (q Quad) InDefaultGraph() bool {
	_, ok := q.Graph.(DefaultGraph)
	return ok
}

// Validate checks the positional constraints of a quad: the subject is an IRI
// or blank node, the predicate an IRI, the object an IRI, blank node or
// literal, and the graph an IRI, blank node or the default graph.
func (q Quad) Validate() error {
	if err := validateSPO(q.Subject, q.Predicate, q.Object); err != nil {
		return err
	}
	switch g := q.Graph.(type) {
	case NamedNode:
		if err := g.validate(); err != nil {
			return &TermError{Position: "graph", Err: err}
		}
	case BlankNode, DefaultGraph:
	default:
		return &TermError{Position: "graph", Err: fmt.Errorf("%w: %s cannot name a graph", ErrInvalidTerm, describe(q.Graph))}
	}
	return nil
}

func validateSPO(s, p, o Term) error {
	switch st := s.(type) {
	case NamedNode:
		if err := st.validate(); err != nil {
			return &TermError{Position: "subject", Err: err}
		}
	case BlankNode:
	default:
		return &TermError{Position: "subject", Err: fmt.Errorf("%w: %s cannot be a subject", ErrInvalidTerm, describe(s))}
	}

	pt, ok := p.(NamedNode)
	if !ok {
		return &TermError{Position: "predicate", Err: fmt.Errorf("%w: %s cannot be a predicate", ErrInvalidTerm, describe(p))}
	}
	if err := pt.validate(); err != nil {
		return &TermError{Position: "predicate", Err: err}
	}

	switch ot := o.(type) {
	case NamedNode:
		if err := ot.validate(); err != nil {
			return &TermError{Position: "object", Err: err}
		}
	case BlankNode:
	case Literal:
		if err := ot.validate(); err != nil {
			return &TermError{Position: "object", Err: err}
		}
	default:
		return &TermError{Position: "object", Err: fmt.Errorf("%w: %s cannot be an object", ErrInvalidTerm, describe(o))}
	}
	return nil
}

func describe(t Term) string {
	if t == nil {
		return "nil term"
	}
	return t.Type().String() + " " + t.String()
}
