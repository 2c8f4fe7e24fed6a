// Package graph provides context-aware views over a quad store: a Graph
// confined to one context and a Dataset spanning every context.
package graph

import (
	"iter"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Mode selects how aggregate accessors treat repeated values.
type Mode int

const (
	// Occurrences yields a value once per (triple, context) occurrence.
	Occurrences Mode = iota
	// Unique yields each distinct value or pair exactly once.
	Unique
)

func (m Mode) String() string {
	if m == Unique {
		return "unique"
	}
	return "occurrences"
}

// View is the read/write surface shared by Graph and Dataset.
type View interface {
	Add(t rdf.Triple) (bool, error)
	AddQuad(q rdf.Quad) (bool, error)
	Triples(subject, predicate, object rdf.Term) iter.Seq[rdf.Triple]
	All() iter.Seq[rdf.Triple]
	Contains(t rdf.Triple) bool
	Len() int

	Subjects(predicate, object rdf.Term, mode Mode) iter.Seq[rdf.Term]
	Predicates(subject, object rdf.Term, mode Mode) iter.Seq[rdf.Term]
	Objects(subject, predicate rdf.Term, mode Mode) iter.Seq[rdf.Term]
	SubjectPredicates(object rdf.Term, mode Mode) iter.Seq2[rdf.Term, rdf.Term]
	SubjectObjects(predicate rdf.Term, mode Mode) iter.Seq2[rdf.Term, rdf.Term]
	PredicateObjects(subject rdf.Term, mode Mode) iter.Seq2[rdf.Term, rdf.Term]
}

var (
	_ View = (*Graph)(nil)
	_ View = (*Dataset)(nil)
)
