package graph

import (
	"iter"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// aggregates implements the aggregate accessors on top of a triple pattern
// source. The source decides whether a triple repeated across contexts is
// reported once per context.
type aggregates struct {
	triples func(subject, predicate, object rdf.Term) iter.Seq[rdf.Triple]
}

// Subjects yields the subjects of triples matching (?, predicate, object).
func (a aggregates) Subjects(predicate, object rdf.Term, mode Mode) iter.Seq[rdf.Term] {
	return project(a.triples(nil, predicate, object), func(t rdf.Triple) rdf.Term { return t.Subject }, mode)
}

// Predicates yields the predicates of triples matching (subject, ?, object).
func (a aggregates) Predicates(subject, object rdf.Term, mode Mode) iter.Seq[rdf.Term] {
	return project(a.triples(subject, nil, object), func(t rdf.Triple) rdf.Term { return t.Predicate }, mode)
}

// Objects yields the objects of triples matching (subject, predicate, ?).
func (a aggregates) Objects(subject, predicate rdf.Term, mode Mode) iter.Seq[rdf.Term] {
	return project(a.triples(subject, predicate, nil), func(t rdf.Triple) rdf.Term { return t.Object }, mode)
}

func (a aggregates) SubjectPredicates(object rdf.Term, mode Mode) iter.Seq2[rdf.Term, rdf.Term] {
	return projectPairs(a.triples(nil, nil, object), func(t rdf.Triple) (rdf.Term, rdf.Term) {
		return t.Subject, t.Predicate
	}, mode)
}

func (a aggregates) SubjectObjects(predicate rdf.Term, mode Mode) iter.Seq2[rdf.Term, rdf.Term] {
	return projectPairs(a.triples(nil, predicate, nil), func(t rdf.Triple) (rdf.Term, rdf.Term) {
		return t.Subject, t.Object
	}, mode)
}

func (a aggregates) PredicateObjects(subject rdf.Term, mode Mode) iter.Seq2[rdf.Term, rdf.Term] {
	return projectPairs(a.triples(subject, nil, nil), func(t rdf.Triple) (rdf.Term, rdf.Term) {
		return t.Predicate, t.Object
	}, mode)
}

func project(src iter.Seq[rdf.Triple], pick func(rdf.Triple) rdf.Term, mode Mode) iter.Seq[rdf.Term] {
	values := func(yield func(rdf.Term) bool) {
		for t := range src {
			if !yield(pick(t)) {
				return
			}
		}
	}
	if mode == Unique {
		return distinct(values)
	}
	return values
}

// distinct drops values already yielded by the same range.
func distinct[T comparable](seq iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		seen := make(map[T]struct{})
		for v := range seq {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			if !yield(v) {
				return
			}
		}
	}
}

func projectPairs(src iter.Seq[rdf.Triple], pick func(rdf.Triple) (rdf.Term, rdf.Term), mode Mode) iter.Seq2[rdf.Term, rdf.Term] {
	return func(yield func(rdf.Term, rdf.Term) bool) {
		var seen map[[2]rdf.Term]struct{}
		if mode == Unique {
			seen = make(map[[2]rdf.Term]struct{})
		}
		for t := range src {
			a, b := pick(t)
			if seen != nil {
				pair := [2]rdf.Term{a, b}
				if _, dup := seen[pair]; dup {
					continue
				}
				seen[pair] = struct{}{}
			}
			if !yield(a, b) {
				return
			}
		}
	}
}
