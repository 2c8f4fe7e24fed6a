// Package canon decides graph isomorphism under blank node relabeling with
// colour refinement.
//
// Every blank node starts with the same colour. Each round recolours a blank
// node from its previous colour and the sorted multiset of (predicate,
// neighbour colour, role) tuples of the triples it occurs in. Refinement ends
// when a round splits no colour class or the round bound is hit.
//
// The comparison is sound for genuine relabelings: isomorphic graphs always
// compare equal. It is not complete. Graphs whose blank nodes cannot be told
// apart by refinement, such as one 6-cycle and two 3-cycles over the same
// predicate, colour identically and compare equal although they are not
// isomorphic.
package canon

import (
	"iter"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// DefaultMaxRounds caps the number of refinement rounds when no explicit bound
// is configured.
const DefaultMaxRounds = 64

// Source supplies the triples of a graph. graph.Graph and graph.Dataset
// satisfy it.
type Source interface {
	All() iter.Seq[rdf.Triple]
}

// Triples adapts a slice to Source.
type Triples []rdf.Triple

func (t Triples) All() iter.Seq[rdf.Triple] {
	return func(yield func(rdf.Triple) bool) {
		for _, tr := range t {
			if !yield(tr) {
				return
			}
		}
	}
}

type options struct {
	maxRounds int
}

// Option configures refinement.
type Option func(*options)

// WithMaxRounds bounds the number of refinement rounds. Values below one
// restore the default bound: the number of blank nodes plus one, capped at
// DefaultMaxRounds.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		o.maxRounds = n
	}
}

// IsIsomorphic reports whether a and b have the same triple count, the same
// multiset of blank-free triples, and the same multiset of colour signatures
// for the triples touching blank nodes.
func IsIsomorphic(a, b Source, opts ...Option) bool {
	return Canonicalize(a, opts...).Equal(Canonicalize(b, opts...))
}

// CanonicalSignature returns a digest that is equal for isomorphic graphs.
// It can serve as a cache or deduplication key.
func CanonicalSignature(src Source, opts ...Option) Signature {
	return Canonicalize(src, opts...).Signature()
}
