package store

import (
	"iter"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Match returns the quads whose bound positions equal the given terms; nil
// terms are wildcards.
//
// The pattern is planned when the sequence is ranged over: the index whose key
// starts with every bound position is chosen and scanned as one prefix range.
// Each range clones that index (a copy-on-write snapshot) before traversal,
// so quads added or removed while ranging are not observed. Results come in
// index key order, which is stable while the store is unchanged.
func (s *Store) Match(subject, predicate, object, graph rdf.Term) iter.Seq[rdf.Quad] {
	pattern := [4]rdf.Term{subject, predicate, object, graph}

	return func(yield func(rdf.Quad) bool) {
		var bound spog
		var isBound [4]bool
		for pos, t := range pattern {
			if t == nil {
				continue
			}
			id, ok := s.terms.lookup(t)
			if !ok {
				// A term the store never saw cannot match anything
				return
			}
			bound[pos] = id
			isBound[pos] = true
		}

		idx, n := selectIndex(isBound)
		tree := s.indexes[idx].Clone()
		terms := s.terms.snapshot()

		prefix := idx.encode(bound)
		tree.AscendGreaterOrEqual(prefix, func(k key) bool {
			for i := 0; i < n; i++ {
				if k[i] != prefix[i] {
					return false
				}
			}
			ids := idx.decode(k)
			return yield(rdf.Quad{
				Subject:   terms[ids[posSubject]],
				Predicate: terms[ids[posPredicate]],
				Object:    terms[ids[posObject]],
				Graph:     terms[ids[posGraph]],
			})
		})
	}
}
