package graph

import (
	"iter"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
	"github.com/aleksaelezovic/quadgraph/pkg/store"
)

// Graph is a view of one context of a store. Writes go to that context and
// reads see only its triples.
type Graph struct {
	aggregates
	store *store.Store
	id    rdf.Term
}

// NewGraph returns the view of context id in st. A nil id selects the default
// graph and a nil store is replaced by a fresh one.
func NewGraph(st *store.Store, id rdf.Term) *Graph {
	if st == nil {
		st = store.New()
	}
	if id == nil {
		id = rdf.NewDefaultGraph()
	}
	g := &Graph{store: st, id: id}
	g.aggregates = aggregates{triples: g.Triples}
	return g
}

// Identifier returns the context this graph is bound to.
func (g *Graph) Identifier() rdf.Term {
	return g.id
}

// Store returns the underlying store.
func (g *Graph) Store() *store.Store {
	return g.store
}

// Add inserts t into this graph's context.
func (g *Graph) Add(t rdf.Triple) (bool, error) {
	return g.store.Add(t.InGraph(g.id))
}

// AddQuad inserts the triple part of q into this graph's context; the quad's
// own context is ignored.
func (g *Graph) AddQuad(q rdf.Quad) (bool, error) {
	return g.Add(q.Triple())
}

// Remove deletes t from this graph's context.
func (g *Graph) Remove(t rdf.Triple) bool {
	return g.store.Remove(t.InGraph(g.id))
}

// Triples yields the triples of this graph matching the pattern.
func (g *Graph) Triples(subject, predicate, object rdf.Term) iter.Seq[rdf.Triple] {
	return func(yield func(rdf.Triple) bool) {
		for q := range g.store.Match(subject, predicate, object, g.id) {
			if !yield(q.Triple()) {
				return
			}
		}
	}
}

// All yields every triple of this graph.
func (g *Graph) All() iter.Seq[rdf.Triple] {
	return g.Triples(nil, nil, nil)
}

func (g *Graph) Contains(t rdf.Triple) bool {
	return g.store.Contains(t.InGraph(g.id))
}

func (g *Graph) Len() int {
	return g.store.ContextLen(g.id)
}
