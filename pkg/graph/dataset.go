package graph

import (
	"iter"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
	"github.com/aleksaelezovic/quadgraph/pkg/store"
)

// Dataset is the union view over every context of a store. Triple writes go
// to the default context; reads report each (triple, context) occurrence.
type Dataset struct {
	aggregates
	store          *store.Store
	defaultContext rdf.Term
}

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithDefaultContext sets the context that receives triples written without
// an explicit context.
func WithDefaultContext(id rdf.Term) DatasetOption {
	return func(d *Dataset) {
		if id != nil {
			d.defaultContext = id
		}
	}
}

// NewDataset returns the union view over st. A nil store is replaced by a
// fresh one.
func NewDataset(st *store.Store, opts ...DatasetOption) *Dataset {
	if st == nil {
		st = store.New()
	}
	d := &Dataset{store: st, defaultContext: rdf.NewDefaultGraph()}
	for _, opt := range opts {
		opt(d)
	}
	d.aggregates = aggregates{triples: d.Triples}
	return d
}

// Store returns the underlying store.
func (d *Dataset) Store() *store.Store {
	return d.store
}

// DefaultContext returns the context used for writes without a context.
func (d *Dataset) DefaultContext() rdf.Term {
	return d.defaultContext
}

// Add inserts t into the default context.
func (d *Dataset) Add(t rdf.Triple) (bool, error) {
	return d.store.Add(t.InGraph(d.defaultContext))
}

// AddQuad inserts q into its own context, or the default context when q has
// none.
func (d *Dataset) AddQuad(q rdf.Quad) (bool, error) {
	if q.Graph == nil {
		q.Graph = d.defaultContext
	}
	return d.store.Add(q)
}

// Remove deletes t from every context and returns how many quads went away.
func (d *Dataset) Remove(t rdf.Triple) int {
	removed := 0
	for q := range d.store.Match(t.Subject, t.Predicate, t.Object, nil) {
		if d.store.Remove(q) {
			removed++
		}
	}
	return removed
}

// RemoveQuad deletes one quad. A nil context means the default context.
func (d *Dataset) RemoveQuad(q rdf.Quad) bool {
	if q.Graph == nil {
		q.Graph = d.defaultContext
	}
	return d.store.Remove(q)
}

// Quads yields the quads matching the pattern; nil terms are wildcards.
func (d *Dataset) Quads(subject, predicate, object, graph rdf.Term) iter.Seq[rdf.Quad] {
	return d.store.Match(subject, predicate, object, graph)
}

// Triples yields one triple per matching (triple, context) occurrence.
func (d *Dataset) Triples(subject, predicate, object rdf.Term) iter.Seq[rdf.Triple] {
	return func(yield func(rdf.Triple) bool) {
		for q := range d.store.Match(subject, predicate, object, nil) {
			if !yield(q.Triple()) {
				return
			}
		}
	}
}

// TriplesMode is Triples with a choice of mode. Under Unique a triple held by
// several contexts is yielded once.
func (d *Dataset) TriplesMode(subject, predicate, object rdf.Term, mode Mode) iter.Seq[rdf.Triple] {
	if mode == Unique {
		return distinct(d.Triples(subject, predicate, object))
	}
	return d.Triples(subject, predicate, object)
}

func (d *Dataset) All() iter.Seq[rdf.Triple] {
	return d.Triples(nil, nil, nil)
}

// AllMode yields every triple, once per context or once overall.
func (d *Dataset) AllMode(mode Mode) iter.Seq[rdf.Triple] {
	return d.TriplesMode(nil, nil, nil, mode)
}

// Contains reports whether t occurs in any context.
func (d *Dataset) Contains(t rdf.Triple) bool {
	for range d.store.Match(t.Subject, t.Predicate, t.Object, nil) {
		return true
	}
	return false
}

// Len counts (triple, context) occurrences.
func (d *Dataset) Len() int {
	return d.store.Len()
}

// LenMode counts occurrences, or distinct triples under Unique.
func (d *Dataset) LenMode(mode Mode) int {
	if mode != Unique {
		return d.Len()
	}
	n := 0
	for range d.AllMode(Unique) {
		n++
	}
	return n
}

// Graph returns the single-context view of id.
func (d *Dataset) Graph(id rdf.Term) *Graph {
	return NewGraph(d.store, id)
}

// DefaultGraph returns the view of the default context.
func (d *Dataset) DefaultGraph() *Graph {
	return NewGraph(d.store, d.defaultContext)
}

// Contexts returns the live and declared contexts in rdf.Compare order.
func (d *Dataset) Contexts() []rdf.Term {
	return d.store.Contexts()
}

// Graphs yields a view for every context.
func (d *Dataset) Graphs() iter.Seq[*Graph] {
	return func(yield func(*Graph) bool) {
		for _, id := range d.store.Contexts() {
			if !yield(NewGraph(d.store, id)) {
				return
			}
		}
	}
}

// DeclareGraph records id as a context, even an empty one, and returns its
// view.
func (d *Dataset) DeclareGraph(id rdf.Term) (*Graph, error) {
	if err := d.store.DeclareContext(id); err != nil {
		return nil, err
	}
	return NewGraph(d.store, id), nil
}

// DropGraph removes the context id with all its quads and returns the number
// of quads removed.
func (d *Dataset) DropGraph(id rdf.Term) int {
	return d.store.DropContext(id)
}
