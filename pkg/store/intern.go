package store

import "github.com/aleksaelezovic/quadgraph/pkg/rdf"

// internTable maps terms to dense store-local ids. It is append-only: ids are
// never reused, so a slice header captured at any point keeps resolving every
// id that existed at that point.
type internTable struct {
	ids   map[rdf.Term]termID
	terms []rdf.Term // terms[id]; slot 0 unused
}

func newInternTable() *internTable {
	return &internTable{
		ids:   make(map[rdf.Term]termID),
		terms: []rdf.Term{nil},
	}
}

func (t *internTable) intern(term rdf.Term) termID {
	if id, ok := t.ids[term]; ok {
		return id
	}
	id := termID(len(t.terms))
	t.terms = append(t.terms, term)
	t.ids[term] = id
	return id
}

func (t *internTable) lookup(term rdf.Term) (termID, bool) {
	id, ok := t.ids[term]
	return id, ok
}

func (t *internTable) term(id termID) rdf.Term {
	return t.terms[id]
}

func (t *internTable) snapshot() []rdf.Term {
	return t.terms
}

func (t *internTable) len() int {
	return len(t.terms) - 1
}
