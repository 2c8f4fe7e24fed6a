package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/btree"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// DefaultDegree is the B-tree degree used when none is configured.
const DefaultDegree = 32

// ErrIndexMismatch is returned by Verify when the indexes disagree with each
// other or with the context counts.
var ErrIndexMismatch = errors.New("index mismatch")

// Store holds a set of unique quads under six permutation indexes.
//
// A Store is not safe for concurrent use. Callers that read and write from
// several goroutines must guard it with their own sync.RWMutex. Iterating a
// Match sequence while mutating the store from the same goroutine is allowed:
// each range works on a snapshot taken when it starts.
type Store struct {
	terms    *internTable
	indexes  [indexCount]*btree.BTreeG[key]
	contexts map[termID]int // quads per context
	declared map[termID]struct{}
	size     int
	degree   int
}

// Option configures a Store.
type Option func(*Store)

// WithDegree sets the degree of every index B-tree.
func WithDegree(degree int) Option {
	return func(s *Store) {
		if degree >= 2 {
			s.degree = degree
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		terms:    newInternTable(),
		contexts: make(map[termID]int),
		declared: make(map[termID]struct{}),
		degree:   DefaultDegree,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.indexes {
		s.indexes[i] = btree.NewG[key](s.degree, lessKey)
	}
	return s
}

// Add inserts a quad. It reports false when the quad was already present.
// A malformed quad is rejected with an error wrapping rdf.ErrInvalidTerm and
// leaves the store untouched.
func (s *Store) Add(q rdf.Quad) (bool, error) {
	if err := q.Validate(); err != nil {
		return false, err
	}
	if ids, ok := s.lookupQuad(q); ok && s.has(ids) {
		return false, nil
	}

	ids := spog{
		s.terms.intern(q.Subject),
		s.terms.intern(q.Predicate),
		s.terms.intern(q.Object),
		s.terms.intern(q.Graph),
	}
	for i, tree := range s.indexes {
		tree.ReplaceOrInsert(Index(i).encode(ids))
	}
	s.contexts[ids[posGraph]]++
	s.size++
	return true, nil
}

// Remove deletes a quad and reports whether it was present. A context whose
// last quad is removed disappears unless it was declared.
func (s *Store) Remove(q rdf.Quad) bool {
	ids, ok := s.lookupQuad(q)
	if !ok || !s.has(ids) {
		return false
	}
	s.removeIDs(ids)
	return true
}

// Contains reports whether the quad is stored.
func (s *Store) Contains(q rdf.Quad) bool {
	ids, ok := s.lookupQuad(q)
	return ok && s.has(ids)
}

// Len returns the number of quads across all contexts.
func (s *Store) Len() int {
	return s.size
}

// ContextLen returns the number of quads in context g.
func (s *Store) ContextLen(g rdf.Term) int {
	id, ok := s.terms.lookup(g)
	if !ok {
		return 0
	}
	return s.contexts[id]
}

// Count returns the number of quads matching the pattern. Nil terms are
// wildcards.
func (s *Store) Count(subject, predicate, object, graph rdf.Term) int {
	switch {
	case subject == nil && predicate == nil && object == nil && graph == nil:
		return s.size
	case subject == nil && predicate == nil && object == nil:
		return s.ContextLen(graph)
	}
	n := 0
	for range s.Match(subject, predicate, object, graph) {
		n++
	}
	return n
}

// Contexts returns every context holding at least one quad plus every
// declared context, sorted with rdf.Compare.
func (s *Store) Contexts() []rdf.Term {
	result := make([]rdf.Term, 0, len(s.contexts)+len(s.declared))
	for id := range s.contexts {
		result = append(result, s.terms.term(id))
	}
	for id := range s.declared {
		if _, counted := s.contexts[id]; !counted {
			result = append(result, s.terms.term(id))
		}
	}
	slices.SortFunc(result, rdf.Compare)
	return result
}

// HasContext reports whether g is a live or declared context.
func (s *Store) HasContext(g rdf.Term) bool {
	id, ok := s.terms.lookup(g)
	if !ok {
		return false
	}
	if _, declared := s.declared[id]; declared {
		return true
	}
	return s.contexts[id] > 0
}

// DeclareContext records g as a context even while it holds no quads.
func (s *Store) DeclareContext(g rdf.Term) error {
	if err := validateContext(g); err != nil {
		return err
	}
	s.declared[s.terms.intern(g)] = struct{}{}
	return nil
}

// DropContext removes every quad of g and its declaration. It returns the
// number of quads removed.
func (s *Store) DropContext(g rdf.Term) int {
	id, ok := s.terms.lookup(g)
	if !ok {
		return 0
	}
	delete(s.declared, id)

	var victims []spog
	prefix := IndexGSPO.encode(spog{posGraph: id})
	s.indexes[IndexGSPO].AscendGreaterOrEqual(prefix, func(k key) bool {
		if k[0] != id {
			return false
		}
		victims = append(victims, IndexGSPO.decode(k))
		return true
	})
	for _, ids := range victims {
		s.removeIDs(ids)
	}
	return len(victims)
}

// Terms returns the number of distinct terms interned by the store. Removed
// quads do not release their terms.
func (s *Store) Terms() int {
	return s.terms.len()
}

// IndexLen returns the number of entries in one index.
func (s *Store) IndexLen(idx Index) int {
	if idx >= indexCount {
		return 0
	}
	return s.indexes[idx].Len()
}

// Verify checks that every index holds exactly the quad set of the SPOG
// index and that each context count equals its GSPO range.
func (s *Store) Verify() error {
	var quads []spog
	s.indexes[IndexSPOG].Ascend(func(k key) bool {
		quads = append(quads, IndexSPOG.decode(k))
		return true
	})
	if len(quads) != s.size {
		return fmt.Errorf("%w: spog holds %d quads, store counts %d", ErrIndexMismatch, len(quads), s.size)
	}

	for i := IndexPOSG; i < indexCount; i++ {
		tree := s.indexes[i]
		if tree.Len() != s.size {
			return fmt.Errorf("%w: %s holds %d entries, want %d", ErrIndexMismatch, i, tree.Len(), s.size)
		}
		for _, ids := range quads {
			if !tree.Has(i.encode(ids)) {
				return fmt.Errorf("%w: %s is missing %v", ErrIndexMismatch, i, ids)
			}
		}
	}

	perContext := make(map[termID]int)
	s.indexes[IndexGSPO].Ascend(func(k key) bool {
		perContext[k[0]]++
		return true
	})
	if len(perContext) != len(s.contexts) {
		return fmt.Errorf("%w: %d contexts indexed, %d counted", ErrIndexMismatch, len(perContext), len(s.contexts))
	}
	for id, n := range perContext {
		if s.contexts[id] != n {
			return fmt.Errorf("%w: context %s has %d quads, counted %d", ErrIndexMismatch, s.terms.term(id), n, s.contexts[id])
		}
	}
	return nil
}

func (s *Store) has(ids spog) bool {
	return s.indexes[IndexSPOG].Has(IndexSPOG.encode(ids))
}

func (s *Store) removeIDs(ids spog) {
	for i, tree := range s.indexes {
		tree.Delete(Index(i).encode(ids))
	}
	g := ids[posGraph]
	if s.contexts[g]--; s.contexts[g] <= 0 {
		delete(s.contexts, g)
	}
	s.size--
}

// lookupQuad resolves the ids of an already interned quad without growing
// the intern table.
func (s *Store) lookupQuad(q rdf.Quad) (spog, bool) {
	var ids spog
	for pos, t := range [4]rdf.Term{q.Subject, q.Predicate, q.Object, q.Graph} {
		if t == nil {
			return ids, false
		}
		id, ok := s.terms.lookup(t)
		if !ok {
			return ids, false
		}
		ids[pos] = id
	}
	return ids, true
}

func validateContext(g rdf.Term) error {
	switch g.(type) {
	case rdf.NamedNode, rdf.BlankNode, rdf.DefaultGraph:
		if n, ok := g.(rdf.NamedNode); ok {
			if _, err := rdf.NewNamedNode(n.IRI); err != nil {
				return &rdf.TermError{Position: "graph", Err: err}
			}
		}
		return nil
	default:
		return &rdf.TermError{Position: "graph", Err: fmt.Errorf("%w: %v cannot name a context", rdf.ErrInvalidTerm, g)}
	}
}
