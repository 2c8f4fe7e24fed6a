package ingest

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Scope maps format-local blank node labels to store-level blank nodes.
//
// The same label always resolves to the same node within one scope; labels in
// different scopes resolve to different nodes. Passing one Scope to several
// Ingest calls makes them share identities. A Scope serves one ingestion at a
// time: a call that finds it already claimed fails with ErrScopeConflict.
type Scope struct {
	nodes  map[string]rdf.BlankNode
	labels []string
	busy   atomic.Bool
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{nodes: make(map[string]rdf.BlankNode)}
}

// Resolve returns the blank node for label, minting a fresh one on the first
// sighting.
func (s *Scope) Resolve(label string) rdf.BlankNode {
	if node, ok := s.nodes[label]; ok {
		return node
	}
	node := rdf.NewBlankNode(uuid.NewString())
	s.nodes[label] = node
	s.labels = append(s.labels, label)
	return node
}

// Lookup returns the node already bound to label, if any.
func (s *Scope) Lookup(label string) (rdf.BlankNode, bool) {
	node, ok := s.nodes[label]
	return node, ok
}

// Len returns the number of labels seen.
func (s *Scope) Len() int {
	return len(s.labels)
}

// Labels returns the labels in order of first sighting.
func (s *Scope) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

func (s *Scope) claim() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrScopeConflict
	}
	return nil
}

func (s *Scope) release() {
	s.busy.Store(false)
}
