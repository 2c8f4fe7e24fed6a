package canon

import (
	"cmp"
	"maps"
	"slices"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Roles of a blank node within a triple.
const (
	roleSubject uint64 = 1
	roleObject  uint64 = 2
)

// blankColor is the shared starting colour of every blank node.
var blankColor = hashString("_:")

// Canonical is the result of refining one graph.
type Canonical struct {
	triples   int
	rounds    int
	colors    map[rdf.BlankNode]Color
	ground    []string // sorted keys of blank-free triples
	blank     []Color  // sorted signatures of triples touching blank nodes
	signature Signature
}

type edge struct {
	triple int
	role   uint64
}

type tuple struct {
	predicate Color
	neighbour Color
	role      uint64
}

func compareTuple(a, b tuple) int {
	if c := compareColor(a.predicate, b.predicate); c != 0 {
		return c
	}
	if c := compareColor(a.neighbour, b.neighbour); c != 0 {
		return c
	}
	return cmp.Compare(a.role, b.role)
}

// refiner holds the state of one canonicalization.
type refiner struct {
	triples []rdf.Triple
	ground  map[rdf.Term]Color
	blanks  map[rdf.BlankNode]int
	edges   [][]edge // per blank node
	colors  []Color  // per blank node
	h       *hasher
}

// Canonicalize runs colour refinement over src. It only reads src.
func Canonicalize(src Source, opts ...Option) *Canonical {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &refiner{
		ground: make(map[rdf.Term]Color),
		blanks: make(map[rdf.BlankNode]int),
		h:      newHasher(),
	}
	for t := range src.All() {
		r.addTriple(t)
	}
	r.colors = make([]Color, len(r.blanks))
	for i := range r.colors {
		r.colors[i] = blankColor
	}

	bound := o.maxRounds
	if bound < 1 {
		bound = min(len(r.blanks)+1, DefaultMaxRounds)
	}

	rounds := 0
	if len(r.blanks) > 0 {
		classes := 1
		for rounds < bound {
			r.colors = r.round()
			rounds++
			n := countClasses(r.colors)
			if n == classes {
				break
			}
			classes = n
		}
	}

	return r.result(rounds)
}

func (r *refiner) addTriple(t rdf.Triple) {
	index := len(r.triples)
	r.triples = append(r.triples, t)
	for _, term := range []rdf.Term{t.Subject, t.Predicate, t.Object} {
		if _, seen := r.ground[term]; seen {
			continue
		}
		if b, ok := term.(rdf.BlankNode); ok {
			if _, seen := r.blanks[b]; !seen {
				r.blanks[b] = len(r.edges)
				r.edges = append(r.edges, nil)
			}
			continue
		}
		r.ground[term] = hashString(termKey(term))
	}
	if b, ok := t.Subject.(rdf.BlankNode); ok {
		i := r.blanks[b]
		r.edges[i] = append(r.edges[i], edge{triple: index, role: roleSubject})
	}
	if b, ok := t.Object.(rdf.BlankNode); ok {
		i := r.blanks[b]
		r.edges[i] = append(r.edges[i], edge{triple: index, role: roleObject})
	}
}

func (r *refiner) colorOf(t rdf.Term) Color {
	if b, ok := t.(rdf.BlankNode); ok {
		return r.colors[r.blanks[b]]
	}
	return r.ground[t]
}

// round computes the next colour of every blank node from the current ones.
func (r *refiner) round() []Color {
	next := make([]Color, len(r.colors))
	var tuples []tuple
	for i, edges := range r.edges {
		tuples = tuples[:0]
		for _, e := range edges {
			t := r.triples[e.triple]
			neighbour := t.Object
			if e.role == roleObject {
				neighbour = t.Subject
			}
			tuples = append(tuples, tuple{
				predicate: r.colorOf(t.Predicate),
				neighbour: r.colorOf(neighbour),
				role:      e.role,
			})
		}
		slices.SortFunc(tuples, compareTuple)

		r.h.reset()
		r.h.writeColor(r.colors[i])
		r.h.writeUint(uint64(len(tuples)))
		for _, tp := range tuples {
			r.h.writeColor(tp.predicate)
			r.h.writeColor(tp.neighbour)
			r.h.writeUint(tp.role)
		}
		next[i] = r.h.sum()
	}
	return next
}

func countClasses(colors []Color) int {
	classes := make(map[Color]struct{}, len(colors))
	for _, c := range colors {
		classes[c] = struct{}{}
	}
	return len(classes)
}

func (r *refiner) result(rounds int) *Canonical {
	c := &Canonical{
		triples: len(r.triples),
		rounds:  rounds,
		colors:  make(map[rdf.BlankNode]Color, len(r.blanks)),
	}
	for b, i := range r.blanks {
		c.colors[b] = r.colors[i]
	}

	for _, t := range r.triples {
		if !rdf.IsBlank(t.Subject) && !rdf.IsBlank(t.Object) {
			c.ground = append(c.ground, termKey(t.Subject)+termKey(t.Predicate)+termKey(t.Object))
			continue
		}
		r.h.reset()
		r.h.writeColor(r.colorOf(t.Subject))
		r.h.writeColor(r.colorOf(t.Predicate))
		r.h.writeColor(r.colorOf(t.Object))
		c.blank = append(c.blank, r.h.sum())
	}
	slices.Sort(c.ground)
	slices.SortFunc(c.blank, compareColor)

	r.h.reset()
	r.h.writeUint(uint64(c.triples))
	r.h.writeUint(uint64(len(c.ground)))
	for _, line := range c.ground {
		r.h.writeString(line)
	}
	for _, sig := range c.blank {
		r.h.writeColor(sig)
	}
	c.signature = Signature(r.h.sum())
	return c
}

// Len returns the number of triples refined.
func (c *Canonical) Len() int {
	return c.triples
}

// Rounds returns how many refinement rounds ran.
func (c *Canonical) Rounds() int {
	return c.rounds
}

// Colors returns the final colour of each blank node.
func (c *Canonical) Colors() map[rdf.BlankNode]Color {
	return maps.Clone(c.colors)
}

// Classes returns the number of distinct blank node colours.
func (c *Canonical) Classes() int {
	return countClasses(slices.Collect(maps.Values(c.colors)))
}

func (c *Canonical) Signature() Signature {
	return c.signature
}

// Equal compares two results field by field rather than by digest.
func (c *Canonical) Equal(other *Canonical) bool {
	return c.triples == other.triples &&
		slices.Equal(c.ground, other.ground) &&
		slices.Equal(c.blank, other.blank)
}
