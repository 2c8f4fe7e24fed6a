package nquads

import (
	"bufio"
	"io"
	"iter"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Source is the read side of a store needed to serialize it.
type Source interface {
	Match(subject, predicate, object, graph rdf.Term) iter.Seq[rdf.Quad]
	Contexts() []rdf.Term
}

// Encode writes every quad of src as one N-Quads line, context by context in
// Contexts order. Default-graph quads are written without a graph term.
func Encode(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)
	for _, g := range src.Contexts() {
		for q := range src.Match(nil, nil, nil, g) {
			if _, err := bw.WriteString(rdf.FormatQuad(q)); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// EncodeTriples writes the distinct triples of src as N-Triples, dropping
// contexts.
func EncodeTriples(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)
	seen := make(map[rdf.Triple]struct{})
	for _, g := range src.Contexts() {
		for q := range src.Match(nil, nil, nil, g) {
			t := q.Triple()
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, err := bw.WriteString(rdf.FormatTriple(t)); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
