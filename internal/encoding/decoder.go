package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct {
	encoder *TermEncoder
}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{encoder: NewTermEncoder()}
}

// DecodeTerm rebuilds a term from its key and id2str payload. The hash in
// the key must match the decoded term.
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, payload []byte) (rdf.Term, error) {
	termType := GetTermType(encoded)

	var term rdf.Term
	switch termType {
	case rdf.TermTypeDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	case rdf.TermTypeNamedNode:
		fields, err := readFields(payload, 1)
		if err != nil {
			return nil, err
		}
		n, err := rdf.NewNamedNode(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		term = n

	case rdf.TermTypeBlankNode:
		fields, err := readFields(payload, 1)
		if err != nil {
			return nil, err
		}
		term = rdf.NewBlankNode(fields[0])

	case rdf.TermTypeLiteral:
		fields, err := readFields(payload, 3)
		if err != nil {
			return nil, err
		}
		var datatype rdf.NamedNode
		if fields[2] != "" {
			datatype = rdf.NamedNode{IRI: fields[2]}
		}
		l, err := rdf.NewTypedLiteral(fields[0], datatype, fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		term = l

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTerm, termType)
	}

	if hash := d.encoder.Hash128(term.String()); [16]byte(encoded[1:]) != hash {
		return nil, fmt.Errorf("%w: hash mismatch for %s", ErrCorrupt, term)
	}
	return term, nil
}

func readFields(payload []byte, n int) ([]string, error) {
	fields := make([]string, 0, n)
	for range n {
		size, read := binary.Uvarint(payload)
		if read <= 0 || uint64(len(payload)-read) < size {
			return nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
		}
		payload = payload[read:]
		fields = append(fields, string(payload[:size]))
		payload = payload[size:]
	}
	if len(payload) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(payload))
	}
	return fields, nil
}
