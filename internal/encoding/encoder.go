package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

const (
	// Encoded term size (type byte + 16 bytes of 128-bit hash)
	EncodedTermSize = 17

	// Encoded quad key size (four terms in SPOG order)
	QuadKeySize = 4 * EncodedTermSize
)

var (
	ErrUnknownTerm = errors.New("unknown term type")
	ErrCorrupt     = errors.New("corrupt encoded term")
)

// EncodedTerm represents a term encoded as a type byte followed by the
// xxh3-128 hash of its N-Quads form. The default graph has an all-zero hash.
type EncodedTerm [EncodedTermSize]byte

// TermEncoder turns terms into fixed-size keys plus the payload stored in
// the id2str table.
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term into a fixed-size byte array.
// The returned payload is nil for the default graph, which needs no id2str
// entry.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, []byte, error) {
	var encoded EncodedTerm

	var payload []byte
	switch t := term.(type) {
	case rdf.NamedNode:
		payload = appendField(nil, t.IRI)
	case rdf.BlankNode:
		payload = appendField(nil, t.ID)
	case rdf.Literal:
		payload = appendField(nil, t.Value)
		payload = appendField(payload, t.Language)
		payload = appendField(payload, t.Datatype.IRI)
	case rdf.DefaultGraph:
		encoded[0] = byte(rdf.TermTypeDefaultGraph)
		return encoded, nil, nil
	default:
		return encoded, nil, fmt.Errorf("%w: %T", ErrUnknownTerm, term)
	}

	encoded[0] = byte(term.Type())
	hash := e.Hash128(term.String())
	copy(encoded[1:], hash[:])
	return encoded, payload, nil
}

// EncodeQuadKey concatenates encoded terms into a big-endian key that sorts
// lexicographically.
func (e *TermEncoder) EncodeQuadKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// SplitQuadKey is the inverse of EncodeQuadKey for four-term keys.
func SplitQuadKey(key []byte) ([4]EncodedTerm, error) {
	var terms [4]EncodedTerm
	if len(key) != QuadKeySize {
		return terms, fmt.Errorf("%w: quad key has %d bytes, want %d", ErrCorrupt, len(key), QuadKeySize)
	}
	for i := range terms {
		copy(terms[i][:], key[i*EncodedTermSize:(i+1)*EncodedTermSize])
	}
	return terms, nil
}

// GetTermType extracts the type from an encoded term
func GetTermType(encoded EncodedTerm) rdf.TermType {
	return rdf.TermType(encoded[0])
}

func appendField(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
