package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

func TestEncodeDistinguishesTerms(t *testing.T) {
	enc := NewTermEncoder()
	typed, err := rdf.NewLiteralWithDatatype("x", rdf.XSDString)
	require.NoError(t, err)
	tagged, err := rdf.NewLiteralWithLanguage("x", "en")
	require.NoError(t, err)

	terms := []rdf.Term{
		rdf.MustNamedNode("x"),
		rdf.NewBlankNode("x"),
		rdf.NewLiteral("x"),
		typed,
		tagged,
		rdf.NewDefaultGraph(),
	}

	seen := make(map[EncodedTerm]rdf.Term)
	for _, term := range terms {
		encoded, _, err := enc.EncodeTerm(term)
		require.NoError(t, err)
		assert.Equal(t, term.Type(), GetTermType(encoded))
		if prev, ok := seen[encoded]; ok {
			t.Fatalf("%s and %s share an encoding", prev, term)
		}
		seen[encoded] = term
	}
}

func TestDecodeRestoresTerm(t *testing.T) {
	enc := NewTermEncoder()
	dec := NewTermDecoder()
	lit, err := rdf.NewLiteralWithLanguage("Grüße\n", "de-AT")
	require.NoError(t, err)

	for _, term := range []rdf.Term{lit, rdf.MustNamedNode("http://example.org/ä"), rdf.NewBlankNode("b-1"), rdf.NewDefaultGraph()} {
		encoded, payload, err := enc.EncodeTerm(term)
		require.NoError(t, err)

		got, err := dec.DecodeTerm(encoded, payload)
		require.NoError(t, err)
		assert.Equal(t, term, got)
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	enc := NewTermEncoder()
	dec := NewTermDecoder()

	encoded, payload, err := enc.EncodeTerm(rdf.MustNamedNode("http://example.org/a"))
	require.NoError(t, err)
	_, other, err := enc.EncodeTerm(rdf.MustNamedNode("http://example.org/b"))
	require.NoError(t, err)

	_, err = dec.DecodeTerm(encoded, other)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = dec.DecodeTerm(encoded, payload[:len(payload)-1])
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = dec.DecodeTerm(encoded, append(payload, 0))
	assert.ErrorIs(t, err, ErrCorrupt)

	var unknown EncodedTerm
	unknown[0] = 0x7f
	_, err = dec.DecodeTerm(unknown, nil)
	assert.ErrorIs(t, err, ErrUnknownTerm)
}

func TestQuadKey(t *testing.T) {
	enc := NewTermEncoder()
	var terms [4]EncodedTerm
	for i, term := range []rdf.Term{
		rdf.MustNamedNode("http://example.org/s"),
		rdf.MustNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
		rdf.NewDefaultGraph(),
	} {
		encoded, _, err := enc.EncodeTerm(term)
		require.NoError(t, err)
		terms[i] = encoded
	}

	key := enc.EncodeQuadKey(terms[:]...)
	assert.Len(t, key, QuadKeySize)

	split, err := SplitQuadKey(key)
	require.NoError(t, err)
	assert.Equal(t, terms, split)

	_, err = SplitQuadKey(key[1:])
	assert.ErrorIs(t, err, ErrCorrupt)
}
