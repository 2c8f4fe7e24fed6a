package canon

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/xxh3"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Color is a 128-bit colour assigned to a term.
type Color struct {
	Hi, Lo uint64
}

func (c Color) String() string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], c.Hi)
	binary.BigEndian.PutUint64(b[8:], c.Lo)
	return hex.EncodeToString(b[:])
}

func compareColor(a, b Color) int {
	switch {
	case a.Hi < b.Hi:
		return -1
	case a.Hi > b.Hi:
		return 1
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	default:
		return 0
	}
}

// Signature is an opaque comparable digest of a canonicalized graph.
type Signature Color

func (s Signature) String() string {
	return Color(s).String()
}

// hasher feeds fixed-width values into xxh3-128.
type hasher struct {
	h   *xxh3.Hasher
	buf [16]byte
}

func newHasher() *hasher {
	return &hasher{h: xxh3.New()}
}

func (h *hasher) reset() {
	h.h.Reset()
}

func (h *hasher) writeColor(c Color) {
	binary.BigEndian.PutUint64(h.buf[:8], c.Hi)
	binary.BigEndian.PutUint64(h.buf[8:], c.Lo)
	_, _ = h.h.Write(h.buf[:])
}

func (h *hasher) writeUint(v uint64) {
	binary.BigEndian.PutUint64(h.buf[:8], v)
	_, _ = h.h.Write(h.buf[:8])
}

func (h *hasher) writeString(s string) {
	h.writeUint(uint64(len(s)))
	_, _ = h.h.WriteString(s)
}

func (h *hasher) sum() Color {
	u := h.h.Sum128()
	return Color{Hi: u.Hi, Lo: u.Lo}
}

func hashString(s string) Color {
	u := xxh3.HashString128(s)
	return Color{Hi: u.Hi, Lo: u.Lo}
}

// termKey encodes a term as its kind followed by each length-prefixed field.
// Distinct terms get distinct keys, including strings that are not valid
// UTF-8.
func termKey(t rdf.Term) string {
	var fields []string
	switch v := t.(type) {
	case rdf.NamedNode:
		fields = []string{v.IRI}
	case rdf.Literal:
		fields = []string{v.Value, v.Datatype.IRI, v.Language}
	case rdf.BlankNode:
		fields = []string{v.ID}
	}
	buf := []byte{byte(t.Type())}
	for _, f := range fields {
		buf = binary.AppendUvarint(buf, uint64(len(f)))
		buf = append(buf, f...)
	}
	return string(buf)
}
