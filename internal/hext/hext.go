// Package hext reads and writes HexTuples: newline-delimited JSON arrays of
// [subject, predicate, value, datatype, language, graph].
package hext

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

const (
	// Datatype markers for resource objects
	globalID = "globalId"
	localID  = "localId"

	blankPrefix = "_:"
	maxLineSize = 16 << 20
)

var jsonAdapter = jsoniter.Config{
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// ParseError reports a malformed HexTuples line.
type ParseError struct {
	Format string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: line %d: %v", e.Format, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decoder streams raw statements from HexTuples input.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next statement or io.EOF. Blank lines are skipped.
func (d *Decoder) Next() (ingest.RawStatement, error) {
	for d.scanner.Scan() {
		d.line++
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var tuple []string
		if err := jsonAdapter.Unmarshal(line, &tuple); err != nil {
			return ingest.RawStatement{}, d.errorf(fmt.Errorf("invalid JSON: %w", err))
		}
		if len(tuple) != 6 {
			return ingest.RawStatement{}, d.errorf(fmt.Errorf("expected 6 elements, got %d", len(tuple)))
		}
		st, err := statement(tuple)
		if err != nil {
			return ingest.RawStatement{}, d.errorf(err)
		}
		return st, nil
	}
	if err := d.scanner.Err(); err != nil {
		return ingest.RawStatement{}, d.errorf(err)
	}
	return ingest.RawStatement{}, io.EOF
}

func (d *Decoder) Close() error {
	return nil
}

func (d *Decoder) errorf(err error) error {
	return &ParseError{Format: "hext", Line: d.line, Err: err}
}

func statement(tuple []string) (ingest.RawStatement, error) {
	subject, value, datatype, language, graph := tuple[0], tuple[2], tuple[3], tuple[4], tuple[5]
	if subject == "" {
		return ingest.RawStatement{}, errors.New("empty subject")
	}
	if tuple[1] == "" || strings.HasPrefix(tuple[1], blankPrefix) {
		return ingest.RawStatement{}, fmt.Errorf("predicate must be an IRI, got %q", tuple[1])
	}

	st := ingest.RawStatement{
		Subject:   resource(subject),
		Predicate: ingest.IRI(tuple[1]),
	}

	switch datatype {
	case globalID:
		st.Object = ingest.IRI(value)
	case localID:
		st.Object = ingest.Blank(strings.TrimPrefix(value, blankPrefix))
	case rdf.RDFLangString.IRI:
		if language != "" {
			st.Object = ingest.Literal(value, "", language)
		} else {
			st.Object = ingest.Literal(value, datatype, "")
		}
	default:
		// A datatype together with a language is kept as is and rejected
		// during ingestion.
		st.Object = ingest.Literal(value, datatype, language)
	}

	if graph != "" {
		st.Context = resource(graph)
	}
	return st, nil
}

func resource(s string) ingest.RawTerm {
	if label, ok := strings.CutPrefix(s, blankPrefix); ok {
		return ingest.Blank(label)
	}
	return ingest.IRI(s)
}

// Source is the read side of a store needed to serialize it.
type Source interface {
	Match(subject, predicate, object, graph rdf.Term) iter.Seq[rdf.Quad]
	Contexts() []rdf.Term
}

// Encode writes every quad of src as one HexTuples line, context by context.
func Encode(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)
	for _, g := range src.Contexts() {
		for q := range src.Match(nil, nil, nil, g) {
			line, err := jsonAdapter.Marshal(tuple(q))
			if err != nil {
				return err
			}
			if _, err := bw.Write(line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func tuple(q rdf.Quad) [6]string {
	var t [6]string
	t[0] = resourceString(q.Subject)
	t[1] = resourceString(q.Predicate)

	switch o := q.Object.(type) {
	case rdf.NamedNode:
		t[2], t[3] = o.IRI, globalID
	case rdf.BlankNode:
		t[2], t[3] = blankPrefix+o.ID, localID
	case rdf.Literal:
		t[2] = o.Value
		switch {
		case o.Language != "":
			t[3], t[4] = rdf.RDFLangString.IRI, o.Language
		case !o.Datatype.IsZero():
			t[3] = o.Datatype.IRI
		}
	}

	if _, isDefault := q.Graph.(rdf.DefaultGraph); !isDefault && q.Graph != nil {
		t[5] = resourceString(q.Graph)
	}
	return t
}

func resourceString(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.NamedNode:
		return v.IRI
	case rdf.BlankNode:
		return blankPrefix + v.ID
	default:
		return ""
	}
}
