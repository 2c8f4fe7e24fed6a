// Package nquads reads and writes the line-based N-Quads and N-Triples
// formats.
package nquads

import (
	"bufio"
	"errors"
	"io"

	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
)

// maxLineSize bounds a single statement line.
const maxLineSize = 16 << 20

// Decoder streams raw statements from N-Quads or N-Triples input, one line at
// a time. Blank lines and comment lines are skipped.
type Decoder struct {
	scanner *bufio.Scanner
	format  string
	triples bool
	line    int
}

// NewDecoder returns an N-Quads decoder. Statements without a graph term have
// no context slot.
func NewDecoder(r io.Reader) *Decoder {
	return newDecoder(r, "nquads", false)
}

// NewTriplesDecoder returns an N-Triples decoder, which rejects a graph term.
func NewTriplesDecoder(r io.Reader) *Decoder {
	return newDecoder(r, "ntriples", true)
}

func newDecoder(r io.Reader, format string, triples bool) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner, format: format, triples: triples}
}

// Next returns the next statement or io.EOF.
func (d *Decoder) Next() (ingest.RawStatement, error) {
	for d.scanner.Scan() {
		d.line++
		p := &lineParser{input: d.scanner.Text()}
		p.skipWhitespaceAndComments()
		if p.done() {
			continue
		}

		st, err := p.parseStatement()
		if err != nil {
			return ingest.RawStatement{}, d.errorf(err)
		}
		if d.triples && st.Context.Kind != ingest.KindNone {
			return ingest.RawStatement{}, d.errorf(errors.New("graph term not allowed in N-Triples"))
		}
		return st, nil
	}
	if err := d.scanner.Err(); err != nil {
		return ingest.RawStatement{}, d.errorf(err)
	}
	return ingest.RawStatement{}, io.EOF
}

// Line returns the number of the last line read.
func (d *Decoder) Line() int {
	return d.line
}

// Close is a no-op; the reader stays owned by the caller.
func (d *Decoder) Close() error {
	return nil
}

func (d *Decoder) errorf(err error) error {
	return &ParseError{Format: d.format, Line: d.line, Err: err}
}
