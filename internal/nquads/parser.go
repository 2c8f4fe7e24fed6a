package nquads

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aleksaelezovic/quadgraph/pkg/ingest"
)

// lineParser parses one statement line:
// subject predicate object [graph] .
type lineParser struct {
	input string
	pos   int
}

func (p *lineParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *lineParser) peek() byte {
	return p.input[p.pos]
}

// skipWhitespaceAndComments skips whitespace and a trailing comment
func (p *lineParser) skipWhitespaceAndComments() {
	for !p.done() {
		ch := p.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' {
			p.pos++
			continue
		}
		if ch == '#' {
			p.pos = len(p.input)
		}
		break
	}
}

func (p *lineParser) parseStatement() (ingest.RawStatement, error) {
	var st ingest.RawStatement
	var err error

	// Parse subject
	switch {
	case p.peek() == '<':
		st.Subject, err = p.parseIRITerm()
	case p.peek() == '_':
		st.Subject, err = p.parseBlankNode()
	default:
		err = fmt.Errorf("unexpected character %q at position %d, expected IRI or blank node subject", p.peek(), p.pos)
	}
	if err != nil {
		return st, fmt.Errorf("error parsing subject: %w", err)
	}
	if err := p.expectSeparator(); err != nil {
		return st, err
	}

	// Parse predicate; decoders guarantee an IRI here
	if p.peek() != '<' {
		return st, fmt.Errorf("predicate must be an IRI at position %d", p.pos)
	}
	if st.Predicate, err = p.parseIRITerm(); err != nil {
		return st, fmt.Errorf("error parsing predicate: %w", err)
	}
	if err := p.expectSeparator(); err != nil {
		return st, err
	}

	// Parse object
	if st.Object, err = p.parseObject(); err != nil {
		return st, fmt.Errorf("error parsing object: %w", err)
	}
	p.skipWhitespaceAndComments()
	if p.done() {
		return st, fmt.Errorf("expected '.' at end of statement")
	}

	// Parse optional graph (4th position)
	switch p.peek() {
	case '<':
		st.Context, err = p.parseIRITerm()
	case '_':
		st.Context, err = p.parseBlankNode()
	}
	if err != nil {
		return st, fmt.Errorf("error parsing graph: %w", err)
	}
	p.skipWhitespaceAndComments()

	// Expect '.' at end
	if p.done() || p.peek() != '.' {
		return st, fmt.Errorf("expected '.' at end of statement")
	}
	p.pos++
	p.skipWhitespaceAndComments()
	if !p.done() {
		return st, fmt.Errorf("unexpected content after '.' at position %d", p.pos)
	}
	return st, nil
}

func (p *lineParser) expectSeparator() error {
	start := p.pos
	p.skipWhitespaceAndComments()
	if p.done() {
		return fmt.Errorf("unexpected end of statement")
	}
	if p.pos == start && p.input[start-1] != '>' && p.input[start-1] != '"' {
		return fmt.Errorf("expected whitespace at position %d", p.pos)
	}
	return nil
}

func (p *lineParser) parseObject() (ingest.RawTerm, error) {
	switch p.peek() {
	case '<':
		return p.parseIRITerm()
	case '_':
		return p.parseBlankNode()
	case '"':
		return p.parseLiteral()
	default:
		return ingest.RawTerm{}, fmt.Errorf("unexpected character %q at position %d", p.peek(), p.pos)
	}
}

func (p *lineParser) parseIRITerm() (ingest.RawTerm, error) {
	iri, err := p.parseIRI()
	if err != nil {
		return ingest.RawTerm{}, err
	}
	return ingest.IRI(iri), nil
}

// parseIRI parses an IRI enclosed in < >
func (p *lineParser) parseIRI() (string, error) {
	if p.done() || p.peek() != '<' {
		return "", fmt.Errorf("expected '<' at start of IRI")
	}
	p.pos++

	var result strings.Builder
	for !p.done() && p.peek() != '>' {
		ch := p.peek()

		if ch == '\\' {
			if p.pos+1 < len(p.input) && (p.input[p.pos+1] == 'u' || p.input[p.pos+1] == 'U') {
				escaped, err := p.parseUnicodeEscape()
				if err != nil {
					return "", err
				}
				result.WriteString(escaped)
				continue
			}
			return "", fmt.Errorf("invalid escape sequence in IRI at position %d", p.pos)
		}

		// IRIs cannot contain space, <, >, ", {, }, |, ^, ` or control characters
		if ch == ' ' || ch == '<' || ch == '"' || ch == '{' || ch == '}' ||
			ch == '|' || ch == '^' || ch == '`' || ch <= 0x1F {
			return "", fmt.Errorf("invalid character in IRI: %q at position %d", ch, p.pos)
		}

		result.WriteByte(ch)
		p.pos++
	}
	if p.done() {
		return "", fmt.Errorf("unclosed IRI")
	}
	p.pos++ // skip '>'

	iri := result.String()
	if !strings.Contains(iri, ":") {
		return "", fmt.Errorf("relative IRI not allowed: %s", iri)
	}
	return iri, nil
}

// parseBlankNode parses _:label and returns the format-local label
func (p *lineParser) parseBlankNode() (ingest.RawTerm, error) {
	if !strings.HasPrefix(p.input[p.pos:], "_:") {
		return ingest.RawTerm{}, fmt.Errorf("expected '_:' at start of blank node")
	}
	p.pos += 2

	start := p.pos
	for !p.done() {
		ch := p.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '<' || ch == '"' || ch == '#' {
			break
		}
		p.pos++
	}
	// A label cannot end with '.'; a trailing dot terminates the statement
	for p.pos > start && p.input[p.pos-1] == '.' {
		p.pos--
	}
	if p.pos == start {
		return ingest.RawTerm{}, fmt.Errorf("empty blank node label")
	}
	return ingest.Blank(p.input[start:p.pos]), nil
}

// parseLiteral parses a quoted literal with an optional language tag or
// datatype IRI. Tags are returned as written; ingestion validates them.
func (p *lineParser) parseLiteral() (ingest.RawTerm, error) {
	p.pos++ // skip opening '"'

	var value strings.Builder
	for !p.done() && p.peek() != '"' {
		ch := p.peek()
		if ch != '\\' {
			value.WriteByte(ch)
			p.pos++
			continue
		}

		if p.pos+1 >= len(p.input) {
			return ingest.RawTerm{}, fmt.Errorf("unexpected end of input in escape sequence")
		}
		switch esc := p.input[p.pos+1]; esc {
		case 'n':
			value.WriteByte('\n')
		case 't':
			value.WriteByte('\t')
		case 'r':
			value.WriteByte('\r')
		case 'b':
			value.WriteByte('\b')
		case 'f':
			value.WriteByte('\f')
		case '"':
			value.WriteByte('"')
		case '\'':
			value.WriteByte('\'')
		case '\\':
			value.WriteByte('\\')
		case 'u', 'U':
			escaped, err := p.parseUnicodeEscape()
			if err != nil {
				return ingest.RawTerm{}, err
			}
			value.WriteString(escaped)
			continue
		default:
			return ingest.RawTerm{}, fmt.Errorf("invalid escape sequence \\%c at position %d", esc, p.pos)
		}
		p.pos += 2
	}
	if p.done() {
		return ingest.RawTerm{}, fmt.Errorf("unclosed string literal")
	}
	p.pos++ // skip closing '"'

	if p.done() {
		return ingest.Literal(value.String(), "", ""), nil
	}
	switch {
	case p.peek() == '@':
		p.pos++
		start := p.pos
		for !p.done() {
			ch := p.peek()
			if ch == ' ' || ch == '\t' || ch == '\r' || ch == '.' || ch == '<' {
				break
			}
			p.pos++
		}
		if p.pos == start {
			return ingest.RawTerm{}, fmt.Errorf("empty language tag")
		}
		return ingest.Literal(value.String(), "", p.input[start:p.pos]), nil
	case strings.HasPrefix(p.input[p.pos:], "^^"):
		p.pos += 2
		datatype, err := p.parseIRI()
		if err != nil {
			return ingest.RawTerm{}, fmt.Errorf("error parsing datatype: %w", err)
		}
		return ingest.Literal(value.String(), datatype, ""), nil
	default:
		return ingest.Literal(value.String(), "", ""), nil
	}
}

// parseUnicodeEscape processes \uXXXX or \UXXXXXXXX escape sequences
func (p *lineParser) parseUnicodeEscape() (string, error) {
	p.pos++ // skip '\'
	digits := 4
	if p.peek() == 'U' {
		digits = 8
	}
	p.pos++ // skip 'u' or 'U'

	if p.pos+digits > len(p.input) {
		return "", fmt.Errorf("incomplete Unicode escape sequence")
	}
	hex := p.input[p.pos : p.pos+digits]
	p.pos += digits

	codePoint, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid hex digits in Unicode escape: %s", hex)
	}
	if codePoint > unicode.MaxRune || (codePoint >= 0xD800 && codePoint <= 0xDFFF) {
		return "", fmt.Errorf("invalid code point U+%X in Unicode escape", codePoint)
	}
	return string(rune(codePoint)), nil
}
