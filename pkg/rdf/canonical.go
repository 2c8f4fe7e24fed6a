package rdf

import (
	"fmt"
	"strings"
)

// FormatTriple renders a triple as one canonical N-Triples line (without the
// trailing newline).
func FormatTriple(t Triple) string {
	var builder strings.Builder
	writeSPO(&builder, t.Subject, t.Predicate, t.Object)
	builder.WriteString(" .")
	return builder.String()
}

// FormatQuad renders a quad as one canonical N-Quads line (without the
// trailing newline). Quads in the default graph are written without a graph
// term.
func FormatQuad(q Quad) string {
	var builder strings.Builder
	writeSPO(&builder, q.Subject, q.Predicate, q.Object)
	if q.Graph != nil {
		if _, isDefault := q.Graph.(DefaultGraph); !isDefault {
			builder.WriteString(" ")
			builder.WriteString(q.Graph.String())
		}
	}
	builder.WriteString(" .")
	return builder.String()
}

func writeSPO(builder *strings.Builder, s, p, o Term) {
	builder.WriteString(s.String())
	builder.WriteString(" ")
	builder.WriteString(p.String())
	builder.WriteString(" ")
	builder.WriteString(o.String())
}

// escapeString escapes a string value for canonical N-Triples/N-Quads output:
// - Special named escapes: \t \b \n \r \f \" \\
// - Unicode: \uXXXX for remaining control characters and U+FFFE/U+FFFF
func escapeString(s string) string {
	if !needsEscape(s) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s) + 8)

	for _, r := range s {
		switch r {
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\f':
			builder.WriteString(`\f`)
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F || r == 0xFFFE || r == 0xFFFF {
				fmt.Fprintf(&builder, `\u%04X`, r)
			} else {
				builder.WriteRune(r)
			}
		}
	}

	return builder.String()
}

func needsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 0x20 || ch == '"' || ch == '\\' || ch == 0x7F || ch >= 0xEF {
			return true
		}
	}
	return false
}

// escapeIRI escapes the characters IRIREF forbids with \u escapes so the
// output can be parsed back.
func escapeIRI(iri string) string {
	var builder *strings.Builder
	for i := 0; i < len(iri); i++ {
		ch := iri[i]
		if ch <= 0x20 || ch == '<' || ch == '>' || ch == '"' || ch == '{' || ch == '}' ||
			ch == '|' || ch == '^' || ch == '`' || ch == '\\' {
			if builder == nil {
				builder = &strings.Builder{}
				builder.Grow(len(iri) + 8)
				builder.WriteString(iri[:i])
			}
			fmt.Fprintf(builder, `\u%04X`, ch)
			continue
		}
		if builder != nil {
			builder.WriteByte(ch)
		}
	}
	if builder == nil {
		return iri
	}
	return builder.String()
}
