package rdf

import (
	"errors"
	"fmt"
)

// ErrInvalidTerm is returned when a term or statement is malformed, e.g. a
// literal carrying both a datatype and a language tag.
var ErrInvalidTerm = errors.New("invalid term")

// TermError records which position of a statement was malformed.
type TermError struct {
	Position string // "subject", "predicate", "object", "graph", "literal", ...
	Err      error
}

func (e *TermError) Error() string {
	return fmt.Sprintf("%s: %v", e.Position, e.Err)
}

func (e *TermError) Unwrap() error {
	return e.Err
}
