package nquads

import "fmt"

// ParseError reports a syntax error on one input line.
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
