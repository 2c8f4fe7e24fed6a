package ingest

import (
	"errors"
	"fmt"
)

// ErrScopeConflict is returned when a Scope is handed to an ingestion call
// while another call still holds it.
var ErrScopeConflict = errors.New("blank node scope already in use")

// StatementError reports the statement that stopped a fail-fast ingestion.
type StatementError struct {
	Index int // zero-based position in the decoder stream
	Err   error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d: %v", e.Index, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Failure records a statement skipped under SkipInvalid.
type Failure struct {
	Index int
	Err   error
}

// Result summarizes one ingestion call.
type Result struct {
	Statements int // statements read from the decoder
	Added      int // quads that were new to the sink
	Failures   []Failure
}
