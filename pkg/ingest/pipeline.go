package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

// Policy decides what happens to a statement with an invalid term.
type Policy int

const (
	// FailFast stops at the first invalid statement.
	FailFast Policy = iota
	// SkipInvalid records the failure and moves on.
	SkipInvalid
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case SkipInvalid:
		return "skip-invalid"
	default:
		return "unknown"
	}
}

// ParsePolicy accepts "fail-fast" or "skip-invalid" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail-fast", "failfast", "":
		return FailFast, nil
	case "skip-invalid", "skip", "best-effort":
		return SkipInvalid, nil
	default:
		return FailFast, fmt.Errorf("unknown ingest policy %q", s)
	}
}

// Pipeline writes decoded statements into a sink.
type Pipeline struct {
	sink           Sink
	defaultContext rdf.Term
	policy         Policy
	logger         *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDefaultContext sets the context for statements without one.
func WithDefaultContext(g rdf.Term) Option {
	return func(p *Pipeline) {
		if g != nil {
			p.defaultContext = g
		}
	}
}

// WithPolicy sets the pipeline's invalid-statement policy.
func WithPolicy(policy Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline writing into sink. Without options statements lacking
// a context go to the default graph and the first invalid one aborts.
func New(sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		sink:           sink,
		defaultContext: rdf.NewDefaultGraph(),
		policy:         FailFast,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type call struct {
	scope   *Scope
	context rdf.Term
	policy  Policy
}

// CallOption configures one Ingest call.
type CallOption func(*call)

// WithScope resolves blank node labels through scope instead of a fresh one.
func WithScope(scope *Scope) CallOption {
	return func(c *call) {
		c.scope = scope
	}
}

// WithContext overrides the pipeline's default context for one call.
func WithContext(g rdf.Term) CallOption {
	return func(c *call) {
		if g != nil {
			c.context = g
		}
	}
}

// WithCallPolicy overrides the pipeline's policy for one call.
func WithCallPolicy(policy Policy) CallOption {
	return func(c *call) {
		c.policy = policy
	}
}

// Ingest reads dec to the end and adds every statement to the sink. The
// decoder stays owned by the caller.
//
// Invalid terms stop the call with a *StatementError under FailFast, or are
// recorded in Result.Failures under SkipInvalid. Decoder errors and context
// cancellation abort under both policies. The result is returned even when
// err is non-nil.
func (p *Pipeline) Ingest(ctx context.Context, dec Decoder, opts ...CallOption) (*Result, error) {
	c := call{context: p.defaultContext, policy: p.policy}
	for _, opt := range opts {
		opt(&c)
	}
	if c.scope == nil {
		c.scope = NewScope()
	}
	if err := c.scope.claim(); err != nil {
		return nil, err
	}
	defer c.scope.release()

	res := &Result{}
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		raw, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to decode statement %d: %w", index, err)
		}
		res.Statements++

		added, err := p.add(&c, raw)
		if err != nil {
			if !errors.Is(err, rdf.ErrInvalidTerm) || c.policy == FailFast {
				return res, &StatementError{Index: index, Err: err}
			}
			res.Failures = append(res.Failures, Failure{Index: index, Err: err})
			p.logger.Warn("skipping invalid statement", zap.Int("index", index), zap.Error(err))
			continue
		}
		if added {
			res.Added++
		}
	}

	p.logger.Debug("ingest finished",
		zap.Int("statements", res.Statements),
		zap.Int("added", res.Added),
		zap.Int("skipped", len(res.Failures)),
		zap.Int("scope_labels", c.scope.Len()),
	)
	return res, nil
}

func (p *Pipeline) add(c *call, raw RawStatement) (bool, error) {
	q, err := c.quad(raw)
	if err != nil {
		return false, err
	}
	return p.sink.AddQuad(q)
}

func (c *call) quad(raw RawStatement) (rdf.Quad, error) {
	subject, err := c.term(raw.Subject, "subject")
	if err != nil {
		return rdf.Quad{}, err
	}
	predicate, err := c.term(raw.Predicate, "predicate")
	if err != nil {
		return rdf.Quad{}, err
	}
	object, err := c.term(raw.Object, "object")
	if err != nil {
		return rdf.Quad{}, err
	}

	graph := c.context
	if raw.Context.Kind != KindNone {
		if graph, err = c.term(raw.Context, "graph"); err != nil {
			return rdf.Quad{}, err
		}
	}

	q := rdf.NewQuad(subject, predicate, object, graph)
	if err := q.Validate(); err != nil {
		return rdf.Quad{}, err
	}
	return q, nil
}

func (c *call) term(raw RawTerm, position string) (rdf.Term, error) {
	switch raw.Kind {
	case KindIRI:
		n, err := rdf.NewNamedNode(raw.Value)
		if err != nil {
			return nil, &rdf.TermError{Position: position, Err: err}
		}
		return n, nil
	case KindBlank:
		if raw.Value == "" {
			return nil, &rdf.TermError{Position: position, Err: fmt.Errorf("%w: empty blank node label", rdf.ErrInvalidTerm)}
		}
		return c.scope.Resolve(raw.Value), nil
	case KindLiteral:
		var datatype rdf.NamedNode
		if raw.Datatype != "" {
			datatype = rdf.NamedNode{IRI: raw.Datatype}
		}
		l, err := rdf.NewTypedLiteral(raw.Value, datatype, raw.Language)
		if err != nil {
			return nil, &rdf.TermError{Position: position, Err: err}
		}
		return l, nil
	default:
		return nil, &rdf.TermError{Position: position, Err: fmt.Errorf("%w: missing %s term", rdf.ErrInvalidTerm, position)}
	}
}
