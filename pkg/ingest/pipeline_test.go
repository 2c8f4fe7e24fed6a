package ingest

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aleksaelezovic/quadgraph/pkg/graph"
	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
)

const (
	ex    = "http://example.org/"
	knows = "http://xmlns.com/foaf/0.1/knows"
	name  = "http://xmlns.com/foaf/0.1/name"
)

func stmt(s, p, o RawTerm) RawStatement {
	return RawStatement{Subject: s, Predicate: p, Object: o}
}

func blankDoc() []RawStatement {
	return []RawStatement{
		stmt(Blank("b0"), IRI(knows), IRI(ex+"alice")),
		stmt(Blank("b0"), IRI(name), Literal("anon", "", "")),
	}
}

func subjects(d *graph.Dataset) []rdf.Term {
	var out []rdf.Term
	for s := range d.Subjects(nil, nil, graph.Unique) {
		out = append(out, s)
	}
	return out
}

func TestIngestDefaultContext(t *testing.T) {
	d := graph.NewDataset(nil)
	res, err := New(d).Ingest(context.Background(), FromStatements(blankDoc()))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Statements)
	assert.Equal(t, 2, res.Added)
	assert.Empty(t, res.Failures)
	assert.Greater(t, d.DefaultGraph().Len(), 0)
	assert.Equal(t, []rdf.Term{rdf.NewDefaultGraph()}, d.Contexts())
}

func TestIngestContexts(t *testing.T) {
	d := graph.NewDataset(nil)
	g := rdf.MustNamedNode(ex + "g")
	statements := []RawStatement{
		{Subject: IRI(ex + "a"), Predicate: IRI(knows), Object: IRI(ex + "b"), Context: IRI(ex + "named")},
		{Subject: IRI(ex + "a"), Predicate: IRI(knows), Object: IRI(ex + "b"), Context: Blank("ctx")},
		{Subject: Blank("ctx"), Predicate: IRI(knows), Object: IRI(ex + "b")},
	}

	p := New(d, WithDefaultContext(g))
	res, err := p.Ingest(context.Background(), FromStatements(statements))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)

	contexts := d.Contexts()
	require.Len(t, contexts, 3)
	assert.Equal(t, rdf.Term(g), contexts[0])
	assert.Equal(t, rdf.Term(rdf.MustNamedNode(ex+"named")), contexts[1])

	// The blank context and the blank subject share a label and a scope
	blankContext, ok := contexts[2].(rdf.BlankNode)
	require.True(t, ok)
	assert.Equal(t, 1, d.Store().Count(blankContext, nil, nil, g))

	// A per-call context overrides the pipeline default
	other := rdf.MustNamedNode(ex + "other")
	_, err = p.Ingest(context.Background(), FromStatements(blankDoc()), WithContext(other))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Graph(other).Len())
}

func TestScopingIsolation(t *testing.T) {
	d := graph.NewDataset(nil)
	p := New(d)

	_, err := p.Ingest(context.Background(), FromStatements(blankDoc()))
	require.NoError(t, err)
	_, err = p.Ingest(context.Background(), FromStatements(blankDoc()))
	require.NoError(t, err)

	// Same label, two independent calls, two identities
	assert.Len(t, subjects(d), 2)
	assert.Equal(t, 4, d.Len())
}

func TestSharedScope(t *testing.T) {
	d := graph.NewDataset(nil)
	p := New(d)
	scope := NewScope()

	_, err := p.Ingest(context.Background(), FromStatements(blankDoc()[:1]), WithScope(scope))
	require.NoError(t, err)
	_, err = p.Ingest(context.Background(), FromStatements(blankDoc()[1:]), WithScope(scope))
	require.NoError(t, err)

	got := subjects(d)
	require.Len(t, got, 1)
	node, ok := scope.Lookup("b0")
	require.True(t, ok)
	assert.Equal(t, rdf.Term(node), got[0])
	assert.Equal(t, []string{"b0"}, scope.Labels())
	assert.Equal(t, 1, scope.Len())
}

func TestSharedScopeAcrossDatasets(t *testing.T) {
	scope := NewScope()
	statements := []RawStatement{
		{Subject: Blank("s"), Predicate: IRI(knows), Object: IRI(ex + "o"), Context: Blank("g")},
	}

	first := graph.NewDataset(nil)
	second := graph.NewDataset(nil)
	_, err := New(first).Ingest(context.Background(), FromStatements(statements), WithScope(scope))
	require.NoError(t, err)
	_, err = New(second).Ingest(context.Background(), FromStatements(statements), WithScope(scope))
	require.NoError(t, err)

	assert.Equal(t, subjects(first), subjects(second))
	assert.Equal(t, first.Contexts(), second.Contexts())

	third := graph.NewDataset(nil)
	_, err = New(third).Ingest(context.Background(), FromStatements(statements))
	require.NoError(t, err)
	assert.NotEqual(t, subjects(first), subjects(third))
	assert.NotEqual(t, first.Contexts(), third.Contexts())
}

func invalidDoc() []RawStatement {
	return []RawStatement{
		stmt(IRI(ex+"a"), IRI(name), Literal("ok", "", "")),
		stmt(IRI(ex+"a"), IRI(name), Literal("both", rdf.XSDString.IRI, "en")),
		stmt(IRI(ex+"a"), IRI(name), Literal("bad tag", "", "en_US")),
		stmt(IRI(ex+"b"), IRI(name), Literal("ok too", "", "en")),
		stmt(Literal("subject", "", ""), IRI(name), Literal("x", "", "")),
	}
}

func TestFailFast(t *testing.T) {
	d := graph.NewDataset(nil)
	res, err := New(d).Ingest(context.Background(), FromStatements(invalidDoc()))

	var serr *StatementError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, serr.Index)
	assert.ErrorIs(t, err, rdf.ErrInvalidTerm)

	require.NotNil(t, res)
	assert.Equal(t, 2, res.Statements)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, d.Len())
}

func TestSkipInvalid(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := graph.NewDataset(nil)
	p := New(d, WithPolicy(SkipInvalid), WithLogger(zap.New(core)))

	res, err := p.Ingest(context.Background(), FromStatements(invalidDoc()))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Statements)
	assert.Equal(t, 2, res.Added)
	require.Len(t, res.Failures, 3)
	for i, want := range []int{1, 2, 4} {
		assert.Equal(t, want, res.Failures[i].Index)
		assert.ErrorIs(t, res.Failures[i].Err, rdf.ErrInvalidTerm)
	}
	assert.Equal(t, 3, logs.FilterMessage("skipping invalid statement").Len())

	// A per-call policy overrides the pipeline's
	_, err = p.Ingest(context.Background(), FromStatements(invalidDoc()), WithCallPolicy(FailFast))
	require.ErrorIs(t, err, rdf.ErrInvalidTerm)
}

func TestRejectsInvalidUTF8(t *testing.T) {
	d := graph.NewDataset(nil)
	doc := []RawStatement{
		stmt(IRI(ex+"a"), IRI(name), Literal("q\x80", "", "")),
		stmt(IRI(ex+"a\xff"), IRI(name), Literal("ok", "", "")),
	}
	res, err := New(d, WithPolicy(SkipInvalid)).Ingest(context.Background(), FromStatements(doc))
	require.NoError(t, err)

	require.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.ErrorIs(t, f.Err, rdf.ErrInvalidTerm)
	}
	assert.Equal(t, 0, d.Len())
}

type failingDecoder struct {
	statements []RawStatement
	err        error
}

func (d *failingDecoder) Next() (RawStatement, error) {
	if len(d.statements) == 0 {
		return RawStatement{}, d.err
	}
	st := d.statements[0]
	d.statements = d.statements[1:]
	return st, nil
}

func (d *failingDecoder) Close() error { return nil }

func TestDecoderErrorAborts(t *testing.T) {
	syntax := errors.New("unexpected token")
	for _, policy := range []Policy{FailFast, SkipInvalid} {
		t.Run(policy.String(), func(t *testing.T) {
			d := graph.NewDataset(nil)
			dec := &failingDecoder{statements: blankDoc(), err: syntax}
			res, err := New(d, WithPolicy(policy)).Ingest(context.Background(), dec)
			require.ErrorIs(t, err, syntax)
			assert.Equal(t, 2, res.Added)
		})
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := graph.NewDataset(nil)
	res, err := New(d).Ingest(ctx, FromStatements(blankDoc()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Statements)
	assert.Equal(t, 0, d.Len())
}

// reentrantDecoder starts a nested ingestion with the same scope.
type reentrantDecoder struct {
	pipeline *Pipeline
	scope    *Scope
	nested   error
	done     bool
}

func (d *reentrantDecoder) Next() (RawStatement, error) {
	if d.done {
		return RawStatement{}, io.EOF
	}
	d.done = true
	_, d.nested = d.pipeline.Ingest(context.Background(), FromStatements(blankDoc()), WithScope(d.scope))
	return blankDoc()[0], nil
}

func (d *reentrantDecoder) Close() error { return nil }

func TestScopeConflict(t *testing.T) {
	d := graph.NewDataset(nil)
	p := New(d)
	scope := NewScope()
	dec := &reentrantDecoder{pipeline: p, scope: scope}

	_, err := p.Ingest(context.Background(), dec, WithScope(scope))
	require.NoError(t, err)
	require.ErrorIs(t, dec.nested, ErrScopeConflict)

	// The scope is released once the call returns
	_, err = p.Ingest(context.Background(), FromStatements(blankDoc()), WithScope(scope))
	require.NoError(t, err)
	assert.Len(t, subjects(d), 1)
}

func TestIngestIntoGraphIgnoresStatementContext(t *testing.T) {
	id := rdf.MustNamedNode(ex + "context-1")
	g := graph.NewGraph(nil, id)
	statements := []RawStatement{
		{Subject: IRI(ex + "a"), Predicate: IRI(knows), Object: IRI(ex + "b"), Context: IRI(ex + "elsewhere")},
		stmt(IRI(ex+"a"), IRI(knows), IRI(ex+"c")),
	}
	_, err := New(g).Ingest(context.Background(), FromStatements(statements))
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []rdf.Term{id}, g.Store().Contexts())
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"fail-fast", FailFast, false},
		{"Skip-Invalid", SkipInvalid, false},
		{"", FailFast, false},
		{"sometimes", FailFast, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
