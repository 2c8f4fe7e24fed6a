package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aleksaelezovic/quadgraph/internal/encoding"
	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
	"github.com/aleksaelezovic/quadgraph/pkg/store"
)

func sampleStore(t *testing.T) *store.Store {
	t.Helper()
	ex := func(local string) rdf.NamedNode { return rdf.MustNamedNode("http://example.org/" + local) }
	hello, err := rdf.NewLiteralWithLanguage("hello", "en")
	require.NoError(t, err)
	age, err := rdf.NewLiteralWithDatatype("42", rdf.XSDInteger)
	require.NoError(t, err)

	st := store.New()
	for _, q := range []rdf.Quad{
		rdf.NewQuad(ex("alice"), ex("name"), rdf.NewLiteral("Alice"), rdf.NewDefaultGraph()),
		rdf.NewQuad(ex("alice"), ex("age"), age, rdf.NewDefaultGraph()),
		rdf.NewQuad(ex("alice"), ex("greets"), hello, ex("g1")),
		rdf.NewQuad(ex("alice"), ex("knows"), rdf.NewBlankNode("b1"), ex("g1")),
		rdf.NewQuad(rdf.NewBlankNode("b1"), ex("name"), rdf.NewLiteral("Alice"), rdf.NewBlankNode("g2")),
	} {
		_, err := st.Add(q)
		require.NoError(t, err)
	}
	require.NoError(t, st.DeclareContext(ex("empty")))
	return st
}

func assertSameStore(t *testing.T, want, got *store.Store) {
	t.Helper()
	assert.Equal(t, want.Len(), got.Len())
	assert.Equal(t, want.Contexts(), got.Contexts())
	for q := range want.Match(nil, nil, nil, nil) {
		assert.True(t, got.Contains(q), "missing %s", q)
	}
	require.NoError(t, got.Verify())
}

func TestDumpRestore(t *testing.T) {
	st := sampleStore(t)
	snap := NewSnapshot(openStorage(t), WithBatchSize(2))

	stats, err := snap.Dump(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Quads)
	assert.Equal(t, 4, stats.Contexts)
	// alice name "Alice" age "42" greets "hello"@en g1 knows _:b1 _:g2 empty
	assert.Equal(t, 12, stats.Terms)

	restored, rstats, err := snap.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, rstats.Quads)
	assert.Equal(t, 12, rstats.Terms)
	assertSameStore(t, st, restored)
}

func TestDumpReplacesPreviousSnapshot(t *testing.T) {
	snap := NewSnapshot(openStorage(t))
	_, err := snap.Dump(context.Background(), sampleStore(t))
	require.NoError(t, err)

	small := store.New()
	_, err = small.Add(rdf.NewQuad(
		rdf.MustNamedNode("http://example.org/s"),
		rdf.MustNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
		rdf.NewDefaultGraph(),
	))
	require.NoError(t, err)
	_, err = snap.Dump(context.Background(), small)
	require.NoError(t, err)

	restored, stats, err := snap.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Terms)
	assertSameStore(t, small, restored)
}

func TestRestorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	st := sampleStore(t)

	s, err := NewBadgerStorage(dir)
	require.NoError(t, err)
	_, err = NewSnapshot(s).Dump(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewBadgerStorage(dir)
	require.NoError(t, err)
	defer s.Close()
	restored, _, err := NewSnapshot(s).Restore(context.Background(), store.WithDegree(4))
	require.NoError(t, err)
	assertSameStore(t, st, restored)
}

func TestRestoreEmptyStorage(t *testing.T) {
	_, _, err := NewSnapshot(openStorage(t)).Restore(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestRestoreDetectsMissingTerm(t *testing.T) {
	s := openStorage(t)
	snap := NewSnapshot(s)
	_, err := snap.Dump(context.Background(), sampleStore(t))
	require.NoError(t, err)

	enc := encoding.NewTermEncoder()
	encoded, _, err := enc.EncodeTerm(rdf.NewLiteral("Alice"))
	require.NoError(t, err)
	txn, err := s.Begin(true)
	require.NoError(t, err)
	require.NoError(t, txn.Delete(TableID2Str, generationKey(1, encoded[:])))
	require.NoError(t, txn.Commit())

	_, _, err = snap.Restore(context.Background())
	assert.ErrorIs(t, err, encoding.ErrCorrupt)
}

func TestSnapshotHonoursCancellation(t *testing.T) {
	snap := NewSnapshot(openStorage(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := snap.Dump(ctx, sampleStore(t))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = snap.Dump(context.Background(), sampleStore(t))
	require.NoError(t, err)
	_, _, err = snap.Restore(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelAfter reports cancellation once Err has been called more than n times.
type cancelAfter struct {
	context.Context
	n int
}

func (c *cancelAfter) Err() error {
	if c.n--; c.n < 0 {
		return context.Canceled
	}
	return nil
}

func TestFailedDumpKeepsPreviousSnapshot(t *testing.T) {
	s := openStorage(t)
	snap := NewSnapshot(s, WithBatchSize(2))
	small := store.New()
	_, err := small.Add(rdf.NewQuad(
		rdf.MustNamedNode("http://example.org/s"),
		rdf.MustNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
		rdf.NewDefaultGraph(),
	))
	require.NoError(t, err)
	_, err = snap.Dump(context.Background(), small)
	require.NoError(t, err)

	// Fails at the third quad, after two batches of the new generation
	// were committed.
	ctx := &cancelAfter{Context: context.Background(), n: 1}
	_, err = snap.Dump(ctx, sampleStore(t))
	require.ErrorIs(t, err, context.Canceled)

	restored, _, err := snap.Restore(context.Background())
	require.NoError(t, err)
	assertSameStore(t, small, restored)

	// The next dump sweeps the partial generation
	st := sampleStore(t)
	_, err = snap.Dump(context.Background(), st)
	require.NoError(t, err)
	restored, _, err = snap.Restore(context.Background())
	require.NoError(t, err)
	assertSameStore(t, st, restored)

	txn, err := s.Begin(false)
	require.NoError(t, err)
	defer txn.Rollback()
	gen, ok, err := readGeneration(txn)
	require.NoError(t, err)
	require.True(t, ok)
	for _, table := range []Table{TableID2Str, TableQuads, TableGraphs} {
		require.NoError(t, scan(txn, table, func(key, _ []byte) error {
			assert.Equal(t, generationKey(gen, nil), key[:generationSize], "stale key in %s", table)
			return nil
		}))
	}
}

func TestSnapshotLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	snap := NewSnapshot(openStorage(t), WithLogger(zap.New(core)))

	_, err := snap.Dump(context.Background(), sampleStore(t))
	require.NoError(t, err)
	_, _, err = snap.Restore(context.Background())
	require.NoError(t, err)

	dumped := logs.FilterMessage("snapshot dumped").All()
	require.Len(t, dumped, 1)
	assert.Equal(t, int64(5), dumped[0].ContextMap()["quads"])
	assert.Equal(t, 1, logs.FilterMessage("snapshot restored").Len())
}

func TestInMemoryStorage(t *testing.T) {
	s, err := NewBadgerStorage("", WithInMemory(), WithBadgerLogger(zap.NewNop()))
	require.NoError(t, err)
	defer s.Close()

	snap := NewSnapshot(s)
	st := sampleStore(t)
	_, err = snap.Dump(context.Background(), st)
	require.NoError(t, err)
	restored, _, err := snap.Restore(context.Background())
	require.NoError(t, err)
	assertSameStore(t, st, restored)
}
