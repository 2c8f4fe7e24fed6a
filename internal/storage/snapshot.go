package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadgraph/internal/encoding"
	"github.com/aleksaelezovic/quadgraph/pkg/rdf"
	"github.com/aleksaelezovic/quadgraph/pkg/store"
)

const (
	DefaultBatchSize = 1000

	snapshotVersion = 2
)

var (
	metaVersion    = []byte("version")
	metaGeneration = []byte("generation")
	metaQuads      = []byte("quads")
)

// generationSize is the width of the generation prefix on every data key.
const generationSize = 8

var (
	ErrNoSnapshot    = errors.New("no snapshot found")
	ErrHashCollision = errors.New("term hash collision")
)

// Stats summarizes one dump or restore.
type Stats struct {
	Quads    int
	Terms    int
	Contexts int
}

// Snapshot writes an in-memory store to a Storage and reads it back.
//
// Every dump is a new generation: quads are kept under their SPOG key in
// TableQuads and term payloads in TableID2Str keyed by their encoded form,
// both prefixed with the generation number. TableMeta names the current
// generation.
type Snapshot struct {
	storage   Storage
	encoder   *encoding.TermEncoder
	decoder   *encoding.TermDecoder
	logger    *zap.Logger
	batchSize int
}

type SnapshotOption func(*Snapshot)

func WithLogger(logger *zap.Logger) SnapshotOption {
	return func(s *Snapshot) {
		s.logger = logger
	}
}

// WithBatchSize caps the number of writes per transaction.
func WithBatchSize(n int) SnapshotOption {
	return func(s *Snapshot) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func NewSnapshot(storage Storage, opts ...SnapshotOption) *Snapshot {
	s := &Snapshot{
		storage:   storage,
		encoder:   encoding.NewTermEncoder(),
		decoder:   encoding.NewTermDecoder(),
		logger:    zap.NewNop(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dump replaces any snapshot in storage with the contents of st.
//
// The new generation becomes current only when its metadata commits, in one
// transaction after all data is written. A Dump that fails before that point
// leaves the previous snapshot restorable; its partial data is swept by the
// next Dump.
func (s *Snapshot) Dump(ctx context.Context, st *store.Store) (Stats, error) {
	started := time.Now()
	var stats Stats

	current, _, err := s.currentGeneration()
	if err != nil {
		return stats, err
	}
	next := current + 1

	w := &batchWriter{storage: s.storage, limit: s.batchSize}
	defer w.discard()

	if err := s.sweep(w, current); err != nil {
		return stats, fmt.Errorf("failed to remove stale snapshot data: %w", err)
	}

	terms := make(map[encoding.EncodedTerm]rdf.Term)
	encode := func(term rdf.Term) (encoding.EncodedTerm, error) {
		encoded, payload, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return encoded, err
		}
		if payload == nil {
			return encoded, nil
		}
		if prev, ok := terms[encoded]; ok {
			if prev != term {
				return encoded, fmt.Errorf("%w: %s and %s", ErrHashCollision, prev, term)
			}
			return encoded, nil
		}
		terms[encoded] = term
		return encoded, w.set(TableID2Str, generationKey(next, encoded[:]), payload)
	}

	for q := range st.Match(nil, nil, nil, nil) {
		if stats.Quads%s.batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		var key [4]encoding.EncodedTerm
		for i, term := range []rdf.Term{q.Subject, q.Predicate, q.Object, q.Graph} {
			encoded, err := encode(term)
			if err != nil {
				return stats, fmt.Errorf("failed to encode %s: %w", q, err)
			}
			key[i] = encoded
		}
		if err := w.set(TableQuads, generationKey(next, s.encoder.EncodeQuadKey(key[:]...)), nil); err != nil {
			return stats, err
		}
		stats.Quads++
	}

	for _, g := range st.Contexts() {
		stats.Contexts++
		if st.ContextLen(g) > 0 {
			continue
		}
		encoded, err := encode(g)
		if err != nil {
			return stats, fmt.Errorf("failed to encode context %s: %w", g, err)
		}
		if err := w.set(TableGraphs, generationKey(next, encoded[:]), nil); err != nil {
			return stats, err
		}
	}
	if err := w.flush(); err != nil {
		return stats, fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if err := s.commitMeta(next, stats.Quads); err != nil {
		return stats, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	if err := s.sweep(w, next); err != nil {
		s.logger.Warn("failed to remove previous snapshot generation",
			zap.Uint64("generation", current),
			zap.Error(err),
		)
	}
	if err := s.storage.Sync(); err != nil {
		return stats, fmt.Errorf("failed to sync snapshot: %w", err)
	}
	stats.Terms = len(terms)

	s.logger.Info("snapshot dumped",
		zap.Int("quads", stats.Quads),
		zap.Int("terms", stats.Terms),
		zap.Int("contexts", stats.Contexts),
		zap.Uint64("generation", next),
		zap.Duration("elapsed", time.Since(started)),
	)
	return stats, nil
}

// Restore builds a new store from the current snapshot generation.
func (s *Snapshot) Restore(ctx context.Context, opts ...store.Option) (*store.Store, Stats, error) {
	started := time.Now()
	var stats Stats

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, stats, err
	}
	defer txn.Rollback()

	gen, ok, err := readGeneration(txn)
	if err != nil {
		return nil, stats, err
	}
	if !ok {
		return nil, stats, ErrNoSnapshot
	}
	raw, err := txn.Get(TableMeta, metaQuads)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: quad count: %v", encoding.ErrCorrupt, err)
	}
	if len(raw) != 8 {
		return nil, stats, fmt.Errorf("%w: malformed quad count", encoding.ErrCorrupt)
	}
	want := binary.BigEndian.Uint64(raw)

	terms, err := s.readTerms(txn, gen)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read terms: %w", err)
	}
	stats.Terms = len(terms)

	resolve := func(encoded encoding.EncodedTerm) (rdf.Term, error) {
		if encoding.GetTermType(encoded) == rdf.TermTypeDefaultGraph {
			return rdf.NewDefaultGraph(), nil
		}
		term, ok := terms[encoded]
		if !ok {
			return nil, fmt.Errorf("%w: missing term %x", encoding.ErrCorrupt, encoded)
		}
		return term, nil
	}

	st := store.New(opts...)
	err = scanGeneration(txn, TableQuads, gen, func(key, _ []byte) error {
		if stats.Quads%s.batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		encoded, err := encoding.SplitQuadKey(key)
		if err != nil {
			return err
		}
		var parts [4]rdf.Term
		for i, e := range encoded {
			if parts[i], err = resolve(e); err != nil {
				return err
			}
		}
		if _, err := st.Add(rdf.NewQuad(parts[0], parts[1], parts[2], parts[3])); err != nil {
			return err
		}
		stats.Quads++
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("failed to restore quads: %w", err)
	}

	err = scanGeneration(txn, TableGraphs, gen, func(key, _ []byte) error {
		if len(key) != encoding.EncodedTermSize {
			return fmt.Errorf("%w: context key has %d bytes", encoding.ErrCorrupt, len(key))
		}
		g, err := resolve(encoding.EncodedTerm(key))
		if err != nil {
			return err
		}
		return st.DeclareContext(g)
	})
	if err != nil {
		return nil, stats, fmt.Errorf("failed to restore contexts: %w", err)
	}
	stats.Contexts = len(st.Contexts())

	if uint64(st.Len()) != want {
		return nil, stats, fmt.Errorf("%w: restored %d quads, snapshot has %d", encoding.ErrCorrupt, st.Len(), want)
	}

	s.logger.Info("snapshot restored",
		zap.Int("quads", stats.Quads),
		zap.Int("terms", stats.Terms),
		zap.Int("contexts", stats.Contexts),
		zap.Uint64("generation", gen),
		zap.Duration("elapsed", time.Since(started)),
	)
	return st, stats, nil
}

func (s *Snapshot) readTerms(txn Transaction, gen uint64) (map[encoding.EncodedTerm]rdf.Term, error) {
	terms := make(map[encoding.EncodedTerm]rdf.Term)
	err := scanGeneration(txn, TableID2Str, gen, func(key, value []byte) error {
		if len(key) != encoding.EncodedTermSize {
			return fmt.Errorf("%w: term key has %d bytes", encoding.ErrCorrupt, len(key))
		}
		encoded := encoding.EncodedTerm(key)
		term, err := s.decoder.DecodeTerm(encoded, value)
		if err != nil {
			return err
		}
		terms[encoded] = term
		return nil
	})
	return terms, err
}

// currentGeneration returns the generation named by TableMeta, if any.
func (s *Snapshot) currentGeneration() (uint64, bool, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, false, err
	}
	defer txn.Rollback()
	return readGeneration(txn)
}

func readGeneration(txn Transaction) (uint64, bool, error) {
	raw, err := txn.Get(TableMeta, metaGeneration)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(raw) != 8 {
		return 0, false, fmt.Errorf("%w: malformed snapshot generation", encoding.ErrCorrupt)
	}
	return binary.BigEndian.Uint64(raw), true, nil
}

// commitMeta makes gen the current generation in a single transaction.
func (s *Snapshot) commitMeta(gen uint64, quads int) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for _, kv := range []struct {
		key   []byte
		value uint64
	}{
		{metaVersion, snapshotVersion},
		{metaQuads, uint64(quads)},
		{metaGeneration, gen},
	} {
		if err := txn.Set(TableMeta, kv.key, binary.BigEndian.AppendUint64(nil, kv.value)); err != nil {
			return err
		}
	}
	return txn.Commit()
}

// sweep deletes the data of every generation except keep.
func (s *Snapshot) sweep(w *batchWriter, keep uint64) error {
	for _, table := range []Table{TableID2Str, TableQuads, TableGraphs} {
		var keys [][]byte
		err := func() error {
			txn, err := s.storage.Begin(false)
			if err != nil {
				return err
			}
			defer txn.Rollback()
			return scan(txn, table, func(key, _ []byte) error {
				if len(key) < generationSize || binary.BigEndian.Uint64(key) != keep {
					keys = append(keys, key)
				}
				return nil
			})
		}()
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := w.delete(table, key); err != nil {
				return err
			}
		}
	}
	return w.flush()
}

func generationKey(gen uint64, key []byte) []byte {
	out := make([]byte, generationSize, generationSize+len(key))
	binary.BigEndian.PutUint64(out, gen)
	return append(out, key...)
}

func scan(txn Transaction, table Table, fn func(key, value []byte) error) error {
	return scanRange(txn, table, nil, nil, fn)
}

// scanGeneration visits the keys of one generation with the prefix removed.
func scanGeneration(txn Transaction, table Table, gen uint64, fn func(key, value []byte) error) error {
	return scanRange(txn, table, generationKey(gen, nil), generationKey(gen+1, nil), func(key, value []byte) error {
		return fn(key[generationSize:], value)
	})
}

func scanRange(txn Transaction, table Table, start, end []byte, fn func(key, value []byte) error) error {
	it, err := txn.Scan(table, start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return err
		}
		if err := fn(it.Key(), value); err != nil {
			return err
		}
	}
	return nil
}

// batchWriter commits a write transaction every limit operations.
type batchWriter struct {
	storage Storage
	txn     Transaction
	pending int
	limit   int
}

func (w *batchWriter) set(table Table, key, value []byte) error {
	if err := w.begin(); err != nil {
		return err
	}
	if err := w.txn.Set(table, key, value); err != nil {
		return err
	}
	return w.done()
}

func (w *batchWriter) delete(table Table, key []byte) error {
	if err := w.begin(); err != nil {
		return err
	}
	if err := w.txn.Delete(table, key); err != nil {
		return err
	}
	return w.done()
}

func (w *batchWriter) begin() error {
	if w.txn != nil {
		return nil
	}
	txn, err := w.storage.Begin(true)
	if err != nil {
		return err
	}
	w.txn = txn
	return nil
}

func (w *batchWriter) done() error {
	w.pending++
	if w.pending >= w.limit {
		return w.flush()
	}
	return nil
}

func (w *batchWriter) flush() error {
	if w.txn == nil {
		return nil
	}
	err := w.txn.Commit()
	w.txn = nil
	w.pending = 0
	return err
}

func (w *batchWriter) discard() {
	if w.txn != nil {
		_ = w.txn.Rollback()
		w.txn = nil
	}
}
