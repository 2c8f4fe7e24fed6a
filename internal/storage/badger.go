package storage

import (
	"bytes"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerStorage implements Storage using BadgerDB
type BadgerStorage struct {
	db       *badger.DB
	inMemory bool
}

type badgerConfig struct {
	inMemory bool
	logger   *zap.Logger
}

// BadgerOption configures NewBadgerStorage.
type BadgerOption func(*badgerConfig)

// WithInMemory keeps the database in memory; the path is ignored.
func WithInMemory() BadgerOption {
	return func(c *badgerConfig) {
		c.inMemory = true
	}
}

// WithBadgerLogger routes badger's own log output to logger.
func WithBadgerLogger(logger *zap.Logger) BadgerOption {
	return func(c *badgerConfig) {
		c.logger = logger
	}
}

// NewBadgerStorage opens (or creates) a BadgerDB-backed storage at path.
func NewBadgerStorage(path string, opts ...BadgerOption) (*BadgerStorage, error) {
	var cfg badgerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	options := badger.DefaultOptions(path)
	if cfg.inMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	}
	options.Logger = nil
	if cfg.logger != nil {
		options.Logger = badgerLogger{cfg.logger.Named("badger").Sugar()}
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db, inMemory: cfg.inMemory}, nil
}

func (s *BadgerStorage) Begin(writable bool) (Transaction, error) {
	return &BadgerTransaction{
		txn:      s.db.NewTransaction(writable),
		writable: writable,
	}, nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Sync flushes writes to disk. In-memory databases have nothing to flush.
func (s *BadgerStorage) Sync() error {
	if s.inMemory {
		return nil
	}
	return s.db.Sync()
}

// BadgerTransaction implements Transaction using BadgerDB
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

func (t *BadgerTransaction) Get(table Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(PrefixKey(table, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *BadgerTransaction) Set(table Table, key, value []byte) error {
	if !t.writable {
		return ErrTransactionRO
	}
	return t.txn.Set(PrefixKey(table, key), value)
}

func (t *BadgerTransaction) Delete(table Table, key []byte) error {
	if !t.writable {
		return ErrTransactionRO
	}
	return t.txn.Delete(PrefixKey(table, key))
}

func (t *BadgerTransaction) Scan(table Table, start, end []byte) (Iterator, error) {
	tablePrefix := TablePrefix(table)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = tablePrefix
	it := t.txn.NewIterator(opts)

	seekKey := tablePrefix
	if start != nil {
		seekKey = PrefixKey(table, start)
	}
	var endKey []byte
	if end != nil {
		endKey = PrefixKey(table, end)
	}

	return &BadgerIterator{
		it:      it,
		prefix:  tablePrefix,
		seekKey: seekKey,
		endKey:  endKey,
	}, nil
}

func (t *BadgerTransaction) Commit() error {
	return t.txn.Commit()
}

// Rollback discards the transaction; it is a no-op after Commit.
func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// BadgerIterator implements Iterator using BadgerDB
type BadgerIterator struct {
	it       *badger.Iterator
	prefix   []byte // table prefix, stripped from keys
	seekKey  []byte
	endKey   []byte
	started  bool
	hasValue bool
}

func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.seekKey)
		i.started = true
	} else {
		i.it.Next()
	}

	if !i.it.Valid() {
		i.hasValue = false
		return false
	}
	if i.endKey != nil && bytes.Compare(i.it.Item().Key(), i.endKey) >= 0 {
		i.hasValue = false
		return false
	}

	i.hasValue = true
	return true
}

// Key returns a copy of the current key without the table prefix.
func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	key := i.it.Item().KeyCopy(nil)
	return key[len(i.prefix):]
}

func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, ErrNotFound
	}
	return i.it.Item().ValueCopy(nil)
}

func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}

// badgerLogger adapts zap to badger.Logger. Badger's info output is chatty,
// so it is logged at debug level.
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(format string, args ...any)   { b.l.Errorf(format, args...) }
func (b badgerLogger) Warningf(format string, args ...any) { b.l.Warnf(format, args...) }
func (b badgerLogger) Infof(format string, args ...any)    { b.l.Debugf(format, args...) }
func (b badgerLogger) Debugf(format string, args ...any)   { b.l.Debugf(format, args...) }
