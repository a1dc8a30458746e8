// Package badger implements a resource store on an embedded BadgerDB.
//
// Every node has a JSON record holding its kind, modification time and tag.
// File bytes live under a separate key so that listing and stat calls never
// load content. Each operation runs in a single BadgerDB transaction.
package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/pkg/resource"
)

// SizeRecorder receives LSM and value log sizes after mutations.
type SizeRecorder interface {
	RecordSize(store string, lsm, vlog int64)
}

// Config holds configuration for the BadgerDB store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Intended for tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// ValueLogFileSize caps each value log file in bytes. Zero keeps the
	// BadgerDB default.
	ValueLogFileSize int64

	// Name labels size metrics. Default: "badger"
	Name string
}

// Option configures a Store.
type Option func(*Store)

// WithSizeRecorder reports database sizes after each mutation.
func WithSizeRecorder(r SizeRecorder) Option {
	return func(s *Store) { s.sizes = r }
}

// WithClock sets the time source used for modification times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is a BadgerDB-backed resource.Store.
type Store struct {
	db    *badgerdb.DB
	name  string
	now   func() time.Time
	sizes SizeRecorder

	closeOnce sync.Once
	closeErr  error
}

var _ resource.Store = (*Store)(nil)

// badgerLogger routes BadgerDB's internal logging through the package logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any)   { logger.Errorf("badger: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Warningf(f string, v ...any) { logger.Warnf("badger: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Infof(f string, v ...any)    { logger.Debugf("badger: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Debugf(f string, v ...any)   { logger.Debugf("badger: "+strings.TrimSpace(f), v...) }

// New opens (or creates) a BadgerDB store.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("badger: path is required")
	}

	bopts := badgerdb.DefaultOptions(cfg.Path).
		WithLogger(badgerLogger{}).
		WithSyncWrites(cfg.SyncWrites)
	if cfg.InMemory {
		bopts = bopts.WithInMemory(true)
	}
	if cfg.ValueLogFileSize > 0 {
		bopts = bopts.WithValueLogFileSize(cfg.ValueLogFileSize)
	}

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db, name: cfg.Name, now: time.Now}
	if s.name == "" {
		s.name = "badger"
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureRoot(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewInMemory opens an in-memory store.
func NewInMemory(opts ...Option) (*Store, error) {
	return New(context.Background(), Config{InMemory: true}, opts...)
}

func (s *Store) ensureRoot() error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(keyNode(rootPath))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		return putRecord(txn, rootPath, &record{Kind: resource.KindFolder, MTime: s.now().UnixNano()})
	})
}

// Root returns the top-level container.
func (s *Store) Root() resource.Container {
	return &entry{s: s, p: rootPath, kind: resource.KindFolder}
}

// Type returns "badger".
func (s *Store) Type() string { return "badger" }

// Close closes the database.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Healthcheck verifies the database can serve a read transaction.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", mapErr(err))
	}
	return nil
}

func (s *Store) recordSize() {
	if s.sizes == nil {
		return
	}
	lsm, vlog := s.db.Size()
	s.sizes.RecordSize(s.name, lsm, vlog)
}

func (s *Store) view(ctx context.Context, fn func(txn *badgerdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return resource.ErrClosed
	}
	return mapErr(s.db.View(fn))
}

func (s *Store) update(ctx context.Context, fn func(txn *badgerdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return resource.ErrClosed
	}
	if err := mapErr(s.db.Update(fn)); err != nil {
		return err
	}
	s.recordSize()
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return resource.ErrClosed
	}
	return err
}

func getRecord(txn *badgerdb.Txn, p string) (*record, error) {
	item, err := txn.Get(keyNode(p))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, fmt.Errorf("%q: %w", p, resource.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var rec *record
	err = item.Value(func(val []byte) error {
		r, err := decodeRecord(val)
		rec = r
		return err
	})
	return rec, err
}

func putRecord(txn *badgerdb.Txn, p string, r *record) error {
	data, err := encodeRecord(r)
	if err != nil {
		return err
	}
	return txn.Set(keyNode(p), data)
}

// deletePrefix removes every key starting with prefix.
func deletePrefix(txn *badgerdb.Txn, prefix []byte) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
