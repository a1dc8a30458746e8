// Package sql implements a resource store on a relational database through
// GORM. SQLite (pure Go driver) is the default; PostgreSQL is supported with
// the same schema.
//
// The tree is an adjacency list: each row points at its parent row and the
// pair (parent_id, name) is unique.
package sql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nkhine/itools/pkg/resource"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used for modification times.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Store is a GORM-backed resource.Store.
type Store struct {
	db     *gorm.DB
	config *Config
	closed atomic.Bool
}

var _ resource.Store = (*Store)(nil)

// New opens the database and migrates the schema.
func New(config *Config, opts ...Option) (*Store, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		dsn := config.SQLite.Path
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
			// journal_mode(WAL): concurrent readers with a single writer
			// busy_timeout(5000): wait up to 5 seconds when the database is locked
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
		dialector = sqlite.Open(dsn)
	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: o.now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch config.Type {
	case DatabaseTypeSQLite:
		// One connection: ":memory:" databases are per connection and
		// SQLite serialises writers anyway.
		sqlDB.SetMaxOpenConns(1)
	case DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(&Node{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	root := Node{ID: rootID, Kind: int(resource.KindFolder)}
	if err := db.Where(Node{ID: rootID}).FirstOrCreate(&root).Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create root: %w", err)
	}

	return &Store{db: db, config: config}, nil
}

// NewInMemory opens an in-memory SQLite store.
func NewInMemory(opts ...Option) (*Store, error) {
	return New(&Config{Type: DatabaseTypeSQLite, SQLite: SQLiteConfig{Path: ":memory:"}}, opts...)
}

// DB returns the underlying GORM database connection.
func (s *Store) DB() *gorm.DB { return s.db }

// Root returns the top-level container.
func (s *Store) Root() resource.Container {
	return &entry{s: s, id: rootID, kind: resource.KindFolder}
}

// Type returns "sql".
func (s *Store) Type() string { return "sql" }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Healthcheck pings the database.
func (s *Store) Healthcheck(ctx context.Context) error {
	if s.closed.Load() {
		return resource.ErrClosed
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, resource.ErrClosed
	}
	return s.db.WithContext(ctx), nil
}

// isUniqueConstraintError checks if the error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

// convertNotFoundError converts gorm.ErrRecordNotFound to resource.ErrNotFound.
func convertNotFoundError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return resource.ErrNotFound
	}
	return err
}
