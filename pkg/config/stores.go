package config

import (
	"context"
	"fmt"
	"os"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/pkg/metrics"
	"github.com/nkhine/itools/pkg/resource"
	badgerstore "github.com/nkhine/itools/pkg/resource/badger"
	billystore "github.com/nkhine/itools/pkg/resource/billy"
	fsstore "github.com/nkhine/itools/pkg/resource/fs"
	"github.com/nkhine/itools/pkg/resource/memory"
	s3store "github.com/nkhine/itools/pkg/resource/s3"
	sqlstore "github.com/nkhine/itools/pkg/resource/sql"
)

// OpenStore creates the store selected by cfg.Type and wraps it with
// tracing and, when metrics are enabled, store metrics.
func OpenStore(ctx context.Context, cfg StoreConfig) (resource.Store, error) {
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Type, err)
	}

	logger.DebugCtx(ctx, "store opened", logger.KeyStore, s.Type())
	return resource.InstrumentStore(s, metrics.NewStoreMetrics()), nil
}

func openStore(ctx context.Context, cfg StoreConfig) (resource.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	case "fs":
		return createFSStore(cfg.FS)
	case "billy":
		return createBillyStore(cfg.Billy)
	case "badger":
		return createBadgerStore(ctx, cfg.Badger)
	case "sql":
		sqlCfg := cfg.SQL
		sqlCfg.ApplyDefaults()
		return sqlstore.New(&sqlCfg)
	case "s3":
		s3Cfg := cfg.S3
		s3Cfg.ApplyDefaults()
		return s3store.NewFromConfig(ctx, s3Cfg)
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
}

// createFSStore creates a filesystem-backed store.
func createFSStore(cfg FSStoreConfig) (resource.Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("filesystem store requires path to be set")
	}

	fsCfg := fsstore.DefaultConfig(cfg.Path)
	if cfg.CreateDir != nil {
		fsCfg.CreateDir = *cfg.CreateDir
	}
	if cfg.DirMode != 0 {
		fsCfg.DirMode = os.FileMode(cfg.DirMode)
	}
	if cfg.FileMode != 0 {
		fsCfg.FileMode = os.FileMode(cfg.FileMode)
	}
	return fsstore.New(fsCfg)
}

func createBillyStore(cfg BillyStoreConfig) (resource.Store, error) {
	if cfg.InMemory {
		return billystore.NewMemory(), nil
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("billy store requires path or in_memory to be set")
	}
	return billystore.NewLocal(cfg.Path)
}

// createBadgerStore opens a BadgerDB store, reporting its size when metrics
// are enabled.
func createBadgerStore(ctx context.Context, cfg BadgerStoreConfig) (resource.Store, error) {
	var opts []badgerstore.Option
	if r := metrics.NewSizeRecorder(); r != nil {
		opts = append(opts, badgerstore.WithSizeRecorder(r))
	}

	return badgerstore.New(ctx, badgerstore.Config{
		Path:             cfg.Path,
		SyncWrites:       cfg.SyncWrites,
		ValueLogFileSize: int64(cfg.ValueLogFileSize),
	}, opts...)
}

// LocalPath returns the directory on disk mirrored by the configured store,
// or "" when the store is not directory-backed.
func (c StoreConfig) LocalPath() string {
	switch c.Type {
	case "fs":
		return c.FS.Path
	case "billy":
		if !c.Billy.InMemory {
			return c.Billy.Path
		}
	}
	return ""
}
