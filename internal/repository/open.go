package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/debemdeboas/zenblog/internal/config"
	"github.com/debemdeboas/zenblog/internal/db"
	"github.com/debemdeboas/zenblog/internal/util/compression"
)

const sqliteFile = "zenblog.db"

// Open builds the repository described by cfg.
func Open(cfg config.StorageConfig) (*KVRepository, error) {
	compressor, err := compression.ByName(cfg.Compression)
	if err != nil {
		return nil, err
	}

	var backend Backend
	switch cfg.Driver {
	case "sqlite":
		if err := os.MkdirAll(cfg.Path, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		sqlite := db.NewSQLite(filepath.Join(cfg.Path, sqliteFile))
		if err := sqlite.InitDB(); err != nil {
			sqlite.Close()
			return nil, err
		}
		backend = NewDBBackend(sqlite)
	case "file":
		if backend, err = NewFSBackend(cfg.Path); err != nil {
			return nil, err
		}
	case "memory":
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	repoLogger.Info().
		Str("driver", cfg.Driver).
		Str("path", cfg.Path).
		Str("compression", cfg.Compression).
		Msg("Local store opened")

	return NewKVRepository(backend, compressor), nil
}
