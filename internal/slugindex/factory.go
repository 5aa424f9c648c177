package slugindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AppleLamps/grokiwiki/internal/config"
)

// Backend names for the persisted variant.
const (
	BackendSQLite = "sqlite"
	BackendBleve  = "bleve"
)

// Open selects and constructs the slug index variant for this process based
// on cfg. Selection happens exactly once at startup; the returned index is
// fixed for the process lifetime.
//
// In persisted mode the prebuilt artifact must already exist: a missing or
// corrupt store is returned as ErrIndexUnavailable and the caller must treat
// it as fatal rather than serving without suggestions. In memory mode the
// corpus is read from the links directory and held in process memory.
func Open(ctx context.Context, cfg *config.IndexConfig, logger *zap.Logger) (SlugIndex, error) {
	if cfg.Persisted {
		switch cfg.Backend {
		case BackendSQLite, "":
			idx, err := NewSQLiteIndex(cfg.DatabasePath)
			if err != nil {
				return nil, err
			}
			logSize(ctx, idx, logger, "sqlite", cfg.DatabasePath)
			return idx, nil
		case BackendBleve:
			idx, err := NewBleveSlugIndex(cfg.BleveIndexPath)
			if err != nil {
				return nil, err
			}
			logSize(ctx, idx, logger, "bleve", cfg.BleveIndexPath)
			return idx, nil
		default:
			return nil, fmt.Errorf("slugindex: unknown backend %q (supported: sqlite, bleve)", cfg.Backend)
		}
	}

	builder := NewBuilder(WithLogger(logger))
	records, err := builder.ReadLinksDir(ctx, cfg.LinksDir)
	if err != nil {
		return nil, err
	}
	idx := NewMemoryIndex(records)
	logSize(ctx, idx, logger, "memory", cfg.LinksDir)
	return idx, nil
}

func logSize(ctx context.Context, idx SlugIndex, logger *zap.Logger, backend, path string) {
	if logger == nil {
		return
	}
	count, err := idx.Count(ctx)
	if err != nil {
		return
	}
	logger.Info("slug index ready",
		zap.String("backend", backend),
		zap.String("path", path),
		zap.Int64("records", count),
	)
}
