package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/dshills/moviematch/internal/config"
	"github.com/dshills/moviematch/internal/corpus"
	"github.com/dshills/moviematch/internal/embedder"
	"github.com/dshills/moviematch/internal/indexer"
	"github.com/dshills/moviematch/internal/logger"
	"github.com/dshills/moviematch/internal/searcher"
	"github.com/dshills/moviematch/internal/storage"
	"github.com/dshills/moviematch/internal/textproc"
)

// app holds the long-lived components shared by the commands
type app struct {
	cfg      *config.Config
	embedder embedder.Embedder
	store    *storage.SQLiteStorage // nil when data.cache_path is empty or unusable
	indexes  *indexer.Indexes
	searcher *searcher.Searcher
}

// bootstrap loads the corpus and builds every index. A corpus that cannot be
// read is logged and replaced by an empty one so the services still start.
func bootstrap(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Get()

	c, stats, err := corpus.LoadCSV(cfg.Data.CorpusPath)
	if err != nil {
		log.Error("failed to load corpus, serving an empty catalog",
			zap.String("path", cfg.Data.CorpusPath),
			zap.Error(err))
		c = corpus.New(nil)
	} else {
		log.Info("corpus loaded",
			zap.String("path", cfg.Data.CorpusPath),
			zap.Int("rows", stats.Rows),
			zap.Int("movies", stats.Loaded),
			zap.Int("skipped_rows", stats.SkippedRows),
			zap.Int("duplicate_ids", stats.DuplicateIDs),
			zap.Int("malformed_lists", stats.MalformedLists),
			zap.Int("bad_numbers", stats.BadNumbers))
	}

	normalizer, err := textproc.NewFromConfig(cfg.Text.Morphology)
	if err != nil {
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}

	a := &app{cfg: cfg}
	a.embedder, err = embedder.New(cfg.EmbedderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	deps := indexer.Deps{Normalizer: normalizer, Embedder: a.embedder}
	if cfg.Data.CachePath != "" {
		a.store = openSnapshotStore(cfg.Data.CachePath)
		if a.store != nil {
			deps.Store = a.store
		}
	}

	log.Info("building indexes",
		zap.Int("movies", c.Len()),
		zap.String("embedding_provider", a.embedder.Provider()),
		zap.String("embedding_model", a.embedder.Model()),
		zap.String("sqlite_driver", storage.DriverName))

	a.indexes, err = indexer.Build(ctx, c, deps, cfg.IndexerConfig())
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to build indexes: %w", err)
	}

	a.searcher = searcher.New(a.indexes, a.embedder, cfg.SearchOptions())
	return a, nil
}

// openSnapshotStore opens the embedding cache at path. A file SQLite cannot
// open is renamed to path+".corrupt" and a fresh cache is created in its
// place. Returns nil when no cache can be opened; indexes then build
// without one.
func openSnapshotStore(path string) *storage.SQLiteStorage {
	log := logger.Get()

	store, err := storage.NewSQLiteStorage(path)
	if err == nil {
		return store
	}

	aside := path + ".corrupt"
	log.Warn("embedding cache unreadable, moving it aside",
		zap.String("path", path),
		zap.String("moved_to", aside),
		zap.Error(err))
	if err := os.Rename(path, aside); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to move embedding cache aside, continuing without it", zap.Error(err))
		return nil
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}

	store, err = storage.NewSQLiteStorage(path)
	if err != nil {
		log.Warn("embedding cache unavailable, continuing without it",
			zap.String("path", path),
			zap.Error(err))
		return nil
	}
	return store
}

// Close releases the embedder and the snapshot store
func (a *app) Close() error {
	var errs []error
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
