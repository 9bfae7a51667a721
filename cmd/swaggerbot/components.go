package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/config"
	"github.com/goel7054/swagger-bot/internal/corpus"
	"github.com/goel7054/swagger-bot/internal/knowledge"
	"github.com/goel7054/swagger-bot/internal/metrics"
	"github.com/goel7054/swagger-bot/internal/router"
	"github.com/goel7054/swagger-bot/internal/search"
	"github.com/goel7054/swagger-bot/internal/specdoc"
	"github.com/goel7054/swagger-bot/internal/storage"
)

const catalogSyncTimeout = 10 * time.Second

// Components holds the wired query bot.
type Components struct {
	Loader  *specdoc.Loader
	Store   *corpus.Store
	Tables  *knowledge.Tables
	Engine  *search.Engine
	Router  *router.Router
	Catalog storage.Catalog
}

// componentOptions selects the optional parts a command needs.
type componentOptions struct {
	catalog bool
	metrics bool
}

func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if snap := c.Store.Snapshot(); snap != nil && snap.Keyword != nil {
		_ = snap.Keyword.Close()
	}
}

// newLoader builds the spec loader from config.
func newLoader(cfg *config.Config, logger *zap.Logger) (*specdoc.Loader, error) {
	opts := []specdoc.LoaderOption{
		specdoc.WithLogger(logger),
		specdoc.WithExtensions(cfg.Specs.Extensions),
		specdoc.WithRecursive(cfg.Specs.RecursiveOrDefault()),
		specdoc.WithWorkers(cfg.Specs.ParseWorkers),
	}
	if cfg.Specs.ValidateOrDefault() {
		v, err := specdoc.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to compile document schema: %w", err)
		}
		opts = append(opts, specdoc.WithValidator(v))
	}
	return specdoc.NewLoader(opts...), nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts componentOptions) (*Components, error) {
	loader, err := newLoader(cfg, logger)
	if err != nil {
		return nil, err
	}

	var catalog storage.Catalog
	if opts.catalog {
		c, err := storage.NewSQLiteCatalog(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Warn("spec catalog unavailable, continuing without it",
				zap.String("database_path", cfg.Storage.DatabasePath), zap.Error(err))
		} else {
			catalog = c
		}
	}

	storeOpts := []corpus.StoreOption{corpus.WithLogger(logger)}
	if opts.metrics {
		storeOpts = append(storeOpts, corpus.WithOnSwap(func(snap *corpus.Snapshot) {
			metrics.SetCorpus(len(snap.Documents), len(snap.Corpus.Entries), snap.Report.Failed())
		}))
	}
	if catalog != nil {
		storeOpts = append(storeOpts, corpus.WithOnSwap(func(snap *corpus.Snapshot) {
			syncCatalog(catalog, snap, logger)
		}))
	}
	store, err := corpus.NewStore(loader, cfg.Specs.Paths, storeOpts...)
	if err != nil {
		if catalog != nil {
			_ = catalog.Close()
		}
		return nil, fmt.Errorf("failed to initialize corpus: %w", err)
	}

	tables := knowledge.Default()
	if cfg.Knowledge.Path != "" {
		tables, err = knowledge.Load(cfg.Knowledge.Path)
		if err != nil {
			if catalog != nil {
				_ = catalog.Close()
			}
			return nil, fmt.Errorf("failed to load knowledge tables: %w", err)
		}
	}

	engine := search.NewEngine(cfg.Search.EngineOptions())
	routerOpts := []router.Option{router.WithLogger(logger)}
	if opts.metrics {
		routerOpts = append(routerOpts, router.WithObserver(func(t router.Tier) {
			metrics.ObserveTier(t.String())
		}))
	}

	comp := &Components{
		Loader:  loader,
		Store:   store,
		Tables:  tables,
		Engine:  engine,
		Router:  router.New(store, tables, engine, routerOpts...),
		Catalog: catalog,
	}

	_, err = store.Reload(ctx)
	if opts.metrics {
		metrics.ObserveReload(err)
	}
	if err != nil {
		comp.Close()
		return nil, err
	}
	return comp, nil
}

func syncCatalog(catalog storage.Catalog, snap *corpus.Snapshot, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), catalogSyncTimeout)
	defer cancel()
	stats, err := catalog.Sync(ctx, storage.RecordsFromSnapshot(snap))
	if err != nil {
		logger.Warn("spec catalog sync failed", zap.Error(err))
		return
	}
	logger.Debug("spec catalog synced",
		zap.String("build_id", snap.BuildID),
		zap.Int("added", stats.Added),
		zap.Int("changed", stats.Changed),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("removed", stats.Removed))
}
