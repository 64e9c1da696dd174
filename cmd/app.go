package main

import (
	"context"

	"go.uber.org/zap"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/db"
	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/notify"
	"jobboard/scrape-service/internal/parse"
	"jobboard/scrape-service/internal/scraper"
	"jobboard/scrape-service/internal/store"
)

// app is the wired pipeline shared by serve and run.
type app struct {
	coord   *scraper.Coordinator
	jobs    store.Store
	closers []func()
}

// newApp connects storage and events and wires the coordinator. dryRun
// swaps the jobs table for an in-memory store and disables events.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, dryRun bool) (*app, error) {
	ext, err := extract.New(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{}

	// ── Storage ─────────────────────────────────────────────────────────────
	if dryRun {
		log.Info("dry run: using in-memory store")
		a.jobs = store.NewMemory()
	} else {
		if a.jobs, err = store.New(ctx, cfg); err != nil {
			return nil, err
		}
		log.Info("store connected", zap.Bool("postgres", cfg.DatabaseURL != ""))
	}
	a.closers = append(a.closers, a.jobs.Close)

	// ── Events ──────────────────────────────────────────────────────────────
	var pub notify.Publisher = notify.Nop{}
	if cfg.RedisURL != "" && !dryRun {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			// Events are best effort; the pipeline runs without them.
			log.Warn("redis unavailable, events disabled", zap.Error(err))
		} else {
			pub = notify.NewRedisPublisher(rdb)
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			log.Info("redis connected")
		}
	}

	a.coord = scraper.NewCoordinator(scraper.Options{
		Extractor:    ext,
		Parser:       parse.NewDispatcher(ext, cfg.MaxPagesPerUnit, log.Named("parse")),
		Store:        a.jobs,
		Publisher:    pub,
		Logger:       log.Named("scraper"),
		BatchSize:    cfg.BatchSize,
		Terms:        cfg.Search.Terms,
		Locations:    cfg.Search.Locations,
		ExcludeTerms: cfg.Search.ExcludeTerms,
	})
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
