package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"OilTycoon/internal/catalog"
	"OilTycoon/internal/config"
	"OilTycoon/internal/economy"
	"OilTycoon/internal/store"
)

// app is everything a command needs to touch the economy.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	store  store.Store
	engine *economy.Engine
}

func loadConfig(opts *RootOptions) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, newLogger(cfg.Log.Level, opts.Verbose), nil
}

func newLogger(level string, verbose bool) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
		Prefix:          "tycoon",
	})
}

// newApp loads the catalog and store and builds an engine on them.
// The engine has not loaded the save yet.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, journal economy.Journal) (*app, error) {
	cat, err := catalog.Load(cfg.Game.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	st, err := store.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	eng := economy.New(cat, economy.Options{
		Store:            st,
		Journal:          journal,
		Logger:           logger,
		StartingGrant:    cfg.Grant(),
		AutosaveInterval: cfg.Game.AutosaveInterval,
		OfflineCap:       cfg.Game.OfflineCap,
		OfflineMinGap:    cfg.Game.OfflineMinGap,
	})
	return &app{cfg: cfg, logger: logger, store: st, engine: eng}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", "err", err)
	}
}
