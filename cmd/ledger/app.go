package main

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-ledger/internal/cache"
	"github.com/rxtech-lab/argo-ledger/internal/calculator"
	"github.com/rxtech-lab/argo-ledger/internal/config"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/reconcile"
	"github.com/rxtech-lab/argo-ledger/internal/service"
	"github.com/rxtech-lab/argo-ledger/internal/simulation"
	"github.com/rxtech-lab/argo-ledger/internal/store"
	"github.com/urfave/cli/v3"
)

// app holds the components wired from one configuration.
type app struct {
	config  config.Config
	logger  *logger.Logger
	store   *store.FileStore
	service *service.LedgerService
	cache   *cache.StatsCache
}

// newApp loads the configuration named by the global flags and wires the
// store, parser, engines and service on top of it.
func newApp(cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerWithConfig(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	now := time.Now

	reconcileCfg := cfg.Reconciler()
	reconcileCfg.Now = now

	fileStore := store.NewFileStore(cfg.Ledger.Path, cfg.Ledger.BackupDir, log)
	parser := ledger.NewParser(cfg.Ledger.Marker, log)
	statsCache := cache.NewStatsCache(parser, simulation.NewEngine(log), cfg.StatsCache(), log)
	ledgerService := service.NewLedgerService(
		fileStore,
		parser,
		reconcile.NewReconciler(reconcileCfg, log),
		calculator.NewCalculator(now, log),
		statsCache,
		cfg.Ledger.Footer,
		log,
	)

	return &app{
		config:  cfg,
		logger:  log,
		store:   fileStore,
		service: ledgerService,
		cache:   statsCache,
	}, nil
}

// withApp wraps a command action that needs a loaded ledger.
func withApp(action func(ctx context.Context, cmd *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.logger.Sync() }()

		if err := a.service.Bootstrap(ctx); err != nil {
			return err
		}

		return action(ctx, cmd, a)
	}
}
