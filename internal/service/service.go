// Package service wires the ledger store, parser, reconciler, calculator and
// stats cache into the admin flows: reload, check, fix header and add trade.
package service

import (
	"context"

	"github.com/rxtech-lab/argo-ledger/internal/cache"
	"github.com/rxtech-lab/argo-ledger/internal/calculator"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/reconcile"
	"github.com/rxtech-lab/argo-ledger/internal/store"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"go.uber.org/zap"
)

// LedgerService runs the ledger admin flows. It is the only component that
// touches the store.
type LedgerService struct {
	store      store.Store
	parser     *ledger.Parser
	reconciler *reconcile.Reconciler
	calculator *calculator.Calculator
	cache      *cache.StatsCache
	footer     string
	logger     *logger.Logger
}

// NewLedgerService creates a service. footer is used when a template ledger is bootstrapped.
func NewLedgerService(
	st store.Store,
	parser *ledger.Parser,
	reconciler *reconcile.Reconciler,
	calc *calculator.Calculator,
	statsCache *cache.StatsCache,
	footer string,
	log *logger.Logger,
) *LedgerService {
	return &LedgerService{
		store:      st,
		parser:     parser,
		reconciler: reconciler,
		calculator: calc,
		cache:      statsCache,
		footer:     footer,
		logger:     log,
	}
}

// Cache returns the stats cache the service refreshes.
func (s *LedgerService) Cache() *cache.StatsCache {
	return s.cache
}

// Bootstrap creates a template ledger when none exists, then loads it.
func (s *LedgerService) Bootstrap(ctx context.Context) error {
	created, err := s.store.EnsureTemplate(s.parser.Marker(), s.footer)
	if err != nil {
		return err
	}

	if created {
		s.logger.Info("Template ledger created")
	}

	return s.Reload(ctx)
}

// Reload reads the ledger and refreshes the stats cache.
func (s *LedgerService) Reload(ctx context.Context) error {
	text, err := s.store.Read()
	if err != nil {
		return err
	}

	if !s.cache.Refresh(ctx, text) {
		return errors.New(errors.ErrCodeMalformedDocument, "ledger could not be loaded into the stats cache")
	}

	return nil
}

// load reads and parses the ledger, failing when it holds no trades.
func (s *LedgerService) load() (string, types.SummaryRecord, []types.TradeRecord, error) {
	text, err := s.store.Read()
	if err != nil {
		return "", types.SummaryRecord{}, nil, err
	}

	summary, trades := s.parser.Parse(text)
	if len(trades) == 0 {
		return "", types.SummaryRecord{}, nil, errors.New(errors.ErrCodeNoTrades, "no trades found in the ledger")
	}

	return text, summary, trades, nil
}

// Check compares the stored header with the trades and returns the differences.
func (s *LedgerService) Check(_ context.Context) ([]types.Discrepancy, error) {
	_, summary, trades, err := s.load()
	if err != nil {
		return nil, err
	}

	discrepancies := s.reconciler.Diff(summary, trades)

	s.logger.Info("Ledger checked", zap.Int("discrepancies", len(discrepancies)))

	return discrepancies, nil
}

// FixHeader rewrites the header from the trades, backs up the previous
// version, persists the result and reloads the cache.
// It returns the discrepancies that were repaired.
func (s *LedgerService) FixHeader(ctx context.Context) ([]types.Discrepancy, error) {
	text, summary, trades, err := s.load()
	if err != nil {
		return nil, err
	}

	discrepancies := s.reconciler.Diff(summary, trades)

	rewritten, err := s.reconciler.Rewrite(text, s.reconciler.Recompute(summary, trades))
	if err != nil {
		return nil, err
	}

	if rewritten != text {
		if err := s.persist(rewritten); err != nil {
			return nil, err
		}
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Ledger header fixed", zap.Int("discrepancies", len(discrepancies)))

	return discrepancies, nil
}

// AddTrade computes a trade, prepends its segment to the ledger and fixes the header.
func (s *LedgerService) AddTrade(ctx context.Context, input calculator.TradeInput) (calculator.Trade, error) {
	trade, err := s.calculator.Build(input)
	if err != nil {
		return calculator.Trade{}, err
	}

	text, err := s.store.Read()
	if err != nil {
		return calculator.Trade{}, err
	}

	updated, err := ledger.AppendTrade(text, s.parser.Marker(), trade.Segment)
	if err != nil {
		return calculator.Trade{}, err
	}

	if err := s.persist(updated); err != nil {
		return calculator.Trade{}, err
	}

	s.logger.Info("Trade added",
		zap.String("ticker", trade.Ticker),
		zap.String("pnl", trade.PnL.StringFixed(2)),
	)

	if _, err := s.FixHeader(ctx); err != nil {
		return calculator.Trade{}, err
	}

	return trade, nil
}

// persist backs up the current ledger and writes text in its place.
func (s *LedgerService) persist(text string) error {
	backupPath, err := s.store.Backup()
	if err != nil {
		return err
	}

	if err := s.store.Write(text); err != nil {
		return err
	}

	s.logger.Debug("Ledger persisted", zap.String("backup", backupPath))

	return nil
}
