// Package cache holds the parsed ledger and everything derived from it as one
// immutable snapshot, swapped atomically on every successful refresh.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/simulation"
	"github.com/rxtech-lab/argo-ledger/internal/stats"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTradesPerPage is the page size used when Config.TradesPerPage is not set.
const DefaultTradesPerPage = 5

// Config configures a StatsCache.
type Config struct {
	// InitialBalance, RiskPercent and Leverage are the reference simulation parameters.
	InitialBalance float64
	RiskPercent    float64
	Leverage       float64
	// CustomTTL is how long a custom simulation result is kept.
	CustomTTL       time.Duration
	CleanupInterval time.Duration
	TradesPerPage   int
}

// DefaultConfig returns the reference parameters 1000 / 3% / x35.
func DefaultConfig() Config {
	return Config{
		InitialBalance:  simulation.ReferenceInitialBalance,
		RiskPercent:     simulation.ReferenceRiskPercent,
		Leverage:        simulation.ReferenceLeverage,
		CustomTTL:       10 * time.Minute,
		CleanupInterval: 20 * time.Minute,
		TradesPerPage:   DefaultTradesPerPage,
	}
}

// Snapshot is everything derived from one version of the ledger.
// It is never modified after being published.
type Snapshot struct {
	ID           string
	RefreshedAt  time.Time
	Summary      types.SummaryRecord
	Trades       []types.TradeRecord
	Streaks      types.Streaks
	Cumulative   []types.CumulativePoint
	MaxDrawdown  float64
	Distribution types.Distribution
	// HasDistribution is false when the header counts are missing or all zero.
	HasDistribution bool
	Compound        types.SimulationResult
	Simple          types.SimulationResult
}

// StatsCache serves the latest snapshot to any number of readers.
//
// Refresh must not be called concurrently; callers serialize it.
// Readers never block and always see a complete snapshot.
type StatsCache struct {
	parser  *ledger.Parser
	engine  *simulation.Engine
	config  Config
	current atomic.Pointer[Snapshot]
	custom  *gocache.Cache
	logger  *logger.Logger
}

// NewStatsCache creates an empty cache.
func NewStatsCache(parser *ledger.Parser, engine *simulation.Engine, config Config, log *logger.Logger) *StatsCache {
	if config.TradesPerPage <= 0 {
		config.TradesPerPage = DefaultTradesPerPage
	}

	return &StatsCache{
		parser: parser,
		engine: engine,
		config: config,
		custom: gocache.New(config.CustomTTL, config.CleanupInterval),
		logger: log,
	}
}

func (c *StatsCache) referenceParams(mode types.SimulationMode) types.SimulationParams {
	return types.SimulationParams{
		Mode:           mode,
		InitialBalance: c.config.InitialBalance,
		RiskPercent:    c.config.RiskPercent,
		Leverage:       c.config.Leverage,
	}
}

// Refresh parses text and recomputes every derived value.
// It returns false and keeps the previous snapshot when the document yields
// neither a summary nor trades, or when a computation fails.
func (c *StatsCache) Refresh(ctx context.Context, text string) bool {
	if err := ctx.Err(); err != nil {
		c.logger.Warn("Cache refresh cancelled", zap.Error(err))
		return false
	}

	summary, trades := c.parser.Parse(text)
	if summary.IsEmpty() && len(trades) == 0 {
		c.logger.Error("Cache refresh aborted: ledger produced no data",
			zap.Int("code", int(errors.ErrCodeCacheRefreshFailed)),
		)

		return false
	}

	snapshot := &Snapshot{
		ID:          uuid.New().String(),
		RefreshedAt: time.Now(),
		Summary:     summary,
		Trades:      trades,
	}
	snapshot.Distribution, snapshot.HasDistribution = stats.SummaryDistribution(summary)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snapshot.Streaks = stats.ComputeStreaks(trades)
		return nil
	})

	g.Go(func() error {
		snapshot.Cumulative = stats.ComputeCumulative(trades)
		snapshot.MaxDrawdown = stats.MaxDrawdown(snapshot.Cumulative)

		return nil
	})

	g.Go(func() error {
		result, err := c.engine.Simulate(trades, c.referenceParams(types.SimulationCompound))
		if err != nil {
			return err
		}

		snapshot.Compound = result

		return gctx.Err()
	})

	g.Go(func() error {
		result, err := c.engine.Simulate(trades, c.referenceParams(types.SimulationSimple))
		if err != nil {
			return err
		}

		snapshot.Simple = result

		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		c.logger.Error("Cache refresh failed",
			zap.Int("code", int(errors.ErrCodeCacheRefreshFailed)),
			zap.Error(err),
		)

		return false
	}

	c.current.Store(snapshot)

	c.logger.Info("Cache refreshed",
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("trades", len(trades)),
		zap.Bool("summary", !summary.IsEmpty()),
	)

	return true
}

// Snapshot returns the current snapshot, or nil before the first successful refresh.
func (c *StatsCache) Snapshot() *Snapshot {
	return c.current.Load()
}

func (c *StatsCache) load() *Snapshot {
	if snapshot := c.current.Load(); snapshot != nil {
		return snapshot
	}

	return &Snapshot{}
}

func (c *StatsCache) Summary() types.SummaryRecord {
	return c.load().Summary
}

func (c *StatsCache) Trades() []types.TradeRecord {
	return c.load().Trades
}

func (c *StatsCache) Streaks() types.Streaks {
	return c.load().Streaks
}

func (c *StatsCache) Cumulative() []types.CumulativePoint {
	return c.load().Cumulative
}

func (c *StatsCache) Compound() types.SimulationResult {
	return c.load().Compound
}

func (c *StatsCache) Simple() types.SimulationResult {
	return c.load().Simple
}

// TradesPage returns one page of trades, newest first, with the clamped page number and page count.
func (c *StatsCache) TradesPage(page int) ([]types.TradeRecord, int, int) {
	return stats.Page(c.load().Trades, page, c.config.TradesPerPage)
}

// CustomSimulation runs a simulation with params over the current snapshot.
// Results are memoized per snapshot and parameter set.
func (c *StatsCache) CustomSimulation(params types.SimulationParams) (types.SimulationResult, error) {
	snapshot := c.current.Load()
	if snapshot == nil {
		return types.SimulationResult{}, errors.New(errors.ErrCodeCacheEmpty, "no ledger snapshot loaded")
	}

	key := fmt.Sprintf("%s|%s|%g|%g|%g", snapshot.ID, params.Mode, params.InitialBalance, params.RiskPercent, params.Leverage)
	if cached, found := c.custom.Get(key); found {
		if result, ok := cached.(types.SimulationResult); ok {
			c.logger.Debug("Custom simulation served from cache", zap.String("key", key))
			return result, nil
		}
	}

	result, err := c.engine.Simulate(snapshot.Trades, params)
	if err != nil {
		return types.SimulationResult{}, err
	}

	c.custom.Set(key, result, gocache.DefaultExpiration)

	return result, nil
}

// Stats returns the exportable view of the current snapshot.
func (c *StatsCache) Stats() (types.LedgerStats, error) {
	snapshot := c.current.Load()
	if snapshot == nil {
		return types.LedgerStats{}, errors.New(errors.ErrCodeCacheEmpty, "no ledger snapshot loaded")
	}

	var total float64
	if n := len(snapshot.Cumulative); n > 0 {
		total = snapshot.Cumulative[n-1].RunningTotal
	}

	return types.LedgerStats{
		ID:                   snapshot.ID,
		RefreshedAt:          snapshot.RefreshedAt,
		Summary:              snapshot.Summary,
		Streaks:              snapshot.Streaks,
		NumberOfTrades:       len(snapshot.Trades),
		NumberOfClosedTrades: len(snapshot.Cumulative),
		CumulativePnL:        total,
		MaxDrawdown:          snapshot.MaxDrawdown,
		Compound:             snapshot.Compound,
		Simple:               snapshot.Simple,
	}, nil
}
