// Package reconcile compares the stored summary header of a ledger with the values
// derivable from its trades, and rewrites the header when they drift apart.
package reconcile

import (
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// percentTolerance is the largest accepted gap between a stored and a recomputed percentage.
var percentTolerance = decimal.NewFromFloat(0.01)

// Config configures a Reconciler.
type Config struct {
	// Marker is the separator line content. Empty selects ledger.DefaultMarker.
	Marker string
	// Footer is an optional line written after the header dates.
	Footer string
	// Now supplies the date used when no trade carries one. Defaults to time.Now.
	Now func() time.Time
}

// Reconciler detects and repairs drift between the summary header and the trades.
type Reconciler struct {
	marker string
	footer string
	now    func() time.Time
	logger *logger.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(cfg Config, log *logger.Logger) *Reconciler {
	if cfg.Marker == "" {
		cfg.Marker = ledger.DefaultMarker
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Reconciler{
		marker: cfg.Marker,
		footer: cfg.Footer,
		now:    cfg.Now,
		logger: log,
	}
}

// Recompute derives the header values from trades.
// StartDate is taken from the stored summary, or from the earliest trade when the summary has none.
func (r *Reconciler) Recompute(summary types.SummaryRecord, trades []types.TradeRecord) types.RecomputedSummary {
	fresh := types.RecomputedSummary{
		TotalPnL:   decimal.Zero,
		Winrate:    decimal.Zero,
		TotalDeals: len(trades),
		StartDate:  strings.TrimSpace(summary.StartDate),
		LastUpdate: optional.None[time.Time](),
	}

	var first, last time.Time

	for _, trade := range trades {
		if trade.HasDate() {
			if last.IsZero() || trade.DateDT.After(last) {
				last = trade.DateDT
			}

			if first.IsZero() || trade.DateDT.Before(first) {
				first = trade.DateDT
			}
		}

		if trade.IsInProgress() {
			fresh.InProgress++
			continue
		}

		pnl := trade.PnLValue()
		fresh.TotalPnL = fresh.TotalPnL.Add(decimal.NewFromFloat(pnl))

		switch {
		case pnl > 0:
			fresh.Successful++
		case pnl < 0:
			fresh.Losing++
		default:
			fresh.Breakeven++
		}
	}

	if decided := fresh.Successful + fresh.Losing; decided > 0 {
		fresh.Winrate = decimal.NewFromInt(int64(fresh.Successful)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(decided)))
	}

	if !last.IsZero() {
		fresh.LastUpdate = optional.Some(last)
	}

	if fresh.StartDate == "" && !first.IsZero() {
		fresh.StartDate = first.Format(ledger.HeaderDateLayout)
	}

	return fresh
}

// Diff lists the header fields whose stored text disagrees with the trades.
// Fields come in header order. A stored value that cannot be read is always reported.
// The last update date is only compared when some trade has a date.
func (r *Reconciler) Diff(summary types.SummaryRecord, trades []types.TradeRecord) []types.Discrepancy {
	fresh := r.Recompute(summary, trades)
	discrepancies := make([]types.Discrepancy, 0)

	checkPercent := func(field, stored string, value decimal.Decimal) {
		formatted := value.StringFixed(2) + "%"

		old, ok := ledger.ParsePercent(stored)
		if !ok || decimal.NewFromFloat(old).Sub(value).Abs().GreaterThan(percentTolerance) {
			discrepancies = append(discrepancies, types.Discrepancy{Field: field, Old: stored, New: formatted})
		}
	}

	checkCount := func(field, stored string, value int) {
		old, err := strconv.Atoi(strings.TrimSpace(stored))
		if err != nil || old != value {
			discrepancies = append(discrepancies, types.Discrepancy{Field: field, Old: stored, New: strconv.Itoa(value)})
		}
	}

	checkPercent(types.FieldTotalPnL, summary.TotalPnL, fresh.TotalPnL)
	checkPercent(types.FieldWinrate, summary.Winrate, fresh.Winrate)
	checkCount(types.FieldTotalDeals, summary.TotalDeals, fresh.TotalDeals)
	checkCount(types.FieldSuccessful, summary.Successful, fresh.Successful)
	checkCount(types.FieldLosing, summary.Losing, fresh.Losing)
	checkCount(types.FieldBreakeven, summary.Breakeven, fresh.Breakeven)
	checkCount(types.FieldInProgress, summary.InProgress, fresh.InProgress)

	if fresh.LastUpdate.IsSome() {
		last := fresh.LastUpdate.Unwrap()
		formatted := last.Format(ledger.HeaderDateLayout)

		old, err := ledger.ParseDate(summary.LastUpdate)
		if err != nil || !old.Equal(last) {
			discrepancies = append(discrepancies, types.Discrepancy{Field: types.FieldLastUpdate, Old: summary.LastUpdate, New: formatted})
		}
	}

	r.logger.Debug("Summary compared with trades",
		zap.Int("trades", len(trades)),
		zap.Int("discrepancies", len(discrepancies)),
	)

	return discrepancies
}

// Header converts recomputed values into a renderable header.
// Without a trade date the last update falls back to the current date.
func (r *Reconciler) Header(fresh types.RecomputedSummary) ledger.Header {
	var lastUpdate time.Time
	if fresh.LastUpdate.IsSome() {
		lastUpdate = fresh.LastUpdate.Unwrap()
	} else {
		now := r.now()
		lastUpdate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	return ledger.Header{
		TotalPnL:   fresh.TotalPnL,
		Winrate:    fresh.Winrate,
		TotalDeals: fresh.TotalDeals,
		Successful: fresh.Successful,
		Losing:     fresh.Losing,
		Breakeven:  fresh.Breakeven,
		InProgress: fresh.InProgress,
		StartDate:  fresh.StartDate,
		LastUpdate: lastUpdate,
		Footer:     r.footer,
	}
}

// Rewrite replaces the header between the two markers of text with fresh values.
// Text outside the markers is left untouched.
func (r *Reconciler) Rewrite(text string, fresh types.RecomputedSummary) (string, error) {
	updated, err := ledger.ReplaceHeader(text, r.marker, ledger.FormatHeader(r.Header(fresh)))
	if err != nil {
		return "", err
	}

	r.logger.Info("Summary header rewritten",
		zap.String("total_pnl", fresh.TotalPnL.StringFixed(2)),
		zap.Int("total_deals", fresh.TotalDeals),
	)

	return updated, nil
}
