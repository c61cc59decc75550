// Package stats derives streaks, cumulative series and paging views from trade records.
package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-ledger/internal/types"
)

// Chronological returns the completed trades that have a resolved date,
// ordered by date ascending. Trades on the same day are ordered by
// OriginalIndex descending, since the ledger lists newer trades first.
func Chronological(trades []types.TradeRecord) []types.TradeRecord {
	closed := make([]types.TradeRecord, 0, len(trades))

	for _, trade := range trades {
		if trade.IsInProgress() || !trade.HasDate() {
			continue
		}

		closed = append(closed, trade)
	}

	sort.SliceStable(closed, func(i, j int) bool {
		if !closed[i].DateDT.Equal(closed[j].DateDT) {
			return closed[i].DateDT.Before(closed[j].DateDT)
		}

		return closed[i].OriginalIndex > closed[j].OriginalIndex
	})

	return closed
}

type bucket int

const (
	bucketNone bucket = iota
	bucketWin
	bucketLoss
	bucketBreakeven
)

func bucketOf(pnl float64) bucket {
	switch {
	case pnl > 0:
		return bucketWin
	case pnl < 0:
		return bucketLoss
	default:
		return bucketBreakeven
	}
}

// streakAccumulator holds the running and maximum streak lengths.
type streakAccumulator struct {
	current      bucket
	run          int
	maxWin       int
	maxLoss      int
	maxBreakeven int
}

func (acc *streakAccumulator) add(pnl float64) {
	b := bucketOf(pnl)
	if b != acc.current {
		acc.current = b
		acc.run = 0
	}

	acc.run++

	switch b {
	case bucketWin:
		acc.maxWin = max(acc.maxWin, acc.run)
	case bucketLoss:
		acc.maxLoss = max(acc.maxLoss, acc.run)
	case bucketBreakeven:
		acc.maxBreakeven = max(acc.maxBreakeven, acc.run)
	case bucketNone:
	}
}

// ComputeStreaks returns the longest win, loss and breakeven runs
// over the chronological sequence of closed trades.
func ComputeStreaks(trades []types.TradeRecord) types.Streaks {
	acc := &streakAccumulator{}

	for _, trade := range Chronological(trades) {
		acc.add(trade.PnLValue())
	}

	return types.Streaks{
		Win:       acc.maxWin,
		Loss:      acc.maxLoss,
		Breakeven: acc.maxBreakeven,
	}
}

// ComputeCumulative returns the running PnL sum over the chronological sequence.
func ComputeCumulative(trades []types.TradeRecord) []types.CumulativePoint {
	ordered := Chronological(trades)
	points := make([]types.CumulativePoint, 0, len(ordered))

	total := 0.0
	for _, trade := range ordered {
		total += trade.PnLValue()
		points = append(points, types.CumulativePoint{
			Trade:        trade,
			RunningTotal: total,
		})
	}

	return points
}

// MaxDrawdown returns the largest drop of the running total from its previous peak.
// The peak starts at 0, so an initial loss counts as drawdown.
func MaxDrawdown(points []types.CumulativePoint) float64 {
	peak := 0.0
	maxDrawdown := 0.0

	for _, point := range points {
		if point.RunningTotal > peak {
			peak = point.RunningTotal
		}

		drawdown := peak - point.RunningTotal
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// SummaryDistribution reads the successful, losing and breakeven counts
// from the summary header. It returns false when a count is not an integer
// or when all three are zero.
func SummaryDistribution(summary types.SummaryRecord) (types.Distribution, bool) {
	values := make([]int, 0, 3)

	for _, text := range []string{summary.Successful, summary.Losing, summary.Breakeven} {
		value, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || value < 0 {
			return types.Distribution{}, false
		}

		values = append(values, value)
	}

	distribution := types.Distribution{
		Successful: values[0],
		Losing:     values[1],
		Breakeven:  values[2],
	}

	if distribution.Total() == 0 {
		return types.Distribution{}, false
	}

	return distribution, true
}

// Page returns one page of trades sorted newest first, together with the
// clamped page number and the total page count. Trades without a date sort last.
func Page(trades []types.TradeRecord, page, perPage int) ([]types.TradeRecord, int, int) {
	if perPage <= 0 {
		perPage = 1
	}

	sorted := make([]types.TradeRecord, len(trades))
	copy(sorted, trades)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateDT.After(sorted[j].DateDT)
	})

	totalPages := max(1, (len(sorted)+perPage-1)/perPage)
	page = min(max(page, 1), totalPages)

	start := (page - 1) * perPage
	end := min(start+perPage, len(sorted))

	return sorted[start:end], page, totalPages
}
