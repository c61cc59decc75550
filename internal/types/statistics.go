package types

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Streaks holds the longest runs of winning, losing and breakeven trades.
type Streaks struct {
	Win       int `yaml:"win" json:"win"`
	Loss      int `yaml:"loss" json:"loss"`
	Breakeven int `yaml:"breakeven" json:"breakeven"`
}

// CumulativePoint is one step of the cumulative PnL series.
type CumulativePoint struct {
	Trade        TradeRecord `yaml:"-" json:"-"`
	RunningTotal float64     `yaml:"running_total" json:"running_total"`
}

// Distribution is the split of closed trades as declared in the summary header.
type Distribution struct {
	Successful int `yaml:"successful" json:"successful"`
	Losing     int `yaml:"losing" json:"losing"`
	Breakeven  int `yaml:"breakeven" json:"breakeven"`
}

// Total returns the number of closed trades in the distribution.
func (d Distribution) Total() int {
	return d.Successful + d.Losing + d.Breakeven
}

// RecomputedSummary holds the header values derived from trade records.
type RecomputedSummary struct {
	TotalPnL   decimal.Decimal
	Winrate    decimal.Decimal
	TotalDeals int
	Successful int
	Losing     int
	Breakeven  int
	InProgress int
	// StartDate is carried over from the stored header (or the earliest trade).
	StartDate string
	// LastUpdate is the latest trade date; None when no trade has a date.
	LastUpdate optional.Option[time.Time]
}

// Discrepancy is a header field whose stored text differs from the recomputed value.
type Discrepancy struct {
	Field string `yaml:"field" json:"field"`
	Old   string `yaml:"old" json:"old"`
	New   string `yaml:"new" json:"new"`
}

// LedgerStats is the exported view of a stats snapshot.
type LedgerStats struct {
	// ID is the unique identifier of the snapshot.
	ID string `yaml:"id" json:"id"`
	// RefreshedAt is when the snapshot was computed.
	RefreshedAt time.Time     `yaml:"refreshed_at" json:"refreshed_at"`
	Summary     SummaryRecord `yaml:"summary" json:"summary"`
	Streaks     Streaks       `yaml:"streaks" json:"streaks"`
	// NumberOfTrades counts every parsed trade, open ones included.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// NumberOfClosedTrades counts the trades used for streaks and simulations.
	NumberOfClosedTrades int              `yaml:"number_of_closed_trades" json:"number_of_closed_trades"`
	CumulativePnL        float64          `yaml:"cumulative_pnl" json:"cumulative_pnl"`
	MaxDrawdown          float64          `yaml:"max_drawdown" json:"max_drawdown"`
	Compound             SimulationResult `yaml:"compound" json:"compound"`
	Simple               SimulationResult `yaml:"simple" json:"simple"`
}

func WriteLedgerStats(path string, stats LedgerStats) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger stats to file: %w", err)
	}

	return nil
}
