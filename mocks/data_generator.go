package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-ledger/internal/ledger/ledgertest"
)

// DataGenerator generates realistic ledger documents for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how a ledger is generated.
type GeneratorConfig struct {
	// Tickers are picked at random for each trade
	Tickers []string
	// StartDate is the date of the oldest trade
	StartDate time.Time
	// Count is the number of trades to generate
	Count int
	// MaxTradesPerDay bounds how many trades share one date
	MaxTradesPerDay int
	// MeanPnL is the average net movement in percent
	MeanPnL float64
	// Volatility is the standard deviation of the net movement in percent
	Volatility float64
	// BreakevenRatio is the share of closed trades with a 0% result (0.0 to 1.0)
	BreakevenRatio float64
	// InProgressRatio is the share of open trades among the newest ones (0.0 to 1.0)
	InProgressRatio float64
}

// GeneratedTrade is the source data of one generated trade segment.
type GeneratedTrade struct {
	Ticker     string
	Direction  string
	PnL        float64
	InProgress bool
	Date       time.Time
}

// GeneratedLedger is a ledger document together with the trades it was rendered from.
// Trades are in chronological order, the document lists them newest first.
type GeneratedLedger struct {
	Text   string
	Trades []GeneratedTrade
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Tickers:         []string{"BTC", "ETH", "SOL", "XRP", "1000PEPE"},
		StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:           1000,
		MaxTradesPerDay: 3,
		MeanPnL:         1.5,
		Volatility:      8,
		BreakevenRatio:  0.1,
		InProgressRatio: 0.005,
	}
}

// Generate creates trades and renders them into a ledger with a consistent header.
func (g *DataGenerator) Generate(config GeneratorConfig) GeneratedLedger {
	trades := make([]GeneratedTrade, config.Count)
	date := config.StartDate
	onDate := 0
	openFrom := config.Count - int(math.Ceil(float64(config.Count)*config.InProgressRatio))

	for i := 0; i < config.Count; i++ {
		if onDate >= max(config.MaxTradesPerDay, 1) || (onDate > 0 && g.rng.Float64() < 0.5) {
			date = date.AddDate(0, 0, 1)
			onDate = 0
		}

		onDate++

		direction := "long"
		if g.rng.Intn(2) == 1 {
			direction = "short"
		}

		trade := GeneratedTrade{
			Ticker:    config.Tickers[g.rng.Intn(len(config.Tickers))],
			Direction: direction,
			Date:      date,
		}

		switch {
		case i >= openFrom:
			trade.InProgress = true
		case g.rng.Float64() < config.BreakevenRatio:
			trade.PnL = 0
		default:
			// Box-Muller transform for a normal distribution
			u1 := 1 - g.rng.Float64()
			u2 := g.rng.Float64()
			z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

			trade.PnL = roundToDecimals(config.MeanPnL+config.Volatility*z, 2)
			if trade.PnL == 0 {
				trade.PnL = 0.01
			}
		}

		trades[i] = trade
	}

	return GeneratedLedger{
		Text:   render(trades),
		Trades: trades,
	}
}

func render(trades []GeneratedTrade) string {
	var (
		total                    float64
		wins, losses, even, open int
		start, last              string
	)

	segments := make([]string, 0, len(trades))

	for i := len(trades) - 1; i >= 0; i-- {
		trade := trades[i]
		date := trade.Date.Format("02.01.2006")

		if trade.InProgress {
			open++
			segments = append(segments, ledgertest.Segment(trade.Ticker, trade.Direction, "", "в отработке", date))

			continue
		}

		total += trade.PnL

		switch {
		case trade.PnL > 0:
			wins++
		case trade.PnL < 0:
			losses++
		default:
			even++
		}

		segments = append(segments, ledgertest.Segment(trade.Ticker, trade.Direction, fmt.Sprintf("%.2f%%", trade.PnL), "1 (100%)", date))
	}

	if len(trades) > 0 {
		start = trades[0].Date.Format("02.01.06")
		last = trades[len(trades)-1].Date.Format("02.01.06")
	}

	winrate := 0.0
	if wins+losses > 0 {
		winrate = float64(wins) / float64(wins+losses) * 100
	}

	header := strings.Join([]string{
		fmt.Sprintf("Чистое движение: %.2f%%", total),
		fmt.Sprintf("Винрейт: %.2f%%", winrate),
		fmt.Sprintf("Всего сделок: %d", len(trades)),
		fmt.Sprintf("Успешных: %d", wins),
		fmt.Sprintf("Убыточных: %d", losses),
		fmt.Sprintf("В безубыток: %d", even),
		fmt.Sprintf("В отработке: %d", open),
		"",
		"",
		"Начало - " + start,
		"Последнее обновление - " + last,
	}, "\n")

	return ledgertest.Document(header, segments...)
}

// Generate10K is a convenience function to generate a 10,000 trade ledger
// with default settings for benchmarking.
func Generate10K() GeneratedLedger {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 10000

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
