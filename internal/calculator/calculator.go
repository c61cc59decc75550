// Package calculator builds ledger trade segments from manually entered trade data.
package calculator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// exitLegPattern matches "price (percent%)" pairs such as "105,5 (50%)".
var exitLegPattern = regexp.MustCompile(`([0-9.,]+)\s*\(([\d.]+)%\)`)

var (
	hundred = decimal.NewFromInt(100)
	// maxLegSum and minLegSum bound the accepted sum of exit percentages.
	maxLegSum = decimal.NewFromFloat(100.1)
	minLegSum = decimal.NewFromFloat(99.9)
)

// ExitLeg is a partial close of a position.
type ExitLeg struct {
	Price   decimal.Decimal
	Percent decimal.Decimal
	// Implicit is set for the remainder leg closed at the entry price.
	Implicit bool
}

// TradeInput is the manually entered trade data.
type TradeInput struct {
	Ticker    string          `validate:"required,alphanum"`
	Entry     float64         `validate:"gt=0"`
	Margin    float64         `validate:"gt=0"`
	Direction types.Direction `validate:"required,oneof=long short"`
	// Exits is the exit legs text, e.g. "105 (50%) 110 (50%)".
	Exits string `validate:"required"`
	// Date defaults to the calculator clock.
	Date optional.Option[time.Time]
}

// Trade is the computed result of a TradeInput.
type Trade struct {
	Ticker      string
	Direction   types.Direction
	Entry       decimal.Decimal
	Margin      decimal.Decimal
	Legs        []ExitLeg
	NetMovement decimal.Decimal
	// PnL is the net movement multiplied by the margin, in percent.
	PnL     decimal.Decimal
	Exits   string
	Date    time.Time
	Segment string
}

// Calculator turns trade input into a ledger segment.
type Calculator struct {
	now    func() time.Time
	logger *logger.Logger
}

// NewCalculator creates a calculator. A nil now uses time.Now.
func NewCalculator(now func() time.Time, log *logger.Logger) *Calculator {
	if now == nil {
		now = time.Now
	}

	return &Calculator{
		now:    now,
		logger: log,
	}
}

// ParseExits extracts the exit legs from text.
func ParseExits(text string) ([]ExitLeg, error) {
	matches := exitLegPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidExitLegs, "no exit legs found in %q, expected \"price (percent%%)\"", text)
	}

	legs := make([]ExitLeg, 0, len(matches))
	for _, match := range matches {
		price, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", "."))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidExitLegs, err, "invalid exit price %q", match[1])
		}

		percent, err := decimal.NewFromString(match[2])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidExitLegs, err, "invalid exit percent %q", match[2])
		}

		legs = append(legs, ExitLeg{Price: price, Percent: percent})
	}

	return legs, nil
}

// ParseMargin parses a margin such as "x20", "X5" or "1,25".
func ParseMargin(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), ",", ".")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "x", ""))

	margin, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid margin %q", text)
	}

	if !margin.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodeInvalidParameter, "margin must be positive, got %q", text)
	}

	return margin, nil
}

// ParsePrice parses a positive price that may use a comma decimal separator.
func ParsePrice(text string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid price %q", text)
	}

	if !price.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodeInvalidParameter, "price must be positive, got %q", text)
	}

	return price, nil
}

// Build computes net movement and PnL for input and renders its ledger segment.
//
// A leg sum above 100.1% is rejected. A leg sum below 99.9% gets an implicit
// leg at the entry price for the remainder.
func (c *Calculator) Build(input TradeInput) (Trade, error) {
	input.Ticker = strings.ToUpper(strings.TrimSpace(input.Ticker))
	input.Exits = strings.Join(strings.Fields(input.Exits), " ")

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return Trade{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid trade input", err)
	}

	legs, err := ParseExits(input.Exits)
	if err != nil {
		return Trade{}, err
	}

	entry := decimal.NewFromFloat(input.Entry)
	margin := decimal.NewFromFloat(input.Margin)

	sum := decimal.Zero
	for _, leg := range legs {
		sum = sum.Add(leg.Percent)
	}

	if sum.GreaterThan(maxLegSum) {
		return Trade{}, errors.Newf(errors.ErrCodeLegSumExceeded, "exit legs sum to %s%%, more than 100%%", sum.String())
	}

	if sum.LessThan(minLegSum) {
		legs = append(legs, ExitLeg{Price: entry, Percent: hundred.Sub(sum), Implicit: true})
	}

	net := decimal.Zero
	for _, leg := range legs {
		move := leg.Price.Sub(entry)
		if input.Direction == types.DirectionShort {
			move = entry.Sub(leg.Price)
		}

		net = net.Add(move.Div(entry).Mul(hundred).Mul(leg.Percent).Div(hundred))
	}

	date := c.now()
	if input.Date.IsSome() {
		date = input.Date.Unwrap()
	}

	trade := Trade{
		Ticker:      input.Ticker,
		Direction:   input.Direction,
		Entry:       entry,
		Margin:      margin,
		Legs:        legs,
		NetMovement: net,
		PnL:         net.Mul(margin),
		Exits:       input.Exits,
		Date:        date,
	}
	trade.Segment = FormatSegment(trade)

	c.logger.Info("Trade calculated",
		zap.String("ticker", trade.Ticker),
		zap.String("direction", string(trade.Direction)),
		zap.String("pnl", trade.PnL.StringFixed(2)),
		zap.Int("legs", len(legs)),
	)

	return trade, nil
}

// FormatSegment renders trade in the ledger segment grammar.
func FormatSegment(trade Trade) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s)\n\n", trade.Ticker, trade.Direction)
	fmt.Fprintf(&b, "Чистое движение: %s%%\n\n", trade.PnL.StringFixed(2))
	fmt.Fprintf(&b, "ENTRY: %s\n\n", trade.Entry.String())
	fmt.Fprintf(&b, "Маржа: X%s\n\n", trade.Margin.String())
	fmt.Fprintf(&b, "Фиксации: %s\n\n", trade.Exits)
	fmt.Fprintf(&b, "Дата: %s", trade.Date.Format(ledger.TradeDateLayout))

	return b.String()
}
