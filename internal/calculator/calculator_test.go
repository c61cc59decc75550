package calculator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/ledger/ledgertest"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CalculatorTestSuite struct {
	suite.Suite
	calculator *Calculator
	today      time.Time
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorTestSuite))
}

func (suite *CalculatorTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)

	suite.today = time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)
	suite.calculator = NewCalculator(func() time.Time { return suite.today }, log)
}

func (suite *CalculatorTestSuite) input(direction types.Direction, entry, margin float64, exits string) TradeInput {
	return TradeInput{
		Ticker:    "BTC",
		Entry:     entry,
		Margin:    margin,
		Direction: direction,
		Exits:     exits,
		Date:      optional.None[time.Time](),
	}
}

func (suite *CalculatorTestSuite) TestBuildSegment() {
	trade, err := suite.calculator.Build(suite.input(types.DirectionLong, 100, 2, "105 (100%)"))
	suite.Require().NoError(err)

	suite.Equal("5", trade.NetMovement.String())
	suite.Equal("10.00", trade.PnL.StringFixed(2))
	suite.Equal("BTC (long)\n\n"+
		"Чистое движение: 10.00%\n\n"+
		"ENTRY: 100\n\n"+
		"Маржа: X2\n\n"+
		"Фиксации: 105 (100%)\n\n"+
		"Дата: 09.03.2025", trade.Segment)
}

func (suite *CalculatorTestSuite) TestNetMovement() {
	testCases := []struct {
		name      string
		direction types.Direction
		entry     float64
		exits     string
		expected  string
		legs      int
	}{
		{name: "short full exit", direction: types.DirectionShort, entry: 50, exits: "45 (100%)", expected: "10", legs: 1},
		{name: "long two legs", direction: types.DirectionLong, entry: 100, exits: "105 (50%) 110 (50%)", expected: "7.5", legs: 2},
		{name: "remainder at entry", direction: types.DirectionLong, entry: 100, exits: "110 (50%)", expected: "5", legs: 2},
		{name: "long loss", direction: types.DirectionLong, entry: 100, exits: "90 (100%)", expected: "-10", legs: 1},
		{name: "comma price", direction: types.DirectionLong, entry: 1, exits: "1,5 (100%)", expected: "50", legs: 1},
		{name: "sum within upper tolerance", direction: types.DirectionLong, entry: 100, exits: "110 (60%) 110 (40.05%)", expected: "10.005", legs: 2},
		{name: "sum within lower tolerance", direction: types.DirectionLong, entry: 100, exits: "110 (99.95%)", expected: "9.995", legs: 1},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			trade, err := suite.calculator.Build(suite.input(tc.direction, tc.entry, 1, tc.exits))
			suite.Require().NoError(err)

			suite.True(decimal.RequireFromString(tc.expected).Equal(trade.NetMovement), "got %s", trade.NetMovement)
			suite.Len(trade.Legs, tc.legs)
		})
	}
}

func (suite *CalculatorTestSuite) TestImplicitLeg() {
	trade, err := suite.calculator.Build(suite.input(types.DirectionShort, 200, 1, "180 (30%) 170 (20%)"))
	suite.Require().NoError(err)

	suite.Require().Len(trade.Legs, 3)
	last := trade.Legs[2]
	suite.True(last.Implicit)
	suite.True(last.Price.Equal(decimal.NewFromInt(200)))
	suite.True(last.Percent.Equal(decimal.NewFromInt(50)))
	suite.Equal("6.00", trade.NetMovement.StringFixed(2))
}

func (suite *CalculatorTestSuite) TestLegSumExceeded() {
	testCases := []string{
		"105 (60%) 110 (50%)",
		"105 (100.2%)",
		"101 (50%) 102 (50%) 103 (1%)",
	}

	for _, exits := range testCases {
		_, err := suite.calculator.Build(suite.input(types.DirectionLong, 100, 1, exits))
		suite.Error(err, "exits: %s", exits)
		suite.True(errors.HasCode(err, errors.ErrCodeLegSumExceeded), "exits: %s", exits)
	}
}

func (suite *CalculatorTestSuite) TestInvalidInput() {
	testCases := []struct {
		name  string
		input TradeInput
		code  errors.ErrorCode
	}{
		{name: "empty ticker", input: TradeInput{Ticker: " ", Entry: 1, Margin: 1, Direction: types.DirectionLong, Exits: "1 (100%)"}, code: errors.ErrCodeInvalidParameter},
		{name: "ticker with slash", input: TradeInput{Ticker: "BTC/USDT", Entry: 1, Margin: 1, Direction: types.DirectionLong, Exits: "1 (100%)"}, code: errors.ErrCodeInvalidParameter},
		{name: "zero entry", input: TradeInput{Ticker: "BTC", Entry: 0, Margin: 1, Direction: types.DirectionLong, Exits: "1 (100%)"}, code: errors.ErrCodeInvalidParameter},
		{name: "negative margin", input: TradeInput{Ticker: "BTC", Entry: 1, Margin: -2, Direction: types.DirectionLong, Exits: "1 (100%)"}, code: errors.ErrCodeInvalidParameter},
		{name: "bad direction", input: TradeInput{Ticker: "BTC", Entry: 1, Margin: 1, Direction: "up", Exits: "1 (100%)"}, code: errors.ErrCodeInvalidParameter},
		{name: "no exits", input: TradeInput{Ticker: "BTC", Entry: 1, Margin: 1, Direction: types.DirectionLong, Exits: ""}, code: errors.ErrCodeInvalidParameter},
		{name: "unparsable exits", input: TradeInput{Ticker: "BTC", Entry: 1, Margin: 1, Direction: types.DirectionLong, Exits: "сто процентов"}, code: errors.ErrCodeInvalidExitLegs},
		{name: "broken price", input: TradeInput{Ticker: "BTC", Entry: 1, Margin: 1, Direction: types.DirectionLong, Exits: "1.2.3 (100%)"}, code: errors.ErrCodeInvalidExitLegs},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.calculator.Build(tc.input)
			suite.Error(err)
			suite.Equal(tc.code, errors.GetCode(err))
		})
	}
}

func (suite *CalculatorTestSuite) TestNormalizesTickerAndExits() {
	input := suite.input(types.DirectionLong, 100, 1, "105 (50%)\n 110   (50%)")
	input.Ticker = " eth "
	input.Date = optional.Some(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))

	trade, err := suite.calculator.Build(input)
	suite.Require().NoError(err)

	suite.Equal("ETH", trade.Ticker)
	suite.Equal("105 (50%) 110 (50%)", trade.Exits)
	suite.Contains(trade.Segment, "ETH (long)")
	suite.Contains(trade.Segment, "Дата: 31.12.2024")
}

func (suite *CalculatorTestSuite) TestSegmentParsesAfterAppend() {
	parser := ledger.NewParser(ledgertest.Marker, logger.NewNopLogger())

	first, err := suite.calculator.Build(suite.input(types.DirectionShort, 50, 10, "45 (100%)"))
	suite.Require().NoError(err)

	text, err := ledger.AppendTrade(ledgertest.Sample(), ledgertest.Marker, first.Segment)
	suite.Require().NoError(err)

	second := suite.input(types.DirectionLong, 2.5, 1.25, "2,75 (100%)")
	second.Ticker = "1000PEPE"
	trade, err := suite.calculator.Build(second)
	suite.Require().NoError(err)

	text, err = ledger.AppendTrade(text, ledgertest.Marker, trade.Segment)
	suite.Require().NoError(err)

	_, trades := parser.Parse(text)
	suite.Require().Len(trades, 6)

	suite.Equal("1000PEPE", trades[0].Ticker)
	suite.Equal("X1.25", trades[0].Margin)
	suite.Equal(12.5, trades[0].PnLValue())

	suite.Equal("BTC", trades[1].Ticker)
	suite.Equal(types.DirectionShort, trades[1].Direction)
	suite.Equal(100.0, trades[1].PnLValue())
	suite.Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), trades[1].DateDT)

	suite.Equal("SOL", trades[2].Ticker)
}

func (suite *CalculatorTestSuite) TestParseMargin() {
	testCases := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"x20", "20", true},
		{"X5", "5", true},
		{"1,25", "1.25", true},
		{" x 3.5 ", "3.5", true},
		{"0", "", false},
		{"x-2", "", false},
		{"двадцать", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		margin, err := ParseMargin(tc.input)
		if tc.ok {
			suite.NoError(err, "input: %q", tc.input)
			suite.Equal(tc.expected, margin.String(), "input: %q", tc.input)
		} else {
			suite.Error(err, "input: %q", tc.input)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
		}
	}
}

func (suite *CalculatorTestSuite) TestParsePrice() {
	price, err := ParsePrice("0,0025")
	suite.Require().NoError(err)
	suite.Equal("0.0025", price.String())

	_, err = ParsePrice("-1")
	suite.Error(err)
}

func (suite *CalculatorTestSuite) TestParseExits() {
	legs, err := ParseExits("TP1 105,5 (30%), TP2 110 (70%)")
	suite.Require().NoError(err)

	suite.Require().Len(legs, 2)
	suite.Equal("105.5", legs[0].Price.String())
	suite.Equal("30", legs[0].Percent.String())
	suite.Equal("110", legs[1].Price.String())
	suite.False(legs[1].Implicit)

	_, err = ParseExits("б/у")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidExitLegs))
}
