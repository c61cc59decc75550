package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-ledger/internal/ledger/ledgertest"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/rxtech-lab/argo-ledger/mocks"
	"github.com/stretchr/testify/suite"
)

type ParserTestSuite struct {
	suite.Suite
	parser *Parser
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}

func (suite *ParserTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.parser = NewParser(ledgertest.Marker, log)
}

func (suite *ParserTestSuite) TestParseSample() {
	summary, trades := suite.parser.Parse(ledgertest.Sample())

	suite.Equal(types.SummaryRecord{
		TotalPnL:   "7.50%",
		Winrate:    "50.00%",
		TotalDeals: "4",
		Successful: "1",
		Losing:     "1",
		Breakeven:  "1",
		InProgress: "1",
		StartDate:  "01.01.25",
		LastUpdate: "03.01.25",
	}, summary)

	suite.Require().Len(trades, 4)

	suite.Equal("SOL", trades[0].Ticker)
	suite.Equal(types.DirectionShort, trades[0].Direction)
	suite.True(trades[0].IsInProgress())
	suite.Equal(0.0, trades[0].PnLValue())
	suite.Equal(0, trades[0].OriginalIndex)

	suite.Equal("ETH", trades[1].Ticker)
	suite.Equal(-2.5, trades[1].PnLValue())
	suite.Equal("-2.50%", trades[1].PnL)
	suite.Equal("51 (100%)", trades[1].Exits)
	suite.Equal("100", trades[1].Entry)
	suite.Equal("X1", trades[1].Margin)
	suite.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), trades[1].DateDT)

	suite.Equal("BTC", trades[2].Ticker)
	suite.Equal(types.DirectionLong, trades[2].Direction)
	suite.Equal(10.0, trades[2].PnLValue())
	suite.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), trades[2].DateDT)
	suite.Equal(2, trades[2].OriginalIndex)

	suite.Equal("XRP", trades[3].Ticker)
	suite.Equal(0.0, trades[3].PnLValue())
	suite.False(trades[3].IsInProgress())
	suite.Equal(3, trades[3].OriginalIndex)
}

func (suite *ParserTestSuite) TestParseTotality() {
	segments := []string{
		ledgertest.Segment("BTC", "long", "1%", "101 (100%)", "01.02.2025"),
		ledgertest.Segment("ETH", "short", "-1%", "51 (100%)", "02.02.2025"),
		ledgertest.Segment("1000PEPE", "long", "3%", "1 (100%)", "3.2.25"),
		ledgertest.Segment("DOGE", "short", "", "в отработке", "04.02.2025"),
		ledgertest.Segment("ADA", "long", "0%", "б/у", "05.02.2025"),
	}

	_, trades := suite.parser.Parse(ledgertest.Document(ledgertest.Header, segments...))

	suite.Require().Len(trades, len(segments))

	for i, trade := range trades {
		suite.NotEmpty(trade.Ticker)
		suite.True(trade.Direction.IsValid())
		suite.True(trade.HasDate())
		suite.Equal(i, trade.OriginalIndex)
	}
}

func (suite *ParserTestSuite) TestGeneratedLedgers() {
	for _, seed := range []int64{1, 42, 2024} {
		config := mocks.DefaultConfig()
		config.Count = 300

		generated := mocks.NewDataGenerator(seed).Generate(config)
		summary, trades := suite.parser.Parse(generated.Text)

		suite.False(summary.IsEmpty(), "seed %d", seed)
		suite.Require().Len(trades, len(generated.Trades), "seed %d", seed)

		// The document lists trades newest first.
		for i, trade := range trades {
			source := generated.Trades[len(generated.Trades)-1-i]
			suite.Equal(source.Ticker, trade.Ticker)
			suite.Equal(source.Date, trade.DateDT)
			suite.Equal(source.InProgress, trade.IsInProgress())
			suite.InDelta(source.PnL, trade.PnLValue(), 1e-9)
		}
	}
}

func (suite *ParserTestSuite) TestMissingSecondMarker() {
	text := ledgertest.Marker + "\n" + ledgertest.Header + "\n\n" + ledgertest.Segment("BTC", "long", "5%", "105 (100%)", "01.01.2025")

	summary, trades := suite.parser.Parse(text)

	suite.True(summary.IsEmpty())
	suite.Empty(trades)
}

func (suite *ParserTestSuite) TestNoMarkers() {
	summary, trades := suite.parser.Parse("just some text\nwithout markers\n")

	suite.True(summary.IsEmpty())
	suite.Empty(trades)
}

func (suite *ParserTestSuite) TestBrokenSummaryStillParsesTrades() {
	header := strings.Replace(ledgertest.Header, "Винрейт", "Winrate", 1)
	text := ledgertest.Document(header,
		ledgertest.Segment("BTC", "long", "5%", "105 (100%)", "01.01.2025"),
	)

	summary, trades := suite.parser.Parse(text)

	suite.True(summary.IsEmpty())
	suite.Require().Len(trades, 1)
	suite.Equal("BTC", trades[0].Ticker)
}

func (suite *ParserTestSuite) TestSummaryGrammarVariants() {
	testCases := []struct {
		name    string
		header  string
		matches bool
	}{
		{
			name:    "indented lines",
			header:  strings.ReplaceAll(ledgertest.Header, "\n", "\n  "),
			matches: true,
		},
		{
			name:    "no blank line before dates",
			header:  strings.Replace(ledgertest.Header, "\n\n\nНачало", "\nНачало", 1),
			matches: true,
		},
		{
			name:    "blank line inside counts",
			header:  strings.Replace(ledgertest.Header, "Успешных", "\nУспешных", 1),
			matches: true,
		},
		{
			name:    "blank line after net movement",
			header:  strings.Replace(ledgertest.Header, "Винрейт", "\nВинрейт", 1),
			matches: true,
		},
		{
			name:    "blank lines between every field",
			header:  strings.ReplaceAll(ledgertest.Header, "\n", "\n\n"),
			matches: true,
		},
		{
			name:    "unrelated line inside header",
			header:  strings.Replace(ledgertest.Header, "Успешных", "комментарий\nУспешных", 1),
			matches: false,
		},
		{
			name:    "fields out of order",
			header:  strings.Replace(strings.Replace(ledgertest.Header, "Успешных: 1", "TMP", 1), "Убыточных: 1", "Успешных: 1", 1),
			matches: false,
		},
		{
			name:    "preamble before header",
			header:  "Итоги месяца\n\n" + ledgertest.Header,
			matches: true,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			summary, _ := suite.parser.Parse(ledgertest.Document(tc.header))
			suite.Equal(tc.matches, !summary.IsEmpty())
			if tc.matches {
				suite.Equal("7.50%", summary.TotalPnL)
				suite.Equal("03.01.25", summary.LastUpdate)
			}
		})
	}
}

func (suite *ParserTestSuite) TestSegmentWithoutHeaderIsSkipped() {
	text := ledgertest.Document(ledgertest.Header,
		"Заметка без тикера\nДата: 01.01.2025\n",
		ledgertest.Segment("BTC", "long", "5%", "105 (100%)", "02.01.2025"),
	)

	_, trades := suite.parser.Parse(text)

	suite.Require().Len(trades, 1)
	suite.Equal("BTC", trades[0].Ticker)
	suite.Equal(1, trades[0].OriginalIndex)
}

func (suite *ParserTestSuite) TestSegmentWithBadDateIsSkipped() {
	text := ledgertest.Document(ledgertest.Header,
		ledgertest.Segment("BTC", "long", "5%", "105 (100%)", "2025-01-01"),
		ledgertest.Segment("ETH", "long", "5%", "105 (100%)", ""),
		ledgertest.Segment("SOL", "long", "5%", "105 (100%)", "01.01.2025"),
	)

	_, trades := suite.parser.Parse(text)

	suite.Require().Len(trades, 1)
	suite.Equal("SOL", trades[0].Ticker)
	suite.Equal(2, trades[0].OriginalIndex)
}

func (suite *ParserTestSuite) TestUnparsablePnLDefaultsToZero() {
	text := ledgertest.Document(ledgertest.Header,
		ledgertest.Segment("BTC", "long", "около пяти%", "105 (100%)", "01.01.2025"),
		ledgertest.Segment("ETH", "long", "NaN", "105 (100%)", "01.01.2025"),
	)

	_, trades := suite.parser.Parse(text)

	suite.Require().Len(trades, 2)
	suite.Equal(0.0, trades[0].PnLValue())
	suite.Equal("около пяти%", trades[0].PnL)
	suite.Equal(0.0, trades[1].PnLValue())
}

func (suite *ParserTestSuite) TestInProgressIgnoresPnL() {
	text := ledgertest.Document(ledgertest.Header,
		ledgertest.Segment("BTC", "long", "12%", "110 (50%) В ОТРАБОТКЕ", "01.01.2025"),
	)

	_, trades := suite.parser.Parse(text)

	suite.Require().Len(trades, 1)
	suite.True(trades[0].IsInProgress())
	suite.Equal(0.0, trades[0].PnLValue())
	suite.Equal("12%", trades[0].PnL)
}

func (suite *ParserTestSuite) TestSegmentWithBlankLinesBetweenFields() {
	segment := "BTC (long)\n\nЧистое движение: 4.00%\n\nENTRY: 100\n\nМаржа: X2\n\nФиксации: 102 (100%)\n\nДата: 01.01.2025\n"
	text := ledgertest.Document(ledgertest.Header,
		segment,
		ledgertest.Segment("ETH", "short", "1%", "99 (100%)", "02.01.2025"),
	)

	_, trades := suite.parser.Parse(text)

	suite.Require().Len(trades, 2)
	suite.Equal("BTC", trades[0].Ticker)
	suite.Equal(4.0, trades[0].PnLValue())
	suite.Equal("X2", trades[0].Margin)
	suite.Equal("ETH", trades[1].Ticker)
}

func (suite *ParserTestSuite) TestLowercaseTickerDoesNotStartSegment() {
	text := ledgertest.Document(ledgertest.Header,
		ledgertest.Segment("BTC", "long", "4%", "104 (100%)", "01.01.2025"),
		ledgertest.Segment("eth", "short", "1%", "99 (100%)", "02.01.2025"),
	)

	_, trades := suite.parser.Parse(text)

	suite.Require().Len(trades, 1)
	suite.Equal("BTC", trades[0].Ticker)
	// The lowercase block merged into BTC, so its later fields win.
	suite.Equal(1.0, trades[0].PnLValue())
	suite.Equal("02.01.2025", trades[0].Date)
}

func (suite *ParserTestSuite) TestCRLFDocument() {
	text := strings.ReplaceAll(ledgertest.Sample(), "\n", "\r\n")

	summary, trades := suite.parser.Parse(text)

	suite.False(summary.IsEmpty())
	suite.Equal("03.01.25", summary.LastUpdate)
	suite.Len(trades, 4)
}

func (suite *ParserTestSuite) TestDefaultMarker() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)

	parser := NewParser("", log)
	suite.Equal(DefaultMarker, parser.Marker())
}

func (suite *ParserTestSuite) TestParseDate() {
	testCases := []struct {
		input    string
		expected time.Time
		ok       bool
	}{
		{"01.01.2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"1.2.2025", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"15.03.25", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{" 15.03.25 ", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"31.02.2025", time.Time{}, false},
		{"2025-01-01", time.Time{}, false},
		{"01.01.225", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tc := range testCases {
		result, err := ParseDate(tc.input)
		if tc.ok {
			suite.NoError(err, "input: %q", tc.input)
			suite.Equal(tc.expected, result, "input: %q", tc.input)
		} else {
			suite.Error(err, "input: %q", tc.input)
		}
	}
}

func (suite *ParserTestSuite) TestParsePercent() {
	testCases := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"5.25%", 5.25, true},
		{"-3%", -3, true},
		{" 0 % ", 0, true},
		{"+1.5", 1.5, true},
		{"abc", 0, false},
		{"Inf%", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		value, ok := ParsePercent(tc.input)
		suite.Equal(tc.ok, ok, "input: %q", tc.input)
		suite.Equal(tc.expected, value, "input: %q", tc.input)
	}
}
