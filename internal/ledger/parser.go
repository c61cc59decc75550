package ledger

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"go.uber.org/zap"
)

// DefaultMarker is the separator line content delimiting the summary block.
const DefaultMarker = "--- Статистика: Илья Власов - Грабитель ММ ---"

// inProgressMarker in the exits text marks a trade as open.
const inProgressMarker = "в отработке"

var (
	// segmentStart is the one-line lookahead that opens a new trade segment after a blank line.
	segmentStart = regexp.MustCompile(`^[A-Z0-9]+\s+\((?:long|short)\)`)
	// segmentHeader extracts ticker and direction from the first line of a segment.
	segmentHeader = regexp.MustCompile(`^(.+?)\s+\((long|short)\)`)
)

// tradeKeys maps lowercased segment keys to trade fields.
var tradeKeys = map[string]string{
	"чистое движение": "pnl",
	"entry":           "entry",
	"маржа":           "margin",
	"фиксации":        "exits",
	"дата":            "date",
}

type summaryRule struct {
	label string
	sep   string
}

// summaryGrammar is the nine-field header, in order.
// Blank lines may appear between any two fields.
var summaryGrammar = []summaryRule{
	{label: "Чистое движение", sep: ":"},
	{label: "Винрейт", sep: ":"},
	{label: "Всего сделок", sep: ":"},
	{label: "Успешных", sep: ":"},
	{label: "Убыточных", sep: ":"},
	{label: "В безубыток", sep: ":"},
	{label: "В отработке", sep: ":"},
	{label: "Начало", sep: "-"},
	{label: "Последнее обновление", sep: "-"},
}

type parseState int

const (
	stateSeekFirstMarker parseState = iota
	stateSeekSecondMarker
	stateInTradesBody
)

// Parser turns ledger text into a summary record and trade records.
// It never fails: malformed parts are logged and skipped.
type Parser struct {
	marker string
	logger *logger.Logger
}

// NewParser creates a parser for documents delimited by marker.
// An empty marker selects DefaultMarker.
func NewParser(marker string, log *logger.Logger) *Parser {
	if marker == "" {
		marker = DefaultMarker
	}

	return &Parser{
		marker: marker,
		logger: log,
	}
}

// Marker returns the separator marker this parser looks for.
func (p *Parser) Marker() string {
	return p.marker
}

// Parse parses a ledger document.
// With fewer than two marker lines it returns an empty summary and no trades.
// A summary block that does not match the header grammar yields an empty summary,
// while trades are still parsed.
func (p *Parser) Parse(text string) (types.SummaryRecord, []types.TradeRecord) {
	var summaryLines, bodyLines []string

	state := stateSeekFirstMarker
	for _, line := range splitLines(text) {
		switch state {
		case stateSeekFirstMarker:
			if strings.Contains(line, p.marker) {
				state = stateSeekSecondMarker
			}
		case stateSeekSecondMarker:
			if strings.Contains(line, p.marker) {
				state = stateInTradesBody
				continue
			}
			summaryLines = append(summaryLines, line)
		case stateInTradesBody:
			bodyLines = append(bodyLines, line)
		}
	}

	if state != stateInTradesBody {
		p.logger.Error("Malformed ledger document: separator markers not found",
			zap.Int("code", int(errors.ErrCodeMalformedDocument)),
			zap.String("marker", p.marker),
		)

		return types.SummaryRecord{}, []types.TradeRecord{}
	}

	summary, ok := parseSummary(summaryLines)
	if !ok {
		p.logger.Error("Malformed ledger document: summary header does not match",
			zap.Int("code", int(errors.ErrCodeMalformedDocument)),
			zap.Int("summary_lines", len(summaryLines)),
		)
	}

	trades := p.parseTrades(bodyLines)

	p.logger.Debug("Ledger parsed",
		zap.Bool("summary", ok),
		zap.Int("trades", len(trades)),
	)

	return summary, trades
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

// parseSummary finds the first position where the whole header grammar matches.
func parseSummary(lines []string) (types.SummaryRecord, bool) {
	for start := range lines {
		values, ok := matchSummaryAt(lines, start)
		if !ok {
			continue
		}

		return types.SummaryRecord{
			TotalPnL:   values[0],
			Winrate:    values[1],
			TotalDeals: values[2],
			Successful: values[3],
			Losing:     values[4],
			Breakeven:  values[5],
			InProgress: values[6],
			StartDate:  values[7],
			LastUpdate: values[8],
		}, true
	}

	return types.SummaryRecord{}, false
}

func matchSummaryAt(lines []string, start int) ([]string, bool) {
	values := make([]string, 0, len(summaryGrammar))

	i := start
	for n, rule := range summaryGrammar {
		if n > 0 {
			for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
				i++
			}
		}

		if i >= len(lines) {
			return nil, false
		}

		value, ok := matchRule(lines[i], rule)
		if !ok {
			return nil, false
		}

		values = append(values, value)
		i++
	}

	return values, true
}

func matchRule(line string, rule summaryRule) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), rule.label)
	if !ok {
		return "", false
	}

	rest, ok = strings.CutPrefix(strings.TrimLeft(rest, " \t"), rule.sep)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(rest), true
}

// splitSegments cuts the trades body at blank lines followed by a segment start line.
func splitSegments(body []string) [][]string {
	var (
		segments [][]string
		current  []string
		sawBlank bool
	)

	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				sawBlank = true
			}

			continue
		}

		if sawBlank && segmentStart.MatchString(line) {
			segments = append(segments, current)
			current = nil
		}

		sawBlank = false
		current = append(current, strings.TrimSpace(line))
	}

	if len(current) > 0 {
		segments = append(segments, current)
	}

	return segments
}

func (p *Parser) parseTrades(body []string) []types.TradeRecord {
	segments := splitSegments(body)
	trades := make([]types.TradeRecord, 0, len(segments))

	for i, segment := range segments {
		trade, err := p.parseSegment(i, segment)
		if err != nil {
			p.logger.Warn("Skipping trade segment", zap.Error(err))
			continue
		}

		trades = append(trades, trade)
	}

	return trades
}

func (p *Parser) parseSegment(index int, lines []string) (types.TradeRecord, error) {
	match := segmentHeader.FindStringSubmatch(lines[0])
	if match == nil {
		return types.TradeRecord{}, errors.NewSegmentError(index, lines[0], "header does not match <TICKER> (long|short)")
	}

	trade := types.TradeRecord{
		Ticker:        match[1],
		Direction:     types.Direction(match[2]),
		OriginalIndex: index,
	}

	inProgress := false
	hasPnL := false

	for _, line := range lines[1:] {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch tradeKeys[key] {
		case "pnl":
			trade.PnL = value
			hasPnL = true
		case "entry":
			trade.Entry = value
		case "margin":
			trade.Margin = value
		case "exits":
			trade.Exits = value
			if strings.Contains(strings.ToLower(value), inProgressMarker) {
				inProgress = true
			}
		case "date":
			trade.Date = value
		}
	}

	if trade.Date == "" {
		return types.TradeRecord{}, errors.NewSegmentError(index, lines[0], "missing date")
	}

	date, err := ParseDate(trade.Date)
	if err != nil {
		return types.TradeRecord{}, errors.NewSegmentError(index, lines[0], err.Error())
	}

	trade.DateDT = date

	switch {
	case inProgress:
		trade.Outcome = types.InProgress{}
	case hasPnL:
		trade.Outcome = types.Completed{PnLValue: p.coercePercent(index, trade.PnL)}
	default:
		trade.Outcome = types.Completed{PnLValue: 0}
	}

	return trade, nil
}

// coercePercent parses "5.25%" style values, falling back to 0.
func (p *Parser) coercePercent(index int, text string) float64 {
	value, ok := ParsePercent(text)
	if !ok {
		p.logger.Warn("Unparsable net movement, using 0",
			zap.Int("code", int(errors.ErrCodeNumericCoercion)),
			zap.Int("segment", index),
			zap.String("value", text),
		)
	}

	return value
}

// ParsePercent parses a percentage text such as "-3.5%" into -3.5.
// Non-finite or unparsable values return 0 and false.
func ParsePercent(text string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(text, "%", "")), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}

	return value, true
}
