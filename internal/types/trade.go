package types

import (
	"time"
)

// Direction is the side of a trade.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// IsValid reports whether d is long or short.
func (d Direction) IsValid() bool {
	return d == DirectionLong || d == DirectionShort
}

// TradeOutcome is either Completed or InProgress.
// The interface is sealed so a switch over the two variants is exhaustive.
type TradeOutcome interface {
	isTradeOutcome()
}

// Completed is a closed trade with a realized percentage result.
type Completed struct {
	// PnLValue is the numeric net movement in percent. 0 when the text was unparsable.
	PnLValue float64
}

// InProgress is an open trade whose exit legs are not yet realized.
type InProgress struct{}

func (Completed) isTradeOutcome()  {}
func (InProgress) isTradeOutcome() {}

// TradeRecord is a single trade segment of the ledger.
type TradeRecord struct {
	Ticker    string    `yaml:"ticker" json:"ticker"`
	Direction Direction `yaml:"direction" json:"direction"`
	Entry     string    `yaml:"entry" json:"entry"`
	Margin    string    `yaml:"margin" json:"margin"`
	// Exits is the free-text description of exit legs.
	Exits string `yaml:"exits" json:"exits"`
	// Date is the literal date text, DateDT its parsed calendar date (UTC midnight).
	Date   string    `yaml:"date" json:"date"`
	DateDT time.Time `yaml:"date_dt" json:"date_dt"`
	// PnL is the literal net movement text.
	PnL     string       `yaml:"pnl" json:"pnl"`
	Outcome TradeOutcome `yaml:"-" json:"-"`
	// OriginalIndex is the position of the segment inside the trades block.
	OriginalIndex int `yaml:"original_index" json:"original_index"`
}

// IsInProgress reports whether the trade is still open.
func (t TradeRecord) IsInProgress() bool {
	_, ok := t.Outcome.(InProgress)
	return ok
}

// PnLValue returns the realized percentage, or 0 for open trades.
func (t TradeRecord) PnLValue() float64 {
	switch o := t.Outcome.(type) {
	case Completed:
		return o.PnLValue
	case InProgress:
		return 0
	default:
		return 0
	}
}

// HasDate reports whether the calendar date was resolved.
func (t TradeRecord) HasDate() bool {
	return !t.DateDT.IsZero()
}
