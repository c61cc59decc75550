package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"github.com/shopspring/decimal"
)

// Header holds the values rendered into a summary header block.
type Header struct {
	TotalPnL   decimal.Decimal
	Winrate    decimal.Decimal
	TotalDeals int
	Successful int
	Losing     int
	Breakeven  int
	InProgress int
	StartDate  string
	LastUpdate time.Time
	// Footer is an optional free-text line after the dates.
	Footer string
}

// FormatHeader renders h in the nine-field grammar the parser expects.
// The result has no trailing newline.
func FormatHeader(h Header) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Чистое движение: %s%%\n", h.TotalPnL.StringFixed(2))
	fmt.Fprintf(&b, "Винрейт: %s%%\n", h.Winrate.StringFixed(2))
	fmt.Fprintf(&b, "Всего сделок: %d\n", h.TotalDeals)
	fmt.Fprintf(&b, "Успешных: %d\n", h.Successful)
	fmt.Fprintf(&b, "Убыточных: %d\n", h.Losing)
	fmt.Fprintf(&b, "В безубыток: %d\n", h.Breakeven)
	fmt.Fprintf(&b, "В отработке: %d\n\n\n", h.InProgress)
	fmt.Fprintf(&b, "Начало - %s\n", h.StartDate)
	fmt.Fprintf(&b, "Последнее обновление - %s", h.LastUpdate.Format(HeaderDateLayout))

	if h.Footer != "" {
		b.WriteString("\n")
		b.WriteString(h.Footer)
	}

	return b.String()
}

// LocateMarkers returns the byte offset right after the first marker occurrence
// and the offset where the second occurrence starts.
func LocateMarkers(text, marker string) (firstEnd int, secondStart int, ok bool) {
	first := strings.Index(text, marker)
	if first < 0 {
		return 0, 0, false
	}

	firstEnd = first + len(marker)

	second := strings.Index(text[firstEnd:], marker)
	if second < 0 {
		return 0, 0, false
	}

	return firstEnd, firstEnd + second, true
}

// ReplaceHeader swaps the text strictly between the two markers for header.
// Everything outside the markers is preserved byte for byte.
func ReplaceHeader(text, marker, header string) (string, error) {
	firstEnd, secondStart, ok := LocateMarkers(text, marker)
	if !ok {
		return "", errors.New(errors.ErrCodeMalformedDocument, "ledger does not contain two separator markers")
	}

	return text[:firstEnd] + "\n" + header + "\n\n\n" + text[secondStart:], nil
}

// AppendTrade inserts segment right after the second marker line, so the
// newest trade is first in the trades block.
func AppendTrade(text, marker, segment string) (string, error) {
	_, secondStart, ok := LocateMarkers(text, marker)
	if !ok {
		return "", errors.New(errors.ErrCodeMalformedDocument, "ledger does not contain two separator markers")
	}

	insertAt := len(text)
	prefix := "\n"

	if lineEnd := strings.IndexByte(text[secondStart:], '\n'); lineEnd >= 0 {
		insertAt = secondStart + lineEnd + 1
		prefix = ""
	}

	insert := prefix + "\n" + strings.TrimSpace(segment) + "\n\n"

	return text[:insertAt] + insert + text[insertAt:], nil
}

// Template returns a fresh ledger document with an empty header and one example trade.
func Template(marker, footer string, today time.Time) string {
	if marker == "" {
		marker = DefaultMarker
	}

	date := today.Format(HeaderDateLayout)
	header := FormatHeader(Header{
		StartDate:  date,
		LastUpdate: today,
		Footer:     footer,
	})

	var b strings.Builder

	b.WriteString(marker + "\n")
	b.WriteString(header + "\n\n\n\n")
	b.WriteString(marker + "\n\n")
	b.WriteString("ПРИМЕР СДЕЛКИ (long)\n")
	b.WriteString("Чистое движение: 5.00%\n")
	b.WriteString("ENTRY: 100\n")
	b.WriteString("Маржа: X1\n")
	b.WriteString("Фиксации: 105 (100%)\n")
	b.WriteString("Дата: " + today.Format(TradeDateLayout) + "\n")

	return b.String()
}
