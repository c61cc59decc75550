// Package ledgertest builds ledger documents for tests.
package ledgertest

import (
	"fmt"
	"strings"
)

// Marker is the separator used by fixture documents.
const Marker = "--- Статистика: Тест ---"

// Header is a consistent summary header for Sample.
const Header = `Чистое движение: 7.50%
Винрейт: 50.00%
Всего сделок: 4
Успешных: 1
Убыточных: 1
В безубыток: 1
В отработке: 1


Начало - 01.01.25
Последнее обновление - 03.01.25
Если нашли ошибку = t.me/admin`

// Segment renders a trade segment. An empty pnl omits the net movement line.
func Segment(ticker, direction, pnl, exits, date string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s)\n", ticker, direction)

	if pnl != "" {
		fmt.Fprintf(&b, "Чистое движение: %s\n", pnl)
	}

	b.WriteString("ENTRY: 100\n")
	b.WriteString("Маржа: X1\n")
	fmt.Fprintf(&b, "Фиксации: %s\n", exits)

	if date != "" {
		fmt.Fprintf(&b, "Дата: %s\n", date)
	}

	return b.String()
}

// Document assembles a ledger from a header block and trade segments.
func Document(header string, segments ...string) string {
	var b strings.Builder

	b.WriteString("Шапка канала\n")
	b.WriteString(Marker + "\n")
	b.WriteString(header + "\n\n\n\n")
	b.WriteString(Marker + "\n\n")
	b.WriteString(strings.Join(segments, "\n"))

	return b.String()
}

// Sample is a four-trade ledger whose header matches its trades.
// Segment order: SOL (open), ETH (-2.5), BTC (+10), XRP (0).
func Sample() string {
	return Document(Header,
		Segment("SOL", "short", "", "в отработке", "03.01.2025"),
		Segment("ETH", "short", "-2.50%", "51 (100%)", "02.01.2025"),
		Segment("BTC", "long", "10.00%", "105 (100%)", "01.01.25"),
		Segment("XRP", "long", "0%", "б/у", "01.01.2025"),
	)
}
