package ledger

import (
	"fmt"
	"strings"
	"time"
)

// DateLayouts are the accepted trade date layouts, tried in order.
// Day and month may be one or two digits; the year is four digits, then two.
var DateLayouts = []string{"2.1.2006", "2.1.06"}

const (
	// TradeDateLayout is used when writing a trade segment date.
	TradeDateLayout = "02.01.2006"
	// HeaderDateLayout is used when writing summary header dates.
	HeaderDateLayout = "02.01.06"
)

// ParseDate parses s with the first matching layout of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("date %q matches none of %v", s, DateLayouts)
}
