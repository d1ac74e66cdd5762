// Package format renders amounts and timestamps for display.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout matches the en-US short form, e.g. "Oct 15, 2026, 09:30 AM".
const DateLayout = "Jan 2, 2006, 03:04 PM"

// Currency formats an amount as US dollars with two decimals and thousands
// separators: 300000 → "$300,000.00", -5 → "-$5.00".
func Currency(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

// Date formats t in loc (UTC when nil) using DateLayout.
func Date(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// Signed prefixes the formatted amount with "+" for credits and "-" for debits.
func Signed(amount decimal.Decimal, credit bool) string {
	if credit {
		return "+" + Currency(amount)
	}
	return "-" + Currency(amount)
}
