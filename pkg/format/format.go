// Package format renders amounts and dates for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mkamanzi/loanbook/pkg/models"
)

// Amount renders a decimal as whole currency units with thousands separators:
// 130000 -> "130,000".
func Amount(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

// Date renders a calendar date as ISO "YYYY-MM-DD", empty string for the zero
// date.
func Date(d models.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
