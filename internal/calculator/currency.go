package calculator

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatCurrency renders whole dollars with thousands separators, e.g. "$12,345".
func FormatCurrency(v float64) string {
	r := Round(v)
	if r < 0 {
		return "-$" + humanize.Comma(int64(-r))
	}
	return "$" + humanize.Comma(int64(r))
}

// FormatMultiple renders a ratio such as 3.4x.
func FormatMultiple(v float64) string {
	return humanize.FtoaWithDigits(math.Round(v*10)/10, 1) + "x"
}

// Round rounds half away from zero to the nearest whole number.
func Round(v float64) float64 { return math.Round(v) }
