package invoice

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	rupee         = "₹"
	rupeeFallback = "Rs. "
)

// money formats v with two decimals behind the currency symbol, sign first
func money(symbol string, v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-" + symbol + d.Abs().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format("02 Jan 2006")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
