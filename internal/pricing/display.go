package pricing

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a presentation value: the amount rounded to the currency fraction and its formatted form.
type Amount struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// Display rounds d to the currency's minor unit and formats it.
func Display(d decimal.Decimal, currency string) Amount {
	cur := *money.New(0, currency).Currency()
	rounded := d.Round(int32(cur.Fraction))
	minor := rounded.Shift(int32(cur.Fraction)).IntPart()
	return Amount{
		Value:   rounded.StringFixed(int32(cur.Fraction)),
		Display: cur.Formatter().Format(minor),
	}
}

// FormatPercent rounds a percentage for display.
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2)
}
