// Package pricing holds the cart arithmetic: subtotal, discount, shipping, profit and margin.
// Every function works on exact decimals; rounding only happens in Display.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
)

type DiscountMode int

const (
	Fixed DiscountMode = iota
	Percent
)

func (m DiscountMode) String() string {
	if m == Percent {
		return "percent"
	}
	return "fixed"
}

// ParseDiscountMode accepts "fixed" or "percent"; anything else is fixed.
func ParseDiscountMode(s string) DiscountMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percent", "percentage", "%":
		return Percent
	default:
		return Fixed
	}
}

var hundred = decimal.NewFromInt(100)

// Adjustments are the operator-entered discount and shipping expense of a cart.
type Adjustments struct {
	Mode     DiscountMode
	Discount decimal.Decimal
	Shipping decimal.Decimal
}

type Quote struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	GrossProfit decimal.Decimal
	Shipping    decimal.Decimal
	NetProfit   decimal.Decimal
	Margin      decimal.Decimal
}

func Subtotal(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

func GrossProfit(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Margin())
	}
	return sum
}

// DiscountValue converts a raw discount into an amount in [0, subtotal].
func DiscountValue(subtotal decimal.Decimal, mode DiscountMode, raw decimal.Decimal) decimal.Decimal {
	if subtotal.Sign() <= 0 {
		return decimal.Zero
	}
	var v decimal.Decimal
	switch mode {
	case Percent:
		p := clamp(raw, decimal.Zero, hundred)
		v = subtotal.Mul(p).Div(hundred)
	default:
		v = raw
	}
	return clamp(v, decimal.Zero, subtotal)
}

// Margin returns profit/base*100, or zero when base is not positive.
func Margin(profit, base decimal.Decimal) decimal.Decimal {
	if base.Sign() <= 0 {
		return decimal.Zero
	}
	return profit.Div(base).Mul(hundred)
}

func NewQuote(lines []domain.CartLine, adj Adjustments) Quote {
	subtotal := Subtotal(lines)
	discount := DiscountValue(subtotal, adj.Mode, adj.Discount)
	shipping := decimal.Max(adj.Shipping, decimal.Zero)
	total := subtotal.Sub(discount)
	gross := GrossProfit(lines)
	net := gross.Sub(discount).Sub(shipping)
	return Quote{
		Subtotal:    subtotal,
		Discount:    discount,
		Total:       total,
		GrossProfit: gross,
		Shipping:    shipping,
		NetProfit:   net,
		Margin:      Margin(net, total),
	}
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
