package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
	"shelfpos/internal/pricing"
)

type Totals struct {
	Gross  decimal.Decimal
	Profit decimal.Decimal
	Margin decimal.Decimal
	Count  int
}

// Filter keeps the records dated at or after the start of p.
func Filter(records []domain.SaleRecord, p Period, now time.Time) []domain.SaleRecord {
	start, ok := PeriodStart(p, now)
	if !ok {
		return records
	}
	out := make([]domain.SaleRecord, 0, len(records))
	for _, r := range records {
		if !r.Date.Before(start) {
			out = append(out, r)
		}
	}
	return out
}

func Summarize(records []domain.SaleRecord, p Period, now time.Time) Totals {
	t := Totals{Gross: decimal.Zero, Profit: decimal.Zero}
	for _, r := range Filter(records, p, now) {
		t.Gross = t.Gross.Add(r.Total)
		t.Profit = t.Profit.Add(r.Profit)
		t.Count++
	}
	t.Margin = pricing.Margin(t.Profit, t.Gross)
	return t
}
