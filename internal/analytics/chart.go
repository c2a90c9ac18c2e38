package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
)

// chartDays is how many daily buckets the chart keeps.
const chartDays = 30

// Bucket is one calendar day of the sales chart. Days are keyed without the year.
type Bucket struct {
	Key    string
	Month  time.Month
	Day    int
	Sales  decimal.Decimal
	Profit decimal.Decimal
	Count  int
}

// DailyChart rolls the whole history up per day/month in loc, ordered by month then
// day, and keeps the last 30 buckets.
func DailyChart(records []domain.SaleRecord, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}
	byKey := map[string]*Bucket{}
	for _, r := range records {
		d := r.Date.In(loc)
		key := fmt.Sprintf("%02d/%02d", d.Day(), int(d.Month()))
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key, Month: d.Month(), Day: d.Day(), Sales: decimal.Zero, Profit: decimal.Zero}
			byKey[key] = b
		}
		b.Sales = b.Sales.Add(r.Total)
		b.Profit = b.Profit.Add(r.Profit)
		b.Count++
	}

	out := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Day < out[j].Day
	})
	if len(out) > chartDays {
		out = out[len(out)-chartDays:]
	}
	return out
}
