package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
)

const (
	// forecasts from fewer records than this are flagged as unreliable
	minForecastRecords = 5
	forecastHorizon    = 30

	msgLowConfidence = "Not enough data for an accurate forecast."
	msgForecast      = "Based on the current daily average."
)

type Forecast struct {
	DailyAverage  decimal.Decimal
	NextMonth     decimal.Decimal
	Days          int
	LowConfidence bool
	Message       string
}

// NewForecast projects the next 30 days of profit from the all-time daily average.
// Days counts whole days since the earliest record, rounded up, and is at least 1.
func NewForecast(records []domain.SaleRecord, now time.Time) Forecast {
	f := Forecast{DailyAverage: decimal.Zero, NextMonth: decimal.Zero, Message: msgForecast}
	if len(records) < minForecastRecords {
		f.LowConfidence = true
		f.Message = msgLowConfidence
	}
	if len(records) == 0 {
		return f
	}

	first := records[0].Date
	total := decimal.Zero
	for _, r := range records {
		if r.Date.Before(first) {
			first = r.Date
		}
		total = total.Add(r.Profit)
	}
	days := int(math.Ceil(now.Sub(first).Hours() / 24))
	if days < 1 {
		days = 1
	}
	f.Days = days
	f.DailyAverage = total.Div(decimal.NewFromInt(int64(days)))
	f.NextMonth = f.DailyAverage.Mul(decimal.NewFromInt(forecastHorizon))
	return f
}
