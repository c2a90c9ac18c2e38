package analytics

import (
	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
)

type StockAlert struct {
	ItemID    string
	Name      string
	Brand     string
	Quantity  int
	Threshold int
	Units     int
	UnitCost  decimal.Decimal
	Cost      decimal.Decimal
}

type StockReport struct {
	Alerts    []StockAlert
	TotalCost decimal.Decimal
}

// EvaluateStock flags items at or below their threshold and prices the units needed
// to get back to one above it. Items without a threshold are never flagged.
func EvaluateStock(items []domain.Item) StockReport {
	rep := StockReport{TotalCost: decimal.Zero}
	for _, it := range items {
		if it.LowStockThreshold == nil || it.Quantity > *it.LowStockThreshold {
			continue
		}
		th := *it.LowStockThreshold
		units := th - it.Quantity + 1
		if units < 0 {
			units = 0
		}
		cost := it.Cost.Mul(decimal.NewFromInt(int64(units)))
		rep.Alerts = append(rep.Alerts, StockAlert{
			ItemID:    it.ID,
			Name:      it.Name,
			Brand:     it.Brand(),
			Quantity:  it.Quantity,
			Threshold: th,
			Units:     units,
			UnitCost:  it.Cost,
			Cost:      cost,
		})
		rep.TotalCost = rep.TotalCost.Add(cost)
	}
	return rep
}
