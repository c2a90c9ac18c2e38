// Package report exports the replenishment list and sales rankings as an xlsx workbook.
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"shelfpos/internal/analytics"
)

const (
	stockSheet   = "Replenishment"
	rankingSheet = "Top sellers"
)

// StockWorkbook writes one sheet with every flagged item and the total cost, and a
// second one with the brand and product rankings.
func StockWorkbook(w io.Writer, rep analytics.StockReport, rank analytics.Rankings, currency string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(first, stockSheet); err != nil {
		return err
	}

	header := []any{"Item", "Brand", "On hand", "Threshold", "Units to order", "Unit cost (" + currency + ")", "Cost (" + currency + ")"}
	if err := f.SetSheetRow(stockSheet, "A1", &header); err != nil {
		return fmt.Errorf("stock header: %w", err)
	}
	row := 2
	for _, a := range rep.Alerts {
		r := []any{a.Name, a.Brand, a.Quantity, a.Threshold, a.Units, money(a.UnitCost), money(a.Cost)}
		if err := setRow(f, stockSheet, row, r); err != nil {
			return err
		}
		row++
	}
	total := []any{"Total", "", "", "", "", "", money(rep.TotalCost)}
	if err := setRow(f, stockSheet, row, total); err != nil {
		return err
	}

	if _, err := f.NewSheet(rankingSheet); err != nil {
		return err
	}
	header = []any{"Brand", "Units sold", "", "Product", "Units sold", "Profit (" + currency + ")"}
	if err := f.SetSheetRow(rankingSheet, "A1", &header); err != nil {
		return fmt.Errorf("ranking header: %w", err)
	}
	for i := 0; i < max(len(rank.Brands), len(rank.Products)); i++ {
		r := make([]any, 6)
		if i < len(rank.Brands) {
			r[0], r[1] = rank.Brands[i].Name, rank.Brands[i].Units
		}
		if i < len(rank.Products) {
			p := rank.Products[i]
			r[3], r[4], r[5] = p.Name, p.Units, money(p.Profit)
		}
		if err := setRow(f, rankingSheet, i+2, r); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
