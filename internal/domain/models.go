package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID                string          `db:"id" json:"id"`
	Owner             string          `db:"owner" json:"-"`
	Name              string          `db:"name" json:"name"`
	Price             decimal.Decimal `db:"price" json:"price"`
	Cost              decimal.Decimal `db:"cost" json:"cost"`
	Quantity          int             `db:"quantity" json:"quantity"`
	BrandName         *string         `db:"brand_name" json:"brandName,omitempty"`
	LowStockThreshold *int            `db:"low_stock_threshold" json:"lowStockThreshold,omitempty"`
	Version           int64           `db:"version" json:"version"`
	CreatedAt         int64           `db:"created_at" json:"-"`
	UpdatedAt         int64           `db:"updated_at" json:"-"`
}

// Brand returns the brand name or "" when the item is unbranded.
func (it Item) Brand() string {
	if it.BrandName == nil {
		return ""
	}
	return *it.BrandName
}

type Brand struct {
	ID        string `db:"id" json:"id"`
	Owner     string `db:"owner" json:"-"`
	Name      string `db:"name" json:"name"`
	CreatedAt int64  `db:"created_at" json:"-"`
}

// CartLine is an item as it was known when added to a cart, plus the requested quantity.
type CartLine struct {
	ItemID    string          `db:"item_id" json:"itemId"`
	Name      string          `db:"name" json:"name"`
	BrandName string          `db:"brand_name" json:"brandName,omitempty"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Cost      decimal.Decimal `db:"cost" json:"cost"`
	Quantity  int             `db:"quantity" json:"quantity"`
}

func (l CartLine) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) Margin() decimal.Decimal {
	return l.Price.Sub(l.Cost).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SaleRecord is a committed checkout. Date is assigned by the store.
type SaleRecord struct {
	ID       string          `json:"id"`
	Owner    string          `json:"-"`
	Date     time.Time       `json:"date"`
	Lines    []CartLine      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Profit   decimal.Decimal `json:"profit"`
}

func (s SaleRecord) Units() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
