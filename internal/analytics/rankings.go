package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
)

const (
	rankingSize = 5
	Unbranded   = "Unbranded"
)

type Rank struct {
	Name   string
	Units  int
	Profit decimal.Decimal
}

type Rankings struct {
	Brands   []Rank // by units sold
	Products []Rank // by profit contribution
}

// NewRankings accumulates every sold line across records. Products are keyed by the
// name snapshotted at sale time. Ties sort by name.
func NewRankings(records []domain.SaleRecord) Rankings {
	brands := map[string]*Rank{}
	products := map[string]*Rank{}
	for _, r := range records {
		for _, l := range r.Lines {
			brand := strings.TrimSpace(l.BrandName)
			if brand == "" {
				brand = Unbranded
			}
			b := rank(brands, brand)
			b.Units += l.Quantity
			b.Profit = b.Profit.Add(l.Margin())

			p := rank(products, l.Name)
			p.Units += l.Quantity
			p.Profit = p.Profit.Add(l.Margin())
		}
	}
	return Rankings{
		Brands: top(brands, func(a, b Rank) int { return a.Units - b.Units }),
		Products: top(products, func(a, b Rank) int {
			return a.Profit.Cmp(b.Profit)
		}),
	}
}

func rank(m map[string]*Rank, name string) *Rank {
	r, ok := m[name]
	if !ok {
		r = &Rank{Name: name, Profit: decimal.Zero}
		m[name] = r
	}
	return r
}

// top sorts descending by cmp, then by name, and keeps rankingSize entries.
func top(m map[string]*Rank, cmp func(a, b Rank) int) []Rank {
	out := make([]Rank, 0, len(m))
	for _, r := range m {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := cmp(out[i], out[j]); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > rankingSize {
		out = out[:rankingSize]
	}
	return out
}
