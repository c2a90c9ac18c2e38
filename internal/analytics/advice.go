package analytics

import "github.com/shopspring/decimal"

type Tip struct {
	Code    string
	Message string
}

var (
	tipOnboarding = Tip{"onboarding", "Start by adding items to your catalog and recording sales."}
	tipLowMargin  = Tip{"low_margin", "Your profit margin is low (under 20%). Review your costs or raise your prices."}
	tipGoodMargin = Tip{"healthy_margin", "Great profit margin! Keep it up."}
	tipGrowth     = Tip{"growth", "You are growing! Consider investing in new products."}

	lowMargin   = decimal.NewFromInt(20)
	goodMargin  = decimal.NewFromInt(50)
	growthFloor = decimal.NewFromInt(1000)
	growthCeil  = decimal.NewFromInt(5000)
)

// Advice evaluates the fixed rule list against the period totals. With no records at
// all only the onboarding tip is returned.
func Advice(t Totals, recordCount int) []Tip {
	if recordCount == 0 {
		return []Tip{tipOnboarding}
	}
	var tips []Tip
	if t.Margin.LessThan(lowMargin) {
		tips = append(tips, tipLowMargin)
	}
	if t.Margin.GreaterThan(goodMargin) {
		tips = append(tips, tipGoodMargin)
	}
	if t.Profit.GreaterThan(growthFloor) && t.Profit.LessThan(growthCeil) {
		tips = append(tips, tipGrowth)
	}
	return tips
}
