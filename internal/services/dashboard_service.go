package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"shelfpos/internal/analytics"
	"shelfpos/internal/domain"
	"shelfpos/internal/mirror"
	"shelfpos/internal/port"
	"shelfpos/internal/pricing"
)

// DashboardService assembles the analytics view-models. Amounts are rounded only here.
type DashboardService struct {
	Sales    port.SaleHistory
	Mirror   *mirror.Mirror
	Location *time.Location
	Currency string
	Now      func() time.Time
}

func NewDashboardService(sales port.SaleHistory, m *mirror.Mirror, loc *time.Location, currency string) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{Sales: sales, Mirror: m, Location: loc, Currency: currency, Now: time.Now}
}

type Dashboard struct {
	Period   string         `json:"period"`
	Loaded   bool           `json:"loaded"`
	Totals   TotalsView     `json:"totals"`
	Chart    []BucketView   `json:"chart"`
	Forecast ForecastView   `json:"forecast"`
	Brands   []RankView     `json:"topBrands"`
	Products []RankView     `json:"topProducts"`
	Advice   []TipView      `json:"advice"`
	Stock    StockView      `json:"stock"`
	Currency string         `json:"currency"`
	Sales    int            `json:"salesCount"`
	Recent   []SaleListView `json:"recent,omitempty"`
}

type TotalsView struct {
	Gross  pricing.Amount `json:"gross"`
	Profit pricing.Amount `json:"profit"`
	Margin string         `json:"margin"`
	Count  int            `json:"count"`
}

type BucketView struct {
	Key    string         `json:"day"`
	Sales  pricing.Amount `json:"sales"`
	Profit pricing.Amount `json:"profit"`
	Count  int            `json:"count"`
}

type ForecastView struct {
	DailyAverage  pricing.Amount `json:"dailyAverage"`
	NextMonth     pricing.Amount `json:"nextMonth"`
	Days          int            `json:"days"`
	LowConfidence bool           `json:"lowConfidence"`
	Message       string         `json:"message"`
}

type RankView struct {
	Name   string         `json:"name"`
	Units  int            `json:"units"`
	Profit pricing.Amount `json:"profit"`
}

type TipView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StockView struct {
	Alerts    []AlertView    `json:"alerts"`
	TotalCost pricing.Amount `json:"totalCost"`
}

type AlertView struct {
	ItemID    string         `json:"itemId"`
	Name      string         `json:"name"`
	Brand     string         `json:"brand,omitempty"`
	Quantity  int            `json:"quantity"`
	Threshold int            `json:"threshold"`
	Units     int            `json:"units"`
	Cost      pricing.Amount `json:"cost"`
}

type SaleListView struct {
	ID     string         `json:"id"`
	Date   time.Time      `json:"date"`
	Units  int            `json:"units"`
	Total  pricing.Amount `json:"total"`
	Profit pricing.Amount `json:"profit"`
}

// Build computes every dashboard panel for owner. Totals and advice follow the
// period filter; chart, forecast and rankings always use the full history.
func (s *DashboardService) Build(ctx context.Context, owner string, p analytics.Period) (Dashboard, error) {
	records, err := s.records(ctx, owner)
	if err != nil {
		return Dashboard{}, err
	}
	stock, err := s.StockReport(ctx, owner)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.Now().In(s.Location)
	totals := analytics.Summarize(records, p, now)

	d := Dashboard{
		Period:   p.String(),
		Loaded:   s.Mirror.Snapshot(owner).Loaded,
		Totals:   s.totalsView(totals),
		Chart:    []BucketView{},
		Forecast: s.forecastView(analytics.NewForecast(records, now)),
		Advice:   []TipView{},
		Stock:    s.stockView(stock),
		Currency: s.Currency,
		Sales:    len(records),
	}
	for _, b := range analytics.DailyChart(records, s.Location) {
		d.Chart = append(d.Chart, BucketView{Key: b.Key, Sales: s.amount(b.Sales), Profit: s.amount(b.Profit), Count: b.Count})
	}
	r := analytics.NewRankings(records)
	d.Brands = s.rankViews(r.Brands)
	d.Products = s.rankViews(r.Products)
	for _, tip := range analytics.Advice(totals, len(records)) {
		d.Advice = append(d.Advice, TipView{Code: tip.Code, Message: tip.Message})
	}
	for i, rec := range records {
		if i == 5 {
			break
		}
		d.Recent = append(d.Recent, s.SaleView(rec))
	}
	return d, nil
}

// StockReport evaluates low-stock alerts on the owner's current catalog. A
// catalog that cannot be loaded is an error, not an empty report.
func (s *DashboardService) StockReport(ctx context.Context, owner string) (analytics.StockReport, error) {
	if owner == "" {
		return analytics.EvaluateStock(nil), nil
	}
	snap := s.Mirror.Snapshot(owner)
	if !snap.Loaded {
		if err := s.Mirror.Refresh(ctx, owner); err != nil {
			return analytics.StockReport{}, err
		}
		snap = s.Mirror.Snapshot(owner)
	}
	return analytics.EvaluateStock(snap.Items), nil
}

func (s *DashboardService) Alerts(ctx context.Context, owner string) (StockView, error) {
	rep, err := s.StockReport(ctx, owner)
	if err != nil {
		return StockView{}, err
	}
	return s.stockView(rep), nil
}

// Rankings over the full history, for the workbook export.
func (s *DashboardService) Rankings(ctx context.Context, owner string) (analytics.Rankings, error) {
	records, err := s.records(ctx, owner)
	if err != nil {
		return analytics.Rankings{}, err
	}
	return analytics.NewRankings(records), nil
}

func (s *DashboardService) SaleView(rec domain.SaleRecord) SaleListView {
	return SaleListView{
		ID:     rec.ID,
		Date:   rec.Date.In(s.Location),
		Units:  rec.Units(),
		Total:  s.amount(rec.Total),
		Profit: s.amount(rec.Profit),
	}
}

func (s *DashboardService) records(ctx context.Context, owner string) ([]domain.SaleRecord, error) {
	if owner == "" {
		return nil, nil
	}
	return s.Sales.ListByOwner(ctx, owner)
}

func (s *DashboardService) amount(v decimal.Decimal) pricing.Amount {
	return pricing.Display(v, s.Currency)
}

func (s *DashboardService) totalsView(t analytics.Totals) TotalsView {
	return TotalsView{Gross: s.amount(t.Gross), Profit: s.amount(t.Profit), Margin: pricing.FormatPercent(t.Margin), Count: t.Count}
}

func (s *DashboardService) forecastView(f analytics.Forecast) ForecastView {
	return ForecastView{
		DailyAverage:  s.amount(f.DailyAverage),
		NextMonth:     s.amount(f.NextMonth),
		Days:          f.Days,
		LowConfidence: f.LowConfidence,
		Message:       f.Message,
	}
}

func (s *DashboardService) rankViews(in []analytics.Rank) []RankView {
	out := make([]RankView, 0, len(in))
	for _, r := range in {
		out = append(out, RankView{Name: r.Name, Units: r.Units, Profit: s.amount(r.Profit)})
	}
	return out
}

func (s *DashboardService) stockView(rep analytics.StockReport) StockView {
	v := StockView{Alerts: make([]AlertView, 0, len(rep.Alerts)), TotalCost: s.amount(rep.TotalCost)}
	for _, a := range rep.Alerts {
		v.Alerts = append(v.Alerts, AlertView{
			ItemID:    a.ItemID,
			Name:      a.Name,
			Brand:     a.Brand,
			Quantity:  a.Quantity,
			Threshold: a.Threshold,
			Units:     a.Units,
			Cost:      s.amount(a.Cost),
		})
	}
	return v
}

type SaleDetailView struct {
	SaleListView
	Lines    []SaleLineView `json:"lines"`
	Subtotal pricing.Amount `json:"subtotal"`
	Discount pricing.Amount `json:"discount"`
	Shipping pricing.Amount `json:"shipping"`
}

type SaleLineView struct {
	ItemID   string         `json:"itemId"`
	Name     string         `json:"name"`
	Brand    string         `json:"brand,omitempty"`
	Quantity int            `json:"quantity"`
	Price    pricing.Amount `json:"price"`
	Cost     pricing.Amount `json:"cost"`
	Amount   pricing.Amount `json:"amount"`
}

func (s *DashboardService) SaleDetail(rec domain.SaleRecord) SaleDetailView {
	v := SaleDetailView{
		SaleListView: s.SaleView(rec),
		Lines:        make([]SaleLineView, 0, len(rec.Lines)),
		Subtotal:     s.amount(rec.Subtotal),
		Discount:     s.amount(rec.Discount),
		Shipping:     s.amount(rec.Shipping),
	}
	for _, l := range rec.Lines {
		v.Lines = append(v.Lines, SaleLineView{
			ItemID:   l.ItemID,
			Name:     l.Name,
			Brand:    l.BrandName,
			Quantity: l.Quantity,
			Price:    s.amount(l.Price),
			Cost:     s.amount(l.Cost),
			Amount:   s.amount(l.Amount()),
		})
	}
	return v
}
