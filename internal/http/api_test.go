package handlers_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/xuri/excelize/v2"
)

type amountResp struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

type itemResp struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Brand     string     `json:"brand"`
	Price     amountResp `json:"price"`
	Profit    amountResp `json:"unitProfit"`
	Margin    string     `json:"margin"`
	Quantity  int        `json:"quantity"`
	Threshold *int       `json:"lowStockThreshold"`
	LowStock  bool       `json:"lowStock"`
	Version   int64      `json:"version"`
}

type catalogResp struct {
	Loaded bool       `json:"loaded"`
	Items  []itemResp `json:"items"`
	Brands []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"brands"`
}

type cartResp struct {
	Lines []struct {
		ItemID    string `json:"itemId"`
		Quantity  int    `json:"quantity"`
		Available int    `json:"available"`
	} `json:"lines"`
	Units     int        `json:"units"`
	Subtotal  amountResp `json:"subtotal"`
	Discount  amountResp `json:"discount"`
	Total     amountResp `json:"total"`
	NetProfit amountResp `json:"netProfit"`
}

type saleResp struct {
	ID    string     `json:"id"`
	Units int        `json:"units"`
	Total amountResp `json:"total"`
	Lines []struct {
		ItemID   string `json:"itemId"`
		Quantity int    `json:"quantity"`
	} `json:"lines"`
}

type dashboardResp struct {
	Period string `json:"period"`
	Totals struct {
		Gross  amountResp `json:"gross"`
		Profit amountResp `json:"profit"`
		Count  int        `json:"count"`
	} `json:"totals"`
	Advice []struct {
		Code string `json:"code"`
	} `json:"advice"`
	Stock struct {
		Alerts []struct {
			ItemID string `json:"itemId"`
			Units  int    `json:"units"`
		} `json:"alerts"`
	} `json:"stock"`
	Sales int `json:"salesCount"`
}

func findItem(t *testing.T, cat catalogResp, id string) itemResp {
	t.Helper()
	for _, it := range cat.Items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("item %s not in catalog", id)
	return itemResp{}
}

func TestCheckoutFlow(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	resp := c.send(http.MethodPost, "/api/items", map[string]any{
		"name": "Oat Milk", "price": "2.50", "cost": "1.50", "quantity": 2, "brand": "Oatly", "lowStockThreshold": 1,
	})
	expectStatus(t, resp, http.StatusCreated)
	it := decode[itemResp](t, resp)
	if it.Version != 1 || it.Brand != "Oatly" || it.Price.Value != "2.50" {
		t.Fatalf("unexpected item: %+v", it)
	}

	for i := 0; i < 2; i++ {
		expectStatus(t, c.send(http.MethodPost, "/api/cart/items", map[string]any{"itemId": it.ID}), http.StatusOK)
	}
	over := c.send(http.MethodPost, "/api/cart/items", map[string]any{"itemId": it.ID})
	expectStatus(t, over, http.StatusConflict)
	body := decode[map[string]any](t, over)
	if body["available"] != float64(2) {
		t.Fatalf("expected available=2, got %v", body)
	}

	resp = c.send(http.MethodPut, "/api/cart/adjustments", map[string]any{"discountMode": "percent", "discount": "10", "shipping": 1})
	expectStatus(t, resp, http.StatusOK)
	cart := decode[cartResp](t, resp)
	if cart.Units != 2 || cart.Subtotal.Value != "5.00" || cart.Discount.Value != "0.50" || cart.Total.Value != "4.50" || cart.NetProfit.Value != "0.50" {
		t.Fatalf("unexpected cart: %+v", cart)
	}

	var sale saleResp
	entries := captureLogs(t, func() {
		resp = c.send(http.MethodPost, "/api/checkout", nil)
		expectStatus(t, resp, http.StatusCreated)
		sale = decode[saleResp](t, resp)
	})
	if sale.Units != 2 || sale.Total.Value != "4.50" || len(sale.Lines) != 1 {
		t.Fatalf("unexpected sale: %+v", sale)
	}
	if e, ok := findLog(entries, "checkout.commit"); !ok || e.Owner != operatorEmail {
		t.Fatalf("expected checkout.commit audit for owner, got %+v", e)
	}

	cart = decode[cartResp](t, c.send(http.MethodGet, "/api/cart", nil))
	if cart.Units != 0 || cart.Discount.Value != "0.00" {
		t.Fatalf("cart not reset after checkout: %+v", cart)
	}

	cat := decode[catalogResp](t, c.send(http.MethodGet, "/api/catalog", nil))
	got := findItem(t, cat, it.ID)
	if got.Quantity != 0 || !got.LowStock {
		t.Fatalf("stock not decremented: %+v", got)
	}

	dash := decode[dashboardResp](t, c.send(http.MethodGet, "/api/dashboard?period=daily", nil))
	if dash.Period != "daily" || dash.Sales != 1 || dash.Totals.Count != 1 || dash.Totals.Gross.Value != "4.50" || dash.Totals.Profit.Value != "0.50" {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}
	if len(dash.Stock.Alerts) != 1 || dash.Stock.Alerts[0].Units != 2 {
		t.Fatalf("expected one replenishment alert of 2 units, got %+v", dash.Stock.Alerts)
	}

	detail := decode[saleResp](t, c.send(http.MethodGet, "/api/sales/"+sale.ID, nil))
	if detail.ID != sale.ID || detail.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	expectStatus(t, c.send(http.MethodDelete, "/api/sales/"+sale.ID, nil), http.StatusNoContent)
	expectStatus(t, c.send(http.MethodGet, "/api/sales/"+sale.ID, nil), http.StatusNotFound)

	cat = decode[catalogResp](t, c.send(http.MethodGet, "/api/catalog", nil))
	if q := findItem(t, cat, it.ID).Quantity; q != 0 {
		t.Fatalf("deleting a sale must not restock, quantity=%d", q)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()
	expectStatus(t, c.send(http.MethodPost, "/api/checkout", nil), http.StatusBadRequest)
}

func TestCatalogEditing(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	expectStatus(t, c.send(http.MethodPost, "/api/brands", map[string]any{"name": "Acme"}), http.StatusCreated)
	expectStatus(t, c.send(http.MethodPost, "/api/brands", map[string]any{"name": "acme"}), http.StatusConflict)

	it := decode[itemResp](t, c.send(http.MethodPost, "/api/items", map[string]any{
		"name": "Widget", "price": "3,25", "cost": "1", "quantity": "7",
	}))
	if it.Price.Value != "3.25" || it.Quantity != 7 {
		t.Fatalf("unexpected item: %+v", it)
	}

	resp := c.send(http.MethodPut, "/api/items/"+it.ID, map[string]any{"name": "Widget XL", "price": "4", "cost": "1.5", "brand": "Acme"})
	expectStatus(t, resp, http.StatusOK)
	upd := decode[itemResp](t, resp)
	if upd.Name != "Widget XL" || upd.Quantity != 7 || upd.Brand != "Acme" || upd.Version != 2 {
		t.Fatalf("unexpected update: %+v", upd)
	}

	expectStatus(t, c.send(http.MethodPut, "/api/items/"+it.ID+"/quantity", map[string]any{"quantity": 12}), http.StatusNoContent)
	expectStatus(t, c.send(http.MethodPut, "/api/items/"+it.ID+"/threshold", map[string]any{"lowStockThreshold": 20}), http.StatusNoContent)
	expectStatus(t, c.send(http.MethodPut, "/api/items/"+it.ID+"/quantity", map[string]any{"quantity": "-1"}), http.StatusBadRequest)

	alerts := decode[struct {
		Alerts []struct {
			ItemID string `json:"itemId"`
			Units  int    `json:"units"`
		} `json:"alerts"`
		TotalCost amountResp `json:"totalCost"`
	}](t, c.send(http.MethodGet, "/api/alerts", nil))
	if len(alerts.Alerts) != 1 || alerts.Alerts[0].Units != 9 || alerts.TotalCost.Value != "13.50" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}

	resp = c.send(http.MethodGet, "/api/reports/stock.xlsx", nil)
	expectStatus(t, resp, http.StatusOK)
	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Replenishment")
	if err != nil || len(rows) < 2 {
		t.Fatalf("replenishment sheet: rows=%v err=%v", rows, err)
	}

	expectStatus(t, c.send(http.MethodDelete, "/api/items/"+it.ID, nil), http.StatusNoContent)
	expectStatus(t, c.send(http.MethodDelete, "/api/items/"+it.ID, nil), http.StatusNotFound)
}

func TestCatalogBrandFilterAndUnitProfit(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	expectStatus(t, c.send(http.MethodPost, "/api/brands", map[string]any{"name": "Oatly"}), http.StatusCreated)
	expectStatus(t, c.send(http.MethodPost, "/api/items", map[string]any{
		"name": "Oat Milk", "price": "2.50", "cost": "1.50", "quantity": 4, "brand": "Oatly",
	}), http.StatusCreated)
	expectStatus(t, c.send(http.MethodPost, "/api/items", map[string]any{
		"name": "Bread", "price": "3", "cost": "1", "quantity": 4,
	}), http.StatusCreated)

	cat := decode[catalogResp](t, c.send(http.MethodGet, "/api/catalog?brand=oatly", nil))
	if len(cat.Items) != 1 || cat.Items[0].Name != "Oat Milk" {
		t.Fatalf("brand filter: %+v", cat.Items)
	}
	if got := cat.Items[0]; got.Profit.Value != "1.00" || got.Margin != "40.00" {
		t.Fatalf("unexpected unit profit: %+v", got)
	}
	if len(cat.Brands) != 1 {
		t.Fatalf("brands should stay listed: %+v", cat.Brands)
	}
	if cat = decode[catalogResp](t, c.send(http.MethodGet, "/api/catalog", nil)); len(cat.Items) != 2 {
		t.Fatalf("unfiltered catalog: %+v", cat.Items)
	}
}

func TestCartRemoveTakesOneUnit(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()

	it := decode[itemResp](t, c.send(http.MethodPost, "/api/items", map[string]any{
		"name": "Bread", "price": "3", "cost": "1", "quantity": 4,
	}))
	for i := 0; i < 2; i++ {
		expectStatus(t, c.send(http.MethodPost, "/api/cart/items", map[string]any{"itemId": it.ID}), http.StatusOK)
	}
	cart := decode[cartResp](t, c.send(http.MethodDelete, "/api/cart/items/"+it.ID, nil))
	if cart.Units != 1 || len(cart.Lines) != 1 {
		t.Fatalf("want one unit left, got %+v", cart)
	}
	cart = decode[cartResp](t, c.send(http.MethodDelete, "/api/cart/items/"+it.ID, nil))
	if cart.Units != 0 || len(cart.Lines) != 0 {
		t.Fatalf("line should be dropped at zero, got %+v", cart)
	}
}

func TestAnonymousReadsAreEmpty(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app)

	cat := decode[catalogResp](t, c.send(http.MethodGet, "/api/catalog", nil))
	if cat.Loaded || len(cat.Items) != 0 {
		t.Fatalf("anonymous catalog should be empty: %+v", cat)
	}
	sales := decode[struct {
		Sales []saleResp `json:"sales"`
	}](t, c.send(http.MethodGet, "/api/sales", nil))
	if len(sales.Sales) != 0 {
		t.Fatalf("anonymous sales should be empty: %+v", sales)
	}
	dash := decode[dashboardResp](t, c.send(http.MethodGet, "/api/dashboard", nil))
	if dash.Sales != 0 || len(dash.Advice) != 1 || dash.Advice[0].Code != "onboarding" {
		t.Fatalf("unexpected anonymous dashboard: %+v", dash)
	}
}

func TestDashboardRejectsUnknownPeriod(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := newClient(t, app).mustLogin()
	resp := c.send(http.MethodGet, "/api/dashboard?period=fortnight", nil)
	expectStatus(t, resp, http.StatusBadRequest)

	page := c.do(httpGet("/"))
	expectStatus(t, page, http.StatusOK)
	b, _ := io.ReadAll(page.Body)
	if len(b) == 0 {
		t.Fatal("empty dashboard page")
	}
}
