package handlers

import (
	"time"

	"shelfpos/internal/config"
	"shelfpos/internal/metrics"
	"shelfpos/internal/mirror"
	"shelfpos/internal/port"
	"shelfpos/internal/repos"
	"shelfpos/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth    *services.AuthService
	Mirror  *mirror.Mirror
	Metrics *metrics.Metrics

	AuthHandler      *AuthHandler
	ItemHandler      *ItemHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	DashboardHandler *DashboardHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, guard port.Guard, met *metrics.Metrics) *Deps {
	userRepo := repos.NewUserRepo(db)
	itemRepo := repos.NewItemRepo(db)
	brandRepo := repos.NewBrandRepo(db)
	saleRepo := repos.NewSaleRepo(db)
	store := repos.NewStore(db, repos.NewClock(time.Now))

	m := mirror.New(store, met)
	authSvc := &services.AuthService{Users: userRepo}
	catalogSvc := services.NewCatalogService(itemRepo, brandRepo, m)
	cartSvc := services.NewCartService(m, met)
	checkoutSvc := services.NewCheckoutService(store, guard, m, met, cfg.CheckoutAttempts)
	salesSvc := services.NewSalesService(saleRepo)
	dashSvc := services.NewDashboardService(saleRepo, m, cfg.Location(), cfg.Currency)

	return &Deps{
		Auth:    authSvc,
		Mirror:  m,
		Metrics: met,

		AuthHandler:      &AuthHandler{Auth: authSvc, Carts: cartSvc},
		ItemHandler:      &ItemHandler{Catalog: catalogSvc, Currency: cfg.Currency},
		InventoryHandler: &InventoryHandler{Catalog: catalogSvc, Dashboard: dashSvc, Currency: cfg.Currency},
		CartHandler:      &CartHandler{Cart: cartSvc, Currency: cfg.Currency},
		OrderHandler:     &OrderHandler{Cart: cartSvc, Checkout: checkoutSvc, Sales: salesSvc, Dashboard: dashSvc},
		DashboardHandler: &DashboardHandler{Dashboard: dashSvc, Carts: cartSvc, Currency: cfg.Currency},
	}
}
