package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
	applog "shelfpos/internal/log"
	"shelfpos/internal/mirror"
	"shelfpos/internal/pricing"
	"shelfpos/internal/repos"
	"shelfpos/internal/validate"
)

// CatalogService manages items and brands. Every write refreshes the mirror.
type CatalogService struct {
	Items  *repos.ItemRepo
	Brands *repos.BrandRepo
	Mirror *mirror.Mirror
}

func NewCatalogService(items *repos.ItemRepo, brands *repos.BrandRepo, m *mirror.Mirror) *CatalogService {
	return &CatalogService{Items: items, Brands: brands, Mirror: m}
}

// ItemInput is an item form as typed by the operator.
type ItemInput struct {
	Name      string `json:"name" form:"name"`
	Price     string `json:"price" form:"price"`
	Cost      string `json:"cost" form:"cost"`
	Quantity  string `json:"quantity" form:"quantity"`
	Brand     string `json:"brand" form:"brand"`
	Threshold string `json:"threshold" form:"threshold"`
}

func (in ItemInput) parse() (domain.Item, error) {
	name, ok := validate.Name(in.Name)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: name", domain.ErrInvalidInput)
	}
	price, ok := validate.Money(in.Price)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: price", domain.ErrInvalidNumber)
	}
	cost, ok := validate.Money(in.Cost)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: cost", domain.ErrInvalidNumber)
	}
	qty := 0
	if strings.TrimSpace(in.Quantity) != "" {
		if qty, ok = validate.Quantity(in.Quantity); !ok {
			return domain.Item{}, fmt.Errorf("%w: quantity", domain.ErrInvalidNumber)
		}
	}
	threshold, ok := validate.Threshold(in.Threshold)
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: threshold", domain.ErrInvalidNumber)
	}
	it := domain.Item{Name: name, Price: price, Cost: cost, Quantity: qty, LowStockThreshold: threshold}
	if b := strings.TrimSpace(in.Brand); b != "" {
		it.BrandName = &b
	}
	return it, nil
}

func optionalMoney(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, ok := validate.Money(s)
	if !ok {
		return decimal.Zero, domain.ErrInvalidNumber
	}
	return d, nil
}

func (s *CatalogService) CreateItem(ctx context.Context, owner string, in ItemInput) (*domain.Item, error) {
	if owner == "" {
		return nil, domain.ErrNoOwner
	}
	it, err := in.parse()
	if err != nil {
		return nil, err
	}
	it.ID = uuid.NewString()
	it.Owner = owner
	if err := s.Items.Create(ctx, &it); err != nil {
		return nil, err
	}
	s.refresh(ctx, owner)
	return &it, nil
}

const updateAttempts = 3

// UpdateItem applies an edit form. A blank quantity keeps the stored one; the
// edit is retried on a fresh read if a sale or correction lands in between.
func (s *CatalogService) UpdateItem(ctx context.Context, owner, id string, in ItemInput) (*domain.Item, error) {
	if owner == "" {
		return nil, domain.ErrNoOwner
	}
	it, err := in.parse()
	if err != nil {
		return nil, err
	}
	keepQty := strings.TrimSpace(in.Quantity) == ""
	for attempt := 1; attempt <= updateAttempts; attempt++ {
		cur, err := s.Items.Get(ctx, owner, id)
		if err != nil {
			return nil, err
		}
		if keepQty {
			it.Quantity = cur.Quantity
		}
		it.ID, it.Owner, it.CreatedAt, it.Version = cur.ID, owner, cur.CreatedAt, cur.Version
		err = s.Items.Update(ctx, &it)
		if err == nil {
			s.refresh(ctx, owner)
			return &it, nil
		}
		if !errors.Is(err, repos.ErrConflict) {
			return nil, err
		}
		applog.Warn(nil, "item.update.conflict", map[string]any{"owner": owner, "item": id, "attempt": attempt})
	}
	return nil, domain.ErrItemChanged
}

func (s *CatalogService) DeleteItem(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrNoOwner
	}
	if err := s.Items.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.refresh(ctx, owner)
	return nil
}

// SetQuantity is an operator stock correction.
func (s *CatalogService) SetQuantity(ctx context.Context, owner, id, raw string) error {
	if owner == "" {
		return domain.ErrNoOwner
	}
	qty, ok := validate.Quantity(raw)
	if !ok {
		return domain.ErrInvalidNumber
	}
	if err := s.Items.SetQuantity(ctx, owner, id, qty); err != nil {
		return err
	}
	s.refresh(ctx, owner)
	return nil
}

// SetThreshold sets the low-stock threshold; an empty value clears it.
func (s *CatalogService) SetThreshold(ctx context.Context, owner, id, raw string) error {
	if owner == "" {
		return domain.ErrNoOwner
	}
	th, ok := validate.Threshold(raw)
	if !ok {
		return domain.ErrInvalidNumber
	}
	if err := s.Items.SetThreshold(ctx, owner, id, th); err != nil {
		return err
	}
	s.refresh(ctx, owner)
	return nil
}

func (s *CatalogService) CreateBrand(ctx context.Context, owner, name string) (*domain.Brand, error) {
	if owner == "" {
		return nil, domain.ErrNoOwner
	}
	n, ok := validate.Name(name)
	if !ok {
		return nil, fmt.Errorf("%w: brand name", domain.ErrInvalidInput)
	}
	b := &domain.Brand{ID: uuid.NewString(), Owner: owner, Name: n}
	if err := s.Brands.Create(ctx, b); err != nil {
		return nil, err
	}
	s.refresh(ctx, owner)
	return b, nil
}

// DeleteBrand removes the brand only; items keep the name they carry.
func (s *CatalogService) DeleteBrand(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrNoOwner
	}
	if err := s.Brands.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.refresh(ctx, owner)
	return nil
}

// Snapshot returns the owner's catalog, loading it on first use.
func (s *CatalogService) Snapshot(ctx context.Context, owner string) mirror.Snapshot {
	snap := s.Mirror.Snapshot(owner)
	if owner != "" && !snap.Loaded {
		s.refresh(ctx, owner)
		snap = s.Mirror.Snapshot(owner)
	}
	return snap
}

func (s *CatalogService) refresh(ctx context.Context, owner string) {
	if err := s.Mirror.Refresh(ctx, owner); err != nil {
		applog.Error(nil, "mirror.refresh", err, map[string]any{"owner": owner})
	}
}

type CatalogView struct {
	Loaded bool        `json:"loaded"`
	Items  []ItemView  `json:"items"`
	Brands []BrandView `json:"brands"`
}

type ItemView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Brand      string         `json:"brand,omitempty"`
	Price      pricing.Amount `json:"price"`
	Cost       pricing.Amount `json:"cost"`
	UnitProfit pricing.Amount `json:"unitProfit"`
	Margin     string         `json:"margin"`
	Quantity   int            `json:"quantity"`
	Threshold  *int           `json:"lowStockThreshold,omitempty"`
	LowStock   bool           `json:"lowStock"`
	Version    int64          `json:"version"`
}

type BrandView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewCatalogView(snap mirror.Snapshot, currency string) CatalogView {
	v := CatalogView{Loaded: snap.Loaded, Items: make([]ItemView, 0, len(snap.Items)), Brands: make([]BrandView, 0, len(snap.Brands))}
	for _, it := range snap.Items {
		v.Items = append(v.Items, NewItemView(it, currency))
	}
	for _, b := range snap.Brands {
		v.Brands = append(v.Brands, BrandView{ID: b.ID, Name: b.Name})
	}
	return v
}

// NewItemView shows the profit of selling one unit and its margin on the price.
func NewItemView(it domain.Item, currency string) ItemView {
	profit := it.Price.Sub(it.Cost)
	return ItemView{
		ID:         it.ID,
		Name:       it.Name,
		Brand:      it.Brand(),
		Price:      pricing.Display(it.Price, currency),
		Cost:       pricing.Display(it.Cost, currency),
		UnitProfit: pricing.Display(profit, currency),
		Margin:     pricing.FormatPercent(pricing.Margin(profit, it.Price)),
		Quantity:   it.Quantity,
		Threshold:  it.LowStockThreshold,
		LowStock:   it.LowStockThreshold != nil && it.Quantity <= *it.LowStockThreshold,
		Version:    it.Version,
	}
}
