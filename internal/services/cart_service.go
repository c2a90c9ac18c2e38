package services

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"shelfpos/internal/cart"
	"shelfpos/internal/domain"
	"shelfpos/internal/metrics"
	"shelfpos/internal/mirror"
	"shelfpos/internal/pricing"
)

type sessionCart struct {
	cart *cart.Cart
	adj  pricing.Adjustments
}

// CartService keeps one in-memory cart per session. Items are looked up in the
// live mirror, so a cart only ever sees the owner's current catalog.
type CartService struct {
	Mirror  *mirror.Mirror
	Metrics *metrics.Metrics

	mu    sync.Mutex
	carts map[string]*sessionCart
}

func NewCartService(m *mirror.Mirror, met *metrics.Metrics) *CartService {
	return &CartService{Mirror: m, Metrics: met, carts: map[string]*sessionCart{}}
}

func (s *CartService) session(sid string) *sessionCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.carts[sid]
	if !ok {
		sc = &sessionCart{cart: cart.New()}
		s.carts[sid] = sc
	}
	return sc
}

func (s *CartService) Cart(sid string) *cart.Cart { return s.session(sid).cart }

// Add puts one unit of itemID into the session's cart.
func (s *CartService) Add(ctx context.Context, owner, sid, itemID string) error {
	if owner == "" {
		return domain.ErrNoOwner
	}
	if !s.Mirror.Snapshot(owner).Loaded {
		if err := s.Mirror.Refresh(ctx, owner); err != nil {
			return err
		}
	}
	it, ok := s.Mirror.Item(owner, itemID)
	if !ok {
		return domain.ErrNotFound
	}
	if err := s.Cart(sid).Add(it); err != nil {
		s.Metrics.CartRejected()
		return err
	}
	return nil
}

func (s *CartService) Remove(sid, itemID string) { s.Cart(sid).Remove(itemID) }

// Clear empties the cart and resets discount and shipping.
func (s *CartService) Clear(sid string) {
	sc := s.session(sid)
	sc.cart.Clear()
	s.mu.Lock()
	sc.adj = pricing.Adjustments{}
	s.mu.Unlock()
}

// ResetAdjustments puts discount and shipping back to none and keeps the lines.
func (s *CartService) ResetAdjustments(sid string) { s.SetAdjustments(sid, pricing.Adjustments{}) }

// Drop forgets the session entirely, e.g. on logout.
func (s *CartService) Drop(sid string) {
	s.mu.Lock()
	delete(s.carts, sid)
	s.mu.Unlock()
}

func (s *CartService) SetAdjustments(sid string, adj pricing.Adjustments) {
	sc := s.session(sid)
	s.mu.Lock()
	sc.adj = adj
	s.mu.Unlock()
}

func (s *CartService) Adjustments(sid string) pricing.Adjustments {
	sc := s.session(sid)
	s.mu.Lock()
	defer s.mu.Unlock()
	return sc.adj
}

type CartView struct {
	ID          string         `json:"id"`
	Lines       []CartLineView `json:"lines"`
	Units       int            `json:"units"`
	Mode        string         `json:"discountMode"`
	RawDiscount string         `json:"discountInput"`
	Subtotal    pricing.Amount `json:"subtotal"`
	Discount    pricing.Amount `json:"discount"`
	Total       pricing.Amount `json:"total"`
	Shipping    pricing.Amount `json:"shipping"`
	GrossProfit pricing.Amount `json:"grossProfit"`
	NetProfit   pricing.Amount `json:"netProfit"`
	Margin      string         `json:"margin"`
}

type CartLineView struct {
	ItemID    string         `json:"itemId"`
	Name      string         `json:"name"`
	Brand     string         `json:"brand,omitempty"`
	Quantity  int            `json:"quantity"`
	Available int            `json:"available"`
	Price     pricing.Amount `json:"price"`
	Amount    pricing.Amount `json:"amount"`
}

// View prices the cart for display. Available is the on-hand quantity currently in the mirror.
func (s *CartService) View(owner, sid, currency string) CartView {
	sc := s.session(sid)
	lines := sc.cart.Lines()
	adj := s.Adjustments(sid)
	q := pricing.NewQuote(lines, adj)

	snap := s.Mirror.Snapshot(owner)
	v := CartView{
		ID:          sc.cart.ID(),
		Lines:       make([]CartLineView, 0, len(lines)),
		Mode:        adj.Mode.String(),
		RawDiscount: adj.Discount.String(),
		Subtotal:    pricing.Display(q.Subtotal, currency),
		Discount:    pricing.Display(q.Discount, currency),
		Total:       pricing.Display(q.Total, currency),
		Shipping:    pricing.Display(q.Shipping, currency),
		GrossProfit: pricing.Display(q.GrossProfit, currency),
		NetProfit:   pricing.Display(q.NetProfit, currency),
		Margin:      pricing.FormatPercent(q.Margin),
	}
	for _, l := range lines {
		avail := 0
		if it, ok := snap.Item(l.ItemID); ok {
			avail = it.Quantity
		}
		v.Units += l.Quantity
		v.Lines = append(v.Lines, CartLineView{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Brand:     l.BrandName,
			Quantity:  l.Quantity,
			Available: avail,
			Price:     pricing.Display(l.Price, currency),
			Amount:    pricing.Display(l.Amount(), currency),
		})
	}
	return v
}

// ParseAdjustments validates operator-entered discount and shipping strings.
// Empty strings mean zero.
func ParseAdjustments(mode, discount, shipping string) (pricing.Adjustments, error) {
	adj := pricing.Adjustments{Mode: pricing.ParseDiscountMode(mode), Discount: decimal.Zero, Shipping: decimal.Zero}
	var err error
	if adj.Discount, err = optionalMoney(discount); err != nil {
		return pricing.Adjustments{}, err
	}
	if adj.Shipping, err = optionalMoney(shipping); err != nil {
		return pricing.Adjustments{}, err
	}
	return adj, nil
}
