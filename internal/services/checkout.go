package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shelfpos/internal/cart"
	"shelfpos/internal/domain"
	applog "shelfpos/internal/log"
	"shelfpos/internal/metrics"
	"shelfpos/internal/mirror"
	"shelfpos/internal/port"
	"shelfpos/internal/pricing"
	"shelfpos/internal/repos"
)

const (
	defaultAttempts = 5
	checkoutTimeout = 15 * time.Second
)

// CheckoutService turns a cart into a sale record while decrementing stock
// exactly once per unit sold.
type CheckoutService struct {
	Store   port.Store
	Guard   port.Guard
	Mirror  *mirror.Mirror
	Metrics *metrics.Metrics

	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
}

func NewCheckoutService(store port.Store, guard port.Guard, m *mirror.Mirror, met *metrics.Metrics, attempts int) *CheckoutService {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	return &CheckoutService{
		Store:    store,
		Guard:    guard,
		Mirror:   m,
		Metrics:  met,
		Attempts: attempts,
		Backoff:  20 * time.Millisecond,
		Timeout:  checkoutTimeout,
	}
}

// Checkout commits the cart as one sale. Once submitted it runs to completion even
// if ctx is cancelled. On success the sold units leave the cart; on any failure it is left as is.
func (s *CheckoutService) Checkout(ctx context.Context, owner string, c *cart.Cart, adj pricing.Adjustments) (*domain.SaleRecord, error) {
	started := time.Now()
	if owner == "" {
		return nil, domain.ErrNoOwner
	}
	if c.LineCount() == 0 {
		return nil, domain.ErrEmptyCart
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout())
	defer cancel()

	key := "checkout:" + c.ID()
	ok, err := s.Guard.Acquire(ctx, key)
	if err != nil {
		s.Metrics.Checkout("error", started)
		return nil, fmt.Errorf("%w: %w", domain.ErrCheckoutFailed, err)
	}
	if !ok {
		s.Metrics.Checkout("in_flight", started)
		return nil, domain.ErrCheckoutInFlight
	}
	defer func() {
		if err := s.Guard.Release(context.WithoutCancel(ctx), key); err != nil {
			applog.Error(nil, "checkout.guard.release", err, map[string]any{"owner": owner, "cart": c.ID()})
		}
	}()

	lines := c.Lines()
	quote := pricing.NewQuote(lines, adj)

	var lastErr error
	for attempt := 1; attempt <= s.Attempts; attempt++ {
		rec, stale, err := s.attempt(ctx, owner, lines, quote)
		if err == nil {
			c.Subtract(lines)
			s.committed(ctx, owner, rec, stale, attempt, started)
			return rec, nil
		}

		var capErr *domain.CapacityError
		if errors.As(err, &capErr) {
			s.Metrics.Checkout("capacity", started)
			applog.Warn(nil, "checkout.capacity", map[string]any{"owner": owner, "item": capErr.ItemID, "available": capErr.Available})
			return nil, err
		}
		if !errors.Is(err, repos.ErrConflict) {
			s.Metrics.Checkout("error", started)
			applog.Error(nil, "checkout.fail", err, map[string]any{"owner": owner, "attempt": attempt})
			return nil, fmt.Errorf("%w: %w", domain.ErrCheckoutFailed, err)
		}

		lastErr = err
		s.Metrics.Conflict()
		applog.Warn(nil, "checkout.conflict", map[string]any{"owner": owner, "attempt": attempt})
		if attempt < s.Attempts {
			select {
			case <-time.After(s.Backoff * time.Duration(attempt)):
			case <-ctx.Done():
				s.Metrics.Checkout("timeout", started)
				return nil, fmt.Errorf("%w: %w", domain.ErrCheckoutFailed, ctx.Err())
			}
		}
	}

	s.Metrics.Checkout("conflict", started)
	applog.Error(nil, "checkout.fail", lastErr, map[string]any{"owner": owner, "attempts": s.Attempts})
	return nil, fmt.Errorf("%w: %w", domain.ErrCheckoutFailed, lastErr)
}

// attempt reads every line's item fresh, stages the new stock and the sale, and commits.
// Lines whose item no longer exists are kept in the sale but touch no stock.
func (s *CheckoutService) attempt(ctx context.Context, owner string, lines []domain.CartLine, q pricing.Quote) (*domain.SaleRecord, []string, error) {
	u, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = u.Rollback() }()

	var stale []string
	for _, l := range lines {
		it, err := u.ReadItem(ctx, owner, l.ItemID)
		if err != nil {
			return nil, nil, err
		}
		if it == nil {
			stale = append(stale, l.ItemID)
			continue
		}
		if it.Quantity < l.Quantity {
			return nil, nil, &domain.CapacityError{ItemID: it.ID, Name: it.Name, Available: it.Quantity}
		}
		u.StageStock(it.ID, max(0, it.Quantity-l.Quantity))
	}

	rec := &domain.SaleRecord{
		ID:       uuid.NewString(),
		Owner:    owner,
		Lines:    lines,
		Subtotal: q.Subtotal,
		Discount: q.Discount,
		Shipping: q.Shipping,
		Total:    q.Total,
		Profit:   q.NetProfit,
	}
	u.StageSale(rec)
	if err := u.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return rec, stale, nil
}

func (s *CheckoutService) committed(ctx context.Context, owner string, rec *domain.SaleRecord, stale []string, attempt int, started time.Time) {
	s.Metrics.Checkout("ok", started)
	if len(stale) > 0 {
		for range stale {
			s.Metrics.StaleReference()
		}
		applog.Warn(nil, "checkout.stale_reference", map[string]any{"owner": owner, "sale": rec.ID, "items": stale})
	}
	applog.Audit(nil, "checkout.commit", map[string]any{
		"owner":    owner,
		"sale":     rec.ID,
		"total":    rec.Total.String(),
		"profit":   rec.Profit.String(),
		"units":    rec.Units(),
		"attempts": attempt,
	})
	if s.Mirror != nil {
		if err := s.Mirror.Refresh(ctx, owner); err != nil {
			applog.Error(nil, "mirror.refresh", err, map[string]any{"owner": owner})
		}
	}
}

func (s *CheckoutService) timeout() time.Duration {
	if s.Timeout <= 0 {
		return checkoutTimeout
	}
	return s.Timeout
}
