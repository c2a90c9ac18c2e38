// Package cart accumulates the lines of one in-progress sale.
package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
	"shelfpos/internal/pricing"
)

// Cart is safe for concurrent use. Lines keep the order in which items were first added.
type Cart struct {
	id    string
	mu    sync.Mutex
	lines []domain.CartLine
}

func New() *Cart {
	return &Cart{id: uuid.NewString()}
}

func (c *Cart) ID() string { return c.id }

// Add puts one more unit of item into the cart. The request is refused, and the cart left
// unchanged, when the cart would then hold more units than item.Quantity.
// Name, brand, price and cost are snapshotted on the first add.
func (c *Cart) Add(item domain.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(item.ID)
	current := 0
	if i >= 0 {
		current = c.lines[i].Quantity
	}
	if current+1 > item.Quantity {
		return &domain.CapacityError{ItemID: item.ID, Name: item.Name, Available: item.Quantity}
	}
	if i >= 0 {
		c.lines[i].Quantity++
		return nil
	}
	c.lines = append(c.lines, domain.CartLine{
		ItemID:    item.ID,
		Name:      item.Name,
		BrandName: item.Brand(),
		Price:     item.Price,
		Cost:      item.Cost,
		Quantity:  1,
	})
	return nil
}

// Remove takes one unit away and drops the line when it reaches zero.
func (c *Cart) Remove(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(itemID)
	if i < 0 {
		return
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Subtract takes away the units of sold lines. Units added after the lines were
// read stay in the cart.
func (c *Cart) Subtract(sold []domain.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range sold {
		i := c.index(l.ItemID)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity > l.Quantity {
			c.lines[i].Quantity -= l.Quantity
			continue
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Subtotal(c.lines)
}

// LineCount is the number of units across all lines.
func (c *Cart) LineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Quantity(itemID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(itemID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) index(itemID string) int {
	for i, l := range c.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}
