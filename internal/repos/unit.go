package repos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"shelfpos/internal/domain"
	"shelfpos/internal/port"
)

// ErrConflict means an item read by a unit was modified before the unit committed.
var ErrConflict = errors.New("concurrent modification")

// Clock hands out strictly increasing sale timestamps. On its own it is only
// monotonic within one process; NextAfter lifts it above a time read from the store.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (c *Clock) Next() time.Time { return c.NextAfter(time.Time{}) }

// NextAfter returns a timestamp later than both floor and every earlier result.
func (c *Clock) NextAfter(floor time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if floor.After(c.last) {
		c.last = floor
	}
	t := c.now()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// Store is the transactional side of the repositories. It also serves the catalog
// reads the live mirror needs.
type Store struct {
	db     *sqlx.DB
	clock  *Clock
	items  *ItemRepo
	brands *BrandRepo
}

func NewStore(db *sqlx.DB, clock *Clock) *Store {
	if clock == nil {
		clock = NewClock(nil)
	}
	return &Store{db: db, clock: clock, items: NewItemRepo(db), brands: NewBrandRepo(db)}
}

func (s *Store) ListItems(ctx context.Context, owner string) ([]domain.Item, error) {
	return s.items.ListByOwner(ctx, owner)
}

func (s *Store) ListBrands(ctx context.Context, owner string) ([]domain.Brand, error) {
	return s.brands.ListByOwner(ctx, owner)
}

// Begin starts an optimistic unit. Reads go straight to committed data; the
// transaction is only opened by Commit, where every staged stock write is
// conditioned on the version seen at read time.
func (s *Store) Begin(ctx context.Context) (port.Unit, error) {
	return &unit{store: s, reads: map[string]readState{}}, nil
}

type readState struct {
	owner   string
	version int64
}

type stockWrite struct {
	itemID   string
	quantity int
}

type unit struct {
	store  *Store
	reads  map[string]readState
	stock  []stockWrite
	sale   *domain.SaleRecord
	closed bool
}

func (u *unit) ReadItem(ctx context.Context, owner, itemID string) (*domain.Item, error) {
	it, err := getItem(ctx, u.store.db, owner, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.reads[itemID] = readState{owner: owner, version: it.Version}
	return it, nil
}

func (u *unit) StageStock(itemID string, quantity int) {
	u.stock = append(u.stock, stockWrite{itemID: itemID, quantity: quantity})
}

func (u *unit) StageSale(rec *domain.SaleRecord) { u.sale = rec }

func (u *unit) Commit(ctx context.Context) error {
	if u.closed {
		return errors.New("unit already closed")
	}
	u.closed = true

	tx, err := u.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixNano()
	for _, w := range u.stock {
		rs, ok := u.reads[w.itemID]
		if !ok {
			return fmt.Errorf("stock write for unread item %s", w.itemID)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE items SET quantity=?, version=version+1, updated_at=?
			WHERE id=? AND owner=? AND version=?
		`), w.quantity, now, w.itemID, rs.owner, rs.version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConflict
		}
	}
	if u.sale != nil {
		// another process may share the store, so the newest stored sale is the floor
		var last int64
		if err := tx.GetContext(ctx, &last, `SELECT COALESCE(MAX(created_at), 0) FROM sales`); err != nil {
			return err
		}
		floor := time.Time{}
		if last > 0 {
			floor = time.Unix(0, last)
		}
		u.sale.Date = u.store.clock.NextAfter(floor)
		if err := insertSale(ctx, tx, u.sale); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (u *unit) Rollback() error {
	u.closed = true
	u.stock, u.sale = nil, nil
	return nil
}
