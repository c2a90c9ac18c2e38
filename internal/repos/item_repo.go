package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"shelfpos/internal/domain"
)

type ItemRepo struct{ db *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{db: db} }

const itemCols = `id, owner, name, price, cost, quantity, brand_name, low_stock_threshold, version, created_at, updated_at`

func (r *ItemRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Item, error) {
	var out []domain.Item
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT `+itemCols+` FROM items WHERE owner=? ORDER BY LOWER(name), id`), owner)
	return out, err
}

// Get returns domain.ErrNotFound when the item does not exist for this owner.
func (r *ItemRepo) Get(ctx context.Context, owner, id string) (*domain.Item, error) {
	return getItem(ctx, r.db, owner, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(string) string
}

func getItem(ctx context.Context, q queryer, owner, id string) (*domain.Item, error) {
	var it domain.Item
	err := sqlx.GetContext(ctx, q, &it, q.Rebind(`SELECT `+itemCols+` FROM items WHERE id=? AND owner=?`), id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepo) Create(ctx context.Context, it *domain.Item) error {
	now := time.Now().UnixNano()
	it.Version = 1
	it.CreatedAt, it.UpdatedAt = now, now
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO items(`+itemCols+`)
		VALUES(:id, :owner, :name, :price, :cost, :quantity, :brand_name, :low_stock_threshold, :version, :created_at, :updated_at)
	`, it)
	return err
}

// Update overwrites the editable fields and bumps the version. It only applies
// while the stored item is still at it.Version; otherwise it returns ErrConflict
// so a concurrent stock change is never written over.
func (r *ItemRepo) Update(ctx context.Context, it *domain.Item) error {
	it.UpdatedAt = time.Now().UnixNano()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE items SET name=:name, price=:price, cost=:cost, quantity=:quantity, brand_name=:brand_name,
		  low_stock_threshold=:low_stock_threshold, version=version+1, updated_at=:updated_at
		WHERE id=:id AND owner=:owner AND version=:version
	`, it)
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if _, gerr := r.Get(ctx, it.Owner, it.ID); gerr != nil {
			return gerr
		}
		return ErrConflict
	}
	it.Version++
	return nil
}

func (r *ItemRepo) SetQuantity(ctx context.Context, owner, id string, qty int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE items SET quantity=?, version=version+1, updated_at=? WHERE id=? AND owner=?
	`), qty, time.Now().UnixNano(), id, owner)
	if err != nil {
		return err
	}
	return affected(res)
}

// SetThreshold stores or, with nil, clears the low-stock threshold.
func (r *ItemRepo) SetThreshold(ctx context.Context, owner, id string, threshold *int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE items SET low_stock_threshold=?, version=version+1, updated_at=? WHERE id=? AND owner=?
	`), threshold, time.Now().UnixNano(), id, owner)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *ItemRepo) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM items WHERE id=? AND owner=?`), id, owner)
	if err != nil {
		return err
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
