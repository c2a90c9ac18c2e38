package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"shelfpos/internal/domain"
)

type BrandRepo struct{ db *sqlx.DB }

func NewBrandRepo(db *sqlx.DB) *BrandRepo { return &BrandRepo{db: db} }

func (r *BrandRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Brand, error) {
	var out []domain.Brand
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT id, owner, name, created_at FROM brands WHERE owner=? ORDER BY LOWER(name), id
	`), owner)
	return out, err
}

// Create rejects a name the owner already uses, ignoring case, with domain.ErrDuplicateBrand.
func (r *BrandRepo) Create(ctx context.Context, b *domain.Brand) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM brands WHERE owner=? AND LOWER(name)=LOWER(?)`), b.Owner, b.Name); err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrDuplicateBrand
	}
	b.CreatedAt = time.Now().UnixNano()
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO brands(id, owner, name, created_at) VALUES(:id, :owner, :name, :created_at)
	`, b); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete leaves items that still carry the brand name untouched.
func (r *BrandRepo) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM brands WHERE id=? AND owner=?`), id, owner)
	if err != nil {
		return err
	}
	return affected(res)
}
