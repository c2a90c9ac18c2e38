package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shelfpos/internal/domain"
)

type SaleRepo struct{ db *sqlx.DB }

func NewSaleRepo(db *sqlx.DB) *SaleRepo { return &SaleRepo{db: db} }

type saleRow struct {
	ID        string          `db:"id"`
	Owner     string          `db:"owner"`
	CreatedAt int64           `db:"created_at"`
	Subtotal  decimal.Decimal `db:"subtotal"`
	Discount  decimal.Decimal `db:"discount"`
	Shipping  decimal.Decimal `db:"shipping"`
	Total     decimal.Decimal `db:"total"`
	Profit    decimal.Decimal `db:"profit"`
}

type lineRow struct {
	SaleID   string `db:"sale_id"`
	Position int    `db:"position"`
	domain.CartLine
}

func (s saleRow) record() domain.SaleRecord {
	return domain.SaleRecord{
		ID:       s.ID,
		Owner:    s.Owner,
		Date:     time.Unix(0, s.CreatedAt),
		Subtotal: s.Subtotal,
		Discount: s.Discount,
		Shipping: s.Shipping,
		Total:    s.Total,
		Profit:   s.Profit,
	}
}

const saleCols = `id, owner, created_at, subtotal, discount, shipping, total, profit`

// ListByOwner returns every sale with its lines, newest first.
func (r *SaleRepo) ListByOwner(ctx context.Context, owner string) ([]domain.SaleRecord, error) {
	var rows []saleRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT `+saleCols+` FROM sales WHERE owner=? ORDER BY created_at DESC, id
	`), owner); err != nil {
		return nil, err
	}
	var lines []lineRow
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(`
		SELECT l.sale_id, l.position, l.item_id, l.name, l.brand_name, l.price, l.cost, l.quantity
		FROM sale_lines l
		JOIN sales s ON s.id = l.sale_id
		WHERE s.owner=?
		ORDER BY l.sale_id, l.position
	`), owner); err != nil {
		return nil, err
	}
	bySale := make(map[string][]domain.CartLine, len(rows))
	for _, l := range lines {
		bySale[l.SaleID] = append(bySale[l.SaleID], l.CartLine)
	}
	out := make([]domain.SaleRecord, 0, len(rows))
	for _, s := range rows {
		rec := s.record()
		rec.Lines = bySale[s.ID]
		out = append(out, rec)
	}
	return out, nil
}

func (r *SaleRepo) Get(ctx context.Context, owner, id string) (*domain.SaleRecord, error) {
	var row saleRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+saleCols+` FROM sales WHERE id=? AND owner=?`), id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var lines []lineRow
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(`
		SELECT sale_id, position, item_id, name, brand_name, price, cost, quantity
		FROM sale_lines WHERE sale_id=? ORDER BY position
	`), id); err != nil {
		return nil, err
	}
	rec := row.record()
	for _, l := range lines {
		rec.Lines = append(rec.Lines, l.CartLine)
	}
	return &rec, nil
}

// Delete removes the record from history. Stock is never restored.
func (r *SaleRepo) Delete(ctx context.Context, owner, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sales WHERE id=? AND owner=?`), id, owner)
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sale_lines WHERE sale_id=?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

func insertSale(ctx context.Context, tx *sqlx.Tx, rec *domain.SaleRecord) error {
	row := saleRow{
		ID:        rec.ID,
		Owner:     rec.Owner,
		CreatedAt: rec.Date.UnixNano(),
		Subtotal:  rec.Subtotal,
		Discount:  rec.Discount,
		Shipping:  rec.Shipping,
		Total:     rec.Total,
		Profit:    rec.Profit,
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO sales(`+saleCols+`)
		VALUES(:id, :owner, :created_at, :subtotal, :discount, :shipping, :total, :profit)
	`, row); err != nil {
		return err
	}
	for i, l := range rec.Lines {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO sale_lines(sale_id, position, item_id, name, brand_name, price, cost, quantity)
			VALUES(:sale_id, :position, :item_id, :name, :brand_name, :price, :cost, :quantity)
		`, lineRow{SaleID: rec.ID, Position: i, CartLine: l}); err != nil {
			return err
		}
	}
	return nil
}
