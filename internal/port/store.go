package port

import (
	"context"

	"shelfpos/internal/domain"
)

type Store interface {
	// Begin opens a unit of work. Nothing is written until Commit.
	Begin(ctx context.Context) (Unit, error)
}

// Unit records the version of every item it reads and applies its staged writes only if
// none of those items changed in between.
type Unit interface {
	// ReadItem returns the committed item, or nil when it no longer exists.
	ReadItem(ctx context.Context, owner, itemID string) (*domain.Item, error)

	// StageStock schedules a new on-hand quantity for an item previously read.
	StageStock(itemID string, quantity int)

	// StageSale schedules the sale record. Its Date is assigned on Commit.
	StageSale(rec *domain.SaleRecord)

	// Commit fails with repos.ErrConflict when any read item changed since it was read.
	Commit(ctx context.Context) error

	Rollback() error
}

// CatalogSource is what the live mirror loads snapshots from.
type CatalogSource interface {
	ListItems(ctx context.Context, owner string) ([]domain.Item, error)
	ListBrands(ctx context.Context, owner string) ([]domain.Brand, error)
}

// SaleHistory is the read side of persisted sales used by analytics.
type SaleHistory interface {
	ListByOwner(ctx context.Context, owner string) ([]domain.SaleRecord, error)
}

type Guard interface {
	// Acquire returns false when key is already held.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
