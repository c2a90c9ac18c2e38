package services

import (
	"context"

	"shelfpos/internal/domain"
	applog "shelfpos/internal/log"
	"shelfpos/internal/repos"
)

type SalesService struct {
	Sales *repos.SaleRepo
}

func NewSalesService(sales *repos.SaleRepo) *SalesService {
	return &SalesService{Sales: sales}
}

// List returns the owner's history, newest first. No owner means no history.
func (s *SalesService) List(ctx context.Context, owner string) ([]domain.SaleRecord, error) {
	if owner == "" {
		return nil, nil
	}
	return s.Sales.ListByOwner(ctx, owner)
}

func (s *SalesService) Get(ctx context.Context, owner, id string) (*domain.SaleRecord, error) {
	if owner == "" {
		return nil, domain.ErrNotFound
	}
	return s.Sales.Get(ctx, owner, id)
}

// Delete drops a sale from history. Stock sold by it is not put back.
func (s *SalesService) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrNoOwner
	}
	if err := s.Sales.Delete(ctx, owner, id); err != nil {
		return err
	}
	applog.Audit(nil, "sale.delete", map[string]any{"owner": owner, "sale": id})
	return nil
}
