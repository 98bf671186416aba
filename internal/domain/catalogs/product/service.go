package product

import (
	"context"
	"fmt"
	"time"

	appctx "larder/internal/core/context"
	"larder/internal/core/id"
	"larder/internal/core/security"
	"larder/internal/core/tx"
	"larder/internal/domain"
	"larder/pkg/logger"
)

// Service provides business logic for the product catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := s.authorizeWrite(ctx, p.SupplierID); err != nil {
		return err
	}

	p.RefreshStockStatus()
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if user := appctx.GetUser(ctx); user != nil {
		p.CreatedBy = user.UserID
		p.UpdatedBy = user.UserID
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "id", p.ID, "name", p.Name)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Update modifies an existing product with optimistic locking.
// Quantity is not updated here; stock moves through the stock ledger.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := s.authorizeWrite(ctx, p.SupplierID); err != nil {
		return err
	}

	p.RefreshStockStatus()
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if user := appctx.GetUser(ctx); user != nil {
		p.UpdatedBy = user.UserID
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, p)
	})
}

// Delete soft-deletes a product.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.authorizeWrite(ctx, p.SupplierID); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, productID)
	})
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

// FindLowStock retrieves products at or below their minimum stock level.
func (s *Service) FindLowStock(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, filter)
}

// FindExpiring retrieves products expiring within the given window.
func (s *Service) FindExpiring(ctx context.Context, window time.Duration, filter ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindExpiring(ctx, time.Now().UTC().Add(window), filter)
}

func (s *Service) authorizeWrite(ctx context.Context, supplierID id.ID) error {
	return security.Authorize(appctx.GetUser(ctx), security.OpProductWrite, security.Parties{
		SupplierID: supplierID.String(),
	})
}
