// Package stock provides the stock ledger service.
// All quantity movements go through here so the non-negative invariant and
// status derivation are enforced in one place.
package stock

import (
	"context"
	"fmt"

	"larder/internal/core/apperror"
	appctx "larder/internal/core/context"
	"larder/internal/core/id"
	"larder/internal/core/security"
	"larder/internal/core/tx"
	"larder/internal/domain/catalogs/product"
	"larder/pkg/logger"
)

// Service applies quantity movements to products.
type Service struct {
	products  product.Repository
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(products product.Repository, txManager tx.Manager) *Service {
	return &Service{
		products:  products,
		txManager: txManager,
	}
}

// Adjust applies a signed delta to a product's on-hand quantity.
// The write is a single conditional update: the quantity can never go
// negative, and the stock status is re-derived in the same statement.
// Returns the product with its new quantity and status.
func (s *Service) Adjust(ctx context.Context, productID id.ID, delta int64) (*product.Product, error) {
	if delta == 0 {
		return s.products.GetByID(ctx, productID)
	}

	var updated *product.Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.AdjustQuantity(ctx, productID, delta)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "stock adjusted",
		"product_id", productID,
		"delta", delta,
		"quantity", updated.Quantity,
		"status", updated.StockStatus,
	)
	return updated, nil
}

// ManualAdjust is the operator-facing variant of Adjust: it checks that the
// caller may move stock for this product before applying the delta.
func (s *Service) ManualAdjust(ctx context.Context, productID id.ID, delta int64) (*product.Product, error) {
	if err := s.authorize(ctx, productID); err != nil {
		return nil, err
	}
	return s.Adjust(ctx, productID, delta)
}

// SetQuantity replaces the on-hand quantity after a stock take.
func (s *Service) SetQuantity(ctx context.Context, productID id.ID, quantity int64) (*product.Product, error) {
	if quantity < 0 {
		return nil, apperror.NewInvalidQuantity("quantity cannot be negative").
			WithDetail("quantity", quantity)
	}

	if err := s.authorize(ctx, productID); err != nil {
		return nil, err
	}

	var updated *product.Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.SetQuantity(ctx, productID, quantity)
		if err != nil {
			return fmt.Errorf("set quantity: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock take recorded",
		"product_id", productID,
		"quantity", updated.Quantity,
		"status", updated.StockStatus,
	)
	return updated, nil
}

func (s *Service) authorize(ctx context.Context, productID id.ID) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	return security.Authorize(appctx.GetUser(ctx), security.OpStockAdjust, security.Parties{
		SupplierID: p.SupplierID.String(),
	})
}
