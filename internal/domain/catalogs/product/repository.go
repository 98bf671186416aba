package product

import (
	"context"
	"time"

	"larder/internal/core/id"
	"larder/internal/domain"
)

// ListFilter extends the common filter with product-specific criteria.
type ListFilter struct {
	domain.ListFilter

	SupplierID  *id.ID
	Category    string
	Location    *Location
	StockStatus *StockStatus
}

// Repository defines persistence operations for products.
type Repository interface {
	// Create inserts a new product
	Create(ctx context.Context, p *Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// Update modifies an existing product with optimistic locking
	Update(ctx context.Context, p *Product) error

	// Delete soft-deletes a product
	Delete(ctx context.Context, productID id.ID) error

	// List retrieves products with filtering and pagination
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// FindLowStock retrieves products at or below their minimum stock level
	FindLowStock(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// FindExpiring retrieves products expiring before the given time
	FindExpiring(ctx context.Context, before time.Time, filter ListFilter) (domain.ListResult[*Product], error)

	// AdjustQuantity applies a signed delta to the on-hand quantity and
	// re-derives the stock status in the same statement. Fails with
	// INSUFFICIENT_STOCK if the result would be negative.
	AdjustQuantity(ctx context.Context, productID id.ID, delta int64) (*Product, error)

	// SetQuantity replaces the on-hand quantity (stock take) and
	// re-derives the stock status atomically.
	SetQuantity(ctx context.Context, productID id.ID, quantity int64) (*Product, error)
}
