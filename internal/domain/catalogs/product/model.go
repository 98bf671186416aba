// Package product provides the Product catalog for the supply chain.
// Products are owned by suppliers and carry the stock ledger state:
// on-hand quantity, minimum stock level, and the derived stock status.
package product

import (
	"context"
	"time"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/types"
)

// StockStatus is derived from quantity and minimum stock level.
// It is never set directly.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// Location tells where the stock physically sits.
type Location string

const (
	LocationSupplier Location = "supplier"
	LocationShop     Location = "shop"
)

// Product represents a catalog item with its stock ledger state.
type Product struct {
	entity.BaseDocument

	// SupplierID is the owning supplier
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Category    string `db:"category" json:"category,omitempty"`

	// Unit is the unit of measure (kg, crate, litre, ...)
	Unit string `db:"unit" json:"unit"`

	// Location of the stock
	Location Location `db:"location" json:"location"`

	// Price per unit
	Price types.Money `db:"price" json:"price"`

	// Quantity on hand, never negative
	Quantity int64 `db:"quantity" json:"quantity"`

	// MinStockLevel is the low-stock threshold
	MinStockLevel int64 `db:"min_stock_level" json:"minStockLevel"`

	// StockStatus is always DeriveStockStatus(Quantity, MinStockLevel)
	StockStatus StockStatus `db:"stock_status" json:"stockStatus"`

	// Traceability
	BatchNumber       string     `db:"batch_number" json:"batchNumber,omitempty"`
	ManufacturingDate *time.Time `db:"manufacturing_date" json:"manufacturingDate,omitempty"`
	ExpiryDate        *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
}

// New creates a new Product with derived stock status.
func New(supplierID id.ID, name, unit string, price types.Money, quantity, minStockLevel int64) *Product {
	p := &Product{
		BaseDocument:  entity.NewBaseDocument(),
		SupplierID:    supplierID,
		Name:          name,
		Unit:          unit,
		Location:      LocationSupplier,
		Price:         price,
		Quantity:      quantity,
		MinStockLevel: minStockLevel,
	}
	p.RefreshStockStatus()
	return p
}

// DeriveStockStatus computes the status from quantity and threshold.
// Zero or negative quantity wins over the low-stock threshold.
func DeriveStockStatus(quantity, minStockLevel int64) StockStatus {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity <= minStockLevel:
		return StockLowStock
	default:
		return StockInStock
	}
}

// RefreshStockStatus re-derives the stock status from current fields.
func (p *Product) RefreshStockStatus() {
	p.StockStatus = DeriveStockStatus(p.Quantity, p.MinStockLevel)
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if p.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if !isValidLocation(p.Location) {
		return apperror.NewValidation("invalid location").
			WithDetail("field", "location").
			WithDetail("value", string(p.Location))
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	if p.Quantity < 0 {
		return apperror.NewInvalidQuantity("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	if p.MinStockLevel < 0 {
		return apperror.NewInvalidQuantity("minimum stock level cannot be negative").
			WithDetail("field", "minStockLevel")
	}

	if p.ManufacturingDate != nil && p.ExpiryDate != nil && p.ExpiryDate.Before(*p.ManufacturingDate) {
		return apperror.NewValidation("expiry date cannot precede manufacturing date").
			WithDetail("field", "expiryDate")
	}

	return nil
}

// IsExpired reports whether the product is past its expiry date.
func (p *Product) IsExpired(at time.Time) bool {
	return p.ExpiryDate != nil && p.ExpiryDate.Before(at)
}

func isValidLocation(l Location) bool {
	switch l {
	case LocationSupplier, LocationShop:
		return true
	}
	return false
}
