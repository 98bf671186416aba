package dto

import (
	"time"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/product"
)

// CreateProductRequest is the payload for creating a product.
type CreateProductRequest struct {
	SupplierID    string      `json:"supplierId" binding:"required"`
	Name          string      `json:"name" binding:"required"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Unit          string      `json:"unit" binding:"required"`
	Location      string      `json:"location"`
	Price         types.Money `json:"price"`
	Quantity      int64       `json:"quantity"`
	MinStockLevel int64       `json:"minStockLevel"`

	BatchNumber       string     `json:"batchNumber"`
	ManufacturingDate *time.Time `json:"manufacturingDate"`
	ExpiryDate        *time.Time `json:"expiryDate"`
}

// ToEntity converts the request to a domain product.
func (r *CreateProductRequest) ToEntity() (*product.Product, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id").
			WithDetail("field", "supplierId")
	}

	p := product.New(supplierID, r.Name, r.Unit, r.Price, r.Quantity, r.MinStockLevel)
	p.Description = r.Description
	p.Category = r.Category
	if r.Location != "" {
		p.Location = product.Location(r.Location)
	}
	p.BatchNumber = r.BatchNumber
	p.ManufacturingDate = r.ManufacturingDate
	p.ExpiryDate = r.ExpiryDate
	p.RefreshStockStatus()
	return p, nil
}

// UpdateProductRequest is the payload for updating a product.
// Pointers distinguish "leave unchanged" from explicit zero values.
type UpdateProductRequest struct {
	Name          *string      `json:"name"`
	Description   *string      `json:"description"`
	Category      *string      `json:"category"`
	Unit          *string      `json:"unit"`
	Location      *string      `json:"location"`
	Price         *types.Money `json:"price"`
	MinStockLevel *int64       `json:"minStockLevel"`

	BatchNumber       *string    `json:"batchNumber"`
	ManufacturingDate *time.Time `json:"manufacturingDate"`
	ExpiryDate        *time.Time `json:"expiryDate"`
}

// ApplyTo applies the changes to an existing product.
// Quantity is deliberately absent: stock moves only through the ledger.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.Location != nil {
		p.Location = product.Location(*r.Location)
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.MinStockLevel != nil {
		p.MinStockLevel = *r.MinStockLevel
	}
	if r.BatchNumber != nil {
		p.BatchNumber = *r.BatchNumber
	}
	if r.ManufacturingDate != nil {
		p.ManufacturingDate = r.ManufacturingDate
	}
	if r.ExpiryDate != nil {
		p.ExpiryDate = r.ExpiryDate
	}
	p.RefreshStockStatus()
}

// AdjustStockRequest applies a signed delta to the on-hand quantity.
type AdjustStockRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// SetStockRequest replaces the on-hand quantity (stock take).
type SetStockRequest struct {
	Quantity int64 `json:"quantity"`
}

// ProductResponse is the API representation of a product.
type ProductResponse struct {
	ID            string      `json:"id"`
	SupplierID    string      `json:"supplierId"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Category      string      `json:"category,omitempty"`
	Unit          string      `json:"unit"`
	Location      string      `json:"location"`
	Price         types.Money `json:"price"`
	Quantity      int64       `json:"quantity"`
	MinStockLevel int64       `json:"minStockLevel"`
	StockStatus   string      `json:"stockStatus"`

	BatchNumber       string     `json:"batchNumber,omitempty"`
	ManufacturingDate *time.Time `json:"manufacturingDate,omitempty"`
	ExpiryDate        *time.Time `json:"expiryDate,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromProduct converts a domain product to its API representation.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:                p.ID.String(),
		SupplierID:        p.SupplierID.String(),
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Unit:              p.Unit,
		Location:          string(p.Location),
		Price:             p.Price,
		Quantity:          p.Quantity,
		MinStockLevel:     p.MinStockLevel,
		StockStatus:       string(p.StockStatus),
		BatchNumber:       p.BatchNumber,
		ManufacturingDate: p.ManufacturingDate,
		ExpiryDate:        p.ExpiryDate,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
