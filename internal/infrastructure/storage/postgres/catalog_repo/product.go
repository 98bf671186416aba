package catalog_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/product"
	"larder/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// Compile-time check that ProductRepo implements product.Repository.
var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
			txManager,
		),
	}
}

// List retrieves products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	q := r.filteredSelect(filter)
	return r.selectList(ctx, q, filter.ListFilter)
}

// FindLowStock retrieves products at or below their minimum stock level.
func (r *ProductRepo) FindLowStock(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	q := r.filteredSelect(filter).
		Where(squirrel.Expr("quantity <= min_stock_level"))
	return r.selectList(ctx, q, filter.ListFilter)
}

// FindExpiring retrieves products expiring before the given time.
func (r *ProductRepo) FindExpiring(ctx context.Context, before time.Time, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	q := r.filteredSelect(filter).
		Where(squirrel.NotEq{"expiry_date": nil}).
		Where(squirrel.Lt{"expiry_date": before})
	return r.selectList(ctx, q, filter.ListFilter)
}

// adjustReturning is the conditional update applying a quantity delta.
// The WHERE clause enforces the non-negative invariant and the CASE
// re-derives the stock status in the same statement, so concurrent
// adjustments can never observe or produce a negative quantity.
var adjustReturning = fmt.Sprintf(`
	UPDATE %s SET
		quantity = quantity + $2,
		stock_status = CASE
			WHEN quantity + $2 <= 0 THEN 'out_of_stock'
			WHEN quantity + $2 <= min_stock_level THEN 'low_stock'
			ELSE 'in_stock'
		END,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1 AND deletion_mark = false AND quantity + $2 >= 0
	RETURNING %s`,
	productTable, strings.Join(postgres.ExtractDBColumns[product.Product](), ", "))

// AdjustQuantity applies a signed delta to the on-hand quantity.
func (r *ProductRepo) AdjustQuantity(ctx context.Context, productID id.ID, delta int64) (*product.Product, error) {
	var p product.Product
	err := pgxscan.Get(ctx, r.querier(ctx), &p, adjustReturning, productID, delta)
	if err == nil {
		return &p, nil
	}
	if !pgxscan.NotFound(err) {
		return nil, fmt.Errorf("adjust quantity: %w", err)
	}

	// Zero rows: either the product is missing or the delta would have
	// driven the quantity negative. Re-read to tell the two apart.
	current, getErr := r.GetByID(ctx, productID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apperror.NewInsufficientStock(productID.String(), -delta, current.Quantity)
}

var setQuantityReturning = fmt.Sprintf(`
	UPDATE %s SET
		quantity = $2,
		stock_status = CASE
			WHEN $2 <= 0 THEN 'out_of_stock'
			WHEN $2 <= min_stock_level THEN 'low_stock'
			ELSE 'in_stock'
		END,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1 AND deletion_mark = false
	RETURNING %s`,
	productTable, strings.Join(postgres.ExtractDBColumns[product.Product](), ", "))

// SetQuantity replaces the on-hand quantity after a stock take.
func (r *ProductRepo) SetQuantity(ctx context.Context, productID id.ID, quantity int64) (*product.Product, error) {
	if quantity < 0 {
		return nil, apperror.NewInvalidQuantity("quantity cannot be negative").
			WithDetail("quantity", quantity)
	}

	var p product.Product
	err := pgxscan.Get(ctx, r.querier(ctx), &p, setQuantityReturning, productID, quantity)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(productTable, productID.String())
		}
		return nil, fmt.Errorf("set quantity: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) filteredSelect(filter product.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	if filter.Location != nil {
		q = q.Where(squirrel.Eq{"location": *filter.Location})
	}

	if filter.StockStatus != nil {
		q = q.Where(squirrel.Eq{"stock_status": *filter.StockStatus})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": searchPattern},
			squirrel.ILike{"batch_number": searchPattern},
		})
	}

	return q
}
