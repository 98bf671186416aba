package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/product"
	"larder/internal/domain/orders"
)

func TestExtractDBColumns(t *testing.T) {
	t.Run("product includes embedded document columns", func(t *testing.T) {
		cols := ExtractDBColumns[product.Product]()

		assert.Contains(t, cols, "id")
		assert.Contains(t, cols, "version")
		assert.Contains(t, cols, "created_at")
		assert.Contains(t, cols, "supplier_id")
		assert.Contains(t, cols, "quantity")
		assert.Contains(t, cols, "min_stock_level")
		assert.Contains(t, cols, "stock_status")
	})

	t.Run("order skips table parts", func(t *testing.T) {
		cols := ExtractDBColumns[orders.Order]()

		assert.Contains(t, cols, "number")
		assert.Contains(t, cols, "shopkeeper_id")
		assert.Contains(t, cols, "status")
		assert.Contains(t, cols, "total_amount")
		assert.NotContains(t, cols, "-")
		// Lines, disputes and history carry db:"-" and must not leak
		// into the row columns.
		assert.NotContains(t, cols, "lines")
	})
}

func TestStructToMap(t *testing.T) {
	supplierID := id.New()
	p := product.New(supplierID, "Olive oil", "litre", types.MustMoney("8.40"), 12, 3)

	m := StructToMap(p)
	require.NotEmpty(t, m)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, supplierID, m["supplier_id"])
	assert.Equal(t, "Olive oil", m["name"])
	assert.Equal(t, int64(12), m["quantity"])
	assert.Equal(t, product.StockInStock, m["stock_status"])
	assert.NotContains(t, m, "lines")

	// Cached path returns the same result
	again := StructToMap(p)
	assert.Equal(t, m["name"], again["name"])
}
