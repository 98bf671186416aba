package invoice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/apperror"
	appctx "larder/internal/core/context"
	"larder/internal/core/id"
	"larder/internal/core/security"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/product"
	"larder/internal/domain/orders"
)

type stubOrders struct {
	order *orders.Order
}

func (s *stubOrders) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	return s.order, nil
}

type stubProducts struct {
	items map[id.ID]*product.Product
}

func (s *stubProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := s.items[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

type stubDirectory struct {
	names map[id.ID]string
	err   error
}

func (s *stubDirectory) PartyName(ctx context.Context, partyID id.ID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.names[partyID], nil
}

func testInvoiceFixture(t *testing.T) (*stubOrders, *stubProducts, *stubDirectory, id.ID, id.ID) {
	t.Helper()

	shopkeeperID := id.New()
	supplierID := id.New()

	p := product.New(supplierID, "Tomatoes", "kg", types.MustMoney("2.50"), 100, 10)

	o := orders.NewOrder(shopkeeperID, supplierID, orders.PaymentBankTransfer)
	o.Number = "ORD26081234"
	o.Date = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	o.AddLine(p.ID, 20, types.MustMoney("2.50"))

	return &stubOrders{order: o},
		&stubProducts{items: map[id.ID]*product.Product{p.ID: p}},
		&stubDirectory{names: map[id.ID]string{
			shopkeeperID: "Corner Grocery",
			supplierID:   "Valley Farms",
		}},
		shopkeeperID, supplierID
}

func shopkeeperCtx(shopkeeperID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: shopkeeperID.String(),
		Role:   string(security.RoleShopkeeper),
	})
}

func TestGenerate(t *testing.T) {
	ordersStub, productsStub, directory, shopkeeperID, _ := testInvoiceFixture(t)
	svc := NewService(ordersStub, productsStub, directory)

	inv, err := svc.Generate(shopkeeperCtx(shopkeeperID), ordersStub.order.ID)
	require.NoError(t, err)

	assert.Equal(t, "INV26081234", inv.Number)
	assert.Equal(t, "ORD26081234", inv.OrderNumber)
	assert.Equal(t, "Corner Grocery", inv.ShopkeeperName)
	assert.Equal(t, "Valley Farms", inv.SupplierName)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Tomatoes", inv.Lines[0].Description)
	assert.Equal(t, "kg", inv.Lines[0].Unit)
	assert.Equal(t, int64(20), inv.Lines[0].Quantity)
	assert.True(t, inv.Lines[0].Amount.Equal(types.MustMoney("50.00")))
	assert.True(t, inv.Total.Equal(types.MustMoney("50.00")))

	text := inv.Text()
	assert.True(t, strings.Contains(text, "INV26081234"))
	assert.True(t, strings.Contains(text, "Tomatoes"))
	assert.True(t, strings.Contains(text, "50.00"))
}

func TestGenerateDegradesToIDs(t *testing.T) {
	t.Run("directory failure", func(t *testing.T) {
		ordersStub, productsStub, directory, shopkeeperID, supplierID := testInvoiceFixture(t)
		directory.err = errors.New("directory unavailable")
		svc := NewService(ordersStub, productsStub, directory)

		inv, err := svc.Generate(shopkeeperCtx(shopkeeperID), ordersStub.order.ID)
		require.NoError(t, err)
		assert.Equal(t, shopkeeperID.String(), inv.ShopkeeperName)
		assert.Equal(t, supplierID.String(), inv.SupplierName)
	})

	t.Run("nil directory", func(t *testing.T) {
		ordersStub, productsStub, _, shopkeeperID, _ := testInvoiceFixture(t)
		svc := NewService(ordersStub, productsStub, nil)

		inv, err := svc.Generate(shopkeeperCtx(shopkeeperID), ordersStub.order.ID)
		require.NoError(t, err)
		assert.Equal(t, shopkeeperID.String(), inv.ShopkeeperName)
	})

	t.Run("unknown product", func(t *testing.T) {
		ordersStub, productsStub, directory, shopkeeperID, _ := testInvoiceFixture(t)
		productID := ordersStub.order.Lines[0].ProductID
		delete(productsStub.items, productID)
		svc := NewService(ordersStub, productsStub, directory)

		inv, err := svc.Generate(shopkeeperCtx(shopkeeperID), ordersStub.order.ID)
		require.NoError(t, err)
		assert.Equal(t, productID.String(), inv.Lines[0].Description)
	})
}

func TestGenerateAuthorization(t *testing.T) {
	ordersStub, productsStub, directory, _, _ := testInvoiceFixture(t)
	svc := NewService(ordersStub, productsStub, directory)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: id.New().String(),
		Role:   string(security.RoleShopkeeper),
	})
	_, err := svc.Generate(ctx, ordersStub.order.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}
