package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larder/internal/core/apperror"
	appctx "larder/internal/core/context"
)

func user(id string, role Role) *appctx.UserContext {
	return &appctx.UserContext{UserID: id, Role: string(role)}
}

func TestAuthorize(t *testing.T) {
	parties := Parties{ShopkeeperID: "shop-1", SupplierID: "sup-1"}

	tests := []struct {
		name     string
		user     *appctx.UserContext
		op       Operation
		wantCode string
	}{
		{"shopkeeper creates order", user("shop-1", RoleShopkeeper), OpOrderCreate, ""},
		{"supplier cannot create order", user("sup-1", RoleSupplier), OpOrderCreate, apperror.CodeForbidden},
		{"superadmin cannot create order", user("admin", RoleSuperadmin), OpOrderCreate, apperror.CodeForbidden},

		{"own shopkeeper views order", user("shop-1", RoleShopkeeper), OpOrderView, ""},
		{"foreign shopkeeper cannot view", user("shop-2", RoleShopkeeper), OpOrderView, apperror.CodeForbidden},
		{"own supplier views order", user("sup-1", RoleSupplier), OpOrderView, ""},
		{"superadmin views any order", user("admin", RoleSuperadmin), OpOrderView, ""},

		{"own supplier updates status", user("sup-1", RoleSupplier), OpOrderUpdateStatus, ""},
		{"foreign supplier cannot update status", user("sup-2", RoleSupplier), OpOrderUpdateStatus, apperror.CodeForbidden},
		{"shopkeeper cannot update status", user("shop-1", RoleShopkeeper), OpOrderUpdateStatus, apperror.CodeForbidden},

		{"own shopkeeper requests return", user("shop-1", RoleShopkeeper), OpOrderRequestReturn, ""},
		{"supplier cannot request return", user("sup-1", RoleSupplier), OpOrderRequestReturn, apperror.CodeForbidden},
		{"superadmin cannot request return", user("admin", RoleSuperadmin), OpOrderRequestReturn, apperror.CodeForbidden},

		{"own supplier reviews return", user("sup-1", RoleSupplier), OpOrderReviewReturn, ""},
		{"shopkeeper cannot review return", user("shop-1", RoleShopkeeper), OpOrderReviewReturn, apperror.CodeForbidden},

		{"shopkeeper raises dispute", user("shop-1", RoleShopkeeper), OpOrderAddDispute, ""},
		{"supplier raises dispute", user("sup-1", RoleSupplier), OpOrderAddDispute, ""},
		{"only superadmin resolves dispute", user("sup-1", RoleSupplier), OpOrderResolveDispute, apperror.CodeForbidden},
		{"superadmin resolves dispute", user("admin", RoleSuperadmin), OpOrderResolveDispute, ""},

		{"anonymous rejected", nil, OpOrderView, apperror.CodeUnauthorized},
		{"unknown role rejected", &appctx.UserContext{UserID: "x", Role: "auditor"}, OpOrderView, apperror.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, tt.op, parties)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestAuthorizeUnknownOperation(t *testing.T) {
	err := Authorize(user("admin", RoleSuperadmin), Operation("order.archive"), Parties{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}
