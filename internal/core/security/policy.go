// Package security provides role definitions and the operation precondition table.
// Authorization decisions are data-driven: services look up the table instead of
// branching on roles inline.
package security

import (
	"larder/internal/core/apperror"
	appctx "larder/internal/core/context"
)

// Role identifies a class of platform users.
type Role string

const (
	RoleShopkeeper Role = "shopkeeper"
	RoleSupplier   Role = "supplier"
	RoleSuperadmin Role = "superadmin"
)

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r Role) bool {
	switch r {
	case RoleShopkeeper, RoleSupplier, RoleSuperadmin:
		return true
	}
	return false
}

// Operation identifies a guarded business operation.
type Operation string

const (
	OpOrderCreate         Operation = "order.create"
	OpOrderView           Operation = "order.view"
	OpOrderUpdateStatus   Operation = "order.update_status"
	OpOrderRequestReturn  Operation = "order.request_return"
	OpOrderReviewReturn   Operation = "order.review_return"
	OpOrderAddDispute     Operation = "order.add_dispute"
	OpOrderResolveDispute Operation = "order.resolve_dispute"
	OpOrderInvoice        Operation = "order.invoice"
	OpProductWrite        Operation = "product.write"
	OpStockAdjust         Operation = "stock.adjust"
)

// Constraint narrows an allowed role to a subset of entities.
type Constraint int

const (
	// ConstraintNone grants the operation on any entity.
	ConstraintNone Constraint = iota

	// ConstraintParty requires the user to be the matching party of the
	// entity: shopkeepers must own the shopkeeper side, suppliers the
	// supplier side.
	ConstraintParty
)

// Parties carries the entity sides relevant to a party check.
type Parties struct {
	ShopkeeperID string
	SupplierID   string
}

// policy is the precondition table: operation -> allowed roles with constraints.
// Adding a role to an operation is a table edit, not a code change.
var policy = map[Operation]map[Role]Constraint{
	OpOrderCreate: {
		RoleShopkeeper: ConstraintParty,
	},
	OpOrderView: {
		RoleShopkeeper: ConstraintParty,
		RoleSupplier:   ConstraintParty,
		RoleSuperadmin: ConstraintNone,
	},
	OpOrderUpdateStatus: {
		RoleSupplier:   ConstraintParty,
		RoleSuperadmin: ConstraintNone,
	},
	OpOrderRequestReturn: {
		RoleShopkeeper: ConstraintParty,
	},
	OpOrderReviewReturn: {
		RoleSupplier: ConstraintParty,
	},
	OpOrderAddDispute: {
		RoleShopkeeper: ConstraintParty,
		RoleSupplier:   ConstraintParty,
		RoleSuperadmin: ConstraintNone,
	},
	OpOrderResolveDispute: {
		RoleSuperadmin: ConstraintNone,
	},
	OpOrderInvoice: {
		RoleShopkeeper: ConstraintParty,
		RoleSupplier:   ConstraintParty,
		RoleSuperadmin: ConstraintNone,
	},
	OpProductWrite: {
		RoleSupplier:   ConstraintParty,
		RoleSuperadmin: ConstraintNone,
	},
	OpStockAdjust: {
		RoleSupplier:   ConstraintParty,
		RoleSuperadmin: ConstraintNone,
	},
}

// Authorize checks the precondition table for the given user and operation.
// Returns UNAUTHORIZED when no user is present, FORBIDDEN when the role is not
// allowed or the party constraint fails.
func Authorize(user *appctx.UserContext, op Operation, parties Parties) error {
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	byRole, ok := policy[op]
	if !ok {
		return apperror.NewForbidden("operation not permitted").
			WithDetail("operation", string(op))
	}

	constraint, ok := byRole[Role(user.Role)]
	if !ok {
		return apperror.NewForbidden("role not permitted for operation").
			WithDetail("operation", string(op)).
			WithDetail("role", user.Role)
	}

	if constraint == ConstraintParty && !isParty(Role(user.Role), user.UserID, parties) {
		return apperror.NewForbidden("not a party to this record").
			WithDetail("operation", string(op))
	}

	return nil
}

// isParty checks the side of the record a role is expected to own.
func isParty(role Role, userID string, p Parties) bool {
	switch role {
	case RoleShopkeeper:
		return userID != "" && userID == p.ShopkeeperID
	case RoleSupplier:
		return userID != "" && userID == p.SupplierID
	}
	return true
}
