package orders

import (
	"context"
	"time"

	"larder/internal/core/id"
	"larder/internal/domain"
)

// ListFilter extends the common filter with order-specific criteria.
type ListFilter struct {
	domain.ListFilter

	ShopkeeperID *id.ID
	SupplierID   *id.ID
	Status       *Status
	DateFrom     *time.Time
	DateTo       *time.Time
}

// Repository defines persistence operations for orders.
// Table parts (lines, disputes, history) are saved separately so services
// can orchestrate them inside one transaction.
type Repository interface {
	// Create inserts the order row. Returns DUPLICATE_ENTRY when the
	// order number is already taken.
	Create(ctx context.Context, o *Order) error

	// Update modifies the order row with optimistic locking.
	Update(ctx context.Context, o *Order) error

	// GetByID retrieves the order row (without table parts).
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// List retrieves order rows with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)

	// GetLines retrieves the order's lines ordered by line number.
	GetLines(ctx context.Context, orderID id.ID) ([]Line, error)

	// SaveLines replaces the order's lines.
	SaveLines(ctx context.Context, orderID id.ID, lines []Line) error

	// GetDisputes retrieves the order's disputes in raise order.
	GetDisputes(ctx context.Context, orderID id.ID) ([]Dispute, error)

	// SaveDisputes replaces the order's disputes.
	SaveDisputes(ctx context.Context, orderID id.ID, disputes []Dispute) error

	// GetHistory retrieves the append-only status history.
	GetHistory(ctx context.Context, orderID id.ID) ([]StatusChange, error)

	// AppendHistory appends status changes to the history.
	AppendHistory(ctx context.Context, orderID id.ID, changes ...StatusChange) error
}
