package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/internal/domain/orders"
	"larder/internal/infrastructure/storage/postgres"
)

const (
	ordersTable        = "doc_orders"
	orderLinesTable    = "doc_order_lines"
	orderDisputesTable = "doc_order_disputes"
	orderHistoryTable  = "doc_order_history"
)

// Compile-time check that OrderRepo implements orders.Repository.
var _ orders.Repository = (*OrderRepo)(nil)

// OrderRepo implements orders.Repository. Lines, disputes and history are
// stored in their own tables and saved separately from the order row.
type OrderRepo struct {
	*BaseDocumentRepo[*orders.Order]
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			ordersTable,
			postgres.ExtractDBColumns[orders.Order](),
			func() *orders.Order { return &orders.Order{} },
			txManager,
		),
	}
}

// List retrieves order rows with filtering and pagination.
func (r *OrderRepo) List(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if filter.ShopkeeperID != nil {
		q = q.Where(squirrel.Eq{"shopkeeper_id": *filter.ShopkeeperID})
	}

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	return r.selectList(ctx, q, filter.ListFilter)
}

// GetLines retrieves the order's lines ordered by line number.
func (r *OrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]orders.Line, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "product_id", "quantity", "price",
			"returned", "restocked", "return_reason", "return_status",
		).
		From(orderLinesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []orders.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the order's lines.
func (r *OrderRepo) SaveLines(ctx context.Context, orderID id.ID, lines []orders.Line) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + orderLinesTable + " WHERE order_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(orderLinesTable).
		Columns(
			"line_id", "order_id", "line_no", "product_id", "quantity", "price",
			"returned", "restocked", "return_reason", "return_status",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, orderID, line.LineNo, line.ProductID, line.Quantity, line.Price,
			line.Returned, line.Restocked, line.ReturnReason, line.ReturnStatus,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// GetDisputes retrieves the order's disputes in raise order.
func (r *OrderRepo) GetDisputes(ctx context.Context, orderID id.ID) ([]orders.Dispute, error) {
	q := r.Builder().
		Select(
			"dispute_id", "description", "status",
			"raised_by", "raised_at", "resolved_by", "resolved_at",
		).
		From(orderDisputesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("raised_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var disputes []orders.Dispute
	if err := pgxscan.Select(ctx, r.querier(ctx), &disputes, sql, args...); err != nil {
		return nil, fmt.Errorf("get disputes: %w", err)
	}

	return disputes, nil
}

// SaveDisputes replaces the order's disputes.
func (r *OrderRepo) SaveDisputes(ctx context.Context, orderID id.ID, disputes []orders.Dispute) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + orderDisputesTable + " WHERE order_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing disputes: %w", err)
	}

	if len(disputes) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(orderDisputesTable).
		Columns(
			"dispute_id", "order_id", "description", "status",
			"raised_by", "raised_at", "resolved_by", "resolved_at",
		)

	for _, d := range disputes {
		q = q.Values(
			d.DisputeID, orderID, d.Description, d.Status,
			d.RaisedBy, d.RaisedAt, d.ResolvedBy, d.ResolvedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert disputes: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert disputes: %w", err)
	}

	return nil
}

// GetHistory retrieves the append-only status history.
func (r *OrderRepo) GetHistory(ctx context.Context, orderID id.ID) ([]orders.StatusChange, error) {
	q := r.Builder().
		Select("status", "changed_at", "changed_by").
		From(orderHistoryTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("changed_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var history []orders.StatusChange
	if err := pgxscan.Select(ctx, r.querier(ctx), &history, sql, args...); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	return history, nil
}

// AppendHistory appends status changes to the history.
func (r *OrderRepo) AppendHistory(ctx context.Context, orderID id.ID, changes ...orders.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(orderHistoryTable).
		Columns("order_id", "status", "changed_at", "changed_by")

	for _, c := range changes {
		q = q.Values(orderID, c.Status, c.ChangedAt, c.ChangedBy)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert history: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	return nil
}
