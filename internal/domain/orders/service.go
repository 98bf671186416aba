package orders

import (
	"context"
	"fmt"
	"time"

	"larder/internal/core/apperror"
	appctx "larder/internal/core/context"
	"larder/internal/core/id"
	"larder/internal/core/security"
	"larder/internal/core/tx"
	"larder/internal/domain"
	"larder/internal/domain/notify"
	"larder/internal/domain/stock"
	"larder/pkg/logger"
)

// maxNumberAttempts bounds the number-collision retry loop.
const maxNumberAttempts = 5

// Auditor records entity changes. Implementations live in infrastructure.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service is the reconciliation coordinator: it runs every order mutation
// and its stock movement in one transaction, keeping the order aggregate
// and the stock ledger consistent.
type Service struct {
	repo      Repository
	stock     *stock.Service
	txManager tx.Manager
	notifier  notify.Notifier
	auditor   Auditor // optional
}

// NewService creates a new order service.
func NewService(
	repo Repository,
	stockSvc *stock.Service,
	txManager tx.Manager,
	notifier notify.Notifier,
	auditor Auditor,
) *Service {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Service{
		repo:      repo,
		stock:     stockSvc,
		txManager: txManager,
		notifier:  notifier,
		auditor:   auditor,
	}
}

// Create validates and persists a new order in pending state.
// The order number is generated here; on a DUPLICATE_ENTRY collision the
// whole insert is retried with a fresh number.
func (s *Service) Create(ctx context.Context, o *Order) error {
	user := appctx.GetUser(ctx)
	if err := security.Authorize(user, security.OpOrderCreate, s.parties(o)); err != nil {
		return err
	}

	o.Status = StatusPending
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	o.RecalculateTotal()

	if err := o.Validate(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	if user != nil {
		o.CreatedBy = user.UserID
		o.UpdatedBy = user.UserID
	}
	o.History = append(o.History, StatusChange{
		Status:    StatusPending,
		ChangedAt: now,
		ChangedBy: o.CreatedBy,
	})

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		o.Number = GenerateNumber(now)

		lastErr = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, o); err != nil {
				return err
			}
			if err := s.repo.SaveLines(ctx, o.ID, o.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			return s.repo.AppendHistory(ctx, o.ID, o.History...)
		})
		if lastErr == nil {
			break
		}
		if !apperror.IsDuplicate(lastErr) {
			return lastErr
		}
		logger.Warn(ctx, "order number collision, retrying",
			"number", o.Number, "attempt", attempt+1)
	}
	if lastErr != nil {
		return apperror.NewConflict("could not allocate a unique order number").
			WithCause(lastErr)
	}

	s.audit(ctx, o.ID, "create", map[string]any{
		"number": o.Number,
		"status": o.Status,
		"total":  o.TotalAmount,
	})

	s.send(ctx, notify.Notification{
		RecipientID: o.SupplierID.String(),
		Title:       "New order placed",
		Message:     fmt.Sprintf("Order %s has been placed", o.Number),
		Category:    notify.CategoryOrderPlaced,
		OrderID:     o.ID,
		OrderNumber: o.Number,
	})

	logger.Info(ctx, "order created", "id", o.ID, "number", o.Number)
	return nil
}

// GetByID retrieves an order with all table parts, enforcing visibility.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := security.Authorize(appctx.GetUser(ctx), security.OpOrderView, s.parties(o)); err != nil {
		return nil, err
	}
	return o, nil
}

// List retrieves orders scoped to what the caller may see: shopkeepers and
// suppliers see their own orders, superadmins see everything.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	user := appctx.GetUser(ctx)
	if user == nil {
		return domain.ListResult[*Order]{}, apperror.NewUnauthorized("authentication required")
	}

	switch security.Role(user.Role) {
	case security.RoleShopkeeper:
		selfID, err := id.Parse(user.UserID)
		if err != nil {
			return domain.ListResult[*Order]{}, apperror.NewForbidden("invalid user identity")
		}
		filter.ShopkeeperID = &selfID
	case security.RoleSupplier:
		selfID, err := id.Parse(user.UserID)
		if err != nil {
			return domain.ListResult[*Order]{}, apperror.NewForbidden("invalid user identity")
		}
		filter.SupplierID = &selfID
	case security.RoleSuperadmin:
		// unscoped
	default:
		return domain.ListResult[*Order]{}, apperror.NewForbidden("role not permitted for operation")
	}

	return s.repo.List(ctx, filter)
}

// UpdateStatus moves the order along the status machine. Entering delivered
// decrements the supplier's stock once per line; the transition table rejects
// delivered -> delivered, so a repeated request can never decrement twice.
func (s *Service) UpdateStatus(ctx context.Context, orderID id.ID, next Status) (*Order, error) {
	user := appctx.GetUser(ctx)
	now := time.Now().UTC()

	var result *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := security.Authorize(user, security.OpOrderUpdateStatus, s.parties(o)); err != nil {
			return err
		}

		change, err := o.ChangeStatus(next, userID(user), now)
		if err != nil {
			return err
		}

		if next == StatusDelivered {
			for i := range o.Lines {
				line := &o.Lines[i]
				if _, err := s.stock.Adjust(ctx, line.ProductID, -line.Quantity); err != nil {
					return err
				}
			}
			o.DeliveryDate = &now
		}

		o.UpdatedBy = userID(user)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		if err := s.repo.AppendHistory(ctx, o.ID, change); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, result.ID, "update_status", map[string]any{"status": next})

	s.send(ctx, notify.Notification{
		RecipientID: result.ShopkeeperID.String(),
		Title:       "Order status updated",
		Message:     fmt.Sprintf("Order %s is now %s", result.Number, next),
		Category:    notify.CategoryOrderStatus,
		OrderID:     result.ID,
		OrderNumber: result.Number,
	})

	logger.Info(ctx, "order status updated",
		"id", result.ID, "number", result.Number, "status", next)
	return result, nil
}

// RequestReturn starts a return cycle on one line of a delivered order.
// No stock moves until the supplier approves.
func (s *Service) RequestReturn(ctx context.Context, orderID, productID id.ID, quantity int64, reason string) (*Order, error) {
	user := appctx.GetUser(ctx)
	now := time.Now().UTC()

	var result *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := security.Authorize(user, security.OpOrderRequestReturn, s.parties(o)); err != nil {
			return err
		}

		historyBefore := len(o.History)
		if err := o.RequestReturn(productID, quantity, reason, userID(user), now); err != nil {
			return err
		}

		o.UpdatedBy = userID(user)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, o.ID, o.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.repo.AppendHistory(ctx, o.ID, o.History[historyBefore:]...); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, result.ID, "request_return", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
		"reason":     reason,
	})

	s.send(ctx, notify.Notification{
		RecipientID: result.SupplierID.String(),
		Title:       "Return requested",
		Message:     fmt.Sprintf("Return of %d unit(s) requested for order %s", quantity, result.Number),
		Category:    notify.CategoryReturn,
		OrderID:     result.ID,
		OrderNumber: result.Number,
	})

	return result, nil
}

// UpdateReturnStatus applies the supplier's decision on a pending return.
// Approval credits the returned quantity back to stock exactly once.
func (s *Service) UpdateReturnStatus(ctx context.Context, orderID, productID id.ID, next ReturnStatus) (*Order, error) {
	user := appctx.GetUser(ctx)
	now := time.Now().UTC()

	var result *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := security.Authorize(user, security.OpOrderReviewReturn, s.parties(o)); err != nil {
			return err
		}

		historyBefore := len(o.History)
		delta, err := o.ReviewReturn(productID, next, userID(user), now)
		if err != nil {
			return err
		}

		if delta > 0 {
			if _, err := s.stock.Adjust(ctx, productID, delta); err != nil {
				return err
			}
		}

		o.UpdatedBy = userID(user)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, o.ID, o.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.repo.AppendHistory(ctx, o.ID, o.History[historyBefore:]...); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, result.ID, "review_return", map[string]any{
		"product_id": productID,
		"status":     next,
	})

	s.send(ctx, notify.Notification{
		RecipientID: result.ShopkeeperID.String(),
		Title:       "Return " + string(next),
		Message:     fmt.Sprintf("Return on order %s is now %s", result.Number, next),
		Category:    notify.CategoryReturn,
		OrderID:     result.ID,
		OrderNumber: result.Number,
	})

	return result, nil
}

// AddDispute raises a dispute on the order.
func (s *Service) AddDispute(ctx context.Context, orderID id.ID, description string) (*Order, error) {
	user := appctx.GetUser(ctx)
	now := time.Now().UTC()

	var result *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := security.Authorize(user, security.OpOrderAddDispute, s.parties(o)); err != nil {
			return err
		}

		if _, err := o.AddDispute(description, userID(user), now); err != nil {
			return err
		}

		o.UpdatedBy = userID(user)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		if err := s.repo.SaveDisputes(ctx, o.ID, o.Disputes); err != nil {
			return fmt.Errorf("save disputes: %w", err)
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, result.ID, "add_dispute", map[string]any{"description": description})

	s.send(ctx, notify.Notification{
		RecipientID: s.counterparty(result, user),
		Title:       "Dispute raised",
		Message:     fmt.Sprintf("A dispute was raised on order %s", result.Number),
		Category:    notify.CategoryDispute,
		OrderID:     result.ID,
		OrderNumber: result.Number,
	})

	return result, nil
}

// UpdateDisputeStatus moves a dispute along its machine (superadmin only).
func (s *Service) UpdateDisputeStatus(ctx context.Context, orderID, disputeID id.ID, next DisputeStatus) (*Order, error) {
	user := appctx.GetUser(ctx)
	now := time.Now().UTC()

	var result *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.load(ctx, orderID)
		if err != nil {
			return err
		}
		if err := security.Authorize(user, security.OpOrderResolveDispute, s.parties(o)); err != nil {
			return err
		}

		if err := o.ResolveDispute(disputeID, next, userID(user), now); err != nil {
			return err
		}

		o.UpdatedBy = userID(user)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		if err := s.repo.SaveDisputes(ctx, o.ID, o.Disputes); err != nil {
			return fmt.Errorf("save disputes: %w", err)
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, result.ID, "resolve_dispute", map[string]any{
		"dispute_id": disputeID,
		"status":     next,
	})

	logger.Info(ctx, "dispute updated",
		"order_id", result.ID, "dispute_id", disputeID, "status", next)
	return result, nil
}

// --- internals ---

// load fetches the order row and its table parts.
func (s *Service) load(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Lines, err = s.repo.GetLines(ctx, orderID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	if o.Disputes, err = s.repo.GetDisputes(ctx, orderID); err != nil {
		return nil, fmt.Errorf("get disputes: %w", err)
	}
	if o.History, err = s.repo.GetHistory(ctx, orderID); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return o, nil
}

func (s *Service) parties(o *Order) security.Parties {
	return security.Parties{
		ShopkeeperID: o.ShopkeeperID.String(),
		SupplierID:   o.SupplierID.String(),
	}
}

// counterparty picks the other side of the order for notifications.
func (s *Service) counterparty(o *Order, user *appctx.UserContext) string {
	if user != nil && user.UserID == o.ShopkeeperID.String() {
		return o.SupplierID.String()
	}
	return o.ShopkeeperID.String()
}

// send delivers a notification best-effort.
func (s *Service) send(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Send(ctx, n); err != nil {
		logger.Warn(ctx, "notification delivery failed",
			"recipient", n.RecipientID, "category", n.Category, "error", err)
	}
}

// audit records a change best-effort.
func (s *Service) audit(ctx context.Context, orderID id.ID, action string, changes map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogChange(ctx, "order", orderID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed",
			"order_id", orderID, "action", action, "error", err)
	}
}

func userID(u *appctx.UserContext) string {
	if u == nil {
		return ""
	}
	return u.UserID
}
