// Package orders provides the Order aggregate: line items, the order status
// machine, the per-line return sub-workflow, disputes, and status history.
// All lifecycle rules live here; the service only orchestrates persistence
// and stock movements.
package orders

import (
	"context"
	"time"

	"larder/internal/core/apperror"
	"larder/internal/core/entity"
	"larder/internal/core/id"
	"larder/internal/core/types"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// statusTransitions is the order status machine. Absent pairs are invalid:
// delivered orders cannot be re-delivered or cancelled, cancelled and
// returned are terminal for direct updates. The returned state is only
// entered through the return sub-workflow.
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusDelivered, StatusCancelled},
}

// CanTransition reports whether the order status machine allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// PaymentStatus tracks settlement progress.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
)

// PaymentMethod is how the order will be settled. Required at creation.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheck        PaymentMethod = "check"
)

// ReturnStatus is the per-line return sub-workflow state. Empty means no
// return has ever been requested for the line.
type ReturnStatus string

const (
	ReturnNone      ReturnStatus = ""
	ReturnPending   ReturnStatus = "pending"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnCompleted ReturnStatus = "completed"
)

// returnTransitions is the per-line return machine for supplier review.
// completed and rejected are terminal for the cycle; a new request restarts
// the machine at pending.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnPending:  {ReturnApproved, ReturnRejected},
	ReturnApproved: {ReturnCompleted},
}

func canReviewReturn(from, to ReturnStatus) bool {
	for _, next := range returnTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DisputeStatus is the dispute sub-workflow state.
type DisputeStatus string

const (
	DisputeOpen       DisputeStatus = "open"
	DisputeInProgress DisputeStatus = "in_progress"
	DisputeResolved   DisputeStatus = "resolved"
	DisputeRejected   DisputeStatus = "rejected"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeOpen:       {DisputeInProgress, DisputeResolved, DisputeRejected},
	DisputeInProgress: {DisputeResolved, DisputeRejected},
}

func canTransitionDispute(from, to DisputeStatus) bool {
	for _, next := range disputeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Line is an order line with its return bookkeeping.
//
// Returned is the cumulative quantity the shopkeeper has sent back,
// including the cycle currently under review. Restocked is the cumulative
// quantity already credited back to the supplier's stock by approvals.
// Outside an open cycle the two are equal.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	Price     types.Money `db:"price" json:"price"`

	Returned     int64        `db:"returned" json:"returned"`
	Restocked    int64        `db:"restocked" json:"restocked"`
	ReturnReason string       `db:"return_reason" json:"returnReason,omitempty"`
	ReturnStatus ReturnStatus `db:"return_status" json:"returnStatus,omitempty"`
}

// Amount returns quantity x price for the line.
func (l *Line) Amount() types.Money {
	return l.Price.Mul(types.MoneyFromInt(l.Quantity))
}

// canStartReturn reports whether a new return cycle may begin on the line.
func (l *Line) canStartReturn() bool {
	switch l.ReturnStatus {
	case ReturnNone, ReturnRejected, ReturnCompleted:
		return true
	}
	return false
}

// Dispute is raised by either party and resolved by a superadmin.
type Dispute struct {
	DisputeID   id.ID         `db:"dispute_id" json:"disputeId"`
	Description string        `db:"description" json:"description"`
	Status      DisputeStatus `db:"status" json:"status"`
	RaisedBy    string        `db:"raised_by" json:"raisedBy"`
	RaisedAt    time.Time     `db:"raised_at" json:"raisedAt"`
	ResolvedBy  string        `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time    `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// StatusChange is an append-only history entry.
type StatusChange struct {
	Status    Status    `db:"status" json:"status"`
	ChangedAt time.Time `db:"changed_at" json:"changedAt"`
	ChangedBy string    `db:"changed_by" json:"changedBy,omitempty"`
}

// Order is the purchase order aggregate between a shopkeeper and a supplier.
type Order struct {
	entity.Document

	ShopkeeperID id.ID `db:"shopkeeper_id" json:"shopkeeperId"`
	SupplierID   id.ID `db:"supplier_id" json:"supplierId"`

	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`

	// TotalAmount is fixed at creation from line prices.
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Notes        string     `db:"notes" json:"notes,omitempty"`
	DeliveryDate *time.Time `db:"delivery_date" json:"deliveryDate,omitempty"`

	// Table parts
	Lines    []Line         `db:"-" json:"lines"`
	Disputes []Dispute      `db:"-" json:"disputes,omitempty"`
	History  []StatusChange `db:"-" json:"history,omitempty"`
}

// NewOrder creates a pending order between the two parties.
func NewOrder(shopkeeperID, supplierID id.ID, method PaymentMethod) *Order {
	return &Order{
		Document:      entity.NewDocument(),
		ShopkeeperID:  shopkeeperID,
		SupplierID:    supplierID,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		PaymentMethod: method,
		Lines:         make([]Line, 0),
	}
}

// AddLine adds a line and recalculates the total.
func (o *Order) AddLine(productID id.ID, quantity int64, price types.Money) {
	o.Lines = append(o.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(o.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
	})
	o.RecalculateTotal()
}

// RecalculateTotal sums line amounts into TotalAmount.
func (o *Order) RecalculateTotal() {
	total := types.Zero()
	for i := range o.Lines {
		total = total.Add(o.Lines[i].Amount())
	}
	o.TotalAmount = total
}

// Line returns a pointer to the line for the given product.
func (o *Order) Line(productID id.ID) (*Line, bool) {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.ShopkeeperID) {
		return apperror.NewValidation("shopkeeper is required").
			WithDetail("field", "shopkeeperId")
	}

	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if !isValidPaymentMethod(o.PaymentMethod) {
		return apperror.NewValidation("payment method is required").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(o.PaymentMethod))
	}

	if !isValidPaymentStatus(o.PaymentStatus) {
		return apperror.NewValidation("invalid payment status").
			WithDetail("field", "paymentStatus").
			WithDetail("value", string(o.PaymentStatus))
	}

	if len(o.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i := range o.Lines {
		line := &o.Lines[i]
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity < 1 {
			return apperror.NewInvalidQuantity("line quantity must be at least 1").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Price.IsNegative() {
			return apperror.NewValidation("line price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// ChangeStatus moves the order along the status machine and appends a
// history entry. Returns INVALID_TRANSITION for pairs the machine forbids,
// including repeats of the current status.
func (o *Order) ChangeStatus(next Status, by string, at time.Time) (StatusChange, error) {
	if !IsValidStatus(next) {
		return StatusChange{}, apperror.NewValidation("invalid order status").
			WithDetail("value", string(next))
	}

	if !CanTransition(o.Status, next) {
		return StatusChange{}, apperror.NewInvalidTransition("order", string(o.Status), string(next))
	}

	return o.forceStatus(next, by, at), nil
}

// forceStatus records the new status and history entry without consulting
// the transition table. Used internally for derived transitions.
func (o *Order) forceStatus(next Status, by string, at time.Time) StatusChange {
	o.Status = next
	change := StatusChange{Status: next, ChangedAt: at, ChangedBy: by}
	o.History = append(o.History, change)
	return change
}

// --- Return sub-workflow ---

// RequestReturn starts a return cycle on the line for the given product.
// The order must be delivered, the quantity bounded by what has not been
// returned yet, and no cycle may already be under review for the line.
func (o *Order) RequestReturn(productID id.ID, quantity int64, reason string, by string, at time.Time) error {
	if o.Status != StatusDelivered {
		return apperror.NewInvalidTransition("order", string(o.Status), "return requested")
	}

	line, ok := o.Line(productID)
	if !ok {
		return apperror.NewNotFound("order line", productID.String())
	}

	if !line.canStartReturn() {
		return apperror.NewInvalidTransition("return", string(line.ReturnStatus), string(ReturnPending))
	}

	if quantity < 1 {
		return apperror.NewInvalidQuantity("return quantity must be at least 1").
			WithDetail("quantity", quantity)
	}

	remaining := line.Quantity - line.Returned
	if quantity > remaining {
		return apperror.NewInvalidQuantity("return quantity exceeds remaining quantity").
			WithDetail("quantity", quantity).
			WithDetail("remaining", remaining)
	}

	line.Returned += quantity
	line.ReturnReason = reason
	line.ReturnStatus = ReturnPending

	o.deriveFullyReturned(by, at)
	return nil
}

// ReviewReturn applies the supplier's decision to the line's return cycle.
// Approval returns the stock delta to credit back, exactly once per cycle.
// Rejection releases the quantity of the rejected cycle. Completion may
// derive the order's returned status.
func (o *Order) ReviewReturn(productID id.ID, next ReturnStatus, by string, at time.Time) (int64, error) {
	line, ok := o.Line(productID)
	if !ok {
		return 0, apperror.NewNotFound("order line", productID.String())
	}

	if !canReviewReturn(line.ReturnStatus, next) {
		return 0, apperror.NewInvalidTransition("return", string(line.ReturnStatus), string(next))
	}

	switch next {
	case ReturnApproved:
		delta := line.Returned - line.Restocked
		line.Restocked = line.Returned
		line.ReturnStatus = ReturnApproved
		return delta, nil

	case ReturnRejected:
		line.Returned = line.Restocked
		line.ReturnStatus = ReturnRejected
		o.deriveCompletedReturns(by, at)
		return 0, nil

	case ReturnCompleted:
		line.ReturnStatus = ReturnCompleted
		o.deriveCompletedReturns(by, at)
		return 0, nil
	}

	return 0, apperror.NewValidation("invalid return status").
		WithDetail("value", string(next))
}

// deriveFullyReturned marks the order returned when every line has been
// returned in full. Evaluated at request time.
func (o *Order) deriveFullyReturned(by string, at time.Time) {
	if o.Status == StatusReturned || len(o.Lines) == 0 {
		return
	}
	for i := range o.Lines {
		if o.Lines[i].Returned != o.Lines[i].Quantity {
			return
		}
	}
	o.forceStatus(StatusReturned, by, at)
}

// deriveCompletedReturns marks the order returned when every line with
// returns has completed its cycle. Evaluated when a cycle completes.
func (o *Order) deriveCompletedReturns(by string, at time.Time) {
	if o.Status == StatusReturned {
		return
	}
	any := false
	for i := range o.Lines {
		line := &o.Lines[i]
		if line.Returned == 0 {
			continue
		}
		if line.ReturnStatus != ReturnCompleted {
			return
		}
		any = true
	}
	if any {
		o.forceStatus(StatusReturned, by, at)
	}
}

// --- Disputes ---

// AddDispute appends an open dispute.
func (o *Order) AddDispute(description, raisedBy string, at time.Time) (*Dispute, error) {
	if description == "" {
		return nil, apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}

	o.Disputes = append(o.Disputes, Dispute{
		DisputeID:   id.New(),
		Description: description,
		Status:      DisputeOpen,
		RaisedBy:    raisedBy,
		RaisedAt:    at,
	})
	return &o.Disputes[len(o.Disputes)-1], nil
}

// FindDispute returns a pointer to the dispute with the given ID.
func (o *Order) FindDispute(disputeID id.ID) (*Dispute, bool) {
	for i := range o.Disputes {
		if o.Disputes[i].DisputeID == disputeID {
			return &o.Disputes[i], true
		}
	}
	return nil, false
}

// ResolveDispute moves a dispute along its machine, stamping the resolver
// on terminal states.
func (o *Order) ResolveDispute(disputeID id.ID, next DisputeStatus, by string, at time.Time) error {
	d, ok := o.FindDispute(disputeID)
	if !ok {
		return apperror.NewNotFound("dispute", disputeID.String())
	}

	if !canTransitionDispute(d.Status, next) {
		return apperror.NewInvalidTransition("dispute", string(d.Status), string(next))
	}

	d.Status = next
	if next == DisputeResolved || next == DisputeRejected {
		d.ResolvedBy = by
		t := at
		d.ResolvedAt = &t
	}
	return nil
}

// --- Validation helpers ---

func isValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentCheck:
		return true
	}
	return false
}

func isValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentCompleted:
		return true
	}
	return false
}
