package dto

import (
	"time"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/orders"
)

// OrderLineRequest is one line of a new order.
type OrderLineRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required"`
	Price     types.Money `json:"price"`
}

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	ShopkeeperID  string             `json:"shopkeeperId" binding:"required"`
	SupplierID    string             `json:"supplierId" binding:"required"`
	PaymentMethod string             `json:"paymentMethod" binding:"required"`
	Notes         string             `json:"notes"`
	Lines         []OrderLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts the request to a domain order.
func (r *CreateOrderRequest) ToEntity() (*orders.Order, error) {
	shopkeeperID, err := id.Parse(r.ShopkeeperID)
	if err != nil {
		return nil, apperror.NewValidation("invalid shopkeeper id").
			WithDetail("field", "shopkeeperId")
	}

	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id").
			WithDetail("field", "supplierId")
	}

	o := orders.NewOrder(shopkeeperID, supplierID, orders.PaymentMethod(r.PaymentMethod))
	o.Notes = r.Notes

	for _, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").
				WithDetail("field", "lines").
				WithDetail("productId", line.ProductID)
		}
		o.AddLine(productID, line.Quantity, line.Price)
	}

	return o, nil
}

// UpdateOrderStatusRequest moves the order along its status machine.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReturnRequest starts a return cycle on one order line.
type ReturnRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
}

// ReviewReturnRequest applies the supplier's decision on a return.
type ReviewReturnRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// AddDisputeRequest raises a dispute on the order.
type AddDisputeRequest struct {
	Description string `json:"description" binding:"required"`
}

// UpdateDisputeStatusRequest moves a dispute along its machine.
type UpdateDisputeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderLineResponse is the API representation of an order line.
type OrderLineResponse struct {
	LineID       string      `json:"lineId"`
	LineNo       int         `json:"lineNo"`
	ProductID    string      `json:"productId"`
	Quantity     int64       `json:"quantity"`
	Price        types.Money `json:"price"`
	Amount       types.Money `json:"amount"`
	Returned     int64       `json:"returned"`
	Restocked    int64       `json:"restocked"`
	ReturnReason string      `json:"returnReason,omitempty"`
	ReturnStatus string      `json:"returnStatus,omitempty"`
}

// DisputeResponse is the API representation of a dispute.
type DisputeResponse struct {
	DisputeID   string     `json:"disputeId"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	RaisedBy    string     `json:"raisedBy"`
	RaisedAt    time.Time  `json:"raisedAt"`
	ResolvedBy  string     `json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// StatusChangeResponse is one entry of the status history.
type StatusChangeResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy string    `json:"changedBy,omitempty"`
}

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID            string      `json:"id"`
	Number        string      `json:"number"`
	Date          time.Time   `json:"date"`
	ShopkeeperID  string      `json:"shopkeeperId"`
	SupplierID    string      `json:"supplierId"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus"`
	PaymentMethod string      `json:"paymentMethod"`
	TotalAmount   types.Money `json:"totalAmount"`
	Notes         string      `json:"notes,omitempty"`
	DeliveryDate  *time.Time  `json:"deliveryDate,omitempty"`

	Lines    []OrderLineResponse    `json:"lines"`
	Disputes []DisputeResponse      `json:"disputes,omitempty"`
	History  []StatusChangeResponse `json:"history,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromOrder converts a domain order to its API representation.
func FromOrder(o *orders.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:            o.ID.String(),
		Number:        o.Number,
		Date:          o.Date,
		ShopkeeperID:  o.ShopkeeperID.String(),
		SupplierID:    o.SupplierID.String(),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		TotalAmount:   o.TotalAmount,
		Notes:         o.Notes,
		DeliveryDate:  o.DeliveryDate,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	resp.Lines = make([]OrderLineResponse, len(o.Lines))
	for i := range o.Lines {
		line := &o.Lines[i]
		resp.Lines[i] = OrderLineResponse{
			LineID:       line.LineID.String(),
			LineNo:       line.LineNo,
			ProductID:    line.ProductID.String(),
			Quantity:     line.Quantity,
			Price:        line.Price,
			Amount:       line.Amount(),
			Returned:     line.Returned,
			Restocked:    line.Restocked,
			ReturnReason: line.ReturnReason,
			ReturnStatus: string(line.ReturnStatus),
		}
	}

	for _, d := range o.Disputes {
		resp.Disputes = append(resp.Disputes, DisputeResponse{
			DisputeID:   d.DisputeID.String(),
			Description: d.Description,
			Status:      string(d.Status),
			RaisedBy:    d.RaisedBy,
			RaisedAt:    d.RaisedAt,
			ResolvedBy:  d.ResolvedBy,
			ResolvedAt:  d.ResolvedAt,
		})
	}

	for _, h := range o.History {
		resp.History = append(resp.History, StatusChangeResponse{
			Status:    string(h.Status),
			ChangedAt: h.ChangedAt,
			ChangedBy: h.ChangedBy,
		})
	}

	return resp
}
