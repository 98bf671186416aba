package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/internal/domain/invoice"
	"larder/internal/domain/orders"
	"larder/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles HTTP requests for orders, returns and disputes.
type OrderHandler struct {
	*BaseHandler
	service  *orders.Service
	invoices *invoice.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service, invoices *invoice.Service) *OrderHandler {
	return &OrderHandler{
		BaseHandler: base,
		service:     service,
		invoices:    invoices,
	}
}

func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, o); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := orders.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")

	if status := c.Query("status"); status != "" {
		val := orders.Status(status)
		filter.Status = &val
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.OrderResponse, len(result.Items))
	for i, o := range result.Items {
		items[i] = dto.FromOrder(o)
	}

	c.JSON(http.StatusOK, dto.ListResponse[*dto.OrderResponse]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// UpdateStatus moves the order along its status machine.
// PUT /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), orderID, orders.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// RequestReturn starts a return cycle on one order line.
// POST /orders/:id/returns
func (h *OrderHandler) RequestReturn(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("field", "productId"))
		return
	}

	o, err := h.service.RequestReturn(c.Request.Context(), orderID, productID, req.Quantity, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// ReviewReturn applies the supplier's decision on a pending return.
// PUT /orders/:id/returns
func (h *OrderHandler) ReviewReturn(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReviewReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("field", "productId"))
		return
	}

	o, err := h.service.UpdateReturnStatus(c.Request.Context(), orderID, productID, orders.ReturnStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// AddDispute raises a dispute on the order.
// POST /orders/:id/disputes
func (h *OrderHandler) AddDispute(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AddDisputeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.AddDispute(c.Request.Context(), orderID, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// UpdateDisputeStatus moves a dispute along its machine.
// PUT /orders/:id/disputes/:disputeId
func (h *OrderHandler) UpdateDisputeStatus(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	disputeID, err := id.Parse(c.Param("disputeId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid dispute id format"))
		return
	}

	var req dto.UpdateDisputeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.UpdateDisputeStatus(c.Request.Context(), orderID, disputeID, orders.DisputeStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// Invoice renders the invoice for the order.
// GET /orders/:id/invoice
func (h *OrderHandler) Invoice(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	inv, err := h.invoices.Generate(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, inv.Text())
		return
	}

	h.OK(c, inv)
}

// RegisterRoutes registers order routes.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/status", h.UpdateStatus)
	rg.POST("/:id/returns", h.RequestReturn)
	rg.PUT("/:id/returns", h.ReviewReturn)
	rg.POST("/:id/disputes", h.AddDispute)
	rg.PUT("/:id/disputes/:disputeId", h.UpdateDisputeStatus)
	rg.GET("/:id/invoice", h.Invoice)
}
