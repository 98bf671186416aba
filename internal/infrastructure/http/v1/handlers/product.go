package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"larder/internal/core/apperror"
	"larder/internal/core/id"
	"larder/internal/domain"
	"larder/internal/domain/catalogs/product"
	"larder/internal/domain/stock"
	"larder/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for the product catalog and stock.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
	stock   *stock.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, stockSvc *stock.Service) *ProductHandler {
	return &ProductHandler{
		BaseHandler: base,
		service:     service,
		stock:       stockSvc,
	}
}

func (h *ProductHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromProduct(p))
}

func (h *ProductHandler) Get(c *gin.Context) {
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

func (h *ProductHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(p)

	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

func (h *ProductHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.parseFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respondList(c, result)
}

// LowStock lists products at or below their minimum stock level.
// GET /products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	result, err := h.service.FindLowStock(c.Request.Context(), h.parseFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respondList(c, result)
}

// Expiring lists products expiring within the given window (days).
// GET /products/expiring?days=7
func (h *ProductHandler) Expiring(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 7)
	window := time.Duration(days) * 24 * time.Hour

	result, err := h.service.FindExpiring(c.Request.Context(), window, h.parseFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.respondList(c, result)
}

// AdjustStock applies a signed delta to the product's on-hand quantity.
// POST /products/:id/stock/adjust
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.stock.ManualAdjust(c.Request.Context(), productID, req.Delta)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// SetStock replaces the product's on-hand quantity after a stock take.
// PUT /products/:id/stock
func (h *ProductHandler) SetStock(c *gin.Context) {
	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.stock.SetQuantity(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

func (h *ProductHandler) parseFilter(c *gin.Context) product.ListFilter {
	filter := product.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.Category = c.Query("category")

	if supplierID := c.Query("supplierId"); supplierID != "" {
		if parsed, err := id.Parse(supplierID); err == nil {
			filter.SupplierID = &parsed
		}
	}

	if location := c.Query("location"); location != "" {
		val := product.Location(location)
		filter.Location = &val
	}

	if status := c.Query("stockStatus"); status != "" {
		val := product.StockStatus(status)
		filter.StockStatus = &val
	}

	return filter
}

func (h *ProductHandler) respondList(c *gin.Context, result domain.ListResult[*product.Product]) {
	items := make([]*dto.ProductResponse, len(result.Items))
	for i, p := range result.Items {
		items[i] = dto.FromProduct(p)
	}

	c.JSON(http.StatusOK, dto.ListResponse[*dto.ProductResponse]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// RegisterRoutes registers product routes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/low-stock", h.LowStock)
	rg.GET("/expiring", h.Expiring)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/stock/adjust", h.AdjustStock)
	rg.PUT("/:id/stock", h.SetStock)
}
