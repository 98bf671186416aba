// Package invoice renders invoices for orders. Name resolution is
// best-effort: when a party or product cannot be resolved the invoice
// falls back to the raw identifier instead of failing.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	appctx "larder/internal/core/context"
	"larder/internal/core/id"
	"larder/internal/core/security"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/product"
	"larder/internal/domain/orders"
	"larder/pkg/logger"
)

// Orders loads the order aggregate. Satisfied by *orders.Service.
type Orders interface {
	GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error)
}

// Products resolves product details for line descriptions.
type Products interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// PartyDirectory resolves party display names.
type PartyDirectory interface {
	PartyName(ctx context.Context, partyID id.ID) (string, error)
}

// Line is a rendered invoice line.
type Line struct {
	LineNo      int         `json:"lineNo"`
	Description string      `json:"description"`
	Unit        string      `json:"unit,omitempty"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	Amount      types.Money `json:"amount"`
}

// Invoice is the rendered document for one order.
type Invoice struct {
	Number      string    `json:"number"`
	OrderNumber string    `json:"orderNumber"`
	IssuedAt    time.Time `json:"issuedAt"`

	ShopkeeperName string `json:"shopkeeperName"`
	SupplierName   string `json:"supplierName"`

	Lines         []Line               `json:"lines"`
	Total         types.Money          `json:"total"`
	PaymentStatus orders.PaymentStatus `json:"paymentStatus"`
	PaymentMethod orders.PaymentMethod `json:"paymentMethod"`
}

// Text renders the invoice as plain text.
func (inv *Invoice) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s for order %s\n", inv.Number, inv.OrderNumber)
	fmt.Fprintf(&b, "Issued: %s\n", inv.IssuedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Supplier: %s\n", inv.SupplierName)
	fmt.Fprintf(&b, "Shopkeeper: %s\n\n", inv.ShopkeeperName)
	for _, l := range inv.Lines {
		fmt.Fprintf(&b, "%3d  %-40s %6d %-6s %10s %12s\n",
			l.LineNo, l.Description, l.Quantity, l.Unit,
			l.UnitPrice.StringFixed(2), l.Amount.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", inv.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment: %s (%s)\n", inv.PaymentStatus, inv.PaymentMethod)
	return b.String()
}

// Service generates invoices.
type Service struct {
	orders    Orders
	products  Products
	directory PartyDirectory // optional
}

// NewService creates a new invoice service. The directory may be nil, in
// which case party names render as raw identifiers.
func NewService(ordersSvc Orders, products Products, directory PartyDirectory) *Service {
	return &Service{
		orders:    ordersSvc,
		products:  products,
		directory: directory,
	}
}

// Generate renders the invoice for an order. Both parties and superadmins
// may request it.
func (s *Service) Generate(ctx context.Context, orderID id.ID) (*Invoice, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	parties := security.Parties{
		ShopkeeperID: o.ShopkeeperID.String(),
		SupplierID:   o.SupplierID.String(),
	}
	if err := security.Authorize(appctx.GetUser(ctx), security.OpOrderInvoice, parties); err != nil {
		return nil, err
	}

	inv := &Invoice{
		Number:         invoiceNumber(o.Number),
		OrderNumber:    o.Number,
		IssuedAt:       time.Now().UTC(),
		ShopkeeperName: s.partyName(ctx, o.ShopkeeperID),
		SupplierName:   s.partyName(ctx, o.SupplierID),
		Total:          o.TotalAmount,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
	}

	for i := range o.Lines {
		line := &o.Lines[i]
		description, unit := s.productInfo(ctx, line.ProductID)
		inv.Lines = append(inv.Lines, Line{
			LineNo:      line.LineNo,
			Description: description,
			Unit:        unit,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
			Amount:      line.Amount(),
		})
	}

	return inv, nil
}

// invoiceNumber derives the invoice number from the order number,
// ORD26031234 -> INV26031234.
func invoiceNumber(orderNumber string) string {
	if rest, ok := strings.CutPrefix(orderNumber, "ORD"); ok {
		return "INV" + rest
	}
	return "INV" + orderNumber
}

func (s *Service) partyName(ctx context.Context, partyID id.ID) string {
	if s.directory == nil {
		return partyID.String()
	}
	name, err := s.directory.PartyName(ctx, partyID)
	if err != nil || name == "" {
		logger.Warn(ctx, "party name lookup failed, falling back to id",
			"party_id", partyID, "error", err)
		return partyID.String()
	}
	return name
}

func (s *Service) productInfo(ctx context.Context, productID id.ID) (description, unit string) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		logger.Warn(ctx, "product lookup failed, falling back to id",
			"product_id", productID, "error", err)
		return productID.String(), ""
	}
	return p.Name, p.Unit
}
