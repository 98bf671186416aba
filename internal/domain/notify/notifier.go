// Package notify defines the notification collaborator contract.
// Delivery is best-effort: senders log failures and never propagate them
// into business operations.
package notify

import (
	"context"

	"larder/internal/core/id"
)

// Category classifies a notification for routing and display.
type Category string

const (
	CategoryOrderPlaced Category = "order_placed"
	CategoryOrderStatus Category = "order_status"
	CategoryReturn      Category = "return"
	CategoryDispute     Category = "dispute"
)

// Notification is a message for a single recipient about an order event.
type Notification struct {
	RecipientID string   `json:"recipientId"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Category    Category `json:"category"`
	OrderID     id.ID    `json:"orderId"`
	OrderNumber string   `json:"orderNumber,omitempty"`
}

// Notifier delivers notifications to recipients.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// NopNotifier discards all notifications. Useful when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) Send(ctx context.Context, n Notification) error { return nil }
