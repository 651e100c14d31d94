package models

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	// StatusConfirmed is currently the only status an order can have.
	// Orders are immutable once created.
	StatusConfirmed OrderStatus = "confirmed"
)

// Currency is the fixed currency for all orders.
const Currency = "JPY"

// OrderLine is one priced line of an order. LineTotal is snapshotted at
// creation time and never re-derived from the catalog.
type OrderLine struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	LineTotal  int    `json:"lineTotal"`
}

// Order is a confirmed customer order. Created exactly once by the order
// service and owned by the order store afterwards.
type Order struct {
	OrderID   string      `json:"orderId"`
	Status    OrderStatus `json:"status"`
	Items     []OrderLine `json:"items"`
	Total     int         `json:"total"`
	Currency  string      `json:"currency"`
	CreatedAt string      `json:"createdAt"`
}

// CreateOrderResponse is the POST /api/orders response body. It omits the
// order lines; GET returns the full representation.
type CreateOrderResponse struct {
	OrderID            string      `json:"orderId"`
	Status             OrderStatus `json:"status"`
	Total              int         `json:"total"`
	Currency           string      `json:"currency"`
	CreatedAt          string      `json:"createdAt"`
	ValidationWarnings []string    `json:"validationWarnings"`
}

// NewOrderID generates a unique URL-safe order id.
func NewOrderID() string {
	id := uuid.New()
	return "ord_" + hex.EncodeToString(id[:])[:8]
}
