package models

// OrderConfirmedEvent is published after an order has been persisted.
// Consumers (kitchen displays, notification senders) only need the order
// summary; the full order is available over the REST API.
type OrderConfirmedEvent struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
	ItemCount int    `json:"item_count"`
}

// NewOrderConfirmedEvent builds the event payload for a persisted order.
func NewOrderConfirmedEvent(order *Order) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		OrderID:   order.OrderID,
		Status:    string(order.Status),
		Total:     order.Total,
		Currency:  order.Currency,
		CreatedAt: order.CreatedAt,
		ItemCount: len(order.Items),
	}
}
