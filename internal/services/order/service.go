package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ramen-house/internal/logger"
	"ramen-house/internal/menu"
	"ramen-house/internal/models"
	"ramen-house/internal/store"
)

// RequestError is a validation failure that maps to a client-facing HTTP
// status. Anything else returned by the service is an internal error.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func invalidInput(message string) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: message}
}

func versionMismatch() *RequestError {
	return &RequestError{Status: http.StatusConflict, Message: "menuVersion mismatch"}
}

// EventPublisher publishes order lifecycle events. Publishing is optional
// and best-effort; the service never fails a request over it.
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, order *models.Order) error
}

// Service validates order payloads against the menu catalog, prices them,
// and persists them through the injected store.
type Service struct {
	menu      *menu.Reader
	store     store.OrderStore
	publisher EventPublisher
	logger    *logger.Logger
}

// NewService creates the order service. publisher may be nil.
func NewService(menuReader *menu.Reader, orderStore store.OrderStore, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		menu:      menuReader,
		store:     orderStore,
		publisher: publisher,
		logger:    log,
	}
}

// CreateOrder validates the raw payload and creates an order.
//
// The payload is the decoded JSON body, with numbers as json.Number so the
// quantity check can distinguish integers from floats. A bound idempotency
// key short-circuits everything: the stored order is returned without
// re-validation, whatever the new payload says. The idempotency lookup and
// the save are separate store operations; two concurrent requests with the
// same key can both pass the lookup, and the second save wins.
func (s *Service) CreateOrder(ctx context.Context, payload map[string]interface{}, idempotencyKey, requestID string) (*models.Order, []string, error) {
	if idempotencyKey != "" {
		if existing, ok := s.store.GetByIdempotencyKey(ctx, idempotencyKey); ok {
			s.logger.Debug("idempotent_replay", "Returning previously created order", requestID, map[string]interface{}{
				"order_id": existing.OrderID,
			})
			return existing, []string{}, nil
		}
	}

	catalog, err := s.menu.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load menu catalog: %w", err)
	}

	version, _ := payload["menuVersion"].(string)
	if version != catalog.MenuVersion {
		return nil, nil, versionMismatch()
	}

	rawItems, ok := payload["items"].([]interface{})
	if !ok || len(rawItems) == 0 {
		return nil, nil, invalidInput("items must be a non-empty array")
	}

	prices := catalog.PriceLookup()

	lines := make([]models.OrderLine, 0, len(rawItems))
	total := 0
	for _, raw := range rawItems {
		item, ok := raw.(map[string]interface{})
		if !ok {
			return nil, nil, invalidInput("each item must be an object")
		}

		menuItemID, _ := item["menuItemId"].(string)
		price, priced := prices[menuItemID]
		if menuItemID == "" || !priced {
			return nil, nil, invalidInput(fmt.Sprintf("invalid menuItemId: %s", menuItemID))
		}

		quantity, ok := positiveInt(item["quantity"])
		if !ok {
			return nil, nil, invalidInput("quantity must be a positive integer")
		}

		lineTotal := price * quantity
		total += lineTotal
		lines = append(lines, models.OrderLine{
			MenuItemID: menuItemID,
			Quantity:   quantity,
			LineTotal:  lineTotal,
		})
	}

	order := &models.Order{
		OrderID:   models.NewOrderID(),
		Status:    models.StatusConfirmed,
		Items:     lines,
		Total:     total,
		Currency:  models.Currency,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Save(ctx, order, idempotencyKey); err != nil {
		return nil, nil, fmt.Errorf("failed to persist order %s: %w", order.OrderID, err)
	}

	s.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_id": order.OrderID,
		"total":    order.Total,
		"items":    len(order.Items),
	})

	if s.publisher != nil {
		if err := s.publisher.PublishOrderConfirmed(ctx, order); err != nil {
			s.logger.Error("event_publish_failed", "Order confirmed event not published", requestID, err, map[string]interface{}{
				"order_id": order.OrderID,
			})
		}
	}

	return order, []string{}, nil
}

// GetOrder is a passthrough to the store.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, bool) {
	return s.store.GetByID(ctx, orderID)
}

// positiveInt accepts only JSON integers strictly greater than zero.
// Floats like 2.5 or 2.0 fail the json.Number integer parse.
func positiveInt(v interface{}) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	q, err := n.Int64()
	if err != nil || q <= 0 {
		return 0, false
	}
	return int(q), true
}
