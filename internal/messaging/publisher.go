package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"ramen-house/internal/logger"
	"ramen-house/internal/models"
)

// Publisher publishes order events to RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderConfirmed publishes the order-confirmed event with persistent
// delivery. Callers treat failures as best-effort.
func (p *Publisher) PublishOrderConfirmed(ctx context.Context, order *models.Order) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(models.NewOrderConfirmedEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: 2, // persistent
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		OrderEventsExchange,
		RoutingKeyOrderConfirmed,
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish event to exchange %s", OrderEventsExchange),
			"", err, map[string]interface{}{
				"exchange":    OrderEventsExchange,
				"routing_key": RoutingKeyOrderConfirmed,
				"order_id":    order.OrderID,
			})
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published event to exchange %s", OrderEventsExchange),
		"", map[string]interface{}{
			"exchange":    OrderEventsExchange,
			"routing_key": RoutingKeyOrderConfirmed,
			"order_id":    order.OrderID,
		})

	return nil
}

// Close closes the publisher's connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
