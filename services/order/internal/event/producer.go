package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/orderforge/commerce/pkg/kafka"
	"github.com/orderforge/commerce/services/order/internal/domain"
)

// Kafka topic constants for order domain events.
const (
	TopicOrderCreated      = "commerce.order.created"
	TopicOrderStateChanged = "commerce.order.state_changed"
)

// Aggregate type constant.
const AggregateTypeOrder = "order"

// Source identifier for events originating from the order service.
const SourceOrderService = "order-service"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID  string           `json:"order_id"`
	Username string           `json:"username"`
	Products map[string]int64 `json:"products"`
}

// StateChangedData is the payload for an order.state_changed event.
type StateChangedData struct {
	OrderID string            `json:"order_id"`
	State   domain.OrderState `json:"state"`
}

// Producer publishes order domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the order service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		OrderID:  order.OrderID,
		Username: order.Username,
		Products: order.Products,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.OrderID, AggregateTypeOrder, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.OrderID),
		slog.String("username", order.Username),
	)

	return nil
}

// PublishStateChanged publishes an order.state_changed event.
func (p *Producer) PublishStateChanged(ctx context.Context, order *domain.Order) error {
	data := StateChangedData{
		OrderID: order.OrderID,
		State:   order.State,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStateChanged, order.OrderID, AggregateTypeOrder, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create order.state_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStateChanged, event); err != nil {
		return fmt.Errorf("publish order.state_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.state_changed event",
		slog.String("order_id", order.OrderID),
		slog.String("state", string(order.State)),
	)

	return nil
}
