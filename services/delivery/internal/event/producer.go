package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/orderforge/commerce/pkg/kafka"
	"github.com/orderforge/commerce/services/delivery/internal/domain"
)

// Kafka topic constants for delivery domain events.
const (
	TopicDeliveryCreated      = "commerce.delivery.created"
	TopicDeliveryStateChanged = "commerce.delivery.state_changed"
)

// Aggregate type constant.
const AggregateTypeDelivery = "delivery"

// Source identifier for events originating from the delivery service.
const SourceDeliveryService = "delivery-service"

// DeliveryCreatedData is the payload for a delivery.created event.
type DeliveryCreatedData struct {
	DeliveryID string `json:"delivery_id"`
	OrderID    string `json:"order_id"`
	FromStreet string `json:"from_street"`
	ToStreet   string `json:"to_street"`
}

// StateChangedData is the payload for a delivery.state_changed event.
type StateChangedData struct {
	DeliveryID string               `json:"delivery_id"`
	OrderID    string               `json:"order_id"`
	State      domain.DeliveryState `json:"state"`
}

// Producer publishes delivery domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the delivery service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishDeliveryCreated publishes a delivery.created event.
func (p *Producer) PublishDeliveryCreated(ctx context.Context, delivery *domain.Delivery) error {
	data := DeliveryCreatedData{
		DeliveryID: delivery.DeliveryID,
		OrderID:    delivery.OrderID,
		FromStreet: delivery.FromAddress.Street,
		ToStreet:   delivery.ToAddress.Street,
	}

	event, err := pkgkafka.NewEvent(TopicDeliveryCreated, delivery.DeliveryID, AggregateTypeDelivery, SourceDeliveryService, data)
	if err != nil {
		return fmt.Errorf("create delivery.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicDeliveryCreated, event); err != nil {
		return fmt.Errorf("publish delivery.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published delivery.created event",
		slog.String("delivery_id", delivery.DeliveryID),
		slog.String("order_id", delivery.OrderID),
	)

	return nil
}

// PublishStateChanged publishes a delivery.state_changed event.
func (p *Producer) PublishStateChanged(ctx context.Context, delivery *domain.Delivery) error {
	data := StateChangedData{
		DeliveryID: delivery.DeliveryID,
		OrderID:    delivery.OrderID,
		State:      delivery.State,
	}

	event, err := pkgkafka.NewEvent(TopicDeliveryStateChanged, delivery.DeliveryID, AggregateTypeDelivery, SourceDeliveryService, data)
	if err != nil {
		return fmt.Errorf("create delivery.state_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicDeliveryStateChanged, event); err != nil {
		return fmt.Errorf("publish delivery.state_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published delivery.state_changed event",
		slog.String("delivery_id", delivery.DeliveryID),
		slog.String("state", string(delivery.State)),
	)

	return nil
}
