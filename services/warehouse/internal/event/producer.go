package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/orderforge/commerce/pkg/kafka"
)

// Kafka topic constants for warehouse domain events.
const (
	TopicStockAdjusted    = "commerce.warehouse.stock_adjusted"
	TopicBookingAssembled = "commerce.warehouse.booking_assembled"
	TopicStockReturned    = "commerce.warehouse.stock_returned"
)

// Aggregate type constant.
const AggregateTypeStock = "product_stock"

// Source identifier for events originating from the warehouse service.
const SourceWarehouseService = "warehouse-service"

// StockAdjustedData is the payload for a warehouse.stock_adjusted event.
type StockAdjustedData struct {
	ProductID string `json:"product_id"`
	Delta     int64  `json:"delta"`
	Quantity  int64  `json:"quantity"`
	Reason    string `json:"reason"`
}

// BookingAssembledData is the payload for a warehouse.booking_assembled event.
type BookingAssembledData struct {
	OrderID  string           `json:"order_id"`
	Products map[string]int64 `json:"products"`
}

// StockReturnedData is the payload for a warehouse.stock_returned event.
type StockReturnedData struct {
	Products map[string]int64 `json:"products"`
}

// Producer publishes warehouse domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the warehouse service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishStockAdjusted publishes a warehouse.stock_adjusted event.
func (p *Producer) PublishStockAdjusted(ctx context.Context, productID string, delta, quantity int64, reason string) error {
	data := StockAdjustedData{
		ProductID: productID,
		Delta:     delta,
		Quantity:  quantity,
		Reason:    reason,
	}

	event, err := pkgkafka.NewEvent(TopicStockAdjusted, productID, AggregateTypeStock, SourceWarehouseService, data)
	if err != nil {
		return fmt.Errorf("create warehouse.stock_adjusted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStockAdjusted, event); err != nil {
		return fmt.Errorf("publish warehouse.stock_adjusted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published warehouse.stock_adjusted event",
		slog.String("product_id", productID),
		slog.Int64("delta", delta),
	)

	return nil
}

// PublishBookingAssembled publishes a warehouse.booking_assembled event.
func (p *Producer) PublishBookingAssembled(ctx context.Context, orderID string, products map[string]int64) error {
	data := BookingAssembledData{
		OrderID:  orderID,
		Products: products,
	}

	event, err := pkgkafka.NewEvent(TopicBookingAssembled, orderID, AggregateTypeStock, SourceWarehouseService, data)
	if err != nil {
		return fmt.Errorf("create warehouse.booking_assembled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookingAssembled, event); err != nil {
		return fmt.Errorf("publish warehouse.booking_assembled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published warehouse.booking_assembled event",
		slog.String("order_id", orderID),
	)

	return nil
}

// PublishStockReturned publishes a warehouse.stock_returned event.
func (p *Producer) PublishStockReturned(ctx context.Context, products map[string]int64) error {
	data := StockReturnedData{Products: products}

	event, err := pkgkafka.NewEvent(TopicStockReturned, "", AggregateTypeStock, SourceWarehouseService, data)
	if err != nil {
		return fmt.Errorf("create warehouse.stock_returned event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStockReturned, event); err != nil {
		return fmt.Errorf("publish warehouse.stock_returned event: %w", err)
	}

	p.logger.DebugContext(ctx, "published warehouse.stock_returned event",
		slog.Int("product_count", len(products)),
	)

	return nil
}
