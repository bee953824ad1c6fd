package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/orderforge/commerce/pkg/kafka"
	"github.com/orderforge/commerce/services/payment/internal/domain"
)

// Kafka topic constants for payment domain events.
const (
	TopicPaymentInitiated    = "commerce.payment.initiated"
	TopicPaymentStateChanged = "commerce.payment.state_changed"
)

// Aggregate type constant.
const AggregateTypePayment = "payment"

// Source identifier for events originating from the payment service.
const SourcePaymentService = "payment-service"

// PaymentInitiatedData is the payload for a payment.initiated event.
type PaymentInitiatedData struct {
	PaymentID    string `json:"payment_id"`
	OrderID      string `json:"order_id"`
	TotalPayment string `json:"total_payment"`
	FeeTotal     string `json:"fee_total"`
}

// StateChangedData is the payload for a payment.state_changed event.
type StateChangedData struct {
	PaymentID string              `json:"payment_id"`
	OrderID   string              `json:"order_id"`
	State     domain.PaymentState `json:"state"`
}

// Producer publishes payment domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the payment service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishPaymentInitiated publishes a payment.initiated event.
func (p *Producer) PublishPaymentInitiated(ctx context.Context, payment *domain.Payment) error {
	data := PaymentInitiatedData{
		PaymentID:    payment.PaymentID,
		OrderID:      payment.OrderID,
		TotalPayment: payment.TotalPayment.String(),
		FeeTotal:     payment.FeeTotal.String(),
	}

	event, err := pkgkafka.NewEvent(TopicPaymentInitiated, payment.PaymentID, AggregateTypePayment, SourcePaymentService, data)
	if err != nil {
		return fmt.Errorf("create payment.initiated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentInitiated, event); err != nil {
		return fmt.Errorf("publish payment.initiated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.initiated event",
		slog.String("payment_id", payment.PaymentID),
		slog.String("order_id", payment.OrderID),
	)

	return nil
}

// PublishStateChanged publishes a payment.state_changed event.
func (p *Producer) PublishStateChanged(ctx context.Context, payment *domain.Payment) error {
	data := StateChangedData{
		PaymentID: payment.PaymentID,
		OrderID:   payment.OrderID,
		State:     payment.State,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentStateChanged, payment.PaymentID, AggregateTypePayment, SourcePaymentService, data)
	if err != nil {
		return fmt.Errorf("create payment.state_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentStateChanged, event); err != nil {
		return fmt.Errorf("publish payment.state_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.state_changed event",
		slog.String("payment_id", payment.PaymentID),
		slog.String("state", string(payment.State)),
	)

	return nil
}
