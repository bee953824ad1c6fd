package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/payment/internal/client"
	"github.com/orderforge/commerce/services/payment/internal/domain"
	"github.com/orderforge/commerce/services/payment/internal/event"
	"github.com/orderforge/commerce/services/payment/internal/repository"
)

// PriceSource resolves catalog unit prices. Satisfied by the Redis-backed
// price cache and, in tests, by the catalog client directly.
type PriceSource interface {
	GetPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
}

// PaymentService implements the business logic for the payment ledger.
type PaymentService struct {
	repo     repository.PaymentRepository
	prices   PriceSource
	order    client.OrderClient
	producer *event.Producer
	logger   *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	repo repository.PaymentRepository,
	prices PriceSource,
	order client.OrderClient,
	producer *event.Producer,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		repo:     repo,
		prices:   prices,
		order:    order,
		producer: producer,
		logger:   logger,
	}
}

// InitiateInput is the order price snapshot a payment is opened against.
// All amounts are optional; absent values simply count as zero.
type InitiateInput struct {
	OrderID       string
	ProductPrice  *decimal.Decimal
	TotalPayment  *decimal.Decimal
	DeliveryPrice *decimal.Decimal
}

// Initiate opens a new PENDING payment for an order, freezing the price
// snapshot current at this instant. The VAT fee is derived from the product
// price; the totals are copied as given.
func (s *PaymentService) Initiate(ctx context.Context, in InitiateInput) (*domain.Payment, error) {
	if in.OrderID == "" {
		return nil, apperrors.InvalidInput("order_id is required")
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		PaymentID:     uuid.NewString(),
		OrderID:       in.OrderID,
		State:         domain.StatePending,
		TotalPayment:  valueOrZero(in.TotalPayment),
		DeliveryTotal: valueOrZero(in.DeliveryPrice),
		FeeTotal:      domain.FeeTotal(in.ProductPrice),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	if err := s.producer.PublishPaymentInitiated(ctx, payment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment.initiated event",
			slog.String("payment_id", payment.PaymentID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "payment initiated",
		slog.String("payment_id", payment.PaymentID),
		slog.String("order_id", in.OrderID),
		slog.String("total_payment", payment.TotalPayment.String()),
	)

	return payment, nil
}

// GetByID fetches a payment by its id.
func (s *PaymentService) GetByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, apperrors.InvalidInput("payment_id is required")
	}
	return s.repo.GetByID(ctx, paymentID)
}

// ProductsTotal prices the order's product map against the catalog. An empty
// map totals zero without a catalog round trip; any product without a
// resolvable price aborts the calculation.
func (s *PaymentService) ProductsTotal(ctx context.Context, quantities map[string]int64) (decimal.Decimal, error) {
	if len(quantities) == 0 {
		return decimal.Zero, nil
	}
	if err := validateQuantities(quantities); err != nil {
		return decimal.Zero, err
	}

	prices, err := s.prices.GetPrices(ctx, mapKeys(quantities))
	if err != nil {
		return decimal.Zero, apperrors.Upstream("catalog", err)
	}

	return domain.ProductsSubtotal(prices, quantities)
}

// GrandTotal computes the VAT-inclusive order total plus delivery.
func (s *PaymentService) GrandTotal(ctx context.Context, quantities map[string]int64, deliveryPrice *decimal.Decimal) (decimal.Decimal, error) {
	subtotal, err := s.ProductsTotal(ctx, quantities)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.GrandTotal(subtotal, deliveryPrice), nil
}

// EmulateSuccess settles a payment: the order coordinator is asked to mark
// the order paid first, and only then does the payment move to SUCCESS. A
// failed callback leaves the ledger untouched.
func (s *PaymentService) EmulateSuccess(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := s.order.NotifyPaid(ctx, payment.OrderID); err != nil {
		return nil, apperrors.Upstream("order", err)
	}

	updated, err := s.repo.UpdateState(ctx, paymentID, domain.StateSuccess)
	if err != nil {
		return nil, fmt.Errorf("mark payment success: %w", err)
	}

	s.publishStateChanged(ctx, updated)
	s.logger.InfoContext(ctx, "payment succeeded",
		slog.String("payment_id", paymentID),
		slog.String("order_id", payment.OrderID),
	)

	return updated, nil
}

// EmulateDecline declines a payment. A payment already settled either way
// cannot be declined again; otherwise the coordinator is notified first and
// the payment then moves to FAILED.
func (s *PaymentService) EmulateDecline(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.State.IsTerminal() {
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"payment %s is %s: invalid state for decline", paymentID, payment.State))
	}

	if err := s.order.NotifyPaymentFailed(ctx, payment.OrderID); err != nil {
		return nil, apperrors.Upstream("order", err)
	}

	updated, err := s.repo.UpdateState(ctx, paymentID, domain.StateFailed)
	if err != nil {
		return nil, fmt.Errorf("mark payment failed: %w", err)
	}

	s.publishStateChanged(ctx, updated)
	s.logger.InfoContext(ctx, "payment declined",
		slog.String("payment_id", paymentID),
		slog.String("order_id", payment.OrderID),
	)

	return updated, nil
}

// publishStateChanged emits the state change event, logging publish failures.
func (s *PaymentService) publishStateChanged(ctx context.Context, payment *domain.Payment) {
	if err := s.producer.PublishStateChanged(ctx, payment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment.state_changed event",
			slog.String("payment_id", payment.PaymentID),
			slog.String("error", err.Error()),
		)
	}
}

// validateQuantities rejects non-positive quantities and blank product ids.
func validateQuantities(quantities map[string]int64) error {
	for productID, qty := range quantities {
		if productID == "" {
			return apperrors.InvalidInput("product id cannot be blank")
		}
		if qty <= 0 {
			return apperrors.InvalidInput(fmt.Sprintf("quantity for product %s must be positive, got %d", productID, qty))
		}
	}
	return nil
}

// mapKeys returns the keys of a quantity map.
func mapKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// valueOrZero dereferences an optional decimal.
func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
