package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/warehouse/internal/domain"
	"github.com/orderforge/commerce/services/warehouse/internal/event"
	"github.com/orderforge/commerce/services/warehouse/internal/repository"
)

// Address is the warehouse's physical address, injected from configuration at
// startup and held for the process lifetime.
type Address struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Street  string `json:"street"`
	House   string `json:"house"`
	Flat    string `json:"flat,omitempty"`
}

// WarehouseService implements the business logic for the inventory ledger.
type WarehouseService struct {
	stockRepo   repository.StockRepository
	bookingRepo repository.BookingRepository
	producer    *event.Producer
	logger      *slog.Logger
	address     Address
}

// NewWarehouseService creates a new warehouse service.
func NewWarehouseService(
	stockRepo repository.StockRepository,
	bookingRepo repository.BookingRepository,
	producer *event.Producer,
	logger *slog.Logger,
	address Address,
) *WarehouseService {
	return &WarehouseService{
		stockRepo:   stockRepo,
		bookingRepo: bookingRepo,
		producer:    producer,
		logger:      logger,
		address:     address,
	}
}

// RegisterProduct creates a new product stock line with zero quantity.
// A duplicate product id is rejected as already registered.
func (s *WarehouseService) RegisterProduct(ctx context.Context, stock *domain.ProductStock) (*domain.ProductStock, error) {
	if stock.ProductID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if !stock.Weight.IsPositive() {
		return nil, apperrors.InvalidInput("weight must be positive")
	}
	if !stock.Width.IsPositive() || !stock.Height.IsPositive() || !stock.Depth.IsPositive() {
		return nil, apperrors.InvalidInput("dimensions must be positive")
	}

	stock.Quantity = 0
	stock.UpdatedAt = time.Now().UTC()

	if err := s.stockRepo.CreateStock(ctx, stock); err != nil {
		return nil, fmt.Errorf("register product: %w", err)
	}

	s.logger.InfoContext(ctx, "product registered",
		slog.String("product_id", stock.ProductID),
		slog.Bool("fragile", stock.Fragile),
	)

	return stock, nil
}

// Restock increments the stock quantity for an existing product.
func (s *WarehouseService) Restock(ctx context.Context, productID string, delta int64) (*domain.ProductStock, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if delta <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}

	stock, err := s.stockRepo.AddQuantity(ctx, productID, delta)
	if err != nil {
		return nil, fmt.Errorf("restock: %w", err)
	}

	if err := s.producer.PublishStockAdjusted(ctx, productID, delta, stock.Quantity, "restock"); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish warehouse.stock_adjusted event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "stock replenished",
		slog.String("product_id", productID),
		slog.Int64("delta", delta),
		slog.Int64("quantity", stock.Quantity),
	)

	return stock, nil
}

// ProjectBooking computes the physical footprint of the requested quantities
// without mutating stock. An empty map yields a zero summary.
func (s *WarehouseService) ProjectBooking(ctx context.Context, quantities map[string]int64) (domain.BookingSummary, error) {
	if len(quantities) == 0 {
		return domain.BookingSummary{Weight: decimal.Zero, Volume: decimal.Zero}, nil
	}
	if err := validateQuantities(quantities); err != nil {
		return domain.BookingSummary{}, err
	}

	stocks, err := s.stockRepo.GetStocks(ctx, mapKeys(quantities))
	if err != nil {
		return domain.BookingSummary{}, fmt.Errorf("project booking: %w", err)
	}

	return domain.ProjectBooking(stocks, quantities)
}

// Assemble reserves the exact quantities for an order: validates availability,
// decrements stock, and records the booking, all atomically.
func (s *WarehouseService) Assemble(ctx context.Context, orderID string, quantities map[string]int64) error {
	if orderID == "" {
		return apperrors.InvalidInput("order_id is required")
	}
	if len(quantities) == 0 {
		return apperrors.InvalidInput("products map cannot be empty")
	}
	if err := validateQuantities(quantities); err != nil {
		return err
	}

	if err := s.bookingRepo.AssembleBooking(ctx, orderID, quantities); err != nil {
		return fmt.Errorf("assemble order: %w", err)
	}

	if err := s.producer.PublishBookingAssembled(ctx, orderID, quantities); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish warehouse.booking_assembled event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order assembled",
		slog.String("order_id", orderID),
		slog.Int("product_count", len(quantities)),
	)

	return nil
}

// ReturnToStock increments stock for each returned product.
func (s *WarehouseService) ReturnToStock(ctx context.Context, quantities map[string]int64) error {
	if len(quantities) == 0 {
		return apperrors.InvalidInput("products map cannot be empty")
	}
	if err := validateQuantities(quantities); err != nil {
		return err
	}

	if err := s.stockRepo.ReturnToStock(ctx, quantities); err != nil {
		return fmt.Errorf("return to stock: %w", err)
	}

	if err := s.producer.PublishStockReturned(ctx, quantities); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish warehouse.stock_returned event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "products returned to stock",
		slog.Int("product_count", len(quantities)),
	)

	return nil
}

// AttachDelivery records the delivery id on an order's booking after the
// shipment is handed over.
func (s *WarehouseService) AttachDelivery(ctx context.Context, orderID, deliveryID string) error {
	if orderID == "" {
		return apperrors.InvalidInput("order_id is required")
	}
	if deliveryID == "" {
		return apperrors.InvalidInput("delivery_id is required")
	}

	if err := s.bookingRepo.AttachDelivery(ctx, orderID, deliveryID); err != nil {
		return fmt.Errorf("attach delivery: %w", err)
	}

	s.logger.InfoContext(ctx, "delivery attached to booking",
		slog.String("order_id", orderID),
		slog.String("delivery_id", deliveryID),
	)

	return nil
}

// Address returns the warehouse's configured address.
func (s *WarehouseService) Address() Address {
	return s.address
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
