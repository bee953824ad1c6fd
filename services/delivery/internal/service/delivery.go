package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/delivery/internal/client"
	"github.com/orderforge/commerce/services/delivery/internal/domain"
	"github.com/orderforge/commerce/services/delivery/internal/event"
	"github.com/orderforge/commerce/services/delivery/internal/repository"
)

// DeliveryService implements the business logic for the delivery ledger.
type DeliveryService struct {
	repo      repository.DeliveryRepository
	warehouse client.WarehouseClient
	order     client.OrderClient
	producer  *event.Producer
	logger    *slog.Logger
	tariff    domain.Tariff
}

// NewDeliveryService creates a new delivery service.
func NewDeliveryService(
	repo repository.DeliveryRepository,
	warehouse client.WarehouseClient,
	order client.OrderClient,
	producer *event.Producer,
	logger *slog.Logger,
	tariff domain.Tariff,
) *DeliveryService {
	return &DeliveryService{
		repo:      repo,
		warehouse: warehouse,
		order:     order,
		producer:  producer,
		logger:    logger,
		tariff:    tariff,
	}
}

// CostRequest is the order snapshot the cost calculation prices. Weight and
// volume are optional; absent values simply contribute nothing.
type CostRequest struct {
	DestinationStreet string
	Fragile           bool
	Weight            *decimal.Decimal
	Volume            *decimal.Decimal
}

// CreateDelivery registers a new shipment for an order in the CREATED state.
// The caller supplies both endpoints; the ledger persists them verbatim.
func (s *DeliveryService) CreateDelivery(ctx context.Context, orderID string, from, to domain.Address) (*domain.Delivery, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("order_id is required")
	}
	if from.Street == "" {
		return nil, apperrors.InvalidInput("from address street is required")
	}
	if to.Street == "" {
		return nil, apperrors.InvalidInput("to address street is required")
	}

	now := time.Now().UTC()
	delivery := &domain.Delivery{
		DeliveryID:  uuid.NewString(),
		OrderID:     orderID,
		FromAddress: from,
		ToAddress:   to,
		State:       domain.StateCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateDelivery(ctx, delivery); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	if err := s.producer.PublishDeliveryCreated(ctx, delivery); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish delivery.created event",
			slog.String("delivery_id", delivery.DeliveryID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "delivery created",
		slog.String("delivery_id", delivery.DeliveryID),
		slog.String("order_id", orderID),
	)

	return delivery, nil
}

// GetByOrderID fetches the shipment linked to the given order.
func (s *DeliveryService) GetByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("order_id is required")
	}
	return s.repo.GetByOrderID(ctx, orderID)
}

// PickUp hands the shipment over to the courier: it records the delivery id
// on the order's warehouse booking, then moves the shipment to IN_PROGRESS.
// Any prior state is accepted; the coordinator sequences its calls and this
// ledger does not second-guess it. A warehouse failure leaves the state as is.
func (s *DeliveryService) PickUp(ctx context.Context, orderID string) (*domain.Delivery, error) {
	delivery, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.warehouse.AttachDelivery(ctx, orderID, delivery.DeliveryID); err != nil {
		return nil, apperrors.Upstream("warehouse", err)
	}

	updated, err := s.repo.UpdateState(ctx, orderID, domain.StateInProgress)
	if err != nil {
		return nil, fmt.Errorf("mark delivery in progress: %w", err)
	}

	s.publishStateChanged(ctx, updated)
	s.logger.InfoContext(ctx, "delivery picked up",
		slog.String("delivery_id", updated.DeliveryID),
		slog.String("order_id", orderID),
	)

	return updated, nil
}

// EmulatePickup drives the order coordinator's item-pickup path for the given
// order. The ledger itself does not change state here; the coordinator calls
// back through PickUp once it has advanced its own order.
func (s *DeliveryService) EmulatePickup(ctx context.Context, orderID string) error {
	if _, err := s.GetByOrderID(ctx, orderID); err != nil {
		return err
	}

	if err := s.order.NotifyPickup(ctx, orderID); err != nil {
		return apperrors.Upstream("order", err)
	}

	s.logger.InfoContext(ctx, "pickup emulated", slog.String("order_id", orderID))
	return nil
}

// EmulateDelivered reports a successful delivery: the coordinator is asked to
// complete the order first, and only then does the shipment move to DELIVERED.
// A failed callback leaves the ledger untouched.
func (s *DeliveryService) EmulateDelivered(ctx context.Context, orderID string) (*domain.Delivery, error) {
	return s.finish(ctx, orderID, domain.StateDelivered, s.order.NotifyDelivered)
}

// EmulateFailed reports a failed delivery: the coordinator is notified first,
// then the shipment moves to FAILED.
func (s *DeliveryService) EmulateFailed(ctx context.Context, orderID string) (*domain.Delivery, error) {
	return s.finish(ctx, orderID, domain.StateFailed, s.order.NotifyFailed)
}

// finish runs the shared notify-then-transition flow for the terminal states.
func (s *DeliveryService) finish(
	ctx context.Context,
	orderID string,
	target domain.DeliveryState,
	notify func(context.Context, string) error,
) (*domain.Delivery, error) {
	delivery, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !delivery.State.CanTransitionTo(target) {
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"delivery for order %s is %s and cannot move to %s", orderID, delivery.State, target))
	}

	if err := notify(ctx, orderID); err != nil {
		return nil, apperrors.Upstream("order", err)
	}

	updated, err := s.repo.UpdateState(ctx, orderID, target)
	if err != nil {
		return nil, fmt.Errorf("mark delivery %s: %w", target, err)
	}

	s.publishStateChanged(ctx, updated)
	s.logger.InfoContext(ctx, "delivery state changed",
		slog.String("delivery_id", updated.DeliveryID),
		slog.String("order_id", orderID),
		slog.String("state", string(target)),
	)

	return updated, nil
}

// CalculateCost prices a delivery from the current warehouse address and the
// given order snapshot. The calculation is stateless; no shipment is touched.
func (s *DeliveryService) CalculateCost(ctx context.Context, req CostRequest) (decimal.Decimal, error) {
	warehouseAddr, err := s.warehouse.GetAddress(ctx)
	if err != nil {
		return decimal.Zero, apperrors.Upstream("warehouse", err)
	}

	cost := domain.CalculateCost(s.tariff, domain.CostInput{
		WarehouseStreet:   warehouseAddr.Street,
		DestinationStreet: req.DestinationStreet,
		Fragile:           req.Fragile,
		Weight:            req.Weight,
		Volume:            req.Volume,
	})

	s.logger.InfoContext(ctx, "delivery cost calculated",
		slog.String("warehouse_street", warehouseAddr.Street),
		slog.String("cost", cost.String()),
	)

	return cost, nil
}

// publishStateChanged emits the state change event, logging publish failures.
func (s *DeliveryService) publishStateChanged(ctx context.Context, delivery *domain.Delivery) {
	if err := s.producer.PublishStateChanged(ctx, delivery); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish delivery.state_changed event",
			slog.String("delivery_id", delivery.DeliveryID),
			slog.String("error", err.Error()),
		)
	}
}
