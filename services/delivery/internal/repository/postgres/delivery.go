package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orderforge/commerce/pkg/database"
	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/delivery/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// DeliveryRepository implements repository.DeliveryRepository using PostgreSQL.
// Addresses are stored as JSONB documents; the ledger never queries into them.
type DeliveryRepository struct {
	pool database.DBTX
}

// NewDeliveryRepository creates a new PostgreSQL-backed delivery repository.
func NewDeliveryRepository(pool database.DBTX) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// CreateDelivery inserts a new shipment. The unique index on order_id keeps
// the order-to-delivery link 1:1.
func (r *DeliveryRepository) CreateDelivery(ctx context.Context, delivery *domain.Delivery) error {
	fromJSON, err := json.Marshal(delivery.FromAddress)
	if err != nil {
		return fmt.Errorf("marshal from address: %w", err)
	}
	toJSON, err := json.Marshal(delivery.ToAddress)
	if err != nil {
		return fmt.Errorf("marshal to address: %w", err)
	}

	query := `
		INSERT INTO deliveries (delivery_id, order_id, from_address, to_address, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		delivery.DeliveryID,
		delivery.OrderID,
		fromJSON,
		toJSON,
		delivery.State,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Conflict("delivery already exists for order " + delivery.OrderID)
		}
		return fmt.Errorf("create delivery: %w", err)
	}

	return nil
}

// GetByOrderID fetches the shipment linked to the given order.
func (r *DeliveryRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	query := `
		SELECT delivery_id, order_id, from_address, to_address, state, created_at, updated_at
		FROM deliveries
		WHERE order_id = $1`

	return r.scanDelivery(r.pool.QueryRow(ctx, query, orderID), orderID)
}

// UpdateState moves the shipment for the given order into the target state.
func (r *DeliveryRepository) UpdateState(ctx context.Context, orderID string, state domain.DeliveryState) (*domain.Delivery, error) {
	query := `
		UPDATE deliveries
		SET state = $1, updated_at = NOW()
		WHERE order_id = $2
		RETURNING delivery_id, order_id, from_address, to_address, state, created_at, updated_at`

	return r.scanDelivery(r.pool.QueryRow(ctx, query, state, orderID), orderID)
}

// scanDelivery decodes one delivery row, mapping an empty result to NotFound.
func (r *DeliveryRepository) scanDelivery(row pgx.Row, orderID string) (*domain.Delivery, error) {
	var (
		d        domain.Delivery
		fromJSON []byte
		toJSON   []byte
	)
	err := row.Scan(&d.DeliveryID, &d.OrderID, &fromJSON, &toJSON, &d.State, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundMsg("no delivery for order " + orderID)
		}
		return nil, fmt.Errorf("scan delivery row: %w", err)
	}

	if err := json.Unmarshal(fromJSON, &d.FromAddress); err != nil {
		return nil, fmt.Errorf("unmarshal from address: %w", err)
	}
	if err := json.Unmarshal(toJSON, &d.ToAddress); err != nil {
		return nil, fmt.Errorf("unmarshal to address: %w", err)
	}

	return &d, nil
}
