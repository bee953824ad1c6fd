package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orderforge/commerce/pkg/database"
	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/payment/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// PaymentRepository implements repository.PaymentRepository using PostgreSQL.
type PaymentRepository struct {
	pool database.DBTX
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool database.DBTX) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CreatePayment inserts a new payment row.
func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (payment_id, order_id, state, total_payment, delivery_total, fee_total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		payment.PaymentID,
		payment.OrderID,
		payment.State,
		payment.TotalPayment,
		payment.DeliveryTotal,
		payment.FeeTotal,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.AlreadyExists("payment", "id", payment.PaymentID)
		}
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

// GetByID fetches a payment by its id.
func (r *PaymentRepository) GetByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `
		SELECT payment_id, order_id, state, total_payment, delivery_total, fee_total, created_at, updated_at
		FROM payments
		WHERE payment_id = $1`

	return r.scanPayment(r.pool.QueryRow(ctx, query, paymentID), paymentID)
}

// UpdateState moves a payment into the target state.
func (r *PaymentRepository) UpdateState(ctx context.Context, paymentID string, state domain.PaymentState) (*domain.Payment, error) {
	query := `
		UPDATE payments
		SET state = $1, updated_at = NOW()
		WHERE payment_id = $2
		RETURNING payment_id, order_id, state, total_payment, delivery_total, fee_total, created_at, updated_at`

	return r.scanPayment(r.pool.QueryRow(ctx, query, state, paymentID), paymentID)
}

// scanPayment decodes one payment row, mapping an empty result to NotFound.
func (r *PaymentRepository) scanPayment(row pgx.Row, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.PaymentID,
		&p.OrderID,
		&p.State,
		&p.TotalPayment,
		&p.DeliveryTotal,
		&p.FeeTotal,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("payment", paymentID)
		}
		return nil, fmt.Errorf("scan payment row: %w", err)
	}

	return &p, nil
}
