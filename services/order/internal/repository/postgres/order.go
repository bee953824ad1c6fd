package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/pkg/database"
	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/order/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

const orderColumns = `order_id, username, products, delivery_address, state,
			payment_id, delivery_id, delivery_weight, delivery_volume, fragile,
			product_price, delivery_price, total_price, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateOrder inserts a new order row. The partial unique index on username
// rejects a second active order for the same user.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	productsJSON, err := json.Marshal(order.Products)
	if err != nil {
		return fmt.Errorf("marshal products: %w", err)
	}
	addressJSON, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("marshal delivery address: %w", err)
	}

	query := `
		INSERT INTO orders (order_id, username, products, delivery_address, state, delivery_weight, delivery_volume, fragile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		order.OrderID,
		order.Username,
		productsJSON,
		addressJSON,
		order.State,
		order.DeliveryWeight,
		order.DeliveryVolume,
		order.Fragile,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Conflict("user " + order.Username + " already has an active order")
		}
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its id.
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_id = $1`

	return r.scanOrder(r.pool.QueryRow(ctx, query, orderID), orderID)
}

// UpdateState moves an order into the target state.
func (r *OrderRepository) UpdateState(ctx context.Context, orderID string, state domain.OrderState) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET state = $1, updated_at = NOW()
		WHERE order_id = $2
		RETURNING ` + orderColumns

	return r.scanOrder(r.pool.QueryRow(ctx, query, state, orderID), orderID)
}

// SetPaymentID records the payment opened for the order.
func (r *OrderRepository) SetPaymentID(ctx context.Context, orderID, paymentID string) error {
	return r.setColumn(ctx, orderID, "payment_id", paymentID)
}

// SetDeliveryID records the shipment created for the order.
func (r *OrderRepository) SetDeliveryID(ctx context.Context, orderID, deliveryID string) error {
	return r.setColumn(ctx, orderID, "delivery_id", deliveryID)
}

// SetOrderTotals persists the computed product and grand totals.
func (r *OrderRepository) SetOrderTotals(ctx context.Context, orderID string, productPrice, totalPrice decimal.Decimal) error {
	query := `
		UPDATE orders
		SET product_price = $1, total_price = $2, updated_at = NOW()
		WHERE order_id = $3`

	ct, err := r.pool.Exec(ctx, query, productPrice, totalPrice, orderID)
	if err != nil {
		return fmt.Errorf("set order totals: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID)
	}
	return nil
}

// SetDeliveryPrice persists the quoted delivery cost.
func (r *OrderRepository) SetDeliveryPrice(ctx context.Context, orderID string, price decimal.Decimal) error {
	query := `
		UPDATE orders
		SET delivery_price = $1, updated_at = NOW()
		WHERE order_id = $2`

	ct, err := r.pool.Exec(ctx, query, price, orderID)
	if err != nil {
		return fmt.Errorf("set delivery price: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID)
	}
	return nil
}

// ListByUsername returns a page of the user's orders, newest first, with the
// total count computed in the same query.
func (r *OrderRepository) ListByUsername(ctx context.Context, username string, page, perPage int) ([]domain.Order, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT ` + orderColumns + `,
			count(*) OVER() AS total_count
		FROM orders
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, username, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o      scannedOrder
			fields = o.fields()
		)
		if err := rows.Scan(append(fields, &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		order, err := o.toDomain()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, totalCount, nil
}

// setColumn writes one UUID column of an order row.
func (r *OrderRepository) setColumn(ctx context.Context, orderID, column, value string) error {
	query := fmt.Sprintf(`
		UPDATE orders
		SET %s = $1, updated_at = NOW()
		WHERE order_id = $2`, column)

	ct, err := r.pool.Exec(ctx, query, value, orderID)
	if err != nil {
		return fmt.Errorf("set order %s: %w", column, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID)
	}
	return nil
}

// scannedOrder holds the raw row representation before nullable columns are
// converted into the domain shape.
type scannedOrder struct {
	orderID        string
	username       string
	productsJSON   []byte
	addressJSON    []byte
	state          domain.OrderState
	paymentID      sql.NullString
	deliveryID     sql.NullString
	deliveryWeight decimal.NullDecimal
	deliveryVolume decimal.NullDecimal
	fragile        sql.NullBool
	productPrice   decimal.NullDecimal
	deliveryPrice  decimal.NullDecimal
	totalPrice     decimal.NullDecimal
	createdAt      time.Time
	updatedAt      time.Time
}

func (s *scannedOrder) fields() []any {
	return []any{
		&s.orderID,
		&s.username,
		&s.productsJSON,
		&s.addressJSON,
		&s.state,
		&s.paymentID,
		&s.deliveryID,
		&s.deliveryWeight,
		&s.deliveryVolume,
		&s.fragile,
		&s.productPrice,
		&s.deliveryPrice,
		&s.totalPrice,
		&s.createdAt,
		&s.updatedAt,
	}
}

func (s *scannedOrder) toDomain() (*domain.Order, error) {
	order := &domain.Order{
		OrderID:   s.orderID,
		Username:  s.username,
		State:     s.state,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}

	if err := json.Unmarshal(s.productsJSON, &order.Products); err != nil {
		return nil, fmt.Errorf("unmarshal products: %w", err)
	}
	if err := json.Unmarshal(s.addressJSON, &order.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("unmarshal delivery address: %w", err)
	}

	if s.paymentID.Valid {
		order.PaymentID = &s.paymentID.String
	}
	if s.deliveryID.Valid {
		order.DeliveryID = &s.deliveryID.String
	}
	if s.fragile.Valid {
		order.Fragile = &s.fragile.Bool
	}
	order.DeliveryWeight = nullableDecimal(s.deliveryWeight)
	order.DeliveryVolume = nullableDecimal(s.deliveryVolume)
	order.ProductPrice = nullableDecimal(s.productPrice)
	order.DeliveryPrice = nullableDecimal(s.deliveryPrice)
	order.TotalPrice = nullableDecimal(s.totalPrice)

	return order, nil
}

// scanOrder decodes one order row, mapping an empty result to NotFound.
func (r *OrderRepository) scanOrder(row pgx.Row, orderID string) (*domain.Order, error) {
	var o scannedOrder
	if err := row.Scan(o.fields()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("scan order row: %w", err)
	}
	return o.toDomain()
}

func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return &d.Decimal
}
