package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orderforge/commerce/pkg/database"
	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/services/warehouse/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// WarehouseRepository implements StockRepository and BookingRepository using PostgreSQL.
type WarehouseRepository struct {
	pool database.DBTX
}

// NewWarehouseRepository creates a new PostgreSQL-backed warehouse repository.
func NewWarehouseRepository(pool database.DBTX) *WarehouseRepository {
	return &WarehouseRepository{pool: pool}
}

// ---------------------------------------------------------------------------
// StockRepository implementation
// ---------------------------------------------------------------------------

// CreateStock inserts a new product stock line. A duplicate product id is a conflict.
func (r *WarehouseRepository) CreateStock(ctx context.Context, stock *domain.ProductStock) error {
	query := `
		INSERT INTO product_stock (product_id, quantity, weight, width, height, depth, fragile, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		stock.ProductID,
		stock.Quantity,
		stock.Weight,
		stock.Width,
		stock.Height,
		stock.Depth,
		stock.Fragile,
		stock.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.AlreadyExists("product", "id", stock.ProductID)
		}
		return fmt.Errorf("create product stock: %w", err)
	}

	return nil
}

// AddQuantity increments the stock quantity for an existing product and
// returns the updated row.
func (r *WarehouseRepository) AddQuantity(ctx context.Context, productID string, delta int64) (*domain.ProductStock, error) {
	query := `
		UPDATE product_stock
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE product_id = $2
		RETURNING product_id, quantity, weight, width, height, depth, fragile, updated_at`

	var s domain.ProductStock
	err := r.pool.QueryRow(ctx, query, delta, productID).Scan(
		&s.ProductID,
		&s.Quantity,
		&s.Weight,
		&s.Width,
		&s.Height,
		&s.Depth,
		&s.Fragile,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundMsg("product " + productID + " not in warehouse")
		}
		return nil, fmt.Errorf("add stock quantity: %w", err)
	}

	return &s, nil
}

// GetStocks fetches stock lines for the given product ids, keyed by product id.
func (r *WarehouseRepository) GetStocks(ctx context.Context, productIDs []string) (map[string]*domain.ProductStock, error) {
	if len(productIDs) == 0 {
		return map[string]*domain.ProductStock{}, nil
	}

	query := `
		SELECT product_id, quantity, weight, width, height, depth, fragile, updated_at
		FROM product_stock
		WHERE product_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get stocks: %w", err)
	}
	defer rows.Close()

	stocks := make(map[string]*domain.ProductStock, len(productIDs))
	for rows.Next() {
		var s domain.ProductStock
		if err := rows.Scan(
			&s.ProductID,
			&s.Quantity,
			&s.Weight,
			&s.Width,
			&s.Height,
			&s.Depth,
			&s.Fragile,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		stocks[s.ProductID] = &s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock rows: %w", err)
	}

	return stocks, nil
}

// ReturnToStock increments each product's quantity inside one transaction.
func (r *WarehouseRepository) ReturnToStock(ctx context.Context, quantities map[string]int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin return transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE product_stock
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE product_id = $2`

	for _, productID := range sortedKeys(quantities) {
		ct, err := tx.Exec(ctx, query, quantities[productID], productID)
		if err != nil {
			return fmt.Errorf("return stock for product %s: %w", productID, err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFoundMsg("product " + productID + " not in warehouse")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit return transaction: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// BookingRepository implementation
// ---------------------------------------------------------------------------

// AssembleBooking locks the affected stock rows, validates availability, then
// decrements each row with a conditional update and records the booking.
// The WHERE quantity >= $n predicate makes the decrement itself safe even if
// the validation raced with a concurrent writer.
func (r *WarehouseRepository) AssembleBooking(ctx context.Context, orderID string, quantities map[string]int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assembly transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	productIDs := sortedKeys(quantities)

	// Lock rows in a deterministic order to avoid deadlocks between
	// concurrent assemblies over overlapping products.
	lockQuery := `
		SELECT product_id, quantity, weight, width, height, depth, fragile, updated_at
		FROM product_stock
		WHERE product_id = ANY($1)
		ORDER BY product_id
		FOR UPDATE`

	rows, err := tx.Query(ctx, lockQuery, productIDs)
	if err != nil {
		return fmt.Errorf("lock stock rows: %w", err)
	}

	stocks := make(map[string]*domain.ProductStock, len(productIDs))
	for rows.Next() {
		var s domain.ProductStock
		if err := rows.Scan(
			&s.ProductID,
			&s.Quantity,
			&s.Weight,
			&s.Width,
			&s.Height,
			&s.Depth,
			&s.Fragile,
			&s.UpdatedAt,
		); err != nil {
			rows.Close()
			return fmt.Errorf("scan locked stock row: %w", err)
		}
		stocks[s.ProductID] = &s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locked stock rows: %w", err)
	}

	if _, err := domain.ProjectBooking(stocks, quantities); err != nil {
		return err
	}

	decrementQuery := `
		UPDATE product_stock
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE product_id = $2 AND quantity >= $1`

	for _, productID := range productIDs {
		qty := quantities[productID]
		ct, err := tx.Exec(ctx, decrementQuery, qty, productID)
		if err != nil {
			return fmt.Errorf("decrement stock for product %s: %w", productID, err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.InsufficientStock(productID, qty, stocks[productID].Quantity)
		}
	}

	productsJSON, err := json.Marshal(quantities)
	if err != nil {
		return fmt.Errorf("marshal booking products: %w", err)
	}

	insertQuery := `
		INSERT INTO bookings (order_id, delivery_id, products, created_at)
		VALUES ($1, NULL, $2, $3)`

	if _, err := tx.Exec(ctx, insertQuery, orderID, productsJSON, time.Now().UTC()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Conflict("booking already exists for order " + orderID)
		}
		return fmt.Errorf("create booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit assembly transaction: %w", err)
	}

	return nil
}

// GetBooking retrieves the booking for an order.
func (r *WarehouseRepository) GetBooking(ctx context.Context, orderID string) (*domain.Booking, error) {
	query := `
		SELECT order_id, delivery_id, products, created_at
		FROM bookings
		WHERE order_id = $1`

	var (
		b            domain.Booking
		productsJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, orderID).Scan(&b.OrderID, &b.DeliveryID, &productsJSON, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundMsg("no booking for order " + orderID)
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if err := json.Unmarshal(productsJSON, &b.Products); err != nil {
		return nil, fmt.Errorf("unmarshal booking products: %w", err)
	}

	return &b, nil
}

// AttachDelivery sets the delivery id on an existing booking.
func (r *WarehouseRepository) AttachDelivery(ctx context.Context, orderID, deliveryID string) error {
	query := `
		UPDATE bookings
		SET delivery_id = $1
		WHERE order_id = $2`

	ct, err := r.pool.Exec(ctx, query, deliveryID, orderID)
	if err != nil {
		return fmt.Errorf("attach delivery to booking: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFoundMsg("no booking for order " + orderID)
	}

	return nil
}

// sortedKeys returns the map keys in ascending order.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
