package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/services/order/internal/domain"
)

// BookingProjection is the warehouse's projection of an order's physical
// footprint, computed without mutating stock.
type BookingProjection struct {
	Weight  decimal.Decimal `json:"delivery_weight"`
	Volume  decimal.Decimal `json:"delivery_volume"`
	Fragile bool            `json:"fragile"`
}

// WarehouseClient exposes the inventory operations the coordinator needs.
type WarehouseClient interface {
	// Check projects the booking for a product map without reserving stock.
	Check(ctx context.Context, products map[string]int64) (BookingProjection, error)
	// Assemble reserves and decrements stock and creates the order's booking.
	Assemble(ctx context.Context, orderID string, products map[string]int64) error
	// ReturnToStock puts a returned product map back into stock.
	ReturnToStock(ctx context.Context, products map[string]int64) error
	// GetAddress returns the warehouse's configured pickup address.
	GetAddress(ctx context.Context) (domain.Address, error)
}

type warehouseClient struct {
	http    JSONCaller
	baseURL string
}

// NewWarehouseClient creates a warehouse client against the given base URL.
func NewWarehouseClient(http JSONCaller, baseURL string) WarehouseClient {
	return &warehouseClient{http: http, baseURL: baseURL}
}

type productsRequest struct {
	Products map[string]int64 `json:"products"`
}

func (c *warehouseClient) Check(ctx context.Context, products map[string]int64) (BookingProjection, error) {
	var resp struct {
		Data BookingProjection `json:"data"`
	}
	url := c.baseURL + "/api/v1/warehouse/check"
	if err := c.http.JSON(ctx, http.MethodPost, url, productsRequest{Products: products}, &resp, "warehouse"); err != nil {
		return BookingProjection{}, fmt.Errorf("check booking: %w", err)
	}
	return resp.Data, nil
}

func (c *warehouseClient) Assemble(ctx context.Context, orderID string, products map[string]int64) error {
	req := struct {
		OrderID  string           `json:"order_id"`
		Products map[string]int64 `json:"products"`
	}{OrderID: orderID, Products: products}

	url := c.baseURL + "/api/v1/warehouse/assembly"
	if err := c.http.JSON(ctx, http.MethodPost, url, req, nil, "warehouse"); err != nil {
		return fmt.Errorf("assemble order: %w", err)
	}
	return nil
}

func (c *warehouseClient) ReturnToStock(ctx context.Context, products map[string]int64) error {
	url := c.baseURL + "/api/v1/warehouse/return"
	if err := c.http.JSON(ctx, http.MethodPost, url, productsRequest{Products: products}, nil, "warehouse"); err != nil {
		return fmt.Errorf("return products to stock: %w", err)
	}
	return nil
}

func (c *warehouseClient) GetAddress(ctx context.Context) (domain.Address, error) {
	var resp struct {
		Data domain.Address `json:"data"`
	}
	url := c.baseURL + "/api/v1/warehouse/address"
	if err := c.http.JSON(ctx, http.MethodGet, url, nil, &resp, "warehouse"); err != nil {
		return domain.Address{}, fmt.Errorf("get warehouse address: %w", err)
	}
	return resp.Data, nil
}
