package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/orderforge/commerce/services/delivery/internal/domain"
)

// JSONCaller performs a JSON request/response round trip against a
// collaborator service. *httpclient.CircuitBreakerClient satisfies it.
type JSONCaller interface {
	JSON(ctx context.Context, method, url string, in, out any, serviceName string) error
}

// WarehouseClient exposes the warehouse operations the delivery ledger needs.
type WarehouseClient interface {
	// GetAddress returns the warehouse's configured pickup address.
	GetAddress(ctx context.Context) (domain.Address, error)
	// AttachDelivery records the delivery id on the order's booking.
	AttachDelivery(ctx context.Context, orderID, deliveryID string) error
}

type warehouseClient struct {
	http    JSONCaller
	baseURL string
}

// NewWarehouseClient creates a warehouse client against the given base URL.
func NewWarehouseClient(http JSONCaller, baseURL string) WarehouseClient {
	return &warehouseClient{http: http, baseURL: baseURL}
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

func (c *warehouseClient) AttachDelivery(ctx context.Context, orderID, deliveryID string) error {
	req := struct {
		OrderID    string `json:"order_id"`
		DeliveryID string `json:"delivery_id"`
	}{OrderID: orderID, DeliveryID: deliveryID}

	url := c.baseURL + "/api/v1/warehouse/shipped"
	if err := c.http.JSON(ctx, http.MethodPost, url, req, nil, "warehouse"); err != nil {
		return fmt.Errorf("attach delivery to booking: %w", err)
	}
	return nil
}
