package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/services/order/internal/domain"
)

// CostSnapshot carries the order attributes the delivery cost formula needs.
type CostSnapshot struct {
	ToAddress domain.Address   `json:"to_address"`
	Fragile   bool             `json:"fragile"`
	Weight    *decimal.Decimal `json:"delivery_weight"`
	Volume    *decimal.Decimal `json:"delivery_volume"`
}

// DeliveryClient exposes the delivery ledger operations the coordinator needs.
type DeliveryClient interface {
	// CreateDelivery opens a shipment record and returns its id.
	CreateDelivery(ctx context.Context, orderID string, from, to domain.Address) (string, error)
	// PickUp hands the shipment to the courier and moves it to IN_PROGRESS.
	PickUp(ctx context.Context, orderID string) error
	// Cost quotes the delivery price for an order snapshot.
	Cost(ctx context.Context, snapshot CostSnapshot) (decimal.Decimal, error)
}

type deliveryClient struct {
	http    JSONCaller
	baseURL string
}

// NewDeliveryClient creates a delivery client against the given base URL.
func NewDeliveryClient(http JSONCaller, baseURL string) DeliveryClient {
	return &deliveryClient{http: http, baseURL: baseURL}
}

func (c *deliveryClient) CreateDelivery(ctx context.Context, orderID string, from, to domain.Address) (string, error) {
	req := struct {
		OrderID     string         `json:"order_id"`
		FromAddress domain.Address `json:"from_address"`
		ToAddress   domain.Address `json:"to_address"`
	}{OrderID: orderID, FromAddress: from, ToAddress: to}

	var resp struct {
		Data struct {
			DeliveryID string `json:"delivery_id"`
		} `json:"data"`
	}

	url := c.baseURL + "/api/v1/delivery"
	if err := c.http.JSON(ctx, http.MethodPut, url, req, &resp, "delivery"); err != nil {
		return "", fmt.Errorf("create delivery: %w", err)
	}
	return resp.Data.DeliveryID, nil
}

func (c *deliveryClient) PickUp(ctx context.Context, orderID string) error {
	req := struct {
		OrderID string `json:"order_id"`
	}{OrderID: orderID}

	url := c.baseURL + "/api/v1/delivery/picked"
	if err := c.http.JSON(ctx, http.MethodPost, url, req, nil, "delivery"); err != nil {
		return fmt.Errorf("pick up delivery: %w", err)
	}
	return nil
}

func (c *deliveryClient) Cost(ctx context.Context, snapshot CostSnapshot) (decimal.Decimal, error) {
	var resp struct {
		Data struct {
			DeliveryCost decimal.Decimal `json:"delivery_cost"`
		} `json:"data"`
	}

	url := c.baseURL + "/api/v1/delivery/cost"
	if err := c.http.JSON(ctx, http.MethodPost, url, snapshot, &resp, "delivery"); err != nil {
		return decimal.Zero, fmt.Errorf("quote delivery cost: %w", err)
	}
	return resp.Data.DeliveryCost, nil
}
