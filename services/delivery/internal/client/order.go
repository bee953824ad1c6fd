package client

import (
	"context"
	"fmt"
	"net/http"
)

// OrderClient notifies the order coordinator about delivery progress. The
// callback direction is one way: the delivery ledger calls the coordinator,
// never the reverse, so the coordinator's own pickup call cannot recurse.
type OrderClient interface {
	// NotifyPickup drives the coordinator's item-pickup path.
	NotifyPickup(ctx context.Context, orderID string) error
	// NotifyDelivered asks the coordinator to complete the order.
	NotifyDelivered(ctx context.Context, orderID string) error
	// NotifyFailed reports a failed delivery to the coordinator.
	NotifyFailed(ctx context.Context, orderID string) error
}

type orderClient struct {
	http    JSONCaller
	baseURL string
}

// NewOrderClient creates an order coordinator client against the given base URL.
func NewOrderClient(http JSONCaller, baseURL string) OrderClient {
	return &orderClient{http: http, baseURL: baseURL}
}

func (c *orderClient) NotifyPickup(ctx context.Context, orderID string) error {
	url := fmt.Sprintf("%s/api/v1/orders/%s/delivery", c.baseURL, orderID)
	if err := c.http.JSON(ctx, http.MethodPost, url, nil, nil, "order"); err != nil {
		return fmt.Errorf("notify order pickup: %w", err)
	}
	return nil
}

func (c *orderClient) NotifyDelivered(ctx context.Context, orderID string) error {
	url := fmt.Sprintf("%s/api/v1/orders/%s/completed", c.baseURL, orderID)
	if err := c.http.JSON(ctx, http.MethodPost, url, nil, nil, "order"); err != nil {
		return fmt.Errorf("notify order delivered: %w", err)
	}
	return nil
}

func (c *orderClient) NotifyFailed(ctx context.Context, orderID string) error {
	url := fmt.Sprintf("%s/api/v1/orders/%s/delivery/failed", c.baseURL, orderID)
	if err := c.http.JSON(ctx, http.MethodPost, url, nil, nil, "order"); err != nil {
		return fmt.Errorf("notify order delivery failed: %w", err)
	}
	return nil
}
