package client

import (
	"context"
	"fmt"
	"net/http"
)

// OrderClient notifies the order coordinator about payment outcomes. As with
// the delivery ledger, the callback direction is one way: this service calls
// the coordinator, never the reverse.
type OrderClient interface {
	// NotifyPaid drives the coordinator's pay-order path.
	NotifyPaid(ctx context.Context, orderID string) error
	// NotifyPaymentFailed reports a declined payment to the coordinator.
	NotifyPaymentFailed(ctx context.Context, orderID string) error
}

type orderClient struct {
	http    JSONCaller
	baseURL string
}

// NewOrderClient creates an order coordinator client against the given base URL.
func NewOrderClient(http JSONCaller, baseURL string) OrderClient {
	return &orderClient{http: http, baseURL: baseURL}
}

func (c *orderClient) NotifyPaid(ctx context.Context, orderID string) error {
	url := fmt.Sprintf("%s/api/v1/orders/%s/payment", c.baseURL, orderID)
	if err := c.http.JSON(ctx, http.MethodPost, url, nil, nil, "order"); err != nil {
		return fmt.Errorf("notify order paid: %w", err)
	}
	return nil
}

func (c *orderClient) NotifyPaymentFailed(ctx context.Context, orderID string) error {
	url := fmt.Sprintf("%s/api/v1/orders/%s/payment/failed", c.baseURL, orderID)
	if err := c.http.JSON(ctx, http.MethodPost, url, nil, nil, "order"); err != nil {
		return fmt.Errorf("notify order payment failed: %w", err)
	}
	return nil
}
