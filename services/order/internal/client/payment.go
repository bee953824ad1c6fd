package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// PaymentSnapshot is the order price snapshot a payment is opened against.
type PaymentSnapshot struct {
	OrderID       string           `json:"order_id"`
	ProductPrice  *decimal.Decimal `json:"product_price"`
	TotalPayment  *decimal.Decimal `json:"total_payment"`
	DeliveryPrice *decimal.Decimal `json:"delivery_price"`
}

// PaymentClient exposes the payment ledger operations the coordinator needs.
type PaymentClient interface {
	// Initiate opens a PENDING payment and returns its id.
	Initiate(ctx context.Context, snapshot PaymentSnapshot) (string, error)
	// ProductCost prices a product map against the catalog.
	ProductCost(ctx context.Context, products map[string]int64) (decimal.Decimal, error)
	// TotalCost computes the VAT-inclusive grand total plus delivery.
	TotalCost(ctx context.Context, products map[string]int64, deliveryPrice *decimal.Decimal) (decimal.Decimal, error)
}

type paymentClient struct {
	http    JSONCaller
	baseURL string
}

// NewPaymentClient creates a payment client against the given base URL.
func NewPaymentClient(http JSONCaller, baseURL string) PaymentClient {
	return &paymentClient{http: http, baseURL: baseURL}
}

func (c *paymentClient) Initiate(ctx context.Context, snapshot PaymentSnapshot) (string, error) {
	var resp struct {
		Data struct {
			PaymentID string `json:"payment_id"`
		} `json:"data"`
	}

	url := c.baseURL + "/api/v1/payment"
	if err := c.http.JSON(ctx, http.MethodPost, url, snapshot, &resp, "payment"); err != nil {
		return "", fmt.Errorf("initiate payment: %w", err)
	}
	return resp.Data.PaymentID, nil
}

func (c *paymentClient) ProductCost(ctx context.Context, products map[string]int64) (decimal.Decimal, error) {
	req := struct {
		Products map[string]int64 `json:"products"`
	}{Products: products}

	var resp struct {
		Data struct {
			ProductPrice decimal.Decimal `json:"product_price"`
		} `json:"data"`
	}

	url := c.baseURL + "/api/v1/payment/productCost"
	if err := c.http.JSON(ctx, http.MethodPost, url, req, &resp, "payment"); err != nil {
		return decimal.Zero, fmt.Errorf("price products: %w", err)
	}
	return resp.Data.ProductPrice, nil
}

func (c *paymentClient) TotalCost(ctx context.Context, products map[string]int64, deliveryPrice *decimal.Decimal) (decimal.Decimal, error) {
	req := struct {
		Products      map[string]int64 `json:"products"`
		DeliveryPrice *decimal.Decimal `json:"delivery_price"`
	}{Products: products, DeliveryPrice: deliveryPrice}

	var resp struct {
		Data struct {
			TotalPrice decimal.Decimal `json:"total_price"`
		} `json:"data"`
	}

	url := c.baseURL + "/api/v1/payment/totalCost"
	if err := c.http.JSON(ctx, http.MethodPost, url, req, &resp, "payment"); err != nil {
		return decimal.Zero, fmt.Errorf("compute order total: %w", err)
	}
	return resp.Data.TotalPrice, nil
}
