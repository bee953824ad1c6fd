package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// JSONCaller performs a JSON request/response round trip against a
// collaborator service. *httpclient.CircuitBreakerClient satisfies it.
type JSONCaller interface {
	JSON(ctx context.Context, method, url string, in, out any, serviceName string) error
}

// CatalogClient resolves catalog unit prices for products. Products unknown
// to the catalog are simply absent from the result map.
type CatalogClient interface {
	GetPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
}

type catalogClient struct {
	http    JSONCaller
	baseURL string
}

// NewCatalogClient creates a catalog client against the given base URL.
func NewCatalogClient(http JSONCaller, baseURL string) CatalogClient {
	return &catalogClient{http: http, baseURL: baseURL}
}

func (c *catalogClient) GetPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	if len(productIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	req := struct {
		IDs []string `json:"ids"`
	}{IDs: productIDs}

	var resp struct {
		Data []struct {
			ProductID string          `json:"product_id"`
			Price     decimal.Decimal `json:"price"`
		} `json:"data"`
	}

	url := c.baseURL + "/api/v1/products/batch"
	if err := c.http.JSON(ctx, http.MethodPost, url, req, &resp, "catalog"); err != nil {
		return nil, fmt.Errorf("get catalog prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(resp.Data))
	for _, p := range resp.Data {
		prices[p.ProductID] = p.Price
	}
	return prices, nil
}
