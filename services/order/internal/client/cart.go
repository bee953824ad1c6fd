package client

import (
	"context"
	"fmt"
	"net/http"
)

// JSONCaller performs a JSON request/response round trip against a
// collaborator service. *httpclient.CircuitBreakerClient satisfies it.
type JSONCaller interface {
	JSON(ctx context.Context, method, url string, in, out any, serviceName string) error
}

// CartClient resolves cart ownership for order creation.
type CartClient interface {
	// GetUsername returns the username owning the given cart.
	GetUsername(ctx context.Context, cartID string) (string, error)
}

type cartClient struct {
	http    JSONCaller
	baseURL string
}

// NewCartClient creates a cart client against the given base URL.
func NewCartClient(http JSONCaller, baseURL string) CartClient {
	return &cartClient{http: http, baseURL: baseURL}
}

func (c *cartClient) GetUsername(ctx context.Context, cartID string) (string, error) {
	var resp struct {
		Data struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	url := c.baseURL + "/api/v1/cart/" + cartID + "/owner"
	if err := c.http.JSON(ctx, http.MethodGet, url, nil, &resp, "cart"); err != nil {
		return "", fmt.Errorf("resolve cart owner: %w", err)
	}
	return resp.Data.Username, nil
}
