package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orderforge/commerce/pkg/errors"
	"github.com/orderforge/commerce/pkg/httpclient"
)

func testCaller(t *testing.T) JSONCaller {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	base := httpclient.New(httpclient.NoRetryConfig())
	return httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig(t.Name()), logger)
}

func TestWarehouseClient_GetAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/warehouse/address", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"country":"RU","city":"Moscow","street":"ADDRESS_1","house":"1"}}`))
	}))
	defer srv.Close()

	c := NewWarehouseClient(testCaller(t), srv.URL)
	addr, err := c.GetAddress(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ADDRESS_1", addr.Street)
	assert.Equal(t, "Moscow", addr.City)
}

func TestWarehouseClient_AttachDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/warehouse/shipped", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ord-1", body["order_id"])
		assert.Equal(t, "dlv-1", body["delivery_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"status":"shipped"}}`))
	}))
	defer srv.Close()

	c := NewWarehouseClient(testCaller(t), srv.URL)
	err := c.AttachDelivery(context.Background(), "ord-1", "dlv-1")

	require.NoError(t, err)
}

func TestWarehouseClient_AttachDelivery_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"no booking for order ord-x"}}`))
	}))
	defer srv.Close()

	c := NewWarehouseClient(testCaller(t), srv.URL)
	err := c.AttachDelivery(context.Background(), "ord-x", "dlv-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no booking for order ord-x")
}

func TestOrderClient_NotifyPickup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/orders/ord-1/delivery", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"status":"ok"}}`))
	}))
	defer srv.Close()

	c := NewOrderClient(testCaller(t), srv.URL)
	err := c.NotifyPickup(context.Background(), "ord-1")

	require.NoError(t, err)
}

func TestOrderClient_NotifyDelivered_GuardRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/ord-1/completed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_STATE","message":"order is not on delivery"}}`))
	}))
	defer srv.Close()

	c := NewOrderClient(testCaller(t), srv.URL)
	err := c.NotifyDelivered(context.Background(), "ord-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order is not on delivery")
}

func TestOrderClient_NotifyFailed_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewOrderClient(testCaller(t), srv.URL)
	err := c.NotifyFailed(context.Background(), "ord-1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
