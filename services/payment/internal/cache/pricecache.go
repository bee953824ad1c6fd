package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/orderforge/commerce/services/payment/internal/client"
)

const keyPrefix = "price:"

// PriceCache is a Redis read-through cache in front of the catalog client.
// Cache trouble degrades to direct catalog lookups; it never fails a request
// on its own.
type PriceCache struct {
	catalog client.CatalogClient
	redis   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewPriceCache wraps a catalog client with a Redis cache using the given TTL.
func NewPriceCache(catalog client.CatalogClient, redisClient *redis.Client, ttl time.Duration, logger *slog.Logger) *PriceCache {
	return &PriceCache{
		catalog: catalog,
		redis:   redisClient,
		ttl:     ttl,
		logger:  logger,
	}
}

// GetPrices resolves unit prices for the given products, serving from Redis
// where possible and falling through to the catalog for the rest. Freshly
// fetched prices are written back with the configured TTL.
func (c *PriceCache) GetPrices(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	if len(productIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	prices := make(map[string]decimal.Decimal, len(productIDs))
	missing := c.readCached(ctx, productIDs, prices)
	if len(missing) == 0 {
		return prices, nil
	}

	fetched, err := c.catalog.GetPrices(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("fetch prices from catalog: %w", err)
	}

	c.writeBack(ctx, fetched)
	for id, price := range fetched {
		prices[id] = price
	}

	return prices, nil
}

// readCached fills prices from Redis and returns the ids that still need a
// catalog lookup.
func (c *PriceCache) readCached(ctx context.Context, productIDs []string, prices map[string]decimal.Decimal) []string {
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = keyPrefix + id
	}

	values, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "price cache read failed, falling through to catalog",
			slog.String("error", err.Error()),
		)
		return productIDs
	}

	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, productIDs[i])
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.logger.WarnContext(ctx, "malformed cached price, refetching",
				slog.String("product_id", productIDs[i]),
			)
			missing = append(missing, productIDs[i])
			continue
		}
		prices[productIDs[i]] = price
	}
	return missing
}

// writeBack stores freshly fetched prices. Failures are logged and ignored.
func (c *PriceCache) writeBack(ctx context.Context, fetched map[string]decimal.Decimal) {
	pipe := c.redis.Pipeline()
	for id, price := range fetched {
		pipe.Set(ctx, keyPrefix+id, price.String(), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "price cache write failed",
			slog.String("error", err.Error()),
		)
	}
}
