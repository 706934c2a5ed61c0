package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"stock-trader/utils"
)

type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

// Cached serves quotes from Redis and falls back to the wrapped provider on a miss.
// Cache errors never fail a lookup.
type Cached struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCached(next Provider, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

func (c *Cached) Lookup(ctx context.Context, symbol string) (Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	cached, err := c.rdb.Get(ctx, cacheKey(symbol)).Result()
	if err == nil {
		var quote Quote
		if err := json.Unmarshal([]byte(cached), &quote); err == nil {
			return quote, nil
		}
		slog.Error("can't unmarshal cached quote", slog.String("rqID", rqID), slog.String("symbol", symbol))
	} else if !errors.Is(err, redis.Nil) {
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", cacheKey(symbol)))
	}

	quote, err := c.next.Lookup(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return quote, nil
	}
	if err := c.rdb.Set(ctx, cacheKey(symbol), data, c.ttl).Err(); err != nil {
		slog.Error("failed to cache quote", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", cacheKey(symbol)))
	}

	return quote, nil
}
