package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// CachedPredictor is a read-through Redis cache in front of a Predictor.
// The model is deterministic per feature vector, so predictions are safe to
// reuse for the configured TTL.
type CachedPredictor struct {
	next   Predictor
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedPredictor wraps a predictor with a Redis cache
func NewCachedPredictor(next Predictor, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedPredictor {
	return &CachedPredictor{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(features Features) string {
	return fmt.Sprintf("predict:%s:%.2f:%d", features.Location, features.Size, features.Bedrooms)
}

// Predict serves from cache when possible. Cache failures degrade to the
// upstream call; they never fail the prediction.
func (c *CachedPredictor) Predict(ctx context.Context, features Features) (decimal.Decimal, error) {
	key := cacheKey(features)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		price, parseErr := decimal.NewFromString(cached)
		if parseErr == nil {
			return price, nil
		}
		c.logger.Warn("Dropping unparseable cached prediction", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Prediction cache read failed", "error", err)
	}

	price, err := c.next.Predict(ctx, features)
	if err != nil {
		return decimal.Zero, err
	}

	if setErr := c.rdb.Set(ctx, key, price.String(), c.ttl).Err(); setErr != nil {
		c.logger.Warn("Prediction cache write failed", "error", setErr)
	}

	return price, nil
}
