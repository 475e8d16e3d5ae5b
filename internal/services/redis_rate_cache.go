package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"finstats/internal/models"
)

const rateCacheKeyPrefix = "rates:"

// redisRateCache shares snapshots between server instances. Redis problems are
// logged and reported as cache misses.
type redisRateCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewRedisClient connects to addr, given as host:port or a redis:// URL, and pings it.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	url := addr
	if !strings.Contains(url, "://") {
		url = "redis://" + addr
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func NewRedisRateCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) RateCacheInterface {
	return &redisRateCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func rateCacheKey(baseCurrency string) string {
	return rateCacheKeyPrefix + strings.ToUpper(baseCurrency)
}

func (c *redisRateCache) Get(ctx context.Context, baseCurrency string) (models.RateSnapshot, bool) {
	raw, err := c.client.Get(ctx, rateCacheKey(baseCurrency)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RateSnapshot{}, false
	}
	if err != nil {
		c.logger.Warn("rate cache read failed", "base", baseCurrency, "error", err)
		return models.RateSnapshot{}, false
	}

	var snapshot models.RateSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		c.logger.Warn("rate cache entry is corrupt", "base", baseCurrency, "error", err)
		return models.RateSnapshot{}, false
	}
	return snapshot, true
}

func (c *redisRateCache) Put(ctx context.Context, snapshot models.RateSnapshot) {
	if !cacheable(snapshot) {
		return
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Warn("rate cache encode failed", "base", snapshot.BaseCurrency, "error", err)
		return
	}

	if err := c.client.Set(ctx, rateCacheKey(snapshot.BaseCurrency), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("rate cache write failed", "base", snapshot.BaseCurrency, "error", err)
	}
}

func (c *redisRateCache) IsStale(snapshot models.RateSnapshot) bool {
	return isStale(snapshot, c.now(), c.ttl)
}
