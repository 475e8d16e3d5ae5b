package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"finstats/internal/models"
)

// memoryRateCache keeps one snapshot per base currency in process memory.
type memoryRateCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]models.RateSnapshot
}

// NewMemoryRateCache creates an in-process cache. now defaults to time.Now.
func NewMemoryRateCache(ttl time.Duration, now func() time.Time) RateCacheInterface {
	if now == nil {
		now = time.Now
	}
	return &memoryRateCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]models.RateSnapshot),
	}
}

func (c *memoryRateCache) Get(_ context.Context, baseCurrency string) (models.RateSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot, ok := c.entries[strings.ToUpper(baseCurrency)]
	return snapshot, ok
}

// Put stores a copy of snapshot. Unavailable or empty snapshots are ignored so a
// failed fetch never masks a later successful one.
func (c *memoryRateCache) Put(_ context.Context, snapshot models.RateSnapshot) {
	if !cacheable(snapshot) {
		return
	}

	rates := make(map[string]float64, len(snapshot.Rates))
	for currency, rate := range snapshot.Rates {
		rates[currency] = rate
	}
	snapshot.Rates = rates

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strings.ToUpper(snapshot.BaseCurrency)] = snapshot
}

func (c *memoryRateCache) IsStale(snapshot models.RateSnapshot) bool {
	return isStale(snapshot, c.now(), c.ttl)
}

func cacheable(snapshot models.RateSnapshot) bool {
	return snapshot.Available && len(snapshot.Rates) > 0 && snapshot.BaseCurrency != ""
}

func isStale(snapshot models.RateSnapshot, now time.Time, ttl time.Duration) bool {
	if snapshot.FetchedAt.IsZero() {
		return true
	}
	return now.Sub(snapshot.FetchedAt) > ttl
}
