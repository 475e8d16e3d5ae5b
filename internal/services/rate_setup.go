package services

import (
	"context"
	"fmt"
	"log/slog"

	"finstats/internal/config"
	"finstats/internal/models"
)

// BuildRateProvider wires the rate provider with the configured cache backend and a circuit
// breaker whose state is exported as a gauge. The returned cleanup releases the cache backend.
func BuildRateProvider(
	ctx context.Context,
	cfg *config.Config,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) (RateProviderInterface, func(), error) {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cleanup := func() {}

	var cache RateCacheInterface
	switch cfg.Rates.CacheBackend {
	case config.CacheBackendRedis:
		client, err := NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("rate cache: %w", err)
		}
		cache = NewRedisRateCache(client, cfg.Rates.CacheTTL, logger)
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
	default:
		cache = NewMemoryRateCache(cfg.Rates.CacheTTL, nil)
	}

	breakerConfig := DefaultCircuitBreakerConfig()
	if cfg.Rates.BreakerMaxFailures > 0 {
		breakerConfig.MaxFailures = cfg.Rates.BreakerMaxFailures
	}
	if cfg.Rates.BreakerResetTimeout > 0 {
		breakerConfig.ResetTimeout = cfg.Rates.BreakerResetTimeout
	}
	breakerConfig.OnStateChange = func(from, to models.CircuitBreakerState) {
		metrics.RecordGauge(MetricCircuitBreakerState, float64(to), map[string]string{"service": rateServiceName})
		logger.Warn("rate service circuit breaker state changed", "from", from.String(), "to", to.String())
	}
	metrics.RecordGauge(MetricCircuitBreakerState, float64(StateClosed), map[string]string{"service": rateServiceName})

	provider := NewRateProvider(&cfg.Rates, cache, NewCircuitBreaker(breakerConfig), metrics, logger)
	logger.Info("rate provider configured",
		"base_url", cfg.Rates.BaseURL,
		"cache_backend", cfg.Rates.CacheBackend,
		"cache_ttl", cfg.Rates.CacheTTL,
	)
	return provider, cleanup, nil
}
