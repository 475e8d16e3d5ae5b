package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finstats/internal/config"
	"finstats/internal/models"
)

const rateServiceName = "exchange_rates"

var (
	ErrRatesUpstreamStatus  = errors.New("rate service returned non-success status")
	ErrRatesUpstreamPayload = errors.New("rate service payload rejected")
)

// ratesPayload is the rate service response. Success is a pointer so a missing marker
// can be told apart from false.
type ratesPayload struct {
	Success *bool              `json:"success"`
	Error   json.RawMessage    `json:"error"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
}

type rateProvider struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	cache   RateCacheInterface
	breaker CircuitBreakerInterface
	metrics MetricsRecorderInterface
	logger  *slog.Logger
	now     func() time.Time
}

// NewRateProvider creates a provider backed by the HTTP rate service. cache and breaker
// may be nil.
func NewRateProvider(
	cfg *config.RatesConfig,
	cache RateCacheInterface,
	breaker CircuitBreakerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) RateProviderInterface {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &rateProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// GetRates returns the rate table for baseCurrency. It makes at most one upstream
// request and never returns an error: failures produce models.UnavailableRates.
func (p *rateProvider) GetRates(ctx context.Context, baseCurrency string) models.RateSnapshot {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	if base == "" {
		return models.UnavailableRates(base)
	}

	if p.cache != nil {
		if snapshot, ok := p.cache.Get(ctx, base); ok && !p.cache.IsStale(snapshot) {
			p.metrics.IncrementCounter(MetricRateCacheLookup, map[string]string{"result": "hit"})
			return snapshot
		}
		p.metrics.IncrementCounter(MetricRateCacheLookup, map[string]string{"result": "miss"})
	}

	if p.breaker != nil && p.breaker.IsOpen() {
		p.metrics.IncrementCounter(MetricRateFetch, map[string]string{"result": "circuit_open"})
		p.logger.Warn("rate service circuit open, skipping fetch", "base", base)
		return models.UnavailableRates(base)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	rates, err := p.fetch(fetchCtx, base)
	if err != nil {
		// a caller that gave up is not the upstream's fault
		if p.breaker != nil && ctx.Err() == nil {
			p.breaker.RecordFailure()
		}
		p.metrics.IncrementCounter(MetricRateFetch, map[string]string{"result": "failed"})
		p.logger.Warn("rate fetch failed, continuing without rates",
			"base", base,
			"duration_ms", p.now().Sub(start).Milliseconds(),
			"error", err,
		)
		return models.UnavailableRates(base)
	}

	if p.breaker != nil {
		p.breaker.RecordSuccess()
	}
	p.metrics.IncrementCounter(MetricRateFetch, map[string]string{"result": "success"})

	snapshot := models.RateSnapshot{
		BaseCurrency: base,
		Rates:        rates,
		FetchedAt:    p.now(),
		Available:    true,
	}

	if p.cache != nil {
		p.cache.Put(ctx, snapshot)
	}

	p.logger.Info("rates fetched", "base", base, "currencies", len(rates))
	return snapshot
}

func (p *rateProvider) buildRequest(ctx context.Context, base string) (*http.Request, error) {
	endpoint, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse rate service url: %w", err)
	}

	query := endpoint.Query()
	query.Set("base", base)
	if p.apiKey != "" {
		query.Set("access_key", p.apiKey)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (p *rateProvider) fetch(ctx context.Context, base string) (map[string]float64, error) {
	req, err := p.buildRequest(ctx, base)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrRatesUpstreamStatus, resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRatesUpstreamPayload, err)
	}

	if hasUpstreamError(payload.Error) {
		return nil, fmt.Errorf("%w: upstream error %s", ErrRatesUpstreamPayload, string(payload.Error))
	}
	if payload.Success == nil || !*payload.Success {
		return nil, fmt.Errorf("%w: missing success marker", ErrRatesUpstreamPayload)
	}
	if payload.Rates == nil {
		return nil, fmt.Errorf("%w: missing rate table", ErrRatesUpstreamPayload)
	}

	rates := make(map[string]float64, len(payload.Rates))
	for currency, rate := range payload.Rates {
		rates[strings.ToUpper(currency)] = rate
	}
	return rates, nil
}

func hasUpstreamError(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", `""`:
		return false
	default:
		return true
	}
}
