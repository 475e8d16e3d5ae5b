package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"finstats/internal/config"
	"finstats/internal/models"
	"finstats/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type RateProviderSuite struct {
	suite.Suite
	server   *httptest.Server
	handler  http.HandlerFunc
	requests atomic.Int32
	lastURL  atomic.Value
	cfg      *config.RatesConfig
	ctx      context.Context
}

func TestRateProviderSuite(t *testing.T) {
	suite.Run(t, new(RateProviderSuite))
}

func (s *RateProviderSuite) SetupTest() {
	s.requests.Store(0)
	s.handler = respondJSON(http.StatusOK, `{"success":true,"base":"USD","rates":{"EUR":0.9,"gbp":0.8}}`)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.lastURL.Store(r.URL.String())
		s.handler(w, r)
	}))
	s.cfg = &config.RatesConfig{
		BaseURL: s.server.URL + "/latest",
		Timeout: 200 * time.Millisecond,
	}
	s.ctx = context.Background()
}

func (s *RateProviderSuite) TearDownTest() {
	s.server.Close()
}

func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func (s *RateProviderSuite) provider(cache RateCacheInterface, breaker CircuitBreakerInterface) RateProviderInterface {
	return NewRateProvider(s.cfg, cache, breaker, NoopMetrics{}, discardLogger())
}

func (s *RateProviderSuite) TestGetRates_Success() {
	s.cfg.APIKey = "secret"

	snapshot := s.provider(nil, nil).GetRates(s.ctx, "usd")

	s.True(snapshot.Available)
	s.Equal("USD", snapshot.BaseCurrency)
	s.Equal(0.9, snapshot.Rates["EUR"])
	s.Equal(0.8, snapshot.Rates["GBP"])
	s.False(snapshot.FetchedAt.IsZero())
	s.Contains(s.lastURL.Load().(string), "base=USD")
	s.Contains(s.lastURL.Load().(string), "access_key=secret")
}

func (s *RateProviderSuite) TestGetRates_FailuresAreUnavailable() {
	cases := map[string]http.HandlerFunc{
		"server error":      respondJSON(http.StatusInternalServerError, `{"success":true,"rates":{"EUR":0.9}}`),
		"not json":          respondJSON(http.StatusOK, `<html>oops</html>`),
		"error field":       respondJSON(http.StatusOK, `{"success":true,"error":{"code":101},"rates":{"EUR":0.9}}`),
		"success false":     respondJSON(http.StatusOK, `{"success":false,"rates":{"EUR":0.9}}`),
		"no success marker": respondJSON(http.StatusOK, `{"rates":{"EUR":0.9}}`),
		"null rates":        respondJSON(http.StatusOK, `{"success":true,"rates":null}`),
		"wrong rate type":   respondJSON(http.StatusOK, `{"success":true,"rates":{"EUR":"0.9"}}`),
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		},
	}

	for name, handler := range cases {
		s.Run(name, func() {
			s.handler = handler

			snapshot := s.provider(nil, nil).GetRates(s.ctx, "USD")

			s.False(snapshot.Available)
			s.Empty(snapshot.Rates)
			_, ok := snapshot.Rate("EUR")
			s.False(ok)
		})
	}
}

func (s *RateProviderSuite) TestGetRates_EmptyTableIsAccepted() {
	s.handler = respondJSON(http.StatusOK, `{"success":true,"error":null,"rates":{}}`)

	snapshot := s.provider(nil, nil).GetRates(s.ctx, "USD")

	s.True(snapshot.Available)
	s.Empty(snapshot.Rates)
}

func (s *RateProviderSuite) TestGetRates_CachedWithinTTL() {
	clock := &fakeClock{now: time.Now()}
	cache := NewMemoryRateCache(time.Hour, clock.Now)
	provider := s.provider(cache, nil)

	first := provider.GetRates(s.ctx, "USD")
	second := provider.GetRates(s.ctx, "USD")

	s.True(first.Available)
	s.Equal(first.Rates, second.Rates)
	s.Equal(int32(1), s.requests.Load())

	clock.Advance(time.Hour + time.Minute)
	provider.GetRates(s.ctx, "USD")
	s.Equal(int32(2), s.requests.Load())
}

func (s *RateProviderSuite) TestGetRates_FailureIsNotCached() {
	cache := NewMemoryRateCache(time.Hour, nil)
	provider := s.provider(cache, nil)

	s.handler = respondJSON(http.StatusBadGateway, `{}`)
	s.False(provider.GetRates(s.ctx, "USD").Available)

	s.handler = respondJSON(http.StatusOK, `{"success":true,"rates":{"EUR":0.9}}`)
	s.True(provider.GetRates(s.ctx, "USD").Available)
	s.Equal(int32(2), s.requests.Load())
}

func (s *RateProviderSuite) TestGetRates_OpenBreakerSkipsNetwork() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()

	breaker := service_mocks.NewMockCircuitBreakerInterface(ctrl)
	breaker.EXPECT().IsOpen().Return(true)

	snapshot := s.provider(nil, breaker).GetRates(s.ctx, "USD")

	s.False(snapshot.Available)
	s.Equal(int32(0), s.requests.Load())
}

func (s *RateProviderSuite) TestGetRates_BreakerRecordsOutcome() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()

	breaker := service_mocks.NewMockCircuitBreakerInterface(ctrl)
	provider := s.provider(nil, breaker)

	breaker.EXPECT().IsOpen().Return(false)
	breaker.EXPECT().RecordSuccess()
	provider.GetRates(s.ctx, "USD")

	s.handler = respondJSON(http.StatusServiceUnavailable, `{}`)
	breaker.EXPECT().IsOpen().Return(false)
	breaker.EXPECT().RecordFailure()
	provider.GetRates(s.ctx, "USD")
}

func (s *RateProviderSuite) TestGetRates_CacheHitRecordsMetric() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()

	cache := service_mocks.NewMockRateCacheInterface(ctrl)
	metrics := service_mocks.NewMockMetricsRecorderInterface(ctrl)
	cached := models.RateSnapshot{BaseCurrency: "USD", Rates: map[string]float64{"EUR": 0.5}, FetchedAt: time.Now(), Available: true}

	cache.EXPECT().Get(gomock.Any(), "USD").Return(cached, true)
	cache.EXPECT().IsStale(cached).Return(false)
	metrics.EXPECT().IncrementCounter(MetricRateCacheLookup, map[string]string{"result": "hit"})

	provider := NewRateProvider(s.cfg, cache, nil, metrics, discardLogger())
	snapshot := provider.GetRates(s.ctx, "USD")

	s.Equal(0.5, snapshot.Rates["EUR"])
	s.Equal(int32(0), s.requests.Load())
}

func (s *RateProviderSuite) TestGetRates_BlankBase() {
	snapshot := s.provider(nil, nil).GetRates(s.ctx, "  ")

	s.False(snapshot.Available)
	s.Equal(int32(0), s.requests.Load())
}
