package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateWindow_Contains(t *testing.T) {
	w := DateWindow{
		FetchStart: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		FetchEnd:   time.Date(2024, 4, 1, 23, 59, 59, 0, time.UTC),
		ExactFrom:  "2024-03-01",
		ExactTo:    "2024-03-31",
	}

	assert.True(t, w.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))

	// 20:00 on Mar 31 in UTC-5 is Apr 1 in UTC
	loc := time.FixedZone("UTC-5", -5*60*60)
	assert.False(t, w.Contains(time.Date(2024, 3, 31, 20, 0, 0, 0, loc)))
}

func TestParseDate(t *testing.T) {
	parsed, ok := ParseDate("2024-02-29")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), parsed)

	for _, value := range []string{"2023-02-29", "2024-02-30", "20240229", "2024-2-01", "+2024-02-01", "2024-02-01T00:00:00Z", ""} {
		_, ok := ParseDate(value)
		assert.False(t, ok, value)
	}
}

func TestRateSnapshot_Rate(t *testing.T) {
	s := RateSnapshot{
		BaseCurrency: "USD",
		Rates:        map[string]float64{"EUR": 0.9, "XXX": 0, "YYY": -1},
		Available:    true,
	}

	rate, ok := s.Rate("EUR")
	assert.True(t, ok)
	assert.Equal(t, 0.9, rate)

	_, ok = s.Rate("XXX")
	assert.False(t, ok)
	_, ok = s.Rate("YYY")
	assert.False(t, ok)
	_, ok = s.Rate("GBP")
	assert.False(t, ok)

	_, ok = UnavailableRates("USD").Rate("EUR")
	assert.False(t, ok)
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitBreakerState(0).String())
	assert.Equal(t, "open", CircuitBreakerState(1).String())
	assert.Equal(t, "half-open", CircuitBreakerState(2).String())
	assert.Equal(t, "unknown", CircuitBreakerState(7).String())
}
