package models

import "time"

// RateSnapshot is one fetched rate table for a base currency. Rates are expressed as
// units of the keyed currency per 1 unit of BaseCurrency.
//
// An unavailable snapshot (fetch failed, upstream error, breaker open) has Available
// false and an empty Rates map; callers treat every foreign currency as unconvertible.
type RateSnapshot struct {
	BaseCurrency string             `json:"base_currency"`
	Rates        map[string]float64 `json:"rates"`
	FetchedAt    time.Time          `json:"fetched_at"`
	Available    bool               `json:"available"`
}

// UnavailableRates builds the explicit "no rates" marker for base.
func UnavailableRates(base string) RateSnapshot {
	return RateSnapshot{
		BaseCurrency: base,
		Rates:        map[string]float64{},
		Available:    false,
	}
}

// Rate returns a usable (positive) rate for currency.
func (s RateSnapshot) Rate(currency string) (float64, bool) {
	if !s.Available {
		return 0, false
	}
	rate, ok := s.Rates[currency]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}
