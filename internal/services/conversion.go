package services

import (
	"math"
	"sort"
	"strings"

	"finstats/internal/models"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// ConversionAdapter converts foreign amounts into the target currency using one rate
// snapshot, remembering which source currencies could not be converted.
// It is scoped to a single statistics call and is not safe for concurrent use.
type ConversionAdapter struct {
	target    string
	rates     models.RateSnapshot
	skipped   map[string]struct{}
	converted int
}

func NewConversionAdapter(targetCurrency string, rates models.RateSnapshot) *ConversionAdapter {
	return &ConversionAdapter{
		target:  strings.ToUpper(targetCurrency),
		rates:   rates,
		skipped: make(map[string]struct{}),
	}
}

// Convert returns amountMinor expressed in the target currency's minor units.
// The snapshot holds source units per one target unit, so the amount is divided by the rate.
// ok is false when the source currency has no positive rate, or the rate is so small
// that the converted amount does not fit in int64 minor units.
func (c *ConversionAdapter) Convert(amountMinor int64, sourceCurrency string) (converted int64, ok bool) {
	source := strings.ToUpper(sourceCurrency)
	if source == c.target {
		return amountMinor, true
	}

	rate, found := c.rates.Rate(source)
	if !found {
		c.skipped[source] = struct{}{}
		return 0, false
	}

	converted, ok = ConvertMinor(amountMinor, rate)
	if !ok {
		c.skipped[source] = struct{}{}
		return 0, false
	}

	c.converted++
	return converted, true
}

// SkippedCurrencies returns the unconvertible source currencies in sorted order, never nil.
func (c *ConversionAdapter) SkippedCurrencies() []string {
	out := make([]string, 0, len(c.skipped))
	for currency := range c.skipped {
		out = append(out, currency)
	}
	sort.Strings(out)
	return out
}

// ConvertedCount is the number of records converted at a rate.
func (c *ConversionAdapter) ConvertedCount() int {
	return c.converted
}

// ConvertMinor divides amountMinor by rate and rounds half away from zero.
// ok is false when the result is out of int64 range.
func ConvertMinor(amountMinor int64, rate float64) (int64, bool) {
	converted := decimal.NewFromInt(amountMinor).
		Div(decimal.NewFromFloat(rate)).
		Round(0)
	if converted.Abs().GreaterThan(maxMinor) {
		return 0, false
	}
	return converted.IntPart(), true
}

// Percentage returns round(amount / total * 100) with half away from zero, or 0 when total is not positive.
func Percentage(amount, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(hundred).
		Div(decimal.NewFromInt(total)).
		Round(0).
		IntPart()
}
