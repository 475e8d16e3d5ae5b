package models

import (
	"regexp"
	"time"
)

// DateLayout is the fixed-width calendar day format used for query boundaries.
const DateLayout = "2006-01-02"

var calendarDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD calendar date as UTC midnight.
// Impossible days such as 2024-02-30 are rejected.
func ParseDate(value string) (time.Time, bool) {
	if !calendarDatePattern.MatchString(value) {
		return time.Time{}, false
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// DateWindow pairs a widened storage fetch window with the exact calendar-day range.
// fetchStart <= exactFrom <= exactTo <= fetchEnd always holds.
type DateWindow struct {
	FetchStart time.Time `json:"fetch_start"`
	FetchEnd   time.Time `json:"fetch_end"`
	ExactFrom  string    `json:"exact_from"`
	ExactTo    string    `json:"exact_to"`
}

// Contains reports whether the UTC calendar date of t lies in [ExactFrom, ExactTo].
// Plain string comparison is valid because both sides are zero-padded YYYY-MM-DD.
func (w DateWindow) Contains(t time.Time) bool {
	day := t.UTC().Format(DateLayout)
	return day >= w.ExactFrom && day <= w.ExactTo
}
