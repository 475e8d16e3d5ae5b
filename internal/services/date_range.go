package services

import (
	"time"

	"finstats/internal/models"
)

// NormalizeDateRange turns an inclusive YYYY-MM-DD range into a DateWindow. The fetch
// bounds sit one day outside the range at UTC midnight so records whose stored instant
// and calendar day disagree across time zones are still fetched; DateWindow.Contains
// then trims them back to the exact range.
func NormalizeDateRange(from, to string) (models.DateWindow, error) {
	fromDate, err := parseISODate("from", from)
	if err != nil {
		return models.DateWindow{}, err
	}

	toDate, err := parseISODate("to", to)
	if err != nil {
		return models.DateWindow{}, err
	}

	if fromDate.After(toDate) {
		return models.DateWindow{}, newValidationError("from", ReasonDateRange, "must not be after to (%s > %s)", from, to)
	}

	return models.DateWindow{
		FetchStart: fromDate.AddDate(0, 0, -1),
		FetchEnd:   toDate.AddDate(0, 0, 1),
		ExactFrom:  fromDate.Format(models.DateLayout),
		ExactTo:    toDate.Format(models.DateLayout),
	}, nil
}

func parseISODate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, newValidationError(field, ReasonRequired, "is required")
	}
	parsed, ok := models.ParseDate(value)
	if !ok {
		return time.Time{}, newValidationError(field, ReasonDateFormat, "must be a calendar date formatted as YYYY-MM-DD")
	}
	return parsed, nil
}
