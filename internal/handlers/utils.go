package handlers

import (
	"strings"

	"finstats/internal/errors"

	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated subject, or "" when auth is disabled
func getUserIDFromContext(c echo.Context) string {
	userID, ok := c.Get("user_id").(string)
	if !ok {
		return ""
	}
	return userID
}

// bindAndValidate binds the request into dst and runs struct validation.
// On failure it has already written the error response, and ok is false.
func bindAndValidate(c echo.Context, dst interface{}) (ok bool, err error) {
	if err := c.Bind(dst); err != nil {
		return false, SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(bindErrorMessage(err)))
	}
	if err := c.Validate(dst); err != nil {
		return false, SendRequestValidationError(c, err)
	}
	return true, nil
}

func bindErrorMessage(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		if msg, ok := he.Message.(string); ok {
			return strings.ToLower(msg)
		}
	}
	return "malformed request"
}
