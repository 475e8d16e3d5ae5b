package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"finstats/internal/errors"
	"finstats/internal/services"
	"finstats/internal/validation"

	"github.com/labstack/echo/v4"
)

// STANDARDIZED ERROR HANDLING PATTERNS
//
// Handlers report failures through the helpers below:
//
// 1. SendError - client errors (4xx)
//    - SendError(c, errors.ValidationCurrency, errors.WithDetails("currency: ..."))
//    - SendError(c, errors.AuthMissingToken)
//
// 2. SendRequestValidationError - go-playground validator failures on a bound DTO
//
// 3. SendServiceError - errors returned by the services package. Validation errors
//    become 400 with a specific code, storage failures SYSTEM_002, anything else SYSTEM_001.
//
// 4. SendSystemError - unexpected errors. The client sees a generic message; the cause is logged.
//
// Do not return echo.NewHTTPError or write error bodies with c.JSON directly.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendRequestValidationError reports every failed DTO field; the first failure picks the code.
func SendRequestValidationError(c echo.Context, err error) error {
	fieldErrors := validation.FieldErrors(err)
	if fieldErrors == nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	}
	errorResponse := errors.NewFieldValidationError(validation.ErrorCodeFor(err), fieldErrors, getTraceID(c))
	return c.JSON(http.StatusBadRequest, errorResponse)
}

// SendServiceError maps an error from the services layer onto the error envelope
func SendServiceError(c echo.Context, err error) error {
	if vErr, ok := services.AsValidationError(err); ok {
		return SendError(c, validationErrorCode(vErr), errors.WithDetails(vErr.Error()))
	}

	if stderrors.Is(err, services.ErrStorage) {
		traceID := getTraceID(c)
		errorResponse, cause := errors.WrapDatabaseError(err, traceID)
		logInternalError(c, traceID, cause)
		return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
	}

	return SendSystemError(c, err)
}

// SendSystemError wraps a system error with generic message and logs the internal error
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, cause := errors.WrapSystemError(err, traceID)
	logInternalError(c, traceID, cause)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}

func logInternalError(c echo.Context, traceID string, err error) {
	slog.ErrorContext(c.Request().Context(), "request failed",
		"trace_id", traceID,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"error", err,
	)
}

func validationErrorCode(vErr *services.ValidationError) errors.ErrorCode {
	switch vErr.Reason {
	case services.ReasonRequired:
		return errors.ValidationRequiredField
	case services.ReasonDateFormat:
		return errors.ValidationInvalidDate
	case services.ReasonDateRange:
		return errors.ValidationInvalidRange
	case services.ReasonCurrency:
		return errors.ValidationCurrency
	}

	switch vErr.Field {
	case "type":
		return errors.TransactionInvalidType
	case "amountMinor":
		return errors.TransactionInvalidAmount
	default:
		return errors.ValidationGeneral
	}
}
