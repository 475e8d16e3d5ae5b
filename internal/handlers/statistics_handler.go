package handlers

import (
	"log/slog"
	"net/http"

	"finstats/internal/dto"
	"finstats/internal/services"

	"github.com/labstack/echo/v4"
)

// StatisticsHandler serves aggregated income/expense statistics
type StatisticsHandler struct {
	statisticsService services.StatisticsServiceInterface
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(statisticsService services.StatisticsServiceInterface) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

// GetStatistics computes totals and per-tag breakdowns for a profile and date range
// @Summary Get statistics
// @Description Income, expense and net balance for a profile in one currency, with per-tag breakdowns.
// @Description With includeConverted, records in other currencies are converted at current rates;
// @Description currencies without a usable rate are listed in meta.skippedCurrencies.
// @Tags Statistics
// @Security BearerAuth
// @Produce json
// @Param profile query string true "Profile name"
// @Param currency query string true "Base currency (ISO 4217)"
// @Param from query string true "First day, YYYY-MM-DD (inclusive)"
// @Param to query string true "Last day, YYYY-MM-DD (inclusive)"
// @Param includeConverted query string false "Convert other currencies" Enums(true, false, 1, 0)
// @Success 200 {object} object{data=models.StatisticsResult}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_002 / 007 / 008 / 009"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_002 - Transaction storage failure"
// @Router /api/v1/statistics [get]
func (h *StatisticsHandler) GetStatistics(c echo.Context) error {
	var req dto.StatisticsRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.statisticsService.GetStatistics(c.Request().Context(), req.ToQuery())
	if err != nil {
		return SendServiceError(c, err)
	}

	if userID := getUserIDFromContext(c); userID != "" {
		slog.DebugContext(c.Request().Context(), "statistics served",
			"trace_id", getTraceID(c),
			"user_id", userID,
			"profile", result.Profile,
		)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Data: result})
}
