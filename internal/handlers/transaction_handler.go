package handlers

import (
	"net/http"

	"finstats/internal/dto"
	"finstats/internal/services"

	"github.com/labstack/echo/v4"
)

// TransactionHandler ingests raw transactions for the statistics engine
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransaction records one income or expense transaction
// @Summary Record transaction
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} object{data=dto.TransactionResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_00x / TRANSACTION_002 / TRANSACTION_006"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_002 - Transaction storage failure"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req dto.CreateTransactionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	transaction := req.ToModel()
	if err := h.transactionService.RecordTransaction(c.Request().Context(), transaction); err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{Data: dto.NewTransactionResponse(transaction)})
}
