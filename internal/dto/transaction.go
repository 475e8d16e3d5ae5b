package dto

import (
	"time"

	"finstats/internal/models"

	"github.com/google/uuid"
)

// CreateTransactionRequest is the body of POST /api/v1/transactions
type CreateTransactionRequest struct {
	Profile     string    `json:"profile" validate:"required,max=100"`
	Type        string    `json:"type" validate:"required,transaction_type"`
	AmountMinor *int64    `json:"amountMinor" validate:"required,amount_minor"`
	Currency    string    `json:"currency" validate:"required,currency_code"`
	Tags        []string  `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Description string    `json:"description" validate:"max=500"`
	OccurredAt  time.Time `json:"occurredAt" validate:"required"`
}

// ToModel builds the storage record; normalization happens in the service.
func (r CreateTransactionRequest) ToModel() *models.Transaction {
	var amount int64
	if r.AmountMinor != nil {
		amount = *r.AmountMinor
	}
	return &models.Transaction{
		Profile:     r.Profile,
		Type:        r.Type,
		AmountMinor: amount,
		Currency:    r.Currency,
		Tags:        models.TagList(r.Tags),
		Description: r.Description,
		OccurredAt:  r.OccurredAt,
	}
}

// TransactionResponse is the stored form of a recorded transaction
type TransactionResponse struct {
	ID          uuid.UUID `json:"id"`
	Profile     string    `json:"profile"`
	Type        string    `json:"type"`
	AmountMinor int64     `json:"amountMinor"`
	Currency    string    `json:"currency"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTransactionResponse maps a stored record to its API shape
func NewTransactionResponse(t *models.Transaction) TransactionResponse {
	tags := []string(t.Tags)
	if tags == nil {
		tags = []string{}
	}
	return TransactionResponse{
		ID:          t.ID,
		Profile:     t.Profile,
		Type:        t.Type,
		AmountMinor: t.AmountMinor,
		Currency:    t.Currency,
		Tags:        tags,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
	}
}
