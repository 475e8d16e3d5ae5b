package dto

import (
	"finstats/internal/models"
	"finstats/internal/validation"
)

// StatisticsRequest carries the query parameters of GET /api/v1/statistics
type StatisticsRequest struct {
	Profile          string `query:"profile" json:"profile" validate:"required,max=100"`
	Currency         string `query:"currency" json:"currency" validate:"required,currency_code"`
	From             string `query:"from" json:"from" validate:"required,iso_date"`
	To               string `query:"to" json:"to" validate:"required,iso_date"`
	IncludeConverted string `query:"includeConverted" json:"includeConverted" validate:"omitempty,bool_flag"`
}

// ToQuery converts the request into the statistics engine input.
// An absent includeConverted means false.
func (r StatisticsRequest) ToQuery() models.StatisticsQuery {
	flag, _ := validation.ParseFlag(r.IncludeConverted)
	return models.StatisticsQuery{
		Profile:          r.Profile,
		Currency:         r.Currency,
		From:             r.From,
		To:               r.To,
		IncludeConverted: flag,
	}
}
