package models

// StatisticsQuery is the caller-facing input of a statistics computation.
type StatisticsQuery struct {
	Profile          string
	Currency         string
	From             string
	To               string
	IncludeConverted bool
}

// Money is an amount in minor units tagged with its currency.
type Money struct {
	AmountMinor int64  `json:"amountMinor" yaml:"amountMinor"`
	Currency    string `json:"currency" yaml:"currency"`
}

// BreakdownItem is one tag's share of a type total.
type BreakdownItem struct {
	Tag         string `json:"tag" yaml:"tag"`
	AmountMinor int64  `json:"amountMinor" yaml:"amountMinor"`
	Currency    string `json:"currency" yaml:"currency"`
	Percentage  int64  `json:"percentage" yaml:"percentage"`
}

// StatisticsSummary carries the three headline figures.
type StatisticsSummary struct {
	TotalIncome  Money `json:"totalIncome" yaml:"totalIncome"`
	TotalExpense Money `json:"totalExpense" yaml:"totalExpense"`
	NetBalance   Money `json:"netBalance" yaml:"netBalance"`
}

// StatisticsMeta explains how the totals were assembled.
type StatisticsMeta struct {
	IncludeConverted  bool     `json:"includeConverted" yaml:"includeConverted"`
	SkippedCurrencies []string `json:"skippedCurrencies" yaml:"skippedCurrencies"`
	ConvertedCount    int      `json:"convertedCount" yaml:"convertedCount"`
	RatesAvailable    bool     `json:"ratesAvailable" yaml:"ratesAvailable"`
}

// StatisticsResult is the complete output of one statistics call.
type StatisticsResult struct {
	Profile          string            `json:"profile" yaml:"profile"`
	From             string            `json:"from" yaml:"from"`
	To               string            `json:"to" yaml:"to"`
	Summary          StatisticsSummary `json:"summary" yaml:"summary"`
	ExpenseBreakdown []BreakdownItem   `json:"expenseBreakdown" yaml:"expenseBreakdown"`
	IncomeBreakdown  []BreakdownItem   `json:"incomeBreakdown" yaml:"incomeBreakdown"`
	Meta             StatisticsMeta    `json:"meta" yaml:"meta"`
}
