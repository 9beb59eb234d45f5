package models

// DashboardSummary is the registration and revenue snapshot for a window
type DashboardSummary struct {
	Registrations int     `json:"registrations"`
	TotalPaid     float64 `json:"totalPaid"`
	TotalEstimate float64 `json:"totalEstimate"`
	Pipeline      float64 `json:"pipeline"`
	CashTotal     float64 `json:"cashTotal"`
	OnlineTotal   float64 `json:"onlineTotal"`
}

// RevenueExpense pairs the revenue and expense totals for a window
type RevenueExpense struct {
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
}

// MonthlyGrowth is one month of the profit/revenue growth series
type MonthlyGrowth struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
