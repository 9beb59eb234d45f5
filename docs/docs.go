// Package docs Clinic API.
//
// Documentation of the clinic back office API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//     - application/pdf
//
//     Security:
//     - basic
//     - bearer
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/clinic-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /login user login
// Exchanges an email and password for a bearer token.
// responses:
//   200: loginResponse
//   401: errorResponse

// A signed token and the capability of the user
// swagger:response loginResponse
type loginResponseWrapper struct {
	// in:body
	Body models.LoginResponse
}

// swagger:parameters dashboardSummary expenseSummary revenueExpenseSummary
type windowParamsWrapper struct {
	// A single day, YYYY-MM-DD
	// in:query
	Date string `json:"date"`
	// Month number, used together with year
	// in:query
	Month string `json:"month"`
	// in:query
	Year string `json:"year"`
	// in:query
	From string `json:"from"`
	// in:query
	To string `json:"to"`
	// Defaults to the caller's branch, or every branch for admins
	// in:query
	Branch string `json:"branch"`
}

// swagger:route GET /dashboard-summary finance dashboardSummary
// Registrations and revenue for a window, today when none is given.
// responses:
//   200: dashboardSummaryResponse
//   400: errorResponse
//   403: errorResponse

// Registrations and revenue for the window
// swagger:response dashboardSummaryResponse
type dashboardSummaryResponseWrapper struct {
	// in:body
	Body models.DashboardSummary
}

// swagger:route GET /expense-summary finance expenseSummary
// Expense totals per category.
// responses:
//   200: expenseSummaryResponse

// Expense totals keyed by category
// swagger:response expenseSummaryResponse
type expenseSummaryResponseWrapper struct {
	// in:body
	Body map[string]float64
}

// swagger:route GET /revenue-expense-summary finance revenueExpenseSummary
// Revenue against expense for a window.
// responses:
//   200: revenueExpenseResponse

// swagger:response revenueExpenseResponse
type revenueExpenseResponseWrapper struct {
	// in:body
	Body models.RevenueExpense
}

// swagger:route GET /profit-revenue-growth finance profitRevenueGrowth
// Twelve months of revenue and profit for a year.
// responses:
//   200: growthResponse
//   400: errorResponse

// One entry per month, January first
// swagger:response growthResponse
type growthResponseWrapper struct {
	// in:body
	Body []models.MonthlyGrowth
}

// swagger:route GET /patients/{id} patient patientByID
// Gets a single patient by patientId.
// responses:
//   200: patientResponse
//   403: errorResponse
//   404: errorResponse

// swagger:response patientResponse
type patientResponseWrapper struct {
	// in:body
	Body models.Patient
}

// swagger:route GET /bill/print/{patientId}/{invoiceNo} bill printInvoice
// Streams the PDF invoice for one payment.
// produces:
// - application/pdf
// responses:
//   200: pdfResponse
//   404: errorResponse

// The invoice document
// swagger:response pdfResponse
type pdfResponseWrapper struct {
	// in:body
	Body []byte
}

// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
