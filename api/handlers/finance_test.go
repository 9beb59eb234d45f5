package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/clinic-api/api/handlers"
	mocksdb "github.com/linesmerrill/clinic-api/databases/mocks"
	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/models"
	"github.com/linesmerrill/clinic-api/report"
)

func newFinance(t *testing.T) (handlers.Finance, *mocksdb.PatientDatabase, *mocksdb.ExpenseDatabase) {
	t.Helper()
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, kolkata)
	resolver := finance.Resolver{Location: kolkata, Now: func() time.Time { return now }}

	pdb := &mocksdb.PatientDatabase{}
	edb := &mocksdb.ExpenseDatabase{}
	return handlers.Finance{Aggregator: finance.NewAggregator(pdb, edb, resolver), Resolver: resolver}, pdb, edb
}

func TestFinance_DashboardSummaryHandler(t *testing.T) {
	f, pdb, _ := newFinance(t)

	paid := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	pdb.On("Find", mock.Anything, mock.MatchedBy(func(filter bson.M) bool {
		return filter["branch"] == "Main" && filter["createdAt"] != nil
	})).Return([]models.Patient{{
		PatientID:  100001,
		Branch:     "Main",
		Treatments: []models.Treatment{{Type: "IMPLANTS", Estimate: 800}},
		Payments:   []models.Payment{{Amount: 200, Date: &paid, Mode: models.PaymentModeCash}},
	}}, nil)

	req := newRequest(t, "GET", "/dashboard-summary?month=3&year=2024", desk, nil, nil)
	rr := serve(f.DashboardSummaryHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.DashboardSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.DashboardSummary{
		Registrations: 1,
		TotalPaid:     200,
		TotalEstimate: 800,
		Pipeline:      800,
		CashTotal:     200,
	}, got)
}

func TestFinance_DashboardSummaryHandlerForbiddenBranch(t *testing.T) {
	f, pdb, _ := newFinance(t)

	req := newRequest(t, "GET", "/dashboard-summary?branch=East", desk, nil, nil)
	rr := serve(f.DashboardSummaryHandler, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "branch not allowed", decodeError(t, rr).Response.Message)
	pdb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestFinance_DashboardSummaryHandlerBadWindow(t *testing.T) {
	f, _, _ := newFinance(t)

	req := newRequest(t, "GET", "/dashboard-summary?month=13&year=2024", manager, nil, nil)
	rr := serve(f.DashboardSummaryHandler, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFinance_DashboardSummaryHandlerStoreError(t *testing.T) {
	f, pdb, _ := newFinance(t)
	pdb.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	req := newRequest(t, "GET", "/dashboard-summary", manager, nil, nil)
	rr := serve(f.DashboardSummaryHandler, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "failed to get dashboard summary", resp.Response.Message)
	assert.NotContains(t, resp.Response.Error, "connection reset")
}

func TestFinance_ExpenseSummaryHandler(t *testing.T) {
	f, _, edb := newFinance(t)
	edb.On("SumAmounts", mock.Anything, bson.M{}, "type").Return([]models.CategoryTotal{
		{Category: "Salary", Total: 30000},
		{Category: "Lab", Total: 4500.5},
	}, nil)

	req := newRequest(t, "GET", "/expense-summary?branch=All%20Branches", admin, nil, nil)
	rr := serve(f.ExpenseSummaryHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"Salary": 30000, "Lab": 4500.5}`, rr.Body.String())
}

func TestFinance_RevenueExpenseSummaryHandler(t *testing.T) {
	f, pdb, edb := newFinance(t)
	paid := time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)
	pdb.On("Find", mock.Anything, bson.M{}).Return([]models.Patient{{
		Payments: []models.Payment{{Amount: 1000, Date: &paid}, {Amount: 250}},
	}}, nil)
	edb.On("SumAmounts", mock.Anything, bson.M{}, "").Return([]models.CategoryTotal{{Total: 400}}, nil)

	req := newRequest(t, "GET", "/revenue-expense-summary", manager, nil, nil)
	rr := serve(f.RevenueExpenseSummaryHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"revenue": 1250, "expense": 400}`, rr.Body.String())
}

func TestFinance_ProfitRevenueGrowthHandler(t *testing.T) {
	f, pdb, edb := newFinance(t)
	pdb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Patient{}, nil)
	edb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Expense{}, nil)

	req := newRequest(t, "GET", "/profit-revenue-growth?year=2024", manager, nil, nil)
	rr := serve(f.ProfitRevenueGrowthHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var series []models.MonthlyGrowth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &series))
	require.Len(t, series, 12)
	for i, m := range series {
		assert.Equal(t, i+1, m.Month)
	}
}

func TestFinance_ProfitRevenueGrowthHandlerYear(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing", "/profit-revenue-growth"},
		{"not a number", "/profit-revenue-growth?year=twenty"},
		{"zero", "/profit-revenue-growth?year=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, pdb, _ := newFinance(t)
			rr := serve(f.ProfitRevenueGrowthHandler, newRequest(t, "GET", tt.query, manager, nil, nil))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			pdb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFinance_ProfitRevenueGrowthExportHandler(t *testing.T) {
	f, pdb, edb := newFinance(t)
	pdb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Patient{}, nil)
	edb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Expense{}, nil)

	req := newRequest(t, "GET", "/profit-revenue-growth/export?year=2024", desk, nil, nil)
	rr := serve(f.ProfitRevenueGrowthExportHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, report.ContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), report.GrowthFilename(2024, "Main"))
	assert.Equal(t, "PK", rr.Body.String()[:2])
}

func TestFinance_ExpenseSummaryExportHandler(t *testing.T) {
	f, _, edb := newFinance(t)
	edb.On("SumAmounts", mock.Anything, mock.Anything, "type").Return([]models.CategoryTotal{{Category: "Rent", Total: 12000}}, nil)

	req := newRequest(t, "GET", "/expense-summary/export?year=2024", manager, nil, nil)
	rr := serve(f.ExpenseSummaryExportHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, report.ContentType, rr.Header().Get("Content-Type"))
}
