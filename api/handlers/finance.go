package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/models"
	"github.com/linesmerrill/clinic-api/report"
)

// Finance serves the financial summaries and their spreadsheet exports
type Finance struct {
	Aggregator *finance.Aggregator
	Resolver   finance.Resolver
}

// DashboardSummaryHandler returns registrations and revenue for the requested window,
// today when none is given
func (f Finance) DashboardSummaryHandler(w http.ResponseWriter, r *http.Request) {
	branch, err := requestedBranch(r)
	if err != nil {
		errorStatus("branch not allowed", w, err)
		return
	}
	win, err := f.Resolver.ResolveOrToday(finance.WindowParamsFromQuery(r.URL.Query()))
	if err != nil {
		errorStatus("invalid date window", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	summary, err := f.Aggregator.DashboardSummary(ctx, win, branch)
	if err != nil {
		errorStatus("failed to get dashboard summary", w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ExpenseSummaryHandler returns expense totals per category, all time when no window is given
func (f Finance) ExpenseSummaryHandler(w http.ResponseWriter, r *http.Request) {
	branch, win, ok := f.branchAndWindow(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	totals, err := f.Aggregator.ExpenseByCategory(ctx, win, branch)
	if err != nil {
		errorStatus("failed to get expense summary", w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// RevenueExpenseSummaryHandler returns revenue against expense for the window
func (f Finance) RevenueExpenseSummaryHandler(w http.ResponseWriter, r *http.Request) {
	branch, win, ok := f.branchAndWindow(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := f.Aggregator.RevenueVsExpense(ctx, win, branch)
	if err != nil {
		errorStatus("failed to get revenue and expense summary", w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ProfitRevenueGrowthHandler returns the 12 month revenue and profit series for a year
func (f Finance) ProfitRevenueGrowthHandler(w http.ResponseWriter, r *http.Request) {
	year, branch, series, ok := f.growth(w, r, api.WithQueryTimeout)
	if !ok {
		return
	}
	zap.S().Debugw("growth series", "year", year, "branch", branch)
	writeJSON(w, http.StatusOK, series)
}

// ProfitRevenueGrowthExportHandler returns the growth series as a spreadsheet
func (f Finance) ProfitRevenueGrowthExportHandler(w http.ResponseWriter, r *http.Request) {
	year, branch, series, ok := f.growth(w, r, api.WithExportTimeout)
	if !ok {
		return
	}
	b, err := report.Growth(year, branch, series)
	if err != nil {
		errorStatus("failed to build growth report", w, err)
		return
	}
	writeAttachment(w, report.ContentType, report.GrowthFilename(year, branch), b)
}

// ExpenseSummaryExportHandler returns the category totals as a spreadsheet
func (f Finance) ExpenseSummaryExportHandler(w http.ResponseWriter, r *http.Request) {
	branch, win, ok := f.branchAndWindow(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithExportTimeout(r.Context())
	defer cancel()

	totals, err := f.Aggregator.ExpenseByCategory(ctx, win, branch)
	if err != nil {
		errorStatus("failed to get expense summary", w, err)
		return
	}
	b, err := report.Expenses(branch, totals)
	if err != nil {
		errorStatus("failed to build expense report", w, err)
		return
	}
	writeAttachment(w, report.ContentType, report.ExpenseFilename(branch), b)
}

func (f Finance) branchAndWindow(w http.ResponseWriter, r *http.Request) (string, *finance.Window, bool) {
	branch, err := requestedBranch(r)
	if err != nil {
		errorStatus("branch not allowed", w, err)
		return "", nil, false
	}
	win, err := f.Resolver.Resolve(finance.WindowParamsFromQuery(r.URL.Query()))
	if err != nil {
		errorStatus("invalid date window", w, err)
		return "", nil, false
	}
	return branch, win, true
}

func (f Finance) growth(w http.ResponseWriter, r *http.Request, timeout func(context.Context) (context.Context, context.CancelFunc)) (int, string, []models.MonthlyGrowth, bool) {
	branch, err := requestedBranch(r)
	if err != nil {
		errorStatus("branch not allowed", w, err)
		return 0, "", nil, false
	}

	var year int
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			errorStatus("invalid year", w, models.NewValidationError("year", "invalid year %q", raw))
			return 0, "", nil, false
		}
	}

	ctx, cancel := timeout(r.Context())
	defer cancel()

	series, err := f.Aggregator.GrowthSeries(ctx, year, branch)
	if err != nil {
		errorStatus("failed to get growth series", w, err)
		return 0, "", nil, false
	}
	return year, branch, series, true
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
