package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/clinic-api/databases/mocks"
	"github.com/linesmerrill/clinic-api/models"
)

func at(loc *time.Location, y int, m time.Month, d, h, min int) *time.Time {
	t := time.Date(y, m, d, h, min, 0, 0, loc)
	return &t
}

type memoryCache struct {
	entries map[string][]models.MonthlyGrowth
	sets    int
}

func (c *memoryCache) Get(_ context.Context, key string) ([]models.MonthlyGrowth, bool) {
	s, ok := c.entries[key]
	return s, ok
}

func (c *memoryCache) Set(_ context.Context, key string, series []models.MonthlyGrowth, _ time.Duration) {
	if c.entries == nil {
		c.entries = map[string][]models.MonthlyGrowth{}
	}
	c.entries[key] = series
	c.sets++
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		delete(c.entries, k)
	}
}

func TestDashboardSummary(t *testing.T) {
	r := testResolver(t)
	loc := r.Location

	patient := models.Patient{
		PatientID: 100001,
		Branch:    "Central",
		CreatedAt: *at(loc, 2024, time.March, 10, 9, 0),
		Treatments: []models.Treatment{
			{Type: "FILLING", Estimate: 500},
			{Type: "SCALING", Estimate: 300},
		},
		Payments: []models.Payment{
			{Amount: 200, Mode: models.PaymentModeCash, Date: at(loc, 2024, time.March, 12, 11, 0)},
			{Amount: 100, Mode: models.PaymentModeOnline, Date: at(loc, 2024, time.April, 2, 11, 0)},
		},
	}

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.MatchedBy(func(f bson.M) bool {
		return f["branch"] == "Central" && f["createdAt"] != nil
	})).Return([]models.Patient{patient}, nil)

	a := NewAggregator(patientDB, &mocks.ExpenseDatabase{}, r)
	w := r.Month(2024, time.March)

	got, err := a.DashboardSummary(context.Background(), w, "Central")
	require.NoError(t, err)
	assert.Equal(t, models.DashboardSummary{
		Registrations: 1,
		TotalPaid:     200,
		TotalEstimate: 800,
		Pipeline:      800,
		CashTotal:     200,
		OnlineTotal:   0,
	}, got)

	again, err := a.DashboardSummary(context.Background(), w, "Central")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestDashboardSummaryAllBranchesDropsFilter(t *testing.T) {
	r := testResolver(t)

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.MatchedBy(func(f bson.M) bool {
		_, ok := f["branch"]
		return !ok
	})).Return(nil, nil)

	a := NewAggregator(patientDB, &mocks.ExpenseDatabase{}, r)
	got, err := a.DashboardSummary(context.Background(), r.Today(), models.AllBranches)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardSummary{}, got)
	patientDB.AssertExpectations(t)
}

func TestSummarizeUnknownModeOnlyCountsTowardsTotal(t *testing.T) {
	r := testResolver(t)
	loc := r.Location
	w := r.Day(time.Date(2024, 3, 15, 0, 0, 0, 0, loc))

	patients := []models.Patient{{
		Payments: []models.Payment{
			{Amount: 150, Mode: models.PaymentModeCash, Date: at(loc, 2024, 3, 15, 8, 0)},
			{Amount: 50, Mode: "Cheque", Date: at(loc, 2024, 3, 15, 9, 0)},
			{Amount: 75, Mode: models.PaymentModeOnline, Date: nil},
		},
	}}

	s := summarize(patients, w)
	assert.Equal(t, 200.0, s.TotalPaid)
	assert.Equal(t, 150.0, s.CashTotal)
	assert.Equal(t, 0.0, s.OnlineTotal)
	assert.NotEqual(t, s.TotalPaid, s.CashTotal+s.OnlineTotal)
}

func TestSummarizeWindowBoundaries(t *testing.T) {
	r := testResolver(t)
	loc := r.Location
	w := r.Day(time.Date(2024, 3, 15, 0, 0, 0, 0, loc))

	lastInstant := time.Date(2024, 3, 15, 23, 59, 59, 999000000, loc)
	nextDay := time.Date(2024, 3, 16, 0, 0, 0, 0, loc)
	firstInstant := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)

	patients := []models.Patient{{
		Payments: []models.Payment{
			{Amount: 10, Mode: models.PaymentModeOnline, Date: &lastInstant},
			{Amount: 20, Mode: models.PaymentModeOnline, Date: &nextDay},
			{Amount: 40, Mode: models.PaymentModeOnline, Date: &firstInstant},
		},
	}}

	s := summarize(patients, w)
	assert.Equal(t, 50.0, s.TotalPaid)
	assert.Equal(t, 50.0, s.OnlineTotal)
}

func TestDashboardSummaryStoreError(t *testing.T) {
	r := testResolver(t)

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	a := NewAggregator(patientDB, &mocks.ExpenseDatabase{}, r)
	_, err := a.DashboardSummary(context.Background(), r.Today(), "")

	var serr *models.StoreError
	require.True(t, errors.As(err, &serr))
	assert.EqualError(t, errors.Unwrap(err), "mocked-error")
}

func TestExpenseByCategory(t *testing.T) {
	r := testResolver(t)
	w := r.Month(2024, time.March)

	expenseDB := &mocks.ExpenseDatabase{}
	expenseDB.On("SumAmounts", mock.Anything, mock.MatchedBy(func(f bson.M) bool {
		return f["branch"] == "Central" && f["date"] != nil
	}), "type").Return([]models.CategoryTotal{
		{Category: "Rent", Total: 20000},
		{Category: "Lab", Total: 3500.5},
	}, nil)

	a := NewAggregator(&mocks.PatientDatabase{}, expenseDB, r)
	got, err := a.ExpenseByCategory(context.Background(), &w, "Central")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Rent": 20000, "Lab": 3500.5}, got)
	_, present := got["Salary"]
	assert.False(t, present)
}

func TestExpenseByCategoryWithoutWindow(t *testing.T) {
	r := testResolver(t)

	expenseDB := &mocks.ExpenseDatabase{}
	expenseDB.On("SumAmounts", mock.Anything, bson.M{}, "type").Return(nil, nil)

	a := NewAggregator(&mocks.PatientDatabase{}, expenseDB, r)
	got, err := a.ExpenseByCategory(context.Background(), nil, models.AllBranches)
	require.NoError(t, err)
	assert.Empty(t, got)
	expenseDB.AssertExpectations(t)
}

func TestRevenueVsExpense(t *testing.T) {
	r := testResolver(t)
	loc := r.Location

	patients := []models.Patient{{
		Payments: []models.Payment{
			{Amount: 1000, Mode: models.PaymentModeCash, Date: at(loc, 2024, 3, 2, 10, 0)},
			{Amount: 500, Mode: models.PaymentModeOnline, Date: at(loc, 2024, 5, 2, 10, 0)},
			{Amount: 25, Mode: models.PaymentModeOnline},
		},
	}}

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.Anything).Return(patients, nil)
	expenseDB := &mocks.ExpenseDatabase{}
	expenseDB.On("SumAmounts", mock.Anything, mock.Anything, "").
		Return([]models.CategoryTotal{{Total: 400}}, nil)

	a := NewAggregator(patientDB, expenseDB, r)

	all, err := a.RevenueVsExpense(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, models.RevenueExpense{Revenue: 1525, Expense: 400}, all)

	w := r.Month(2024, time.March)
	march, err := a.RevenueVsExpense(context.Background(), &w, "")
	require.NoError(t, err)
	assert.Equal(t, models.RevenueExpense{Revenue: 1000, Expense: 400}, march)
}

func TestRevenueVsExpenseExpenseStoreError(t *testing.T) {
	r := testResolver(t)

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.Anything).Return(nil, nil)
	expenseDB := &mocks.ExpenseDatabase{}
	expenseDB.On("SumAmounts", mock.Anything, mock.Anything, "").Return(nil, errors.New("mocked-error"))

	a := NewAggregator(patientDB, expenseDB, r)
	_, err := a.RevenueVsExpense(context.Background(), nil, "")

	var serr *models.StoreError
	assert.True(t, errors.As(err, &serr))
}

func TestGrowthSeries(t *testing.T) {
	r := testResolver(t)
	loc := r.Location

	patients := []models.Patient{
		{Payments: []models.Payment{
			{Amount: 1000, Date: at(loc, 2024, time.January, 5, 10, 0)},
			{Amount: 300, Date: at(loc, 2024, time.March, 31, 23, 0)},
			{Amount: 999, Date: at(loc, 2023, time.December, 31, 22, 0)},
		}},
		{Payments: []models.Payment{
			{Amount: 200, Date: at(loc, 2024, time.January, 20, 10, 0)},
		}},
	}
	expenses := []models.Expense{
		{Amount: 400, Date: *at(loc, 2024, time.January, 3, 0, 0)},
		{Amount: 50, Date: *at(loc, 2024, time.June, 30, 12, 0)},
	}

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(patients, nil)
	expenseDB := &mocks.ExpenseDatabase{}
	expenseDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(expenses, nil)

	a := NewAggregator(patientDB, expenseDB, r)
	series, err := a.GrowthSeries(context.Background(), 2024, "Central")
	require.NoError(t, err)
	require.Len(t, series, 12)

	for i, m := range series {
		assert.Equal(t, i+1, m.Month)
	}
	assert.Equal(t, models.MonthlyGrowth{Month: 1, Revenue: 1200, Profit: 800}, series[0])
	assert.Equal(t, models.MonthlyGrowth{Month: 3, Revenue: 300, Profit: 300}, series[2])
	assert.Equal(t, models.MonthlyGrowth{Month: 6, Revenue: 0, Profit: -50}, series[5])
	assert.Equal(t, models.MonthlyGrowth{Month: 12, Revenue: 0, Profit: 0}, series[11])
}

func TestGrowthSeriesEmptyBranch(t *testing.T) {
	r := testResolver(t)
	loc := r.Location

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	expenseDB := &mocks.ExpenseDatabase{}
	expenseDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Expense{
		{Amount: 75, Date: *at(loc, 2024, time.February, 1, 0, 0)},
	}, nil)

	a := NewAggregator(patientDB, expenseDB, r)
	series, err := a.GrowthSeries(context.Background(), 2024, "Nowhere")
	require.NoError(t, err)
	require.Len(t, series, 12)
	for _, m := range series {
		assert.Equal(t, 0.0, m.Revenue)
	}
	assert.Equal(t, -75.0, series[1].Profit)
}

func TestGrowthSeriesRequiresYear(t *testing.T) {
	r := testResolver(t)

	patientDB := &mocks.PatientDatabase{}
	expenseDB := &mocks.ExpenseDatabase{}
	a := NewAggregator(patientDB, expenseDB, r)

	_, err := a.GrowthSeries(context.Background(), 0, "")
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "year", verr.Field)

	patientDB.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
	expenseDB.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestGrowthSeriesStoreError(t *testing.T) {
	r := testResolver(t)

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	a := NewAggregator(patientDB, &mocks.ExpenseDatabase{}, r)
	_, err := a.GrowthSeries(context.Background(), 2024, "")

	var serr *models.StoreError
	assert.True(t, errors.As(err, &serr))
}

func TestGrowthSeriesUsesCache(t *testing.T) {
	r := testResolver(t)

	patientDB := &mocks.PatientDatabase{}
	patientDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()
	expenseDB := &mocks.ExpenseDatabase{}
	expenseDB.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()

	cache := &memoryCache{}
	a := NewAggregator(patientDB, expenseDB, r)
	a.Cache = cache
	a.CacheTTL = time.Minute

	first, err := a.GrowthSeries(context.Background(), 2024, "")
	require.NoError(t, err)
	second, err := a.GrowthSeries(context.Background(), 2024, models.AllBranches)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.entries, "growth:2024:All Branches")
	patientDB.AssertNumberOfCalls(t, "Find", 1)
}

func TestInvalidateGrowth(t *testing.T) {
	r := testResolver(t)
	series := []models.MonthlyGrowth{{Month: 1}}
	cache := &memoryCache{entries: map[string][]models.MonthlyGrowth{
		"growth:2024:Main":         series,
		"growth:2024:All Branches": series,
		"growth:2024:East":         series,
		"growth:2023:Main":         series,
		"growth:2023:All Branches": series,
	}}
	a := NewAggregator(&mocks.PatientDatabase{}, &mocks.ExpenseDatabase{}, r)
	a.Cache = cache

	// 20:00 UTC on 31 Dec is already 1 Jan in the clinic's zone
	a.InvalidateGrowth(context.Background(), "Main", time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC))

	assert.NotContains(t, cache.entries, "growth:2024:Main")
	assert.NotContains(t, cache.entries, "growth:2024:All Branches")
	assert.Contains(t, cache.entries, "growth:2024:East")
	assert.Contains(t, cache.entries, "growth:2023:Main")
	assert.Contains(t, cache.entries, "growth:2023:All Branches")
}

func TestInvalidateGrowthWithoutCache(t *testing.T) {
	var nilAgg *Aggregator
	assert.NotPanics(t, func() {
		nilAgg.InvalidateGrowth(context.Background(), "Main", time.Now())
		NewAggregator(nil, nil, testResolver(t)).InvalidateGrowth(context.Background(), "Main", time.Now())
	})
}
