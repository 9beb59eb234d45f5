package finance

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

// GrowthCache keeps recently computed growth series. Implementations must be safe for
// concurrent use; a miss or a failing cache only costs a recomputation.
type GrowthCache interface {
	Get(ctx context.Context, key string) ([]models.MonthlyGrowth, bool)
	Set(ctx context.Context, key string, series []models.MonthlyGrowth, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// Aggregator computes the financial summaries over patients and expenses. It only reads
// from the store and holds no mutable state, so one instance serves every request.
type Aggregator struct {
	Patients databases.PatientDatabase
	Expenses databases.ExpenseDatabase
	Resolver Resolver

	Cache    GrowthCache
	CacheTTL time.Duration
}

// NewAggregator creates an Aggregator resolving calendar months in r's time zone
func NewAggregator(p databases.PatientDatabase, e databases.ExpenseDatabase, r Resolver) *Aggregator {
	return &Aggregator{Patients: p, Expenses: e, Resolver: r}
}

// FiltersBranch reports whether branch narrows a query. Empty and AllBranches don't.
func FiltersBranch(branch string) bool {
	return branch != "" && branch != models.AllBranches
}

func withBranch(filter bson.M, branch string) bson.M {
	if FiltersBranch(branch) {
		filter["branch"] = branch
	}
	return filter
}

func between(w Window) bson.M {
	return bson.M{"$gte": w.Start, "$lte": w.End}
}

// DashboardSummary counts patients registered in w and sums what they paid, what they
// were estimated and how the payments split between cash and online. Only payments dated
// inside w are counted; estimates are counted in full.
func (a *Aggregator) DashboardSummary(ctx context.Context, w Window, branch string) (models.DashboardSummary, error) {
	filter := withBranch(bson.M{"createdAt": between(w)}, branch)

	patients, err := a.Patients.Find(ctx, filter)
	if err != nil {
		return models.DashboardSummary{}, models.NewStoreError("find patients", err)
	}

	summary := summarize(patients, w)
	zap.S().Debugw("dashboard summary",
		"branch", branch,
		"start", w.Start,
		"end", w.End,
		"registrations", summary.Registrations)
	return summary, nil
}

// summarize reduces the patients registered in w. A payment whose mode is neither Cash
// nor Online still counts towards TotalPaid but towards neither bucket.
func summarize(patients []models.Patient, w Window) models.DashboardSummary {
	var s models.DashboardSummary
	s.Registrations = len(patients)
	for _, p := range patients {
		s.TotalEstimate += p.TotalEstimate()
		for _, pay := range p.Payments {
			if pay.Date == nil || !w.Contains(*pay.Date) {
				continue
			}
			amount := pay.Amount.Float64()
			s.TotalPaid += amount
			switch pay.Mode {
			case models.PaymentModeCash:
				s.CashTotal += amount
			case models.PaymentModeOnline:
				s.OnlineTotal += amount
			}
		}
	}
	s.Pipeline = s.TotalEstimate
	return s
}

// ExpenseByCategory sums expenses in w (all time when w is nil) per category. Categories
// without expenses are left out.
func (a *Aggregator) ExpenseByCategory(ctx context.Context, w *Window, branch string) (map[string]float64, error) {
	match := withBranch(bson.M{}, branch)
	if w != nil {
		match["date"] = between(*w)
	}

	totals, err := a.Expenses.SumAmounts(ctx, match, "type")
	if err != nil {
		return nil, models.NewStoreError("sum expenses by type", err)
	}

	result := make(map[string]float64, len(totals))
	for _, t := range totals {
		result[t.Category] += t.Total.Float64()
	}
	return result, nil
}

// RevenueVsExpense returns the revenue collected from patients registered in w and the
// expenses dated in w. With no window every payment and every expense counts.
func (a *Aggregator) RevenueVsExpense(ctx context.Context, w *Window, branch string) (models.RevenueExpense, error) {
	patientFilter := withBranch(bson.M{}, branch)
	if w != nil {
		patientFilter["createdAt"] = between(*w)
	}

	patients, err := a.Patients.Find(ctx, patientFilter)
	if err != nil {
		return models.RevenueExpense{}, models.NewStoreError("find patients", err)
	}

	var result models.RevenueExpense
	for _, p := range patients {
		for _, pay := range p.Payments {
			if w != nil && (pay.Date == nil || !w.Contains(*pay.Date)) {
				continue
			}
			result.Revenue += pay.Amount.Float64()
		}
	}

	expenseFilter := withBranch(bson.M{}, branch)
	if w != nil {
		expenseFilter["date"] = between(*w)
	}
	totals, err := a.Expenses.SumAmounts(ctx, expenseFilter, "")
	if err != nil {
		return models.RevenueExpense{}, models.NewStoreError("sum expenses", err)
	}
	for _, t := range totals {
		result.Expense += t.Total.Float64()
	}
	return result, nil
}

// GrowthSeries returns revenue and profit for each of the 12 months of year. Revenue is
// every payment dated in the month from any patient of the branch, whenever the patient
// registered; profit subtracts the expenses dated in the same month.
func (a *Aggregator) GrowthSeries(ctx context.Context, year int, branch string) ([]models.MonthlyGrowth, error) {
	if year <= 0 {
		return nil, models.NewValidationError("year", "year required")
	}

	key := growthCacheKey(year, branch)
	if a.Cache != nil {
		if series, ok := a.Cache.Get(ctx, key); ok && len(series) == 12 {
			return series, nil
		}
	}

	yw := a.Resolver.Year(year)
	loc := a.Resolver.location()

	patientFilter := withBranch(bson.M{"payments.date": between(yw)}, branch)
	patients, err := a.Patients.Find(ctx, patientFilter, options.Find().SetProjection(bson.M{"payments": 1}))
	if err != nil {
		return nil, models.NewStoreError("find patients", err)
	}

	expenseFilter := withBranch(bson.M{"date": between(yw)}, branch)
	expenses, err := a.Expenses.Find(ctx, expenseFilter, options.Find().SetProjection(bson.M{"date": 1, "amount": 1}))
	if err != nil {
		return nil, models.NewStoreError("find expenses", err)
	}

	var revenue, expense [12]float64
	for _, p := range patients {
		for _, pay := range p.Payments {
			if pay.Date == nil || !yw.Contains(*pay.Date) {
				continue
			}
			revenue[pay.Date.In(loc).Month()-1] += pay.Amount.Float64()
		}
	}
	for _, e := range expenses {
		if !yw.Contains(e.Date) {
			continue
		}
		expense[e.Date.In(loc).Month()-1] += e.Amount.Float64()
	}

	series := make([]models.MonthlyGrowth, 12)
	for m := range series {
		series[m] = models.MonthlyGrowth{
			Month:   m + 1,
			Revenue: revenue[m],
			Profit:  revenue[m] - expense[m],
		}
	}

	if a.Cache != nil {
		a.Cache.Set(ctx, key, series, a.CacheTTL)
	}
	return series, nil
}

// InvalidateGrowth drops the cached series a payment or expense dated at dates in branch
// feeds: the branch's own series and the all-branches series of each year touched.
// It is a no-op on a nil Aggregator or one without a cache.
func (a *Aggregator) InvalidateGrowth(ctx context.Context, branch string, dates ...time.Time) {
	if a == nil || a.Cache == nil {
		return
	}
	loc := a.Resolver.location()
	seen := map[string]bool{}
	var keys []string
	for _, d := range dates {
		year := d.In(loc).Year()
		for _, b := range []string{branch, models.AllBranches} {
			key := growthCacheKey(year, b)
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	a.Cache.Delete(ctx, keys...)
}

func growthCacheKey(year int, branch string) string {
	if !FiltersBranch(branch) {
		branch = models.AllBranches
	}
	return fmt.Sprintf("growth:%d:%s", year, branch)
}
