package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/linesmerrill/clinic-api/models"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestGrowth(t *testing.T) {
	series := make([]models.MonthlyGrowth, 12)
	for i := range series {
		series[i] = models.MonthlyGrowth{Month: i + 1}
	}
	series[0] = models.MonthlyGrowth{Month: 1, Revenue: 1200, Profit: 800}
	series[5] = models.MonthlyGrowth{Month: 6, Revenue: 0, Profit: -50}

	data, err := Growth(2024, "Central", series)
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{"Growth"}, f.GetSheetList())

	rows, err := f.GetRows("Growth")
	require.NoError(t, err)
	require.Len(t, rows, 14)
	assert.Equal(t, []string{"Month", "Revenue", "Expense", "Profit"}, rows[0])
	assert.Equal(t, []string{"January", "1200", "400", "800"}, rows[1])
	assert.Equal(t, []string{"June", "0", "50", "-50"}, rows[6])
	assert.Equal(t, []string{"Total", "1200", "450", "750"}, rows[13])
}

func TestExpenses(t *testing.T) {
	data, err := Expenses("", map[string]float64{"Rent": 20000, "Lab": 3500.5})
	require.NoError(t, err)

	f := open(t, data)
	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Category", "Amount"},
		{"Lab", "3500.5"},
		{"Rent", "20000"},
		{"Total", "23500.5"},
	}, rows)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "profit-revenue-growth_2024_All-Branches.xlsx", GrowthFilename(2024, ""))
	assert.Equal(t, "expense-summary_North-Wing.xlsx", ExpenseFilename("North Wing"))
}
