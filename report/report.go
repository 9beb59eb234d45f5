package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/linesmerrill/clinic-api/models"
)

// ContentType is the media type of every workbook produced here
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	growthSheet  = "Growth"
	expenseSheet = "Expenses"
)

var growthHeader = []string{"Month", "Revenue", "Expense", "Profit"}

var expenseHeader = []string{"Category", "Amount"}

// GrowthFilename names the growth export for year and branch
func GrowthFilename(year int, branch string) string {
	return fmt.Sprintf("profit-revenue-growth_%d_%s.xlsx", year, slug(branch))
}

// ExpenseFilename names the expense export for branch
func ExpenseFilename(branch string) string {
	return fmt.Sprintf("expense-summary_%s.xlsx", slug(branch))
}

// Growth writes the twelve months of series to a single-sheet workbook with a totals row
func Growth(year int, branch string, series []models.MonthlyGrowth) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, growthSheet, growthHeader, []float64{14, 16, 16, 16}); err != nil {
		return nil, err
	}

	var revenue, profit float64
	for i, m := range series {
		row := i + 2
		values := []interface{}{
			time.Month(m.Month).String(),
			m.Revenue,
			m.Revenue - m.Profit,
			m.Profit,
		}
		if err := setRow(f, growthSheet, row, values); err != nil {
			return nil, err
		}
		revenue += m.Revenue
		profit += m.Profit
	}
	total := []interface{}{"Total", revenue, revenue - profit, profit}
	if err := setRow(f, growthSheet, len(series)+2, total); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Profit and revenue growth %d", year),
		Subject: branchLabel(branch),
		Creator: "clinic-api",
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}
	return write(f)
}

// Expenses writes the per-category totals sorted by category name
func Expenses(branch string, totals map[string]float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, expenseSheet, expenseHeader, []float64{28, 16}); err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(totals))
	for c := range totals {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var sum float64
	for i, c := range categories {
		if err := setRow(f, expenseSheet, i+2, []interface{}{c, totals[c]}); err != nil {
			return nil, err
		}
		sum += totals[c]
	}
	if err := setRow(f, expenseSheet, len(categories)+2, []interface{}{"Total", sum}); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Expense summary",
		Subject: branchLabel(branch),
		Creator: "clinic-api",
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}
	return write(f)
}

func newSheet(f *excelize.File, name string, header []string, widths []float64) error {
	index, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := setRow(f, name, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func write(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func branchLabel(branch string) string {
	if branch == "" {
		return models.AllBranches
	}
	return branch
}

func slug(branch string) string {
	b := []byte(branchLabel(branch))
	for i, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			b[i] = '-'
		}
	}
	return string(b)
}
