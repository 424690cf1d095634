package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"lobbycast/internal/models"
)

// RevenueWorkbook holds the figures extracted from an uploaded Excel file.
// TotalAmount is nil when the workbook carried no usable headline figure.
type RevenueWorkbook struct {
	TotalAmount      *float64
	PercentageChange float64
	Trends           []*models.RevenueTrend
	Proportions      []*models.RevenueProportion
}

// ParseRevenueWorkbook reads an .xlsx/.xls revenue workbook. Sheets are
// classified by their header row: a "Month" column marks the trend sheet, a
// "Segment" (or "Category") column marks the proportions sheet, and any other
// sheet is scanned for "Total Revenue" / "Change" label rows.
func ParseRevenueWorkbook(path string) (*RevenueWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &RevenueWorkbook{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		header := headerIndex(rows[0])
		switch {
		case header["month"] >= 0 && header["value"] >= 0:
			wb.Trends = append(wb.Trends, parseTrendRows(rows[1:], header)...)
		case (header["segment"] >= 0 || header["category"] >= 0) && header["percentage"] >= 0:
			wb.Proportions = append(wb.Proportions, parseProportionRows(rows[1:], header)...)
		default:
			parseSummaryRows(rows, wb)
		}
	}

	if wb.TotalAmount == nil && len(wb.Trends) == 0 && len(wb.Proportions) == 0 {
		return nil, fmt.Errorf("no revenue data found in workbook")
	}
	return wb, nil
}

// headerIndex maps lowercased header cells to their column, -1 when absent
func headerIndex(header []string) map[string]int {
	idx := map[string]int{
		"month": -1, "value": -1, "highlight": -1,
		"segment": -1, "category": -1, "percentage": -1, "color": -1,
	}
	for col, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if _, known := idx[key]; known {
			idx[key] = col
		}
	}
	return idx
}

func parseTrendRows(rows [][]string, header map[string]int) []*models.RevenueTrend {
	var trends []*models.RevenueTrend
	for _, row := range rows {
		month := strings.TrimSpace(cellAt(row, header["month"]))
		value, ok := parseWorkbookNumber(cellAt(row, header["value"]))
		if month == "" || !ok {
			continue
		}
		trends = append(trends, &models.RevenueTrend{
			Month:     month,
			Value:     value,
			Highlight: parseWorkbookBool(cellAt(row, header["highlight"])),
		})
	}
	return trends
}

func parseProportionRows(rows [][]string, header map[string]int) []*models.RevenueProportion {
	segmentCol := header["segment"]
	if segmentCol < 0 {
		segmentCol = header["category"]
	}

	var proportions []*models.RevenueProportion
	for _, row := range rows {
		segment := strings.TrimSpace(cellAt(row, segmentCol))
		pct, ok := parseWorkbookNumber(cellAt(row, header["percentage"]))
		if segment == "" || !ok {
			continue
		}
		proportions = append(proportions, &models.RevenueProportion{
			Segment:    segment,
			Percentage: pct,
			Color:      strings.TrimSpace(cellAt(row, header["color"])),
		})
	}
	return proportions
}

// parseSummaryRows scans label/value rows for the headline figures
func parseSummaryRows(rows [][]string, wb *RevenueWorkbook) {
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(row[0]))
		value, ok := firstNumber(row[1:])
		if !ok {
			continue
		}
		switch {
		case strings.Contains(label, "total revenue"):
			v := value
			wb.TotalAmount = &v
		case strings.Contains(label, "change"):
			wb.PercentageChange = value
		}
	}
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func firstNumber(cells []string) (float64, bool) {
	for _, cell := range cells {
		if v, ok := parseWorkbookNumber(cell); ok {
			return v, true
		}
	}
	return 0, false
}

// parseWorkbookNumber accepts display-formatted cells like "$1,234.50" or "12%"
func parseWorkbookNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseWorkbookBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "x":
		return true
	}
	return false
}
