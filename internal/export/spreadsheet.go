package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sftlabs/sft-registry/internal/sft"
)

const (
	applicationsSheet = "Applications"
	summarySheet      = "Summary"
)

// renderSpreadsheet builds a two-sheet workbook: every registration on
// the Applications sheet, pool usage on the Summary sheet.
func renderSpreadsheet(records []sft.Registration, stats sft.UsageSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", applicationsSheet); err != nil {
		return nil, fmt.Errorf("rename applications sheet: %w", err)
	}
	if err := f.SetColWidth(applicationsSheet, "A", "F", 22); err != nil {
		return nil, fmt.Errorf("size applications columns: %w", err)
	}

	for col, title := range exportHeader {
		if err := setCell(f, applicationsSheet, col+1, 1, title); err != nil {
			return nil, err
		}
	}
	for row, record := range records {
		values := []any{
			record.NumericID,
			record.FormattedID,
			record.DisplayName,
			record.Description,
			record.Timestamp.UTC().Format(time.RFC3339),
			string(record.Status),
		}
		for col, value := range values {
			if err := setCell(f, applicationsSheet, col+1, row+2, value); err != nil {
				return nil, err
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Total Available", stats.TotalAvailable},
		{"Used Numbers", stats.UsedCount},
		{"Remaining Numbers", stats.Remaining},
		{"Usage Percentage", fmt.Sprintf("%.2f%%", stats.UsagePercentage)},
	}
	if stats.UsedCount > 0 {
		summaryRows = append(summaryRows,
			[]any{"Lowest Used", stats.LowestUsed},
			[]any{"Highest Used", stats.HighestUsed},
			[]any{"Mean Used", fmt.Sprintf("%.1f", stats.MeanUsed)},
		)
	}
	for row, cells := range summaryRows {
		for col, value := range cells {
			if err := setCell(f, summarySheet, col+1, row+1, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s!%s: %w", sheet, cell, err)
	}
	return nil
}
