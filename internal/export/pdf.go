package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/sftlabs/sft-registry/internal/sft"
)

// reportRecentLimit caps how many registrations the PDF lists, newest
// first.
const reportRecentLimit = 15

func renderUsageReport(records []sft.Registration, stats sft.UsageSummary, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SFT Usage Report", false)
	pdf.SetAuthor("SFT Number Registry", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "SFT Usage Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated at (UTC): %s", generatedAt.Format(time.RFC3339)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Pool usage", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total available: %d", stats.TotalAvailable), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Used: %d", stats.UsedCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Remaining: %d", stats.Remaining), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Usage: %.2f%%", stats.UsagePercentage), "", 1, "L", false, 0, "")
	if stats.UsedCount > 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("Lowest used: %d", stats.LowestUsed), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Highest used: %d", stats.HighestUsed), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Mean used: %.1f", stats.MeanUsed), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Recent registrations", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(records) == 0 {
		pdf.CellFormat(0, 6, "No registrations recorded.", "", 1, "L", false, 0, "")
	}
	recent := records
	if len(recent) > reportRecentLimit {
		recent = recent[len(recent)-reportRecentLimit:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		record := recent[i]
		line := fmt.Sprintf("%s  %s  %s (%s)", record.FormattedID, record.DisplayName, record.Timestamp.UTC().Format("2006-01-02"), record.Status)
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render usage report: %w", err)
	}
	return out.Bytes(), nil
}
