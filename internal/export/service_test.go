package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sftlabs/sft-registry/internal/sft"
)

func testRecords() []sft.Registration {
	registered := time.Date(2026, time.February, 14, 10, 30, 0, 0, time.UTC)
	return []sft.Registration{
		{
			NumericID:   4311,
			FormattedID: "WEON4311",
			DisplayName: "WebApp_Authentication",
			Description: "auth service",
			Timestamp:   registered,
			Status:      sft.StatusActive,
		},
		{
			NumericID:   5200,
			FormattedID: "PAAY5200",
			DisplayName: "PaymentGateway",
			Description: "card, wallet",
			Timestamp:   registered.Add(48 * time.Hour),
			Status:      sft.StatusReserved,
		},
	}
}

func testStats() sft.UsageSummary {
	return sft.UsageSummary{
		TotalAvailable:  sft.TotalNumbers,
		UsedCount:       2,
		Remaining:       sft.TotalNumbers - 2,
		UsagePercentage: float64(2) / float64(sft.TotalNumbers) * 100,
		LowestUsed:      4311,
		HighestUsed:     5200,
		MeanUsed:        4755.5,
	}
}

func newTestService(at time.Time) *Service {
	svc := NewService()
	svc.now = func() time.Time { return at }
	return svc
}

func TestRenderSpreadsheet(t *testing.T) {
	svc := newTestService(time.Date(2026, time.March, 10, 15, 4, 5, 0, time.UTC))

	report, err := svc.Render(FormatSpreadsheet, testRecords(), testStats())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if report.FileName != "sft_report_20260310_150405.xlsx" {
		t.Fatalf("Render() file name = %q", report.FileName)
	}
	if report.ContentType != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("Render() content type = %q", report.ContentType)
	}

	f, err := excelize.OpenReader(bytes.NewReader(report.Content))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Applications" || sheets[1] != "Summary" {
		t.Fatalf("GetSheetList() = %v, want [Applications Summary]", sheets)
	}

	header, err := f.GetCellValue("Applications", "A1")
	if err != nil {
		t.Fatalf("GetCellValue(A1) error = %v", err)
	}
	if header != "SFT_Number" {
		t.Fatalf("Applications!A1 = %q, want SFT_Number", header)
	}
	formatted, err := f.GetCellValue("Applications", "B2")
	if err != nil {
		t.Fatalf("GetCellValue(B2) error = %v", err)
	}
	if formatted != "WEON4311" {
		t.Fatalf("Applications!B2 = %q, want WEON4311", formatted)
	}
	status, err := f.GetCellValue("Applications", "F3")
	if err != nil {
		t.Fatalf("GetCellValue(F3) error = %v", err)
	}
	if status != string(sft.StatusReserved) {
		t.Fatalf("Applications!F3 = %q, want %q", status, sft.StatusReserved)
	}

	used, err := f.GetCellValue("Summary", "B3")
	if err != nil {
		t.Fatalf("GetCellValue(Summary!B3) error = %v", err)
	}
	if used != "2" {
		t.Fatalf("Summary!B3 = %q, want 2", used)
	}
}

func TestRenderCSV(t *testing.T) {
	svc := newTestService(time.Date(2026, time.March, 10, 15, 4, 5, 0, time.UTC))

	report, err := svc.Render(FormatCSV, testRecords(), testStats())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if report.FileName != "sft_data_20260310_150405.csv" {
		t.Fatalf("Render() file name = %q", report.FileName)
	}

	rows, err := csv.NewReader(bytes.NewReader(report.Content)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("csv has %d rows, want header plus 2 records", len(rows))
	}
	if rows[0][0] != "SFT_Number" || rows[0][5] != "Status" {
		t.Fatalf("csv header = %v", rows[0])
	}
	if rows[1][0] != "4311" || rows[1][1] != "WEON4311" {
		t.Fatalf("csv first record = %v", rows[1])
	}
	if rows[2][3] != "card, wallet" {
		t.Fatalf("csv description with comma = %q, want quoted field to survive", rows[2][3])
	}
	if rows[1][4] != "2026-02-14T10:30:00Z" {
		t.Fatalf("csv registration date = %q", rows[1][4])
	}
}

func TestRenderPDF(t *testing.T) {
	svc := newTestService(time.Date(2026, time.March, 10, 15, 4, 5, 0, time.UTC))

	report, err := svc.Render(FormatPDF, testRecords(), testStats())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if report.FileName != "sft_report_20260310_150405.pdf" {
		t.Fatalf("Render() file name = %q", report.FileName)
	}
	if report.ContentType != "application/pdf" {
		t.Fatalf("Render() content type = %q", report.ContentType)
	}
	if !bytes.HasPrefix(report.Content, []byte("%PDF")) {
		t.Fatal("Render() content does not look like a PDF document")
	}
}

func TestRenderPDFNoRecords(t *testing.T) {
	svc := newTestService(time.Now().UTC())

	report, err := svc.Render(FormatPDF, nil, sft.UsageSummary{TotalAvailable: sft.TotalNumbers, Remaining: sft.TotalNumbers})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(report.Content, []byte("%PDF")) {
		t.Fatal("Render() empty-ledger report does not look like a PDF document")
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	svc := NewService()

	if _, err := svc.Render(Format("docx"), nil, sft.UsageSummary{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Render(docx) error = %v, want ErrUnknownFormat", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "xlsx", want: FormatSpreadsheet},
		{in: " Excel ", want: FormatSpreadsheet},
		{in: "spreadsheet", want: FormatSpreadsheet},
		{in: "CSV", want: FormatCSV},
		{in: "pdf", want: FormatPDF},
		{in: "report", want: FormatPDF},
		{in: "docx", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Fatalf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseFormat(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
