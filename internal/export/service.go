// Package export renders the ledger into downloadable documents: an
// Excel workbook, a flat CSV dump, and a PDF usage report.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sftlabs/sft-registry/internal/sft"
)

type Format string

const (
	FormatSpreadsheet Format = "xlsx"
	FormatCSV         Format = "csv"
	FormatPDF         Format = "pdf"
)

var ErrUnknownFormat = errors.New("unknown export format")

// exportHeader is the column set shared by the spreadsheet and CSV
// renderers.
var exportHeader = []string{"SFT_Number", "Formatted_ID", "Application_Name", "Description", "Registration_Date", "Status"}

// Report is a rendered document ready to write to a client or file.
type Report struct {
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	GeneratedAt time.Time `json:"generated_at"`
	Content     []byte    `json:"-"`
}

type Service struct {
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: func() time.Time { return time.Now().UTC() }}
}

// ParseFormat maps user-supplied format names onto a Format. Accepts a
// few aliases so the CLI and query params stay forgiving.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "xlsx", "excel", "spreadsheet":
		return FormatSpreadsheet, nil
	case "csv":
		return FormatCSV, nil
	case "pdf", "report":
		return FormatPDF, nil
	default:
		return "", ErrUnknownFormat
	}
}

// Render produces the requested document from the ledger view. Records
// arrive in issue order and are rendered as given.
func (s *Service) Render(format Format, records []sft.Registration, stats sft.UsageSummary) (Report, error) {
	generatedAt := s.now()

	var (
		content     []byte
		contentType string
		baseName    string
		err         error
	)
	switch format {
	case FormatSpreadsheet:
		content, err = renderSpreadsheet(records, stats)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		baseName = "sft_report"
	case FormatCSV:
		content, err = renderCSV(records)
		contentType = "text/csv; charset=utf-8"
		baseName = "sft_data"
	case FormatPDF:
		content, err = renderUsageReport(records, stats, generatedAt)
		contentType = "application/pdf"
		baseName = "sft_report"
	default:
		return Report{}, ErrUnknownFormat
	}
	if err != nil {
		return Report{}, err
	}

	return Report{
		FileName:    fmt.Sprintf("%s_%s.%s", baseName, generatedAt.Format("20060102_150405"), format),
		ContentType: contentType,
		GeneratedAt: generatedAt,
		Content:     content,
	}, nil
}
