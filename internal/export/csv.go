package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/sftlabs/sft-registry/internal/sft"
)

// renderCSV writes the flat record dump, one row per registration under
// the shared header.
func renderCSV(records []sft.Registration) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		row := []string{
			strconv.Itoa(record.NumericID),
			record.FormattedID,
			record.DisplayName,
			record.Description,
			record.Timestamp.UTC().Format(time.RFC3339),
			string(record.Status),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row for %s: %w", record.FormattedID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
