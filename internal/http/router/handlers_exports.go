package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sftlabs/sft-registry/internal/auditlog"
	"github.com/sftlabs/sft-registry/internal/export"
	"github.com/sftlabs/sft-registry/internal/metrics"
)

func (a *api) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "format must be one of xlsx, csv, pdf")
		return
	}

	records := a.registry.All()
	report, err := a.exports.Render(format, records, a.registry.Stats())
	if err != nil {
		a.logger.Error("export render failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "unable to render export")
		return
	}

	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	a.recordAuditLog(r, auditlog.ActionLedgerExported, "export", string(format), nil, nil, map[string]interface{}{
		"file_name": report.FileName,
		"records":   len(records),
	})

	writeAttachment(w, report.ContentType, report.FileName, report.Content)
}
