package router

import (
	"math"
	"net/http"
	"strings"

	"github.com/sftlabs/sft-registry/internal/auditlog"
)

func (a *api) handleAuditLogList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 50, 1, 200)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
		return
	}
	offset, ok := queryInt(r, "offset", 0, 0, math.MaxInt)
	if !ok {
		writeError(w, http.StatusBadRequest, "offset must be zero or positive")
		return
	}

	result := a.auditLogs.List(auditlog.ListInput{
		ActorID:    strings.TrimSpace(r.URL.Query().Get("actor_id")),
		Action:     strings.TrimSpace(r.URL.Query().Get("action")),
		TargetType: strings.TrimSpace(r.URL.Query().Get("target_type")),
		TargetID:   strings.TrimSpace(r.URL.Query().Get("target_id")),
		Limit:      limit,
		Offset:     offset,
	})

	writeJSON(w, http.StatusOK, result)
}
