package router

import (
	"net/http"

	"github.com/sftlabs/sft-registry/internal/registry"
)

type statsTimelineResponse struct {
	Days  []registry.DayCount `json:"days"`
	Total int                 `json:"total"`
}

func (a *api) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.Stats())
}

func (a *api) handleStatsTimeline(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(r, "days", 14, 1, 365)
	if !ok {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	buckets := a.registry.Timeline(days)
	total := 0
	for _, day := range buckets {
		total += day.Count
	}

	writeJSON(w, http.StatusOK, statsTimelineResponse{
		Days:  buckets,
		Total: total,
	})
}
