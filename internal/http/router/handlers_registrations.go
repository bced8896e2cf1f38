package router

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sftlabs/sft-registry/internal/auditlog"
	"github.com/sftlabs/sft-registry/internal/registry"
	"github.com/sftlabs/sft-registry/internal/sft"
)

type registrationCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registrationBulkRequest struct {
	Applications []registrationCreateRequest `json:"applications"`
}

type registrationBulkResponse struct {
	Results   []registry.BulkResult `json:"results"`
	Requested int                   `json:"requested"`
	Succeeded int                   `json:"succeeded"`
}

type reservationCreateRequest struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registrationStatusRequest struct {
	Status string `json:"status"`
}

type registrationListResponse struct {
	Items []sft.Registration `json:"items"`
	Total int                `json:"total"`
}

type availabilityResponse struct {
	Number    int  `json:"number"`
	Available bool `json:"available"`
}

func (a *api) handleRegistrationCreate(w http.ResponseWriter, r *http.Request) {
	var req registrationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := a.registry.Register(req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrEmptyName):
			writeError(w, http.StatusBadRequest, "application name is required")
		case errors.Is(err, sft.ErrRangeExhausted):
			writeError(w, http.StatusConflict, "no numbers left in the allocation range")
		default:
			a.logger.Error("registration persist failed", "error", err)
			writeError(w, http.StatusInternalServerError, "unable to persist registration")
		}
		return
	}

	a.recordAuditLog(r, auditlog.ActionApplicationRegistered, "registration", record.FormattedID, nil, record, nil)
	writeJSON(w, http.StatusCreated, record)
}

func (a *api) handleRegistrationBulk(w http.ResponseWriter, r *http.Request) {
	var req registrationBulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applications := make([]registry.BulkApplication, 0, len(req.Applications))
	for _, item := range req.Applications {
		applications = append(applications, registry.BulkApplication{
			Name:        item.Name,
			Description: item.Description,
		})
	}

	results, err := a.registry.BulkRegister(applications)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNoApplications):
			writeError(w, http.StatusBadRequest, "at least one application is required")
		default:
			writeError(w, http.StatusInternalServerError, "bulk registration failed")
		}
		return
	}

	succeeded := 0
	for _, result := range results {
		if result.Success {
			succeeded++
		}
	}

	a.recordAuditLog(r, auditlog.ActionBulkRegistered, "registration", "bulk", nil, nil, map[string]int{
		"requested": len(results),
		"succeeded": succeeded,
	})

	writeJSON(w, http.StatusOK, registrationBulkResponse{
		Results:   results,
		Requested: len(results),
		Succeeded: succeeded,
	})
}

func (a *api) handleReservationCreate(w http.ResponseWriter, r *http.Request) {
	var req reservationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := a.registry.Reserve(req.Number, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrEmptyName):
			writeError(w, http.StatusBadRequest, "application name is required")
		case errors.Is(err, sft.ErrOutOfRange):
			writeError(w, http.StatusBadRequest, "number is outside the allocation range")
		case errors.Is(err, sft.ErrAlreadyUsed):
			writeError(w, http.StatusConflict, "number is already taken")
		default:
			a.logger.Error("reservation persist failed", "number", req.Number, "error", err)
			writeError(w, http.StatusInternalServerError, "unable to persist reservation")
		}
		return
	}

	a.recordAuditLog(r, auditlog.ActionNumberReserved, "registration", record.FormattedID, nil, record, nil)
	writeJSON(w, http.StatusCreated, record)
}

func (a *api) handleRegistrationGet(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "number"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "number is required")
		return
	}

	var (
		record sft.Registration
		found  bool
	)
	if number, err := strconv.Atoi(raw); err == nil {
		record, found = a.registry.Get(number)
	} else {
		record, found = a.registry.GetByFormatted(raw)
	}
	if !found {
		writeError(w, http.StatusNotFound, "registration not found")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (a *api) handleRegistrationList(w http.ResponseWriter, r *http.Request) {
	var filter *sft.Status
	statusRaw := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("status")))
	if statusRaw != "" {
		status := sft.Status(statusRaw)
		switch status {
		case sft.StatusActive, sft.StatusReserved:
			filter = &status
		default:
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	limit, ok := queryInt(r, "limit", 50, 1, 500)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}
	offset, ok := queryInt(r, "offset", 0, 0, math.MaxInt)
	if !ok {
		writeError(w, http.StatusBadRequest, "offset must be zero or positive")
		return
	}

	items := a.registry.List(filter, limit, offset)
	writeJSON(w, http.StatusOK, registrationListResponse{
		Items: items,
		Total: len(items),
	})
}

func (a *api) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "number")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "number must be an integer")
		return
	}

	var req registrationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	before, _ := a.registry.Get(number)

	record, err := a.registry.SetStatus(number, sft.Status(strings.TrimSpace(strings.ToLower(req.Status))))
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "status must be active or reserved")
		case errors.Is(err, registry.ErrNotFound):
			writeError(w, http.StatusNotFound, "registration not found")
		default:
			a.logger.Error("status change persist failed", "number", number, "error", err)
			writeError(w, http.StatusInternalServerError, "unable to persist status change")
		}
		return
	}

	a.recordAuditLog(r, auditlog.ActionStatusChanged, "registration", record.FormattedID, before, record, nil)
	writeJSON(w, http.StatusOK, record)
}

func (a *api) handleNumberAvailability(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "number")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "number must be an integer")
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		Number:    number,
		Available: a.registry.IsAvailable(number),
	})
}
