package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/sftlabs/sft-registry/internal/config"
	"github.com/sftlabs/sft-registry/internal/storage"
	"github.com/sftlabs/sft-registry/internal/storage/memory"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Environment = "test"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AdminEmails = "admin@example.com"
	cfg.Auth.OperatorEmails = "operator@example.com"
	cfg.HTTP.RateLimitPerSec = 1000
	cfg.HTTP.RateLimitBurst = 1000
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(t *testing.T, store storage.Store) http.Handler {
	t.Helper()
	r, err := New(testConfig(), testLogger(), store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func mustRouter(t *testing.T) http.Handler {
	t.Helper()
	return newRouter(t, memory.NewStore())
}

func requestJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

type authPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func registerUser(t *testing.T, r http.Handler, email string) authPayload {
	t.Helper()
	rr := requestJSON(t, r, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "strong-password",
	}, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	var payload authPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	return payload
}

type registrationPayload struct {
	NumericID   int    `json:"numeric_id"`
	FormattedID string `json:"formatted_id"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

func registerApplication(t *testing.T, r http.Handler, token, name string) registrationPayload {
	t.Helper()
	rr := requestJSON(t, r, http.MethodPost, "/api/v1/registrations", map[string]string{
		"name":        name,
		"description": "test application",
	}, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create registration status=%d body=%s", rr.Code, rr.Body.String())
	}
	var payload registrationPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	return payload
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	r := mustRouter(t)

	health := requestJSON(t, r, http.MethodGet, "/health", nil, "")
	if health.Code != http.StatusOK {
		t.Fatalf("health status=%d body=%s", health.Code, health.Body.String())
	}
	if !strings.Contains(health.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health body: %s", health.Body.String())
	}

	metricsResp := requestJSON(t, r, http.MethodGet, "/metrics", nil, "")
	if metricsResp.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", metricsResp.Code)
	}
	if !strings.Contains(metricsResp.Body.String(), "sft_registry_numbers_remaining") {
		t.Fatal("expected registry gauge in metrics output")
	}
}

func TestAuthRegisterLoginMeAndRefreshRotation(t *testing.T) {
	r := mustRouter(t)
	registered := registerUser(t, r, "someone@example.com")

	if registered.User.Role != "viewer" {
		t.Fatalf("expected default viewer role, got %q", registered.User.Role)
	}

	me := requestJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, registered.AccessToken)
	if me.Code != http.StatusOK {
		t.Fatalf("auth me status=%d body=%s", me.Code, me.Body.String())
	}

	refresh := requestJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": registered.RefreshToken,
	}, "")
	if refresh.Code != http.StatusOK {
		t.Fatalf("refresh status=%d body=%s", refresh.Code, refresh.Body.String())
	}

	var refreshed authPayload
	if err := json.Unmarshal(refresh.Body.Bytes(), &refreshed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if refreshed.RefreshToken == registered.RefreshToken {
		t.Fatal("expected refresh token rotation")
	}

	secondRefresh := requestJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": registered.RefreshToken,
	}, "")
	if secondRefresh.Code != http.StatusUnauthorized {
		t.Fatalf("expected old refresh token to fail, got status=%d body=%s", secondRefresh.Code, secondRefresh.Body.String())
	}
}

func TestRegistrationLifecycle(t *testing.T) {
	r := mustRouter(t)
	operator := registerUser(t, r, "operator@example.com")

	record := registerApplication(t, r, operator.AccessToken, "WebApp_Authentication")
	if !strings.HasPrefix(record.FormattedID, "WEON") {
		t.Fatalf("formatted id = %q, want WEON prefix", record.FormattedID)
	}
	if record.NumericID < 3000 || record.NumericID > 9999 {
		t.Fatalf("numeric id %d outside allocation range", record.NumericID)
	}
	if record.Status != "active" {
		t.Fatalf("status = %q, want active", record.Status)
	}

	byNumber := requestJSON(t, r, http.MethodGet, "/api/v1/registrations/"+strconv.Itoa(record.NumericID), nil, operator.AccessToken)
	if byNumber.Code != http.StatusOK {
		t.Fatalf("get by number status=%d body=%s", byNumber.Code, byNumber.Body.String())
	}

	byFormatted := requestJSON(t, r, http.MethodGet, "/api/v1/registrations/"+record.FormattedID, nil, operator.AccessToken)
	if byFormatted.Code != http.StatusOK {
		t.Fatalf("get by formatted id status=%d body=%s", byFormatted.Code, byFormatted.Body.String())
	}

	unused := 3000
	if record.NumericID == unused {
		unused = 3001
	}
	missing := requestJSON(t, r, http.MethodGet, "/api/v1/registrations/"+strconv.Itoa(unused), nil, operator.AccessToken)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown number, got %d", missing.Code)
	}

	list := requestJSON(t, r, http.MethodGet, "/api/v1/registrations", nil, operator.AccessToken)
	if list.Code != http.StatusOK {
		t.Fatalf("list status=%d body=%s", list.Code, list.Body.String())
	}
	var listBody struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &listBody); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if listBody.Total != 1 {
		t.Fatalf("expected 1 registration, got %d", listBody.Total)
	}

	availability := requestJSON(t, r, http.MethodGet, "/api/v1/numbers/"+strconv.Itoa(record.NumericID)+"/availability", nil, "")
	if availability.Code != http.StatusOK {
		t.Fatalf("availability status=%d body=%s", availability.Code, availability.Body.String())
	}
	if !strings.Contains(availability.Body.String(), `"available":false`) {
		t.Fatalf("expected issued number to be unavailable: %s", availability.Body.String())
	}

	badNumber := requestJSON(t, r, http.MethodGet, "/api/v1/numbers/abc/availability", nil, "")
	if badNumber.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-integer number, got %d", badNumber.Code)
	}
}

func TestViewerCannotIssueNumbers(t *testing.T) {
	r := mustRouter(t)
	viewer := registerUser(t, r, "someone@example.com")

	created := requestJSON(t, r, http.MethodPost, "/api/v1/registrations", map[string]string{
		"name": "Inventory",
	}, viewer.AccessToken)
	if created.Code != http.StatusForbidden {
		t.Fatalf("expected viewer to be forbidden, got status=%d body=%s", created.Code, created.Body.String())
	}

	anonymous := requestJSON(t, r, http.MethodPost, "/api/v1/registrations", map[string]string{
		"name": "Inventory",
	}, "")
	if anonymous.Code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous to be unauthorized, got status=%d", anonymous.Code)
	}

	listing := requestJSON(t, r, http.MethodGet, "/api/v1/registrations", nil, viewer.AccessToken)
	if listing.Code != http.StatusOK {
		t.Fatalf("expected viewer to list registrations, got status=%d body=%s", listing.Code, listing.Body.String())
	}
}

func TestReservationConflicts(t *testing.T) {
	r := mustRouter(t)
	operator := registerUser(t, r, "operator@example.com")

	reserved := requestJSON(t, r, http.MethodPost, "/api/v1/reservations", map[string]interface{}{
		"number":      4311,
		"name":        "WebApp_Authentication",
		"description": "carved out for the auth team",
	}, operator.AccessToken)
	if reserved.Code != http.StatusCreated {
		t.Fatalf("reserve status=%d body=%s", reserved.Code, reserved.Body.String())
	}
	var record registrationPayload
	if err := json.Unmarshal(reserved.Body.Bytes(), &record); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if record.FormattedID != "WEON4311" {
		t.Fatalf("formatted id = %q, want WEON4311", record.FormattedID)
	}
	if record.Status != "reserved" {
		t.Fatalf("status = %q, want reserved", record.Status)
	}

	duplicate := requestJSON(t, r, http.MethodPost, "/api/v1/reservations", map[string]interface{}{
		"number": 4311,
		"name":   "Another_App",
	}, operator.AccessToken)
	if duplicate.Code != http.StatusConflict {
		t.Fatalf("expected conflict for taken number, got status=%d body=%s", duplicate.Code, duplicate.Body.String())
	}

	outOfRange := requestJSON(t, r, http.MethodPost, "/api/v1/reservations", map[string]interface{}{
		"number": 99,
		"name":   "Another_App",
	}, operator.AccessToken)
	if outOfRange.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range number, got status=%d body=%s", outOfRange.Code, outOfRange.Body.String())
	}
}

func TestBulkRegistration(t *testing.T) {
	r := mustRouter(t)
	operator := registerUser(t, r, "operator@example.com")

	bulk := requestJSON(t, r, http.MethodPost, "/api/v1/registrations/bulk", map[string]interface{}{
		"applications": []map[string]string{
			{"name": "Payments_Gateway"},
			{"name": "   "},
			{"name": "Reporting", "description": "nightly jobs"},
		},
	}, operator.AccessToken)
	if bulk.Code != http.StatusOK {
		t.Fatalf("bulk status=%d body=%s", bulk.Code, bulk.Body.String())
	}

	var body struct {
		Requested int `json:"requested"`
		Succeeded int `json:"succeeded"`
		Results   []struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(bulk.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if body.Requested != 3 || body.Succeeded != 2 {
		t.Fatalf("requested=%d succeeded=%d, want 3 and 2", body.Requested, body.Succeeded)
	}
	if body.Results[1].Success || body.Results[1].Error == "" {
		t.Fatalf("expected blank name to fail with an error, got %+v", body.Results[1])
	}

	empty := requestJSON(t, r, http.MethodPost, "/api/v1/registrations/bulk", map[string]interface{}{
		"applications": []map[string]string{},
	}, operator.AccessToken)
	if empty.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got status=%d body=%s", empty.Code, empty.Body.String())
	}
}

func TestStatusUpdatePermissions(t *testing.T) {
	r := mustRouter(t)
	operator := registerUser(t, r, "operator@example.com")
	admin := registerUser(t, r, "admin@example.com")

	record := registerApplication(t, r, operator.AccessToken, "Billing")

	operatorPatch := requestJSON(t, r, http.MethodPatch, "/api/v1/registrations/"+strconv.Itoa(record.NumericID)+"/status", map[string]string{
		"status": "reserved",
	}, operator.AccessToken)
	if operatorPatch.Code != http.StatusForbidden {
		t.Fatalf("expected operator to be forbidden, got status=%d body=%s", operatorPatch.Code, operatorPatch.Body.String())
	}

	adminPatch := requestJSON(t, r, http.MethodPatch, "/api/v1/registrations/"+strconv.Itoa(record.NumericID)+"/status", map[string]string{
		"status": "reserved",
	}, admin.AccessToken)
	if adminPatch.Code != http.StatusOK {
		t.Fatalf("admin patch status=%d body=%s", adminPatch.Code, adminPatch.Body.String())
	}
	if !strings.Contains(adminPatch.Body.String(), `"status":"reserved"`) {
		t.Fatalf("expected reserved status in body: %s", adminPatch.Body.String())
	}

	invalid := requestJSON(t, r, http.MethodPatch, "/api/v1/registrations/"+strconv.Itoa(record.NumericID)+"/status", map[string]string{
		"status": "retired",
	}, admin.AccessToken)
	if invalid.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got status=%d body=%s", invalid.Code, invalid.Body.String())
	}

	missing := requestJSON(t, r, http.MethodPatch, "/api/v1/registrations/2999/status", map[string]string{
		"status": "active",
	}, admin.AccessToken)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown registration, got status=%d body=%s", missing.Code, missing.Body.String())
	}
}

func TestStatsEndpoints(t *testing.T) {
	r := mustRouter(t)
	operator := registerUser(t, r, "operator@example.com")
	registerApplication(t, r, operator.AccessToken, "Analytics")

	overview := requestJSON(t, r, http.MethodGet, "/api/v1/stats/overview", nil, "")
	if overview.Code != http.StatusOK {
		t.Fatalf("overview status=%d body=%s", overview.Code, overview.Body.String())
	}
	if !strings.Contains(overview.Body.String(), `"used_count":1`) {
		t.Fatalf("expected one used number in overview: %s", overview.Body.String())
	}

	timeline := requestJSON(t, r, http.MethodGet, "/api/v1/stats/timeline?days=5", nil, operator.AccessToken)
	if timeline.Code != http.StatusOK {
		t.Fatalf("timeline status=%d body=%s", timeline.Code, timeline.Body.String())
	}
	var timelineBody struct {
		Days []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"days"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(timeline.Body.Bytes(), &timelineBody); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(timelineBody.Days) != 5 {
		t.Fatalf("expected 5 day buckets, got %d", len(timelineBody.Days))
	}
	if timelineBody.Total != 1 {
		t.Fatalf("expected 1 registration in window, got %d", timelineBody.Total)
	}

	anonymousTimeline := requestJSON(t, r, http.MethodGet, "/api/v1/stats/timeline", nil, "")
	if anonymousTimeline.Code != http.StatusUnauthorized {
		t.Fatalf("expected timeline to require auth, got status=%d", anonymousTimeline.Code)
	}

	badDays := requestJSON(t, r, http.MethodGet, "/api/v1/stats/timeline?days=0", nil, operator.AccessToken)
	if badDays.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for days=0, got status=%d", badDays.Code)
	}
}

func TestExportDownloads(t *testing.T) {
	r := mustRouter(t)
	viewer := registerUser(t, r, "someone@example.com")
	operator := registerUser(t, r, "operator@example.com")
	registerApplication(t, r, operator.AccessToken, "Payments_Gateway")

	forbidden := requestJSON(t, r, http.MethodGet, "/api/v1/exports/csv", nil, viewer.AccessToken)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected viewer export to be forbidden, got status=%d body=%s", forbidden.Code, forbidden.Body.String())
	}

	csvExport := requestJSON(t, r, http.MethodGet, "/api/v1/exports/csv", nil, operator.AccessToken)
	if csvExport.Code != http.StatusOK {
		t.Fatalf("csv export status=%d body=%s", csvExport.Code, csvExport.Body.String())
	}
	if got := csvExport.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("csv content type = %q", got)
	}
	if got := csvExport.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Fatalf("csv content disposition = %q", got)
	}
	if !strings.HasPrefix(csvExport.Body.String(), "SFT_Number") {
		t.Fatalf("csv body should start with the header row: %s", csvExport.Body.String())
	}

	pdfExport := requestJSON(t, r, http.MethodGet, "/api/v1/exports/pdf", nil, operator.AccessToken)
	if pdfExport.Code != http.StatusOK {
		t.Fatalf("pdf export status=%d", pdfExport.Code)
	}
	if !bytes.HasPrefix(pdfExport.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf export to start with %PDF")
	}

	xlsxExport := requestJSON(t, r, http.MethodGet, "/api/v1/exports/spreadsheet", nil, operator.AccessToken)
	if xlsxExport.Code != http.StatusOK {
		t.Fatalf("spreadsheet export status=%d", xlsxExport.Code)
	}
	if got := xlsxExport.Header().Get("Content-Type"); !strings.Contains(got, "spreadsheetml") {
		t.Fatalf("spreadsheet content type = %q", got)
	}

	unknown := requestJSON(t, r, http.MethodGet, "/api/v1/exports/doc", nil, operator.AccessToken)
	if unknown.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got status=%d", unknown.Code)
	}
}

func TestAuditLogVisibility(t *testing.T) {
	r := mustRouter(t)
	operator := registerUser(t, r, "operator@example.com")
	admin := registerUser(t, r, "admin@example.com")

	registerApplication(t, r, operator.AccessToken, "Inventory")

	forbidden := requestJSON(t, r, http.MethodGet, "/api/v1/admin/audit-logs", nil, operator.AccessToken)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected operator to be forbidden, got status=%d body=%s", forbidden.Code, forbidden.Body.String())
	}

	logs := requestJSON(t, r, http.MethodGet, "/api/v1/admin/audit-logs?action=application_registered", nil, admin.AccessToken)
	if logs.Code != http.StatusOK {
		t.Fatalf("audit logs status=%d body=%s", logs.Code, logs.Body.String())
	}
	var body struct {
		Items []struct {
			Action   string `json:"action"`
			ActorID  string `json:"actor_id"`
			TargetID string `json:"target_id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(logs.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("expected 1 audit entry, got %d", body.Total)
	}
	if body.Items[0].ActorID != operator.User.ID {
		t.Fatalf("actor id = %q, want %q", body.Items[0].ActorID, operator.User.ID)
	}
}

func TestLedgerSurvivesRestart(t *testing.T) {
	store := memory.NewStore()

	first := newRouter(t, store)
	operator := registerUser(t, first, "operator@example.com")
	record := registerApplication(t, first, operator.AccessToken, "Analytics")

	second := newRouter(t, store)
	availability := requestJSON(t, second, http.MethodGet, "/api/v1/numbers/"+strconv.Itoa(record.NumericID)+"/availability", nil, "")
	if availability.Code != http.StatusOK {
		t.Fatalf("availability status=%d body=%s", availability.Code, availability.Body.String())
	}
	if !strings.Contains(availability.Body.String(), `"available":false`) {
		t.Fatalf("expected issued number to stay taken after restart: %s", availability.Body.String())
	}
}
