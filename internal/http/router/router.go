// Package router wires the registry services into an HTTP API.
package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sftlabs/sft-registry/internal/auditlog"
	"github.com/sftlabs/sft-registry/internal/auth"
	"github.com/sftlabs/sft-registry/internal/config"
	"github.com/sftlabs/sft-registry/internal/export"
	"github.com/sftlabs/sft-registry/internal/registry"
	"github.com/sftlabs/sft-registry/internal/storage"
)

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type api struct {
	authService  *auth.Service
	tokenManager *auth.TokenManager
	registry     *registry.Service
	exports      *export.Service
	auditLogs    *auditlog.Service
	logger       *slog.Logger
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Service:   "sft-registry-api",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// New builds the chi router with baseline middleware and all routes.
// The store carries the ledger; the caller chooses the backend.
func New(cfg config.Config, logger *slog.Logger, store storage.Store) (http.Handler, error) {
	tokenManager, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	if err != nil {
		return nil, err
	}

	registryService, err := registry.NewService(registry.Config{
		Store:        store,
		PlainNumbers: cfg.Registry.PlainNumbers,
	})
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	apiHandlers := &api{
		authService:  auth.NewService(auth.BuildBootstrapRoleMap(cfg.Auth.AdminEmails, cfg.Auth.OperatorEmails)),
		tokenManager: tokenManager,
		registry:     registryService,
		exports:      export.NewService(),
		auditLogs:    auditlog.NewService(),
		logger:       logger,
	}

	limiter := newRequestRateLimiter(cfg.HTTP.RateLimitPerSec, cfg.HTTP.RateLimitBurst, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(securityHeaders)
	r.Use(corsHeaders(cfg.HTTP.AllowedOrigins))
	r.Use(limiter.middleware)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/health", healthHandler)

		v1.Get("/numbers/{number}/availability", apiHandlers.handleNumberAvailability)
		v1.Get("/stats/overview", apiHandlers.handleStatsOverview)

		v1.Post("/auth/register", apiHandlers.handleAuthRegister)
		v1.Post("/auth/login", apiHandlers.handleAuthLogin)
		v1.Post("/auth/refresh", apiHandlers.handleAuthRefresh)

		v1.Group(func(private chi.Router) {
			private.Use(apiHandlers.authenticate)
			private.Get("/auth/me", apiHandlers.handleAuthMe)
			private.Post("/auth/logout", apiHandlers.handleAuthLogout)

			private.Group(func(readRoutes chi.Router) {
				readRoutes.Use(apiHandlers.requirePermission(auth.PermissionViewRegistrations))
				readRoutes.Get("/registrations", apiHandlers.handleRegistrationList)
				readRoutes.Get("/registrations/{number}", apiHandlers.handleRegistrationGet)
			})

			private.Group(func(issueRoutes chi.Router) {
				issueRoutes.Use(apiHandlers.requirePermission(auth.PermissionRegisterNumbers))
				issueRoutes.Post("/registrations", apiHandlers.handleRegistrationCreate)
				issueRoutes.Post("/registrations/bulk", apiHandlers.handleRegistrationBulk)
			})

			private.Group(func(reserveRoutes chi.Router) {
				reserveRoutes.Use(apiHandlers.requirePermission(auth.PermissionReserveNumbers))
				reserveRoutes.Post("/reservations", apiHandlers.handleReservationCreate)
			})

			private.Group(func(statusRoutes chi.Router) {
				statusRoutes.Use(apiHandlers.requirePermission(auth.PermissionManageStatus))
				statusRoutes.Patch("/registrations/{number}/status", apiHandlers.handleRegistrationStatus)
			})

			private.Group(func(statsRoutes chi.Router) {
				statsRoutes.Use(apiHandlers.requirePermission(auth.PermissionViewStats))
				statsRoutes.Get("/stats/timeline", apiHandlers.handleStatsTimeline)
			})

			private.Group(func(exportRoutes chi.Router) {
				exportRoutes.Use(apiHandlers.requirePermission(auth.PermissionExportLedger))
				exportRoutes.Get("/exports/{format}", apiHandlers.handleExportDownload)
			})

			private.Group(func(adminRoutes chi.Router) {
				adminRoutes.Use(apiHandlers.requirePermission(auth.PermissionViewAuditLogs))
				adminRoutes.Get("/admin/audit-logs", apiHandlers.handleAuditLogList)
			})
		})
	})

	return r, nil
}
