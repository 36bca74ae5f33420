// Package api serves the alert history and monitor controls over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rajasatyajit/SasmexMonitor/config"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	middlewares "github.com/rajasatyajit/SasmexMonitor/internal/middleware"
	"github.com/rajasatyajit/SasmexMonitor/internal/monitor"
	"github.com/rajasatyajit/SasmexMonitor/internal/settings"
	"github.com/rajasatyajit/SasmexMonitor/internal/store"
)

// Poller runs poll cycles on demand
type Poller interface {
	TriggerAsync(name string) error
	Status() []monitor.JobStatus
}

// UsageReporter summarises API usage
type UsageReporter interface {
	Usage(ctx context.Context) (map[string]int, error)
}

// Handler handles HTTP requests for the API
type Handler struct {
	store     store.Store
	poller    Poller
	settings  *settings.Holder
	usage     UsageReporter
	stream    http.Handler
	admin     config.AdminConfig
	version   string
	buildTime string
	gitCommit string
	startTime time.Time
}

// NewHandler creates a new API handler. poller and holder may be nil; the
// routes that need them then answer 503.
func NewHandler(store store.Store, poller Poller, holder *settings.Holder, admin config.AdminConfig, version, buildTime, gitCommit string) *Handler {
	return &Handler{
		store:     store,
		poller:    poller,
		settings:  holder,
		admin:     admin,
		version:   version,
		buildTime: buildTime,
		gitCommit: gitCommit,
		startTime: time.Now(),
	}
}

// SetUsageReporter enables GET /v1/admin/usage
func (h *Handler) SetUsageReporter(u UsageReporter) { h.usage = u }

// SetStream mounts the live notification feed at GET /v1/stream
func (h *Handler) SetStream(s http.Handler) { h.stream = s }

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.healthHandler)
		r.Get("/health/ready", h.readinessHandler)
		r.Get("/health/live", h.livenessHandler)
		r.Get("/version", h.versionHandler)

		r.Get("/alerts", h.getAlertsHandler)
		r.Get("/alerts/latest", h.getLatestAlertHandler)
		r.Get("/alerts/{id}", h.getAlertHandler)

		r.Get("/earthquakes", h.getEarthquakesHandler)
		r.Get("/earthquakes/{id}", h.getEarthquakeHandler)

		r.Get("/monitor", h.monitorStatusHandler)
		if h.stream != nil {
			r.Handle("/stream", h.stream)
		}
		r.Get("/settings", h.getSettingsHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.AdminSecret(h.admin))
			r.Post("/poll/{source}", h.adminPollHandler)
			r.Put("/settings", h.adminUpdateSettingsHandler)
			r.Get("/usage", h.adminUsageHandler)
		})
	})

	r.Get("/health", h.healthHandler)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	})
}

// readinessHandler checks if the application is ready to serve traffic
func (h *Handler) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{"store": "ok"}
	status := "ready"
	statusCode := http.StatusOK

	if err := h.store.Health(ctx); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSONResponse(w, statusCode, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// livenessHandler checks if the application is alive
func (h *Handler) livenessHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	})
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	h.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: chimw.GetReqID(r.Context()),
	})
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// ListResponse wraps collection results
type ListResponse[T any] struct {
	Data      []T       `json:"data"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}
