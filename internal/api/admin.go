package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
)

// monitorStatusHandler handles GET /v1/monitor
func (h *Handler) monitorStatusHandler(w http.ResponseWriter, r *http.Request) {
	if h.poller == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "Monitor not running")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"jobs":      h.poller.Status(),
		"timestamp": time.Now().UTC(),
	})
}

// adminPollHandler handles POST /v1/admin/poll/{source}
func (h *Handler) adminPollHandler(w http.ResponseWriter, r *http.Request) {
	if h.poller == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "Monitor not running")
		return
	}
	source := chi.URLParam(r, "source")

	err := h.poller.TriggerAsync(source)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeErrorResponse(w, r, http.StatusNotFound, "Unknown source: "+source)
		return
	case errors.Is(err, apperrors.ErrPollInProgress):
		h.writeErrorResponse(w, r, http.StatusConflict, "A poll of "+source+" is already running")
		return
	case err != nil:
		logger.WithContext(r.Context()).Error("Failed to trigger poll", "source", source, "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.WithContext(r.Context()).Info("Poll triggered", "source", source)
	h.writeJSONResponse(w, http.StatusAccepted, map[string]interface{}{
		"status":    "accepted",
		"source":    source,
		"timestamp": time.Now().UTC(),
	})
}

// getSettingsHandler handles GET /v1/settings
func (h *Handler) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "Settings not available")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, h.settings.Get())
}

// adminUpdateSettingsHandler handles PUT /v1/admin/settings. Fields missing
// from the body keep their current value.
func (h *Handler) adminUpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "Settings not available")
		return
	}

	next := h.settings.Get()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid settings body: "+err.Error())
		return
	}

	if err := h.settings.Update(next); err != nil {
		var verr apperrors.MultiError
		if errors.As(err, &verr) {
			h.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithContext(r.Context()).Error("Failed to save settings", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.WithContext(r.Context()).Info("Settings updated", "settings", next)
	h.writeJSONResponse(w, http.StatusOK, next)
}

// adminUsageHandler handles GET /v1/admin/usage
func (h *Handler) adminUsageHandler(w http.ResponseWriter, r *http.Request) {
	if h.usage == nil {
		h.writeErrorResponse(w, r, http.StatusNotImplemented, "Usage accounting requires Redis")
		return
	}

	byRoute, err := h.usage.Usage(r.Context())
	if err != nil {
		logger.WithContext(r.Context()).Error("Failed to read usage", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	total := 0
	for _, n := range byRoute {
		total += n
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"day":       time.Now().UTC().Format("2006-01-02"),
		"total":     total,
		"by_route":  byRoute,
		"timestamp": time.Now().UTC(),
	})
}
