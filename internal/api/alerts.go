package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

const maxLimit = 1000

// getAlertsHandler handles GET /v1/alerts
func (h *Handler) getAlertsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseAlertQuery(r)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := h.store.QueryAlerts(ctx, q)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query alerts", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=30")
	h.writeJSONResponse(w, http.StatusOK, ListResponse[models.Alert]{
		Data:      alerts,
		Count:     len(alerts),
		Timestamp: time.Now().UTC(),
	})
}

// getLatestAlertHandler handles GET /v1/alerts/latest
func (h *Handler) getLatestAlertHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	alert, err := h.store.LatestAlert(ctx)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to get latest alert", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	if alert == nil {
		h.writeErrorResponse(w, r, http.StatusNotFound, "No alerts recorded yet")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	h.writeJSONResponse(w, http.StatusOK, alert)
}

// getAlertHandler handles GET /v1/alerts/{id}
func (h *Handler) getAlertHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID := chi.URLParam(r, "id")

	alert, err := h.store.GetAlert(ctx, alertID)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to get alert", "error", err, "alert_id", alertID)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	if alert == nil {
		h.writeErrorResponse(w, r, http.StatusNotFound, "Alert not found")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSONResponse(w, http.StatusOK, alert)
}

// getEarthquakesHandler handles GET /v1/earthquakes
func (h *Handler) getEarthquakesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseEarthquakeQuery(r)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	quakes, err := h.store.QueryEarthquakes(ctx, q)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query earthquakes", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	h.writeJSONResponse(w, http.StatusOK, ListResponse[models.Earthquake]{
		Data:      quakes,
		Count:     len(quakes),
		Timestamp: time.Now().UTC(),
	})
}

// getEarthquakeHandler handles GET /v1/earthquakes/{id}
func (h *Handler) getEarthquakeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	quake, err := h.store.GetEarthquake(ctx, id)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to get earthquake", "error", err, "quake_id", id)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	if quake == nil {
		h.writeErrorResponse(w, r, http.StatusNotFound, "Earthquake not found")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, quake)
}

// parseAlertQuery parses query parameters into AlertQuery
func parseAlertQuery(r *http.Request) (models.AlertQuery, error) {
	q := models.AlertQuery{}
	values := r.URL.Query()

	limit, err := parseLimit(values.Get("limit"))
	if err != nil {
		return q, err
	}
	q.Limit = limit

	if offsetStr := values.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return q, fmt.Errorf("invalid offset: %s", offsetStr)
		}
		if offset < 0 {
			return q, fmt.Errorf("offset must be non-negative")
		}
		q.Offset = offset
	}

	if q.Since, err = parseTimeParam("since", values.Get("since")); err != nil {
		return q, err
	}
	if q.Until, err = parseTimeParam("until", values.Get("until")); err != nil {
		return q, err
	}

	for _, v := range values["severity"] {
		sev, ok := models.ParseSeverity(v)
		if !ok {
			return q, fmt.Errorf("invalid severity: %s (want Mayor, Moderada or Menor)", v)
		}
		q.Severities = append(q.Severities, sev)
	}
	q.IDs = values["id"]

	return q, nil
}

// parseEarthquakeQuery parses query parameters into EarthquakeQuery
func parseEarthquakeQuery(r *http.Request) (models.EarthquakeQuery, error) {
	q := models.EarthquakeQuery{}
	values := r.URL.Query()

	limit, err := parseLimit(values.Get("limit"))
	if err != nil {
		return q, err
	}
	q.Limit = limit

	if v := values.Get("min_magnitude"); v != "" {
		mag, err := strconv.ParseFloat(v, 64)
		if err != nil || mag < 0 || mag > 10 {
			return q, fmt.Errorf("invalid min_magnitude: %s", v)
		}
		q.MinMagnitude = mag
	}

	if q.Since, err = parseTimeParam("since", values.Get("since")); err != nil {
		return q, err
	}
	if q.Until, err = parseTimeParam("until", values.Get("until")); err != nil {
		return q, err
	}
	return q, nil
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid limit: %s", v)
	}
	if limit < 0 || limit > maxLimit {
		return 0, fmt.Errorf("limit must be between 0 and %d", maxLimit)
	}
	return limit, nil
}

func parseTimeParam(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %s", name, v)
	}
	return t, nil
}
