package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rajasatyajit/SasmexMonitor/internal/dedup"
	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/metrics"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
	"github.com/rajasatyajit/SasmexMonitor/internal/notify"
	"github.com/rajasatyajit/SasmexMonitor/internal/sasmex"
	"github.com/rajasatyajit/SasmexMonitor/internal/settings"
	"github.com/rajasatyajit/SasmexMonitor/internal/usgs"
)

// Job names
const (
	JobSasmex = "sasmex"
	JobUSGS   = "usgs"
)

// AlertStore persists built alerts
type AlertStore interface {
	UpsertAlerts(ctx context.Context, alerts []models.Alert) error
}

// EarthquakeStore persists USGS earthquakes
type EarthquakeStore interface {
	UpsertEarthquakes(ctx context.Context, quakes []models.Earthquake) error
}

// SettingsSource provides the active preferences
type SettingsSource interface {
	Get() settings.Settings
}

// SasmexJob polls the SASMEX feed and notifies on a new top alert
type SasmexJob struct {
	Service  *sasmex.Service
	Tracker  *dedup.Tracker[models.Alert]
	Store    AlertStore
	Notifier notify.Notifier
	Settings SettingsSource
}

func (j *SasmexJob) Name() string { return JobSasmex }

func (j *SasmexJob) Interval() time.Duration { return j.Settings.Get().PollInterval() }

// RunOnce performs a full SASMEX cycle
func (j *SasmexJob) RunOnce(ctx context.Context) error {
	log := logger.WithContext(ctx)

	res := j.Service.Alerts(ctx)
	if res.Cancelled {
		return fmt.Errorf("%s: %w", JobSasmex, apperrors.ErrCancelled)
	}
	if !res.Success {
		return apperrors.PipelineError{Source: JobSasmex, Stage: "fetch", Err: res.Err}
	}
	metrics.RecordAlertsParsed(JobSasmex, len(res.Alerts))
	log.Info("SASMEX alerts fetched", "count", len(res.Alerts))

	var errs apperrors.MultiError
	if j.Store != nil && len(res.Alerts) > 0 {
		if err := j.Store.UpsertAlerts(ctx, res.Alerts); err != nil {
			log.Error("Failed to store alerts", "error", err)
			errs.Add(apperrors.PipelineError{Source: JobSasmex, Stage: "store", Err: err})
		}
	}

	alert, isNew, err := j.Tracker.CheckForNew(ctx, res.Alerts)
	if err != nil {
		log.Warn("Dedup state error", "error", err)
		errs.Add(apperrors.PipelineError{Source: JobSasmex, Stage: "dedup", Err: err})
	}
	if isNew {
		errs.Add(j.notify(ctx, alert))
	}
	return errs.ErrorOrNil()
}

func (j *SasmexJob) notify(ctx context.Context, alert models.Alert) error {
	log := logger.WithContext(ctx)
	s := j.Settings.Get()

	switch {
	case !s.NotificationsEnabled:
		log.Info("New alert, notifications disabled", "alert_id", alert.ID)
		metrics.RecordNotification(JobSasmex, "disabled")
		return nil
	case s.OnlyMayor && !alert.IsMayor():
		log.Info("New alert below Mayor, not notified", "alert_id", alert.ID, "severity", alert.Severity)
		metrics.RecordNotification(JobSasmex, "filtered")
		return nil
	}

	if err := j.Notifier.Notify(ctx, notify.FormatAlert(alert)); err != nil {
		metrics.RecordNotification(JobSasmex, "error")
		return apperrors.PipelineError{Source: JobSasmex, Stage: "notify", Err: err}
	}
	metrics.RecordNotification(JobSasmex, "sent")
	log.Info("New alert notified", "alert_id", alert.ID, "severity", alert.Severity)
	return nil
}

// USGSJob polls a USGS summary feed and notifies on a new top earthquake at
// or above the configured magnitude
type USGSJob struct {
	Client   *usgs.Client
	Tracker  *dedup.Tracker[models.Earthquake]
	Store    EarthquakeStore
	Notifier notify.Notifier
	Settings SettingsSource
	Feed     string // empty follows the settings' initial period
	Location *time.Location
}

func (j *USGSJob) Name() string { return JobUSGS }

func (j *USGSJob) Interval() time.Duration { return j.Settings.Get().PollInterval() }

func (j *USGSJob) feed(s settings.Settings) string {
	if j.Feed != "" {
		return j.Feed
	}
	return s.USGSFeed()
}

// RunOnce performs a full USGS cycle
func (j *USGSJob) RunOnce(ctx context.Context) error {
	log := logger.WithContext(ctx)
	s := j.Settings.Get()

	quakes, err := j.Client.Fetch(ctx, j.feed(s))
	if err != nil {
		return apperrors.PipelineError{Source: JobUSGS, Stage: "fetch", Err: err}
	}
	metrics.RecordAlertsParsed(JobUSGS, len(quakes))
	log.Info("USGS earthquakes fetched", "count", len(quakes), "feed", j.feed(s))

	var errs apperrors.MultiError
	if j.Store != nil && len(quakes) > 0 {
		if err := j.Store.UpsertEarthquakes(ctx, quakes); err != nil {
			log.Error("Failed to store earthquakes", "error", err)
			errs.Add(apperrors.PipelineError{Source: JobUSGS, Stage: "store", Err: err})
		}
	}

	significant := usgs.FilterByMagnitude(quakes, s.MinMagnitude)
	quake, isNew, err := j.Tracker.CheckForNew(ctx, significant)
	if err != nil {
		log.Warn("Dedup state error", "error", err)
		errs.Add(apperrors.PipelineError{Source: JobUSGS, Stage: "dedup", Err: err})
	}
	if !isNew {
		return errs.ErrorOrNil()
	}

	if !s.NotificationsEnabled {
		log.Info("New earthquake, notifications disabled", "quake_id", quake.ID)
		metrics.RecordNotification(JobUSGS, "disabled")
		return errs.ErrorOrNil()
	}

	if err := j.Notifier.Notify(ctx, notify.FormatEarthquake(quake, j.Location)); err != nil {
		metrics.RecordNotification(JobUSGS, "error")
		errs.Add(apperrors.PipelineError{Source: JobUSGS, Stage: "notify", Err: err})
		return errs.ErrorOrNil()
	}
	metrics.RecordNotification(JobUSGS, "sent")
	log.Info("New earthquake notified", "quake_id", quake.ID, "magnitude", quake.Magnitude)
	return errs.ErrorOrNil()
}
