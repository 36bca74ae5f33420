package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity is the derived three-valued classification of a SASMEX alert
type Severity string

const (
	SeverityMayor    Severity = "Mayor"
	SeverityModerada Severity = "Moderada"
	SeverityMenor    Severity = "Menor"
)

// Valid reports whether s is one of the three known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityMayor, SeverityModerada, SeverityMenor:
		return true
	}
	return false
}

// Label returns the display form used by the clients ("Severidad: Mayor")
func (s Severity) Label() string {
	return "Severidad: " + string(s)
}

// ParseSeverity maps a user supplied value onto a Severity, case-insensitively
func ParseSeverity(v string) (Severity, bool) {
	for _, s := range []Severity{SeverityMayor, SeverityModerada, SeverityMenor} {
		if strings.EqualFold(strings.TrimSpace(v), string(s)) {
			return s, true
		}
	}
	return "", false
}

// Coordinates is a latitude/longitude pair; an alert either has both or neither
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Alert represents one SASMEX seismic alert built from a feed entry
type Alert struct {
	ID          string       `json:"id" db:"id"`
	OccurredAt  time.Time    `json:"occurred_at" db:"occurred_at"`
	Title       string       `json:"title" db:"title"`
	Severity    Severity     `json:"severity" db:"severity"`
	Description string       `json:"description" db:"description"`
	Magnitude   *float64     `json:"magnitude,omitempty" db:"magnitude"`
	Epicenter   string       `json:"epicenter,omitempty" db:"epicenter"`
	DepthKM     *float64     `json:"depth_km,omitempty" db:"depth_km"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// IsMayor reports whether the alert was classified Mayor
func (a Alert) IsMayor() bool { return a.Severity == SeverityMayor }

// DepthLabel renders the depth as "<n> km", or "" when unknown
func (a Alert) DepthLabel() string {
	if a.DepthKM == nil {
		return ""
	}
	return fmt.Sprintf("%g km", *a.DepthKM)
}

// Place returns the epicenter when known, otherwise the title
func (a Alert) Place() string {
	if a.Epicenter != "" {
		return a.Epicenter
	}
	return a.Title
}

// SortAlerts orders alerts most recent first, keeping feed order for ties
func SortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].OccurredAt.After(alerts[j].OccurredAt)
	})
}

// AlertQuery represents query parameters for filtering alerts
type AlertQuery struct {
	IDs        []string   `json:"ids"`
	Severities []Severity `json:"severities"`
	Since      time.Time  `json:"since"`
	Until      time.Time  `json:"until"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// Matches checks if an alert matches the query criteria
func (q AlertQuery) Matches(alert Alert) bool {
	if len(q.IDs) > 0 && !contains(q.IDs, alert.ID) {
		return false
	}
	if len(q.Severities) > 0 && !containsSeverity(q.Severities, alert.Severity) {
		return false
	}
	if !q.Since.IsZero() && alert.OccurredAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && alert.OccurredAt.After(q.Until) {
		return false
	}
	return true
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func containsSeverity(slice []Severity, item Severity) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
