// Package notify formats alerts into messages and delivers them.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rajasatyajit/SasmexMonitor/internal/classifier"
	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

// Message is what a notification surface renders
type Message struct {
	Source   string          `json:"source"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Details  string          `json:"details,omitempty"`
	Severity models.Severity `json:"severity"`
	Urgent   bool            `json:"urgent"`
}

// Text renders the message as plain text
func (m Message) Text() string {
	parts := []string{m.Title}
	if m.Body != "" {
		parts = append(parts, m.Body)
	}
	if m.Details != "" {
		parts = append(parts, m.Details)
	}
	return strings.Join(parts, "\n\n")
}

const (
	urgentTitle = "🚨 #TenemosAlerta a %s. #Sismo FUERTE en los próximos segundos. 🚨"
	urgentBody  = "Se activó la #AlertaSísmica por el #Sasmex. Mantén la calma y sigue las indicaciones de Protección Civil."
	infoTitle   = "⚠️ #Sismo detectado. Posible RIESGO existente. ⚠️"
	infoBody    = "Se activó la #AlertaSísmica durante los primeros segundos de evaluación por el #Sasmex.\n%s"

	timestampLayout = "02/01/2006 15:04:05"
)

// FormatAlert builds the notification for a SASMEX alert. Mayor alerts get the
// urgent wording; everything else is informational.
func FormatAlert(a models.Alert) Message {
	classifier.New().Classify(&a)
	sev := a.Severity
	place := a.Place()

	m := Message{Source: "sasmex", Severity: sev, Urgent: sev == models.SeverityMayor}
	if m.Urgent {
		m.Title = fmt.Sprintf(urgentTitle, place)
		m.Body = urgentBody
	} else {
		m.Title = infoTitle
		m.Body = fmt.Sprintf(infoBody, place)
	}

	details := []string{a.Title, sev.Label()}
	if !a.OccurredAt.IsZero() {
		details = append(details, a.OccurredAt.Format(timestampLayout))
	}
	if a.Magnitude != nil {
		details = append(details, fmt.Sprintf("Magnitud: %.1f", *a.Magnitude))
	}
	if depth := a.DepthLabel(); depth != "" {
		details = append(details, "Profundidad: "+depth)
	}
	if a.Description != "" && a.Description != a.Title {
		details = append(details, a.Description)
	}
	m.Details = strings.Join(details, "\n")
	return m
}

// FormatEarthquake builds the notification for a USGS event
func FormatEarthquake(q models.Earthquake, loc *time.Location) Message {
	if loc == nil {
		loc = time.Local
	}

	m := Message{
		Source:   "usgs",
		Title:    fmt.Sprintf("🌎 Sismo M%.1f - %s", q.Magnitude, q.Place),
		Severity: earthquakeSeverity(q.Magnitude),
	}
	m.Urgent = q.Tsunami || m.Severity == models.SeverityMayor

	body := []string{}
	if !q.Time.IsZero() {
		body = append(body, "Fecha: "+q.Time.In(loc).Format(timestampLayout))
	}
	body = append(body, fmt.Sprintf("Profundidad: %.1f km", q.DepthKM))
	if q.Tsunami {
		body = append(body, "⚠️ Posible alerta de tsunami")
	}
	m.Body = strings.Join(body, "\n")
	if q.URL != "" {
		m.Details = q.URL
	}
	return m
}

// earthquakeSeverity bands USGS magnitudes onto the SASMEX scale
func earthquakeSeverity(mag float64) models.Severity {
	switch {
	case mag >= 6.0:
		return models.SeverityMayor
	case mag >= 4.5:
		return models.SeverityModerada
	}
	return models.SeverityMenor
}
