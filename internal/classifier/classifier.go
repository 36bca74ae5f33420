package classifier

import (
	"strings"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
	"github.com/rajasatyajit/SasmexMonitor/pkg/utils"
)

// Keyword sets are checked Menor first, so text carrying both sets (for
// example "no ameritó alerta pública") is classified Menor.
var (
	menorKeywords = []string{
		"minor", "no ameritó", "preventiv", "moderado", "menor",
	}

	mayorKeywords = []string{
		"severe", "extreme", "ameritó alerta", "alerta pública", "mayor", "fuerte",
	}
)

// Classifier provides alert severity classification
type Classifier struct{}

// New creates a new classifier instance
func New() *Classifier {
	return &Classifier{}
}

// Severity classifies an entry from its raw content and title
func (c *Classifier) Severity(content, title string) models.Severity {
	return ClassifySeverity(content + " " + title)
}

// Classify sets the severity of an alert that does not carry one yet,
// judging from its description and title
func (c *Classifier) Classify(alert *models.Alert) {
	if alert.Severity.Valid() {
		return
	}
	alert.Severity = c.Severity(alert.Description, alert.Title)
}

// ClassifySeverity determines the severity level of free text
func ClassifySeverity(text string) models.Severity {
	text = strings.ToLower(text)

	if utils.ContainsAny(text, menorKeywords) {
		return models.SeverityMenor
	} else if utils.ContainsAny(text, mayorKeywords) {
		return models.SeverityMayor
	}

	return models.SeverityModerada
}
