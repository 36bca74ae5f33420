package classifier

import (
	"testing"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.Severity
	}{
		{"no ameritó", "El sismo no ameritó alerta", models.SeverityMenor},
		{"ameritó alerta pública", "El sismo ameritó alerta pública", models.SeverityMayor},
		{"neither", "Sismo registrado en Oaxaca", models.SeverityModerada},
		{"both sets prefer menor", "Sismo fuerte, no ameritó alerta pública", models.SeverityMenor},
		{"cap minor", "<cap:severity>Minor</cap:severity>", models.SeverityMenor},
		{"cap severe", "<cap:severity>Severe</cap:severity>", models.SeverityMayor},
		{"cap extreme", "<severity>Extreme</severity>", models.SeverityMayor},
		{"preventiva", "Alerta PREVENTIVA", models.SeverityMenor},
		{"moderado maps to menor", "Sismo Moderado en Guerrero", models.SeverityMenor},
		{"fuerte", "Sismo FUERTE en Michoacán", models.SeverityMayor},
		{"uppercase accent", "AMERITÓ ALERTA", models.SeverityMayor},
		{"empty", "", models.SeverityModerada},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySeverity(tt.text); got != tt.expected {
				t.Errorf("Expected severity %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestClassifier_Severity(t *testing.T) {
	c := New()

	if got := c.Severity("no ameritó alerta", "Sismo"); got != models.SeverityMenor {
		t.Errorf("Expected Menor, got %s", got)
	}
	if got := c.Severity("", "Sismo Mayor"); got != models.SeverityMayor {
		t.Errorf("Expected title keywords to count, got %s", got)
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := New()

	alert := models.Alert{Title: "Sismo Fuerte", Description: "sin detalles"}
	c.Classify(&alert)
	if alert.Severity != models.SeverityMayor {
		t.Errorf("Expected Mayor, got %s", alert.Severity)
	}

	preset := models.Alert{Title: "Sismo Fuerte", Severity: models.SeverityMenor}
	c.Classify(&preset)
	if preset.Severity != models.SeverityMenor {
		t.Errorf("Expected existing severity to be kept, got %s", preset.Severity)
	}
}
