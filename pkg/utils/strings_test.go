package utils

import (
	"testing"
)

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		expected bool
	}{
		{
			name:     "Contains one keyword",
			text:     "sismo moderado en oaxaca",
			keywords: []string{"moderado", "menor"},
			expected: true,
		},
		{
			name:     "Contains no keywords",
			text:     "alerta sismica sasmex",
			keywords: []string{"menor", "minor"},
			expected: false,
		},
		{
			name:     "Case sensitive match",
			text:     "Sismo MENOR",
			keywords: []string{"menor"},
			expected: false,
		},
		{
			name:     "Empty keywords",
			text:     "Any text here",
			keywords: []string{},
			expected: false,
		},
		{
			name:     "Empty text",
			text:     "",
			keywords: []string{"mayor"},
			expected: false,
		},
		{
			name:     "Partial word match",
			text:     "acciones preventivas",
			keywords: []string{"preventiv"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ContainsAny(tt.text, tt.keywords)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFoldAccents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ciudad de México", "ciudad de mexico"},
		{"CIUDAD DE MÉXICO", "ciudad de mexico"},
		{"Alerta Sísmica", "alerta sismica"},
		{"Oaxaca", "oaxaca"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FoldAccents(tt.in); got != tt.want {
			t.Errorf("FoldAccents(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 3, "abc"},
		{"multibyte runes", "Sísmica", 2, "Sí"},
		{"zero max", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHasPrefixFold(t *testing.T) {
	if !HasPrefixFold("alerta sísmica sasmex: prueba", "ALERTA SÍSMICA SASMEX") {
		t.Error("Expected case-insensitive prefix match")
	}
	if HasPrefixFold("Sistema", "Sistema de Alerta") {
		t.Error("Expected no match when text is shorter than prefix")
	}
	if HasPrefixFold("Sismo en Oaxaca", "Alerta") {
		t.Error("Expected no match for different prefix")
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Sismo en Oaxaca", "SISMO") {
		t.Error("Expected case-insensitive containment")
	}
	if ContainsFold("Oaxaca", "alerta") {
		t.Error("Expected no match")
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("Sísmica"); got != 7 {
		t.Errorf("Expected 7, got %d", got)
	}
}
