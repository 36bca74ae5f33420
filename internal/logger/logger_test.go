package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.out {
			t.Errorf("parseLevel(%q)=%v want %v", tt.in, got, tt.out)
		}
	}
}

func TestInitAndWithContext(t *testing.T) {
	Init("debug", "text")
	if defaultLogger == nil {
		t.Fatalf("defaultLogger not initialized")
	}

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithPollID(ctx, "poll-abc")
	l := WithContext(ctx)
	if l == nil {
		t.Fatalf("WithContext returned nil")
	}
	if PollID(ctx) != "poll-abc" {
		t.Errorf("Expected poll id 'poll-abc', got %q", PollID(ctx))
	}
	if PollID(context.Background()) != "" {
		t.Error("Expected empty poll id for bare context")
	}

	Info("info message", "k", "v")
	Warn("warn message")
	Error("error message")
	Debug("debug message")
}

func TestInitJSON(t *testing.T) {
	Init("error", "json")
	if WithContext(context.Background()) == nil {
		t.Fatal("WithContext returned nil")
	}
}
