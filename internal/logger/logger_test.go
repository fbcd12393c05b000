package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitAndLogging(t *testing.T) {
	Init("debug", "json", "safe")

	if L.Enabled(context.Background(), slog.LevelDebug) != true {
		t.Error("expected debug level to be enabled")
	}

	Info("test info message", "key", "value")
}

func TestContextLogger(t *testing.T) {
	Init("info", "text", "safe")

	customLogger := L.With("request_id", "12345")

	ctx := WithContext(context.Background(), customLogger)
	extracted := FromContext(ctx)

	if extracted == nil {
		t.Fatal("extracted logger should not be nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestTextRedaction(t *testing.T) {
	long := "this is a rather long user message that should be cut"

	Init("info", "text", "debug")
	if got := Text(long); got != long {
		t.Fatalf("debug mode should keep full text, got %q", got)
	}

	Init("info", "text", "safe")
	if got := Text(long); len(got) > 35 {
		t.Fatalf("safe mode should truncate, got %q", got)
	}

	Init("info", "text", "paranoid")
	if got := Text(long); got != "<54 chars>" {
		t.Fatalf("paranoid mode should log length only, got %q", got)
	}
}
