package config

import (
	"context"
	"log/slog"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg := Load()
	if cfg.MaxCallDepth <= 0 {
		t.Errorf("MaxCallDepth must be positive, got %d", cfg.MaxCallDepth)
	}
	if cfg.Logger() == nil {
		t.Error("Logger returned nil")
	}
}

func TestWithDefaults(t *testing.T) {
	for _, depth := range []int{0, -3} {
		if got := (Config{MaxCallDepth: depth}).withDefaults().MaxCallDepth; got != DefaultMaxCallDepth {
			t.Errorf("depth %d: expected fallback to %d, got %d", depth, DefaultMaxCallDepth, got)
		}
	}
	if got := (Config{MaxCallDepth: 250}).withDefaults().MaxCallDepth; got != 250 {
		t.Errorf("expected 250 to be kept, got %d", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelWarn,
		"":        slog.LevelWarn,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestLoggerLevel(t *testing.T) {
	logger := Config{LogLevel: slog.LevelError}.Logger()
	if logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be filtered at error level")
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at error level")
	}
}
