// Package config reads toolchain settings from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
)

// Config holds settings shared by the CLI, the REPL and the pipeline.
type Config struct {
	MaxCallDepth int        // WABBIT_MAX_CALL_DEPTH
	LogLevel     slog.Level // WABBIT_LOG
	SkipCheck    bool       // WABBIT_SKIP_CHECK
	HistoryFile  string     // WABBIT_HISTORY
	Color        bool       // disabled by NO_COLOR
}

// DefaultMaxCallDepth bounds recursion in interpreted programs.
const DefaultMaxCallDepth = 10000

// Load builds a Config from the process environment.
func Load() Config {
	cfg := Config{
		MaxCallDepth: env.Int("WABBIT_MAX_CALL_DEPTH", DefaultMaxCallDepth),
		LogLevel:     ParseLevel(env.Str("WABBIT_LOG", "warn")),
		SkipCheck:    env.Bool("WABBIT_SKIP_CHECK"),
		HistoryFile:  env.Str("WABBIT_HISTORY", defaultHistory()),
		Color:        !env.Has("NO_COLOR"),
	}
	return cfg.withDefaults()
}

// withDefaults replaces settings that cannot be used as given.
func (c Config) withDefaults() Config {
	if c.MaxCallDepth <= 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
	return c
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Logger returns a text logger on stderr at the configured level.
func (c Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func defaultHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wabbit_history")
}
