// Package config builds the server's Config once at startup from its
// environment, generalizing the teacher's initConfig/Config global
// (ownworld.go: OWNWORLD_COMMAND_CONTROL, OWNWORLD_PEERING_MODE read ad
// hoc via os.Getenv into package globals) into a single typed struct
// built once and passed down instead of mutated globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PeeringMode mirrors the teacher's OWNWORLD_PEERING_MODE values.
// This module runs a single authoritative node (spec §2: "one
// server, one SQLite file, one writer"), so Solo is the default and
// nothing in this module behaves differently under Strict; the field is
// kept so a future federation layer has somewhere to read it from.
type PeeringMode string

const (
	PeeringModeSolo   PeeringMode = "solo"
	PeeringModeStrict PeeringMode = "strict"
)

// Config is every environment-derived setting this server reads at
// startup. Unlike the teacher's scattered os.Getenv calls, every field
// here is resolved once in Load and never re-read afterward.
type Config struct {
	// DataPath is the SQLite database file path (teacher: a bare
	// "ownworld.db" constant). Empty means run against an in-memory
	// database (tests, `ownworldctl` dry runs).
	DataPath string

	// ListenAddr is the HTTP/WebSocket bind address (teacher:
	// hardcoded ":8080" in three different draft files).
	ListenAddr string

	// CommandControlEnabled mirrors OWNWORLD_COMMAND_CONTROL (teacher:
	// default "true" unless explicitly set to "false"). No command
	// handler reads it: the `/players`, `/who`, `/kill` commands run
	// whatever its value.
	CommandControlEnabled bool

	// PeeringMode mirrors OWNWORLD_PEERING_MODE; defaults to Solo.
	PeeringMode PeeringMode

	// LogLevel is a zerolog level name ("debug", "info", "warn", "error").
	LogLevel string

	// TickIntervalMs is how often the schedule registry's Tick runs
	// (spec §4.G / §5).
	TickIntervalMs int

	// SubmissionRatePerSecond / SubmissionBurst configure
	// internal/reducer.Limiter (spec §7 per-identity throttling).
	SubmissionRatePerSecond float64
	SubmissionBurst         int
}

// Load builds a Config from the process environment, applying the
// same defaults the teacher's code fell back to when a variable was
// unset.
func Load() (Config, error) {
	cfg := Config{
		DataPath:                getEnv("OWNWORLD_DATA_PATH", "ownworld.db"),
		ListenAddr:              getEnv("OWNWORLD_LISTEN_ADDR", ":8080"),
		CommandControlEnabled:   os.Getenv("OWNWORLD_COMMAND_CONTROL") != "false",
		PeeringMode:             PeeringModeSolo,
		LogLevel:                getEnv("OWNWORLD_LOG_LEVEL", "info"),
		TickIntervalMs:          500,
		SubmissionRatePerSecond: 5,
		SubmissionBurst:         10,
	}

	if mode := os.Getenv("OWNWORLD_PEERING_MODE"); mode == "strict" {
		cfg.PeeringMode = PeeringModeStrict
	}

	if v := os.Getenv("OWNWORLD_TICK_INTERVAL_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: OWNWORLD_TICK_INTERVAL_MS: %w", err)
		}
		cfg.TickIntervalMs = n
	}

	if v := os.Getenv("OWNWORLD_SUBMISSION_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: OWNWORLD_SUBMISSION_RATE: %w", err)
		}
		cfg.SubmissionRatePerSecond = f
	}

	if v := os.Getenv("OWNWORLD_SUBMISSION_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: OWNWORLD_SUBMISSION_BURST: %w", err)
		}
		cfg.SubmissionBurst = n
	}

	if !strings.HasPrefix(cfg.ListenAddr, ":") && !strings.Contains(cfg.ListenAddr, ":") {
		return Config{}, fmt.Errorf("config: OWNWORLD_LISTEN_ADDR %q is not host:port or :port", cfg.ListenAddr)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
