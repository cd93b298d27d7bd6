// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"keypad-calculator/internal/session"
)

type Config struct {
	Addr            string
	SessionTTL      time.Duration
	MaxSessions     int
	ShutdownTimeout time.Duration
	// OTLPLogs tees the zap logger into the OTLP log exporter.
	OTLPLogs bool
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		SessionTTL:      session.DefaultTTL,
		MaxSessions:     session.DefaultMaxSessions,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads settings through lookup; unset variables keep their defaults.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("CALC_ADDR"); ok && v != "" {
		cfg.Addr = v
	}

	if err := durationVar(lookup, "CALC_SESSION_TTL", &cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if err := durationVar(lookup, "CALC_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}

	if v, ok := lookup("CALC_MAX_SESSIONS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("CALC_MAX_SESSIONS: invalid value %q", v)
		}
		cfg.MaxSessions = n
	}

	if v, ok := lookup("CALC_OTLP_LOGS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("CALC_OTLP_LOGS: %w", err)
		}
		cfg.OTLPLogs = b
	}

	return cfg, nil
}

func durationVar(lookup func(string) (string, bool), key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return fmt.Errorf("%s: negative duration %s", key, d)
	}
	*dst = d
	return nil
}
