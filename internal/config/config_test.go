package config

import (
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"CALC_ADDR":             "127.0.0.1:9000",
		"CALC_SESSION_TTL":      "90s",
		"CALC_MAX_SESSIONS":     "12",
		"CALC_SHUTDOWN_TIMEOUT": "1s",
		"CALC_OTLP_LOGS":        "true",
	}))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	want := Config{
		Addr:            "127.0.0.1:9000",
		SessionTTL:      90 * time.Second,
		MaxSessions:     12,
		ShutdownTimeout: time.Second,
		OTLPLogs:        true,
	}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"CALC_SESSION_TTL":      "soon",
		"CALC_SHUTDOWN_TIMEOUT": "-1s",
		"CALC_MAX_SESSIONS":     "many",
		"CALC_OTLP_LOGS":        "maybe",
	}

	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			if _, err := LoadFrom(env(map[string]string{key: val})); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}
