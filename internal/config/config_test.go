package config

import (
	"strings"
	"testing"
	"time"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DSN":     "postgres://localhost/slots",
		"JWT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Environment != "development" || cfg.Store != StorePostgres || cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LockTimeout != 3*time.Second || cfg.JWTTTL != 24*time.Hour || cfg.LinkCodeTTL != 10*time.Minute {
		t.Errorf("unexpected durations: %+v", cfg)
	}
	if cfg.IsProduction() || cfg.OTelEnabled || len(cfg.CORSOrigins) != 0 {
		t.Errorf("unexpected flags: %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"ENV":             "production",
		"STORE":           "Memory",
		"JWT_SECRET":      "secret",
		"LOCK_TIMEOUT":    "750ms",
		"RATE_RPS":        "0.5",
		"RATE_BURST":      "3",
		"REDIS_DB":        "2",
		"RECONCILE_EVERY": "0s",
		"OTEL_ENABLED":    "true",
		"CORS_ORIGINS":    "https://a.example, ,https://b.example",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.Store != StoreMemory || !cfg.IsProduction() {
		t.Errorf("store/env: %+v", cfg)
	}
	if cfg.LockTimeout != 750*time.Millisecond || cfg.RateRPS != 0.5 || cfg.RateBurst != 3 || cfg.RedisDB != 2 {
		t.Errorf("numbers: %+v", cfg)
	}
	if cfg.ReconcileEvery != 0 || !cfg.OTelEnabled {
		t.Errorf("reconcile/otel: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors: %v", cfg.CORSOrigins)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantErr string
	}{
		{"postgres without dsn", map[string]string{"JWT_SECRET": "s"}, "DB_DSN"},
		{"missing secret", map[string]string{"STORE": "memory"}, "JWT_SECRET"},
		{"unknown store", map[string]string{"STORE": "mongo", "JWT_SECRET": "s"}, "STORE"},
		{"bad duration", map[string]string{"STORE": "memory", "JWT_SECRET": "s", "LOCK_TIMEOUT": "soon"}, "LOCK_TIMEOUT"},
		{"zero lock timeout", map[string]string{"STORE": "memory", "JWT_SECRET": "s", "LOCK_TIMEOUT": "0s"}, "LOCK_TIMEOUT"},
		{"bad int", map[string]string{"STORE": "memory", "JWT_SECRET": "s", "RATE_BURST": "many"}, "RATE_BURST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.values))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
