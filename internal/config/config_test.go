package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadPrecedence(t *testing.T) {
	file := writeFile(t, "analytics.yaml", `
database:
  driver: postgres
  dsn: postgres://file/db
  pool_size: 5
  twophase: true
log_mode: prod
`)
	t.Setenv("ANALYTICS_DB_POOL_SIZE", "12")

	cfg, err := Load(Options{File: file, EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "postgres://file/db" {
		t.Fatalf("DSN: got %q", cfg.Database.DSN)
	}
	if cfg.Database.PoolSize != 12 {
		t.Fatalf("PoolSize: env should win, got %d", cfg.Database.PoolSize)
	}
	if cfg.Database.MaxOverflow != 10 || cfg.Database.PoolRecycle != 300*time.Second {
		t.Fatalf("defaults lost: %+v", cfg.Database)
	}
	if !cfg.Database.TwoPhase || cfg.LogMode != "prod" {
		t.Fatalf("file values lost: %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	env := writeFile(t, "test.env", "ANALYTICS_DB_DSN=postgres://envfile/db\n")
	t.Setenv("ANALYTICS_DB_DSN", "")
	os.Unsetenv("ANALYTICS_DB_DSN")

	cfg, err := Load(Options{EnvFile: env})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "postgres://envfile/db" {
		t.Fatalf("DSN: got %q", cfg.Database.DSN)
	}
	os.Unsetenv("ANALYTICS_DB_DSN")
}

func TestLoadTestMode(t *testing.T) {
	t.Setenv("ANALYTICS_TEST_MODE", "true")
	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "none.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.DSN != MemoryDSN {
		t.Fatalf("test mode: got %+v", cfg.Database)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]Config{
		"missing dsn": {Database: Database{Driver: DriverPostgres, PoolSize: 1}},
		"bad driver":  {Database: Database{Driver: "mysql", DSN: "x", PoolSize: 1}},
		"zero pool":   {Database: Database{Driver: DriverSQLite, DSN: "x"}},
	}
	for name, cfg := range cases {
		cfg := cfg
		if err := Validate(&cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestObservabilitySettings(t *testing.T) {
	t.Setenv("ANALYTICS_TEST_MODE", "true")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_SAMPLER_RATIO", "0.5")
	t.Setenv("METRICS_ENABLED", "true")
	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "none.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRatio != 0.5 {
		t.Fatalf("tracing: got %+v", cfg.Tracing)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9464" {
		t.Fatalf("metrics: got %+v", cfg.Metrics)
	}

	bad := Defaults()
	bad.Database.DSN = "x"
	bad.Tracing.SampleRatio = 2
	if err := Validate(&bad); err == nil {
		t.Fatalf("expected sample ratio validation error")
	}
	bad.Tracing.SampleRatio = 0
	bad.Metrics = Metrics{Enabled: true}
	if err := Validate(&bad); err == nil {
		t.Fatalf("expected metrics addr validation error")
	}
}

func TestLogRedactionSettings(t *testing.T) {
	t.Setenv("ANALYTICS_TEST_MODE", "true")
	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "none.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.LogRedaction || cfg.LogHashSalt != "" {
		t.Fatalf("redaction defaults: got %v %q", cfg.LogRedaction, cfg.LogHashSalt)
	}

	t.Setenv("LOG_REDACTION_ENABLED", "false")
	t.Setenv("LOG_HASH_SALT", "pepper")
	cfg, err = Load(Options{EnvFile: filepath.Join(t.TempDir(), "none.env")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogRedaction || cfg.LogHashSalt != "pepper" {
		t.Fatalf("redaction env: got %v %q", cfg.LogRedaction, cfg.LogHashSalt)
	}
}
