package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Server.Port != 3001 {
		t.Errorf("default port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Engine.Volatility != 0.002 {
		t.Errorf("default volatility = %g, want 0.002", cfg.Engine.Volatility)
	}
	if cfg.Engine.TickInterval.Duration != time.Second {
		t.Errorf("default tick interval = %v, want 1s", cfg.Engine.TickInterval.Duration)
	}
	if cfg.Engine.ReconcileInterval.Duration != 5*time.Minute {
		t.Errorf("default reconcile interval = %v, want 5m", cfg.Engine.ReconcileInterval.Duration)
	}
	if cfg.Mode != "full" {
		t.Errorf("default mode = %q, want full", cfg.Mode)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Server.Port = 0
	cfg.Engine.Volatility = 2
	cfg.Auth.Secret = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{"unknown mode", "port must be", "volatility must be", "secret must not be empty"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestValidate_StandaloneSkipsBackends(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "standalone"
	cfg.Postgres = PostgresConfig{}
	cfg.Redis = RedisConfig{}

	if err := cfg.Validate(); err != nil {
		t.Errorf("standalone config rejected: %v", err)
	}
}

func TestValidate_ReconcileShorterThanTick(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.TickInterval = duration{time.Minute}
	cfg.Engine.ReconcileInterval = duration{time.Second}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "reconcile_interval must not be shorter") {
		t.Errorf("Validate = %v, want reconcile interval error", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("port = %d, want default 3001", cfg.Server.Port)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
mode = "standalone"
log_level = "debug"

[server]
port = 9000

[engine]
volatility = 0.01
tick_interval = "250ms"
reconcile_interval = "2m"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mode != "standalone" || cfg.LogLevel != "debug" {
		t.Errorf("mode/log_level = %q/%q", cfg.Mode, cfg.LogLevel)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Engine.Volatility != 0.01 {
		t.Errorf("volatility = %g, want 0.01", cfg.Engine.Volatility)
	}
	if cfg.Engine.TickInterval.Duration != 250*time.Millisecond {
		t.Errorf("tick_interval = %v, want 250ms", cfg.Engine.TickInterval.Duration)
	}
	// Fields the file omits keep their defaults.
	if cfg.Engine.FetchBatch != 10 {
		t.Errorf("fetch_batch = %d, want default 10", cfg.Engine.FetchBatch)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STOCKD_SERVER_PORT", "8123")
	t.Setenv("STOCKD_MODE", "standalone")
	t.Setenv("STOCKD_ENGINE_TICK_INTERVAL", "500ms")
	t.Setenv("STOCKD_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("port = %d, want 8123", cfg.Server.Port)
	}
	if cfg.Mode != "standalone" {
		t.Errorf("mode = %q, want standalone", cfg.Mode)
	}
	if cfg.Engine.TickInterval.Duration != 500*time.Millisecond {
		t.Errorf("tick_interval = %v, want 500ms", cfg.Engine.TickInterval.Duration)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("cors_origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestLoad_CompatibilityAliases(t *testing.T) {
	t.Setenv("PORT", "4100")
	t.Setenv("VOLATILITY", "0.005")
	t.Setenv("FINNHUB_API_KEY", "alias-key")
	t.Setenv("JWT_SECRET", "alias-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Engine.Volatility != 0.005 {
		t.Errorf("volatility = %g, want 0.005", cfg.Engine.Volatility)
	}
	if cfg.Feed.APIKey != "alias-key" {
		t.Errorf("api key = %q, want alias-key", cfg.Feed.APIKey)
	}
	if cfg.Auth.Secret != "alias-secret" {
		t.Errorf("auth secret = %q, want alias-secret", cfg.Auth.Secret)
	}
}
