package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Log.Level != "info" || cfg.Server.Addr != ":3000" || !cfg.Streak.OncePerDay {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Maintenance.OptimizeInterval != time.Hour {
		t.Fatalf("expected default optimize interval, got %v", cfg.Maintenance.OptimizeInterval)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Format != "text" {
		t.Fatalf("unexpected format %q", cfg.Log.Format)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/focus.db
log:
  level: debug
server:
  addr: 127.0.0.1:8080
  cors_origins: ["http://localhost:5173"]
maintenance:
  achievement_interval: 30s
streak:
  once_per_day: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "/tmp/focus.db" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Log.Format != "text" {
		t.Fatal("unset keys should keep defaults")
	}
	if cfg.Server.Addr != "127.0.0.1:8080" || len(cfg.Server.CORSOrigins) != 1 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Maintenance.AchievementInterval != 30*time.Second {
		t.Fatalf("unexpected interval %v", cfg.Maintenance.AchievementInterval)
	}
	if cfg.Streak.OncePerDay {
		t.Fatal("expected once_per_day false")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("POMODORO_LOG_LEVEL", "warn")
	t.Setenv("POMODORO_SERVER_ADDR", ":9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" || cfg.Server.Addr != ":9999" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	path := writeConfig(t, "log:\n  format: xml\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "log: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWatchWithoutFile(t *testing.T) {
	l := NewLoader("")
	if _, err := l.Load(); err != nil {
		t.Fatal(err)
	}
	if l.Watch(nil, nil) {
		t.Fatal("watch should be disabled without a file")
	}
}

func TestDefaultPath(t *testing.T) {
	if DefaultPath() == "" {
		t.Fatal("empty path")
	}
}
