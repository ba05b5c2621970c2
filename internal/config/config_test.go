package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
port: "9090"
solver:
  url: http://solver:5000/api/v1/calculate_routes
  timeout: 15s
  rps: 2.5
map:
  fit_padding: 30
  palette: ["#000000", "#FFFFFF"]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "9090" || cfg.Solver.Timeout != 15*time.Second || cfg.Solver.RPS != 2.5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Map.FitPadding != 30 || len(cfg.Map.Palette) != 2 {
		t.Fatalf("map config: %+v", cfg.Map)
	}
	if cfg.Solver.Burst != 1 {
		t.Fatalf("default burst lost: %d", cfg.Solver.Burst)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vorp.yaml")
	if err := os.WriteFile(path, []byte("port: \"7000\"\nsolver:\n  url: http://file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SOLVER_URL", "http://env")
	t.Setenv("SOLVER_TIMEOUT", "3s")
	t.Setenv("MAP_FIT_PADDING", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7000" {
		t.Fatalf("file value lost: %s", cfg.Port)
	}
	if cfg.Solver.URL != "http://env" || cfg.Solver.Timeout != 3*time.Second || cfg.Map.FitPadding != 20 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing CONFIG_PATH file")
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SOLVER_RPS", "fast")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad SOLVER_RPS")
	}
}
