package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_DRIVER", "SWEEP_INTERVAL", "ENABLE_SWEEPER", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("SweepInterval = %v", cfg.SweepInterval)
	}
	if !cfg.EnableSweeper {
		t.Fatal("sweeper disabled by default")
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Fatal("no default CORS origins")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://db/cbt")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("ENABLE_SWEEPER", "false")
	t.Setenv("CORS_ORIGINS", "https://cbt.example.com, https://admin.example.com")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" || cfg.DBDriver != "postgres" || cfg.DBDSN != "postgres://db/cbt" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("SweepInterval = %v", cfg.SweepInterval)
	}
	if cfg.EnableSweeper {
		t.Fatal("ENABLE_SWEEPER=false ignored")
	}
	want := []string{"https://cbt.example.com", "https://admin.example.com"}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != want[0] || cfg.CORSOrigins[1] != want[1] {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestEnvDuration_BareSeconds(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "45")
	if got := envDuration("SWEEP_INTERVAL", time.Minute); got != 45*time.Second {
		t.Fatalf("envDuration = %v, want 45s", got)
	}
}

func TestEnvDuration_GarbageFallsBack(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	if got := envDuration("SWEEP_INTERVAL", time.Minute); got != time.Minute {
		t.Fatalf("envDuration = %v, want default", got)
	}
}
