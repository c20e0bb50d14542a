package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ORIGINS", "")
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %v", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 1 {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ACCESS_TOKEN_TTL_HOURS", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("FRESH_DROPS_LIMIT", "not-a-number")
	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" || cfg.AccessTokenTTL != 2*time.Hour {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.FreshDropsLimit != 8 {
		t.Fatalf("expected default fresh drops limit, got %d", cfg.FreshDropsLimit)
	}
}

func TestClientFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example")
	t.Setenv("CACHE_REVALIDATE_ON_HIT", "true")
	t.Setenv("CACHE_KEEP_UNUSED_SECONDS", "60")
	t.Setenv("SESSION_FILE", "/tmp/s.json")
	cfg := ClientFromEnv()
	if cfg.APIBaseURL != "https://api.example" || !cfg.RevalidateOnHit || cfg.KeepUnusedFor != time.Minute {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if cfg.SessionFile != "/tmp/s.json" {
		t.Fatalf("unexpected session file %q", cfg.SessionFile)
	}
}
