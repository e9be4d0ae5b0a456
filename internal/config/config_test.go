package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("RETRIEVAL_TOP_K", "")

	cfg := Load()
	if cfg.SessionMaxAge != 24*time.Hour {
		t.Fatalf("expected 24h session max age, got %s", cfg.SessionMaxAge)
	}
	if cfg.SessionBackend != "memory" {
		t.Fatalf("expected memory backend, got %q", cfg.SessionBackend)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected top-k 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.SessionRefreshOnUpdate {
		t.Fatalf("expiry refresh should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_BACKEND", " Redis ")
	t.Setenv("SESSION_MAX_AGE", "2h")
	t.Setenv("SESSION_REFRESH_ON_UPDATE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("LLM_TIMEOUT", "not-a-duration")

	cfg := Load()
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected normalized backend, got %q", cfg.SessionBackend)
	}
	if cfg.SessionMaxAge != 2*time.Hour {
		t.Fatalf("expected 2h, got %s", cfg.SessionMaxAge)
	}
	if !cfg.SessionRefreshOnUpdate {
		t.Fatalf("expected refresh on update")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("invalid duration should fall back to default, got %s", cfg.LLMTimeout)
	}
}
