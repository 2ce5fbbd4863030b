package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/pennywise")
	t.Setenv("AUTH0_DOMAIN", "pennywise.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.pennywise.app")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Expected default env development, got %s", cfg.Env)
	}
	if !cfg.Cache.Enabled {
		t.Error("Expected cache enabled by default")
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected default cache TTL 5m, got %s", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxSize != 1000 {
		t.Errorf("Expected default cache size 1000, got %d", cfg.Cache.MaxSize)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting enabled by default")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing DATABASE_URL")
	}
}

func TestLoad_MissingAuth0Domain(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH0_DOMAIN", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing AUTH0_DOMAIN")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CACHE_MAX_SIZE", "50")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORSOrigins))
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Expected cache TTL 30s, got %s", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxSize != 50 {
		t.Errorf("Expected cache size 50, got %d", cfg.Cache.MaxSize)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting disabled")
	}
}

func TestLoad_BadOptionalValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("CACHE_MAX_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected fallback TTL 5m, got %s", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxSize != 1000 {
		t.Errorf("Expected fallback size 1000, got %d", cfg.Cache.MaxSize)
	}
}
