package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
	if cfg.IdempotencyStoreTimeout != 500*time.Millisecond {
		t.Fatalf("IdempotencyStoreTimeout = %v", cfg.IdempotencyStoreTimeout)
	}
	if cfg.FeedCacheTTL != time.Minute {
		t.Fatalf("FeedCacheTTL = %v", cfg.FeedCacheTTL)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate = %v/%d", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.OTEL.ServiceName != "go-social-backend" {
		t.Fatalf("OTEL.ServiceName = %q", cfg.OTEL.ServiceName)
	}
}

func TestLoad_EnvOverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "WEIRD")          // coerced to release
	t.Setenv("LOG_LEVEL", "WARNING")       // normalized to warn
	t.Setenv("API_BASE_PATH", "api/v2///") // leading slash added, trailing stripped
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("IDEMPOTENCY_STORE_TIMEOUT", "250ms")
	t.Setenv("FEED_CACHE_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.IdempotencyTTL != time.Hour {
		t.Fatalf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
	if cfg.IdempotencyStoreTimeout != 250*time.Millisecond {
		t.Fatalf("IdempotencyStoreTimeout = %v", cfg.IdempotencyStoreTimeout)
	}
	if cfg.FeedCacheTTL != 30*time.Second {
		t.Fatalf("FeedCacheTTL = %v", cfg.FeedCacheTTL)
	}
	want := []string{"http://a.example", "http://b.example"}
	if len(cfg.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	for i := range want {
		if cfg.CORS.AllowedOrigins[i] != want[i] {
			t.Fatalf("AllowedOrigins[%d] = %q", i, cfg.CORS.AllowedOrigins[i])
		}
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"zero rate burst", "RATE_BURST", "0"},
		{"negative rps", "RATE_RPS", "-1"},
		{"zero idempotency ttl", "IDEMPOTENCY_TTL", "0s"},
		{"zero store timeout", "IDEMPOTENCY_STORE_TIMEOUT", "0s"},
		{"zero feed ttl", "FEED_CACHE_TTL", "0s"},
		{"sample ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func Test_normalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"api":      "/api",
		"/api/v1/": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
