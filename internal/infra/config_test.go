package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "WAITLIST_DIR", "OPENAI_API_KEY", "HEYGEN_API_KEY", "OPENAI_MODEL",
		"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW_SEC", "CORS_ORIGINS", "JOB_STORE_BACKEND",
		"STRANG_API_KEY", "OPENAI_STRUCTURED_OUTPUT", "TRUST_PROXY_HEADERS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.DataDir != "." {
		t.Fatalf("DataDir = %q, want .", cfg.DataDir)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("OpenAIModel = %q, want gpt-4o", cfg.OpenAIModel)
	}
	if cfg.RateLimitRequests != 10 || cfg.RateLimitWindow != time.Hour {
		t.Fatalf("rate limit = %d per %s, want 10 per 1h", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %#v, want [*]", cfg.CORSOrigins)
	}
	if cfg.JobStoreBackend != JobStoreFile {
		t.Fatalf("JobStoreBackend = %q, want file", cfg.JobStoreBackend)
	}
	if !cfg.OpenAIStructuredOutput {
		t.Fatal("OpenAIStructuredOutput should default to true")
	}
	if cfg.OpenAIConfigured() || cfg.HeyGenConfigured() {
		t.Fatal("providers should not be configured without keys")
	}
	if cfg.TrustProxyHeaders {
		t.Fatal("TrustProxyHeaders should default to false")
	}
}

func TestLoadConfigTrustProxyHeaders(t *testing.T) {
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("JOB_STORE_BACKEND", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.TrustProxyHeaders {
		t.Fatal("TrustProxyHeaders = false, want true")
	}
}

func TestLoadConfigBlankKeysAreNotConfigured(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "   ")
	t.Setenv("HEYGEN_API_KEY", " hg-key ")
	t.Setenv("JOB_STORE_BACKEND", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.OpenAIConfigured() {
		t.Fatal("blank OPENAI_API_KEY should not count as configured")
	}
	if !cfg.HeyGenConfigured() || cfg.HeyGenAPIKey != "hg-key" {
		t.Fatalf("HeyGenAPIKey = %q, want hg-key", cfg.HeyGenAPIKey)
	}
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example.com, ,chrome-extension://abc ")
	t.Setenv("JOB_STORE_BACKEND", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://a.example.com", "chrome-extension://abc"}
	if len(cfg.CORSOrigins) != len(expected) {
		t.Fatalf("CORSOrigins = %#v, want %#v", cfg.CORSOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSOrigins[i] != origin {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], origin)
		}
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero requests", env: map[string]string{"RATE_LIMIT_REQUESTS": "0"}},
		{name: "negative window", env: map[string]string{"RATE_LIMIT_WINDOW_SEC": "-5"}},
		{name: "unknown backend", env: map[string]string{"JOB_STORE_BACKEND": "redis"}},
		{name: "postgres without url", env: map[string]string{"JOB_STORE_BACKEND": "postgres", "DATABASE_URL": ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("RATE_LIMIT_REQUESTS", "")
			t.Setenv("RATE_LIMIT_WINDOW_SEC", "")
			t.Setenv("JOB_STORE_BACKEND", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected LoadConfig to fail")
			}
		})
	}
}

func TestLoadConfigPostgresBackend(t *testing.T) {
	t.Setenv("JOB_STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.JobStoreBackend != JobStorePostgres {
		t.Fatalf("JobStoreBackend = %q, want postgres", cfg.JobStoreBackend)
	}
}
