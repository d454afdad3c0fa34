package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"OPENAI_TOKEN", "GEMINI_API_KEY", "REFINE_PROVIDER", "REFINE_TIMEOUT_MS",
		"DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS",
		"WEB_HOST", "WEB_PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Refine.Timeout != 4*time.Second {
		t.Errorf("default refine timeout = %v, want 4s", cfg.Refine.Timeout)
	}
	if cfg.Database.MaxOpenConns != 25 || cfg.Database.MaxIdleConns != 5 {
		t.Errorf("default pool sizes = %d/%d, want 25/5",
			cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("default web port = %d, want 8080", cfg.Web.Port)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REFINE_PROVIDER", "openai")
	t.Setenv("REFINE_TIMEOUT_MS", "1500")
	t.Setenv("DATABASE_URL", "postgres://localhost/skinscan")
	t.Setenv("WEB_PORT", "9000")

	cfg := Load()

	if cfg.Refine.Provider != "openai" {
		t.Errorf("refine provider = %q", cfg.Refine.Provider)
	}
	if cfg.Refine.Timeout != 1500*time.Millisecond {
		t.Errorf("refine timeout = %v, want 1.5s", cfg.Refine.Timeout)
	}
	if cfg.Database.URL != "postgres://localhost/skinscan" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("web port = %d, want 9000", cfg.Web.Port)
	}
}

func TestEnvIntRejectsGarbage(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 42},
		{"abc", 42},
		{"-5", 42},
		{"0", 42},
		{"7", 7},
	}
	for _, tc := range tests {
		t.Setenv("SKINSCAN_TEST_INT", tc.value)
		if got := envInt("SKINSCAN_TEST_INT", 42); got != tc.want {
			t.Errorf("envInt(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestGetModelPricing(t *testing.T) {
	cfg := Load()

	known := cfg.GetModelPricing("gpt-4.1-mini")
	if known.Standard.Input <= 0 || known.Standard.Output <= 0 {
		t.Error("embedded pricing for gpt-4.1-mini missing")
	}

	unknown := cfg.GetModelPricing("some-future-model")
	if unknown.Standard.Input != 0 || unknown.Standard.Output != 0 {
		t.Error("unknown model must get zero pricing")
	}
}
