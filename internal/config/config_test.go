package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"API_PORT", "NATS_SUBJECT", "PREVIEW_MAX_CHARS", "API_RATE_LIMIT_RPS", "API_RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("unexpected default api port %q", cfg.APIPort)
	}
	if cfg.NATSSubject != "applications.events" {
		t.Fatalf("unexpected default subject %q", cfg.NATSSubject)
	}
	if cfg.PreviewMaxChars != 600 {
		t.Fatalf("unexpected default preview cap %d", cfg.PreviewMaxChars)
	}
	if cfg.APIRateLimitRPS != 10 || cfg.APIRateLimitBurst != 20 {
		t.Fatalf("unexpected default rate limits %v/%v", cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("PREVIEW_MAX_CHARS", "120")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Fatalf("override not applied: %q", cfg.APIPort)
	}
	if cfg.PreviewMaxChars != 120 {
		t.Fatalf("int override not applied: %d", cfg.PreviewMaxChars)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("float override not applied: %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("PREVIEW_MAX_CHARS", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.PreviewMaxChars != 600 {
		t.Fatalf("expected fallback preview cap, got %d", cfg.PreviewMaxChars)
	}
	if cfg.APIRateLimitRPS != 10 {
		t.Fatalf("expected fallback rps, got %v", cfg.APIRateLimitRPS)
	}
}
