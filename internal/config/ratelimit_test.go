package config

import "testing"

func clearRateLimitEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
		"RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY",
		"RATE_LIMIT_PREFIX", "RATE_LIMIT_DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	clearRateLimitEnv(t)
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled || cfg.Capacity != 20 || cfg.RefillTokens != 1 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.KeyStrategy != "ip_route" || cfg.Prefix != "rl" {
		t.Fatalf("key defaults = %+v", cfg)
	}
}

func TestLoadRateLimitConfigClamping(t *testing.T) {
	clearRateLimitEnv(t)
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-2")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 {
		t.Fatalf("clamped values = %+v", cfg)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatalf("TTL %s not raised to cover refill interval %s", cfg.TTL, cfg.RefillInterval)
	}
}

func TestLoadRateLimitConfigDisabled(t *testing.T) {
	clearRateLimitEnv(t)
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	if cfg := LoadRateLimitConfig(); cfg.Enabled {
		t.Fatal("expected limiter to be disabled")
	}
}

func TestIntOr(t *testing.T) {
	t.Setenv("SOME_OPTIONAL_INT", "")
	if got := intOr("SOME_OPTIONAL_INT", 30); got != 30 {
		t.Fatalf("unset: got %d, want 30", got)
	}
	t.Setenv("SOME_OPTIONAL_INT", "not-a-number")
	if got := intOr("SOME_OPTIONAL_INT", 30); got != 30 {
		t.Fatalf("malformed: got %d, want 30", got)
	}
	t.Setenv("SOME_OPTIONAL_INT", "45")
	if got := intOr("SOME_OPTIONAL_INT", 30); got != 45 {
		t.Fatalf("set: got %d, want 45", got)
	}
}
