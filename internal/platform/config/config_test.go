package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "caravel" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.ListingFee != 25 {
		t.Fatalf("expected default listing fee 25, got %d", cfg.ListingFee)
	}
	window, err := cfg.GraceWindowDuration()
	if err != nil {
		t.Fatalf("grace window: %v", err)
	}
	if window != 24*time.Hour {
		t.Fatalf("expected 24h default window, got %s", window)
	}
	if !cfg.EnableOutboxRelay {
		t.Fatalf("relay should default on")
	}
	if cfg.EnableRedisGuard {
		t.Fatalf("redis guard should default off")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("LISTING_FEE", "40")
	t.Setenv("GRACE_WINDOW", "1h")
	t.Setenv("ESCROW_ACCOUNT", "vault")
	t.Setenv("ENABLE_REDIS_GUARD", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListingFee != 40 {
		t.Fatalf("expected fee 40, got %d", cfg.ListingFee)
	}
	window, err := cfg.GraceWindowDuration()
	if err != nil || window != time.Hour {
		t.Fatalf("expected 1h window, got %s (%v)", window, err)
	}
	if cfg.EscrowAccount != "vault" {
		t.Fatalf("expected vault escrow account, got %q", cfg.EscrowAccount)
	}
	if !cfg.EnableRedisGuard {
		t.Fatalf("expected redis guard enabled")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("GRACE_WINDOW", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparsable grace window")
	}
}
