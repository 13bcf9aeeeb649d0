package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPathMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	want := DefaultConfig()
	if cfg != want {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromPathMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "core:\n  demoUser: other-user\n  rateLimitBurst: 20\nmetrics:\n  addr: 127.0.0.1:9999\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg := LoadFromPath(path)
	if cfg.Core.DemoUser != "other-user" {
		t.Fatalf("demoUser not merged: %q", cfg.Core.DemoUser)
	}
	if cfg.Core.RateLimitBurst != 20 {
		t.Fatalf("rateLimitBurst not merged: %d", cfg.Core.RateLimitBurst)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9999" {
		t.Fatalf("metrics addr not merged: %q", cfg.Metrics.Addr)
	}
	// Untouched fields keep their defaults.
	if cfg.Core.SnapshotDelay != DefaultConfig().Core.SnapshotDelay {
		t.Fatalf("snapshotDelay clobbered: %v", cfg.Core.SnapshotDelay)
	}
}

func TestLoadFromPathMalformedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("core: [not a map"), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	cfg := LoadFromPath(path)
	if cfg != DefaultConfig() {
		t.Fatalf("malformed file must fall back to defaults, got %+v", cfg)
	}
}

func TestMergeSkipsZeroValues(t *testing.T) {
	dst := DefaultConfig()
	Merge(&dst, Config{})
	if dst != DefaultConfig() {
		t.Fatalf("zero source must leave dst untouched: %+v", dst)
	}

	Merge(&dst, Config{Core: CoreConfig{SendLatency: 25 * time.Millisecond, DemoUser: "u2"}})
	if dst.Core.SendLatency != 25*time.Millisecond || dst.Core.DemoUser != "u2" {
		t.Fatalf("non-zero source fields must win: %+v", dst.Core)
	}
	if dst.Core.RateLimitPerSec != DefaultConfig().Core.RateLimitPerSec {
		t.Fatalf("unset source field clobbered: %v", dst.Core.RateLimitPerSec)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ECHO_SEND_LATENCY", "75ms")
	t.Setenv("ECHO_SNAPSHOT_DELAY", "bogus")
	t.Setenv("ECHO_RATE_LIMIT_PER_SEC", "2.5")
	t.Setenv("ECHO_RATE_LIMIT_BURST", "-3")
	t.Setenv("ECHO_DEMO_USER", "env-user")
	t.Setenv("ECHO_METRICS_ADDR", "0.0.0.0:9200")

	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)

	if cfg.Core.SendLatency != 75*time.Millisecond {
		t.Fatalf("sendLatency override not applied: %v", cfg.Core.SendLatency)
	}
	if cfg.Core.SnapshotDelay != DefaultConfig().Core.SnapshotDelay {
		t.Fatalf("unparseable duration must be ignored: %v", cfg.Core.SnapshotDelay)
	}
	if cfg.Core.RateLimitPerSec != 2.5 {
		t.Fatalf("rate override not applied: %v", cfg.Core.RateLimitPerSec)
	}
	if cfg.Core.RateLimitBurst != DefaultConfig().Core.RateLimitBurst {
		t.Fatalf("negative burst must be ignored: %d", cfg.Core.RateLimitBurst)
	}
	if cfg.Core.DemoUser != "env-user" {
		t.Fatalf("demoUser override not applied: %q", cfg.Core.DemoUser)
	}
	if cfg.Metrics.Addr != "0.0.0.0:9200" {
		t.Fatalf("metrics addr override not applied: %q", cfg.Metrics.Addr)
	}
}
