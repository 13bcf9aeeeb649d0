package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the simulated backend. Everything has a working default so a
// zero config file (or none at all) is fine.
type Config struct {
	Core    CoreConfig    `yaml:"core"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type CoreConfig struct {
	// SendLatency is the simulated network delay applied before a send
	// mutates the store.
	SendLatency time.Duration `yaml:"sendLatency"`
	// SnapshotDelay delays the first snapshot after subscribe so that
	// back-to-back mutations coalesce into one delivery.
	SnapshotDelay time.Duration `yaml:"snapshotDelay"`
	// Per-sender send throttle. Zero rate disables throttling.
	RateLimitPerSec  float64       `yaml:"rateLimitPerSec"`
	RateLimitBurst   int           `yaml:"rateLimitBurst"`
	RateLimitIdleTTL time.Duration `yaml:"rateLimitIdleTTL"`
	// DemoUser is the session identity the daemon seeds and acts as.
	DemoUser string `yaml:"demoUser"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() Config {
	return Config{
		Core: CoreConfig{
			SendLatency:      0,
			SnapshotDelay:    50 * time.Millisecond,
			RateLimitPerSec:  5,
			RateLimitBurst:   10,
			RateLimitIdleTTL: 10 * time.Minute,
			DemoUser:         "test-user",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9109",
		},
	}
}

// LoadFromPath reads the first existing candidate config file, merges it
// over the defaults, and applies env overrides last.
func LoadFromPath(configPath string) Config {
	cfg := DefaultConfig()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/config.yaml",
			"configs/config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src Config) {
	if src.Core.SendLatency != 0 {
		dst.Core.SendLatency = src.Core.SendLatency
	}
	if src.Core.SnapshotDelay != 0 {
		dst.Core.SnapshotDelay = src.Core.SnapshotDelay
	}
	if src.Core.RateLimitPerSec != 0 {
		dst.Core.RateLimitPerSec = src.Core.RateLimitPerSec
	}
	if src.Core.RateLimitBurst != 0 {
		dst.Core.RateLimitBurst = src.Core.RateLimitBurst
	}
	if src.Core.RateLimitIdleTTL != 0 {
		dst.Core.RateLimitIdleTTL = src.Core.RateLimitIdleTTL
	}
	if src.Core.DemoUser != "" {
		dst.Core.DemoUser = src.Core.DemoUser
	}
	if src.Metrics.Addr != "" {
		dst.Metrics.Addr = src.Metrics.Addr
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ECHO_SEND_LATENCY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.Core.SendLatency = d
		}
	}
	if v := os.Getenv("ECHO_SNAPSHOT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.Core.SnapshotDelay = d
		}
	}
	if v := os.Getenv("ECHO_RATE_LIMIT_PER_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Core.RateLimitPerSec = f
		}
	}
	if v := os.Getenv("ECHO_RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Core.RateLimitBurst = n
		}
	}
	if v := os.Getenv("ECHO_DEMO_USER"); v != "" {
		cfg.Core.DemoUser = v
	}
	if v := os.Getenv("ECHO_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
