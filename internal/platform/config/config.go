package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `toml:"service_name"`
	HTTPPort     string   `toml:"http_port"`
	PostgresDSN  string   `toml:"postgres_dsn"`
	RedisAddr    string   `toml:"redis_addr"`
	KafkaBrokers []string `toml:"kafka_brokers"`

	ListingFee      int64  `toml:"listing_fee"`
	GraceWindow     string `toml:"grace_window"`
	EscrowAccount   string `toml:"escrow_account"`
	PlatformAccount string `toml:"platform_account"`

	EnableRedisGuard  bool `toml:"enable_redis_guard"`
	EnableOutboxRelay bool `toml:"enable_outbox_relay"`
}

// Load resolves configuration in three layers: a .env file if present, an
// optional TOML file named by CARAVEL_CONFIG, then environment variables.
// Environment wins over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName:       "caravel",
		HTTPPort:          "8080",
		KafkaBrokers:      []string{"localhost:9092"},
		ListingFee:        25,
		GraceWindow:       "24h",
		EscrowAccount:     "market-escrow",
		PlatformAccount:   "market-platform",
		EnableRedisGuard:  false,
		EnableOutboxRelay: true,
	}

	if path := strings.TrimSpace(os.Getenv("CARAVEL_CONFIG")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if value := os.Getenv("SERVICE_NAME"); value != "" {
		cfg.ServiceName = value
	}
	if value := os.Getenv("HTTP_PORT"); value != "" {
		cfg.HTTPPort = value
	}
	if value := os.Getenv("POSTGRES_DSN"); value != "" {
		cfg.PostgresDSN = value
	}
	if value := os.Getenv("REDIS_ADDR"); value != "" {
		cfg.RedisAddr = value
	}
	if brokers := envList("KAFKA_BROKERS"); len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}
	if value := os.Getenv("LISTING_FEE"); value != "" {
		fee, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse LISTING_FEE: %w", err)
		}
		cfg.ListingFee = fee
	}
	if value := os.Getenv("GRACE_WINDOW"); value != "" {
		cfg.GraceWindow = value
	}
	if value := os.Getenv("ESCROW_ACCOUNT"); value != "" {
		cfg.EscrowAccount = value
	}
	if value := os.Getenv("PLATFORM_ACCOUNT"); value != "" {
		cfg.PlatformAccount = value
	}
	cfg.EnableRedisGuard = envBool("ENABLE_REDIS_GUARD", cfg.EnableRedisGuard)
	cfg.EnableOutboxRelay = envBool("ENABLE_OUTBOX_RELAY", cfg.EnableOutboxRelay)

	if _, err := cfg.GraceWindowDuration(); err != nil {
		return Config{}, err
	}
	if cfg.ListingFee < 0 {
		return Config{}, fmt.Errorf("listing fee must not be negative: %d", cfg.ListingFee)
	}
	return cfg, nil
}

// GraceWindowDuration parses the configured edit window.
func (c Config) GraceWindowDuration() (time.Duration, error) {
	window, err := time.ParseDuration(c.GraceWindow)
	if err != nil {
		return 0, fmt.Errorf("parse grace window %q: %w", c.GraceWindow, err)
	}
	if window <= 0 {
		return 0, fmt.Errorf("grace window must be positive: %s", c.GraceWindow)
	}
	return window, nil
}

func envList(name string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
