package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/luckydraw/internal/vrf"
)

// Config holds the full runtime configuration for the lucky draw service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Owner      string           `yaml:"owner"`
	LogLevel   string           `yaml:"log_level"`
	Randomness vrf.Config       `yaml:"randomness"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

type HTTPConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type DatabaseConfig struct {
	// URL is a postgres connection string. Empty selects the in-memory store.
	URL string `yaml:"url"`
}

type RedisConfig struct {
	// Addr is the redis host:port for event publishing. Empty disables it.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type AuthConfig struct {
	// JWTSecret signs caller tokens. Empty disables auth on write routes.
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Load loads configuration from config/luckydraw.yaml, falling back to
// defaults when the file is absent. Environment variables override both.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "luckydraw.yaml"))
}

// LoadFromPath loads configuration from a specific path. A missing file is
// not an error; defaults are used instead.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()

	if cfg.Owner == "" {
		return nil, fmt.Errorf("owner address is required")
	}
	return cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HTTP:     HTTPConfig{ListenAddr: ":8080"},
		Redis:    RedisConfig{Channel: "luckydraw.events"},
		LogLevel: "info",
		Randomness: vrf.Config{
			SubscriptionID:       1,
			CallbackGasLimit:     500000,
			RequestConfirmations: 3,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 20, Burst: 40},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LUCKYDRAW_LISTEN_ADDR"); v != "" {
		c.HTTP.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_CHANNEL"); v != "" {
		c.Redis.Channel = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("LUCKYDRAW_OWNER"); v != "" {
		c.Owner = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("VRF_SUBSCRIPTION_ID"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Randomness.SubscriptionID = id
		}
	}
	if v := os.Getenv("VRF_KEY_HASH"); v != "" {
		c.Randomness.KeyHash = v
	}
}
