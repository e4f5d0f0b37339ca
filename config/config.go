package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"nick8/internal/ratelimit"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		// Backend is one of mongo, dynamodb or memory.
		Backend string        `yaml:"backend"`
		URI     string        `yaml:"uri"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"database"`

	DynamoDB struct {
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"dynamodb"`

	JWT struct {
		Secret string `yaml:"secret"`
		Expiry int    `yaml:"expiry"` // Token expiry in minutes
	} `yaml:"jwt"`

	Redis struct {
		Addr           string `yaml:"addr"`
		Password       string `yaml:"password"`
		DB             int    `yaml:"db"`
		LimitPerMinute int    `yaml:"limitPerMinute"`
	} `yaml:"redis"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// LoadConfig reads the configuration file, then applies .env and environment overrides
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Database.URI = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1313
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Database.Backend == "" {
		cfg.Database.Backend = "mongo"
	}
	if cfg.Database.Timeout <= 0 {
		cfg.Database.Timeout = 10 * time.Second
	}
	if cfg.DynamoDB.Region == "" {
		cfg.DynamoDB.Region = "us-east-1"
	}
	if cfg.JWT.Expiry <= 0 {
		cfg.JWT.Expiry = 1440
	}
	if cfg.Redis.LimitPerMinute <= 0 {
		cfg.Redis.LimitPerMinute = ratelimit.DefaultConfig().Max
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
