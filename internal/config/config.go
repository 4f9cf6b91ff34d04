package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	SlotDeletePolicyReject  = "reject"
	SlotDeletePolicyCascade = "cascade"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":50051"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"1h"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"720h"`

	// Что делать с бронированиями при удалении слота: reject | cascade.
	SlotDeletePolicy string `envconfig:"SLOT_DELETE_POLICY" default:"reject"`

	DB DBConfig
}

// Load подгружает .env (если он есть) и читает конфигурацию из окружения.
// Уже выставленные переменные окружения имеют приоритет над .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	switch c.SlotDeletePolicy {
	case SlotDeletePolicyReject, SlotDeletePolicyCascade:
	default:
		return fmt.Errorf("unsupported SLOT_DELETE_POLICY %q", c.SlotDeletePolicy)
	}
	return c.DB.validate()
}

// LoadDBConfig читает только DB_* переменные. Нужен для команд,
// которым не требуются JWT и адреса серверов (например, migrate).
func LoadDBConfig() (*DBConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg DBConfig
	if err := envconfig.Process("DB", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
