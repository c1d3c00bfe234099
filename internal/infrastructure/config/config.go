package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	OTLP   OTLPConfig
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port string `env:"SERVER_PORT" env-default:"8080"`
	// BasePath is where the product routes are mounted; "/" serves them at the root
	BasePath string `env:"PRODUCTS_BASE_PATH" env-default:"/api/products"`
}

type StoreConfig struct {
	Driver         string        `env:"STORE_DRIVER" env-default:"mongo" env-description:"mongo or memory"`
	MongoURI       string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase  string        `env:"MONGO_DATABASE" env-default:"inventory"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" env-required:"true"`
}

type OTLPConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	ServiceName string `env:"OTEL_SERVICE_NAME" env-default:"products-api"`
	Environment string `env:"OTEL_ENVIRONMENT" env-default:"development"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}

	if !strings.HasPrefix(cfg.Server.BasePath, "/") {
		return nil, fmt.Errorf("PRODUCTS_BASE_PATH must start with /, got %q", cfg.Server.BasePath)
	}

	switch cfg.Store.Driver {
	case StoreMongo, StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}

	return &cfg, nil
}

// Address returns the listen address
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
