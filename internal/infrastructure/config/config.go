package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/FONAR-bit/fonar-project/pkg/kafka"
	"github.com/FONAR-bit/fonar-project/pkg/observability"
	"github.com/FONAR-bit/fonar-project/pkg/postgres"
)

// Config is the full runtime configuration of the fund service, loaded from
// environment variables.
type Config struct {
	ServiceName    string
	HTTPPort       int
	MigrationsPath string
	DB             postgres.Config
	Kafka          kafka.Config
	Log            observability.LogConfig
}

// Validate panics on configuration the service cannot start without.
func (c Config) Validate() {
	if c.DB.Password == "" {
		panic("DB_PASSWORD environment variable is required")
	}
}

// Load reads configuration from the environment, falling back to development
// defaults.
func Load() Config {
	return Config{
		ServiceName:    "fonar-fund",
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://./migrations"),
		DB: postgres.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "fonar"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "fonar"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Kafka: kafka.Config{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TLS:           getEnvBool("KAFKA_TLS", false),
			SASLEnabled:   getEnvBool("KAFKA_SASL_ENABLED", false),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", "PLAIN"),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Log: observability.LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// HTTPAddr returns the listen address of the ops HTTP server.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
