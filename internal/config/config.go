// Package config loads runtime settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	Port            string
	ShutdownTimeout time.Duration
	RateLimit       int
	WSOrigins       []string

	// Database
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP, disabled when URL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// bcrypt hash of the extraction pipeline's bearer token; empty disables
	// the pipeline routes.
	PipelineTokenHash string
}

// Load reads .env (if present) and then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("TROLLEY_PORT", "8080"),
		ShutdownTimeout: getEnvDuration("TROLLEY_SHUTDOWN_TIMEOUT", 5*time.Second),
		RateLimit:       getEnvInt("TROLLEY_RATE_LIMIT", 60),
		WSOrigins:       getEnvList("TROLLEY_WS_ORIGINS"),

		DBPath:   getEnv("TROLLEY_DB_PATH", "trolley.db"),
		LogLevel:  getEnv("TROLLEY_LOG_LEVEL", "info"),
		LogFormat: getEnv("TROLLEY_LOG_FORMAT", "text"),

		AMQPURL:      getEnv("TROLLEY_AMQP_URL", ""),
		AMQPExchange: getEnv("TROLLEY_AMQP_EXCHANGE", "trolley"),
		AMQPQueue:    getEnv("TROLLEY_AMQP_QUEUE", "receipt_processing"),

		PipelineTokenHash: getEnv("TROLLEY_PIPELINE_TOKEN_HASH", ""),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PipelineTokenHash != "" && !strings.HasPrefix(c.PipelineTokenHash, "$2") {
		errs = append(errs, "pipeline token hash must be a bcrypt hash")
	}

	if c.RateLimit < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether receipts should be published for background processing.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var list []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}
