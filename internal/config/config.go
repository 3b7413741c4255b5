// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds condo-orchestrator configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"condo-orchestrator"`

	// Inbound subject overrides (empty = built-in condo.*.v1 subjects)
	TaskSubject        string `envconfig:"ORCHESTRATOR_TASK_SUBJECT"`
	RouteSubject       string `envconfig:"ORCHESTRATOR_ROUTE_SUBJECT"`
	StatusSubject      string `envconfig:"ORCHESTRATOR_STATUS_SUBJECT"`
	ChangeEventSubject string `envconfig:"ORCHESTRATOR_CHANGE_EVENT_SUBJECT"`

	// Timeouts
	RequestTimeout time.Duration `envconfig:"ORCHESTRATOR_REQUEST_TIMEOUT" default:"25s"`

	// Task history (0 = built-in default)
	HistorySize int `envconfig:"ORCHESTRATOR_HISTORY_SIZE" default:"256"`

	// AI collaborator. Provider "static" answers without network (dev/test).
	AIProvider    string  `envconfig:"AI_PROVIDER" default:"anthropic"`
	AIModel       string  `envconfig:"AI_MODEL"`
	AITemperature float64 `envconfig:"AI_TEMPERATURE" default:"0.2"`
	AIMaxTokens   int     `envconfig:"AI_MAX_TOKENS" default:"512"`
	AnthropicKey  string  `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIKey     string  `envconfig:"OPENAI_API_KEY"`

	// Database (empty = task history persistence disabled)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// HTTP status endpoint (ORCHESTRATOR_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"ORCHESTRATOR_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the orchestrator server.
func (c *Config) ValidateForServe() error {
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - ORCHESTRATOR_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("%s - ORCHESTRATOR_HISTORY_SIZE must not be negative", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
